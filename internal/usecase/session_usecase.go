package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"storefront/internal/clients"
	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

// LogoutHook runs after the session has been cleared.
type LogoutHook func(ctx context.Context)

type SessionUseCase interface {
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context)
	Restore(ctx context.Context) error
	FetchCurrentProfile(ctx context.Context) (*domain.UserProfile, error)

	IsAuthenticated() bool
	State() domain.AuthState
	Token() string
	Profile() *domain.UserProfile
	Info() domain.SessionInfo

	// Client returns the store client bound to the current credentials.
	Client() clients.StoreClient
	// HandleUnauthorized logs the session out when err is a 401 from the store API.
	HandleUnauthorized(ctx context.Context, err error) error

	OnLogout(hook LogoutHook)
}

type sessionUseCase struct {
	mu      sync.RWMutex
	token   string
	profile *domain.UserProfile
	hooks   []LogoutHook

	client        clients.StoreClient
	stateRepo     domain.StateRepository
	profileUserID int
	log           *logrus.Logger
}

func NewSessionUseCase(client clients.StoreClient, stateRepo domain.StateRepository, profileUserID int, logger *logrus.Logger) SessionUseCase {
	return &sessionUseCase{
		client:        client,
		stateRepo:     stateRepo,
		profileUserID: profileUserID,
		log:           logger,
	}
}

func (uc *sessionUseCase) OnLogout(hook LogoutHook) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.hooks = append(uc.hooks, hook)
}

func (uc *sessionUseCase) Login(ctx context.Context, token string) error {
	if token == "" {
		uc.log.Warn("Use Case: Login rejected - empty token")
		return domain.ErrEmptyToken
	}

	uc.mu.Lock()
	uc.token = token
	uc.mu.Unlock()

	if err := uc.stateRepo.Set(ctx, domain.TokenKey, []byte(token)); err != nil {
		uc.log.Warnf("Use Case: Failed to persist session token: %v", err)
	}
	uc.log.Info("Use Case: Session authenticated")
	return nil
}

func (uc *sessionUseCase) Logout(ctx context.Context) {
	uc.mu.Lock()
	uc.token = ""
	uc.profile = nil
	hooks := append([]LogoutHook(nil), uc.hooks...)
	uc.mu.Unlock()

	if err := uc.stateRepo.Delete(ctx, domain.TokenKey); err != nil {
		uc.log.Warnf("Use Case: Failed to delete persisted session token: %v", err)
	}
	for _, hook := range hooks {
		hook(ctx)
	}
	uc.log.Info("Use Case: Session logged out")
}

func (uc *sessionUseCase) Restore(ctx context.Context) error {
	value, err := uc.stateRepo.Get(ctx, domain.TokenKey)
	if errors.Is(err, domain.ErrKeyNotFound) {
		uc.log.Info("Use Case: No persisted session token, starting anonymous")
		return nil
	}
	if err != nil {
		uc.log.Warnf("Use Case: Could not read persisted session token, starting anonymous: %v", err)
		return fmt.Errorf("could not restore session: %w", err)
	}
	if len(value) == 0 {
		return nil
	}

	uc.mu.Lock()
	uc.token = string(value)
	uc.mu.Unlock()
	uc.log.Info("Use Case: Session restored from persisted token")
	return nil
}

func (uc *sessionUseCase) FetchCurrentProfile(ctx context.Context) (*domain.UserProfile, error) {
	if !uc.IsAuthenticated() {
		return nil, domain.ErrNotAuthenticated
	}

	profile, err := uc.Client().GetUser(ctx, uc.profileUserID)
	if err != nil {
		if clients.StatusCode(err) == http.StatusUnauthorized {
			return nil, uc.HandleUnauthorized(ctx, err)
		}
		uc.log.Warnf("Use Case: Failed to fetch profile for user %d: %v", uc.profileUserID, err)
		return nil, fmt.Errorf("could not fetch profile: %w", err)
	}

	uc.mu.Lock()
	// A logout that raced with the fetch wins.
	if uc.token != "" {
		uc.profile = profile
	}
	uc.mu.Unlock()

	uc.log.Infof("Use Case: Profile retrieved successfully for user ID: %d", profile.ID)
	return profile, nil
}

func (uc *sessionUseCase) HandleUnauthorized(ctx context.Context, err error) error {
	if clients.StatusCode(err) != http.StatusUnauthorized {
		return err
	}
	uc.log.Warn("Use Case: Store API rejected the session token, logging out")
	uc.Logout(ctx)
	return fmt.Errorf("%w: %v", domain.ErrSessionExpired, err)
}

func (uc *sessionUseCase) IsAuthenticated() bool {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.token != ""
}

func (uc *sessionUseCase) State() domain.AuthState {
	if uc.IsAuthenticated() {
		return domain.StateAuthenticated
	}
	return domain.StateAnonymous
}

func (uc *sessionUseCase) Token() string {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.token
}

func (uc *sessionUseCase) Profile() *domain.UserProfile {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.profile == nil {
		return nil
	}
	p := *uc.profile
	return &p
}

func (uc *sessionUseCase) Info() domain.SessionInfo {
	state := uc.State()
	return domain.SessionInfo{
		State:         state,
		Authenticated: state == domain.StateAuthenticated,
		Profile:       uc.Profile(),
	}
}

func (uc *sessionUseCase) Client() clients.StoreClient {
	if token := uc.Token(); token != "" {
		return uc.client.WithToken(token)
	}
	return uc.client
}
