package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/clients"
	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

const minPasswordLength = 6

type AuthUseCase interface {
	Login(ctx context.Context, creds domain.Credentials) error
	Register(ctx context.Context, form domain.RegistrationForm) error
	Logout(ctx context.Context)
}

type authUseCase struct {
	client  clients.StoreClient
	session SessionUseCase
	log     *logrus.Logger
}

func NewAuthUseCase(client clients.StoreClient, session SessionUseCase, logger *logrus.Logger) AuthUseCase {
	return &authUseCase{
		client:  client,
		session: session,
		log:     logger,
	}
}

// Login exchanges credentials for a token and authenticates the session with it.
func (uc *authUseCase) Login(ctx context.Context, creds domain.Credentials) error {
	creds.Username = strings.TrimSpace(creds.Username)
	if creds.Username == "" || creds.Password == "" {
		uc.log.Warn("Use Case: Login failed - missing username or password")
		return fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	uc.log.Infof("Use Case: Attempting login for user: %s", creds.Username)
	token, err := uc.client.Login(ctx, creds)
	if err != nil {
		mapped := mapAuthError(err)
		uc.log.Warnf("Use Case: Login failed for user %s: %v", creds.Username, err)
		return mapped
	}
	return uc.session.Login(ctx, token)
}

// Register creates the account and then logs in with the same credentials.
// The email doubles as the username.
func (uc *authUseCase) Register(ctx context.Context, form domain.RegistrationForm) error {
	user, err := validateRegistration(form)
	if err != nil {
		uc.log.Warnf("Use Case: Registration failed validation: %v", err)
		return err
	}

	uc.log.Infof("Use Case: Attempting registration for email: %s", user.Email)
	if _, err := uc.client.RegisterUser(ctx, user); err != nil {
		uc.log.Warnf("Use Case: Registration failed for %s: %v", user.Email, err)
		return mapAuthError(err)
	}

	return uc.Login(ctx, domain.Credentials{Username: user.Username, Password: user.Password})
}

func (uc *authUseCase) Logout(ctx context.Context) {
	uc.session.Logout(ctx)
}

func validateRegistration(form domain.RegistrationForm) (domain.NewUser, error) {
	name := strings.TrimSpace(form.Name)
	email := strings.TrimSpace(form.Email)

	if name == "" || email == "" || form.Password == "" || form.ConfirmPassword == "" {
		return domain.NewUser{}, fmt.Errorf("%w: all fields are required", domain.ErrValidation)
	}
	if form.Password != form.ConfirmPassword {
		return domain.NewUser{}, fmt.Errorf("%w: passwords do not match", domain.ErrValidation)
	}
	if len(form.Password) < minPasswordLength {
		return domain.NewUser{}, fmt.Errorf("%w: password must be at least %d characters long", domain.ErrValidation, minPasswordLength)
	}

	return domain.NewUser{
		Email:    email,
		Username: email,
		Password: form.Password,
		Name:     splitName(name),
	}, nil
}

// splitName takes the first word as the first name and the rest as the last name.
func splitName(full string) domain.Name {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return domain.Name{}
	}
	return domain.Name{
		Firstname: parts[0],
		Lastname:  strings.Join(parts[1:], " "),
	}
}

func mapAuthError(err error) error {
	switch clients.StatusCode(err) {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %v", domain.ErrInvalidData, err)
	}
	if errors.Is(err, domain.ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("authentication request failed: %w", err)
}
