package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"storefront/internal/clients"
	"storefront/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const validToken = "token-123"

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func product(id int, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    fmt.Sprintf("Product %d", id),
		Price:    decimal.RequireFromString(price),
		Category: "electronics",
		Image:    fmt.Sprintf("https://img.example/%d.jpg", id),
		Rating:   domain.Rating{Rate: decimal.RequireFromString("4.1"), Count: 120},
	}
}

// fakeStore is the shared state behind every fakeClient value.
type fakeStore struct {
	mu           sync.Mutex
	products     map[int]domain.Product
	categories   []string
	users        map[string]string
	profile      domain.UserProfile
	carts        []domain.RemoteCart
	failProducts map[int]bool
	productCalls map[int]int
	productDelay time.Duration
	onProduct    func(productID int)
	registerErr  error
	registered   []domain.NewUser
	unavailable  bool
	rejectTokens bool
	seenTokens   []string
}

func newFakeStore(products ...domain.Product) *fakeStore {
	s := &fakeStore{
		products:     make(map[int]domain.Product),
		categories:   []string{"electronics", "jewelery"},
		users:        map[string]string{"johnd": "m38rmF$"},
		profile:      domain.UserProfile{ID: 1, Email: "john@gmail.com", Username: "johnd", Name: domain.Name{Firstname: "john", Lastname: "doe"}},
		failProducts: make(map[int]bool),
		productCalls: make(map[int]int),
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *fakeStore) client() clients.StoreClient {
	return &fakeClient{store: s}
}

func (s *fakeStore) calls(productID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productCalls[productID]
}

type fakeClient struct {
	store *fakeStore
	token string
}

func (c *fakeClient) WithToken(token string) clients.StoreClient {
	return &fakeClient{store: c.store, token: token}
}

func (c *fakeClient) begin(path string) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.seenTokens = append(c.store.seenTokens, c.token)
	if c.store.unavailable {
		return fmt.Errorf("failed to communicate with store service: %w", domain.ErrServiceUnavailable)
	}
	if c.store.rejectTokens && c.token != "" {
		return &clients.APIError{Method: http.MethodGet, Path: path, StatusCode: http.StatusUnauthorized}
	}
	return nil
}

func (c *fakeClient) authorized(path string) error {
	if c.token != validToken {
		return &clients.APIError{Method: http.MethodGet, Path: path, StatusCode: http.StatusUnauthorized}
	}
	return nil
}

func (c *fakeClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := c.begin("/products"); err != nil {
		return nil, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	out := make([]domain.Product, 0, len(c.store.products))
	for _, p := range c.store.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *fakeClient) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	all, err := c.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *fakeClient) ListCategories(ctx context.Context) ([]string, error) {
	if err := c.begin("/products/categories"); err != nil {
		return nil, err
	}
	return append([]string(nil), c.store.categories...), nil
}

func (c *fakeClient) GetProduct(ctx context.Context, productID int) (*domain.Product, error) {
	path := fmt.Sprintf("/products/%d", productID)
	if err := c.begin(path); err != nil {
		return nil, err
	}

	c.store.mu.Lock()
	c.store.productCalls[productID]++
	delay := c.store.productDelay
	hook := c.store.onProduct
	fail := c.store.failProducts[productID]
	p, ok := c.store.products[productID]
	c.store.mu.Unlock()

	if hook != nil {
		hook(productID)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fail {
		return nil, &clients.APIError{Method: http.MethodGet, Path: path, StatusCode: http.StatusInternalServerError}
	}
	if !ok {
		return nil, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
	}
	return &p, nil
}

func (c *fakeClient) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	if err := c.begin("/auth/login"); err != nil {
		return "", err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if pw, ok := c.store.users[creds.Username]; !ok || pw != creds.Password {
		return "", &clients.APIError{Method: http.MethodPost, Path: "/auth/login", StatusCode: http.StatusUnauthorized}
	}
	return validToken, nil
}

func (c *fakeClient) RegisterUser(ctx context.Context, user domain.NewUser) (int, error) {
	if err := c.begin("/users"); err != nil {
		return 0, err
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.registerErr != nil {
		return 0, c.store.registerErr
	}
	c.store.registered = append(c.store.registered, user)
	c.store.users[user.Username] = user.Password
	return 11, nil
}

func (c *fakeClient) GetUser(ctx context.Context, userID int) (*domain.UserProfile, error) {
	path := fmt.Sprintf("/users/%d", userID)
	if err := c.begin(path); err != nil {
		return nil, err
	}
	if err := c.authorized(path); err != nil {
		return nil, err
	}
	profile := c.store.profile
	return &profile, nil
}

func (c *fakeClient) ListUserCarts(ctx context.Context, userID int) ([]domain.RemoteCart, error) {
	path := fmt.Sprintf("/carts/user/%d", userID)
	if err := c.begin(path); err != nil {
		return nil, err
	}
	if err := c.authorized(path); err != nil {
		return nil, err
	}
	return c.store.carts, nil
}

// failingStateRepo accepts reads of nothing and rejects every write.
type failingStateRepo struct{}

var errDiskFull = errors.New("disk full")

func (failingStateRepo) Initialize(ctx context.Context) error { return nil }
func (failingStateRepo) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, domain.ErrKeyNotFound
}
func (failingStateRepo) Set(ctx context.Context, key string, value []byte) error { return errDiskFull }
func (failingStateRepo) Delete(ctx context.Context, key string) error             { return errDiskFull }
func (failingStateRepo) Ping(ctx context.Context) bool                           { return false }
func (failingStateRepo) Close() error                                            { return nil }
