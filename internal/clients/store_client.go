package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// APIError is returned for any non-2xx response from the store API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("store API %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

// StatusCode reports the HTTP status carried by err, or 0 when err is not an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type StoreClient interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	GetProduct(ctx context.Context, productID int) (*domain.Product, error)

	Login(ctx context.Context, creds domain.Credentials) (string, error)
	RegisterUser(ctx context.Context, user domain.NewUser) (int, error)
	GetUser(ctx context.Context, userID int) (*domain.UserProfile, error)
	ListUserCarts(ctx context.Context, userID int) ([]domain.RemoteCart, error)

	// WithToken returns a client that sends the bearer token on every call.
	// The receiver is left untouched.
	WithToken(token string) StoreClient
}

type storeHTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	tracer  trace.Tracer
	log     *logrus.Logger
}

func NewStoreHTTPClient(baseURL string, timeout time.Duration, logger *logrus.Logger) StoreClient {
	return &storeHTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer("storefront/clients"),
		log:    logger,
	}
}

func (c *storeHTTPClient) WithToken(token string) StoreClient {
	bound := *c
	bound.token = token
	return &bound
}

func (c *storeHTTPClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/products", nil, &products); err != nil {
		return nil, err
	}
	c.log.Debugf("StoreClient: Received %d products", len(products))
	return products, nil
}

func (c *storeHTTPClient) ListProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var products []domain.Product
	path := "/products/category/" + url.PathEscape(category)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	c.log.Debugf("StoreClient: Received %d products for category '%s'", len(products), category)
	return products, nil
}

func (c *storeHTTPClient) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/products/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *storeHTTPClient) GetProduct(ctx context.Context, productID int) (*domain.Product, error) {
	// Unknown ids come back as 200 with an empty body, so decode into a pointer.
	var product *domain.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/products/%d", productID), nil, &product); err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
		}
		return nil, err
	}
	if product == nil || product.ID == 0 {
		c.log.Warnf("StoreClient: Product with ID %d not found (empty body)", productID)
		return nil, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
	}
	if product.ID != productID {
		c.log.Warnf("StoreClient: Mismatched product ID in response. Requested %d, got %d", productID, product.ID)
	}
	return product, nil
}

func (c *storeHTTPClient) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("store API returned an empty token for user '%s'", creds.Username)
	}
	c.log.Infof("StoreClient: Login succeeded for user '%s'", creds.Username)
	return resp.Token, nil
}

func (c *storeHTTPClient) RegisterUser(ctx context.Context, user domain.NewUser) (int, error) {
	var resp struct {
		ID int `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/users", user, &resp); err != nil {
		return 0, err
	}
	c.log.Infof("StoreClient: Registered user '%s' with ID %d", user.Username, resp.ID)
	return resp.ID, nil
}

func (c *storeHTTPClient) GetUser(ctx context.Context, userID int) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *storeHTTPClient) ListUserCarts(ctx context.Context, userID int) ([]domain.RemoteCart, error) {
	var carts []domain.RemoteCart
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/carts/user/%d", userID), nil, &carts); err != nil {
		return nil, err
	}
	c.log.Debugf("StoreClient: Received %d carts for user %d", len(carts), userID)
	return carts, nil
}

func (c *storeHTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "StoreClient "+method+" "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.target", path),
		attribute.Bool("app.authenticated", c.token != ""),
	)

	err := c.roundTrip(ctx, method, path, body, out, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *storeHTTPClient) roundTrip(ctx context.Context, method, path string, body, out interface{}, span trace.Span) error {
	fullURL := c.baseURL + path
	c.log.Debugf("StoreClient: %s %s", method, fullURL)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			c.log.Errorf("StoreClient: Failed to marshal %s %s body: %v", method, path, err)
			return fmt.Errorf("failed to prepare store request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		c.log.Errorf("StoreClient: Failed to create %s %s request: %v", method, path, err)
		return fmt.Errorf("failed to create store request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Errorf("StoreClient: Failed to execute %s %s: %v", method, path, err)
		return fmt.Errorf("failed to communicate with store service: %w: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode >= 500 {
			c.log.Errorf("StoreClient: %s %s failed with status %d. Response body: %s", method, path, resp.StatusCode, string(bodyBytes))
		} else {
			c.log.Warnf("StoreClient: %s %s failed with status %d. Response body: %s", method, path, resp.StatusCode, string(bodyBytes))
		}
		return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Errorf("StoreClient: Failed to read %s %s response: %v", method, path, err)
		return fmt.Errorf("failed to read store response: %w: %v", domain.ErrServiceUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Errorf("StoreClient: Failed to decode %s %s response: %v", method, path, err)
		return fmt.Errorf("failed to decode store response: %w", err)
	}
	return nil
}
