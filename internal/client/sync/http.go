package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Goncalofonseca86/leirisonda/internal/client/identity"
	"github.com/Goncalofonseca86/leirisonda/internal/client/models"
	"github.com/Goncalofonseca86/leirisonda/internal/logging"
)

// HTTPClient is the JSON-over-HTTP implementation of Client. The bearer
// token returned by Login is attached to every subsequent request; its
// expiry is read locally from the unverified claims (the backend owns the
// signature, the client only needs to know when to re-authenticate).
type HTTPClient struct {
	baseURL string
	http    *http.Client
	log     logging.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewHTTPClient(baseURL string, timeout time.Duration, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = resp.Token
	c.expires = tokenExpiry(resp.Token)
	return nil
}

func (c *HTTPClient) PushWork(ctx context.Context, w *models.Work) error {
	return c.do(ctx, http.MethodPost, "/works", w, nil)
}

func (c *HTTPClient) ListWorks(ctx context.Context) ([]models.Work, error) {
	var works []models.Work
	if err := c.do(ctx, http.MethodGet, "/works", nil, &works); err != nil {
		return nil, err
	}
	return works, nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]identity.User, error) {
	var users []identity.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, ErrUnavailable)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// currentToken returns the bearer token if it has not expired yet.
func (c *HTTPClient) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return ""
	}
	if !c.expires.IsZero() && time.Now().After(c.expires) {
		return ""
	}
	return c.token
}

// tokenExpiry pulls the exp claim without verifying the signature. A token
// that does not parse or carries no expiry is treated as non-expiring; the
// backend will reject it when it actually is.
func tokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
