// Package client is the sync client for the entry store: authenticated
// HTTP writes with optimistic local state, live snapshot subscriptions
// over WebSocket, and windowed chart series derived from the local
// projection.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultTimeout = 10 * time.Second

// Client talks to the entry store. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	store   *Projection

	retryBase time.Duration
	retryMax  uint64

	mu    sync.RWMutex
	uid   string
	token string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetry tunes the write retry budget: base backoff delay and maximum
// retry count for unavailable-store failures.
func WithRetry(base time.Duration, max uint64) Option {
	return func(c *Client) {
		c.retryBase = base
		c.retryMax = max
	}
}

// New constructs a Client over the given store projection.
func New(baseURL string, store *Projection, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: defaultTimeout},
		logger:    slog.Default(),
		store:     store,
		retryBase: 100 * time.Millisecond,
		retryMax:  3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the local projection the UI reads.
func (c *Client) Store() *Projection {
	return c.store
}

// UID returns the signed-in user id, empty when signed out.
func (c *Client) UID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid
}

func (c *Client) session() (uid, token string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.uid, c.token
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResult struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// Register creates an account. The caller still has to Login.
func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", credentials{Email: email, Password: password}, nil)
}

// Login authenticates and stores the session for subsequent operations.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var res loginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &res); err != nil {
		return err
	}
	c.mu.Lock()
	c.uid = res.UID
	c.token = res.AccessToken
	c.mu.Unlock()
	return nil
}

// Logout drops the session. Local projection state is kept.
func (c *Client) Logout() {
	c.mu.Lock()
	c.uid = ""
	c.token = ""
	c.mu.Unlock()
}

// do performs one request and maps the response onto the client's error
// sentinels. Transport failures and 5xx responses surface as
// ErrRemoteUnavailable so callers can retry.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if _, token := c.session(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return mapStatus(resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}

func mapStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthenticated
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusBadRequest || code == http.StatusConflict || code == http.StatusUnprocessableEntity:
		return ErrValidation
	case code >= 500 || code == http.StatusTooManyRequests:
		return ErrRemoteUnavailable
	default:
		return fmt.Errorf("client: unexpected status %d", code)
	}
}
