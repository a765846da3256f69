// Package client talks to the carelink API and holds the signed-in session in
// memory.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/apperr"
	"github.com/carelink/carelink/backend/go-services/internal/auth"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return apperr.ErrAuthentication
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusBadRequest:
		return apperr.ErrValidation
	}
	return nil
}

// Client is safe for concurrent use.
type Client struct {
	base string
	http *http.Client

	mu      sync.RWMutex
	session *auth.LoginResult
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, username, password, employeeID string) (*auth.LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	if employeeID != "" {
		body["employeeId"] = employeeID
	}
	var res auth.LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &res, false); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.session = &res
	c.mu.Unlock()
	return &res, nil
}

// Session returns the current session or nil.
func (c *Client) Session() *auth.LoginResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Clear forgets the token.
func (c *Client) Clear() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// Get fetches path with the session token and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		s := c.Session()
		if s == nil {
			return fmt.Errorf("not logged in: %w", apperr.ErrAuthentication)
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
