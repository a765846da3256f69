// Package postgrest is a primary store client for a hosted Supabase project.
// It speaks the PostgREST HTTP dialect: one table per collection under
// /rest/v1, equality filters as col=eq.value query parameters.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carelink/carelink/backend/go-services/internal/store"
)

// Client implements store.Backend over PostgREST.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New creates a client. URL and APIKey are required.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgrest: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("postgrest: APIKey is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

func (c *Client) Name() string { return "supabase" }

// Error is a non-2xx PostgREST response.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("postgrest: HTTP %d", e.Status)
	}
	return fmt.Sprintf("postgrest: HTTP %d: %s (%s)", e.Status, e.Message, e.Code)
}

// Unwrap maps unique violations to store.ErrConflict.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusConflict || e.Code == "23505" {
		return store.ErrConflict
	}
	return nil
}

// Ping issues a minimal select against table to prove the project is
// reachable and the key is accepted.
func (c *Client) Ping(ctx context.Context, table string) error {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	_, err := c.do(ctx, http.MethodGet, table, q, nil)
	return err
}

func (c *Client) Find(ctx context.Context, collection string, filter store.Filter) ([]store.Row, error) {
	q := eqParams(filter)
	q.Set("select", "*")
	return c.do(ctx, http.MethodGet, collection, q, nil)
}

func (c *Client) Insert(ctx context.Context, collection string, row store.Row) (store.Row, error) {
	rows, err := c.do(ctx, http.MethodPost, collection, nil, row)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return row.Clone(), nil
	}
	return rows[0], nil
}

func (c *Client) Update(ctx context.Context, collection, id string, patch store.Row) (store.Row, error) {
	rows, err := c.do(ctx, http.MethodPatch, collection, eqParams(store.Filter{"id": id}), patch)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

func eqParams(f store.Filter) url.Values {
	q := url.Values{}
	for k, v := range f {
		q.Add(k, "eq."+store.FormatValue(v))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, table string, q url.Values, body any) ([]store.Row, error) {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, url.PathEscape(table))
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("postgrest: marshal body: %w", err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, rdr)
	if err != nil {
		return nil, fmt.Errorf("postgrest: create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("postgrest: %s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("postgrest: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		perr := &Error{Status: resp.StatusCode}
		_ = json.Unmarshal(raw, perr)
		return nil, perr
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rows []store.Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("postgrest: decode response: %w", err)
	}
	return rows, nil
}
