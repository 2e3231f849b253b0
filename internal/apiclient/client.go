// Package apiclient talks to the saldo REST API and implements the store
// ports for remote clients.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"saldo/internal/core"
	"saldo/internal/store"
)

// ErrValidation is wrapped by errors for requests the server rejected as
// invalid input.
var ErrValidation = errors.New("validation failed")

// StatusError carries a non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

// Unwrap maps well known status codes to sentinel errors.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return ErrValidation
	default:
		return nil
	}
}

type Client struct {
	base *url.URL
	http *http.Client
}

var _ store.Store = (*Client)(nil)

// New returns a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

func (c *Client) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/v1/transactions", t, &out); err != nil {
		return core.Transaction{}, err
	}
	return out, nil
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/transactions/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	if err := c.do(ctx, http.MethodGet, "/api/v1/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	var out core.Account
	if err := c.do(ctx, http.MethodPost, "/api/v1/accounts", a, &out); err != nil {
		return core.Account{}, err
	}
	return out, nil
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/accounts/"+url.PathEscape(id), nil, nil)
}

func (c *Client) AccountsSummary(ctx context.Context) (core.AccountSummary, error) {
	var out core.AccountSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/accounts/summary", nil, &out); err != nil {
		return core.AccountSummary{}, err
	}
	return out, nil
}

// Categories returns the server's category registry.
func (c *Client) Categories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.do(ctx, http.MethodGet, "/api/v1/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "API request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&apiErr)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: apiErr.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
