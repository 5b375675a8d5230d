// Package rpcclient is a typed client for the pins RPC API.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/pins/backend/pkg/api"
)

// Client calls procedures over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the session token sent as a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the session token. An empty token makes the client
// anonymous.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Query calls a query procedure and decodes its data into out.
func (c *Client) Query(ctx context.Context, proc string, input, out any) error {
	target := c.baseURL + api.Path(proc)
	if input != nil {
		raw, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("encode %s input: %w", proc, err)
		}
		target += "?input=" + url.QueryEscape(string(raw))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, proc, out)
}

// Mutate calls a mutation procedure and decodes its data into out.
func (c *Client) Mutate(ctx context.Context, proc string, input, out any) error {
	if input == nil {
		input = api.EmptyInput{}
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("encode %s input: %w", proc, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.Path(proc), bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, proc, out)
}

func (c *Client) do(req *http.Request, proc string, out any) error {
	req.Header.Set("Accept", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", proc, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", proc, err)
	}

	var env api.RawResponse
	if err := json.Unmarshal(body, &env); err != nil || (env.Result == nil && env.Error == nil) {
		return &api.Error{
			Status:  resp.StatusCode,
			Code:    codeForStatus(resp.StatusCode),
			Message: fmt.Sprintf("%s: unexpected response: %s", proc, truncate(body, 200)),
		}
	}
	if env.Error != nil {
		return &api.Error{
			Status:  resp.StatusCode,
			Code:    env.Error.Code,
			Message: env.Error.Message,
			Details: env.Error.Details,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", proc, err)
	}
	return nil
}

func codeForStatus(status int) api.ErrorCode {
	switch status {
	case http.StatusNotFound:
		return api.CodeNotFound
	case http.StatusUnauthorized:
		return api.CodeUnauthorized
	case http.StatusForbidden:
		return api.CodeForbidden
	case http.StatusBadRequest:
		return api.CodeValidation
	case http.StatusTooManyRequests:
		return api.CodeTooManyRequests
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return api.CodeUpstream
	default:
		return api.CodeInternal
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
