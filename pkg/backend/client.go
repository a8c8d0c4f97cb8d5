// Package backend implements the HTTP client for the commerce
// data/workflow backend.
package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrUpstreamCall is returned when the backend rejects or fails a call.
// The failing node id is attached by the orchestrator, never here.
var ErrUpstreamCall = errors.New("upstream call failed")

const defaultRequestTimeout = 30 * time.Second

// Client talks to the commerce backend over HTTP with Basic auth derived
// from a configured token.
type Client struct {
	baseURL    string
	token      string
	authHeader string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAuthHeader sets a verbatim Authorization header, overriding the
// token-derived Basic auth.
func WithAuthHeader(header string) Option {
	return func(c *Client) {
		c.authHeader = header
	}
}

// NewClient creates a backend client rooted at baseURL.
func NewClient(baseURL, token string, logger *slog.Logger, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger.With("module", "backend_client"),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Request performs an API call against the backend. GET and DELETE bodies
// are encoded as query parameters; other methods send JSON.
func (c *Client) Request(ctx context.Context, method, path string, body map[string]any) (any, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	target := c.baseURL + path

	var reader io.Reader

	if method == http.MethodGet || method == http.MethodDelete {
		if len(body) > 0 {
			query := url.Values{}
			for key, value := range body {
				query.Set(key, fmt.Sprintf("%v", value))
			}

			target += "?" + query.Encode()
		}
	} else if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding body: %w", ErrUpstreamCall, err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamCall, err)
	}

	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamCall, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUpstreamCall, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s %s returned %d: %s",
			ErrUpstreamCall, method, path, resp.StatusCode, truncate(string(raw), 200))
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw), nil
	}

	return decoded, nil
}

// TriggerWorkflow starts a named backend workflow. When wait is set the
// call blocks until the backend reports completion.
func (c *Client) TriggerWorkflow(ctx context.Context, name string, input map[string]any, wait bool) (any, error) {
	body := map[string]any{
		"workflow_name":       name,
		"input":               input,
		"wait_for_completion": wait,
	}

	return c.Request(ctx, http.MethodPost, "/admin/workflows/executions", body)
}

// SendNotification dispatches a notification through the backend.
func (c *Client) SendNotification(ctx context.Context, notification protocol.Notification) (any, error) {
	body := map[string]any{
		"channel":  notification.Channel,
		"to":       notification.To,
		"template": notification.Template,
		"data":     notification.Data,
	}

	return c.Request(ctx, http.MethodPost, "/admin/notifications", body)
}

func (c *Client) authorize(req *http.Request) {
	switch {
	case c.authHeader != "":
		req.Header.Set("Authorization", c.authHeader)
	case c.token != "":
		credentials := base64.StdEncoding.EncodeToString([]byte(c.token + ":"))
		req.Header.Set("Authorization", "Basic "+credentials)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}

var _ protocol.Backend = (*Client)(nil)
