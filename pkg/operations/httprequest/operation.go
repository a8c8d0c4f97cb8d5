// Package httprequest implements the http_request operation for calling
// arbitrary external endpoints.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrURLRequired is returned when the operation has no target URL.
var ErrURLRequired = errors.New("http_request operation requires a url")

const defaultTimeout = 30 * time.Second

// RetryConfig bounds retry behavior for transient failures.
type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// Operation performs one HTTP request with optional retries. Server
// errors (5xx) are retried; client errors are returned as-is in the
// result so flows can branch on status_code.
type Operation struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Retry   RetryConfig

	client *http.Client
}

// NewOperation builds an http_request operation from resolved options.
func NewOperation(options map[string]any) (*Operation, error) {
	url, _ := options["url"].(string)
	if url == "" {
		return nil, ErrURLRequired
	}

	method, _ := options["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	body, _ := options["body"].(string)
	if body == "" {
		if structured, ok := options["body"].(map[string]any); ok {
			raw, err := json.Marshal(structured)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}

			body = string(raw)
		}
	}

	headers := make(map[string]string)

	if headersOption, ok := options["headers"].(map[string]any); ok {
		for key, value := range headersOption {
			if text, ok := value.(string); ok {
				headers[key] = text
			}
		}
	}

	retry := RetryConfig{Attempts: 1}

	if retryOption, ok := options["retry"].(map[string]any); ok {
		if attempts, ok := retryOption["attempts"].(float64); ok && attempts >= 1 {
			retry.Attempts = int(attempts)
		}

		if delay, ok := retryOption["delay"].(float64); ok && delay > 0 {
			retry.Delay = time.Duration(delay) * time.Second
		}
	}

	timeout := defaultTimeout
	if timeoutOption, ok := options["timeout"].(float64); ok && timeoutOption > 0 {
		timeout = time.Duration(timeoutOption) * time.Second
	}

	return &Operation{
		Method:  strings.ToUpper(method),
		URL:     url,
		Headers: headers,
		Body:    body,
		Timeout: timeout,
		Retry:   retry,
		client:  &http.Client{},
	}, nil
}

// SetHTTPClient overrides the underlying HTTP client, for tests.
func (o *Operation) SetHTTPClient(client *http.Client) {
	o.client = client
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "http_request", "method", o.Method, "url", o.URL)
	logger.InfoContext(ctx, "Executing HTTP request operation")

	var (
		resp    *http.Response
		lastErr error
	)

	for attempt := 1; attempt <= o.Retry.Attempts; attempt++ {
		if attempt > 1 {
			logger.InfoContext(ctx, "Retrying HTTP request", "attempt", attempt, "of", o.Retry.Attempts)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.Retry.Delay):
			}
		}

		resp, lastErr = o.do(ctx)
		if lastErr != nil {
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError && attempt < o.Retry.Attempts {
			resp.Body.Close()

			lastErr = fmt.Errorf("server error (status %d)", resp.StatusCode)

			continue
		}

		break
	}

	if resp == nil {
		return nil, fmt.Errorf("all %d attempts failed: %w", o.Retry.Attempts, lastErr)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		body = string(raw)
	}

	logger.InfoContext(ctx, "HTTP request completed", "status_code", resp.StatusCode)

	return map[string]any{
		"status_code": resp.StatusCode,
		"body":        body,
		"headers":     flattenHeaders(resp.Header),
	}, nil
}

func (o *Operation) do(ctx context.Context) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	var reader io.Reader
	if o.Body != "" {
		reader = strings.NewReader(o.Body)
	}

	req, err := http.NewRequestWithContext(reqCtx, o.Method, o.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for key, value := range o.Headers {
		req.Header.Set(key, value)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	return resp, nil
}

func flattenHeaders(header http.Header) map[string]string {
	flat := make(map[string]string, len(header))
	for key := range header {
		flat[key] = header.Get(key)
	}

	return flat
}

var _ protocol.Operation = (*Operation)(nil)
