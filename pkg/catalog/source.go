package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrCatalogUnavailable is returned when the catalog source cannot be
// fetched. Callers degrade to permissive pass-through rather than reject.
var ErrCatalogUnavailable = errors.New("catalog source unavailable")

// Source provides the raw endpoint set for index builds.
type Source interface {
	Fetch(ctx context.Context) ([]Endpoint, error)
}

// StaticSource is an explicit allow-list of endpoints, used for
// configuration-driven catalogs and tests.
type StaticSource []Endpoint

func (s StaticSource) Fetch(_ context.Context) ([]Endpoint, error) {
	return s, nil
}

const defaultFetchTimeout = 10 * time.Second

// HTTPSource fetches the catalog from a remote endpoint returning either a
// flat {"endpoints": [{method, path}]} document or an OpenAPI-style
// {"paths": {"/x": {"get": {...}}}} document.
type HTTPSource struct {
	URL string

	// Token builds a Basic auth header when set. AuthHeader, when set,
	// overrides it verbatim.
	Token      string
	AuthHeader string

	Client *http.Client
}

type catalogDocument struct {
	Endpoints []Endpoint                `json:"endpoints"`
	Paths     map[string]map[string]any `json:"paths"`
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]Endpoint, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	switch {
	case s.AuthHeader != "":
		req.Header.Set("Authorization", s.AuthHeader)
	case s.Token != "":
		credentials := base64.StdEncoding.EncodeToString([]byte(s.Token + ":"))
		req.Header.Set("Authorization", "Basic "+credentials)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrCatalogUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	return ParseDocument(raw)
}

// ParseDocument extracts endpoints from either supported catalog shape.
func ParseDocument(raw []byte) ([]Endpoint, error) {
	var doc catalogDocument

	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed catalog document: %w", ErrCatalogUnavailable, err)
	}

	endpoints := make([]Endpoint, 0, len(doc.Endpoints)+len(doc.Paths))
	endpoints = append(endpoints, doc.Endpoints...)

	for path, operations := range doc.Paths {
		for method := range operations {
			endpoints = append(endpoints, Endpoint{Method: method, Path: path})
		}
	}

	return endpoints, nil
}
