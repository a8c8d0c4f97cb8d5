package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultTTL bounds how long a built index is trusted before a full
// rebuild.
const DefaultTTL = 5 * time.Minute

// Index is the in-memory set of allowed "METHOD /path" operations. It is
// read-mostly, shared process-wide, and rebuilt wholesale on expiry; a
// failed fetch yields an empty index that callers must treat as "cannot
// validate, pass through".
type Index struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu        sync.RWMutex
	keys      map[string]struct{}
	endpoints []Endpoint
	builtAt   time.Time
	built     bool
}

// Option customizes index construction.
type Option func(*Index)

// WithTTL overrides the rebuild interval.
func WithTTL(ttl time.Duration) Option {
	return func(i *Index) {
		i.ttl = ttl
	}
}

// WithClock injects the time source used for TTL checks, enabling
// deterministic expiry in tests.
func WithClock(now func() time.Time) Option {
	return func(i *Index) {
		i.now = now
	}
}

// NewIndex creates an index over the given source. Nothing is fetched
// until first use.
func NewIndex(source Source, logger *slog.Logger, opts ...Option) *Index {
	index := &Index{
		source: source,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: logger.With("module", "catalog_index"),
		keys:   make(map[string]struct{}),
	}

	for _, opt := range opts {
		opt(index)
	}

	return index
}

// Has reports whether the normalized (method, path) pair is in the
// catalog. Underscored and hyphenated forms are equivalent.
func (i *Index) Has(ctx context.Context, method, path string) bool {
	i.ensure(ctx)

	i.mu.RLock()
	defer i.mu.RUnlock()

	_, ok := i.keys[Normalize(method, path).Key()]

	return ok
}

// Size returns the number of indexed operations. Zero means the catalog
// could not be fetched and validation must degrade to permissive mode.
func (i *Index) Size(ctx context.Context) int {
	i.ensure(ctx)

	i.mu.RLock()
	defer i.mu.RUnlock()

	return len(i.endpoints)
}

// Endpoints returns a snapshot of all indexed operations.
func (i *Index) Endpoints(ctx context.Context) []Endpoint {
	i.ensure(ctx)

	i.mu.RLock()
	defer i.mu.RUnlock()

	snapshot := make([]Endpoint, len(i.endpoints))
	copy(snapshot, i.endpoints)

	return snapshot
}

// Resolve corrects a (method, path) pair against the catalog: exact match
// after normalization first, then the alias table, then retrieval search.
// It reports whether a valid endpoint was found.
func (i *Index) Resolve(ctx context.Context, method, path string) (Endpoint, bool) {
	candidate := Normalize(method, path)

	if i.Has(ctx, candidate.Method, candidate.Path) {
		return candidate, true
	}

	if aliased, ok := AliasPath(candidate.Path); ok && i.Has(ctx, candidate.Method, aliased) {
		return Endpoint{Method: candidate.Method, Path: aliased}, true
	}

	if matches := i.Search(ctx, candidate.Method, candidate.Path, 1); len(matches) > 0 {
		if overlap(PathTokens(candidate.Path), PathTokens(matches[0].Path)) > 0 {
			return matches[0], true
		}
	}

	return candidate, false
}

// ensure rebuilds the index when it has never been built or its TTL has
// elapsed. Rebuild is a pure fetch-and-replace: concurrent rebuilds are
// idempotent and the last writer wins.
func (i *Index) ensure(ctx context.Context) {
	i.mu.RLock()
	fresh := i.built && i.now().Sub(i.builtAt) < i.ttl
	i.mu.RUnlock()

	if fresh {
		return
	}

	fetched, err := i.source.Fetch(ctx)
	if err != nil {
		i.logger.WarnContext(ctx, "Catalog fetch failed, degrading to permissive mode", "error", err)

		fetched = nil
	}

	keys := make(map[string]struct{}, len(fetched)*2)
	endpoints := make([]Endpoint, 0, len(fetched))
	seen := make(map[string]struct{}, len(fetched))

	for _, raw := range fetched {
		normalized := Normalize(raw.Method, raw.Path)

		if _, dup := seen[normalized.Key()]; dup {
			continue
		}

		seen[normalized.Key()] = struct{}{}
		endpoints = append(endpoints, normalized)
		keys[normalized.Key()] = struct{}{}

		// Tolerate catalog drift: the underscored spelling of every path
		// is indexed alongside the canonical hyphenated one.
		underscored := strings.ReplaceAll(normalized.Path, "-", "_")
		keys[normalized.Method+" "+underscored] = struct{}{}
	}

	i.mu.Lock()
	i.keys = keys
	i.endpoints = endpoints
	i.builtAt = i.now()
	i.built = true
	i.mu.Unlock()
}

// Invalidate forces a rebuild on next use.
func (i *Index) Invalidate() {
	i.mu.Lock()
	i.built = false
	i.mu.Unlock()
}
