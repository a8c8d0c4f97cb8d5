// Package catalog maintains the authoritative set of allowed API
// (method, path) operations used to validate planned requests.
package catalog

import (
	"strings"
)

// RootSegment is the canonical first segment every catalog path begins with.
const RootSegment = "/admin"

// Endpoint is one allowed API operation, normalized to the canonical root
// segment and hyphen-separated path segments.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Key returns the index key for an endpoint: "METHOD /path".
func (e Endpoint) Key() string {
	return strings.ToUpper(e.Method) + " " + e.Path
}

// NormalizePath rewrites a path into canonical catalog form: a single
// leading slash, the canonical root segment enforced, and underscores
// rewritten to hyphens. Applying it twice yields the same result.
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimRight(path, "/")

	if path == "" {
		return RootSegment
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if path != RootSegment && !strings.HasPrefix(path, RootSegment+"/") {
		path = RootSegment + path
	}

	return strings.ReplaceAll(path, "_", "-")
}

// Normalize returns the endpoint in canonical form: upper-case method and
// normalized path.
func Normalize(method, path string) Endpoint {
	return Endpoint{
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Path:   NormalizePath(path),
	}
}

// PathTokens splits a normalized path into lower-case tokens for ranking.
// Hyphens and slashes both separate tokens; the root segment is skipped
// since it carries no signal.
func PathTokens(path string) []string {
	trimmed := strings.TrimPrefix(NormalizePath(path), RootSegment)

	var tokens []string

	for _, segment := range strings.Split(trimmed, "/") {
		for _, token := range strings.Split(segment, "-") {
			if token != "" {
				tokens = append(tokens, strings.ToLower(token))
			}
		}
	}

	return tokens
}
