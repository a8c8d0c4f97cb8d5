package catalog

import (
	"context"
	"sort"
	"strings"
)

// Search ranks catalog endpoints against a free-text query by token
// overlap, restricted to the given method when one is provided. It is the
// retrieval fallback used when exact and alias matching fail.
func (i *Index) Search(ctx context.Context, method, query string, limit int) []Endpoint {
	queryTokens := queryTokens(query)
	if len(queryTokens) == 0 || limit <= 0 {
		return nil
	}

	method = strings.ToUpper(strings.TrimSpace(method))

	type scored struct {
		endpoint Endpoint
		score    int
	}

	var candidates []scored

	for _, endpoint := range i.Endpoints(ctx) {
		if method != "" && endpoint.Method != method {
			continue
		}

		score := overlap(queryTokens, PathTokens(endpoint.Path))
		if score == 0 {
			continue
		}

		candidates = append(candidates, scored{endpoint: endpoint, score: score})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}

		// Shorter paths win ties so the most specific match isn't buried
		// under deep sub-resources.
		return len(candidates[a].endpoint.Path) < len(candidates[b].endpoint.Path)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]Endpoint, len(candidates))
	for idx, candidate := range candidates {
		results[idx] = candidate.endpoint
	}

	return results
}

// queryTokens tokenizes free text the same way paths are tokenized, so
// "inventory items" matches "/admin/inventory-items".
func queryTokens(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		switch r {
		case ' ', '/', '-', '_', ',', '.', '?', '!':
			return true
		}

		return false
	})

	var tokens []string

	for _, field := range fields {
		if field != "" && field != strings.Trim(RootSegment, "/") {
			tokens = append(tokens, field)
		}
	}

	return tokens
}

func overlap(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, token := range b {
		set[token] = struct{}{}
		set[singular(token)] = struct{}{}
	}

	score := 0

	for _, token := range a {
		if _, ok := set[token]; ok {
			score++

			continue
		}

		if _, ok := set[singular(token)]; ok {
			score++
		}
	}

	return score
}

// singular reduces simple plural forms so "products" and "product" rank
// against each other.
func singular(token string) string {
	switch {
	case strings.HasSuffix(token, "ies"):
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "es") && len(token) > 3:
		return strings.TrimSuffix(token, "es")
	case strings.HasSuffix(token, "s") && len(token) > 2:
		return strings.TrimSuffix(token, "s")
	default:
		return token
	}
}
