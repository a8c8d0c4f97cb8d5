// Package planner proposes prerequisite lookups for write requests whose
// bodies reference identifiers the author has not filled in yet.
package planner

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/models"
)

// Suggestion is the advisory output of the planner. It never blocks the
// primary planned request.
type Suggestion struct {
	Next  []models.PlannedRequest `json:"next,omitempty"`
	Notes []string                `json:"notes,omitempty"`
}

const suggestedListLimit = 50

var identifierKeyPattern = regexp.MustCompile(`_ids?$`)

// hintFields is the fixed priority order of identifying fields mined from
// the original body to seed the suggested lookup's query.
var hintFields = []string{"q", "sku", "title", "handle", "email", "name", "code", "reference"}

var writeMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPatch:  {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// Plan scans a write request body for empty identifier references and, for
// each one whose derived list endpoint exists in the catalog as a GET,
// emits a prerequisite list call.
func Plan(ctx context.Context, method, path string, body map[string]any, index *catalog.Index) Suggestion {
	var suggestion Suggestion

	method = strings.ToUpper(strings.TrimSpace(method))
	if _, ok := writeMethods[method]; !ok {
		return suggestion
	}

	hint := bodyHint(body)

	for _, key := range sortedKeys(body) {
		if !identifierKeyPattern.MatchString(key) || !isEmptyValue(body[key]) {
			continue
		}

		listPath := listPathForKey(key)
		if !index.Has(ctx, http.MethodGet, listPath) {
			continue
		}

		lookupBody := map[string]any{"limit": suggestedListLimit}
		if hint != "" {
			lookupBody["q"] = hint
		}

		suggestion.Next = append(suggestion.Next, models.NewPlannedRequest(http.MethodGet, listPath, lookupBody))
		suggestion.Notes = append(suggestion.Notes,
			fmt.Sprintf("%q is empty; list %s first to find the id", key, listPath))
	}

	return suggestion
}

// listPathForKey derives the candidate list endpoint for an identifier
// key: strip the _id/_ids suffix, kebab-case, pluralize.
func listPathForKey(key string) string {
	entity := identifierKeyPattern.ReplaceAllString(key, "")
	entity = strings.ReplaceAll(entity, "_", "-")

	return catalog.NormalizePath("/" + pluralize(entity))
}

// pluralize applies the same simple rules used for entity names elsewhere
// in the system: y -> ies, s/x/ch/sh -> +es, otherwise +s.
func pluralize(entity string) string {
	switch {
	case entity == "":
		return entity
	case strings.HasSuffix(entity, "y") && !strings.HasSuffix(entity, "ay") &&
		!strings.HasSuffix(entity, "ey") && !strings.HasSuffix(entity, "oy") &&
		!strings.HasSuffix(entity, "uy"):
		return strings.TrimSuffix(entity, "y") + "ies"
	case strings.HasSuffix(entity, "s"), strings.HasSuffix(entity, "x"),
		strings.HasSuffix(entity, "ch"), strings.HasSuffix(entity, "sh"):
		return entity + "es"
	default:
		return entity + "s"
	}
}

// bodyHint returns the first non-empty identifying field value found in
// priority order.
func bodyHint(body map[string]any) string {
	for _, field := range hintFields {
		if value, ok := body[field].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}

	return ""
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func sortedKeys(body map[string]any) []string {
	keys := make([]string, 0, len(body))
	for key := range body {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
