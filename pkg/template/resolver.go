// Package template resolves {{ expression }} placeholders against a flow
// run's execution context.
//
// Expressions are dotted paths rooted at $last (most recent node output),
// $input, $trigger, or a named operation key. Missing references resolve to
// an empty value, never an error: templates are validated at authoring time
// only, and operation handlers treat an unresolved reference as "no value
// provided".
package template

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/tidwall/gjson"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// HasPlaceholder reports whether the string contains at least one
// {{ expression }} placeholder.
func HasPlaceholder(input string) bool {
	return placeholderPattern.MatchString(input)
}

// Resolve replaces every placeholder in the template. A template that is
// exactly one placeholder yields the raw resolved value with its type
// preserved; any other template yields a string. The input template is
// never mutated and resolution cannot fail.
func Resolve(input string, executionCtx *models.ExecutionContext) any {
	trimmed := strings.TrimSpace(input)

	if match := placeholderPattern.FindStringSubmatch(trimmed); match != nil && match[0] == trimmed {
		return ResolveExpression(match[1], executionCtx)
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(placeholder string) string {
		expression := placeholderPattern.FindStringSubmatch(placeholder)[1]

		return stringify(ResolveExpression(expression, executionCtx))
	})
}

// ResolveExpression resolves a single dotted-path expression. The root
// segment selects the scope; the remainder is looked up as a path into
// that value. Unknown roots and missing paths yield nil.
func ResolveExpression(expression string, executionCtx *models.ExecutionContext) any {
	expression = strings.TrimSpace(expression)
	if expression == "" || executionCtx == nil {
		return nil
	}

	root, rest, _ := strings.Cut(expression, ".")

	var value any

	switch root {
	case "$last":
		value = executionCtx.Last
	case "$input":
		value = executionCtx.Input
	case "$trigger":
		value = executionCtx.Trigger
	default:
		var ok bool

		value, ok = executionCtx.Outputs[root]
		if !ok {
			return nil
		}
	}

	if rest == "" {
		return value
	}

	return lookupPath(value, rest)
}

// ResolveValue deep-resolves templated strings inside arbitrary option
// values. Maps and slices are copied, never mutated in place, so each node
// sees its own resolved snapshot of the authored options.
func ResolveValue(value any, executionCtx *models.ExecutionContext) any {
	switch v := value.(type) {
	case string:
		return Resolve(v, executionCtx)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			resolved[key] = ResolveValue(item, executionCtx)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = ResolveValue(item, executionCtx)
		}

		return resolved
	default:
		return value
	}
}

// ResolveOptions resolves every templated field of a node's options map.
func ResolveOptions(options map[string]any, executionCtx *models.ExecutionContext) map[string]any {
	if options == nil {
		return map[string]any{}
	}

	resolved, _ := ResolveValue(options, executionCtx).(map[string]any)

	return resolved
}

func lookupPath(value any, path string) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}

	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil
	}

	return result.Value()
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(raw)
	}
}
