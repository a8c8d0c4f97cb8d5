// Package condition compiles simple comparison expressions into structured
// filter rules and evaluates them against a run's execution context.
package condition

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Rule is the compiled form of a comparison expression: a template path on
// the left, a filter operator tag, and a coerced literal on the right.
type Rule struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// ErrUnsupportedExpression is returned when no supported comparator is
// found. Condition nodes refuse to execute on unparseable expressions
// rather than defaulting to a fixed outcome.
var ErrUnsupportedExpression = errors.New("unsupported condition expression")

// comparators are tried in order; two-character operators first so ">="
// is never misread as ">".
var comparators = []struct {
	symbol   string
	operator string
}{
	{symbol: "==", operator: "_eq"},
	{symbol: "!=", operator: "_neq"},
	{symbol: ">=", operator: "_gte"},
	{symbol: "<=", operator: "_lte"},
	{symbol: ">", operator: "_gt"},
	{symbol: "<", operator: "_lt"},
}

// Compile parses a single comparison expression into a filter rule.
// Braces may wrap the whole expression or either operand: both
// "{{ a.b > 1 }}" and "{{ a.b }} > 1" compile to the same rule.
func Compile(expression string) (Rule, error) {
	trimmed := stripBraces(expression)
	if trimmed == "" {
		return Rule{}, fmt.Errorf("%w: empty expression", ErrUnsupportedExpression)
	}

	for _, comparator := range comparators {
		left, right, found := strings.Cut(trimmed, comparator.symbol)
		if !found {
			continue
		}

		field := stripBraces(left)
		if field == "" {
			return Rule{}, fmt.Errorf("%w: missing left operand in %q", ErrUnsupportedExpression, expression)
		}

		return Rule{
			Field:    field,
			Operator: comparator.operator,
			Value:    coerceLiteral(stripBraces(right)),
		}, nil
	}

	return Rule{}, fmt.Errorf("%w: no comparator in %q", ErrUnsupportedExpression, expression)
}

func stripBraces(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{{") && !strings.Contains(s[2:], "{{") {
		s = strings.TrimPrefix(s, "{{")
	}

	if strings.HasSuffix(s, "}}") && !strings.Contains(s[:len(s)-2], "}}") {
		s = strings.TrimSuffix(s, "}}")
	}

	return strings.TrimSpace(s)
}

// coerceLiteral converts the right-hand operand: booleans, null, numbers,
// and quoted strings become typed values; anything else stays the literal
// text (a template path compared at runtime).
func coerceLiteral(literal string) any {
	switch literal {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if number, err := strconv.ParseFloat(literal, 64); err == nil {
		return number
	}

	if len(literal) >= 2 {
		if (literal[0] == '"' && literal[len(literal)-1] == '"') ||
			(literal[0] == '\'' && literal[len(literal)-1] == '\'') {
			return literal[1 : len(literal)-1]
		}
	}

	return literal
}
