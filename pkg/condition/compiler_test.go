package condition

import (
	"testing"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Rule
	}{
		{
			name:     "greater than numeric",
			input:    "$last.count > 0",
			expected: Rule{Field: "$last.count", Operator: "_gt", Value: float64(0)},
		},
		{
			name:     "wrapped in braces",
			input:    "{{ $last.count >= 10 }}",
			expected: Rule{Field: "$last.count", Operator: "_gte", Value: float64(10)},
		},
		{
			name:     "braces around left operand only",
			input:    "{{ fetch_order.total }} > 100",
			expected: Rule{Field: "fetch_order.total", Operator: "_gt", Value: float64(100)},
		},
		{
			name:     "equality with quoted string",
			input:    `$trigger.status == "pending"`,
			expected: Rule{Field: "$trigger.status", Operator: "_eq", Value: "pending"},
		},
		{
			name:     "boolean literal",
			input:    "$last.active != true",
			expected: Rule{Field: "$last.active", Operator: "_neq", Value: true},
		},
		{
			name:     "null literal",
			input:    "$last.deleted_at == null",
			expected: Rule{Field: "$last.deleted_at", Operator: "_eq", Value: nil},
		},
		{
			name:     "unquoted path stays literal",
			input:    "$last.total <= $trigger.budget",
			expected: Rule{Field: "$last.total", Operator: "_lte", Value: "$trigger.budget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Compile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rule)
		})
	}
}

func TestCompile_NoComparatorIsError(t *testing.T) {
	inputs := []string{
		"$last.count",
		"",
		"{{ }}",
		"just some words",
	}

	for _, input := range inputs {
		_, err := Compile(input)
		require.ErrorIs(t, err, ErrUnsupportedExpression, "input %q", input)
	}
}

func TestEvaluateRule(t *testing.T) {
	executionCtx := &models.ExecutionContext{
		Trigger: map[string]any{"status": "pending", "budget": float64(100)},
		Last:    map[string]any{"count": float64(3), "total": float64(50)},
		Outputs: map[string]any{},
	}

	tests := []struct {
		name       string
		expression string
		expected   bool
	}{
		{name: "gt true", expression: "$last.count > 0", expected: true},
		{name: "gt false", expression: "$last.count > 5", expected: false},
		{name: "string eq", expression: `$trigger.status == "pending"`, expected: true},
		{name: "neq", expression: `$trigger.status != "done"`, expected: true},
		{name: "path on both sides", expression: "$last.total <= $trigger.budget", expected: true},
		{name: "missing field eq null", expression: "$last.missing == null", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Compile(tt.expression)
			require.NoError(t, err)

			result, err := EvaluateRule(rule, executionCtx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestEvaluateExpr(t *testing.T) {
	executionCtx := &models.ExecutionContext{
		Last: map[string]any{"count": 3},
		Outputs: map[string]any{
			"fetch_orders": map[string]any{"total": 250},
		},
	}

	result, err := EvaluateExpr(`last.count > 1 && fetch_orders.total >= 200`, executionCtx)
	require.NoError(t, err)
	assert.True(t, result)

	_, err = EvaluateExpr(`last.count +`, executionCtx)
	assert.Error(t, err)
}
