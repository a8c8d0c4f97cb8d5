package template

import (
	"testing"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/stretchr/testify/assert"
)

func testContext() *models.ExecutionContext {
	return &models.ExecutionContext{
		Trigger: map[string]any{"order_id": "ord_123", "total": float64(42)},
		Input:   map[string]any{"q": "shirt"},
		Last:    map[string]any{"count": float64(3)},
		Outputs: map[string]any{
			"fetch_products": map[string]any{
				"products": []any{
					map[string]any{"id": "prod_1", "title": "Shirt"},
					map[string]any{"id": "prod_2", "title": "Hat"},
				},
			},
		},
	}
}

func TestResolve_SinglePlaceholderPreservesType(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{
			name:     "whole trigger object",
			input:    "{{ $trigger }}",
			expected: map[string]any{"order_id": "ord_123", "total": float64(42)},
		},
		{
			name:     "numeric path into last",
			input:    "{{ $last.count }}",
			expected: float64(3),
		},
		{
			name:     "named step output path",
			input:    "{{ fetch_products.products.0.id }}",
			expected: "prod_1",
		},
		{
			name:     "input field",
			input:    "{{ $input.q }}",
			expected: "shirt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve(tt.input, ctx))
		})
	}
}

func TestResolve_MixedTemplateYieldsString(t *testing.T) {
	ctx := testContext()

	result := Resolve("order {{ $trigger.order_id }} has {{ $last.count }} items", ctx)

	assert.Equal(t, "order ord_123 has 3 items", result)
}

func TestResolve_MissingPathResolvesEmpty(t *testing.T) {
	ctx := testContext()

	assert.Nil(t, Resolve("{{ $last.missing.deep }}", ctx))
	assert.Equal(t, "value: ", Resolve("value: {{ unknown_step.field }}", ctx))
}

func TestResolve_NoPlaceholderPassthrough(t *testing.T) {
	assert.Equal(t, "plain text", Resolve("plain text", testContext()))
}

func TestResolve_DoesNotMutateTemplate(t *testing.T) {
	input := "{{ $last.count }}"
	Resolve(input, testContext())
	assert.Equal(t, "{{ $last.count }}", input)
}

func TestResolveOptions_DeepResolution(t *testing.T) {
	ctx := testContext()

	options := map[string]any{
		"entity": "products",
		"data": map[string]any{
			"title": "{{ fetch_products.products.1.title }}",
			"tags":  []any{"{{ $input.q }}", "static"},
		},
	}

	resolved := ResolveOptions(options, ctx)

	assert.Equal(t, "products", resolved["entity"])
	data, ok := resolved["data"].(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, "Hat", data["title"])
	assert.Equal(t, []any{"shirt", "static"}, data["tags"])

	// authored options must remain untouched
	original := options["data"].(map[string]any)
	assert.Equal(t, "{{ fetch_products.products.1.title }}", original["title"])
}

func TestHasPlaceholder(t *testing.T) {
	assert.True(t, HasPlaceholder("{{ $last }}"))
	assert.False(t, HasPlaceholder("no placeholders here"))
}
