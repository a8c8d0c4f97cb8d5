package planner

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"testing"

	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(endpoints ...catalog.Endpoint) *catalog.Index {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	return catalog.NewIndex(catalog.StaticSource(endpoints), logger)
}

func TestPlan_EmptyProductIDSuggestsList(t *testing.T) {
	index := testIndex(catalog.Endpoint{Method: "GET", Path: "/admin/products"})

	suggestion := Plan(context.Background(), http.MethodPost, "/admin/order-items",
		map[string]any{"product_id": nil, "quantity": float64(2)}, index)

	require.Len(t, suggestion.Next, 1)
	next := suggestion.Next[0]
	assert.Equal(t, http.MethodGet, next.Method)
	assert.Equal(t, "/admin/products", next.Path)
	assert.Equal(t, map[string]any{"limit": 50}, next.Body)
	assert.Equal(t, "GET", next.OpenAPI.Method)
	assert.NotEmpty(t, suggestion.Notes)
}

func TestPlan_HintFromIdentifyingField(t *testing.T) {
	index := testIndex(catalog.Endpoint{Method: "GET", Path: "/admin/products"})

	suggestion := Plan(context.Background(), http.MethodPost, "/admin/inventory-items",
		map[string]any{"product_id": "", "sku": "SHIRT-S", "title": "Shirt"}, index)

	require.Len(t, suggestion.Next, 1)
	assert.Equal(t, "SHIRT-S", suggestion.Next[0].Body["q"], "sku outranks title in the hint priority list")
}

func TestPlan_ReadMethodsIgnored(t *testing.T) {
	index := testIndex(catalog.Endpoint{Method: "GET", Path: "/admin/products"})

	suggestion := Plan(context.Background(), http.MethodGet, "/admin/products",
		map[string]any{"product_id": nil}, index)

	assert.Empty(t, suggestion.Next)
}

func TestPlan_FilledIdentifierIgnored(t *testing.T) {
	index := testIndex(catalog.Endpoint{Method: "GET", Path: "/admin/products"})

	suggestion := Plan(context.Background(), http.MethodPost, "/admin/order-items",
		map[string]any{"product_id": "prod_123"}, index)

	assert.Empty(t, suggestion.Next)
}

func TestPlan_UnknownListEndpointSkipped(t *testing.T) {
	index := testIndex(catalog.Endpoint{Method: "GET", Path: "/admin/products"})

	suggestion := Plan(context.Background(), http.MethodPost, "/admin/shipments",
		map[string]any{"warehouse_id": nil}, index)

	assert.Empty(t, suggestion.Next)
}

func TestPlan_PluralIDsKey(t *testing.T) {
	index := testIndex(catalog.Endpoint{Method: "GET", Path: "/admin/sales-channels"})

	suggestion := Plan(context.Background(), http.MethodPost, "/admin/products",
		map[string]any{"sales_channel_ids": []any{}}, index)

	require.Len(t, suggestion.Next, 1)
	assert.Equal(t, "/admin/sales-channels", suggestion.Next[0].Path)
}

func TestPluralize(t *testing.T) {
	tests := map[string]string{
		"product":       "products",
		"category":      "categories",
		"batch":         "batches",
		"tax":           "taxes",
		"address":       "addresses",
		"gateway":       "gateways",
		"sales-channel": "sales-channels",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, pluralize(input), "pluralize(%q)", input)
	}
}
