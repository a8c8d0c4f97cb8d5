package transform

import (
	"context"
	"log/slog"
	"testing"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_ReturnsResolvedData(t *testing.T) {
	operation, err := NewOperation(map[string]any{
		"data": map[string]any{"title": "Mug", "count": float64(3)},
	})
	require.NoError(t, err)

	result, err := operation.Execute(context.Background(), models.NewExecutionContext("flow-1"), slog.Default())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Mug", "count": float64(3)}, result)
}

func TestExecute_EvaluatesExpression(t *testing.T) {
	operation, err := NewOperation(map[string]any{
		"expression": "len(fetch.items)",
	})
	require.NoError(t, err)

	execCtx := models.NewExecutionContext("flow-1")
	execCtx.Record("fetch", map[string]any{"items": []any{"a", "b"}})

	result, err := operation.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, result)
}

func TestNewOperation_RequiresDataOrExpression(t *testing.T) {
	_, err := NewOperation(map[string]any{})
	require.ErrorIs(t, err, ErrNothingToTransform)
}
