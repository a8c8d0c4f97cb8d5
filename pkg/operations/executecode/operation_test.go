package executecode

import (
	"context"
	"log/slog"
	"testing"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_SeesRunBindings(t *testing.T) {
	factory := NewFactory(script.NewExecutor(slog.Default()))

	operation, err := factory.Create(map[string]any{
		"code": `return outputs.fetch.total * 2`,
	})
	require.NoError(t, err)

	execCtx := models.NewExecutionContext("flow-1")
	execCtx.Record("fetch", map[string]any{"total": float64(21)})

	result, err := operation.Execute(context.Background(), execCtx, slog.Default())
	require.NoError(t, err)
	assert.Equal(t, float64(42), result)
}

func TestExecute_ScriptErrorSurfaces(t *testing.T) {
	factory := NewFactory(script.NewExecutor(slog.Default()))

	operation, err := factory.Create(map[string]any{
		"code": `error("boom")`,
	})
	require.NoError(t, err)

	_, err = operation.Execute(context.Background(), models.NewExecutionContext("flow-1"), slog.Default())
	require.ErrorIs(t, err, script.ErrScript)
}

func TestNewOperation_RequiresCode(t *testing.T) {
	_, err := NewOperation(map[string]any{}, script.NewExecutor(slog.Default()))
	require.ErrorIs(t, err, ErrCodeRequired)
}
