package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
	"github.com/merchflow/merchflow/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopBackend struct{}

func (noopBackend) Request(_ context.Context, _, _ string, _ map[string]any) (any, error) {
	return nil, nil
}

func (noopBackend) TriggerWorkflow(_ context.Context, _ string, _ map[string]any, _ bool) (any, error) {
	return nil, nil
}

func (noopBackend) SendNotification(_ context.Context, _ protocol.Notification) (any, error) {
	return nil, nil
}

type noopRunner struct{}

func (noopRunner) RunFlow(_ context.Context, _ string, _ any) (any, error) {
	return nil, nil
}

func (noopRunner) DispatchFlow(_ context.Context, _ string, _ any) (string, error) {
	return "run-test", nil
}

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()

	r := NewRegistry(slog.Default())
	RegisterDefaultOperations(r, Dependencies{
		Index:    catalog.NewIndex(catalog.StaticSource{}, slog.Default()),
		Backend:  noopBackend{},
		Executor: script.NewExecutor(slog.Default()),
		Runner:   noopRunner{},
	})

	return r
}

func TestRegisterDefaultOperations_CoversEveryType(t *testing.T) {
	r := defaultRegistry(t)

	for _, operationType := range models.OperationTypes {
		_, ok := r.Factory(string(operationType))
		assert.True(t, ok, "missing factory for %s", operationType)
	}

	assert.Len(t, r.Available(), len(models.OperationTypes))
}

func TestCreate_UnknownTypeErrors(t *testing.T) {
	r := defaultRegistry(t)

	_, err := r.Create("teleport", map[string]any{})
	require.Error(t, err)
}

func TestCreate_SchemaRejectsMissingRequired(t *testing.T) {
	r := defaultRegistry(t)

	_, err := r.Create("log", map[string]any{})
	require.ErrorIs(t, err, ErrInvalidOptions)
}

func TestCreate_BuildsOperation(t *testing.T) {
	r := defaultRegistry(t)

	operation, err := r.Create("log", map[string]any{"message": "hello"})
	require.NoError(t, err)
	require.NotNil(t, operation)
}

func TestValidateOptions_EmptySchemaAcceptsAnything(t *testing.T) {
	require.NoError(t, ValidateOptions(nil, map[string]any{"anything": true}))
}
