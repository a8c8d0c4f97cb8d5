package flow

import (
	"context"
	"log/slog"
	"testing"

	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/persistence/file"
	"github.com/merchflow/merchflow/pkg/protocol"
	"github.com/merchflow/merchflow/pkg/registry"
	"github.com/merchflow/merchflow/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBackend struct{}

func (stubBackend) Request(_ context.Context, _, _ string, _ map[string]any) (any, error) {
	return nil, nil
}

func (stubBackend) TriggerWorkflow(_ context.Context, _ string, _ map[string]any, _ bool) (any, error) {
	return nil, nil
}

func (stubBackend) SendNotification(_ context.Context, _ protocol.Notification) (any, error) {
	return nil, nil
}

func newTestExecutor(t *testing.T) (*Executor, *Repository) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	repository := NewRepository(store)

	runner := NewRunner()
	reg := registry.NewRegistry(slog.Default())
	registry.RegisterDefaultOperations(reg, registry.Dependencies{
		Index:    catalog.NewIndex(catalog.StaticSource{}, slog.Default()),
		Backend:  stubBackend{},
		Executor: script.NewExecutor(slog.Default()),
		Runner:   runner,
	})

	executor := NewExecutor(repository, reg, nil, slog.Default(), "worker-test")
	runner.Bind(executor)

	return executor, repository
}

func operationNode(id string, opType models.OperationType, key string, options map[string]any) *models.FlowNode {
	return &models.FlowNode{
		ID:            id,
		Type:          models.NodeTypeOperation,
		OperationType: opType,
		OperationKey:  key,
		Options:       options,
	}
}

func publishedFlow(id string, nodes []*models.FlowNode, edges []*models.Edge) *models.Flow {
	return &models.Flow{
		ID:     id,
		Name:   "Test flow",
		Status: models.FlowStatusPublished,
		Nodes:  nodes,
		Edges:  edges,
	}
}

func TestExecute_UpstreamOutputVisibleDownstream(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-1",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeTransform, "shape", map[string]any{
				"data": map[string]any{"value": float64(7)},
			}),
			operationNode("b", models.OperationTypeTransform, "echo", map[string]any{
				"data": "{{ shape.value }}",
			}),
		},
		[]*models.Edge{
			{ID: "e1", Source: "t", Target: "a"},
			{ID: "e2", Source: "a", Target: "b"},
		},
	)
	require.NoError(t, repository.Save(context.Background(), flow))

	executionCtx, err := executor.Execute(context.Background(), "flow-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSucceeded, executionCtx.Status)
	assert.Equal(t, float64(7), executionCtx.Outputs["echo"])
}

func TestExecute_ConditionFalseSkipsDownstream(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-1",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeTransform, "total", map[string]any{
				"data": map[string]any{"amount": float64(10)},
			}),
			operationNode("c", models.OperationTypeCondition, "gate", map[string]any{
				"expression": "{{ total.amount }} > 100",
			}),
			operationNode("b", models.OperationTypeLog, "notify", map[string]any{
				"message": "high value order",
			}),
		},
		[]*models.Edge{
			{ID: "e1", Source: "t", Target: "a"},
			{ID: "e2", Source: "a", Target: "c"},
			{ID: "e3", Source: "c", Target: "b"},
		},
	)
	require.NoError(t, repository.Save(context.Background(), flow))

	executionCtx, err := executor.Execute(context.Background(), "flow-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSucceeded, executionCtx.Status)
	assert.NotContains(t, executionCtx.Outputs, "notify")

	var skipped []string

	for _, result := range executionCtx.Results {
		if result.Status == models.NodeStatusSkipped {
			skipped = append(skipped, result.NodeID)
		}
	}

	assert.Equal(t, []string{"b"}, skipped)
}

func TestExecute_NodeFailureStopsRun(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-1",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeExecuteCode, "boom", map[string]any{
				"code": `error("deliberate")`,
			}),
			operationNode("b", models.OperationTypeLog, "after", map[string]any{
				"message": "unreached",
			}),
		},
		[]*models.Edge{
			{ID: "e1", Source: "t", Target: "a"},
			{ID: "e2", Source: "a", Target: "b"},
		},
	)
	require.NoError(t, repository.Save(context.Background(), flow))

	executionCtx, err := executor.Execute(context.Background(), "flow-1", nil, nil)
	require.Error(t, err)

	assert.Equal(t, models.RunStatusFailed, executionCtx.Status)
	assert.NotContains(t, executionCtx.Outputs, "after")
}

func TestExecute_ContinueOnErrorProceeds(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-1",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeExecuteCode, "boom", map[string]any{
				"code":              `error("deliberate")`,
				"continue_on_error": true,
			}),
			operationNode("b", models.OperationTypeLog, "after", map[string]any{
				"message": "still runs",
			}),
		},
		[]*models.Edge{
			{ID: "e1", Source: "t", Target: "a"},
			{ID: "e2", Source: "a", Target: "b"},
		},
	)
	require.NoError(t, repository.Save(context.Background(), flow))

	executionCtx, err := executor.Execute(context.Background(), "flow-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.RunStatusSucceeded, executionCtx.Status)
	assert.Contains(t, executionCtx.Outputs, "after")
}

func TestExecute_TriggerDataReachesNodes(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-1",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeTransform, "echo", map[string]any{
				"data": "{{ $trigger.order_id }}",
			}),
		},
		[]*models.Edge{{ID: "e1", Source: "t", Target: "a"}},
	)
	require.NoError(t, repository.Save(context.Background(), flow))

	executionCtx, err := executor.Execute(context.Background(), "flow-1",
		map[string]any{"order_id": "ord_42"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "ord_42", executionCtx.Outputs["echo"])
}

func TestExecute_DraftFlowRejected(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-1",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeLog, "audit", map[string]any{"message": "hi"}),
		},
		[]*models.Edge{{ID: "e1", Source: "t", Target: "a"}},
	)
	flow.Status = models.FlowStatusDraft
	require.NoError(t, repository.Save(context.Background(), flow))

	executionCtx, err := executor.Execute(context.Background(), "flow-1", nil, nil)
	require.ErrorIs(t, err, ErrFlowNotExecutable)
	assert.Equal(t, models.RunStatusFailed, executionCtx.Status)
}

func TestRunner_RunFlowReturnsOutputs(t *testing.T) {
	executor, repository := newTestExecutor(t)

	flow := publishedFlow("flow-nested",
		[]*models.FlowNode{
			{ID: "t", Type: models.NodeTypeTrigger},
			operationNode("a", models.OperationTypeTransform, "result", map[string]any{
				"data": "{{ $input.value }}",
			}),
		},
		[]*models.Edge{{ID: "e1", Source: "t", Target: "a"}},
	)
	require.NoError(t, repository.Save(context.Background(), flow))

	runner := NewRunner()
	runner.Bind(executor)

	outputs, err := runner.RunFlow(context.Background(), "flow-nested", map[string]any{"value": "nested"})
	require.NoError(t, err)

	result, ok := outputs.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "nested", result["result"])
}
