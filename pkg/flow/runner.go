package flow

import (
	"context"
	"errors"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrRunnerNotBound is returned when a nested flow is triggered before
// the runner has an executor.
var ErrRunnerNotBound = errors.New("flow runner has no executor")

// Runner implements nested flow starts for trigger_flow nodes. It is
// created empty and bound after the registry exists, breaking the
// construction cycle between registry and executor.
type Runner struct {
	executor *Executor
}

func NewRunner() *Runner {
	return &Runner{}
}

// Bind attaches the executor. Must happen before any flow runs.
func (r *Runner) Bind(executor *Executor) {
	r.executor = executor
}

// RunFlow executes the flow inline and returns its outputs.
func (r *Runner) RunFlow(ctx context.Context, flowID string, input any) (any, error) {
	if r.executor == nil {
		return nil, ErrRunnerNotBound
	}

	executionCtx, err := r.executor.Execute(ctx, flowID, nil, asMap(input))
	if err != nil {
		return nil, err
	}

	return executionCtx.Outputs, nil
}

// DispatchFlow starts the flow in the background and returns the run id
// immediately. The nested run outlives the parent node's context.
func (r *Runner) DispatchFlow(ctx context.Context, flowID string, input any) (string, error) {
	if r.executor == nil {
		return "", ErrRunnerNotBound
	}

	executionCtx := models.NewExecutionContext(flowID)
	detached := context.WithoutCancel(ctx)

	go func() {
		if err := r.executor.ExecuteWith(detached, executionCtx, nil, asMap(input)); err != nil {
			r.executor.logger.Error("Dispatched flow failed", "flow_id", flowID, "run_id", executionCtx.ID, "error", err)
		}
	}()

	return executionCtx.ID, nil
}

func asMap(input any) map[string]any {
	if m, ok := input.(map[string]any); ok {
		return m
	}

	if input == nil {
		return nil
	}

	return map[string]any{"value": input}
}

var _ protocol.FlowRunner = (*Runner)(nil)
