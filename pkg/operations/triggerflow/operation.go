// Package triggerflow implements the trigger_flow operation for nesting
// flows.
package triggerflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrFlowIDRequired is returned when no flow id is configured.
var ErrFlowIDRequired = errors.New("trigger_flow operation requires a flow id")

// Operation starts another flow. With wait_for_completion the nested run
// executes inline and its outputs become this node's output; otherwise
// only the dispatched run id is returned.
type Operation struct {
	FlowID string
	Input  any
	Wait   bool

	runner protocol.FlowRunner
}

func NewOperation(options map[string]any, runner protocol.FlowRunner) (*Operation, error) {
	flowID, _ := options["flow_id"].(string)
	if flowID == "" {
		return nil, ErrFlowIDRequired
	}

	wait, _ := options["wait_for_completion"].(bool)

	return &Operation{FlowID: flowID, Input: options["input"], Wait: wait, runner: runner}, nil
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "trigger_flow", "target_flow_id", o.FlowID)

	if o.Wait {
		logger.InfoContext(ctx, "Running nested flow synchronously")

		return o.runner.RunFlow(ctx, o.FlowID, o.Input)
	}

	logger.InfoContext(ctx, "Dispatching nested flow")

	runID, err := o.runner.DispatchFlow(ctx, o.FlowID, o.Input)
	if err != nil {
		return nil, err
	}

	return map[string]any{"run_id": runID}, nil
}

var _ protocol.Operation = (*Operation)(nil)
