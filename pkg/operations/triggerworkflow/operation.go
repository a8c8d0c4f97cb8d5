// Package triggerworkflow implements the trigger_workflow operation for
// starting named backend workflows.
package triggerworkflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrNameRequired is returned when no workflow name is configured.
var ErrNameRequired = errors.New("trigger_workflow operation requires a workflow name")

// Operation starts a backend workflow, optionally waiting for it.
type Operation struct {
	WorkflowName string
	Input        map[string]any
	Wait         bool

	backend protocol.Backend
}

func NewOperation(options map[string]any, backend protocol.Backend) (*Operation, error) {
	name, _ := options["workflow_name"].(string)
	if name == "" {
		return nil, ErrNameRequired
	}

	input, _ := options["input"].(map[string]any)
	wait, _ := options["wait_for_completion"].(bool)

	return &Operation{WorkflowName: name, Input: input, Wait: wait, backend: backend}, nil
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "trigger_workflow", "workflow_name", o.WorkflowName)
	logger.InfoContext(ctx, "Triggering backend workflow", "wait", o.Wait)

	return o.backend.TriggerWorkflow(ctx, o.WorkflowName, o.Input, o.Wait)
}

var _ protocol.Operation = (*Operation)(nil)
