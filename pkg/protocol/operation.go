// Package protocol defines the contracts between the flow orchestrator,
// operation handlers, and the commerce backend.
package protocol

import (
	"context"
	"log/slog"

	"github.com/merchflow/merchflow/pkg/models"
)

// Operation is a single executable flow step. Implementations receive
// their options already template-resolved against the current execution
// context.
type Operation interface {
	Execute(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error)
}

// OperationFactory creates operation instances and describes the
// operation type to the registry.
type OperationFactory interface {
	// Create builds an operation from resolved node options.
	Create(options map[string]any) (Operation, error)

	// ID returns the operation type tag this factory handles.
	ID() string

	// Name returns the human-readable operation name.
	Name() string

	// Description returns what this operation does.
	Description() string

	// Schema returns the JSON schema its options are validated against.
	Schema() map[string]any
}
