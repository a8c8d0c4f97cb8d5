// Package log implements the log operation.
package log

import (
	"context"
	"log/slog"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Operation writes a message to the run log at a configured level.
type Operation struct {
	Message string
	Level   string
}

func NewOperation(options map[string]any) *Operation {
	message, _ := options["message"].(string)

	level, _ := options["level"].(string)
	if level == "" {
		level = "info"
	}

	return &Operation{Message: message, Level: level}
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "log")

	switch o.Level {
	case "debug":
		logger.DebugContext(ctx, o.Message)
	case "warn", "warning":
		logger.WarnContext(ctx, o.Message)
	case "error":
		logger.ErrorContext(ctx, o.Message)
	default:
		logger.InfoContext(ctx, o.Message)
	}

	return map[string]any{
		"message": o.Message,
		"level":   o.Level,
	}, nil
}

var _ protocol.Operation = (*Operation)(nil)
