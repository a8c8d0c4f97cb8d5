// Package sleep implements the sleep operation.
package sleep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrDurationRequired is returned when no positive duration is given.
var ErrDurationRequired = errors.New("sleep operation requires a positive duration")

// MaxDuration caps a single sleep so a mistyped value cannot stall a
// worker for hours.
const MaxDuration = 10 * time.Minute

// Operation pauses the flow for a fixed duration. Cancellation of the
// run interrupts the pause.
type Operation struct {
	Duration time.Duration
}

func NewOperation(options map[string]any) (*Operation, error) {
	var duration time.Duration

	if seconds, ok := options["seconds"].(float64); ok && seconds > 0 {
		duration = time.Duration(seconds * float64(time.Second))
	}

	if ms, ok := options["milliseconds"].(float64); ok && ms > 0 {
		duration = time.Duration(ms * float64(time.Millisecond))
	}

	if duration <= 0 {
		return nil, ErrDurationRequired
	}

	if duration > MaxDuration {
		duration = MaxDuration
	}

	return &Operation{Duration: duration}, nil
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "sleep")
	logger.InfoContext(ctx, "Sleeping", "duration", o.Duration.String())

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(o.Duration):
	}

	return map[string]any{"slept_ms": o.Duration.Milliseconds()}, nil
}

var _ protocol.Operation = (*Operation)(nil)
