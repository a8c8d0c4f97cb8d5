// Package notification implements the notification operation for
// channel messages other than plain email.
package notification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrChannelRequired is returned when no channel is configured.
var ErrChannelRequired = errors.New("notification operation requires a channel")

// Operation dispatches a notification through the backend on the
// configured channel.
type Operation struct {
	Channel  string
	To       string
	Template string
	Data     map[string]any

	backend protocol.Backend
}

func NewOperation(options map[string]any, backend protocol.Backend) (*Operation, error) {
	channel, _ := options["channel"].(string)
	if channel == "" {
		return nil, ErrChannelRequired
	}

	operation := &Operation{Channel: channel, backend: backend}
	operation.To, _ = options["to"].(string)
	operation.Template, _ = options["template"].(string)
	operation.Data, _ = options["data"].(map[string]any)

	return operation, nil
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "notification", "channel", o.Channel)
	logger.InfoContext(ctx, "Dispatching notification", "to", o.To)

	return o.backend.SendNotification(ctx, protocol.Notification{
		Channel:  o.Channel,
		To:       o.To,
		Template: o.Template,
		Data:     o.Data,
	})
}

var _ protocol.Operation = (*Operation)(nil)
