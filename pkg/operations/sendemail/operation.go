// Package sendemail implements the send_email operation. Delivery is
// delegated to the backend's notification service on the email channel.
package sendemail

import (
	"context"
	"errors"
	"log/slog"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrRecipientRequired is returned when no recipient is configured.
var ErrRecipientRequired = errors.New("send_email operation requires a recipient")

// ErrTemplateRequired is returned when no template is configured.
var ErrTemplateRequired = errors.New("send_email operation requires a template")

// Operation sends a templated email through the backend.
type Operation struct {
	To       string
	Template string
	Data     map[string]any

	backend protocol.Backend
}

func NewOperation(options map[string]any, backend protocol.Backend) (*Operation, error) {
	to, _ := options["to"].(string)
	if to == "" {
		return nil, ErrRecipientRequired
	}

	template, _ := options["template"].(string)
	if template == "" {
		return nil, ErrTemplateRequired
	}

	data, _ := options["data"].(map[string]any)

	return &Operation{To: to, Template: template, Data: data, backend: backend}, nil
}

func (o *Operation) Execute(ctx context.Context, _ *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "send_email", "template", o.Template)
	logger.InfoContext(ctx, "Sending email", "to", o.To)

	return o.backend.SendNotification(ctx, protocol.Notification{
		Channel:  "email",
		To:       o.To,
		Template: o.Template,
		Data:     o.Data,
	})
}

var _ protocol.Operation = (*Operation)(nil)
