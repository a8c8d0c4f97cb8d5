package notification

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates notification operations.
type Factory struct {
	backend protocol.Backend
}

func NewFactory(backend protocol.Backend) *Factory {
	return &Factory{backend: backend}
}

func (*Factory) ID() string {
	return "notification"
}

func (*Factory) Name() string {
	return "Notification"
}

func (*Factory) Description() string {
	return "Dispatches a message on a notification channel such as slack or sms."
}

func (f *Factory) Create(options map[string]any) (protocol.Operation, error) {
	if options == nil {
		options = map[string]any{}
	}

	return NewOperation(options, f.backend)
}

// Schema returns the JSON schema for the operation options.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"channel": map[string]any{
				"type":        "string",
				"description": "Delivery channel, e.g. 'slack', 'sms', 'webhook'.",
			},
			"to": map[string]any{
				"type":        "string",
				"description": "Channel-specific recipient.",
			},
			"template": map[string]any{
				"type":        "string",
				"description": "Message template identifier.",
			},
			"data": map[string]any{
				"type":        "object",
				"description": "Template variables. Supports templating for dynamic content.",
			},
		},
		"required": []string{"channel"},
	}
}
