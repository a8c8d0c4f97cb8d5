package sendemail

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates send_email operations.
type Factory struct {
	backend protocol.Backend
}

func NewFactory(backend protocol.Backend) *Factory {
	return &Factory{backend: backend}
}

func (*Factory) ID() string {
	return "send_email"
}

func (*Factory) Name() string {
	return "Send Email"
}

func (*Factory) Description() string {
	return "Sends a templated email through the notification service."
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
			"to": map[string]any{
				"type":        "string",
				"description": "Recipient address. Supports templating for dynamic content.",
			},
			"template": map[string]any{
				"type":        "string",
				"description": "Email template identifier.",
			},
			"data": map[string]any{
				"type":        "object",
				"description": "Template variables. Supports templating for dynamic content.",
			},
		},
		"required": []string{"to", "template"},
	}
}
