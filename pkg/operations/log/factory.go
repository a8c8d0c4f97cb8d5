package log

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates log operations.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "log"
}

func (*Factory) Name() string {
	return "Log"
}

func (*Factory) Description() string {
	return "Logs a message at a specified level. Supports templating for dynamic content."
}

func (f *Factory) Create(options map[string]any) (protocol.Operation, error) {
	if options == nil {
		options = map[string]any{}
	}

	return NewOperation(options), nil
}

// Schema returns the JSON schema for the operation options.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "The message to log. Supports templating for dynamic content.",
				"examples": []string{
					"Flow step completed successfully",
					"Processing order {{ $trigger.order_id }}",
					"Fetched {{ fetch_products.count }} records",
				},
			},
			"level": map[string]any{
				"type":        "string",
				"description": "Log level for the message",
				"default":     "info",
				"enum":        []string{"debug", "info", "warn", "warning", "error"},
			},
		},
		"required": []string{"message"},
	}
}
