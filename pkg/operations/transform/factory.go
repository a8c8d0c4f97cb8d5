package transform

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates transform operations.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "transform"
}

func (*Factory) Name() string {
	return "Transform"
}

func (*Factory) Description() string {
	return "Produces a new value from prior step outputs, either a templated data shape or a computed expression."
}

func (f *Factory) Create(options map[string]any) (protocol.Operation, error) {
	if options == nil {
		options = map[string]any{}
	}

	return NewOperation(options)
}

// Schema returns the JSON schema for the operation options.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"data": map[string]any{
				"description": "The output shape. Supports templating for dynamic content.",
			},
			"expression": map[string]any{
				"type":        "string",
				"description": "Expression evaluated against run outputs, e.g. 'map(fetch.products, .id)'.",
			},
		},
	}
}
