package sleep

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates sleep operations.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "sleep"
}

func (*Factory) Name() string {
	return "Sleep"
}

func (*Factory) Description() string {
	return "Pauses the flow for a fixed duration before the next step."
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
			"seconds": map[string]any{
				"type":        "number",
				"description": "Seconds to pause.",
			},
			"milliseconds": map[string]any{
				"type":        "number",
				"description": "Milliseconds to pause, overriding seconds when both are set.",
			},
		},
	}
}
