package triggerflow

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates trigger_flow operations.
type Factory struct {
	runner protocol.FlowRunner
}

func NewFactory(runner protocol.FlowRunner) *Factory {
	return &Factory{runner: runner}
}

func (*Factory) ID() string {
	return "trigger_flow"
}

func (*Factory) Name() string {
	return "Trigger Flow"
}

func (*Factory) Description() string {
	return "Starts another flow, inline when waiting for completion or fire-and-forget otherwise."
}

func (f *Factory) Create(options map[string]any) (protocol.Operation, error) {
	if options == nil {
		options = map[string]any{}
	}

	return NewOperation(options, f.runner)
}

// Schema returns the JSON schema for the operation options.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flow_id": map[string]any{
				"type":        "string",
				"description": "Flow to start.",
			},
			"input": map[string]any{
				"description": "Input handed to the nested run. Supports templating for dynamic content.",
			},
			"wait_for_completion": map[string]any{
				"type":        "boolean",
				"description": "Run the nested flow inline and return its outputs.",
				"default":     false,
			},
		},
		"required": []string{"flow_id"},
	}
}
