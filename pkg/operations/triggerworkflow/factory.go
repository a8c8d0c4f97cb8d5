package triggerworkflow

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates trigger_workflow operations.
type Factory struct {
	backend protocol.Backend
}

func NewFactory(backend protocol.Backend) *Factory {
	return &Factory{backend: backend}
}

func (*Factory) ID() string {
	return "trigger_workflow"
}

func (*Factory) Name() string {
	return "Trigger Workflow"
}

func (*Factory) Description() string {
	return "Starts a named backend workflow, optionally waiting for its completion."
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
			"workflow_name": map[string]any{
				"type":        "string",
				"description": "Backend workflow to start.",
			},
			"input": map[string]any{
				"type":        "object",
				"description": "Workflow input. Supports templating for dynamic content.",
			},
			"wait_for_completion": map[string]any{
				"type":        "boolean",
				"description": "Block until the workflow reports completion.",
				"default":     false,
			},
		},
		"required": []string{"workflow_name"},
	}
}
