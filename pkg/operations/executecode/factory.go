package executecode

import (
	"github.com/merchflow/merchflow/pkg/protocol"
	"github.com/merchflow/merchflow/pkg/script"
)

// Factory creates execute_code operations sharing one sandbox executor.
type Factory struct {
	executor *script.Executor
}

func NewFactory(executor *script.Executor) *Factory {
	return &Factory{executor: executor}
}

func (*Factory) ID() string {
	return "execute_code"
}

func (*Factory) Name() string {
	return "Execute Code"
}

func (*Factory) Description() string {
	return "Runs a sandboxed script with read access to prior step outputs."
}

func (f *Factory) Create(options map[string]any) (protocol.Operation, error) {
	if options == nil {
		options = map[string]any{}
	}

	return NewOperation(options, f.executor)
}

// Schema returns the JSON schema for the operation options.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"code": map[string]any{
				"type":        "string",
				"description": "Script body. The bindings last, input, trigger, and outputs are in scope.",
			},
			"packages": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Allow-listed packages to load into the sandbox.",
			},
			"timeout_ms": map[string]any{
				"type":        "number",
				"description": "Execution timeout in milliseconds.",
				"default":     5000,
			},
		},
		"required": []string{"code"},
	}
}
