package condition

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates condition operations.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "condition"
}

func (*Factory) Name() string {
	return "Condition"
}

func (*Factory) Description() string {
	return "Evaluates a boolean expression; downstream nodes run only when it holds."
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
			"expression": map[string]any{
				"type":        "string",
				"description": "The expression to evaluate.",
				"examples": []string{
					"{{ fetch_order.total }} > 100",
					"$trigger.status == 'pending'",
					"len(fetch.items) > 0",
				},
			},
			"language": map[string]any{
				"type":        "string",
				"description": "Expression dialect.",
				"default":     "simple",
				"enum":        []string{"simple", "expr"},
			},
		},
		"required": []string{"expression"},
	}
}
