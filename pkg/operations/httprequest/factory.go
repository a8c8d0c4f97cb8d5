package httprequest

import (
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates http_request operations.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "http_request"
}

func (*Factory) Name() string {
	return "HTTP Request"
}

func (*Factory) Description() string {
	return "Calls an external HTTP endpoint with optional headers, body, and retry on server errors."
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
			"url": map[string]any{
				"type":        "string",
				"description": "Target URL. Supports templating for dynamic content.",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers.",
			},
			"body": map[string]any{
				"description": "Request body, a string or a JSON object.",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Per-attempt timeout in seconds.",
				"default":     30,
			},
			"retry": map[string]any{
				"type":        "object",
				"description": "Retry policy for transport failures and 5xx responses.",
				"properties": map[string]any{
					"attempts": map[string]any{"type": "number", "default": 1},
					"delay":    map[string]any{"type": "number", "default": 0},
				},
			},
		},
		"required": []string{"url"},
	}
}
