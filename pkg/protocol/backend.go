package protocol

import "context"

// Notification is a message dispatched through the commerce backend's
// notification service.
type Notification struct {
	Channel  string         `json:"channel"`
	To       string         `json:"to"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data,omitempty"`
}

// Backend is the commerce data/workflow backend the engine calls into. It
// is treated as a black box: the engine validates requests against the
// catalog, the backend owns persistence and job machinery.
type Backend interface {
	// Request performs an API call. GET bodies are encoded as query
	// parameters.
	Request(ctx context.Context, method, path string, body map[string]any) (any, error)

	// TriggerWorkflow starts a named backend workflow, optionally waiting
	// for its completion.
	TriggerWorkflow(ctx context.Context, name string, input map[string]any, wait bool) (any, error)

	// SendNotification dispatches an email or channel notification.
	SendNotification(ctx context.Context, notification Notification) (any, error)
}

// FlowRunner starts nested flow runs on behalf of trigger_flow nodes.
type FlowRunner interface {
	// RunFlow executes the flow synchronously and returns its final
	// context outputs.
	RunFlow(ctx context.Context, flowID string, input any) (any, error)

	// DispatchFlow fires the flow asynchronously and returns the run id.
	DispatchFlow(ctx context.Context, flowID string, input any) (string, error)
}
