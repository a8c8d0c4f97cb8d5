// Package chat plans admin API actions from natural-language messages.
// The planner never executes a request; it returns a plan for the caller
// to run.
package chat

import "github.com/merchflow/merchflow/pkg/models"

// Request is one chat turn.
type Request struct {
	Message    string         `json:"message"    validate:"required"`
	ThreadID   string         `json:"threadId,omitempty"`
	ResourceID string         `json:"resourceId,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

// Response statuses.
const (
	StatusReply           = "reply"
	StatusPlanned         = "planned"
	StatusInvalidEndpoint = "invalid_endpoint"
)

// ToolCall is a planned action handed back to the caller for execution.
type ToolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Response is the planner's answer: a reply plus, when a concrete action
// was planned, the tool calls that would perform it.
type Response struct {
	Reply       string                  `json:"reply"`
	Status      string                  `json:"status"`
	ToolCalls   []ToolCall              `json:"toolCalls,omitempty"`
	Plan        *models.PlannedRequest  `json:"plan,omitempty"`
	Suggestions []models.PlannedRequest `json:"suggestions,omitempty"`
	ThreadID    string                  `json:"threadId,omitempty"`
	ResourceID  string                  `json:"resourceId,omitempty"`
}

// adminAPIToolName tags every planned admin call in toolCalls.
const adminAPIToolName = "admin_api_request"
