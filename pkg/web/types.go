package web

import "github.com/merchflow/merchflow/pkg/models"

// CreateFlowRequest is the payload for creating a flow. Nodes and edges
// may be provided up front or added through updates.
type CreateFlowRequest struct {
	Name        string             `json:"name"        validate:"required,min=3"`
	Description string             `json:"description"`
	Nodes       []*models.FlowNode `json:"nodes"`
	Edges       []*models.Edge     `json:"edges"`
	Schedule    string             `json:"schedule"`
	Variables   map[string]any     `json:"variables"`
	Metadata    map[string]any     `json:"metadata"`
	Owner       string             `json:"owner"`
}

// UpdateFlowRequest is a partial update; nil fields are left untouched.
type UpdateFlowRequest struct {
	Name        *string            `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string            `json:"description,omitempty"`
	Nodes       []*models.FlowNode `json:"nodes,omitempty"`
	Edges       []*models.Edge     `json:"edges,omitempty"`
	Schedule    *string            `json:"schedule,omitempty"`
	Variables   map[string]any     `json:"variables,omitempty"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
}

// OperationDescriptor documents one registered operation type.
type OperationDescriptor struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}
