// Package models defines the core domain models for flow automation graphs.
package models

import "time"

// FlowStatus represents the lifecycle state of a flow.
type FlowStatus string

const (
	FlowStatusDraft       FlowStatus = "draft"       // Editable, not executable
	FlowStatusPublished   FlowStatus = "published"   // Current active, executable
	FlowStatusUnpublished FlowStatus = "unpublished" // Historical, not executable
)

// Flow represents a user-authored automation graph: one trigger node plus
// operation nodes connected by edges.
type Flow struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description"`
	Status      FlowStatus     `json:"status"      validate:"required"`
	Nodes       []*FlowNode    `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	Schedule    string         `json:"schedule,omitempty"` // Optional cron expression
	Variables   map[string]any `json:"variables,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Owner       string         `json:"owner"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   *time.Time     `json:"deleted_at,omitempty"`
}

// TriggerNode returns the flow's trigger node, or nil when the graph has none.
func (f *Flow) TriggerNode() *FlowNode {
	for _, node := range f.Nodes {
		if node.IsTrigger() {
			return node
		}
	}

	return nil
}

// OperationNodes returns all operation nodes in declaration order.
func (f *Flow) OperationNodes() []*FlowNode {
	nodes := make([]*FlowNode, 0, len(f.Nodes))

	for _, node := range f.Nodes {
		if node.IsOperation() {
			nodes = append(nodes, node)
		}
	}

	return nodes
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *FlowNode {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}
