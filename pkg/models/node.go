// Package models defines node and edge records forming the flow graph.
package models

// NodeType distinguishes the single trigger node from operation nodes.
type NodeType string

const (
	NodeTypeTrigger   NodeType = "trigger"
	NodeTypeOperation NodeType = "operation"
)

// OperationType identifies the handler dispatched for an operation node.
type OperationType string

const (
	OperationTypeReadData        OperationType = "read_data"
	OperationTypeCreateData      OperationType = "create_data"
	OperationTypeUpdateData      OperationType = "update_data"
	OperationTypeDeleteData      OperationType = "delete_data"
	OperationTypeLog             OperationType = "log"
	OperationTypeCondition       OperationType = "condition"
	OperationTypeHTTPRequest     OperationType = "http_request"
	OperationTypeTransform       OperationType = "transform"
	OperationTypeSendEmail       OperationType = "send_email"
	OperationTypeSleep           OperationType = "sleep"
	OperationTypeNotification    OperationType = "notification"
	OperationTypeExecuteCode     OperationType = "execute_code"
	OperationTypeBulkUpdateData  OperationType = "bulk_update_data"
	OperationTypeTriggerWorkflow OperationType = "trigger_workflow"
	OperationTypeTriggerFlow     OperationType = "trigger_flow"
)

// OperationTypes enumerates the full dispatch surface.
var OperationTypes = []OperationType{
	OperationTypeReadData,
	OperationTypeCreateData,
	OperationTypeUpdateData,
	OperationTypeDeleteData,
	OperationTypeLog,
	OperationTypeCondition,
	OperationTypeHTTPRequest,
	OperationTypeTransform,
	OperationTypeSendEmail,
	OperationTypeSleep,
	OperationTypeNotification,
	OperationTypeExecuteCode,
	OperationTypeBulkUpdateData,
	OperationTypeTriggerWorkflow,
	OperationTypeTriggerFlow,
}

// FlowNode represents a single node in a flow graph. Options is
// operation-type-specific and validated against the operation's schema at
// edit time.
type FlowNode struct {
	ID            string         `json:"id"             validate:"required"`
	Type          NodeType       `json:"type"           validate:"required,oneof=trigger operation"`
	OperationType OperationType  `json:"operation_type,omitempty"`
	OperationKey  string         `json:"operation_key,omitempty"`
	Label         string         `json:"label,omitempty"`
	Options       map[string]any `json:"options,omitempty"`
}

func (n *FlowNode) IsTrigger() bool {
	return n.Type == NodeTypeTrigger
}

func (n *FlowNode) IsOperation() bool {
	return n.Type == NodeTypeOperation
}

// ContinueOnError reports whether a failure of this node lets the run
// proceed. Explicit per-node, defaulting to true only for bulk updates.
func (n *FlowNode) ContinueOnError() bool {
	if v, ok := n.Options["continue_on_error"].(bool); ok {
		return v
	}

	return n.OperationType == OperationTypeBulkUpdateData
}

// Edge connects a source node to a target node.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// NodeResult captures the outcome of a single node execution.
type NodeResult struct {
	NodeID       string     `json:"node_id"`
	OperationKey string     `json:"operation_key"`
	Status       NodeStatus `json:"status"`
	Output       any        `json:"output,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
	NodeStatusSkipped NodeStatus = "skipped"
)
