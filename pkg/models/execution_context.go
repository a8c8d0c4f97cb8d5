package models

import (
	"fmt"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a single flow run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// ExecutionContext is the ephemeral state of one flow run. Outputs grow
// append-only as nodes complete; the context is discarded at run end and
// never shared across runs.
type ExecutionContext struct {
	ID      string         `json:"id"`
	FlowID  string         `json:"flow_id"`
	Status  RunStatus      `json:"status"`
	Trigger any            `json:"trigger,omitempty"`
	Input   any            `json:"input,omitempty"`
	Outputs map[string]any `json:"outputs"`
	Last    any            `json:"last,omitempty"`
	Results []NodeResult   `json:"results,omitempty"`
}

// NewExecutionContext creates a Pending context for the given flow.
func NewExecutionContext(flowID string) *ExecutionContext {
	return &ExecutionContext{
		ID:      fmt.Sprintf("run-%s", uuid.New().String()[:8]),
		FlowID:  flowID,
		Status:  RunStatusPending,
		Outputs: make(map[string]any),
	}
}

// Bind attaches the trigger payload and transitions the run to Running.
func (c *ExecutionContext) Bind(trigger, input any) {
	c.Trigger = trigger
	c.Input = input
	c.Status = RunStatusRunning
}

// Record stores a completed node's output under its operation key and
// updates Last.
func (c *ExecutionContext) Record(operationKey string, output any) {
	if c.Outputs == nil {
		c.Outputs = make(map[string]any)
	}

	if operationKey != "" {
		c.Outputs[operationKey] = output
	}

	c.Last = output
}
