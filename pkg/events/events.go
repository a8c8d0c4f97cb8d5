// Package events defines the event types exchanged between the API,
// trigger sources, and flow workers.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/merchflow/merchflow/pkg/models"
)

type EventType string

// Topic carries every flow event. Workers filter by event type metadata.
const Topic = "merchflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Trigger events.
	FlowTriggeredEvent EventType = "flow.triggered"

	// Run lifecycle events.
	RunStartedEvent   EventType = "flow.run.started"
	RunSucceededEvent EventType = "flow.run.succeeded"
	RunFailedEvent    EventType = "flow.run.failed"
	RunCancelledEvent EventType = "flow.run.cancelled"

	// Node events.
	NodeFinishedEvent EventType = "flow.node.finished"
	NodeFailedEvent   EventType = "flow.node.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}

// FlowTriggered asks a worker to start a run for a flow.
type FlowTriggered struct {
	BaseEvent

	TriggerSource string         `json:"trigger_source"`
	TriggerData   map[string]any `json:"trigger_data,omitempty"`
	Input         map[string]any `json:"input,omitempty"`
}

func (e FlowTriggered) GetType() EventType {
	return FlowTriggeredEvent
}

// RunStarted marks the transition of a run to Running.
type RunStarted struct {
	BaseEvent

	RunID         string `json:"run_id"`
	TriggerSource string `json:"trigger_source"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

// RunSucceeded carries the final outputs of a completed run.
type RunSucceeded struct {
	BaseEvent

	RunID         string         `json:"run_id"`
	DurationMs    int64          `json:"duration_ms"`
	NodesExecuted int            `json:"nodes_executed"`
	Outputs       map[string]any `json:"outputs,omitempty"`
}

func (e RunSucceeded) GetType() EventType {
	return RunSucceededEvent
}

// RunFailed names the node whose error stopped the run.
type RunFailed struct {
	BaseEvent

	RunID          string         `json:"run_id"`
	DurationMs     int64          `json:"duration_ms"`
	NodeID         string         `json:"node_id"`
	Error          string         `json:"error"`
	PartialOutputs map[string]any `json:"partial_outputs,omitempty"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}

// RunCancelled is emitted when a run stops before completion on request
// or context cancellation.
type RunCancelled struct {
	BaseEvent

	RunID  string `json:"run_id"`
	Reason string `json:"reason"`
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}

// NodeFinished records a single node's completion.
type NodeFinished struct {
	BaseEvent

	RunID        string            `json:"run_id"`
	NodeID       string            `json:"node_id"`
	OperationKey string            `json:"operation_key"`
	Status       models.NodeStatus `json:"status"`
	DurationMs   int64             `json:"duration_ms"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

// NodeFailed records a node error, whether or not the run continued.
type NodeFailed struct {
	BaseEvent

	RunID        string `json:"run_id"`
	NodeID       string `json:"node_id"`
	OperationKey string `json:"operation_key"`
	Error        string `json:"error"`
	Continued    bool   `json:"continued"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}
