package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/merchflow/merchflow/pkg/graph"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/registry"
	"github.com/merchflow/merchflow/pkg/template"
)

// rawOptionKeys are node options handed to operations verbatim: their
// placeholders are resolved by the operation itself at execute time.
var rawOptionKeys = map[string]struct{}{
	"expression": {},
	"code":       {},
}

// Executor walks a flow graph in topological order, resolving each
// node's options against the accumulated run context before dispatch.
type Executor struct {
	repository *Repository
	registry   *registry.Registry
	eventBus   eventbus.EventPublisher
	logger     *slog.Logger
	workerID   string
}

func NewExecutor(repository *Repository, reg *registry.Registry, bus eventbus.EventPublisher, logger *slog.Logger, workerID string) *Executor {
	return &Executor{
		repository: repository,
		registry:   reg,
		eventBus:   bus,
		logger:     logger.With("module", "flow_executor", "worker_id", workerID),
		workerID:   workerID,
	}
}

// Execute runs the flow to completion and returns its final context.
// The context is returned even on failure so callers can inspect
// partial outputs.
func (e *Executor) Execute(ctx context.Context, flowID string, trigger, input map[string]any) (*models.ExecutionContext, error) {
	executionCtx := models.NewExecutionContext(flowID)

	return executionCtx, e.ExecuteWith(ctx, executionCtx, trigger, input)
}

// ExecuteWith runs the flow into a pre-created execution context, so
// dispatchers can hand out the run id before the run starts.
func (e *Executor) ExecuteWith(ctx context.Context, executionCtx *models.ExecutionContext, trigger, input map[string]any) error {
	logger := e.logger.With("flow_id", executionCtx.FlowID, "run_id", executionCtx.ID)
	startedAt := time.Now()

	flow, err := e.repository.FetchExecutable(ctx, executionCtx.FlowID)
	if err != nil {
		executionCtx.Status = models.RunStatusFailed

		return fmt.Errorf("fetching flow %s: %w", executionCtx.FlowID, err)
	}

	if err := graph.Validate(flow); err != nil {
		executionCtx.Status = models.RunStatusFailed

		return fmt.Errorf("flow %s graph is invalid: %w", flow.ID, err)
	}

	order, err := graph.TopologicalOrder(flow)
	if err != nil {
		executionCtx.Status = models.RunStatusFailed

		return err
	}

	executionCtx.Bind(trigger, input)
	logger.InfoContext(ctx, "Run started", "nodes", len(order))
	e.publish(ctx, flow.ID, events.RunStarted{
		BaseEvent: e.baseEvent(events.RunStartedEvent, flow.ID),
		RunID:     executionCtx.ID,
	})

	trig := flow.TriggerNode()

	// satisfied marks nodes whose downstream may run: the trigger, every
	// successful operation, and conditions that evaluated true.
	satisfied := map[string]bool{trig.ID: true}

	parents := make(map[string][]string)
	for _, edge := range flow.Edges {
		parents[edge.Target] = append(parents[edge.Target], edge.Source)
	}

	executed := 0

	for _, node := range order {
		if ctx.Err() != nil {
			return e.cancel(ctx, flow.ID, executionCtx, logger, ctx.Err())
		}

		if !anySatisfied(parents[node.ID], satisfied) {
			executionCtx.Results = append(executionCtx.Results, models.NodeResult{
				NodeID:       node.ID,
				OperationKey: node.OperationKey,
				Status:       models.NodeStatusSkipped,
			})

			logger.InfoContext(ctx, "Node skipped", "node_id", node.ID)

			continue
		}

		nodeStarted := time.Now()

		output, err := e.executeNode(ctx, node, executionCtx, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return e.cancel(ctx, flow.ID, executionCtx, logger, err)
			}

			executionCtx.Results = append(executionCtx.Results, models.NodeResult{
				NodeID:       node.ID,
				OperationKey: node.OperationKey,
				Status:       models.NodeStatusError,
				Error:        err.Error(),
			})

			continued := node.ContinueOnError()
			e.publish(ctx, flow.ID, events.NodeFailed{
				BaseEvent:    e.baseEvent(events.NodeFailedEvent, flow.ID),
				RunID:        executionCtx.ID,
				NodeID:       node.ID,
				OperationKey: node.OperationKey,
				Error:        err.Error(),
				Continued:    continued,
			})

			if !continued {
				executionCtx.Status = models.RunStatusFailed
				logger.ErrorContext(ctx, "Run failed", "node_id", node.ID, "error", err)
				e.publish(ctx, flow.ID, events.RunFailed{
					BaseEvent:      e.baseEvent(events.RunFailedEvent, flow.ID),
					RunID:          executionCtx.ID,
					DurationMs:     time.Since(startedAt).Milliseconds(),
					NodeID:         node.ID,
					Error:          err.Error(),
					PartialOutputs: executionCtx.Outputs,
				})

				return fmt.Errorf("node %s failed: %w", node.ID, err)
			}

			logger.WarnContext(ctx, "Node failed, run continues", "node_id", node.ID, "error", err)

			satisfied[node.ID] = true
			executed++

			continue
		}

		executed++
		executionCtx.Record(node.OperationKey, output)
		executionCtx.Results = append(executionCtx.Results, models.NodeResult{
			NodeID:       node.ID,
			OperationKey: node.OperationKey,
			Status:       models.NodeStatusSuccess,
			Output:       output,
		})

		satisfied[node.ID] = conditionHolds(node, output)

		e.publish(ctx, flow.ID, events.NodeFinished{
			BaseEvent:    e.baseEvent(events.NodeFinishedEvent, flow.ID),
			RunID:        executionCtx.ID,
			NodeID:       node.ID,
			OperationKey: node.OperationKey,
			Status:       models.NodeStatusSuccess,
			DurationMs:   time.Since(nodeStarted).Milliseconds(),
		})
	}

	executionCtx.Status = models.RunStatusSucceeded
	logger.InfoContext(ctx, "Run succeeded", "nodes_executed", executed, "duration_ms", time.Since(startedAt).Milliseconds())
	e.publish(ctx, flow.ID, events.RunSucceeded{
		BaseEvent:     e.baseEvent(events.RunSucceededEvent, flow.ID),
		RunID:         executionCtx.ID,
		DurationMs:    time.Since(startedAt).Milliseconds(),
		NodesExecuted: executed,
		Outputs:       executionCtx.Outputs,
	})

	return nil
}

func (e *Executor) executeNode(ctx context.Context, node *models.FlowNode, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error) {
	resolved := resolveNodeOptions(node.Options, executionCtx)

	operation, err := e.registry.Create(string(node.OperationType), resolved)
	if err != nil {
		return nil, err
	}

	nodeLogger := logger.With("node_id", node.ID, "operation_key", node.OperationKey)

	return operation.Execute(ctx, executionCtx, nodeLogger)
}

func (e *Executor) cancel(ctx context.Context, flowID string, executionCtx *models.ExecutionContext, logger *slog.Logger, cause error) error {
	executionCtx.Status = models.RunStatusCancelled
	logger.WarnContext(ctx, "Run cancelled", "reason", cause)

	e.publish(context.WithoutCancel(ctx), flowID, events.RunCancelled{
		BaseEvent: e.baseEvent(events.RunCancelledEvent, flowID),
		RunID:     executionCtx.ID,
		Reason:    cause.Error(),
	})

	return cause
}

func (e *Executor) publish(ctx context.Context, flowID string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	if err := e.eventBus.Publish(ctx, flowID, event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func (e *Executor) baseEvent(eventType events.EventType, flowID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, flowID)
	base.WorkerID = e.workerID

	return base
}

// resolveNodeOptions resolves template placeholders in every option
// except the raw keys, which operations interpret themselves.
func resolveNodeOptions(options map[string]any, executionCtx *models.ExecutionContext) map[string]any {
	if options == nil {
		return map[string]any{}
	}

	resolved := make(map[string]any, len(options))

	for key, value := range options {
		if _, raw := rawOptionKeys[key]; raw {
			resolved[key] = value

			continue
		}

		resolved[key] = template.ResolveValue(value, executionCtx)
	}

	return resolved
}

func anySatisfied(parentIDs []string, satisfied map[string]bool) bool {
	for _, id := range parentIDs {
		if satisfied[id] {
			return true
		}
	}

	return false
}

// conditionHolds gates downstream execution on a condition node's
// verdict. Any other node satisfies its children by succeeding.
func conditionHolds(node *models.FlowNode, output any) bool {
	if node.OperationType != models.OperationTypeCondition {
		return true
	}

	if payload, ok := output.(map[string]any); ok {
		if verdict, ok := payload["result"].(bool); ok {
			return verdict
		}
	}

	return false
}
