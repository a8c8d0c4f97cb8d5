package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/merchflow/merchflow/pkg/cmd"
	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/otelhelper"
	"github.com/merchflow/merchflow/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WorkerManager consumes flow trigger events and runs them through the
// flow executor.
type WorkerManager struct {
	id       string
	logger   *slog.Logger
	executor *flow.Executor
	eventBus eventbus.EventBus
	tracer   trace.Tracer
}

func NewWorkerManager(
	id string,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
	services *cmd.Services,
) *WorkerManager {
	repository := flow.NewRepository(store)
	executor := flow.NewExecutor(repository, services.Registry, eventBus, logger, id)
	services.Runner.Bind(executor)

	return &WorkerManager{
		id:       id,
		logger:   logger.With("module", "merchflow-worker", "worker_id", id),
		executor: executor,
		eventBus: eventBus,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	tracer, err := otelhelper.NewTracer(ctx, "merchflow-worker")
	if err != nil {
		w.logger.WarnContext(ctx, "Tracing disabled", "error", err)
	} else {
		w.tracer = tracer
	}

	if err := w.eventBus.Handle(events.FlowTriggeredEvent, w.handleFlowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleFlowTriggered(ctx context.Context, event any) error {
	triggered, ok := event.(*events.FlowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for FlowTriggered")

		return nil
	}

	logger := w.logger.With(
		"flow_id", triggered.FlowID,
		"trigger_source", triggered.TriggerSource,
		"event_id", triggered.ID,
	)
	logger.InfoContext(ctx, "Processing flow triggered event")

	if w.tracer != nil {
		var span trace.Span

		ctx, span = otelhelper.StartSpan(ctx, w.tracer, "flow.run",
			attribute.String(otelhelper.FlowIDKey, triggered.FlowID),
			attribute.String(otelhelper.TriggerSourceKey, triggered.TriggerSource),
			attribute.String(otelhelper.WorkerIDKey, w.id),
			attribute.String(otelhelper.EventIDKey, triggered.ID),
		)
		defer span.End()
	}

	executionCtx, err := w.executor.Execute(ctx, triggered.FlowID, triggered.TriggerData, triggered.Input)
	if err != nil {
		logger.ErrorContext(ctx, "Flow run failed", "error", err)

		if w.tracer != nil {
			span := trace.SpanFromContext(ctx)
			otelhelper.SetError(span, err,
				attribute.String(otelhelper.FlowIDKey, triggered.FlowID))
		}

		// run outcome events are already published by the executor; the
		// message itself is handled
		return nil
	}

	logger.InfoContext(ctx, "Flow run finished",
		"run_id", executionCtx.ID,
		"status", executionCtx.Status,
	)

	return nil
}
