// Package scheduler fires flow trigger events for published flows that
// carry a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/robfig/cron/v3"
)

const defaultRefreshInterval = time.Minute

type entry struct {
	id   cron.EntryID
	spec string
}

// Scheduler keeps one cron entry per published flow with a schedule and
// publishes a FlowTriggered event each time an entry fires. Flow
// definitions are re-read periodically so edits take effect without a
// restart.
type Scheduler struct {
	repository *flow.Repository
	bus        eventbus.EventPublisher
	logger     *slog.Logger
	cron       *cron.Cron

	mu      sync.Mutex
	entries map[string]entry
	refresh time.Duration
}

func NewScheduler(repository *flow.Repository, bus eventbus.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		repository: repository,
		bus:        bus,
		logger:     logger.With("module", "scheduler"),
		cron:       cron.New(),
		entries:    make(map[string]entry),
		refresh:    defaultRefreshInterval,
	}
}

// Start performs an initial sync, starts the cron runner, and keeps the
// entry set in sync until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.sync(ctx); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "flows", len(s.entries))

	go s.refreshLoop(ctx)

	return nil
}

// Stop halts the cron runner and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()

			return
		case <-ticker.C:
			if err := s.sync(ctx); err != nil {
				s.logger.Error("scheduler sync failed", "error", err)
			}
		}
	}
}

// sync reconciles cron entries against the current flow definitions:
// published flows with a schedule gain an entry, everything else loses
// theirs.
func (s *Scheduler) sync(ctx context.Context) error {
	flows, err := s.repository.All(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]string)

	for _, f := range flows {
		if f.Status == models.FlowStatusPublished && f.Schedule != "" {
			wanted[f.ID] = f.Schedule
		}
	}

	for flowID, existing := range s.entries {
		if spec, keep := wanted[flowID]; !keep || spec != existing.spec {
			s.cron.Remove(existing.id)
			delete(s.entries, flowID)
			s.logger.Info("schedule removed", "flow_id", flowID)
		}
	}

	for flowID, spec := range wanted {
		if _, ok := s.entries[flowID]; ok {
			continue
		}

		id, err := s.cron.AddFunc(spec, func() { s.fire(ctx, flowID, spec) })
		if err != nil {
			s.logger.Warn("invalid cron expression, flow skipped",
				"flow_id", flowID, "schedule", spec, "error", err)

			continue
		}

		s.entries[flowID] = entry{id: id, spec: spec}
		s.logger.Info("schedule registered", "flow_id", flowID, "schedule", spec)
	}

	return nil
}

func (s *Scheduler) fire(ctx context.Context, flowID, spec string) {
	event := events.FlowTriggered{
		BaseEvent:     events.NewBaseEvent(events.FlowTriggeredEvent, flowID),
		TriggerSource: "schedule",
		TriggerData: map[string]any{
			"schedule":     spec,
			"scheduled_at": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.bus.Publish(ctx, flowID, event); err != nil {
		s.logger.Error("failed to publish schedule trigger",
			"flow_id", flowID, "error", err)

		return
	}

	s.logger.Info("schedule fired", "flow_id", flowID)
}
