package scheduler

import (
	"context"
	"log/slog"
	"testing"

	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	published []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return nil
}

func savedFlow(t *testing.T, repository *flow.Repository, status models.FlowStatus, schedule string) *models.Flow {
	t.Helper()

	stored := &models.Flow{
		Name:     "Scheduled Flow",
		Status:   status,
		Schedule: schedule,
		Nodes: []*models.FlowNode{
			{ID: "start", Type: models.NodeTypeTrigger},
			{
				ID:            "say",
				Type:          models.NodeTypeOperation,
				OperationType: models.OperationTypeLog,
				OperationKey:  "say",
				Options:       map[string]any{"message": "tick"},
			},
		},
		Edges: []*models.Edge{{ID: "e1", Source: "start", Target: "say"}},
	}
	require.NoError(t, repository.Save(context.Background(), stored))

	return stored
}

func TestSync_RegistersOnlyPublishedScheduledFlows(t *testing.T) {
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	repository := flow.NewRepository(store)
	scheduled := savedFlow(t, repository, models.FlowStatusPublished, "@hourly")
	savedFlow(t, repository, models.FlowStatusDraft, "@hourly")
	savedFlow(t, repository, models.FlowStatusPublished, "")

	s := NewScheduler(repository, &capturePublisher{}, slog.Default())
	require.NoError(t, s.sync(context.Background()))

	require.Len(t, s.entries, 1)
	assert.Contains(t, s.entries, scheduled.ID)
}

func TestSync_RemovesUnpublishedFlows(t *testing.T) {
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	repository := flow.NewRepository(store)
	scheduled := savedFlow(t, repository, models.FlowStatusPublished, "@daily")

	s := NewScheduler(repository, &capturePublisher{}, slog.Default())
	require.NoError(t, s.sync(context.Background()))
	require.Len(t, s.entries, 1)

	scheduled.Status = models.FlowStatusDraft
	require.NoError(t, repository.Save(context.Background(), scheduled))

	require.NoError(t, s.sync(context.Background()))
	assert.Empty(t, s.entries)
}

func TestSync_ReplacesChangedSchedule(t *testing.T) {
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	repository := flow.NewRepository(store)
	scheduled := savedFlow(t, repository, models.FlowStatusPublished, "@hourly")

	s := NewScheduler(repository, &capturePublisher{}, slog.Default())
	require.NoError(t, s.sync(context.Background()))
	first := s.entries[scheduled.ID]

	scheduled.Schedule = "@daily"
	require.NoError(t, repository.Save(context.Background(), scheduled))

	require.NoError(t, s.sync(context.Background()))
	require.Contains(t, s.entries, scheduled.ID)
	assert.Equal(t, "@daily", s.entries[scheduled.ID].spec)
	assert.NotEqual(t, first.id, s.entries[scheduled.ID].id)
}

func TestSync_SkipsInvalidCronExpression(t *testing.T) {
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	repository := flow.NewRepository(store)
	savedFlow(t, repository, models.FlowStatusPublished, "not a cron spec")

	s := NewScheduler(repository, &capturePublisher{}, slog.Default())
	require.NoError(t, s.sync(context.Background()))

	assert.Empty(t, s.entries)
}

func TestFire_PublishesFlowTriggered(t *testing.T) {
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	repository := flow.NewRepository(store)
	bus := &capturePublisher{}

	s := NewScheduler(repository, bus, slog.Default())
	s.fire(context.Background(), "flow-abc", "@hourly")

	require.Len(t, bus.published, 1)

	triggered, ok := bus.published[0].(events.FlowTriggered)
	require.True(t, ok)
	assert.Equal(t, "flow-abc", triggered.FlowID)
	assert.Equal(t, "schedule", triggered.TriggerSource)
	assert.Equal(t, "@hourly", triggered.TriggerData["schedule"])
}
