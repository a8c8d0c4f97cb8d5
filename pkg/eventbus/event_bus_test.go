package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/merchflow/merchflow/pkg/channels/gochannel"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe_RoundTrip(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer bus.Close()

	received := make(chan *events.FlowTriggered, 1)

	err = bus.Handle(events.FlowTriggeredEvent, func(_ context.Context, event any) error {
		triggered, ok := event.(*events.FlowTriggered)
		require.True(t, ok)

		received <- triggered

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	triggered := events.FlowTriggered{
		BaseEvent:     events.NewBaseEvent(events.FlowTriggeredEvent, "flow-1"),
		TriggerSource: "webhook",
		TriggerData:   map[string]any{"order_id": "ord_1"},
	}

	require.NoError(t, bus.Publish(ctx, "flow-1", triggered))

	select {
	case event := <-received:
		assert.Equal(t, "flow-1", event.FlowID)
		assert.Equal(t, "webhook", event.TriggerSource)
		assert.Equal(t, "ord_1", event.TriggerData["order_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSubscribe_IgnoresUnhandledTypes(t *testing.T) {
	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := NewWatermillEventBus(pub, sub)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// no handler registered for run events; publish must not block or panic
	started := events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, "flow-1"),
		RunID:     "run-1",
	}

	require.NoError(t, bus.Publish(ctx, "flow-1", started))
}
