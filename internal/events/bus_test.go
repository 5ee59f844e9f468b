package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestMemoryBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewMemory()

	a, cancelA, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancelA()
	b, cancelB, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancelB()

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventSubmitted, PassID: "p1"}))

	assert.Equal(t, EventSubmitted, recvEvent(t, a).Type)
	assert.Equal(t, "p1", recvEvent(t, b).PassID)
}

func TestMemoryBusCancelStopsDelivery(t *testing.T) {
	bus := NewMemory()

	ch, cancel, err := bus.Subscribe(context.Background())
	require.NoError(t, err)

	cancel()
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventRemoved}))

	select {
	case ev := <-ch:
		t.Fatalf("event delivered after cancel: %v", ev.Type)
	case <-time.After(100 * time.Millisecond):
	}

	// Cancel is idempotent.
	cancel()
}

func TestMemoryBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewMemory()

	ch, cancel, err := bus.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancel()

	// Overfill the subscriber buffer; publishes must not block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 64; i++ {
			_ = bus.Publish(context.Background(), Event{Type: EventSubmitted})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The subscriber still sees at least one event.
	assert.Equal(t, EventSubmitted, recvEvent(t, ch).Type)
}
