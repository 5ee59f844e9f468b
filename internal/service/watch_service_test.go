package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/gatepass-backend/internal/events"
	"github.com/campushq/gatepass-backend/internal/model"
)

func newWatchFixture(t *testing.T) (*WatchService, *fakePassStore, *events.Memory) {
	t.Helper()
	passes := newFakePassStore()
	bus := events.NewMemory()
	return NewWatchService(passes, bus, zerolog.Nop()), passes, bus
}

func recvSnapshot(t *testing.T, w *Watcher) []model.GatePass {
	t.Helper()
	select {
	case snap, ok := <-w.Snapshots():
		require.True(t, ok, "snapshot stream closed unexpectedly")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func addPass(t *testing.T, passes *fakePassStore, userID uuid.UUID) *model.GatePass {
	t.Helper()
	p := &model.GatePass{
		UserID:        userID,
		Destination:   "Library",
		Reason:        "Books",
		DepartureTime: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		ReturnTime:    time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC),
	}
	require.NoError(t, passes.Create(context.Background(), p))
	return p
}

func TestWatchEmitsInitialSnapshot(t *testing.T) {
	svc, passes, _ := newWatchFixture(t)
	owner := uuid.New()
	addPass(t, passes, owner)

	w, err := svc.Watch(context.Background(), WatchScope{})
	require.NoError(t, err)
	defer w.Close()

	snap := recvSnapshot(t, w)
	assert.Len(t, snap, 1)
}

func TestWatchRefreshesOnEvent(t *testing.T) {
	svc, passes, bus := newWatchFixture(t)
	owner := uuid.New()

	w, err := svc.Watch(context.Background(), WatchScope{})
	require.NoError(t, err)
	defer w.Close()

	assert.Empty(t, recvSnapshot(t, w))

	addPass(t, passes, owner)
	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.EventSubmitted}))

	snap := recvSnapshot(t, w)
	assert.Len(t, snap, 1)
}

func TestWatchCoalescesUndeliveredSnapshots(t *testing.T) {
	svc, passes, bus := newWatchFixture(t)
	owner := uuid.New()

	w, err := svc.Watch(context.Background(), WatchScope{})
	require.NoError(t, err)
	defer w.Close()

	// Leave the initial empty snapshot undelivered while a change lands.
	addPass(t, passes, owner)
	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.EventSubmitted}))

	// Wait for the refresh query, then give the replacement a moment to land.
	require.Eventually(t, func() bool {
		return passes.listCallCount() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	// The first receive must be the newer snapshot, not the stale empty one.
	snap := recvSnapshot(t, w)
	require.Len(t, snap, 1)

	// And the stale snapshot was dropped, not queued behind it.
	select {
	case extra := <-w.Snapshots():
		t.Fatalf("stale snapshot queued behind the fresh one: %d passes", len(extra))
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatchScopesToOwner(t *testing.T) {
	svc, passes, bus := newWatchFixture(t)
	alice := uuid.New()
	bob := uuid.New()
	addPass(t, passes, alice)
	addPass(t, passes, bob)

	w, err := svc.Watch(context.Background(), WatchScope{OwnerID: &alice})
	require.NoError(t, err)
	defer w.Close()

	snap := recvSnapshot(t, w)
	require.Len(t, snap, 1)
	assert.Equal(t, alice, snap[0].UserID)

	addPass(t, passes, bob)
	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.EventSubmitted}))

	snap = recvSnapshot(t, w)
	require.Len(t, snap, 1)
	assert.Equal(t, alice, snap[0].UserID)
}

func TestWatchNoDeliveryAfterClose(t *testing.T) {
	svc, passes, bus := newWatchFixture(t)
	owner := uuid.New()

	w, err := svc.Watch(context.Background(), WatchScope{})
	require.NoError(t, err)
	recvSnapshot(t, w)

	w.Close()

	addPass(t, passes, owner)
	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.EventSubmitted}))

	// The stream must end without another snapshot; closing again is a no-op.
	w.Close()
	for {
		select {
		case snap, ok := <-w.Snapshots():
			if !ok {
				assert.NoError(t, w.Err())
				return
			}
			t.Fatalf("snapshot delivered after close: %d passes", len(snap))
		case <-time.After(2 * time.Second):
			t.Fatal("stream did not end after close")
		}
	}
}

func TestWatchTerminatesOnStoreFailure(t *testing.T) {
	svc, passes, bus := newWatchFixture(t)

	w, err := svc.Watch(context.Background(), WatchScope{})
	require.NoError(t, err)
	defer w.Close()

	recvSnapshot(t, w)

	passes.setListErr(errors.New("store unreachable"))
	require.NoError(t, bus.Publish(context.Background(), events.Event{Type: events.EventSubmitted}))

	select {
	case _, ok := <-w.Snapshots():
		assert.False(t, ok, "expected stream to close on store failure")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate on store failure")
	}
	assert.Error(t, w.Err())
}

func TestWatchInitialQueryFailure(t *testing.T) {
	svc, passes, _ := newWatchFixture(t)
	passes.setListErr(errors.New("store unreachable"))

	w, err := svc.Watch(context.Background(), WatchScope{})
	require.NoError(t, err)
	defer w.Close()

	select {
	case _, ok := <-w.Snapshots():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate")
	}
	assert.Error(t, w.Err())
}
