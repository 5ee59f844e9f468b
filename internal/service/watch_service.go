package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campushq/gatepass-backend/internal/events"
	"github.com/campushq/gatepass-backend/internal/model"
)

// WatchScope selects which passes a watcher observes. A nil OwnerID means
// the unscoped admin view; otherwise only the owner's passes are projected.
type WatchScope struct {
	OwnerID *uuid.UUID
}

// Watcher is a live projection of a pass query: every emission on Snapshots
// is the complete, ordered result set at that moment, never a diff. The
// stream ends when Close is called or the underlying store/bus fails; in the
// failure case Err reports the cause after the channel closes.
type Watcher struct {
	snapshots chan []model.GatePass
	done      chan struct{}
	cancel    func()

	mu     sync.Mutex
	closed bool
	err    error
}

// Snapshots returns the stream of full result-set snapshots.
func (w *Watcher) Snapshots() <-chan []model.GatePass {
	return w.snapshots
}

// Err returns the terminal stream error, if any. Valid once Snapshots closes.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close cancels the subscription. It is idempotent, and once it returns no
// further snapshot is delivered.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.done)
	// Drop any undelivered snapshot so nothing arrives after unsubscribe.
	select {
	case <-w.snapshots:
	default:
	}
	w.mu.Unlock()
	w.cancel()
}

// offer delivers a snapshot without blocking the event loop: if the consumer
// has not taken the previous snapshot yet, the newer one replaces it.
func (w *Watcher) offer(snap []model.GatePass) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.snapshots <- snap:
	default:
		select {
		case <-w.snapshots:
		default:
		}
		w.snapshots <- snap
	}
}

func (w *Watcher) fail(err error) {
	w.mu.Lock()
	if !w.closed {
		w.err = err
	}
	w.mu.Unlock()
}

// WatchService projects live query results: it re-queries the pass store on
// every change event and hands the consumer full ordered snapshots.
type WatchService struct {
	passes PassStore
	bus    events.Bus
	log    zerolog.Logger
}

// NewWatchService creates a new WatchService.
func NewWatchService(passes PassStore, bus events.Bus, log zerolog.Logger) *WatchService {
	return &WatchService{
		passes: passes,
		bus:    bus,
		log:    log.With().Str("component", "watch_service").Logger(),
	}
}

// Watch subscribes to change events and returns a Watcher that emits an
// initial snapshot immediately and a fresh one after every store change.
func (s *WatchService) Watch(ctx context.Context, scope WatchScope) (*Watcher, error) {
	evs, cancel, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		snapshots: make(chan []model.GatePass, 1),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	go s.run(ctx, w, scope, evs)
	return w, nil
}

func (s *WatchService) query(ctx context.Context, scope WatchScope) ([]model.GatePass, error) {
	if scope.OwnerID != nil {
		return s.passes.ListByUser(ctx, *scope.OwnerID)
	}
	return s.passes.ListAll(ctx)
}

func (s *WatchService) run(ctx context.Context, w *Watcher, scope WatchScope, evs <-chan events.Event) {
	defer func() {
		w.cancel()
		close(w.snapshots)
	}()

	snap, err := s.query(ctx, scope)
	if err != nil {
		s.log.Error().Err(err).Msg("Initial snapshot query failed")
		w.fail(err)
		return
	}
	w.offer(snap)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case _, ok := <-evs:
			if !ok {
				return
			}
			snap, err := s.query(ctx, scope)
			if err != nil {
				s.log.Error().Err(err).Msg("Snapshot refresh failed, terminating stream")
				w.fail(err)
				return
			}
			w.offer(snap)
		}
	}
}
