package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
)

// EventType names the kind of change that happened to the pass collection.
type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventDecided   EventType = "decided"
	EventRemoved   EventType = "removed"
	EventPurged    EventType = "purged"
)

// Event notifies watchers that the gate-pass collection changed. Watchers
// re-query the store for a full snapshot, so the event only needs to say
// that something changed, not what the new state is.
type Event struct {
	Type   EventType `json:"type"`
	PassID string    `json:"pass_id,omitempty"`
}

// Bus is the abstraction over change-notification backends.
type Bus interface {
	// Publish broadcasts an event to all current subscribers.
	Publish(ctx context.Context, ev Event) error
	// Subscribe returns a channel of events and a cancel function. After
	// cancel returns, no further events are delivered on the channel.
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}

// ─── In-memory implementation ───────────────────────────────────────

// Memory is a channel-backed bus for single-process use and tests.
type Memory struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewMemory creates an in-memory bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[chan Event]struct{})}
}

// Publish delivers the event to every subscriber. Slow subscribers drop
// events rather than blocking the publisher; watchers re-query anyway on
// the next event they do receive.
func (b *Memory) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber channel.
func (b *Memory) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	ch := make(chan Event, 16)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
		})
	}
	return ch, cancel, nil
}

// ─── Redis Pub/Sub implementation ───────────────────────────────────

// Redis broadcasts events over a Redis Pub/Sub channel so watchers on any
// server instance observe writes made through any other instance.
type Redis struct {
	rdb     *redis.Client
	channel string
}

// NewRedis creates a Redis-backed bus on the given channel.
func NewRedis(rdb *redis.Client, channel string) *Redis {
	return &Redis{rdb: rdb, channel: channel}
}

// Publish marshals and publishes the event.
func (b *Redis) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Subscribe opens a Pub/Sub subscription and adapts it to the Bus contract.
func (b *Redis) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 16)
	done := make(chan struct{})

	go func() {
		defer close(out)
		src := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			pubsub.Close()
		})
	}
	return out, cancel, nil
}
