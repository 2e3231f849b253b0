// Package events carries invalidation notices between views and services.
// Publishers announce that a collection changed; subscribers decide what to
// re-fetch.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Topic names what changed.
type Topic int

const (
	TransactionsChanged Topic = iota + 1
	AccountsChanged
)

func (t Topic) String() string {
	switch t {
	case TransactionsChanged:
		return "transactions_changed"
	case AccountsChanged:
		return "accounts_changed"
	default:
		return "unknown"
	}
}

// Action is the mutation behind an event.
type Action string

const (
	ActionCreated Action = "created"
	ActionDeleted Action = "deleted"
	// ActionUpdated marks derived changes, such as balances moved by a
	// transaction.
	ActionUpdated Action = "updated"
)

// Event is delivered to every subscriber of its topic.
type Event struct {
	Topic  Topic
	Action Action
	ID     string
	At     time.Time
}

// Handler receives events. Handlers run on the publisher's goroutine.
type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous publish/subscribe hub, safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers h for topic and returns a function that removes it.
// Calling the returned function more than once is a no-op.
func (b *Bus) Subscribe(topic Topic, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[topic]
	for i, s := range list {
		if s.id == id {
			next := make([]subscription, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			b.subs[topic] = next
			return
		}
	}
}

// Publish delivers ev to the subscribers registered at call time, in
// subscription order. Handlers may subscribe or publish re-entrantly.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.mu.RLock()
	list := b.subs[ev.Topic]
	b.mu.RUnlock()

	slog.DebugContext(ctx, "Publishing event",
		"topic", ev.Topic.String(),
		"action", string(ev.Action),
		"id", ev.ID,
		"subscribers", len(list))

	for _, s := range list {
		s.handler(ctx, ev)
	}
}

// Len reports the number of subscribers for a topic.
func (b *Bus) Len(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
