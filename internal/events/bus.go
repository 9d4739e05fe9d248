// Package events carries timeline input events between the terminal layer and
// the timeline surface. Publishing is synchronous: handlers run on the
// publisher's goroutine, in subscription order, before Publish returns.
package events

import (
	"log/slog"
	"sync"
	"time"
)

// BusEvent is anything that can be published on an EventBus.
type BusEvent interface {
	EventType() string
}

// BaseEvent holds the fields shared by every event.
type BaseEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// EventType returns the event's type key.
func (e BaseEvent) EventType() string { return e.Type }

func newBase(eventType string) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: time.Now().UTC()}
}

// Handler receives published events.
type Handler func(BusEvent)

// UnsubscribeFunc removes a subscription. Calling it more than once is safe.
type UnsubscribeFunc func()

type subscription struct {
	id      uint64
	handler Handler
}

// EventBus is a synchronous publish/subscribe hub keyed by event type.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	all      []subscription
	nextID   uint64
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[string][]subscription)}
}

// Subscribe registers handler for events of the given type.
func (b *EventBus) Subscribe(eventType string, handler Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})
	return func() { b.remove(eventType, id) }
}

// SubscribeAll registers handler for every event.
func (b *EventBus) SubscribeAll(handler Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: handler})
	return func() { b.remove("", id) }
}

// Publish delivers ev to its type subscribers and then to catch-all
// subscribers. Handlers may subscribe or unsubscribe while being called.
func (b *EventBus) Publish(ev BusEvent) {
	if ev == nil {
		return
	}
	b.mu.RLock()
	typed := b.handlers[ev.EventType()]
	subs := make([]subscription, 0, len(typed)+len(b.all))
	subs = append(subs, typed...)
	subs = append(subs, b.all...)
	b.mu.RUnlock()

	if len(subs) == 0 {
		slog.Default().Debug("event has no subscribers", "event_type", ev.EventType())
		return
	}
	for _, s := range subs {
		s.handler(ev)
	}
}

// SubscriberCount returns the number of handlers for eventType, not counting
// catch-all subscribers.
func (b *EventBus) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

func (b *EventBus) remove(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if eventType == "" {
		b.all = without(b.all, id)
		return
	}
	b.handlers[eventType] = without(b.handlers[eventType], id)
	if len(b.handlers[eventType]) == 0 {
		delete(b.handlers, eventType)
	}
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
