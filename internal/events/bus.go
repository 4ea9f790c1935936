// Package events is the reduced broadcast channel spec.md §9 calls for:
// a small in-memory topic/handler pub/sub, used by internal/engine's active
// scan to fan out its lifecycle notifications. It replaces the teacher's
// general multi-plugin event bus, since this repo has one engine rather
// than a plugin host.
package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Topic identifies a broadcast channel.
type Topic string

const (
	TopicScanStarted   Topic = "scan.started"
	TopicScanProgress  Topic = "scan.progress"
	TopicScanCompleted Topic = "scan.completed"
)

// Event is one message published on a topic.
type Event struct {
	Topic   Topic
	Payload any
}

// Handler processes a published Event.
type Handler func(ctx context.Context, event Event)

// Bus is an in-memory, synchronous-publish pub/sub keyed by Topic.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]handlerEntry
	nextID   uint64
	logger   *zap.Logger
}

type handlerEntry struct {
	id      uint64
	handler Handler
}

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{handlers: make(map[Topic][]handlerEntry), logger: logger}
}

// Publish dispatches event synchronously to every handler subscribed to
// event.Topic. A panicking handler is recovered and logged so it cannot
// take down the publisher.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	entries := make([]handlerEntry, len(b.handlers[event.Topic]))
	copy(entries, b.handlers[event.Topic])
	b.mu.RUnlock()

	for _, e := range entries {
		b.safeCall(ctx, e.handler, event)
	}
}

// Subscribe registers handler for topic. Call the returned function to
// unsubscribe.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[topic] = append(b.handlers[topic], handlerEntry{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		entries := b.handlers[topic]
		for i, e := range entries {
			if e.id == id {
				b.handlers[topic] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) safeCall(ctx context.Context, handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panicked", zap.String("topic", string(event.Topic)), zap.Any("panic", r))
		}
	}()
	handler(ctx, event)
}
