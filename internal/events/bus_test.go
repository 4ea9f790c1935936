package events

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestBus_publishDeliversToSubscriber(t *testing.T) {
	bus := NewBus(zap.NewNop())
	received := make(chan Event, 1)

	bus.Subscribe(TopicScanStarted, func(_ context.Context, e Event) {
		received <- e
	})

	bus.Publish(context.Background(), Event{Topic: TopicScanStarted, Payload: "192.168.1.0/24"})

	select {
	case e := <-received:
		if e.Payload != "192.168.1.0/24" {
			t.Errorf("payload = %v, want 192.168.1.0/24", e.Payload)
		}
	default:
		t.Fatal("handler was not called")
	}
}

func TestBus_publishOnlyReachesMatchingTopic(t *testing.T) {
	bus := NewBus(zap.NewNop())
	calls := 0

	bus.Subscribe(TopicScanCompleted, func(context.Context, Event) { calls++ })
	bus.Publish(context.Background(), Event{Topic: TopicScanStarted})

	if calls != 0 {
		t.Errorf("calls = %d, want 0 for a non-matching topic", calls)
	}
}

func TestBus_unsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(zap.NewNop())
	calls := 0

	unsubscribe := bus.Subscribe(TopicScanProgress, func(context.Context, Event) { calls++ })
	bus.Publish(context.Background(), Event{Topic: TopicScanProgress})
	unsubscribe()
	bus.Publish(context.Background(), Event{Topic: TopicScanProgress})

	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second publish after unsubscribe should not be delivered)", calls)
	}
}

func TestBus_panickingHandlerIsRecovered(t *testing.T) {
	bus := NewBus(zap.NewNop())
	bus.Subscribe(TopicScanStarted, func(context.Context, Event) {
		panic("boom")
	})

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Publish should recover from a panicking handler, got: %v", r)
		}
	}()
	bus.Publish(context.Background(), Event{Topic: TopicScanStarted})
}

func TestBus_multipleSubscribersAllReceive(t *testing.T) {
	bus := NewBus(zap.NewNop())
	var a, b int

	bus.Subscribe(TopicScanCompleted, func(context.Context, Event) { a++ })
	bus.Subscribe(TopicScanCompleted, func(context.Context, Event) { b++ })
	bus.Publish(context.Background(), Event{Topic: TopicScanCompleted})

	if a != 1 || b != 1 {
		t.Errorf("a=%d b=%d, want both 1", a, b)
	}
}
