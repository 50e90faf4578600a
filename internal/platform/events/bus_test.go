package events

import (
	"context"
	"errors"
	"testing"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	var first, second []Kind
	bus.Subscribe(func(_ context.Context, e Event) error {
		first = append(first, e.Kind)
		return nil
	})
	bus.Subscribe(func(_ context.Context, e Event) error {
		second = append(second, e.Kind)
		return nil
	})

	bus.Publish(context.Background(), Event{Kind: KindAssigned})
	bus.Publish(context.Background(), Event{Kind: KindOverdue})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both subscribers to see 2 events, got %d and %d", len(first), len(second))
	}
}

func TestBusSurvivesFailingSubscriber(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(func(context.Context, Event) error {
		return errors.New("listener down")
	})
	var delivered int
	bus.Subscribe(func(context.Context, Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), Event{Kind: KindSubmitted})
	if delivered != 1 {
		t.Fatalf("failing subscriber must not block delivery, got %d", delivered)
	}
}

func TestBusStampsOccurredAt(t *testing.T) {
	bus := NewBus()
	var got Event
	bus.Subscribe(func(_ context.Context, e Event) error {
		got = e
		return nil
	})
	bus.Publish(context.Background(), Event{Kind: KindDecided})
	if got.OccurredAt.IsZero() {
		t.Fatal("expected OccurredAt to be stamped")
	}
}
