package events

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestBroker_FanOut(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe()
	c := b.Subscribe()
	defer b.Unsubscribe(a)
	defer b.Unsubscribe(c)

	b.Publish(Event{Type: TypeInfo, Message: "one"})
	b.Publish(Event{Type: TypeDone, Message: "two"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, sub := range []*Subscriber{a, c} {
		ev, ok := sub.Next(ctx)
		if !ok || ev.Message != "one" {
			t.Fatalf("first event = %+v ok=%v, want message one", ev, ok)
		}
		ev, ok = sub.Next(ctx)
		if !ok || ev.Message != "two" {
			t.Fatalf("second event = %+v ok=%v, want message two", ev, ok)
		}
	}
}

func TestBroker_PreservesOrder(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	const n = 100
	for i := 0; i < n; i++ {
		b.Publish(Event{Type: TypeInfo, Message: fmt.Sprintf("%d", i)})
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < n; i++ {
		ev, ok := sub.Next(ctx)
		if !ok {
			t.Fatalf("stream ended at event %d", i)
		}
		if ev.Message != fmt.Sprintf("%d", i) {
			t.Fatalf("event %d has message %q, out of order", i, ev.Message)
		}
	}
}

func TestBroker_StampsTime(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	b.Publish(Event{Type: TypeInfo, Message: "x"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, ok := sub.Next(ctx)
	if !ok {
		t.Fatal("expected event")
	}
	if ev.Time.IsZero() {
		t.Error("Publish must stamp a zero Time")
	}
}

func TestBroker_PublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	b := NewBroker()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			b.Publish(Event{Type: TypeInfo, Message: "noop"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without subscribers")
	}
}

func TestSubscriber_NextAfterUnsubscribe(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	b.Unsubscribe(sub)

	_, ok := sub.Next(context.Background())
	if ok {
		t.Error("Next() after Unsubscribe must report a closed stream")
	}
}

func TestSubscriber_NextHonorsContext(t *testing.T) {
	b := NewBroker()
	sub := b.Subscribe()
	defer b.Unsubscribe(sub)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := sub.Next(ctx)
	if ok {
		t.Error("Next() must fail when the context ends with no event")
	}
	if time.Since(start) > time.Second {
		t.Error("Next() did not return promptly on context end")
	}
}

func TestBroker_LateSubscriberMissesEarlierEvents(t *testing.T) {
	b := NewBroker()
	b.Publish(Event{Type: TypeInfo, Message: "before"})

	sub := b.Subscribe()
	defer b.Unsubscribe(sub)
	b.Publish(Event{Type: TypeInfo, Message: "after"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, ok := sub.Next(ctx)
	if !ok || ev.Message != "after" {
		t.Errorf("late subscriber got %+v, want only the event published after attach", ev)
	}
}
