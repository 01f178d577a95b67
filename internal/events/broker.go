// Package events provides a fan-out publish/subscribe broker for run
// progress events. Each subscriber gets its own queue, so every subscriber
// sees the full event sequence from the moment it attaches and a slow
// consumer never blocks the producer or its peers.
package events

import (
	"context"
	"sync"
	"time"
)

// Event types published during an upgrade run.
const (
	TypeInfo  = "info"
	TypeError = "error"
	TypeDone  = "done"
)

// Event is one progress message from an upgrade run.
type Event struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	RunID   string    `json:"runId,omitempty"`
	Target  string    `json:"target,omitempty"`
	Time    time.Time `json:"time"`
}

// Broker fans events out to any number of subscribers.
type Broker struct {
	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// Subscriber receives events published after it attached. Queues are
// unbounded; lag accumulates on the subscriber, not the producer.
type Subscriber struct {
	broker *Broker

	mu      sync.Mutex
	pending []Event
	closed  bool
	notify  chan struct{}
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscriber]struct{})}
}

// Publish delivers e to every current subscriber. It never blocks.
func (b *Broker) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.push(e)
	}
}

// Subscribe attaches a new subscriber. The caller must Unsubscribe when done.
func (b *Broker) Subscribe() *Subscriber {
	s := &Subscriber{
		broker: b,
		notify: make(chan struct{}, 1),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Unsubscribe detaches s and wakes any pending Next call.
func (b *Broker) Unsubscribe(s *Subscriber) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wake()
}

func (s *Subscriber) push(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, e)
	s.mu.Unlock()
	s.wake()
}

func (s *Subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the subscriber is closed, or the
// context ends. The second return is false once no more events will arrive.
func (s *Subscriber) Next(ctx context.Context) (Event, bool) {
	for {
		s.mu.Lock()
		if len(s.pending) > 0 {
			e := s.pending[0]
			s.pending = s.pending[1:]
			s.mu.Unlock()
			return e, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, false
		}

		select {
		case <-ctx.Done():
			return Event{}, false
		case <-s.notify:
		}
	}
}
