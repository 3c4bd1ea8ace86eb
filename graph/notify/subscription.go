// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package notify

import (
	"context"
	"sync"
)

// Subscription is a stream of events for a single subscriber.
//
// Events are queued without bound, so delivering to one subscriber never
// waits for another.
type Subscription struct {
	unregister func()
	closeOnce  sync.Once
	signal     chan struct{}

	mu     sync.Mutex
	queue  []Event
	closed bool
}

func newSubscription() *Subscription {
	return &Subscription{signal: make(chan struct{}, 1)}
}

// push queues an event, it is a no-op after the subscription is closed.
func (sub *Subscription) push(event Event) {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.queue = append(sub.queue, event)
	sub.mu.Unlock()

	sub.wake()
}

func (sub *Subscription) wake() {
	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

// Recv waits for the next event. Once the subscription is closed it returns
// the events still queued and then ErrClosed.
func (sub *Subscription) Recv(ctx context.Context) (Event, error) {
	for {
		sub.mu.Lock()
		if len(sub.queue) > 0 {
			event := sub.queue[0]
			sub.queue[0] = Event{}
			sub.queue = sub.queue[1:]
			sub.mu.Unlock()
			return event, nil
		}
		closed := sub.closed
		sub.mu.Unlock()

		if closed {
			return Event{}, ErrClosed.New("subscription")
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-sub.signal:
		}
	}
}

// Close removes the subscription from the hub and discards queued events.
// It is safe to call more than once.
func (sub *Subscription) Close() {
	sub.closeOnce.Do(func() {
		if sub.unregister != nil {
			sub.unregister()
		}
	})

	sub.mu.Lock()
	sub.closed = true
	sub.queue = nil
	sub.mu.Unlock()

	sub.wake()
}

// shutdown stops accepting events but keeps the queued ones for Recv.
func (sub *Subscription) shutdown() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()

	sub.wake()
}
