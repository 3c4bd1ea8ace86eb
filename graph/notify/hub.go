// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package notify delivers row change notifications of the graph store to
// subscribers of single entities and of connections.
package notify

import (
	"context"
	"sync"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

var (
	mon = monkit.Package()

	// Error is the error class of this package.
	Error = errs.Class("notify")
	// ErrClosed is returned when receiving from a closed subscription or
	// subscribing to a closed hub.
	ErrClosed = errs.Class("notify closed")
)

type subscribers map[*Subscription]struct{}

// Hub fans out the events of a feed to subscribers.
type Hub struct {
	log  *zap.Logger
	feed Feed

	startMu sync.Mutex
	started bool

	mu          sync.Mutex
	closed      bool
	models      map[string]map[string]subscribers
	connections map[string]map[string]map[string]subscribers
}

// Stats are the number of live subscriptions of a hub.
type Stats struct {
	Models      int
	Connections int
}

// NewHub returns a hub for the feed. The feed is started with the first subscription.
func NewHub(log *zap.Logger, feed Feed) *Hub {
	return &Hub{
		log:         log,
		feed:        feed,
		models:      map[string]map[string]subscribers{},
		connections: map[string]map[string]map[string]subscribers{},
	}
}

// start starts the feed once. A failed start is retried by the next call.
func (hub *Hub) start(ctx context.Context) (err error) {
	hub.startMu.Lock()
	defer hub.startMu.Unlock()

	if hub.started {
		return nil
	}

	hub.mu.Lock()
	closed := hub.closed
	hub.mu.Unlock()
	if closed {
		return ErrClosed.New("hub")
	}

	if err := hub.feed.Start(ctx, hub.dispatch); err != nil {
		hub.log.Error("Failed to start feed", zap.Error(err))
		return Error.Wrap(err)
	}
	hub.started = true
	hub.log.Debug("Feed started")
	return nil
}

// SubscribeToEntity subscribes to the changes of a single entity. The first
// event of the subscription is a synthetic update, so that the subscriber
// loads the current state.
func (hub *Hub) SubscribeToEntity(ctx context.Context, ownerID, entityID string) (_ *Subscription, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := hub.start(ctx); err != nil {
		return nil, err
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return nil, ErrClosed.New("hub")
	}

	sub := newSubscription()
	sub.unregister = func() { hub.removeModel(ownerID, entityID, sub) }

	entities, ok := hub.models[ownerID]
	if !ok {
		entities = map[string]subscribers{}
		hub.models[ownerID] = entities
	}
	subs, ok := entities[entityID]
	if !ok {
		subs = subscribers{}
		entities[entityID] = subs
	}
	subs[sub] = struct{}{}

	sub.push(Event{Operation: OperationUpdate, GID: entityID, OID: ownerID})
	return sub, nil
}

// SubscribeToConnection subscribes to the changes of the edges leaving
// sourceID towards items of targetClass.
func (hub *Hub) SubscribeToConnection(ctx context.Context, ownerID, sourceID, targetClass string) (_ *Subscription, err error) {
	defer mon.Task()(&ctx)(&err)

	if err := hub.start(ctx); err != nil {
		return nil, err
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()
	if hub.closed {
		return nil, ErrClosed.New("hub")
	}

	sub := newSubscription()
	sub.unregister = func() { hub.removeConnection(ownerID, sourceID, targetClass, sub) }

	sources, ok := hub.connections[ownerID]
	if !ok {
		sources = map[string]map[string]subscribers{}
		hub.connections[ownerID] = sources
	}
	classes, ok := sources[sourceID]
	if !ok {
		classes = map[string]subscribers{}
		sources[sourceID] = classes
	}
	subs, ok := classes[targetClass]
	if !ok {
		subs = subscribers{}
		classes[targetClass] = subs
	}
	subs[sub] = struct{}{}

	return sub, nil
}

func (hub *Hub) removeModel(ownerID, entityID string, sub *Subscription) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	entities := hub.models[ownerID]
	subs := entities[entityID]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(entities, entityID)
	}
	if len(entities) == 0 {
		delete(hub.models, ownerID)
	}
}

func (hub *Hub) removeConnection(ownerID, sourceID, targetClass string, sub *Subscription) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	sources := hub.connections[ownerID]
	classes := sources[sourceID]
	subs := classes[targetClass]
	delete(subs, sub)
	if len(subs) == 0 {
		delete(classes, targetClass)
	}
	if len(classes) == 0 {
		delete(sources, sourceID)
	}
	if len(sources) == 0 {
		delete(hub.connections, ownerID)
	}
}

// dispatch routes a trigger payload to the matching subscribers.
func (hub *Hub) dispatch(payload []byte) {
	event, err := parseEvent(payload)
	if err != nil {
		mon.Counter("notify_malformed").Inc(1)
		hub.log.Warn("Malformed notification", zap.ByteString("payload", payload), zap.Error(err))
		return
	}

	hub.mu.Lock()
	defer hub.mu.Unlock()

	var subs subscribers
	if event.IsConnectionEvent() {
		subs = hub.connections[event.OID][event.SID][event.TClassName]
	} else {
		subs = hub.models[event.OID][event.GID]
	}

	if len(subs) == 0 {
		mon.Counter("notify_dropped").Inc(1)
		return
	}
	for sub := range subs {
		sub.push(event)
	}
	mon.Counter("notify_dispatched").Inc(int64(len(subs)))
}

// Stats returns the number of live subscriptions.
func (hub *Hub) Stats() Stats {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	var stats Stats
	for _, entities := range hub.models {
		for _, subs := range entities {
			stats.Models += len(subs)
		}
	}
	for _, sources := range hub.connections {
		for _, classes := range sources {
			for _, subs := range classes {
				stats.Connections += len(subs)
			}
		}
	}
	return stats
}

// Close stops the feed and closes every subscription. Events already queued
// can still be received.
func (hub *Hub) Close() error {
	hub.mu.Lock()
	if hub.closed {
		hub.mu.Unlock()
		return nil
	}
	hub.closed = true

	var live []*Subscription
	for _, entities := range hub.models {
		for _, subs := range entities {
			for sub := range subs {
				live = append(live, sub)
			}
		}
	}
	for _, sources := range hub.connections {
		for _, classes := range sources {
			for _, subs := range classes {
				for sub := range subs {
					live = append(live, sub)
				}
			}
		}
	}
	hub.models = map[string]map[string]subscribers{}
	hub.connections = map[string]map[string]map[string]subscribers{}
	hub.mu.Unlock()

	for _, sub := range live {
		sub.shutdown()
	}

	hub.startMu.Lock()
	defer hub.startMu.Unlock()
	if !hub.started {
		return nil
	}
	hub.started = false
	return Error.Wrap(hub.feed.Close())
}
