// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package notify

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Feed is a source of trigger payloads.
type Feed interface {
	// Start subscribes to the source and calls handle for every payload from
	// a single goroutine until the feed is closed.
	Start(ctx context.Context, handle func(payload []byte)) error
	// Close stops the feed and waits for handle to return.
	Close() error
}

const (
	minReconnectInterval = 100 * time.Millisecond
	maxReconnectInterval = 30 * time.Second
)

// PostgresFeed listens on a postgres notification channel.
//
// The listener reconnects after losing its connection. Notifications sent
// while disconnected are lost.
type PostgresFeed struct {
	log     *zap.Logger
	connstr string
	channel string

	listener *pq.Listener
	done     chan struct{}
}

var _ Feed = (*PostgresFeed)(nil)

// NewPostgresFeed returns a feed for channel of the database at connstr.
func NewPostgresFeed(log *zap.Logger, connstr, channel string) *PostgresFeed {
	return &PostgresFeed{
		log:     log,
		connstr: connstr,
		channel: channel,
	}
}

// Start connects and issues LISTEN.
func (feed *PostgresFeed) Start(ctx context.Context, handle func(payload []byte)) (err error) {
	defer mon.Task()(&ctx)(&err)

	listener := pq.NewListener(feed.connstr, minReconnectInterval, maxReconnectInterval, feed.event)

	// Listen waits for the connection, which is retried forever.
	listening := make(chan error, 1)
	go func() { listening <- listener.Listen(feed.channel) }()

	select {
	case err = <-listening:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		return errs.Combine(Error.Wrap(err), Error.Wrap(listener.Close()))
	}

	feed.listener = listener
	feed.done = make(chan struct{})
	go feed.run(handle)

	feed.log.Info("Listening", zap.String("channel", feed.channel))
	return nil
}

func (feed *PostgresFeed) run(handle func(payload []byte)) {
	defer close(feed.done)

	for notification := range feed.listener.Notify {
		if notification == nil {
			mon.Event("postgres_feed_reconnected")
			feed.log.Warn("Reconnected, notifications sent while disconnected were lost", zap.String("channel", feed.channel))
			continue
		}
		handle([]byte(notification.Extra))
	}
}

func (feed *PostgresFeed) event(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventConnected:
		feed.log.Debug("Connected", zap.String("channel", feed.channel))
	case pq.ListenerEventDisconnected:
		feed.log.Warn("Disconnected", zap.String("channel", feed.channel), zap.Error(err))
	case pq.ListenerEventReconnected:
		feed.log.Info("Reconnected", zap.String("channel", feed.channel))
	case pq.ListenerEventConnectionAttemptFailed:
		feed.log.Warn("Connection attempt failed", zap.String("channel", feed.channel), zap.Error(err))
	}
}

// Close closes the listener.
func (feed *PostgresFeed) Close() error {
	if feed.listener == nil {
		return nil
	}
	err := feed.listener.Close()
	<-feed.done
	feed.listener = nil
	return Error.Wrap(err)
}
