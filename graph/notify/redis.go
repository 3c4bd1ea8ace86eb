// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package notify

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// RedisFeed receives payloads published on a redis channel, usually by a Relay.
type RedisFeed struct {
	log     *zap.Logger
	client  *redis.Client
	channel string

	pubsub *redis.PubSub
	done   chan struct{}
}

var _ Feed = (*RedisFeed)(nil)

// NewRedisFeed returns a feed for channel.
func NewRedisFeed(log *zap.Logger, client *redis.Client, channel string) *RedisFeed {
	return &RedisFeed{
		log:     log,
		client:  client,
		channel: channel,
	}
}

// Start subscribes to the channel and waits for the confirmation.
func (feed *RedisFeed) Start(ctx context.Context, handle func(payload []byte)) (err error) {
	defer mon.Task()(&ctx)(&err)

	pubsub := feed.client.Subscribe(ctx, feed.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return errs.Combine(Error.Wrap(err), Error.Wrap(pubsub.Close()))
	}

	feed.pubsub = pubsub
	feed.done = make(chan struct{})
	messages := pubsub.Channel()
	go func() {
		defer close(feed.done)
		for message := range messages {
			handle([]byte(message.Payload))
		}
	}()

	feed.log.Info("Subscribed", zap.String("channel", feed.channel))
	return nil
}

// Close unsubscribes.
func (feed *RedisFeed) Close() error {
	if feed.pubsub == nil {
		return nil
	}
	err := feed.pubsub.Close()
	<-feed.done
	feed.pubsub = nil
	return Error.Wrap(err)
}

// Relay publishes the payloads of a feed on a redis channel, so that many
// processes share a single listening session.
type Relay struct {
	log     *zap.Logger
	source  Feed
	client  *redis.Client
	channel string
}

// NewRelay returns a relay from source to channel.
func NewRelay(log *zap.Logger, source Feed, client *redis.Client, channel string) *Relay {
	return &Relay{
		log:     log,
		source:  source,
		client:  client,
		channel: channel,
	}
}

// Run relays payloads until ctx is canceled.
func (relay *Relay) Run(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	publish := context.WithoutCancel(ctx)
	err = relay.source.Start(ctx, func(payload []byte) {
		if err := relay.client.Publish(publish, relay.channel, payload).Err(); err != nil {
			mon.Counter("relay_publish_failed").Inc(1)
			relay.log.Error("Failed to publish", zap.String("channel", relay.channel), zap.Error(err))
			return
		}
		mon.Counter("relay_published").Inc(1)
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	return Error.Wrap(relay.source.Close())
}
