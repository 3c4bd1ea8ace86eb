// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"storj.io/common/testcontext"
	"storj.io/graphstore/graph/notify"
)

func newRedisClient(t *testing.T) *redis.Client {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisFeed(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	client := newRedisClient(t)
	log := zaptest.NewLogger(t)

	hub := notify.NewHub(log, notify.NewRedisFeed(log, client, "changes"))
	defer ctx.Check(hub.Close)

	sub, err := hub.SubscribeToEntity(ctx, "org1", "gidA")
	require.NoError(t, err)
	defer sub.Close()

	event, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, notify.OperationUpdate, event.Operation)

	err = client.Publish(ctx, "changes", `{"operation":"INSERT","bf_gid":"gidA","bf_oid":"org1"}`).Err()
	require.NoError(t, err)

	event, err = sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, notify.OperationInsert, event.Operation)
	require.Equal(t, "gidA", event.GID)
}

func TestRelay(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	client := newRedisClient(t)
	log := zaptest.NewLogger(t)

	source := &fakeFeed{}
	relay := notify.NewRelay(log.Named("relay"), source, client, "relayed")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	relayed := make(chan error, 1)
	go func() { relayed <- relay.Run(runCtx) }()

	require.Eventually(t, source.running, 5*time.Second, time.Millisecond)

	hub := notify.NewHub(log, notify.NewRedisFeed(log.Named("feed"), client, "relayed"))
	defer ctx.Check(hub.Close)

	sub, err := hub.SubscribeToConnection(ctx, "org1", "project1", "Task")
	require.NoError(t, err)
	defer sub.Close()

	source.send(t, map[string]interface{}{
		"operation": "UPDATE", "bf_gid": "edge1", "bf_oid": "org1",
		"bf_sid": "project1", "bf_t_class_name": "Task", "sort_value": 7,
	})

	event, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, "edge1", event.GID)
	require.NotEmpty(t, event.Cursor)

	cancel()
	require.NoError(t, <-relayed)
	require.True(t, source.closed)
}
