// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storj.io/graphstore/graph/graphdb"
	"storj.io/graphstore/graph/notify"
	"storj.io/graphstore/pkg/process"
)

var (
	watchCmd = &cobra.Command{
		Use:   "watch owner_id",
		Short: "Print the changes of entities and connections of an owner",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdWatch,
	}

	watchCfg struct {
		Entities    []string `help:"ids of the entities to watch" default:""`
		Connections []string `help:"connections to watch as source_id:target_class_name" default:""`
		Redis       redisConfig
	}
)

type redisConfig struct {
	Address string `help:"address of the redis server relaying notifications, the database is listened on directly when empty" default:""`
	Channel string `help:"redis channel of the relayed notifications" default:"graph_items_changes"`
}

func (config *redisConfig) client() *redis.Client {
	return redis.NewClient(&redis.Options{Addr: config.Address})
}

func init() {
	addCommand(watchCmd)
	process.Bind(watchCmd, &watchCfg)
}

func cmdWatch(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()
	log := zap.L()
	owner := args[0]

	if len(watchCfg.Entities) == 0 && len(watchCfg.Connections) == 0 {
		return errs.New("nothing to watch, use --entities or --connections")
	}

	var feed notify.Feed
	if watchCfg.Redis.Address != "" {
		client := watchCfg.Redis.client()
		defer func() { err = errs.Combine(err, client.Close()) }()
		feed = notify.NewRedisFeed(log.Named("feed"), client, watchCfg.Redis.Channel)
	} else {
		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		connstr := db.ConnStr()
		if err := db.Close(); err != nil {
			return err
		}
		feed = notify.NewPostgresFeed(log.Named("feed"), connstr, graphdb.Channel)
	}

	hub := notify.NewHub(log.Named("notify"), feed)
	defer func() { err = errs.Combine(err, hub.Close()) }()

	var subs []*notify.Subscription
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	for _, entity := range watchCfg.Entities {
		sub, err := hub.SubscribeToEntity(ctx, owner, entity)
		if err != nil {
			return err
		}
		subs = append(subs, sub)
	}
	for _, connection := range watchCfg.Connections {
		source, targetClass, ok := strings.Cut(connection, ":")
		if !ok || source == "" || targetClass == "" {
			return errs.New("invalid connection %q, expected source_id:target_class_name", connection)
		}
		sub, err := hub.SubscribeToConnection(ctx, owner, source, targetClass)
		if err != nil {
			return err
		}
		subs = append(subs, sub)
	}

	var mu sync.Mutex
	out := cmd.OutOrStdout()

	group, ctx := errgroup.WithContext(ctx)
	for _, sub := range subs {
		sub := sub
		group.Go(func() error {
			for {
				event, err := sub.Recv(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) || notify.ErrClosed.Has(err) {
						return nil
					}
					return err
				}

				mu.Lock()
				err = printJSON(out, event)
				mu.Unlock()
				if err != nil {
					return err
				}
			}
		})
	}
	return group.Wait()
}
