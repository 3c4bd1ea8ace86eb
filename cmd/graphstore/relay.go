// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/graphstore/graph/notify"
	"storj.io/graphstore/pkg/process"
)

var (
	relayCmd = &cobra.Command{
		Use:   "relay",
		Short: "Publish the database notifications on a redis channel",
		Args:  cobra.NoArgs,
		RunE:  cmdRelay,
	}

	relayCfg struct {
		Redis redisConfig
	}
)

func init() {
	addCommand(relayCmd)
	process.Bind(relayCmd, &relayCfg)
}

func cmdRelay(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := process.Ctx(cmd)
	defer cancel()
	log := zap.L()

	if relayCfg.Redis.Address == "" {
		return errs.New("redis address is required")
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	connstr, channel := db.ConnStr(), db.Channel()
	if err := db.Close(); err != nil {
		return err
	}

	client := relayCfg.Redis.client()
	defer func() { err = errs.Combine(err, client.Close()) }()

	if err := client.Ping(ctx).Err(); err != nil {
		return errs.New("error connecting redis: %+v", err)
	}

	relay := notify.NewRelay(log.Named("relay"), notify.NewPostgresFeed(log.Named("feed"), connstr, channel), client, relayCfg.Redis.Channel)
	log.Info("Relaying notifications", zap.String("from", channel), zap.String("to", relayCfg.Redis.Channel))
	return relay.Run(ctx)
}
