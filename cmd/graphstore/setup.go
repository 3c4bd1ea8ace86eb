// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/graphstore/pkg/process"
)

var (
	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Migrate the database to the latest schema and save the configuration",
		Args:  cobra.NoArgs,
		RunE:  cmdSetup,
	}

	setupCfg struct {
		SaveConfig bool `help:"save the given flags to the config file" default:"true"`
	}
)

func init() {
	addCommand(setupCmd)
	process.Bind(setupCmd, &setupCfg)
}

func cmdSetup(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)
	log := zap.L()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	if err := db.MigrateToLatest(ctx); err != nil {
		return errs.New("error migrating database: %+v", err)
	}

	configFile := cmd.Flag("config").Value.String()
	if !setupCfg.SaveConfig || configFile == "" {
		return nil
	}
	if err := process.SaveConfig(cmd, configFile, nil); err != nil {
		return errs.New("error saving config: %+v", err)
	}
	log.Info("Saved configuration", zap.String("path", configFile))
	return nil
}
