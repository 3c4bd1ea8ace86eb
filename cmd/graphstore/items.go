// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"

	"storj.io/graphstore/graph"
	"storj.io/graphstore/pkg/process"
)

var (
	getCmd = &cobra.Command{
		Use:   "get owner_id id",
		Short: "Print a single item",
		Args:  cobra.ExactArgs(2),
		RunE:  cmdGet,
	}
	putCmd = &cobra.Command{
		Use:   "put owner_id id class_name [props_json]",
		Short: "Insert or update an item",
		Args:  cobra.RangeArgs(3, 4),
		RunE:  cmdPut,
	}
	deleteCmd = &cobra.Command{
		Use:   "delete owner_id id",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(2),
		RunE:  cmdDelete,
	}

	putCfg struct {
		CreatorID       string `help:"id of the creator of the item" default:""`
		SourceID        string `help:"source id, for edges" default:""`
		SourceClassName string `help:"source class name, for edges" default:""`
		TargetID        string `help:"target id, for edges" default:""`
		TargetClassName string `help:"target class name, for edges" default:""`
		SortValue       int64  `help:"sort value, the creation time in milliseconds when zero" default:"0"`
	}
)

func init() {
	addCommand(getCmd)
	addCommand(putCmd)
	addCommand(deleteCmd)

	process.Bind(putCmd, &putCfg)
}

func cmdGet(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	item, err := db.GetItem(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if item == nil {
		return errs.New("item %q not found for owner %q", args[1], args[0])
	}
	return printJSON(cmd.OutOrStdout(), item)
}

func cmdPut(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)

	var props graph.Props
	if len(args) > 3 {
		props, err = parseProps(args[3])
		if err != nil {
			return err
		}
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	err = db.PutItem(ctx, props, graph.Metadata{
		GID:        args[1],
		OID:        args[0],
		CID:        putCfg.CreatorID,
		SID:        putCfg.SourceID,
		SClassName: putCfg.SourceClassName,
		TID:        putCfg.TargetID,
		TClassName: putCfg.TargetClassName,
		ClassName:  args[2],
		SortValue:  putCfg.SortValue,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), args[1])
	return err
}

func cmdDelete(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	return db.DeleteItem(ctx, args[0], args[1])
}

