// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"

	"storj.io/graphstore/graph/graphdb"
	"storj.io/graphstore/pkg/process"
)

var (
	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Print the items matching the filters",
		Args:  cobra.NoArgs,
		RunE:  cmdQuery,
	}
	countCmd = &cobra.Command{
		Use:   "count",
		Short: "Print the number of items matching the filters",
		Args:  cobra.NoArgs,
		RunE:  cmdCount,
	}
	connectionCmd = &cobra.Command{
		Use:   "connection",
		Short: "Print a page of the items matching the filters",
		Args:  cobra.NoArgs,
		RunE:  cmdConnection,
	}

	queryFilter      filterFlags
	countFilter      filterFlags
	connectionFilter filterFlags

	queryCfg struct {
		OrderBy   string `help:"metadata field to order by" default:"sortValue"`
		Direction string `help:"order direction, asc or desc" default:"asc"`
	}

	connectionCfg struct {
		First  int    `help:"page size when paging forward, unused when negative" default:"-1"`
		After  string `help:"cursor to page forward from" default:""`
		Last   int    `help:"page size when paging backward, unused when negative" default:"-1"`
		Before string `help:"cursor to page backward from" default:""`
	}
)

func init() {
	addCommand(queryCmd)
	addCommand(countCmd)
	addCommand(connectionCmd)

	queryFilter.bind(queryCmd.Flags())
	countFilter.bind(countCmd.Flags())
	connectionFilter.bind(connectionCmd.Flags())

	process.Bind(queryCmd, &queryCfg)
	process.Bind(connectionCmd, &connectionCfg)
}

func cmdQuery(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)

	metadata, props, err := queryFilter.filters()
	if err != nil {
		return err
	}
	direction, err := graphdb.ParseDirection(queryCfg.Direction)
	if err != nil {
		return err
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	items, err := db.QueryItems(ctx, metadata, props, queryFilter.ids, direction, queryCfg.OrderBy)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), items)
}

func cmdCount(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)

	metadata, props, err := countFilter.filters()
	if err != nil {
		return err
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	count, err := db.CountItems(ctx, metadata, props, countFilter.ids)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
	return err
}

func cmdConnection(cmd *cobra.Command, args []string) (err error) {
	ctx, _ := process.Ctx(cmd)

	metadata, props, err := connectionFilter.filters()
	if err != nil {
		return err
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errs.Combine(err, db.Close()) }()

	conn, err := db.QueryItemsForConnection(ctx, metadata, props, connectionArgs(), connectionFilter.ids)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), conn)
}

func connectionArgs() graphdb.ConnectionArgs {
	args := graphdb.ConnectionArgs{
		After:  connectionCfg.After,
		Before: connectionCfg.Before,
	}
	if connectionCfg.First >= 0 {
		first := connectionCfg.First
		args.First = &first
	}
	if connectionCfg.Last >= 0 {
		last := connectionCfg.Last
		args.Last = &last
	}
	return args
}
