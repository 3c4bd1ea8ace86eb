// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/graphstore/graph/graphdb"
	"storj.io/graphstore/pkg/process"
)

var (
	rootCmd = &cobra.Command{
		Use:   "graphstore",
		Short: "Graph store on postgres",
	}

	storeCfg graphdb.Config
)

func openDB(ctx context.Context) (*graphdb.DB, error) {
	db, err := graphdb.Open(ctx, zap.L().Named("graphdb"), storeCfg)
	if err != nil {
		return nil, errs.New("error connecting database: %+v", err)
	}
	return db, nil
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// addCommand adds cmd to the root, with the store configuration bound to its flags.
func addCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
	process.Bind(cmd, &storeCfg)
}

func main() {
	process.Exec(rootCmd)
}
