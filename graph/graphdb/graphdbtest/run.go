// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package graphdbtest runs tests against a migrated graph store in a temporary schema.
package graphdbtest

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"storj.io/common/testcontext"
	"storj.io/graphstore/graph/graphdb"
	"storj.io/graphstore/private/dbutil/pgutil"
	"storj.io/graphstore/private/dbutil/pgutil/pgtest"
)

// Run runs fn against a fresh graph store with the default configuration.
func Run(t *testing.T, fn func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB)) {
	RunWithConfig(t, graphdb.Config{}, fn)
}

// RunWithConfig runs fn against a fresh graph store. The database url of
// config is replaced with a temporary schema on the test database.
func RunWithConfig(t *testing.T, config graphdb.Config, fn func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB)) {
	connstr := pgtest.PickPostgres(t)

	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	tempDB, err := pgutil.OpenUnique(ctx, connstr, "graphdb")
	if err != nil {
		t.Fatalf("init: %+v", err)
	}
	defer ctx.Check(tempDB.Close)

	config.DatabaseURL = tempDB.ConnStr
	if config.ApplicationName == "" {
		config.ApplicationName = "graphstore-test"
	}

	db, err := graphdb.Open(ctx, zaptest.NewLogger(t), config)
	if err != nil {
		t.Fatalf("open: %+v", err)
	}
	defer ctx.Check(db.Close)

	if err := db.MigrateToLatest(ctx); err != nil {
		t.Fatalf("migrate: %+v", err)
	}

	fn(ctx, t, db)
}
