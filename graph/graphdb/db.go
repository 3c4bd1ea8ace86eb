// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package graphdb implements storing nodes and edges in a single postgres table.
package graphdb

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq" // registers the postgres driver.
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/common/memory"
	"storj.io/graphstore/private/dbutil/pgutil"
)

var (
	mon = monkit.Package()

	// Error is the default error class for the package.
	Error = errs.Class("graphdb")
	// ErrConfig is returned when the store is not configured.
	ErrConfig = errs.Class("graphdb config")
	// ErrInvalid is returned for invalid requests.
	ErrInvalid = errs.Class("graphdb invalid request")
)

// Channel is the notification channel the table triggers publish on.
const Channel = "graph_items_changes"

// Config is the configuration for the graph store.
type Config struct {
	DatabaseURL     string      `help:"the postgres connection string of the graph store" default:""`
	ApplicationName string      `help:"application name reported to postgres" default:"graphstore"`
	BatchSize       int         `help:"number of rows fetched per query when scanning" default:"4"`
	MaxSizeBytes    memory.Size `help:"maximum serialized size of a size limited scan" default:"10MiB"`
	SeekCursors     bool        `help:"use pagination cursors as a lower/upper bound instead of rescanning from the start" default:"false"`
}

const (
	defaultBatchSize    = 4
	defaultMaxSizeBytes = 10 * memory.MiB
	defaultPageSize     = 10
)

// DB is a connection pool to the graph store.
type DB struct {
	*Store

	pool    *sql.DB
	connstr string
}

// Open opens a connection pool to the graph store.
func Open(ctx context.Context, log *zap.Logger, config Config) (_ *DB, err error) {
	defer mon.Task()(&ctx)(&err)

	if config.DatabaseURL == "" {
		return nil, ErrConfig.New("database url is not set")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaultBatchSize
	}
	if config.MaxSizeBytes <= 0 {
		config.MaxSizeBytes = defaultMaxSizeBytes
	}

	connstr, err := pgutil.CheckApplicationName(config.DatabaseURL, config.ApplicationName)
	if err != nil {
		return nil, ErrConfig.Wrap(err)
	}

	pool, err := sql.Open("postgres", connstr)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := pool.PingContext(ctx); err != nil {
		return nil, errs.Combine(Error.Wrap(err), pool.Close())
	}

	log.Debug("Connected")

	return &DB{
		Store:   newStore(log, pool, config),
		pool:    pool,
		connstr: connstr,
	}, nil
}

// ConnStr returns the connection string the pool was opened with.
func (db *DB) ConnStr() string { return db.connstr }

// Channel returns the notification channel of the table.
func (db *DB) Channel() string { return Channel }

// Close closes the connection pool.
func (db *DB) Close() error {
	return Error.Wrap(db.pool.Close())
}

// querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store implements the item operations on top of a pool, a single connection or a transaction.
type Store struct {
	log    *zap.Logger
	db     querier
	config Config
}

func newStore(log *zap.Logger, db querier, config Config) *Store {
	return &Store{log: log, db: db, config: config}
}
