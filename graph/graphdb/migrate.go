// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrationsTable is the table golang-migrate keeps the schema version in.
const MigrationsTable = "graph_schema_migrations"

// MigrateToLatest migrates the database to the latest version.
func (db *DB) MigrateToLatest(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return Error.Wrap(err)
	}

	// the postgres driver holds on to a connection and closes its pool when done,
	// so it gets a pool of its own.
	pool, err := sql.Open("postgres", db.connstr)
	if err != nil {
		return errs.Combine(Error.Wrap(err), source.Close())
	}

	driver, err := postgres.WithInstance(pool, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return errs.Combine(Error.Wrap(err), source.Close(), pool.Close())
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return errs.Combine(Error.Wrap(err), source.Close(), driver.Close())
	}
	defer func() {
		sourceErr, databaseErr := m.Close()
		err = errs.Combine(err, Error.Wrap(sourceErr), Error.Wrap(databaseErr))
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		db.log.Debug("Schema is up to date")
		return nil
	}
	if err != nil {
		return Error.Wrap(err)
	}

	version, _, err := m.Version()
	if err != nil {
		return Error.Wrap(err)
	}
	db.log.Info("Migrated schema", zap.Uint("version", version))
	return nil
}
