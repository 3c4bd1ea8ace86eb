// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb

import (
	"context"
	"database/sql"

	"github.com/zeebo/errs"

	"storj.io/graphstore/private/dbutil/txutil"
)

// Session is a store bound to a single connection, so that transaction
// statements apply to the operations that follow them.
type Session struct {
	*Store

	conn *sql.Conn
}

// Session reserves a connection from the pool.
func (db *DB) Session(ctx context.Context) (_ *Session, err error) {
	defer mon.Task()(&ctx)(&err)

	conn, err := db.pool.Conn(ctx)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return &Session{
		Store: newStore(db.log.Named("session"), conn, db.config),
		conn:  conn,
	}, nil
}

// TransactionBegin starts a transaction.
func (session *Session) TransactionBegin(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	return session.exec(ctx, "BEGIN")
}

// TransactionCommit commits the current transaction.
func (session *Session) TransactionCommit(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	return session.exec(ctx, "COMMIT")
}

// TransactionRollback rolls back the current transaction.
func (session *Session) TransactionRollback(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	return session.exec(ctx, "ROLLBACK")
}

func (session *Session) exec(ctx context.Context, statement string) error {
	_, err := session.conn.ExecContext(ctx, statement)
	return Error.Wrap(err)
}

// Close returns the connection to the pool. An open transaction is rolled
// back first; outside of a transaction the rollback is a no-op.
func (session *Session) Close() error {
	_, rollbackErr := session.conn.ExecContext(context.Background(), "ROLLBACK")
	return Error.Wrap(errs.Combine(rollbackErr, session.conn.Close()))
}

// WithTx runs fn in a transaction, which is committed when fn returns nil and
// rolled back otherwise. fn is retried on serialization failures and must not
// have side effects outside of the store.
func (db *DB) WithTx(ctx context.Context, fn func(ctx context.Context, store *Store) error) (err error) {
	defer mon.Task()(&ctx)(&err)

	return txutil.WithTx(ctx, db.pool, nil, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, newStore(db.log.Named("tx"), tx, db.config))
	})
}
