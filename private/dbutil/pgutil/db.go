// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package pgutil contains utilities for working with postgres connections.
package pgutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var mon = monkit.Package()

// Error is the error class for the package.
var Error = errs.Class("pgutil")

// TempDatabase is a database living in its own schema, which is dropped on Close.
type TempDatabase struct {
	DB      *sql.DB
	ConnStr string
	Schema  string
}

// Close drops the schema and closes the connection.
func (db *TempDatabase) Close() error {
	dropErr := DropSchema(context.Background(), db.DB, db.Schema)
	return errs.Combine(dropErr, db.DB.Close())
}

// OpenUnique opens a postgres database with a temporary unique schema, which will be cleaned up
// when closed.
func OpenUnique(ctx context.Context, connstr string, schemaPrefix string) (_ *TempDatabase, err error) {
	defer mon.Task()(&ctx)(&err)

	schemaName := schemaPrefix + "-" + CreateRandomTestingSchemaName(8)
	connStrWithSchema, err := ConnstrWithSchema(connstr, schemaName)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", connStrWithSchema)
	if err == nil {
		// check that connection actually worked before trying CreateSchema, to make
		// troubleshooting (lots) easier
		err = db.PingContext(ctx)
	}
	if err != nil {
		return nil, Error.New("failed to connect to %q with driver postgres: %v", connStrWithSchema, err)
	}

	if err := CreateSchema(ctx, db, schemaName); err != nil {
		return nil, errs.Combine(err, db.Close())
	}

	return &TempDatabase{
		DB:      db,
		ConnStr: connStrWithSchema,
		Schema:  schemaName,
	}, nil
}

// CreateRandomTestingSchemaName creates a random schema name string.
func CreateRandomTestingSchemaName(n int) string {
	data := make([]byte, n)
	_, _ = rand.Read(data)
	return hex.EncodeToString(data)
}

// ConnstrWithSchema adds the schema to the search path of a connection string.
func ConnstrWithSchema(connstr, schema string) (string, error) {
	if !strings.Contains(connstr, "://") {
		return connstr + " search_path=" + quoteValue(pq.QuoteIdentifier(schema)), nil
	}
	u, err := url.Parse(connstr)
	if err != nil {
		return "", Error.Wrap(err)
	}
	query := u.Query()
	query.Set("search_path", pq.QuoteIdentifier(schema))
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// CreateSchema creates the schema if it does not exist.
func CreateSchema(ctx context.Context, db *sql.DB, schema string) (err error) {
	_, err = db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(schema))
	return Error.Wrap(err)
}

// DropSchema drops the schema and everything in it.
func DropSchema(ctx context.Context, db *sql.DB, schema string) (err error) {
	_, err = db.ExecContext(ctx, `DROP SCHEMA `+pq.QuoteIdentifier(schema)+` CASCADE`)
	return Error.Wrap(err)
}

// CheckApplicationName ensures that the connection string contains an application name.
func CheckApplicationName(connstr, app string) (string, error) {
	if app == "" || strings.Contains(connstr, "application_name") {
		return connstr, nil
	}
	if !strings.Contains(connstr, "://") {
		return connstr + " application_name=" + quoteValue(app), nil
	}
	u, err := url.Parse(connstr)
	if err != nil {
		return "", Error.Wrap(err)
	}
	query := u.Query()
	query.Set("application_name", app)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// ErrorCode returns the postgres error code of the first *pq.Error in the chain.
func ErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	code := ErrorCode(err)
	return len(code) == 5 && code[:2] == "23"
}

// quoteValue quotes a value of a key=value connection string.
func quoteValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}
