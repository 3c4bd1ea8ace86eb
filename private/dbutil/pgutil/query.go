// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package pgutil

import (
	"context"
	"database/sql"

	"github.com/zeebo/errs"
)

// Column describes a column of a table in the current schema.
type Column struct {
	Name       string
	Type       string
	IsNullable bool
}

// QueryColumns loads the columns of table from the current schema.
func QueryColumns(ctx context.Context, db *sql.DB, table string) (_ map[string]Column, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, is_nullable, data_type
		FROM  information_schema.columns
		WHERE table_schema = CURRENT_SCHEMA
		  AND table_name = $1
	`, table)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	columns := map[string]Column{}
	for rows.Next() {
		var column Column
		var isNullable string
		if err := rows.Scan(&column.Name, &isNullable, &column.Type); err != nil {
			return nil, Error.Wrap(err)
		}
		column.IsNullable = isNullable == "YES"
		columns[column.Name] = column
	}
	return columns, Error.Wrap(rows.Err())
}
