// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package pgutil_test

import (
	"database/sql"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"storj.io/common/testcontext"
	"storj.io/graphstore/private/dbutil/pgutil"
	"storj.io/graphstore/private/dbutil/pgutil/pgtest"
)

func TestTempPostgresDB(t *testing.T) {
	connstr := pgtest.PickPostgres(t)

	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	prefix := "name#spaced/Test/DB"
	testDB, err := pgutil.OpenUnique(ctx, connstr, prefix)
	require.NoError(t, err)

	// assert new test db exists and can be connected to again
	otherConn, err := sql.Open("postgres", testDB.ConnStr)
	require.NoError(t, err)
	defer ctx.Check(otherConn.Close)

	var name *string
	row := otherConn.QueryRowContext(ctx, `SELECT current_schema()`)
	err = row.Scan(&name)
	require.NoErrorf(t, err, "connStr=%q", testDB.ConnStr)
	require.NotNilf(t, name, "PG has no current_schema, which means the one we asked for doesn't exist. connStr=%q", testDB.ConnStr)
	require.Truef(t, strings.HasPrefix(*name, prefix), "Expected prefix of %q for current db name, but found %q", prefix, *name)

	_, err = testDB.DB.ExecContext(ctx, `CREATE TABLE example (id TEXT PRIMARY KEY, note TEXT)`)
	require.NoError(t, err)

	columns, err := pgutil.QueryColumns(ctx, testDB.DB, "example")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	require.False(t, columns["id"].IsNullable)
	require.True(t, columns["note"].IsNullable)

	_, err = testDB.DB.ExecContext(ctx, `INSERT INTO example (id) VALUES ('a'), ('a')`)
	require.Error(t, err)
	require.True(t, pgutil.IsConstraintError(err))

	err = testDB.Close()
	require.NoError(t, err)

	var count int
	row = otherConn.QueryRowContext(ctx, `SELECT COUNT(*) FROM pg_namespace WHERE nspname = $1`, testDB.Schema)
	err = row.Scan(&count)
	require.NoError(t, err)
	require.Equalf(t, 0, count, "Expected 0 schemas with matching name, but counted %d (deletion failure?)", count)
}
