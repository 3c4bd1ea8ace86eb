// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"
	"go.uber.org/zap/zaptest"

	"storj.io/common/memory"
	"storj.io/common/testcontext"
	"storj.io/graphstore/graph"
	"storj.io/graphstore/graph/graphdb"
	"storj.io/graphstore/graph/graphdb/graphdbtest"
	"storj.io/graphstore/private/dbutil/pgutil"
)

func intp(v int) *int { return &v }

func putTasks(ctx context.Context, t *testing.T, db *graphdb.DB, owner string, n int) []graph.Metadata {
	var all []graph.Metadata
	for i := 1; i <= n; i++ {
		metadata := graph.Metadata{
			GID:       fmt.Sprintf("%s-task%d", owner, i),
			OID:       owner,
			ClassName: "Task",
			SortValue: int64(100 * i),
		}
		status := "done"
		if i%3 == 0 {
			status = "active"
		}
		require.NoError(t, db.PutItem(ctx, graph.Props{"status": status, "index": i}, metadata))
		all = append(all, metadata)
	}
	return all
}

func TestOpenWithoutDatabaseURL(t *testing.T) {
	_, err := graphdb.Open(context.Background(), zaptest.NewLogger(t), graphdb.Config{})
	require.Error(t, err)
	require.True(t, graphdb.ErrConfig.Has(err))
}

func TestMigration(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		// migrating again is a no-op
		require.NoError(t, db.MigrateToLatest(ctx))

		pool, err := sql.Open("postgres", db.ConnStr())
		require.NoError(t, err)
		defer ctx.Check(pool.Close)

		columns, err := pgutil.QueryColumns(ctx, pool, graph.Table)
		require.NoError(t, err)
		require.Len(t, columns, 12)
		for _, field := range graph.Fields() {
			column, ok := graph.Column(field)
			require.True(t, ok)
			require.Contains(t, columns, column)
		}
		require.Equal(t, "jsonb", columns["props"].Type)
		require.True(t, columns["bf_sid"].IsNullable)
		require.False(t, columns["bf_oid"].IsNullable)
	})
}

func TestPutGetDelete(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		item, err := db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.Nil(t, item)

		err = db.PutItem(ctx, graph.Props{"name": "alpha"}, graph.Metadata{
			GID: "gidA", OID: "org1", CID: "user1", ClassName: "Project",
		})
		require.NoError(t, err)

		item, err = db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.NotNil(t, item)
		require.Equal(t, "alpha", item.Props["name"])
		require.Equal(t, "user1", item.Metadata.CID)
		require.Equal(t, item.Metadata.CreatedAt.UnixMilli(), item.Metadata.SortValue)

		// owner scoped
		item, err = db.GetItem(ctx, "org2", "gidA")
		require.NoError(t, err)
		require.Nil(t, item)

		item, err = db.GetItemByGlobalID(ctx, "gidA", "")
		require.NoError(t, err)
		require.NotNil(t, item)

		item, err = db.GetItemByGlobalID(ctx, "gidA", "Task")
		require.NoError(t, err)
		require.Nil(t, item)

		require.NoError(t, db.DeleteItem(ctx, "org1", "gidA"))
		item, err = db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.Nil(t, item)

		// deleting again is fine
		require.NoError(t, db.DeleteItem(ctx, "org1", "gidA"))
	})
}

func TestPutInvalid(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		for _, metadata := range []graph.Metadata{
			{OID: "org1", ClassName: "Task"},
			{GID: "a", ClassName: "Task"},
			{GID: "a", OID: "org1"},
		} {
			err := db.PutItem(ctx, nil, metadata)
			require.True(t, graphdb.ErrInvalid.Has(err), err)
		}
	})
}

func TestPutPreservesSortValue(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		created := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
		err := db.PutItem(ctx, graph.Props{"v": 1}, graph.Metadata{
			GID: "gidA", OID: "org1", ClassName: "Task", CreatedAt: created, SortValue: 1000,
		})
		require.NoError(t, err)

		first, err := db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)

		err = db.PutItem(ctx, graph.Props{"v": 2}, graph.Metadata{
			GID: "gidA", OID: "org1", ClassName: "Task", SortValue: 5000,
		})
		require.NoError(t, err)

		second, err := db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.EqualValues(t, 2, second.Props["v"])
		require.Equal(t, int64(1000), second.Metadata.SortValue)
		require.True(t, created.Equal(second.Metadata.CreatedAt))
		require.False(t, second.Metadata.LastUpdated.Before(first.Metadata.LastUpdated))
	})
}

func TestPutDefaultsSortValue(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		created := time.Now().Add(-time.Minute).Truncate(time.Millisecond)

		// zero is unset and becomes the creation time
		require.NoError(t, db.PutItem(ctx, nil, graph.Metadata{
			GID: "zero", OID: "org1", ClassName: "Task", CreatedAt: created, SortValue: 0,
		}))
		require.NoError(t, db.PutItem(ctx, nil, graph.Metadata{
			GID: "negative", OID: "org1", ClassName: "Task", CreatedAt: created, SortValue: -1,
		}))

		item, err := db.GetItem(ctx, "org1", "zero")
		require.NoError(t, err)
		require.Equal(t, created.UnixMilli(), item.Metadata.SortValue)

		item, err = db.GetItem(ctx, "org1", "negative")
		require.NoError(t, err)
		require.Equal(t, int64(-1), item.Metadata.SortValue)
	})
}

func TestQueryItems(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		tasks := putTasks(ctx, t, db, "org1", 10)
		putTasks(ctx, t, db, "org2", 4)

		items, err := db.QueryItems(ctx, graph.Filter{graph.FieldOID: "org1"}, graph.Filter{"status": "active"}, nil, graphdb.Ascending, "")
		require.NoError(t, err)
		require.Len(t, items, 3)
		for _, item := range items {
			require.Equal(t, "active", item.Props["status"])
		}

		items, err = db.QueryItems(ctx, graph.Filter{graph.FieldOID: "org1"}, graph.Filter{"index": 7}, nil, graphdb.Ascending, "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, tasks[6].GID, items[0].Metadata.GID)

		items, err = db.QueryItems(ctx, graph.Filter{graph.FieldOID: "org1"}, nil, nil, graphdb.Descending, graph.FieldSortValue)
		require.NoError(t, err)
		require.Len(t, items, 10)
		require.Equal(t, tasks[9].GID, items[0].Metadata.GID)
		require.Equal(t, tasks[0].GID, items[9].Metadata.GID)

		// unknown filter keys are dropped, the rest still applies
		items, err = db.QueryItems(ctx, graph.Filter{graph.FieldOID: "org2", "noSuchColumn": "x"}, nil, nil, graphdb.Ascending, "noSuchColumn")
		require.NoError(t, err)
		require.Len(t, items, 4)

		items, err = db.QueryItems(ctx, nil, nil, []string{tasks[1].GID, tasks[4].GID, "missing"}, graphdb.Ascending, "")
		require.NoError(t, err)
		require.Len(t, items, 2)

		items, err = db.GetItemsByGlobalIDs(ctx, []string{tasks[0].GID, tasks[1].GID, "org2-task1", "org2-task2", "org2-task3"}, "Task")
		require.NoError(t, err)
		require.Len(t, items, 5)

		items, err = db.GetItemsByGlobalIDs(ctx, []string{tasks[0].GID}, "Project")
		require.NoError(t, err)
		require.Empty(t, items)

		items, err = db.GetItemsByGlobalIDs(ctx, nil, "")
		require.NoError(t, err)
		require.Empty(t, items)

		count, err := db.CountItems(ctx, graph.Filter{graph.FieldClassName: "Task"}, nil, nil)
		require.NoError(t, err)
		require.Equal(t, int64(14), count)
	})
}

func TestQueryItemsLargeNumbers(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		require.NoError(t, db.PutItem(ctx, graph.Props{"createdMs": int64(1700000000000), "budget": 1000000}, graph.Metadata{
			GID: "gidA", OID: "org1", ClassName: "Task",
		}))
		require.NoError(t, db.PutItem(ctx, graph.Props{"createdMs": int64(1700000000001), "budget": 5}, graph.Metadata{
			GID: "gidB", OID: "org1", ClassName: "Task",
		}))

		// filter with values as they come back from the database
		item, err := db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.NotNil(t, item)
		require.IsType(t, float64(0), item.Props["createdMs"])

		for _, props := range []graph.Filter{
			{"createdMs": item.Props["createdMs"]},
			{"budget": item.Props["budget"]},
			{"createdMs": float64(1.7e12), "budget": float64(1e6)},
		} {
			items, err := db.QueryItems(ctx, graph.Filter{graph.FieldOID: "org1"}, props, nil, graphdb.Ascending, "")
			require.NoError(t, err)
			require.Len(t, items, 1, props)
			require.Equal(t, "gidA", items[0].Metadata.GID)
		}
	})
}

func TestQueryItemsManyIDs(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		tasks := putTasks(ctx, t, db, "org1", 3)

		ids := make([]string, 70000)
		for i := range ids {
			ids[i] = fmt.Sprintf("missing%d", i)
		}
		ids[100] = tasks[0].GID
		ids[69999] = tasks[2].GID

		items, err := db.QueryItems(ctx, nil, nil, ids, graphdb.Ascending, "")
		require.NoError(t, err)
		require.Len(t, items, 2)

		count, err := db.CountItems(ctx, nil, nil, ids)
		require.NoError(t, err)
		require.Equal(t, int64(2), count)
	})
}

func TestQueryItemsSizeLimit(t *testing.T) {
	graphdbtest.RunWithConfig(t, graphdb.Config{MaxSizeBytes: memory.KiB}, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		putTasks(ctx, t, db, "org1", 20)

		items, err := db.QueryItems(ctx, graph.Filter{graph.FieldOID: "org1"}, nil, nil, graphdb.Ascending, "")
		require.NoError(t, err)
		require.NotEmpty(t, items)
		require.Less(t, len(items), 20)

		var total int64
		for _, item := range items {
			size, err := item.Size()
			require.NoError(t, err)
			total += size
		}
		require.LessOrEqual(t, total, memory.KiB.Int64())
	})
}

func TestQueryItemsForConnection(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		tasks := putTasks(ctx, t, db, "org1", 5)
		owner := graph.Filter{graph.FieldOID: "org1"}

		conn, err := db.QueryItemsForConnection(ctx, owner, nil, graphdb.ConnectionArgs{First: intp(2)}, nil)
		require.NoError(t, err)
		require.Len(t, conn.Edges, 2)
		require.Equal(t, int64(100), conn.Edges[0].Node.Metadata.SortValue)
		require.Equal(t, int64(200), conn.Edges[1].Node.Metadata.SortValue)
		require.True(t, conn.PageInfo.HasNextPage)
		require.Equal(t, graph.EncodeCursor(100), *conn.PageInfo.StartCursor)
		require.Equal(t, graph.EncodeCursor(200), *conn.PageInfo.EndCursor)
		require.Equal(t, int64(5), conn.Count)

		for _, first := range []int{5, 6, 50} {
			conn, err = db.QueryItemsForConnection(ctx, owner, nil, graphdb.ConnectionArgs{First: intp(first)}, nil)
			require.NoError(t, err)
			require.Len(t, conn.Edges, 5)
			require.False(t, conn.PageInfo.HasNextPage)
			require.Equal(t, int64(5), conn.Count)
		}

		conn, err = db.QueryItemsForConnection(ctx, owner, nil, graphdb.ConnectionArgs{Last: intp(2)}, nil)
		require.NoError(t, err)
		require.Len(t, conn.Edges, 2)
		require.True(t, conn.PageInfo.HasPreviousPage)
		require.Equal(t, tasks[4].GID, conn.Edges[0].Node.Metadata.GID)
		require.Equal(t, tasks[3].GID, conn.Edges[1].Node.Metadata.GID)

		conn, err = db.QueryItemsForConnection(ctx, owner, graph.Filter{"status": "active"}, graphdb.ConnectionArgs{}, nil)
		require.NoError(t, err)
		require.Len(t, conn.Edges, 1)
		require.Equal(t, int64(1), conn.Count)

		// without seeking, the cursor does not move the page
		conn, err = db.QueryItemsForConnection(ctx, owner, nil, graphdb.ConnectionArgs{First: intp(2), After: graph.EncodeCursor(200)}, nil)
		require.NoError(t, err)
		require.Equal(t, int64(100), conn.Edges[0].Node.Metadata.SortValue)

		_, err = db.QueryItemsForConnection(ctx, owner, nil, graphdb.ConnectionArgs{First: intp(2), After: "bogus"}, nil)
		require.True(t, graphdb.ErrInvalid.Has(err))
	})
}

func TestQueryItemsForConnectionSeek(t *testing.T) {
	graphdbtest.RunWithConfig(t, graphdb.Config{SeekCursors: true}, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		putTasks(ctx, t, db, "org1", 5)
		owner := graph.Filter{graph.FieldOID: "org1"}

		var sortValues []int64
		args := graphdb.ConnectionArgs{First: intp(2)}
		for {
			conn, err := db.QueryItemsForConnection(ctx, owner, nil, args, nil)
			require.NoError(t, err)
			require.Equal(t, int64(5), conn.Count)
			for _, edge := range conn.Edges {
				sortValues = append(sortValues, edge.Node.Metadata.SortValue)
			}
			if !conn.PageInfo.HasNextPage {
				break
			}
			args.After = *conn.PageInfo.EndCursor
		}
		require.Equal(t, []int64{100, 200, 300, 400, 500}, sortValues)

		conn, err := db.QueryItemsForConnection(ctx, owner, nil, graphdb.ConnectionArgs{Last: intp(2), Before: graph.EncodeCursor(300)}, nil)
		require.NoError(t, err)
		require.Len(t, conn.Edges, 2)
		require.Equal(t, int64(200), conn.Edges[0].Node.Metadata.SortValue)
		require.Equal(t, int64(100), conn.Edges[1].Node.Metadata.SortValue)
		require.False(t, conn.PageInfo.HasPreviousPage)
	})
}

func TestSessionTransactions(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		session, err := db.Session(ctx)
		require.NoError(t, err)
		defer ctx.Check(session.Close)

		require.NoError(t, session.TransactionBegin(ctx))
		require.NoError(t, session.PutItem(ctx, nil, graph.Metadata{GID: "gidA", OID: "org1", ClassName: "Task"}))
		require.NoError(t, session.TransactionRollback(ctx))

		item, err := db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.Nil(t, item)

		require.NoError(t, session.TransactionBegin(ctx))
		require.NoError(t, session.PutItem(ctx, nil, graph.Metadata{GID: "gidB", OID: "org1", ClassName: "Task"}))

		// not visible outside of the transaction yet
		item, err = db.GetItem(ctx, "org1", "gidB")
		require.NoError(t, err)
		require.Nil(t, item)

		require.NoError(t, session.TransactionCommit(ctx))

		item, err = db.GetItem(ctx, "org1", "gidB")
		require.NoError(t, err)
		require.NotNil(t, item)
	})
}

func TestWithTx(t *testing.T) {
	graphdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *graphdb.DB) {
		err := db.WithTx(ctx, func(ctx context.Context, store *graphdb.Store) error {
			if err := store.PutItem(ctx, nil, graph.Metadata{GID: "gidA", OID: "org1", ClassName: "Task"}); err != nil {
				return err
			}
			return errs.New("abort")
		})
		require.Error(t, err)

		item, err := db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.Nil(t, item)

		err = db.WithTx(ctx, func(ctx context.Context, store *graphdb.Store) error {
			return store.PutItem(ctx, nil, graph.Metadata{GID: "gidA", OID: "org1", ClassName: "Task"})
		})
		require.NoError(t, err)

		item, err = db.GetItem(ctx, "org1", "gidA")
		require.NoError(t, err)
		require.NotNil(t, item)
	})
}
