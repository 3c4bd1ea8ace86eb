// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb

import (
	"context"

	"storj.io/graphstore/graph"
)

// ConnectionArgs are the Relay pagination arguments.
type ConnectionArgs struct {
	First  *int
	After  string
	Last   *int
	Before string
}

// Edge is an item with its cursor.
type Edge struct {
	Cursor string
	Node   graph.Item
}

// PageInfo describes the position of a page within the whole connection.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     *string
	EndCursor       *string
}

// Connection is a page of items along with the total number of matching items.
type Connection struct {
	Edges    []Edge
	PageInfo PageInfo
	Count    int64
}

// page is the scan a set of connection arguments translates to.
type page struct {
	size      int
	backward  bool
	direction Direction
	cursor    *int64
}

func pageOf(args ConnectionArgs) (page, error) {
	p := page{size: defaultPageSize, direction: Ascending}

	cursor := args.After
	switch {
	case args.First != nil:
		p.size = *args.First
	case args.Last != nil:
		p.size = *args.Last
		p.backward = true
		p.direction = Descending
		cursor = args.Before
	}
	if p.size < 0 {
		return page{}, ErrInvalid.New("negative page size %d", p.size)
	}

	if cursor != "" {
		value, err := graph.DecodeCursor(cursor)
		if err != nil {
			return page{}, ErrInvalid.Wrap(err)
		}
		p.cursor = &value
	}
	return p, nil
}

// connectionOf shapes the items of a page scan, which asked for one item
// more than the page size, into a connection.
func connectionOf(p page, items []graph.Item, count int64) *Connection {
	conn := &Connection{Count: count}

	if len(items) > p.size {
		items = items[:p.size]
		if p.backward {
			conn.PageInfo.HasPreviousPage = true
		} else {
			conn.PageInfo.HasNextPage = true
		}
	}

	conn.Edges = make([]Edge, 0, len(items))
	for _, item := range items {
		conn.Edges = append(conn.Edges, Edge{
			Cursor: graph.EncodeCursor(item.Metadata.SortValue),
			Node:   item,
		})
	}

	if len(conn.Edges) > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[len(conn.Edges)-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}
	return conn
}

// QueryItemsForConnection returns a page of the items matching the filters.
//
// Paging forward orders by ascending sort value. Paging backward with Last
// orders by descending sort value and the edges stay in that order. Count is
// the number of all matching items, not only the ones in the page.
func (store *Store) QueryItemsForConnection(ctx context.Context, metadata, props graph.Filter, args ConnectionArgs, ids []string) (_ *Connection, err error) {
	defer mon.Task()(&ctx)(&err)

	p, err := pageOf(args)
	if err != nil {
		return nil, err
	}

	query := Query{
		Metadata:  metadata,
		Props:     props,
		IDs:       ids,
		Direction: p.direction,
		OrderBy:   graph.FieldSortValue,
	}

	items, err := store.scan(ctx, query, ScanOptions{
		CursorValue: p.cursor,
		TotalLimit:  p.size + 1,
	})
	if err != nil {
		return nil, err
	}

	count, err := store.count(ctx, query)
	if err != nil {
		return nil, err
	}

	return connectionOf(p, items, count), nil
}
