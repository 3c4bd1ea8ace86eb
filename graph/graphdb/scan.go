// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb

import (
	"context"
	"strconv"
	"strings"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/graphstore/graph"
)

// Direction is the direction of the ordering of a scan.
type Direction int

const (
	// Ascending orders the smallest values first.
	Ascending Direction = iota
	// Descending orders the largest values first.
	Descending
)

// String returns the SQL keyword for the direction.
func (direction Direction) String() string {
	if direction == Descending {
		return "DESC"
	}
	return "ASC"
}

// ParseDirection parses "asc" or "desc", case insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, ErrInvalid.New("unknown direction %q", s)
	}
}

// Query selects the rows a scan visits.
type Query struct {
	Metadata graph.Filter
	Props    graph.Filter
	IDs      []string

	Direction Direction
	// OrderBy is a logical metadata field name, sortValue when empty.
	OrderBy string
}

// ScanOptions bound the result of a scan.
type ScanOptions struct {
	// UseSizeLimit stops the scan before the serialized items exceed MaxSizeBytes.
	UseSizeLimit bool
	MaxSizeBytes int64
	// CursorValue is a sort value decoded from a pagination cursor. It only
	// restricts the scan when the store is configured with SeekCursors.
	CursorValue *int64
	BatchSize   int
	// TotalLimit is the maximum number of items returned, unlimited when zero.
	TotalLimit int
}

// fetchFunc returns up to limit items starting at offset.
type fetchFunc func(ctx context.Context, offset, limit int) ([]graph.Item, error)

// collect runs fetch batch by batch until the items are exhausted or
// one of the limits in opts is reached.
func collect(ctx context.Context, fetch fetchFunc, opts ScanOptions) (items []graph.Item, err error) {
	if opts.BatchSize <= 0 {
		return nil, ErrInvalid.New("batch size must be positive: %d", opts.BatchSize)
	}

	var totalSize int64
	for offset := 0; ; offset += opts.BatchSize {
		batch, err := fetch(ctx, offset, opts.BatchSize)
		if err != nil {
			return nil, err
		}

		for _, item := range batch {
			if opts.UseSizeLimit {
				size, err := item.Size()
				if err != nil {
					return nil, err
				}
				if totalSize+size > opts.MaxSizeBytes {
					mon.Event("scan_size_limit_reached")
					return items, nil
				}
				totalSize += size
			}

			items = append(items, item)
			if opts.TotalLimit > 0 && len(items) >= opts.TotalLimit {
				return items, nil
			}
		}

		if len(batch) < opts.BatchSize {
			return items, nil
		}
	}
}

// scan returns the items matching query, bounded by opts.
func (store *Store) scan(ctx context.Context, query Query, opts ScanOptions) (items []graph.Item, err error) {
	defer mon.Task()(&ctx)(&err)

	if opts.BatchSize <= 0 {
		opts.BatchSize = store.config.BatchSize
	}
	if opts.MaxSizeBytes <= 0 {
		opts.MaxSizeBytes = store.config.MaxSizeBytes.Int64()
	}

	cond, err := buildCondition(store.log, query.Metadata, query.Props, query.IDs)
	if err != nil {
		return nil, err
	}

	orderBy := store.orderColumn(query.OrderBy)
	if opts.CursorValue != nil && store.config.SeekCursors {
		if orderBy == "sort_value" {
			comparison := " > "
			if query.Direction == Descending {
				comparison = " < "
			}
			cond.sql += " AND sort_value" + comparison + cond.arg(*opts.CursorValue)
		} else {
			store.log.Debug("Ignoring cursor for ordering", zap.String("order by", orderBy))
		}
	}

	prefix := `SELECT ` + graph.Columns + ` FROM ` + graph.Table + ` WHERE ` + cond.sql +
		` ORDER BY ` + orderBy + ` ` + query.Direction.String() + `, bf_gid ` + query.Direction.String()
	placeholder := len(cond.args)

	var batches int64
	items, err = collect(ctx, func(ctx context.Context, offset, limit int) (_ []graph.Item, err error) {
		batches++
		statement := prefix + ` LIMIT $` + strconv.Itoa(placeholder+1) + ` OFFSET $` + strconv.Itoa(placeholder+2)
		args := append(append(make([]interface{}, 0, placeholder+2), cond.args...), limit, offset)

		batch, err := store.queryItems(ctx, statement, args...)
		if err != nil {
			store.log.Error("Scan failed",
				zap.String("query", statement),
				zap.Int("args", len(args)),
				zap.Int("offset", offset),
				zap.Error(err))
			return nil, err
		}
		return batch, nil
	}, opts)

	mon.IntVal("scan_batches").Observe(batches)
	mon.IntVal("scan_items").Observe(int64(len(items)))
	return items, err
}

// count returns the number of rows matching query.
func (store *Store) count(ctx context.Context, query Query) (count int64, err error) {
	defer mon.Task()(&ctx)(&err)

	cond, err := buildCondition(store.log, query.Metadata, query.Props, query.IDs)
	if err != nil {
		return 0, err
	}

	statement := `SELECT COUNT(*) FROM ` + graph.Table + ` WHERE ` + cond.sql
	err = store.db.QueryRowContext(ctx, statement, cond.args...).Scan(&count)
	if err != nil {
		store.log.Error("Count failed",
			zap.String("query", statement),
			zap.Int("args", len(cond.args)),
			zap.Error(err))
		return 0, Error.Wrap(err)
	}
	return count, nil
}

func (store *Store) queryItems(ctx context.Context, statement string, args ...interface{}) (items []graph.Item, err error) {
	rows, err := store.db.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, Error.Wrap(rows.Close())) }()

	for rows.Next() {
		var row graph.Row
		if err := rows.Scan(row.ScanTargets()...); err != nil {
			return nil, Error.Wrap(err)
		}
		item, err := graph.FromRow(row)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		items = append(items, item)
	}
	return items, Error.Wrap(rows.Err())
}

// orderColumn resolves the logical ordering field, falling back to sort_value.
func (store *Store) orderColumn(field string) string {
	if field == "" {
		return "sort_value"
	}
	column, ok := graph.Column(field)
	if !ok {
		store.log.Warn("Unknown order field, ordering by sort value", zap.String("field", field))
		return "sort_value"
	}
	return column
}
