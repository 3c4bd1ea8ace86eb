// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storj.io/graphstore/graph"
)

// GetItem returns the item with the id within the owner, or nil when it does not exist.
func (store *Store) GetItem(ctx context.Context, ownerID, id string) (_ *graph.Item, err error) {
	defer mon.Task()(&ctx)(&err)

	return store.first(ctx, Query{
		Metadata: graph.Filter{
			graph.FieldOID: ownerID,
			graph.FieldGID: id,
		},
	})
}

// GetItemByGlobalID returns the item with the id regardless of its owner, or nil when it
// does not exist. When className is not empty the item must also be of that class.
//
// The lookup is not scoped to an owner and must only be used where that is not a concern.
func (store *Store) GetItemByGlobalID(ctx context.Context, id, className string) (_ *graph.Item, err error) {
	defer mon.Task()(&ctx)(&err)

	metadata := graph.Filter{graph.FieldGID: id}
	if className != "" {
		metadata[graph.FieldClassName] = className
	}
	return store.first(ctx, Query{Metadata: metadata})
}

// GetItemsByGlobalIDs returns the items with the given ids that exist, optionally
// restricted to className.
func (store *Store) GetItemsByGlobalIDs(ctx context.Context, ids []string, className string) (_ []graph.Item, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(ids) == 0 {
		return nil, nil
	}

	metadata := graph.Filter{}
	if className != "" {
		metadata[graph.FieldClassName] = className
	}

	batchSize := store.config.BatchSize
	if len(ids) > batchSize {
		batchSize = len(ids)
	}
	return store.scan(ctx, Query{Metadata: metadata, IDs: ids}, ScanOptions{BatchSize: batchSize})
}

func (store *Store) first(ctx context.Context, query Query) (*graph.Item, error) {
	items, err := store.scan(ctx, query, ScanOptions{TotalLimit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// PutItem inserts or updates the item. The creation time and the sort value of an
// existing item are kept.
//
// A zero SortValue means unset and is replaced by the creation time in
// milliseconds, so an item cannot be stored with sort value 0.
func (store *Store) PutItem(ctx context.Context, props graph.Props, metadata graph.Metadata) (err error) {
	defer mon.Task()(&ctx)(&err)

	switch {
	case metadata.GID == "":
		return ErrInvalid.New("item id missing")
	case metadata.OID == "":
		return ErrInvalid.New("owner id missing for %q", metadata.GID)
	case metadata.ClassName == "":
		return ErrInvalid.New("class name missing for %q", metadata.GID)
	}

	now := time.Now()
	if metadata.CreatedAt.IsZero() {
		metadata.CreatedAt = now
	}
	if metadata.SortValue == 0 {
		metadata.SortValue = metadata.CreatedAt.UnixMilli()
	}

	row, err := graph.ToRow(props, metadata)
	if err != nil {
		return ErrInvalid.Wrap(err)
	}

	_, err = store.db.ExecContext(ctx, `
		INSERT INTO graph_items (
			bf_gid, bf_oid, bf_cid,
			bf_sid, bf_s_class_name,
			bf_tid, bf_t_class_name,
			class_name, props,
			sort_value, created_at, last_updated
		) VALUES (
			$1, $2, $3,
			$4, $5,
			$6, $7,
			$8, $9::jsonb,
			$10, $11, now()
		)
		ON CONFLICT (bf_gid) DO UPDATE SET
			bf_oid          = EXCLUDED.bf_oid,
			bf_cid          = EXCLUDED.bf_cid,
			bf_sid          = EXCLUDED.bf_sid,
			bf_s_class_name = EXCLUDED.bf_s_class_name,
			bf_tid          = EXCLUDED.bf_tid,
			bf_t_class_name = EXCLUDED.bf_t_class_name,
			class_name      = EXCLUDED.class_name,
			props           = EXCLUDED.props,
			last_updated    = now()
	`,
		row.GID, row.OID, row.CID,
		row.SID, row.SClassName,
		row.TID, row.TClassName,
		row.ClassName, string(row.Props),
		row.SortValue, row.CreatedAt,
	)
	if err != nil {
		store.log.Error("Put failed", zap.String("id", metadata.GID), zap.String("owner", metadata.OID), zap.Error(err))
		return Error.Wrap(err)
	}
	return nil
}

// DeleteItem deletes the item with the id within the owner. Deleting a missing item is not an error.
func (store *Store) DeleteItem(ctx context.Context, ownerID, id string) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = store.db.ExecContext(ctx, `
		DELETE FROM graph_items
		WHERE bf_oid = $1 AND bf_gid = $2
	`, ownerID, id)
	if err != nil {
		store.log.Error("Delete failed", zap.String("id", id), zap.String("owner", ownerID), zap.Error(err))
		return Error.Wrap(err)
	}
	return nil
}

// QueryItems returns the items matching the filters in the requested order. The result is
// limited to the configured maximum serialized size.
func (store *Store) QueryItems(ctx context.Context, metadata, props graph.Filter, ids []string, direction Direction, orderBy string) (_ []graph.Item, err error) {
	defer mon.Task()(&ctx)(&err)

	return store.scan(ctx, Query{
		Metadata:  metadata,
		Props:     props,
		IDs:       ids,
		Direction: direction,
		OrderBy:   orderBy,
	}, ScanOptions{UseSizeLimit: true})
}

// CountItems returns the number of items matching the filters.
func (store *Store) CountItems(ctx context.Context, metadata, props graph.Filter, ids []string) (_ int64, err error) {
	defer mon.Task()(&ctx)(&err)

	return store.count(ctx, Query{Metadata: metadata, Props: props, IDs: ids})
}
