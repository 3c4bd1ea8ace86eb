// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package graph defines nodes and edges stored as rows of a single table,
// and the codecs between rows, items and cursors.
package graph

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/zeebo/errs"
)

// Error is the default error class for the package.
var Error = errs.Class("graph")

// Props holds the type specific fields of a node or edge.
type Props map[string]interface{}

// Filter maps logical names to the values they must equal.
type Filter map[string]interface{}

// Metadata contains the typed columns of a row.
type Metadata struct {
	GID        string `json:"bfGid"`
	OID        string `json:"bfOid"`
	CID        string `json:"bfCid,omitempty"`
	SID        string `json:"bfSid,omitempty"`
	SClassName string `json:"bfSClassName,omitempty"`
	TID        string `json:"bfTid,omitempty"`
	TClassName string `json:"bfTClassName,omitempty"`
	ClassName  string `json:"className"`

	SortValue   int64     `json:"sortValue"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// IsEdge returns whether the metadata describes an edge.
func (metadata *Metadata) IsEdge() bool {
	return metadata.SID != "" && metadata.TID != ""
}

// Item is the in-memory form of a row.
type Item struct {
	Props    Props    `json:"props"`
	Metadata Metadata `json:"metadata"`
}

// Size returns the length of the JSON encoding of the item.
func (item *Item) Size() (int64, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return 0, Error.Wrap(err)
	}
	return int64(len(data)), nil
}

// Row is a row as it is stored in the table.
type Row struct {
	GID        string
	OID        string
	CID        sql.NullString
	SID        sql.NullString
	SClassName sql.NullString
	TID        sql.NullString
	TClassName sql.NullString
	ClassName  string
	Props      []byte

	SortValue   int64
	CreatedAt   time.Time
	LastUpdated time.Time
}

// ScanTargets returns the destinations for scanning Columns into row.
func (row *Row) ScanTargets() []interface{} {
	return []interface{}{
		&row.GID, &row.OID, &row.CID,
		&row.SID, &row.SClassName,
		&row.TID, &row.TClassName,
		&row.ClassName, &row.Props,
		&row.SortValue, &row.CreatedAt, &row.LastUpdated,
	}
}

// ToRow converts props and metadata into a row.
func ToRow(props Props, metadata Metadata) (Row, error) {
	if props == nil {
		props = Props{}
	}
	data, err := json.Marshal(props)
	if err != nil {
		return Row{}, Error.New("props of %q: %v", metadata.GID, err)
	}

	return Row{
		GID:         metadata.GID,
		OID:         metadata.OID,
		CID:         nullString(metadata.CID),
		SID:         nullString(metadata.SID),
		SClassName:  nullString(metadata.SClassName),
		TID:         nullString(metadata.TID),
		TClassName:  nullString(metadata.TClassName),
		ClassName:   metadata.ClassName,
		Props:       data,
		SortValue:   metadata.SortValue,
		CreatedAt:   metadata.CreatedAt,
		LastUpdated: metadata.LastUpdated,
	}, nil
}

// FromRow converts a row into an item.
func FromRow(row Row) (Item, error) {
	props := Props{}
	if len(bytes.TrimSpace(row.Props)) > 0 && !bytes.Equal(bytes.TrimSpace(row.Props), []byte("null")) {
		if err := json.Unmarshal(row.Props, &props); err != nil {
			return Item{}, Error.New("props of %q: %v", row.GID, err)
		}
	}

	return Item{
		Props: props,
		Metadata: Metadata{
			GID:         row.GID,
			OID:         row.OID,
			CID:         row.CID.String,
			SID:         row.SID.String,
			SClassName:  row.SClassName.String,
			TID:         row.TID.String,
			TClassName:  row.TClassName.String,
			ClassName:   row.ClassName,
			SortValue:   row.SortValue,
			CreatedAt:   row.CreatedAt,
			LastUpdated: row.LastUpdated,
		},
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
