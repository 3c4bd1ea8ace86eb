// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graph

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Table is the single table holding every node and edge.
const Table = "graph_items"

// Columns is the select list matching Row.ScanTargets.
const Columns = `bf_gid, bf_oid, bf_cid, bf_sid, bf_s_class_name, bf_tid, bf_t_class_name,
	class_name, props, sort_value, created_at, last_updated`

// Logical metadata field names.
const (
	FieldGID         = "bfGid"
	FieldOID         = "bfOid"
	FieldCID         = "bfCid"
	FieldSID         = "bfSid"
	FieldSClassName  = "bfSClassName"
	FieldTID         = "bfTid"
	FieldTClassName  = "bfTClassName"
	FieldClassName   = "className"
	FieldSortValue   = "sortValue"
	FieldCreatedAt   = "createdAt"
	FieldLastUpdated = "lastUpdated"
)

// columns is the allow-list of metadata fields that may be used in filters
// and ordering. Anything missing here never reaches generated SQL.
var columns = map[string]string{
	FieldGID:         "bf_gid",
	FieldOID:         "bf_oid",
	FieldCID:         "bf_cid",
	FieldSID:         "bf_sid",
	FieldSClassName:  "bf_s_class_name",
	FieldTID:         "bf_tid",
	FieldTClassName:  "bf_t_class_name",
	FieldClassName:   "class_name",
	FieldSortValue:   "sort_value",
	FieldCreatedAt:   "created_at",
	FieldLastUpdated: "last_updated",
}

func init() {
	for logical, physical := range columns {
		if got := snakeCase(logical); got != physical {
			panic(fmt.Sprintf("graph: column %q maps to %q, expected %q", logical, physical, got))
		}
	}
}

// Column returns the physical column for a logical metadata field name.
func Column(field string) (column string, ok bool) {
	column, ok = columns[field]
	return column, ok
}

// Fields returns the allow-listed logical field names, sorted.
func Fields() []string {
	fields := make([]string, 0, len(columns))
	for field := range columns {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// snakeCase inserts an underscore before every uppercase letter and lowercases it.
func snakeCase(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsUpper(r) {
			b.WriteByte('_')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
