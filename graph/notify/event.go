// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package notify

import (
	"encoding/json"

	"storj.io/graphstore/graph"
)

// Operations reported by the table triggers.
const (
	OperationInsert = "INSERT"
	OperationUpdate = "UPDATE"
	OperationDelete = "DELETE"
)

// Event is a change of a row.
type Event struct {
	Operation  string `json:"operation"`
	GID        string `json:"bf_gid"`
	OID        string `json:"bf_oid"`
	SID        string `json:"bf_sid,omitempty"`
	TID        string `json:"bf_tid,omitempty"`
	TClassName string `json:"bf_t_class_name,omitempty"`
	SortValue  *int64 `json:"sort_value,omitempty"`

	// Cursor is the pagination cursor of the edge, set for connection events.
	Cursor string `json:"cursor,omitempty"`
}

// IsConnectionEvent returns whether the event concerns the edges leaving a source.
func (event *Event) IsConnectionEvent() bool {
	return event.SID != "" && event.TClassName != ""
}

// parseEvent decodes a trigger payload.
func parseEvent(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, Error.Wrap(err)
	}
	if event.IsConnectionEvent() && event.SortValue != nil {
		event.Cursor = graph.EncodeCursor(*event.SortValue)
	}
	return event, nil
}
