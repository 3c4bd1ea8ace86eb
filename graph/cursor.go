// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graph

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/zeebo/errs"
)

// ErrCursor is returned for cursors that were not produced by EncodeCursor.
var ErrCursor = errs.Class("invalid cursor")

const cursorPrefix = "cursor:"

// EncodeCursor encodes a sort value into an opaque cursor.
func EncodeCursor(sortValue int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(sortValue, 10)))
}

// DecodeCursor returns the sort value encoded in cursor.
func DecodeCursor(cursor string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, ErrCursor.Wrap(err)
	}
	value := string(raw)
	if !strings.HasPrefix(value, cursorPrefix) {
		return 0, ErrCursor.New("%q", cursor)
	}
	sortValue, err := strconv.ParseInt(value[len(cursorPrefix):], 10, 64)
	if err != nil {
		return 0, ErrCursor.Wrap(err)
	}
	return sortValue, nil
}
