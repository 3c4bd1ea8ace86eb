// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package txutil_test

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/errs"

	"storj.io/graphstore/private/dbutil/txutil"
)

func TestRetryable(t *testing.T) {
	require.True(t, txutil.Retryable(&pq.Error{Code: "40001"}))
	require.True(t, txutil.Retryable(errs.Wrap(&pq.Error{Code: "40001"})))
	require.False(t, txutil.Retryable(&pq.Error{Code: "23505"}))
	require.False(t, txutil.Retryable(errs.New("other")))
	require.False(t, txutil.Retryable(nil))
}
