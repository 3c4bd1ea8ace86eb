// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package graphdb

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"storj.io/graphstore/graph"
)

// condition is a boolean expression with positional arguments.
type condition struct {
	sql  string
	args []interface{}
}

// arg adds an argument and returns its placeholder.
func (cond *condition) arg(value interface{}) string {
	cond.args = append(cond.args, value)
	return "$" + strconv.Itoa(len(cond.args))
}

// buildCondition combines metadata, props and id filters into a single expression.
// Metadata keys outside of the column allow-list are logged and dropped.
func buildCondition(log *zap.Logger, metadata, props graph.Filter, ids []string) (cond condition, err error) {
	var groups []string

	for _, key := range sortedKeys(metadata) {
		column, ok := graph.Column(key)
		if !ok {
			log.Warn("Dropping unknown metadata filter", zap.String("key", key))
			continue
		}
		value := metadata[key]
		if value == nil {
			groups = append(groups, column+" IS NULL")
			continue
		}
		groups = append(groups, column+" = "+cond.arg(value))
	}
	if len(groups) == 0 {
		groups = append(groups, "TRUE")
	}
	metadataGroup := "(" + strings.Join(groups, " AND ") + ")"

	groups = groups[:0]
	for _, key := range sortedKeys(props) {
		predicate, err := cond.propsPredicate(key, props[key])
		if err != nil {
			return condition{}, err
		}
		groups = append(groups, predicate)
	}
	if len(groups) == 0 {
		groups = append(groups, "TRUE")
	}
	propsGroup := "(" + strings.Join(groups, " AND ") + ")"

	// ids are bound as one array so long lists stay under the parameter limit.
	idsGroup := "(TRUE)"
	if len(ids) > 0 {
		idsGroup = "(bf_gid = ANY(" + cond.arg(pq.StringArray(ids)) + "))"
	}

	cond.sql = metadataGroup + " AND " + propsGroup + " AND " + idsGroup
	return cond, nil
}

// propsPredicate compares a props field with value. The key is bound as an
// argument since it comes from the caller.
func (cond *condition) propsPredicate(key string, value interface{}) (string, error) {
	switch value := value.(type) {
	case nil:
		return "props->>" + cond.arg(key) + "::text IS NULL", nil
	case string:
		return "props->>" + cond.arg(key) + "::text = " + cond.arg(value), nil
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64, json.Number:
		return "props->>" + cond.arg(key) + "::text = " + cond.arg(scalarText(value)), nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return "", ErrInvalid.New("props filter %q: %v", key, err)
		}
		return "props->" + cond.arg(key) + "::text = " + cond.arg(string(data)) + "::jsonb", nil
	}
}

// scalarText formats value the way jsonb ->> prints it. Numbers never use
// exponent notation.
func scalarText(value interface{}) string {
	switch value := value.(type) {
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case json.Number:
		if !strings.ContainsAny(string(value), "eE") {
			return string(value)
		}
		f, err := value.Float64()
		if err != nil {
			return string(value)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}

func sortedKeys(filter graph.Filter) []string {
	keys := make([]string, 0, len(filter))
	for key := range filter {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
