// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/pflag"
	"github.com/zeebo/errs"

	"storj.io/graphstore/graph"
)

// filterFlags are the item selection flags shared by the query commands.
type filterFlags struct {
	metadata map[string]string
	props    map[string]string
	ids      []string
}

func (flags *filterFlags) bind(set *pflag.FlagSet) {
	set.StringToStringVar(&flags.metadata, "metadata", nil, "metadata filter as field=value, for example bfOid=org1")
	set.StringToStringVar(&flags.props, "props", nil, "property filter as key=value, values are parsed as JSON when possible")
	set.StringSliceVar(&flags.ids, "ids", nil, "only items with one of these ids")
}

func (flags *filterFlags) filters() (metadata, props graph.Filter, err error) {
	metadata = graph.Filter{}
	for key, value := range flags.metadata {
		if _, ok := graph.Column(key); !ok {
			return nil, nil, errs.New("unknown metadata field %q, expected one of %v", key, graph.Fields())
		}
		metadata[key] = value
	}

	props = graph.Filter{}
	for key, value := range flags.props {
		props[key] = parseValue(value)
	}
	return metadata, props, nil
}

// parseValue decodes value as JSON, falling back to the raw string.
func parseValue(value string) interface{} {
	dec := json.NewDecoder(bytes.NewReader([]byte(value)))
	dec.UseNumber()

	var decoded interface{}
	if err := dec.Decode(&decoded); err != nil || dec.More() {
		return value
	}
	return decoded
}

// parseProps decodes a JSON object of properties.
func parseProps(data string) (graph.Props, error) {
	props := graph.Props{}
	if data == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(data), &props); err != nil {
		return nil, errs.New("invalid props: %+v", err)
	}
	return props, nil
}
