// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package relayql exposes paginated graph store queries as GraphQL Relay connections.
package relayql

import (
	"context"
	"time"

	"github.com/graphql-go/graphql"

	"storj.io/graphstore/graph"
	"storj.io/graphstore/graph/graphdb"
)

const (
	// PageInfoType is a graphql type name for page info.
	PageInfoType = "PageInfo"

	// FirstArg is an argument name for the forward page size.
	FirstArg = "first"
	// AfterArg is an argument name for the forward cursor.
	AfterArg = "after"
	// LastArg is an argument name for the backward page size.
	LastArg = "last"
	// BeforeArg is an argument name for the backward cursor.
	BeforeArg = "before"

	// FieldEdges is a field name for the edges of a connection.
	FieldEdges = "edges"
	// FieldNode is a field name for the node of an edge.
	FieldNode = "node"
	// FieldCursor is a field name for the cursor of an edge.
	FieldCursor = "cursor"
	// FieldPageInfo is a field name for the page info of a connection.
	FieldPageInfo = "pageInfo"
	// FieldCount is a field name for the number of all items of a connection.
	FieldCount = "count"
	// FieldHasNextPage is a field name for whether more items follow the page.
	FieldHasNextPage = "hasNextPage"
	// FieldHasPreviousPage is a field name for whether more items precede the page.
	FieldHasPreviousPage = "hasPreviousPage"
	// FieldStartCursor is a field name for the cursor of the first edge.
	FieldStartCursor = "startCursor"
	// FieldEndCursor is a field name for the cursor of the last edge.
	FieldEndCursor = "endCursor"

	// FieldID is a field name for the item id.
	FieldID = "id"
	// FieldOwnerID is a field name for the owner id.
	FieldOwnerID = "ownerId"
	// FieldClassName is a field name for the class name.
	FieldClassName = "className"
	// FieldSortValue is a field name for the sort value.
	FieldSortValue = "sortValue"
	// FieldCreatedAt is a field name for the creation time.
	FieldCreatedAt = "createdAt"
	// FieldLastUpdated is a field name for the last update time.
	FieldLastUpdated = "lastUpdated"
)

// Connector queries a page of items.
type Connector interface {
	QueryItemsForConnection(ctx context.Context, metadata, props graph.Filter, args graphdb.ConnectionArgs, ids []string) (*graphdb.Connection, error)
}

var _ Connector = (*graphdb.Store)(nil)

// FilterFunc returns the filters of a connection field for the resolved parent.
type FilterFunc func(p graphql.ResolveParams) (metadata, props graph.Filter, err error)

// ConnectionArgs returns the pagination arguments of a connection field.
func ConnectionArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		FirstArg: &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
		AfterArg: &graphql.ArgumentConfig{
			Type: graphql.String,
		},
		LastArg: &graphql.ArgumentConfig{
			Type: graphql.Int,
		},
		BeforeArg: &graphql.ArgumentConfig{
			Type: graphql.String,
		},
	}
}

// ArgsFromMap decodes the pagination arguments of a resolved field.
func ArgsFromMap(args map[string]interface{}) graphdb.ConnectionArgs {
	var connArgs graphdb.ConnectionArgs
	if first, ok := args[FirstArg].(int); ok {
		connArgs.First = &first
	}
	if last, ok := args[LastArg].(int); ok {
		connArgs.Last = &last
	}
	connArgs.After, _ = args[AfterArg].(string)
	connArgs.Before, _ = args[BeforeArg].(string)
	return connArgs
}

// pageInfo is shared by all connections of a schema, since type names are unique.
var pageInfo = graphql.NewObject(graphql.ObjectConfig{
	Name: PageInfoType,
	Fields: graphql.Fields{
		FieldHasNextPage: &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				info, _ := p.Source.(graphdb.PageInfo)
				return info.HasNextPage, nil
			},
		},
		FieldHasPreviousPage: &graphql.Field{
			Type: graphql.NewNonNull(graphql.Boolean),
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				info, _ := p.Source.(graphdb.PageInfo)
				return info.HasPreviousPage, nil
			},
		},
		FieldStartCursor: &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				info, _ := p.Source.(graphdb.PageInfo)
				return info.StartCursor, nil
			},
		},
		FieldEndCursor: &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				info, _ := p.Source.(graphdb.PageInfo)
				return info.EndCursor, nil
			},
		},
	},
})

// Types are the object types of the connections of one node type.
type Types struct {
	Node       *graphql.Object
	Edge       *graphql.Object
	Connection *graphql.Object
}

// NewTypes creates the edge and connection types for node, named after it.
func NewTypes(node *graphql.Object) *Types {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: node.Name() + "Edge",
		Fields: graphql.Fields{
			FieldCursor: &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					edge, _ := p.Source.(graphdb.Edge)
					return edge.Cursor, nil
				},
			},
			FieldNode: &graphql.Field{
				Type: node,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					edge, _ := p.Source.(graphdb.Edge)
					return edge.Node, nil
				},
			},
		},
	})

	connection := graphql.NewObject(graphql.ObjectConfig{
		Name: node.Name() + "Connection",
		Fields: graphql.Fields{
			FieldEdges: &graphql.Field{
				Type: graphql.NewList(edge),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conn, _ := p.Source.(*graphdb.Connection)
					return conn.Edges, nil
				},
			},
			FieldPageInfo: &graphql.Field{
				Type: graphql.NewNonNull(pageInfo),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conn, _ := p.Source.(*graphdb.Connection)
					return conn.PageInfo, nil
				},
			},
			FieldCount: &graphql.Field{
				Type: graphql.NewNonNull(graphql.Int),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					conn, _ := p.Source.(*graphdb.Connection)
					return conn.Count, nil
				},
			},
		},
	})

	return &Types{
		Node:       node,
		Edge:       edge,
		Connection: connection,
	}
}

// ConnectionField returns a field resolving a page of the items selected by filter.
func ConnectionField(types *Types, source Connector, filter FilterFunc) *graphql.Field {
	return &graphql.Field{
		Type: types.Connection,
		Args: ConnectionArgs(),
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			metadata, props, err := filter(p)
			if err != nil {
				return nil, err
			}
			return source.QueryItemsForConnection(p.Context, metadata, props, ArgsFromMap(p.Args), nil)
		},
	}
}

// ItemFields returns the fields of a node type resolving the metadata of an item.
func ItemFields() graphql.Fields {
	metadata := func(fn func(graph.Metadata) interface{}) graphql.FieldResolveFn {
		return func(p graphql.ResolveParams) (interface{}, error) {
			item, _ := p.Source.(graph.Item)
			return fn(item.Metadata), nil
		}
	}
	return graphql.Fields{
		FieldID: &graphql.Field{
			Type:    graphql.NewNonNull(graphql.ID),
			Resolve: metadata(func(m graph.Metadata) interface{} { return m.GID }),
		},
		FieldOwnerID: &graphql.Field{
			Type:    graphql.NewNonNull(graphql.ID),
			Resolve: metadata(func(m graph.Metadata) interface{} { return m.OID }),
		},
		FieldClassName: &graphql.Field{
			Type:    graphql.NewNonNull(graphql.String),
			Resolve: metadata(func(m graph.Metadata) interface{} { return m.ClassName }),
		},
		FieldSortValue: &graphql.Field{
			Type:    graphql.NewNonNull(graphql.Float),
			Resolve: metadata(func(m graph.Metadata) interface{} { return float64(m.SortValue) }),
		},
		FieldCreatedAt: &graphql.Field{
			Type:    graphql.DateTime,
			Resolve: metadata(func(m graph.Metadata) interface{} { return timeOrNil(m.CreatedAt) }),
		},
		FieldLastUpdated: &graphql.Field{
			Type:    graphql.DateTime,
			Resolve: metadata(func(m graph.Metadata) interface{} { return timeOrNil(m.LastUpdated) }),
		},
	}
}

// PropField returns a string field resolving a property of an item.
func PropField(name string) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			item, _ := p.Source.(graph.Item)
			value, ok := item.Props[name]
			if !ok || value == nil {
				return nil, nil
			}
			return value, nil
		},
	}
}

func timeOrNil(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
