// Package resolver builds and executes the GraphQL schema over the RealtyPress
// tables. Listings resolve an ordered primary-key list, slice it into a Relay
// connection and hydrate only the visible page; relationships are loaded per
// request in batches keyed by the parent rows already on the page.
package resolver

import (
	"sync"

	"github.com/graphql-go/graphql"

	"realtypress-graphql/internal/connection"
	"realtypress-graphql/internal/dbexec"
	"realtypress-graphql/internal/entity"
)

// Options tunes pagination for connection fields. DefaultLimit is the page
// size used when a listing omits first and last; zero returns every row.
// MaxLimit caps first and last; zero disables the cap.
type Options struct {
	DefaultLimit int
	MaxLimit     int
}

// Resolver handles GraphQL query execution against the WordPress database.
type Resolver struct {
	executor dbexec.QueryExecutor
	registry *entity.Registry
	page     connection.Options
	fetchers map[entity.Kind]fetchFunc

	typeCache       map[string]*graphql.Object
	connectionCache map[string]*graphql.Object
	nodeInterface   *graphql.Interface
	dbIDInterface   *graphql.Interface
	pageInfoType    *graphql.Object
	filterInput     *graphql.InputObject
	mu              sync.RWMutex
}

// NewResolver creates a resolver for the registry's tables.
func NewResolver(executor dbexec.QueryExecutor, registry *entity.Registry, opts Options) *Resolver {
	defaultLimit := max(opts.DefaultLimit, 0)
	r := &Resolver{
		executor:        executor,
		registry:        registry,
		page:            connection.Options{DefaultLimit: defaultLimit, MaxLimit: opts.MaxLimit},
		typeCache:       make(map[string]*graphql.Object),
		connectionCache: make(map[string]*graphql.Object),
		fetchers:        make(map[entity.Kind]fetchFunc),
	}
	for _, def := range registry.All() {
		r.fetchers[def.Kind] = r.rowFetcher(def)
	}
	return r
}

// BuildGraphQLSchema constructs the executable schema: one object type per
// entity, a connection field per entity, a by-ID lookup per entity, and node(id).
func (r *Resolver) BuildGraphQLSchema() (graphql.Schema, error) {
	defs := r.registry.All()
	types := make([]graphql.Type, 0, len(defs))
	for _, def := range defs {
		types = append(types, r.buildGraphQLType(def))
	}

	queryFields := graphql.Fields{}
	for _, def := range defs {
		r.addEntityQueries(queryFields, def)
	}
	queryFields["node"] = &graphql.Field{
		Type:        r.nodeInterfaceType(),
		Description: "Fetches an object given its globally unique ID.",
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: r.resolveNode,
	}

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name:   "RootQuery",
			Fields: queryFields,
		}),
		Types: types,
	})
}

// BuildDisabledSchema returns the schema served when activation fails. It
// registers no entity types; the placeholder field reports why.
func BuildDisabledSchema(reason string) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "RootQuery",
			Fields: graphql.Fields{
				"_schema": &graphql.Field{
					Type:        graphql.String,
					Description: "Placeholder field when the RealtyPress schema is not active",
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return reason, nil
					},
				},
			},
		}),
	})
}

func (r *Resolver) addEntityQueries(fields graphql.Fields, def *entity.Definition) {
	objType := r.typeFor(def)

	listArgs := graphql.FieldConfigArgument{
		"first":  &graphql.ArgumentConfig{Type: graphql.Int, Description: "The number of items to return after the referenced \"after\" cursor"},
		"after":  &graphql.ArgumentConfig{Type: graphql.String, Description: "Cursor used along with the \"first\" argument to reference where in the dataset to get data"},
		"last":   &graphql.ArgumentConfig{Type: graphql.Int, Description: "The number of items to return before the referenced \"before\" cursor"},
		"before": &graphql.ArgumentConfig{Type: graphql.String, Description: "Cursor used along with the \"last\" argument to reference where in the dataset to get data"},
	}
	if def.Kind == entity.Property {
		listArgs["where"] = &graphql.ArgumentConfig{
			Type:        r.propertyFilterInput(),
			Description: "Filter properties by field values",
		}
	}
	fields[def.ListFieldName()] = &graphql.Field{
		Type:        r.buildConnectionType(def, objType),
		Description: "Connection of " + def.Plural(),
		Args:        listArgs,
		Resolve:     r.makeConnectionResolver(def),
	}

	fields[def.SingleFieldName()] = &graphql.Field{
		Type:        objType,
		Description: "Get a single " + def.TypeName + " by global ID",
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
		},
		Resolve: r.makeSingleRowResolver(def),
	}
}

func (r *Resolver) typeFor(def *entity.Definition) *graphql.Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typeCache[def.TypeName]
}
