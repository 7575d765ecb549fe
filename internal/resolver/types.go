package resolver

import (
	"github.com/graphql-go/graphql"

	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/nodeid"
	"realtypress-graphql/internal/sqltype"
)

// typeNameKey marks every row with its GraphQL type so interfaces can resolve it.
const typeNameKey = "__typename"

func (r *Resolver) buildGraphQLType(def *entity.Definition) *graphql.Object {
	r.mu.RLock()
	if cached, ok := r.typeCache[def.TypeName]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	objType := graphql.NewObject(graphql.ObjectConfig{
		Name:        def.TypeName,
		Description: def.Description,
		Interfaces: []*graphql.Interface{
			r.nodeInterfaceType(),
			r.databaseIdentifierInterfaceType(),
		},
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return r.buildFields(def)
		}),
	})

	r.mu.Lock()
	if cached, ok := r.typeCache[def.TypeName]; ok {
		r.mu.Unlock()
		return cached
	}
	r.typeCache[def.TypeName] = objType
	r.mu.Unlock()

	return objType
}

func (r *Resolver) buildFields(def *entity.Definition) graphql.Fields {
	fields := graphql.Fields{
		"id": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.ID),
			Description: def.IDDescription(),
			Resolve:     globalIDResolver(def),
		},
		"databaseId": &graphql.Field{
			Type:        graphql.NewNonNull(graphql.ID),
			Description: "The primary key of " + def.Table + " as stored in the database.",
			Resolve:     databaseIDResolver(def),
		},
	}
	for _, col := range def.Columns {
		fields[col.Name] = &graphql.Field{
			Type:        scalarFor(col.Type),
			Description: def.FieldDescription(col.Name),
		}
	}
	for _, rel := range r.registry.Relations(def.Kind) {
		target := r.typeFor(r.registry.Lookup(rel.To))
		var out graphql.Output = target
		if rel.Many {
			out = graphql.NewList(target)
		}
		fields[rel.Field] = &graphql.Field{
			Type:        out,
			Description: rel.Description,
			Resolve:     r.makeRelationResolver(rel),
		}
	}
	return fields
}

// globalIDResolver encodes (type, primary key). A row without its primary
// key yields null instead of an error.
func globalIDResolver(def *entity.Definition) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		key, ok := row[def.PrimaryKey]
		if !ok || key == nil {
			return nil, nil
		}
		return nodeid.Encode(def.TypeName, key), nil
	}
}

func databaseIDResolver(def *entity.Definition) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		row, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		key, ok := row[def.PrimaryKey]
		if !ok || key == nil {
			return nil, nil
		}
		return nodeid.KeyString(key), nil
	}
}

func scalarFor(t sqltype.GraphQLType) *graphql.Scalar {
	switch t {
	case sqltype.TypeInt:
		return graphql.Int
	case sqltype.TypeFloat:
		return graphql.Float
	case sqltype.TypeBoolean:
		return graphql.Boolean
	default:
		return graphql.String
	}
}

func (r *Resolver) resolveRowType(p graphql.ResolveTypeParams) *graphql.Object {
	source, ok := p.Value.(map[string]interface{})
	if !ok {
		return nil
	}
	typeName, ok := source[typeNameKey].(string)
	if !ok || typeName == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.typeCache[typeName]
}

func (r *Resolver) nodeInterfaceType() *graphql.Interface {
	r.mu.RLock()
	cached := r.nodeInterface
	r.mu.RUnlock()
	if cached != nil {
		return cached
	}

	nodeInterface := graphql.NewInterface(graphql.InterfaceConfig{
		Name:        "Node",
		Description: "An object with a globally unique ID",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The globally unique ID for the object",
			},
		},
		ResolveType: r.resolveRowType,
	})

	r.mu.Lock()
	if r.nodeInterface == nil {
		r.nodeInterface = nodeInterface
	}
	cached = r.nodeInterface
	r.mu.Unlock()

	return cached
}

func (r *Resolver) databaseIdentifierInterfaceType() *graphql.Interface {
	r.mu.RLock()
	cached := r.dbIDInterface
	r.mu.RUnlock()
	if cached != nil {
		return cached
	}

	dbID := graphql.NewInterface(graphql.InterfaceConfig{
		Name:        "DatabaseIdentifier",
		Description: "Object that can be identified with a Database ID",
		Fields: graphql.Fields{
			"databaseId": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.ID),
				Description: "The unique identifier stored in the database",
			},
		},
		ResolveType: r.resolveRowType,
	})

	r.mu.Lock()
	if r.dbIDInterface == nil {
		r.dbIDInterface = dbID
	}
	cached = r.dbIDInterface
	r.mu.Unlock()

	return cached
}

func (r *Resolver) propertyFilterInput() *graphql.InputObject {
	r.mu.RLock()
	cached := r.filterInput
	r.mu.RUnlock()
	if cached != nil {
		return cached
	}

	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        "PropertyFilterInput",
		Description: "Filter properties by various fields",
		Fields: graphql.InputObjectConfigFieldMap{
			"City": &graphql.InputObjectFieldConfig{
				Type:        graphql.String,
				Description: "Exact match on the City column. Empty values are ignored.",
			},
			"minPrice": &graphql.InputObjectFieldConfig{
				Type:        graphql.Float,
				Description: "Inclusive lower bound on the Price column",
			},
		},
	})

	r.mu.Lock()
	if r.filterInput == nil {
		r.filterInput = input
	}
	cached = r.filterInput
	r.mu.Unlock()

	return cached
}

// getPageInfoType returns the shared PageInfo type (lazy-init).
func (r *Resolver) getPageInfoType() *graphql.Object {
	r.mu.RLock()
	cached := r.pageInfoType
	r.mu.RUnlock()
	if cached != nil {
		return cached
	}

	pageInfo := graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"hasPreviousPage": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
			},
			"startCursor": &graphql.Field{
				Type: graphql.String,
			},
			"endCursor": &graphql.Field{
				Type: graphql.String,
			},
		},
	})

	r.mu.Lock()
	if r.pageInfoType == nil {
		r.pageInfoType = pageInfo
	}
	cached = r.pageInfoType
	r.mu.Unlock()

	return cached
}

// buildConnectionType builds the Connection and Edge types for an entity (cached per entity).
func (r *Resolver) buildConnectionType(def *entity.Definition, objType *graphql.Object) *graphql.Object {
	typeName := def.ConnectionTypeName()

	r.mu.RLock()
	if cached, ok := r.connectionCache[typeName]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	edgeType := graphql.NewObject(graphql.ObjectConfig{
		Name: def.EdgeTypeName(),
		Fields: graphql.Fields{
			"cursor": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.String),
				Description: "A cursor for use in pagination",
			},
			"node": &graphql.Field{
				Type:        graphql.NewNonNull(objType),
				Description: "The item at the end of the edge",
			},
		},
	})

	connType := graphql.NewObject(graphql.ObjectConfig{
		Name: typeName,
		Fields: graphql.Fields{
			"edges": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edgeType))),
			},
			"nodes": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(objType))),
			},
			"pageInfo": &graphql.Field{
				Type: graphql.NewNonNull(r.getPageInfoType()),
			},
			"totalCount": &graphql.Field{
				Type:        graphql.NewNonNull(graphql.Int),
				Description: "Number of rows matching the listing, across all pages",
			},
		},
	})

	r.mu.Lock()
	if cached, ok := r.connectionCache[typeName]; ok {
		r.mu.Unlock()
		return cached
	}
	r.connectionCache[typeName] = connType
	r.mu.Unlock()

	return connType
}
