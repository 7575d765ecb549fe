package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"realtypress-graphql/internal/connection"
	"realtypress-graphql/internal/dbexec"
	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/nodeid"
	"realtypress-graphql/internal/observability"
	"realtypress-graphql/internal/planner"
)

// batchChunkSize bounds the number of values bound into a single IN list.
const batchChunkSize = 500

// fetchFunc loads one row by primary key, returning nil when absent.
type fetchFunc func(ctx context.Context, key interface{}) (map[string]interface{}, error)

var (
	errAccessDenied = errors.New("access denied")
	errQueryTimeout = errors.New("query timed out")
)

// MySQL error codes for access control violations.
// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	mysqlErrDBAccessDenied     = 1044 // Access denied for user to database
	mysqlErrTableAccessDenied  = 1142 // SELECT command denied to user for table
	mysqlErrColumnAccessDenied = 1143 // SELECT command denied to user for column
)

func normalizeQueryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errQueryTimeout
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDBAccessDenied, mysqlErrTableAccessDenied, mysqlErrColumnAccessDenied:
			return errAccessDenied
		}
	}
	return err
}

func (r *Resolver) rowFetcher(def *entity.Definition) fetchFunc {
	return func(ctx context.Context, key interface{}) (map[string]interface{}, error) {
		query, err := planner.PlanByPK(def, key)
		if err != nil {
			return nil, err
		}
		rows, err := r.runQuery(ctx, def, query)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	}
}

func (r *Resolver) makeConnectionResolver(def *entity.Definition) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		ctx, span := startResolverSpan(p.Context, "graphql.resolve.connection",
			attribute.String("graphql.type", def.TypeName),
			attribute.String("db.sql.table", def.Table),
		)
		defer span.End()

		result, err := r.resolveConnection(ctx, def, p.Args)
		finishResolverSpan(span, err, "")
		return result, err
	}
}

func (r *Resolver) resolveConnection(ctx context.Context, def *entity.Definition, rawArgs map[string]interface{}) (interface{}, error) {
	args, err := connection.ParseArgs(rawArgs, r.page)
	if err != nil {
		return nil, err
	}

	metrics := observability.GraphQLMetricsFromContext(ctx)
	var filter planner.Filter
	if def.Kind == entity.Property {
		where, _ := rawArgs["where"].(map[string]interface{})
		propFilter := planner.ParsePropertyFilter(where)
		if metrics != nil {
			metrics.RecordPropertyFilter(ctx, propFilter.City != nil, propFilter.MinPrice != nil)
		}
		filter = propFilter
	}

	keys, err := r.listKeys(ctx, def, filter)
	if err != nil {
		return nil, err
	}

	connName := def.ConnectionTypeName()
	window, err := connection.Slice(connName, len(keys), args)
	if err != nil {
		return nil, err
	}

	pageRows, err := r.fetchByKeys(ctx, def, keys[window.Start:window.End])
	if err != nil {
		return nil, err
	}

	nodes := make([]interface{}, len(pageRows))
	seeded := make([]map[string]interface{}, 0, len(pageRows))
	for i, row := range pageRows {
		if row == nil {
			continue
		}
		nodes[i] = row
		seeded = append(seeded, row)
	}
	if state, ok := getBatchState(ctx); ok {
		state.addParentRows(def.Kind, seeded)
	}
	if metrics != nil {
		metrics.RecordResultsCount(ctx, int64(len(seeded)), def.TypeName)
	}

	return connection.Build(connName, window, nodes, len(keys)), nil
}

// listKeys returns the primary keys matching filter in store order.
func (r *Resolver) listKeys(ctx context.Context, def *entity.Definition, filter planner.Filter) ([]interface{}, error) {
	query, err := planner.PlanPrimaryKeys(def, filter)
	if err != nil {
		return nil, err
	}
	rows, err := r.executor.QueryContext(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, normalizeQueryError(err)
	}
	defer rows.Close()

	keys := []interface{}{}
	for rows.Next() {
		var raw interface{}
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		if key := def.KeyType.Coerce(raw); key != nil {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, normalizeQueryError(err)
	}
	return keys, nil
}

// fetchByKeys hydrates keys with IN queries and returns rows aligned with
// keys. Keys whose rows have disappeared map to nil.
func (r *Resolver) fetchByKeys(ctx context.Context, def *entity.Definition, keys []interface{}) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	byKey := make(map[string]map[string]interface{}, len(keys))
	for _, chunk := range chunkValues(keys, batchChunkSize) {
		query, err := planner.PlanByPKs(def, chunk)
		if err != nil {
			return nil, err
		}
		rows, err := r.runQuery(ctx, def, query)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			byKey[matchKey(row[def.PrimaryKey])] = row
		}
	}
	for i, key := range keys {
		out[i] = byKey[matchKey(key)]
	}
	return out, nil
}

func (r *Resolver) makeSingleRowResolver(def *entity.Definition) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		id, _ := p.Args["id"].(string)
		rawKey, err := nodeid.DecodeFor(def.TypeName, id)
		if err != nil {
			return nil, err
		}
		return r.lookup(p.Context, def, rawKey)
	}
}

func (r *Resolver) resolveNode(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(string)
	typeName, rawKey, err := nodeid.Decode(id)
	if err != nil {
		return nil, err
	}
	def, ok := r.registry.ByTypeName(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %s", nodeid.ErrInvalidID, typeName)
	}
	return r.lookup(p.Context, def, rawKey)
}

// lookup dispatches to the entity's fetcher. A missing row is not an error.
func (r *Resolver) lookup(ctx context.Context, def *entity.Definition, rawKey string) (interface{}, error) {
	key, err := def.ParseKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nodeid.ErrInvalidID, err)
	}
	fetch, ok := r.fetchers[def.Kind]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for %s", def.TypeName)
	}

	ctx, span := startResolverSpan(ctx, "graphql.resolve.lookup",
		attribute.String("graphql.type", def.TypeName),
		attribute.String("db.sql.table", def.Table),
	)
	defer span.End()

	row, err := fetch(ctx, key)
	if err != nil {
		finishResolverSpan(span, err, "")
		return nil, err
	}
	if metrics := observability.GraphQLMetricsFromContext(ctx); metrics != nil {
		metrics.RecordLookup(ctx, def.TypeName, row != nil)
	}
	if row == nil {
		finishResolverSpan(span, nil, "not_found")
		return nil, nil
	}
	if state, ok := getBatchState(ctx); ok {
		state.addParentRows(def.Kind, []map[string]interface{}{row})
	}
	finishResolverSpan(span, nil, "")
	return row, nil
}

func (r *Resolver) runQuery(ctx context.Context, def *entity.Definition, query planner.SQLQuery) ([]map[string]interface{}, error) {
	if query.SQL == "" {
		return nil, nil
	}
	rows, err := r.executor.QueryContext(ctx, query.SQL, query.Args...)
	if err != nil {
		return nil, normalizeQueryError(err)
	}
	defer rows.Close()

	results, err := scanRows(rows, def)
	if err != nil {
		return nil, normalizeQueryError(err)
	}
	return results, nil
}

// scanRows reads rows selected with def's full column list and coerces every
// value to its declared scalar.
func scanRows(rows dbexec.Rows, def *entity.Definition) ([]map[string]interface{}, error) {
	var results []map[string]interface{}

	for rows.Next() {
		values := make([]interface{}, len(def.Columns))
		valuePtrs := make([]interface{}, len(def.Columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(def.Columns)+1)
		row[typeNameKey] = def.TypeName
		for i, col := range def.Columns {
			row[col.Name] = col.Type.Coerce(values[i])
		}
		results = append(results, row)
	}

	return results, rows.Err()
}

func chunkValues(values []interface{}, size int) [][]interface{} {
	if size <= 0 || len(values) <= size {
		return [][]interface{}{values}
	}
	chunks := make([][]interface{}, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end])
	}
	return chunks
}
