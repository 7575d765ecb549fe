package resolver

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/graphql-go/graphql"
	"go.opentelemetry.io/otel/attribute"

	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/nodeid"
	"realtypress-graphql/internal/observability"
	"realtypress-graphql/internal/planner"
)

// relationRows caches the child rows of one relation for the current request.
type relationRows struct {
	loaded map[string]struct{}
	groups map[string][]map[string]interface{}
}

type batchState struct {
	mu          sync.Mutex
	parentRows  map[entity.Kind][]map[string]interface{}
	related     map[string]*relationRows
	cacheHits   int32
	cacheMisses int32
}

type batchStateKey struct{}

// NewBatchingContext injects a request-scoped batch state for resolvers.
// The state dies with the request; nothing is shared across requests.
func NewBatchingContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, batchStateKey{}, &batchState{
		parentRows: make(map[entity.Kind][]map[string]interface{}),
		related:    make(map[string]*relationRows),
	})
}

func getBatchState(ctx context.Context) (*batchState, bool) {
	if ctx == nil {
		return nil, false
	}

	state, ok := ctx.Value(batchStateKey{}).(*batchState)
	return state, ok
}

// GetBatchState retrieves the batch state from context (exported for middleware access).
func GetBatchState(ctx context.Context) (*batchState, bool) {
	return getBatchState(ctx)
}

func (s *batchState) addParentRows(kind entity.Kind, rows []map[string]interface{}) {
	if len(rows) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.parentRows[kind] = append(s.parentRows[kind], rows...)
}

// pendingValues returns the distinct values of column across seeded parents
// of kind that the relation has not loaded yet. current is always included.
func (s *batchState) pendingValues(relKey string, kind entity.Kind, column string, current interface{}) []interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.related[relKey]
	seen := make(map[string]struct{})
	values := []interface{}{current}
	seen[matchKey(current)] = struct{}{}

	for _, row := range s.parentRows[kind] {
		v := row[column]
		if v == nil {
			continue
		}
		key := matchKey(v)
		if _, dup := seen[key]; dup {
			continue
		}
		if cache != nil {
			if _, done := cache.loaded[key]; done {
				continue
			}
		}
		seen[key] = struct{}{}
		values = append(values, v)
	}
	return values
}

func (s *batchState) lookupRelated(relKey string, value interface{}) ([]map[string]interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.related[relKey]
	if cache == nil {
		return nil, false
	}
	key := matchKey(value)
	if _, ok := cache.loaded[key]; !ok {
		return nil, false
	}
	return cache.groups[key], true
}

func (s *batchState) storeRelated(relKey string, values []interface{}, groups map[string][]map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.related[relKey]
	if cache == nil {
		cache = &relationRows{
			loaded: make(map[string]struct{}),
			groups: make(map[string][]map[string]interface{}),
		}
		s.related[relKey] = cache
	}
	for _, v := range values {
		key := matchKey(v)
		cache.loaded[key] = struct{}{}
		if rows, ok := groups[key]; ok {
			cache.groups[key] = rows
		}
	}
}

// IncrementCacheHit increments the cache hit counter.
func (s *batchState) IncrementCacheHit() {
	atomic.AddInt32(&s.cacheHits, 1)
}

// IncrementCacheMiss increments the cache miss counter.
func (s *batchState) IncrementCacheMiss() {
	atomic.AddInt32(&s.cacheMisses, 1)
}

// GetCacheHits returns the current cache hit count.
func (s *batchState) GetCacheHits() int32 {
	return atomic.LoadInt32(&s.cacheHits)
}

// GetCacheMisses returns the current cache miss count.
func (s *batchState) GetCacheMisses() int32 {
	return atomic.LoadInt32(&s.cacheMisses)
}

// matchKey folds case so grouping agrees with MySQL's default _ci
// collations, under which IN ('l1') also returns rows holding 'L1'.
func matchKey(v interface{}) string {
	return strings.ToLower(nodeid.KeyString(v))
}

func relationKey(rel entity.Relation) string {
	return rel.From.String() + "." + rel.Field
}

func (r *Resolver) makeRelationResolver(rel entity.Relation) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		source, ok := p.Source.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		value := source[rel.FromColumn]
		if value == nil || nodeid.KeyString(value) == "" {
			if rel.Many {
				return []interface{}{}, nil
			}
			return nil, nil
		}

		rows, err := r.loadRelated(p.Context, rel, value)
		if err != nil {
			return nil, err
		}
		if rel.Many {
			out := make([]interface{}, len(rows))
			for i, row := range rows {
				out[i] = row
			}
			return out, nil
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return rows[0], nil
	}
}

// loadRelated returns the child rows for one parent value. With a batching
// context, the first miss loads every seeded parent's children at once.
func (r *Resolver) loadRelated(ctx context.Context, rel entity.Relation, value interface{}) ([]map[string]interface{}, error) {
	relKey := relationKey(rel)
	targetType := r.registry.Lookup(rel.To).TypeName
	metrics := observability.GraphQLMetricsFromContext(ctx)

	state, ok := getBatchState(ctx)
	if !ok {
		if metrics != nil {
			metrics.RecordBatchSkipped(ctx, relKey, targetType, "no_batch_context")
		}
		groups, err := r.queryRelated(ctx, rel, []interface{}{value})
		if err != nil {
			return nil, err
		}
		return groups[matchKey(value)], nil
	}

	if rows, hit := state.lookupRelated(relKey, value); hit {
		state.IncrementCacheHit()
		if metrics != nil {
			metrics.RecordBatchCacheHit(ctx, relKey, targetType)
		}
		return rows, nil
	}
	state.IncrementCacheMiss()
	if metrics != nil {
		metrics.RecordBatchCacheMiss(ctx, relKey, targetType)
	}

	values := state.pendingValues(relKey, rel.From, rel.FromColumn, value)
	ctx, span := startResolverSpan(ctx, "graphql.resolve.batch",
		attribute.String("graphql.relation", relKey),
		attribute.Int("graphql.batch.parent_count", len(values)),
	)
	defer span.End()

	chunks := chunkValues(values, batchChunkSize)
	resultRows := 0
	for _, chunk := range chunks {
		groups, err := r.queryRelated(ctx, rel, chunk)
		if err != nil {
			finishResolverSpan(span, err, "")
			return nil, err
		}
		for _, rows := range groups {
			resultRows += len(rows)
			state.addParentRows(rel.To, rows)
		}
		state.storeRelated(relKey, chunk, groups)
	}
	finishResolverSpan(span, nil, "")

	if metrics != nil {
		metrics.RecordBatchParentCount(ctx, int64(len(values)), relKey, targetType)
		metrics.RecordBatchResultRows(ctx, int64(resultRows), relKey, targetType)
		metrics.RecordBatchQueriesSaved(ctx, int64(len(values)-len(chunks)), relKey, targetType)
	}

	rows, _ := state.lookupRelated(relKey, value)
	return rows, nil
}

func (r *Resolver) queryRelated(ctx context.Context, rel entity.Relation, values []interface{}) (map[string][]map[string]interface{}, error) {
	target := r.registry.Lookup(rel.To)
	query, err := planner.PlanRelated(target, rel.ToColumn, values, rel.OrderBy)
	if err != nil {
		return nil, err
	}
	rows, err := r.runQuery(ctx, target, query)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]map[string]interface{})
	for _, row := range rows {
		key := matchKey(row[rel.ToColumn])
		groups[key] = append(groups[key], row)
	}
	return groups, nil
}
