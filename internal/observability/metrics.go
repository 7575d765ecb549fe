package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// GraphQLMetrics holds the request, listing and relationship-batching instruments.
// Listing and batch instruments carry the graphql_type they produced so each
// RealtyPress entity can be watched on its own.
type GraphQLMetrics struct {
	requestDuration   metric.Float64Histogram
	requestCounter    metric.Int64Counter
	errorCounter      metric.Int64Counter
	activeRequests    metric.Int64UpDownCounter
	resultsCount      metric.Int64Histogram
	lookups           metric.Int64Counter
	propertyFilters   metric.Int64Counter
	batchParentCount  metric.Int64Histogram
	batchResultRows   metric.Int64Histogram
	batchCacheHits    metric.Int64Counter
	batchCacheMisses  metric.Int64Counter
	batchQueriesSaved metric.Int64Counter
	batchSkipped      metric.Int64Counter
}

// InitGraphQLMetrics initializes GraphQL-specific metrics
func InitGraphQLMetrics() (*GraphQLMetrics, error) {
	meter := otel.Meter("realtypress-graphql")
	m := &GraphQLMetrics{}
	var err error

	if m.requestDuration, err = meter.Float64Histogram(
		"graphql.request.duration",
		metric.WithDescription("Duration of GraphQL requests in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create request duration histogram: %w", err)
	}

	counters := []struct {
		dst         *metric.Int64Counter
		name        string
		description string
	}{
		{&m.requestCounter, "graphql.requests.total", "Total number of GraphQL requests"},
		{&m.errorCounter, "graphql.errors.total", "Total number of GraphQL errors"},
		{&m.lookups, "realtypress.lookups.total", "Single-entity lookups by type and outcome"},
		{&m.propertyFilters, "realtypress.property_filter.total", "Property listings by which filter fields were set"},
		{&m.batchCacheHits, "graphql.batch.cache_hits", "Number of batch cache hits"},
		{&m.batchCacheMisses, "graphql.batch.cache_misses", "Number of batch cache misses"},
		{&m.batchQueriesSaved, "graphql.batch.queries_saved", "Number of queries saved by batching"},
		{&m.batchSkipped, "graphql.batch.skipped", "Number of times batching was skipped"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.description)); err != nil {
			return nil, fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	histograms := []struct {
		dst         *metric.Int64Histogram
		name        string
		description string
	}{
		{&m.resultsCount, "graphql.results.count", "Number of nodes returned by a connection page"},
		{&m.batchParentCount, "graphql.batch.parent_count", "Number of parent values included in a relationship batch query"},
		{&m.batchResultRows, "graphql.batch.result_rows", "Number of rows returned by a batch query"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Int64Histogram(h.name, metric.WithDescription(h.description)); err != nil {
			return nil, fmt.Errorf("failed to create %s histogram: %w", h.name, err)
		}
	}

	if m.activeRequests, err = meter.Int64UpDownCounter(
		"graphql.requests.active",
		metric.WithDescription("Number of active GraphQL requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create active requests counter: %w", err)
	}

	return m, nil
}

// RecordRequest records a GraphQL request with its duration and outcome
func (m *GraphQLMetrics) RecordRequest(ctx context.Context, duration time.Duration, hasErrors bool, operationType string) {
	attrs := metric.WithAttributes(
		attribute.String("operation_type", operationType),
		attribute.Bool("has_errors", hasErrors),
	)
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	m.requestCounter.Add(ctx, 1, attrs)
	if hasErrors {
		m.errorCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation_type", operationType),
		))
	}
}

// RecordResultsCount records the number of nodes a listing returned.
func (m *GraphQLMetrics) RecordResultsCount(ctx context.Context, count int64, graphqlType string) {
	m.resultsCount.Record(ctx, count, metric.WithAttributes(
		attribute.String("graphql_type", graphqlType),
	))
}

// RecordLookup counts a by-ID lookup; a missing row is not an error.
func (m *GraphQLMetrics) RecordLookup(ctx context.Context, graphqlType string, found bool) {
	outcome := "found"
	if !found {
		outcome = "not_found"
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("graphql_type", graphqlType),
		attribute.String("outcome", outcome),
	))
}

// RecordPropertyFilter counts a properties listing by the filter fields it applied.
func (m *GraphQLMetrics) RecordPropertyFilter(ctx context.Context, city, minPrice bool) {
	m.propertyFilters.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("city", city),
		attribute.Bool("min_price", minPrice),
	))
}

// batchAttrs labels a batch by relation (Property.photos) and the type it loads.
func batchAttrs(relation, graphqlType string, extra ...attribute.KeyValue) metric.MeasurementOption {
	attrs := append([]attribute.KeyValue{
		attribute.String("relation", relation),
		attribute.String("graphql_type", graphqlType),
	}, extra...)
	return metric.WithAttributes(attrs...)
}

// RecordBatchParentCount records how many parent values one batch query covered.
func (m *GraphQLMetrics) RecordBatchParentCount(ctx context.Context, count int64, relation, graphqlType string) {
	m.batchParentCount.Record(ctx, count, batchAttrs(relation, graphqlType))
}

func (m *GraphQLMetrics) RecordBatchResultRows(ctx context.Context, count int64, relation, graphqlType string) {
	m.batchResultRows.Record(ctx, count, batchAttrs(relation, graphqlType))
}

func (m *GraphQLMetrics) RecordBatchCacheHit(ctx context.Context, relation, graphqlType string) {
	m.batchCacheHits.Add(ctx, 1, batchAttrs(relation, graphqlType))
}

func (m *GraphQLMetrics) RecordBatchCacheMiss(ctx context.Context, relation, graphqlType string) {
	m.batchCacheMisses.Add(ctx, 1, batchAttrs(relation, graphqlType))
}

func (m *GraphQLMetrics) RecordBatchQueriesSaved(ctx context.Context, count int64, relation, graphqlType string) {
	if count <= 0 {
		return
	}
	m.batchQueriesSaved.Add(ctx, count, batchAttrs(relation, graphqlType))
}

func (m *GraphQLMetrics) RecordBatchSkipped(ctx context.Context, relation, graphqlType, reason string) {
	m.batchSkipped.Add(ctx, 1, batchAttrs(relation, graphqlType, attribute.String("reason", reason)))
}

// IncrementActiveRequests increments the active requests counter
func (m *GraphQLMetrics) IncrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, 1)
}

// DecrementActiveRequests decrements the active requests counter
func (m *GraphQLMetrics) DecrementActiveRequests(ctx context.Context) {
	m.activeRequests.Add(ctx, -1)
}

// InitMetrics initializes all custom metrics and returns the GraphQLMetrics instance
func InitMetrics(logger *slog.Logger) (*GraphQLMetrics, error) {
	metrics, err := InitGraphQLMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GraphQL metrics: %w", err)
	}

	logger.Info("custom GraphQL metrics initialized")
	return metrics, nil
}

type graphQLMetricsContextKey struct{}

// ContextWithGraphQLMetrics stores GraphQL metrics in the provided context.
func ContextWithGraphQLMetrics(ctx context.Context, metrics *GraphQLMetrics) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, graphQLMetricsContextKey{}, metrics)
}

// GraphQLMetricsFromContext retrieves GraphQL metrics from the context.
func GraphQLMetricsFromContext(ctx context.Context) *GraphQLMetrics {
	if ctx == nil {
		return nil
	}
	metrics, _ := ctx.Value(graphQLMetricsContextKey{}).(*GraphQLMetrics)
	return metrics
}
