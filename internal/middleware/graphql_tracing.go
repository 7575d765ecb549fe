package middleware

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"realtypress-graphql/internal/logging"
	"realtypress-graphql/internal/resolver"
)

// GraphQLTracingMiddleware wraps GraphQL execution in a "graphql.execute"
// span. It needs the operation parsed by GraphQLRequestMiddleware; requests
// without one pass through untraced.
func GraphQLTracingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := queryMetadataFromContext(r.Context())
			if meta == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := otel.Tracer("realtypress-graphql/graphql").Start(r.Context(), "graphql.execute")
			defer span.End()

			if spanCtx := span.SpanContext(); spanCtx.IsValid() {
				reqLogger := logging.FromContext(ctx).WithFields(
					slog.String("trace_id", spanCtx.TraceID().String()),
					slog.String("span_id", spanCtx.SpanID().String()),
				)
				ctx = logging.WithLogger(ctx, reqLogger)
			}
			if span.IsRecording() {
				span.SetAttributes(
					attribute.String("graphql.operation.type", meta.operationType),
					attribute.StringSlice("graphql.root_fields", meta.rootFields),
					attribute.Int("graphql.field_count", meta.fieldCount),
					attribute.Int("graphql.selection_depth", meta.selectionDepth),
				)
				if meta.operationName != "" {
					span.SetAttributes(attribute.String("graphql.operation.name", meta.operationName))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))

			state, ok := resolver.GetBatchState(ctx)
			if !ok || !span.IsRecording() {
				return
			}
			hits, misses := state.GetCacheHits(), state.GetCacheMisses()
			span.SetAttributes(
				attribute.Int("graphql.execution.cache_hits", int(hits)),
				attribute.Int("graphql.execution.cache_misses", int(misses)),
			)
			if total := hits + misses; total > 0 {
				span.SetAttributes(attribute.Float64("graphql.execution.cache_hit_ratio", float64(hits)/float64(total)))
			}
		})
	}
}
