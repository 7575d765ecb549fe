package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/source"

	"realtypress-graphql/internal/logging"
	"realtypress-graphql/internal/resolver"
)

type graphQLRequest struct {
	Query         string `json:"query"`
	OperationName string `json:"operationName"`
}

// queryMetadata describes the operation a request will execute.
type queryMetadata struct {
	operationType  string
	operationName  string
	rootFields     []string
	fieldCount     int
	selectionDepth int
	variableCount  int
}

type queryMetadataKey struct{}

func withQueryMetadata(ctx context.Context, meta *queryMetadata) context.Context {
	return context.WithValue(ctx, queryMetadataKey{}, meta)
}

func queryMetadataFromContext(ctx context.Context) *queryMetadata {
	meta, _ := ctx.Value(queryMetadataKey{}).(*queryMetadata)
	return meta
}

// GraphQLRequestMiddleware prepares request-scoped GraphQL state: it parses
// the operation once for downstream middleware and logs, and installs the
// relationship batch loader that resolvers share for the rest of the request.
func GraphQLRequestMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := resolver.NewBatchingContext(r.Context())

			query, operationName := extractGraphQLRequest(r)
			meta, err := extractQueryMetadata(query, operationName)
			if err == nil && meta != nil {
				ctx = withQueryMetadata(ctx, meta)
				fields := []any{slog.String("graphql.operation_type", meta.operationType)}
				if meta.operationName != "" {
					fields = append(fields, slog.String("graphql.operation_name", meta.operationName))
				}
				ctx = logging.WithLogger(ctx, logging.FromContext(ctx).WithFields(fields...))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractGraphQLRequest(r *http.Request) (string, string) {
	switch r.Method {
	case http.MethodGet:
		return r.URL.Query().Get("query"), r.URL.Query().Get("operationName")
	case http.MethodPost:
	default:
		return "", ""
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", ""
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if strings.Contains(r.Header.Get("Content-Type"), "application/graphql") {
		return string(body), ""
	}
	var payload graphQLRequest
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", ""
	}
	return payload.Query, payload.OperationName
}

func extractQueryMetadata(query, operationName string) (*queryMetadata, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{
			Body: []byte(query),
			Name: "graphql",
		}),
	})
	if err != nil {
		return nil, err
	}

	fragments := make(map[string]*ast.FragmentDefinition)
	var operations []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.FragmentDefinition:
			fragments[d.Name.Value] = d
		case *ast.OperationDefinition:
			operations = append(operations, d)
		}
	}

	op := selectOperation(operations, operationName)
	if op == nil {
		return nil, nil
	}

	meta := &queryMetadata{
		operationType: string(op.Operation),
		variableCount: len(op.VariableDefinitions),
	}
	if op.Name != nil {
		meta.operationName = op.Name.Value
	}
	if op.SelectionSet != nil {
		meta.rootFields = rootFieldNames(op.SelectionSet, fragments, map[string]bool{})
		meta.fieldCount, meta.selectionDepth = countFieldsAndDepth(op.SelectionSet, fragments, 1, map[string]bool{}, map[string]bool{})
	}
	return meta, nil
}

// selectOperation picks the named operation, or the first one when no name
// is given. A name that matches nothing selects nothing.
func selectOperation(operations []*ast.OperationDefinition, name string) *ast.OperationDefinition {
	if name == "" {
		if len(operations) == 0 {
			return nil
		}
		return operations[0]
	}
	for _, op := range operations {
		if op.Name != nil && op.Name.Value == name {
			return op
		}
	}
	return nil
}

func rootFieldNames(selectionSet *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, visited map[string]bool) []string {
	var names []string
	for _, selection := range selectionSet.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			names = append(names, sel.Name.Value)
		case *ast.InlineFragment:
			if sel.SelectionSet != nil {
				names = append(names, rootFieldNames(sel.SelectionSet, fragments, visited)...)
			}
		case *ast.FragmentSpread:
			name := sel.Name.Value
			if visited[name] {
				continue
			}
			visited[name] = true
			if frag, ok := fragments[name]; ok && frag.SelectionSet != nil {
				names = append(names, rootFieldNames(frag.SelectionSet, fragments, visited)...)
			}
		}
	}
	return names
}

func countFieldsAndDepth(selectionSet *ast.SelectionSet, fragments map[string]*ast.FragmentDefinition, currentDepth int, visited, inFlight map[string]bool) (fields, maxDepth int) {
	if selectionSet == nil {
		return 0, currentDepth - 1
	}
	maxDepth = currentDepth

	merge := func(nestedFields, nestedDepth int) {
		fields += nestedFields
		if nestedDepth > maxDepth {
			maxDepth = nestedDepth
		}
	}

	for _, selection := range selectionSet.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			fields++
			if sel.SelectionSet != nil {
				merge(countFieldsAndDepth(sel.SelectionSet, fragments, currentDepth+1, visited, inFlight))
			}
		case *ast.InlineFragment:
			if sel.SelectionSet != nil {
				merge(countFieldsAndDepth(sel.SelectionSet, fragments, currentDepth, visited, inFlight))
			}
		case *ast.FragmentSpread:
			name := sel.Name.Value
			// Each fragment is expanded at most once; cycles stop here.
			if inFlight[name] || visited[name] {
				continue
			}
			inFlight[name] = true
			visited[name] = true
			if frag, ok := fragments[name]; ok && frag.SelectionSet != nil {
				merge(countFieldsAndDepth(frag.SelectionSet, fragments, currentDepth, visited, inFlight))
			}
			delete(inFlight, name)
		}
	}
	return fields, maxDepth
}
