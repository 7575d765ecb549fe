package resolver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/glebarez/go-sqlite"
	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"realtypress-graphql/internal/dbexec"
	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/sqltype"
	"realtypress-graphql/internal/sqlutil"
)

func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()
	reg, err := entity.New("wp_")
	require.NoError(t, err)
	return reg
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return db, mock
}

func expectQuery(t *testing.T, mock sqlmock.Sqlmock, sql string, args []interface{}, rows *sqlmock.Rows) {
	t.Helper()

	query := "^" + regexp.QuoteMeta(sql) + "$"
	expectation := mock.ExpectQuery(query)
	if len(args) > 0 {
		expectation = expectation.WithArgs(toDriverValues(args)...)
	}
	expectation.WillReturnRows(rows)
}

func toDriverValues(args []interface{}) []driver.Value {
	values := make([]driver.Value, len(args))
	for i, arg := range args {
		values[i] = arg
	}
	return values
}

// entityRows builds sqlmock rows for def's full column list; unset columns are NULL.
func entityRows(def *entity.Definition, rows ...map[string]interface{}) *sqlmock.Rows {
	out := sqlmock.NewRows(def.ColumnNames())
	for _, row := range rows {
		values := make([]driver.Value, len(def.Columns))
		for i, col := range def.Columns {
			values[i] = row[col.Name]
		}
		out.AddRow(values...)
	}
	return out
}

func newSchema(t *testing.T, db *sql.DB, opts Options) graphql.Schema {
	t.Helper()
	r := NewResolver(dbexec.NewStandardExecutor(db), testRegistry(t), opts)
	schema, err := r.BuildGraphQLSchema()
	require.NoError(t, err)
	return schema
}

func execute(ctx context.Context, schema graphql.Schema, query string) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       ctx,
	})
}

// openStore creates an in-memory SQLite database with every RealtyPress table.
func openStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, def := range testRegistry(t).All() {
		cols := make([]string, len(def.Columns))
		for i, col := range def.Columns {
			colType := "TEXT"
			switch col.Type {
			case sqltype.TypeInt, sqltype.TypeBoolean:
				colType = "INTEGER"
			case sqltype.TypeFloat:
				colType = "REAL"
			}
			cols[i] = sqlutil.QuoteIdentifier(col.Name) + " " + colType
		}
		ddl := fmt.Sprintf("CREATE TABLE %s (%s)", sqlutil.QuoteIdentifier(def.Table), strings.Join(cols, ", "))
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}
	return db
}

func insertRow(t *testing.T, db *sql.DB, table string, values map[string]interface{}) {
	t.Helper()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	quoted := make([]string, len(names))
	placeholders := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, name := range names {
		quoted[i] = sqlutil.QuoteIdentifier(name)
		placeholders[i] = "?"
		args[i] = values[name]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		sqlutil.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func installResolverSpanRecorder(t *testing.T) (*tracetest.SpanRecorder, func()) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	tp.RegisterSpanProcessor(recorder)

	oldProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	return recorder, func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(oldProvider)
	}
}

func findEndedSpanByName(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, span := range spans {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func readSpanString(attrs []attribute.KeyValue, key string) string {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value.AsString()
		}
	}
	return ""
}
