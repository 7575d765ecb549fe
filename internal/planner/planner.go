// Package planner converts resolver arguments into parameterized SQL statements
// against the RealtyPress tables.
package planner

import (
	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/sqlutil"
)

// SQLQuery represents a planned SQL statement with bound args.
type SQLQuery struct {
	SQL  string
	Args []interface{}
}

func quotedColumns(def *entity.Definition) []string {
	names := make([]string, len(def.Columns))
	for i, col := range def.Columns {
		names[i] = sqlutil.QuoteIdentifier(col.Name)
	}
	return names
}
