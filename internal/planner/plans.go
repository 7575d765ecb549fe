package planner

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"realtypress-graphql/internal/entity"
	"realtypress-graphql/internal/sqlutil"
)

// PlanPrimaryKeys selects only the primary key of def, optionally filtered.
// No ORDER BY is applied, so rows come back in the store's natural order.
func PlanPrimaryKeys(def *entity.Definition, filter Filter) (SQLQuery, error) {
	builder := sq.Select(sqlutil.QuoteIdentifier(def.PrimaryKey)).
		From(sqlutil.QuoteIdentifier(def.Table))
	if filter != nil {
		if pred := filter.Predicate(); pred != nil {
			builder = builder.Where(pred)
		}
	}
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanByPK builds the single-row lookup by primary key.
func PlanByPK(def *entity.Definition, key interface{}) (SQLQuery, error) {
	query, args, err := sq.Select(quotedColumns(def)...).
		From(sqlutil.QuoteIdentifier(def.Table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(def.PrimaryKey): key}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanByPKs builds one IN lookup for a page of primary keys.
// Result order is unspecified; callers reorder by key.
func PlanByPKs(def *entity.Definition, keys []interface{}) (SQLQuery, error) {
	if len(keys) == 0 {
		return SQLQuery{}, nil
	}
	query, args, err := sq.Select(quotedColumns(def)...).
		From(sqlutil.QuoteIdentifier(def.Table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(def.PrimaryKey): keys}).
		PlaceholderFormat(sq.Question).
		ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}

// PlanRelated selects the rows of target whose column matches any of values.
// orderBy, when set, is applied after the match column so rows stay grouped.
func PlanRelated(target *entity.Definition, column string, values []interface{}, orderBy string) (SQLQuery, error) {
	if len(values) == 0 {
		return SQLQuery{}, nil
	}
	if _, ok := target.Column(column); !ok {
		return SQLQuery{}, fmt.Errorf("unknown column %s on %s", column, target.TypeName)
	}
	builder := sq.Select(quotedColumns(target)...).
		From(sqlutil.QuoteIdentifier(target.Table)).
		Where(sq.Eq{sqlutil.QuoteIdentifier(column): values})
	if orderBy != "" {
		if _, ok := target.Column(orderBy); !ok {
			return SQLQuery{}, fmt.Errorf("unknown column %s on %s", orderBy, target.TypeName)
		}
		builder = builder.OrderBy(
			sqlutil.QuoteIdentifier(column),
			sqlutil.QuoteIdentifier(orderBy),
			sqlutil.QuoteIdentifier(target.PrimaryKey),
		)
	}
	query, args, err := builder.PlaceholderFormat(sq.Question).ToSql()
	if err != nil {
		return SQLQuery{}, err
	}
	return SQLQuery{SQL: query, Args: args}, nil
}
