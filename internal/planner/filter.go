package planner

import (
	"math"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"realtypress-graphql/internal/sqlutil"
)

// Filter contributes a WHERE predicate to a primary-key listing.
type Filter interface {
	// Predicate returns nil when the filter constrains nothing.
	Predicate() sq.Sqlizer
}

// PropertyFilter is the parsed PropertyFilterInput. Nil fields are absent.
type PropertyFilter struct {
	City     *string
	MinPrice *float64
}

// ParsePropertyFilter reads the recognized keys of a where argument.
// Unknown keys are ignored. An empty or blank City and a non-finite
// minPrice are treated as absent.
func ParsePropertyFilter(where map[string]interface{}) PropertyFilter {
	var f PropertyFilter
	if where == nil {
		return f
	}
	if city, ok := where["City"].(string); ok && strings.TrimSpace(city) != "" {
		f.City = &city
	}
	if price, ok := toFloat(where["minPrice"]); ok {
		f.MinPrice = &price
	}
	return f
}

// IsEmpty reports whether no condition applies.
func (f PropertyFilter) IsEmpty() bool {
	return f.City == nil && f.MinPrice == nil
}

// Predicate builds the conjunction, always City before Price.
func (f PropertyFilter) Predicate() sq.Sqlizer {
	var conds sq.And
	if f.City != nil {
		conds = append(conds, sq.Eq{sqlutil.QuoteIdentifier("City"): *f.City})
	}
	if f.MinPrice != nil {
		conds = append(conds, sq.GtOrEq{sqlutil.QuoteIdentifier("Price"): *f.MinPrice})
	}
	if len(conds) == 0 {
		return nil
	}
	return conds
}

func toFloat(raw interface{}) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
