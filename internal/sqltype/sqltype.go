// Package sqltype defines the scalar categories columns are exposed as and
// converts scanned database values into them.
package sqltype

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// GraphQLType represents the category of GraphQL scalar type for a column.
type GraphQLType int

const (
	// TypeString is the default type for text, dates, and unknown SQL types.
	TypeString GraphQLType = iota
	// TypeInt represents integer numeric types.
	TypeInt
	// TypeFloat represents floating-point and fixed-point numeric types.
	TypeFloat
	// TypeBoolean represents boolean flags, stored as TINYINT(1) in RealtyPress tables.
	TypeBoolean
)

const dateTimeLayout = "2006-01-02 15:04:05"

// String returns the GraphQL scalar type name for schema generation.
func (t GraphQLType) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeBoolean:
		return "Boolean"
	default:
		return "String"
	}
}

// Coerce converts a value produced by the driver into the Go representation
// of t. Values that cannot be represented become nil so the field resolves to null.
func (t GraphQLType) Coerce(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	switch t {
	case TypeInt:
		return toInt(value)
	case TypeFloat:
		return toFloat(value)
	case TypeBoolean:
		return toBool(value)
	default:
		return toString(value)
	}
}

func toString(value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(dateTimeLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(value interface{}) interface{} {
	switch v := value.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int8:
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return nil
		}
		return int64(v)
	case uint32:
		return int64(v)
	case uint8:
		return int64(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil
		}
		return int64(v)
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

func toFloat(value interface{}) interface{} {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case uint64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return nil
		}
		return parsed
	default:
		return nil
	}
}

func toBool(value interface{}) interface{} {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case int:
		return v != 0
	case int32:
		return v != 0
	case int8:
		return v != 0
	case uint8:
		return v != 0
	case float64:
		return v != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		switch s {
		case "":
			return nil
		case "yes", "y", "on":
			return true
		case "no", "n", "off":
			return false
		}
		parsed, err := strconv.ParseBool(s)
		if err != nil {
			return nil
		}
		return parsed
	default:
		return nil
	}
}
