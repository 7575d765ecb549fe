package sqltype

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGraphQLTypeString(t *testing.T) {
	assert.Equal(t, "String", TypeString.String())
	assert.Equal(t, "Int", TypeInt.String())
	assert.Equal(t, "Float", TypeFloat.String())
	assert.Equal(t, "Boolean", TypeBoolean.String())
}

func TestCoerce_Nil(t *testing.T) {
	for _, typ := range []GraphQLType{TypeString, TypeInt, TypeFloat, TypeBoolean} {
		assert.Nil(t, typ.Coerce(nil), typ.String())
	}
}

func TestCoerce_String(t *testing.T) {
	assert.Equal(t, "Toronto", TypeString.Coerce([]byte("Toronto")))
	assert.Equal(t, "Toronto", TypeString.Coerce("Toronto"))
	assert.Equal(t, "42", TypeString.Coerce(int64(42)))
	assert.Equal(t, "499999.5", TypeString.Coerce(499999.5))
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01 09:30:00", TypeString.Coerce(ts))
}

func TestCoerce_Int(t *testing.T) {
	assert.Equal(t, int64(3), TypeInt.Coerce(int64(3)))
	assert.Equal(t, int64(3), TypeInt.Coerce([]byte("3")))
	assert.Equal(t, int64(3), TypeInt.Coerce(" 3 "))
	assert.Equal(t, int64(3), TypeInt.Coerce(float64(3)))
	assert.Equal(t, int64(1), TypeInt.Coerce(true))
	assert.Nil(t, TypeInt.Coerce(3.5))
	assert.Nil(t, TypeInt.Coerce("three"))
	assert.Nil(t, TypeInt.Coerce(uint64(math.MaxUint64)))
}

func TestCoerce_Float(t *testing.T) {
	assert.Equal(t, 525000.0, TypeFloat.Coerce([]byte("525000.00")))
	assert.Equal(t, 12.0, TypeFloat.Coerce(int64(12)))
	assert.Equal(t, 1.5, TypeFloat.Coerce(1.5))
	assert.Nil(t, TypeFloat.Coerce("n/a"))
	assert.Nil(t, TypeFloat.Coerce("NaN"))
	assert.Nil(t, TypeFloat.Coerce(math.Inf(1)))
}

func TestCoerce_Boolean(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  interface{}
	}{
		{"tinyint one", int64(1), true},
		{"tinyint zero", int64(0), false},
		{"bytes one", []byte("1"), true},
		{"bytes zero", []byte("0"), false},
		{"true string", "true", true},
		{"yes string", "Yes", true},
		{"no string", "no", false},
		{"bool", true, true},
		{"empty string", "", nil},
		{"garbage", "maybe", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeBoolean.Coerce(tt.input))
		})
	}
}
