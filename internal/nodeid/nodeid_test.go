package nodeid

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		typeName string
		key      interface{}
		wantKey  string
	}{
		{"Property", "1024", "1024"},
		{"RealtyOffice", "OFF-77", "OFF-77"},
		{"RealtyBoard", int64(12), "12"},
		{"PropertyPhoto", []byte("55"), "55"},
		{"RealtyAgent", "id:with:colons", "id:with:colons"},
		{"Property", "unicode-é", "unicode-é"},
	}

	for _, tt := range tests {
		t.Run(tt.typeName+"/"+tt.wantKey, func(t *testing.T) {
			id := Encode(tt.typeName, tt.key)
			typeName, key, err := Decode(id)
			require.NoError(t, err)
			assert.Equal(t, tt.typeName, typeName)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestEncode_Stable(t *testing.T) {
	assert.Equal(t, Encode("Property", "7"), Encode("Property", "7"))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("Property:7")), Encode("Property", "7"))
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"not base64":   "%%%",
		"no separator": base64.StdEncoding.EncodeToString([]byte("Property")),
		"empty type":   base64.StdEncoding.EncodeToString([]byte(":12")),
		"empty key":    base64.StdEncoding.EncodeToString([]byte("Property:")),
		"empty input":  "",
	}
	for name, id := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Decode(id)
			assert.ErrorIs(t, err, ErrInvalidID)
		})
	}
}

func TestDecodeFor(t *testing.T) {
	key, err := DecodeFor("Property", Encode("Property", "99"))
	require.NoError(t, err)
	assert.Equal(t, "99", key)

	_, err = DecodeFor("Property", Encode("RealtyOffice", "99"))
	require.ErrorIs(t, err, ErrTypeMismatch)
	assert.Contains(t, err.Error(), "expected Property, got RealtyOffice")

	_, err = DecodeFor("Property", "garbage!")
	assert.ErrorIs(t, err, ErrInvalidID)
}
