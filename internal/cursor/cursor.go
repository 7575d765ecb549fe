// Package cursor encodes and decodes Relay-style connection cursors.
// Cursors are opaque base64-encoded JSON objects carrying the connection
// type they were issued for and the zero-based position in the result list.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const version = 1

// ErrInvalidCursor reports a cursor that cannot be used for the current connection.
var ErrInvalidCursor = errors.New("invalid cursor")

type payload struct {
	Version  int    `json:"v"`
	TypeName string `json:"t"`
	Offset   int    `json:"o"`
}

// Encode builds an opaque cursor for the item at offset within a typeName connection.
func Encode(typeName string, offset int) string {
	data, err := json.Marshal(payload{Version: version, TypeName: typeName, Offset: offset})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Decode parses a cursor into its type name and offset.
func Decode(raw string) (string, int, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", 0, fmt.Errorf("%w: malformed payload", ErrInvalidCursor)
	}
	if p.Version != version {
		return "", 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidCursor, p.Version)
	}
	if p.TypeName == "" {
		return "", 0, fmt.Errorf("%w: missing type", ErrInvalidCursor)
	}
	if p.Offset < 0 {
		return "", 0, fmt.Errorf("%w: negative offset", ErrInvalidCursor)
	}
	return p.TypeName, p.Offset, nil
}

// DecodeFor decodes raw and confirms it was issued for expectedType.
func DecodeFor(expectedType, raw string) (int, error) {
	typeName, offset, err := Decode(raw)
	if err != nil {
		return 0, err
	}
	if typeName != expectedType {
		return 0, fmt.Errorf("%w: cursor type mismatch: expected %s, got %s", ErrInvalidCursor, expectedType, typeName)
	}
	return offset, nil
}
