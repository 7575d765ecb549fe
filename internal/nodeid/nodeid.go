// Package nodeid encodes and decodes Relay-style global node IDs.
//
// An ID is the standard base64 encoding of "<TypeName>:<primary key>", the
// same shape WPGraphQL clients already understand.
package nodeid

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidID reports an ID that is not valid base64 or lacks a type or key.
	ErrInvalidID = errors.New("invalid id")
	// ErrTypeMismatch reports a well-formed ID that belongs to another type.
	ErrTypeMismatch = errors.New("id type mismatch")
)

// Encode builds the global ID for a type name and primary key value.
func Encode(typeName string, key interface{}) string {
	return base64.StdEncoding.EncodeToString([]byte(typeName + ":" + KeyString(key)))
}

// Decode parses a global ID into its type name and raw key.
// The split happens at the first colon, so keys may contain colons.
func Decode(id string) (string, string, error) {
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	typeName, key, found := strings.Cut(string(raw), ":")
	if !found {
		return "", "", fmt.Errorf("%w: missing separator", ErrInvalidID)
	}
	if typeName == "" {
		return "", "", fmt.Errorf("%w: missing type name", ErrInvalidID)
	}
	if key == "" {
		return "", "", fmt.Errorf("%w: missing primary key", ErrInvalidID)
	}
	return typeName, key, nil
}

// DecodeFor decodes id and checks it was minted for expectedType.
func DecodeFor(expectedType, id string) (string, error) {
	typeName, key, err := Decode(id)
	if err != nil {
		return "", err
	}
	if typeName != expectedType {
		return "", fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, expectedType, typeName)
	}
	return key, nil
}

// KeyString renders a primary key value the way it appears inside an ID.
func KeyString(key interface{}) string {
	switch v := key.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
