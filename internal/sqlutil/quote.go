// Package sqlutil provides SQL utility functions.
package sqlutil

import (
	"regexp"
	"strings"
)

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with backticks and escapes any backticks within the identifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}

// ValidTablePrefix reports whether prefix is safe to prepend to a fixed table name.
// WordPress accepts letters, digits and underscores only.
func ValidTablePrefix(prefix string) bool {
	return tablePrefixPattern.MatchString(prefix)
}
