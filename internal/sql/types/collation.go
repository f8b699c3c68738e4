package types

import "strings"

// Built-in collating sequences.
const (
	CollationBinary = "BINARY"
	CollationNoCase = "NOCASE"
	CollationRTrim  = "RTRIM"
)

// NormalizeCollation upper-cases a collation name; the empty name
// means BINARY.
func NormalizeCollation(name string) string {
	if name == "" {
		return CollationBinary
	}
	return strings.ToUpper(name)
}

// SameCollation compares collation names case-insensitively, treating
// the empty name as BINARY.
func SameCollation(a, b string) bool {
	return strings.EqualFold(NormalizeCollation(a), NormalizeCollation(b))
}

// IsBuiltinCollation reports whether name is one of the built-in
// collating sequences.
func IsBuiltinCollation(name string) bool {
	switch NormalizeCollation(name) {
	case CollationBinary, CollationNoCase, CollationRTrim:
		return true
	}
	return false
}
