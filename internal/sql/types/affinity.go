package types

import "strings"

// Affinity is the preferred storage class of a column. Comparisons
// coerce operands toward it, which decides whether an index on the
// column can answer the comparison.
type Affinity uint8

const (
	// AffinityUnset marks expressions with no affinity of their own,
	// such as literals and function results.
	AffinityUnset Affinity = iota
	// AffinityBlob compares values exactly as stored.
	AffinityBlob
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

var affinityNames = [...]string{
	AffinityUnset:   "UNSET",
	AffinityBlob:    "BLOB",
	AffinityText:    "TEXT",
	AffinityNumeric: "NUMERIC",
	AffinityInteger: "INTEGER",
	AffinityReal:    "REAL",
}

func (a Affinity) String() string {
	if int(a) < len(affinityNames) {
		return affinityNames[a]
	}
	return "UNKNOWN"
}

// IsNumeric reports whether the affinity converts text to numbers.
func (a Affinity) IsNumeric() bool {
	return a >= AffinityNumeric
}

// AffinityOf derives a column affinity from its declared type name.
// The rules are checked in order:
//
//	contains "INT"                     -> INTEGER
//	contains "CHAR", "CLOB" or "TEXT"  -> TEXT
//	contains "BLOB" or is empty        -> BLOB
//	contains "REAL", "FLOA" or "DOUB"  -> REAL
//	otherwise                          -> NUMERIC
func AffinityOf(declType string) Affinity {
	t := strings.ToUpper(declType)
	switch {
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case strings.Contains(t, "BLOB"), strings.TrimSpace(t) == "":
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// ComparisonAffinity returns the affinity a binary comparison applies
// to its operands. When both sides carry an affinity a numeric one
// wins, otherwise values are compared as stored. When only one side
// carries an affinity it is used.
func ComparisonAffinity(left, right Affinity) Affinity {
	switch {
	case left != AffinityUnset && right != AffinityUnset:
		if left.IsNumeric() || right.IsNumeric() {
			return AffinityNumeric
		}
		return AffinityBlob
	case left == AffinityUnset && right == AffinityUnset:
		return AffinityBlob
	case left != AffinityUnset:
		return left
	default:
		return right
	}
}

// IndexAffinityOK reports whether a comparison performed under cmp can
// be answered by an index on a column with affinity col. Text
// comparisons need a text column, numeric comparisons any numeric
// column, and comparisons without affinity work on every column.
func IndexAffinityOK(cmp, col Affinity) bool {
	switch {
	case cmp == AffinityUnset, cmp == AffinityBlob:
		return true
	case cmp == AffinityText:
		return col == AffinityText
	default:
		return col.IsNumeric()
	}
}
