package expr

import "github.com/dshills/quantaplan/internal/sql/types"

// AffinityOf returns the affinity an expression contributes to a
// comparison. Columns carry their declared affinity and a scalar
// subquery carries the affinity of its first result column.
// Everything else has none.
func AffinityOf(e Expr) types.Affinity {
	switch e := e.(type) {
	case *ColumnRef:
		return e.Affinity
	case *Subquery:
		if e.Select != nil && len(e.Select.Fields) > 0 {
			return AffinityOf(e.Select.Fields[0])
		}
	}
	return types.AffinityUnset
}

// CollationOf returns the explicit or declared collation of e, or ""
// when e has none.
func CollationOf(e Expr) string {
	if c, ok := e.(*ColumnRef); ok {
		return c.Collation
	}
	return ""
}

// ComparisonCollation returns the collating sequence a binary
// comparison uses: the left operand's, else the right operand's,
// else BINARY.
func ComparisonCollation(left, right Expr) string {
	if c := CollationOf(left); c != "" {
		return types.NormalizeCollation(c)
	}
	if right != nil {
		if c := CollationOf(right); c != "" {
			return types.NormalizeCollation(c)
		}
	}
	return types.CollationBinary
}

// StringLiteral returns the text of a non-NULL string literal.
func StringLiteral(e Expr) (string, bool) {
	lit, ok := e.(*Literal)
	if !ok || !lit.Value.IsText() {
		return "", false
	}
	s, _ := lit.Value.AsString()
	return s, true
}
