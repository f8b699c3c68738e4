package planner

import (
	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// FindTerm returns the first term of the form "cursor.column OP expr"
// whose operator is in op and whose right side uses none of the
// tables in notReady, or NoTerm. When index is given, terms whose
// affinity or collation the index cannot honor are skipped.
func (wc *WhereClause) FindTerm(cursor, column int, notReady Bitmask, op OpMask, index *catalog.Index) int {
	for i, t := range wc.terms {
		if t.LeftCursor != cursor || t.LeftColumn != column {
			continue
		}
		if t.PrereqRight&notReady != 0 || t.Operator&op == 0 {
			continue
		}
		if index != nil && t.Operator != OpISNULL && !indexCanServe(t, index, column) {
			continue
		}
		return i
	}
	return NoTerm
}

func indexCanServe(t *WhereTerm, index *catalog.Index, column int) bool {
	var ic *catalog.IndexColumn
	for k := range index.Columns {
		if index.Columns[k].Column.Ordinal() == column {
			ic = &index.Columns[k]
			break
		}
	}
	if ic == nil {
		return false
	}
	if !types.IndexAffinityOK(comparisonAffinity(t.Expr), ic.Column.Affinity) {
		return false
	}
	left, right := operands(t.Expr)
	return types.SameCollation(expr.ComparisonCollation(left, right), ic.Collation)
}

// comparisonAffinity returns the affinity a term compares under. An
// IN list compares under the affinity of its left side alone.
func comparisonAffinity(e expr.Expr) types.Affinity {
	left, right := operands(e)
	leftAff := expr.AffinityOf(left)
	if in, ok := e.(*expr.In); ok && in.Subquery != nil && len(in.Subquery.Fields) > 0 {
		return types.ComparisonAffinity(leftAff, expr.AffinityOf(in.Subquery.Fields[0]))
	}
	if right != nil {
		return types.ComparisonAffinity(leftAff, expr.AffinityOf(right))
	}
	if leftAff == types.AffinityUnset {
		return types.AffinityBlob
	}
	return leftAff
}
