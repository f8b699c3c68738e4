package planner

import (
	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// OrderTerm is one ORDER BY term.
type OrderTerm struct {
	Expr expr.Expr
	Desc bool
	// Collation overrides the collation of Expr when set.
	Collation string
}

func (o OrderTerm) collation() string {
	if o.Collation != "" {
		return types.NormalizeCollation(o.Collation)
	}
	return types.NormalizeCollation(expr.CollationOf(o.Expr))
}

func (o OrderTerm) String() string {
	s := o.Expr.String()
	if o.Collation != "" {
		s += " COLLATE " + o.Collation
	}
	if o.Desc {
		s += " DESC"
	}
	return s
}

// referencesOtherTables reports whether any ORDER BY term from position
// start on uses a table other than cursor.
func (ms *MaskSet) referencesOtherTables(orderBy []OrderTerm, start, cursor int) bool {
	self := ms.Mask(cursor)
	for _, o := range orderBy[start:] {
		if ms.ExprUsage(o.Expr)&^self != 0 {
			return true
		}
	}
	return false
}

// SortableByRowid reports whether scanning cursor in rowid order
// yields orderBy, and whether the scan must run backwards.
func (ms *MaskSet) SortableByRowid(cursor int, orderBy []OrderTerm) (reverse, ok bool) {
	if len(orderBy) == 0 {
		return false, false
	}
	col, isCol := orderBy[0].Expr.(*expr.ColumnRef)
	if !isCol || col.Cursor != cursor || !col.IsRowid() {
		return false, false
	}
	if ms.referencesOtherTables(orderBy, 1, cursor) {
		return false, false
	}
	return orderBy[0].Desc, true
}

// IsSortingIndex reports whether scanning index on cursor with its
// first nEq columns pinned by equality yields orderBy, and whether the
// scan must run backwards. The rowid acts as an implicit last index
// column.
func (ms *MaskSet) IsSortingIndex(index *catalog.Index, table *catalog.Table, cursor int, orderBy []OrderTerm, nEq int) (reverse, ok bool) {
	ncols := index.ColumnCount()
	sortDesc := false
	i, j := 0, 0
	for ; j < len(orderBy) && i <= ncols; i++ {
		term := orderBy[j]
		col, isCol := term.Expr.(*expr.ColumnRef)
		if !isCol || col.Cursor != cursor {
			break
		}
		termColl := term.collation()

		var column int
		var idxDesc bool
		var idxColl string
		if i < ncols {
			ic := index.Columns[i]
			column = ic.Column.Ordinal()
			if column == table.RowidAlias {
				column = expr.RowidColumn
			}
			idxDesc = ic.SortOrder == catalog.Descending
			idxColl = types.NormalizeCollation(ic.Collation)
		} else {
			column = expr.RowidColumn
			idxColl = termColl
		}

		if col.Column != column || termColl != idxColl {
			if i < nEq {
				// Pinned by equality; skipping it keeps the order.
				continue
			}
			if i == ncols {
				break
			}
			return false, false
		}

		termDesc := idxDesc != term.Desc
		if i > nEq {
			if termDesc != sortDesc {
				return false, false
			}
		} else {
			sortDesc = termDesc
		}
		j++
		if column == expr.RowidColumn {
			// Rows are unique past the rowid.
			if !ms.referencesOtherTables(orderBy, j, cursor) {
				j = len(orderBy)
			}
			break
		}
	}

	if j >= len(orderBy) {
		return sortDesc, true
	}
	if index.IsUnique && i == ncols && !ms.referencesOtherTables(orderBy, j, cursor) {
		return sortDesc, true
	}
	return false, false
}
