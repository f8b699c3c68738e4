package expr

import "github.com/dshills/quantaplan/internal/sql/types"

// Constructors used by the binder, the planner rewrites and tests.

// Col builds a column reference.
func Col(cursor, column int, table, name string, affinity types.Affinity) *ColumnRef {
	return &ColumnRef{Cursor: cursor, Column: column, Table: table, Name: name, Affinity: affinity}
}

// Rowid builds a reference to the rowid of cursor.
func Rowid(cursor int, table string) *ColumnRef {
	return &ColumnRef{Cursor: cursor, Column: RowidColumn, Table: table, Name: "rowid", Affinity: types.AffinityInteger}
}

// Str builds a string literal.
func Str(s string) *Literal {
	return &Literal{Value: types.NewValue(s)}
}

// Int builds an integer literal.
func Int(v int64) *Literal {
	return &Literal{Value: types.NewValue(v)}
}

// Float builds a floating point literal.
func Float(v float64) *Literal {
	return &Literal{Value: types.NewValue(v)}
}

// Null builds the NULL literal.
func Null() *Literal {
	return &Literal{Value: types.NewNullValue()}
}

// Binary builds a binary operation.
func Binary(op BinaryOperator, left, right Expr) *BinaryOp {
	return &BinaryOp{Left: left, Right: right, Operator: op}
}

// Eq builds left = right.
func Eq(left, right Expr) *BinaryOp { return Binary(OpEqual, left, right) }

// Lt builds left < right.
func Lt(left, right Expr) *BinaryOp { return Binary(OpLess, left, right) }

// Le builds left <= right.
func Le(left, right Expr) *BinaryOp { return Binary(OpLessEqual, left, right) }

// Gt builds left > right.
func Gt(left, right Expr) *BinaryOp { return Binary(OpGreater, left, right) }

// Ge builds left >= right.
func Ge(left, right Expr) *BinaryOp { return Binary(OpGreaterEqual, left, right) }

// And folds the operands into a left-deep AND tree. Nil operands are
// skipped; And of nothing is nil.
func And(operands ...Expr) Expr {
	return fold(OpAnd, operands)
}

// Or folds the operands into a left-deep OR tree.
func Or(operands ...Expr) Expr {
	return fold(OpOr, operands)
}

// Match builds the full-text operator MATCH(pattern, column).
func Match(pattern, column Expr) *FunctionCall {
	return &FunctionCall{Name: "match", Args: []Expr{pattern, column}}
}

func fold(op BinaryOperator, operands []Expr) Expr {
	var out Expr
	for _, e := range operands {
		if e == nil {
			continue
		}
		if out == nil {
			out = e
			continue
		}
		out = Binary(op, out, e)
	}
	return out
}
