package planner

import "github.com/dshills/quantaplan/internal/sql/expr"

// ExprUsage returns the set of registered tables e refers to. Tables
// referenced only inside subqueries count too, so a correlated
// subquery depends on the outer tables it mentions.
func (ms *MaskSet) ExprUsage(e expr.Expr) Bitmask {
	switch e := e.(type) {
	case nil:
		return 0
	case *expr.ColumnRef:
		return ms.Mask(e.Cursor)
	case *expr.Literal:
		return 0
	case *expr.BinaryOp:
		return ms.ExprUsage(e.Left) | ms.ExprUsage(e.Right)
	case *expr.UnaryOp:
		return ms.ExprUsage(e.Expr)
	case *expr.IsNull:
		return ms.ExprUsage(e.Expr)
	case *expr.In:
		return ms.ExprUsage(e.Left) | ms.ListUsage(e.List) | ms.SelectUsage(e.Subquery)
	case *expr.Between:
		return ms.ExprUsage(e.Expr) | ms.ExprUsage(e.Low) | ms.ExprUsage(e.High)
	case *expr.Like:
		return ms.ExprUsage(e.Left) | ms.ExprUsage(e.Pattern)
	case *expr.FunctionCall:
		return ms.ListUsage(e.Args)
	case *expr.Subquery:
		return ms.SelectUsage(e.Select)
	case *expr.Exists:
		return ms.SelectUsage(e.Select)
	default:
		return 0
	}
}

// ListUsage is the union of ExprUsage over list.
func (ms *MaskSet) ListUsage(list []expr.Expr) Bitmask {
	var m Bitmask
	for _, e := range list {
		m |= ms.ExprUsage(e)
	}
	return m
}

// SelectUsage is the union over the result columns, WHERE, GROUP BY,
// HAVING and ORDER BY of a nested SELECT.
func (ms *MaskSet) SelectUsage(s *expr.Select) Bitmask {
	if s == nil {
		return 0
	}
	m := ms.ListUsage(s.Fields)
	m |= ms.ExprUsage(s.Where)
	m |= ms.ListUsage(s.GroupBy)
	m |= ms.ExprUsage(s.Having)
	m |= ms.ListUsage(s.OrderBy)
	return m
}
