package binder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/sql/types"
)

var binaryOps = map[opcode.Op]expr.BinaryOperator{
	opcode.LogicAnd: expr.OpAnd,
	opcode.LogicOr:  expr.OpOr,
	opcode.EQ:       expr.OpEqual,
	opcode.NE:       expr.OpNotEqual,
	opcode.LT:       expr.OpLess,
	opcode.LE:       expr.OpLessEqual,
	opcode.GT:       expr.OpGreater,
	opcode.GE:       expr.OpGreaterEqual,
	opcode.Plus:     expr.OpAdd,
	opcode.Minus:    expr.OpSubtract,
	opcode.Mul:      expr.OpMultiply,
	opcode.Div:      expr.OpDivide,
}

// rowidNames bind to the rowid unless a real column shadows them.
var rowidNames = map[string]bool{"rowid": true, "_rowid_": true, "oid": true}

func (st *state) bindExpr(sc *scope, node ast.ExprNode) (expr.Expr, error) {
	switch n := node.(type) {
	case *ast.ParenthesesExpr:
		return st.bindExpr(sc, n.Expr)

	case *ast.ColumnNameExpr:
		return st.resolveColumn(sc, n.Name)

	case ast.ValueExpr:
		return literal(n.GetValue())

	case *ast.BinaryOperationExpr:
		op, ok := binaryOps[n.Op]
		if !ok {
			return nil, errors.FeatureNotSupportedError("operator " + n.Op.String())
		}
		left, err := st.bindExpr(sc, n.L)
		if err != nil {
			return nil, err
		}
		right, err := st.bindExpr(sc, n.R)
		if err != nil {
			return nil, err
		}
		return expr.Binary(op, left, right), nil

	case *ast.UnaryOperationExpr:
		operand, err := st.bindExpr(sc, n.V)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case opcode.Not, opcode.Not2:
			return &expr.UnaryOp{Operator: expr.OpNot, Expr: operand}, nil
		case opcode.Minus:
			return &expr.UnaryOp{Operator: expr.OpNegate, Expr: operand}, nil
		case opcode.Plus:
			return operand, nil
		}
		return nil, errors.FeatureNotSupportedError("operator " + n.Op.String())

	case *ast.IsNullExpr:
		operand, err := st.bindExpr(sc, n.Expr)
		if err != nil {
			return nil, err
		}
		return &expr.IsNull{Expr: operand, Not: n.Not}, nil

	case *ast.BetweenExpr:
		operands, err := st.bindExprs(sc, n.Expr, n.Left, n.Right)
		if err != nil {
			return nil, err
		}
		return &expr.Between{Expr: operands[0], Low: operands[1], High: operands[2], Not: n.Not}, nil

	case *ast.PatternInExpr:
		left, err := st.bindExpr(sc, n.Expr)
		if err != nil {
			return nil, err
		}
		in := &expr.In{Left: left, Not: n.Not}
		if n.Sel != nil {
			sub, ok := n.Sel.(*ast.SubqueryExpr)
			if !ok {
				return nil, errors.FeatureNotSupportedError(typeName(n.Sel) + " in IN")
			}
			if in.Subquery, err = st.bindSelect(sc, sub.Query); err != nil {
				return nil, err
			}
			return in, nil
		}
		if in.List, err = st.bindExprs(sc, n.List...); err != nil {
			return nil, err
		}
		return in, nil

	case *ast.PatternLikeOrIlikeExpr:
		operands, err := st.bindExprs(sc, n.Expr, n.Pattern)
		if err != nil {
			return nil, err
		}
		like := &expr.Like{Left: operands[0], Pattern: operands[1], Not: n.Not}
		if pattern, ok := expr.StringLiteral(like.Pattern); ok && strings.IndexByte(pattern, n.Escape) >= 0 {
			like.Escape = rune(n.Escape)
		}
		return like, nil

	case *ast.SetCollationExpr:
		operand, err := st.bindExpr(sc, n.Expr)
		if err != nil {
			return nil, err
		}
		col, ok := operand.(*expr.ColumnRef)
		if !ok {
			return nil, errors.FeatureNotSupportedError("COLLATE on an expression")
		}
		withCollation := *col
		withCollation.Collation = collationName(n.Collate)
		return &withCollation, nil

	case *ast.MatchAgainst:
		if len(n.ColumnNames) != 1 {
			return nil, errors.FeatureNotSupportedError("MATCH over several columns")
		}
		col, err := st.resolveColumn(sc, n.ColumnNames[0])
		if err != nil {
			return nil, err
		}
		against, err := st.bindExpr(sc, n.Against)
		if err != nil {
			return nil, err
		}
		return expr.Match(against, col), nil

	case *ast.FuncCallExpr:
		return st.bindCall(sc, n.FnName.L, n.Args)

	case *ast.AggregateFuncExpr:
		return st.bindCall(sc, strings.ToLower(n.F), n.Args)

	case *ast.SubqueryExpr:
		sel, err := st.bindSelect(sc, n.Query)
		if err != nil {
			return nil, err
		}
		if n.Exists {
			return &expr.Exists{Select: sel}, nil
		}
		return &expr.Subquery{Select: sel}, nil

	case *ast.ExistsSubqueryExpr:
		sub, ok := n.Sel.(*ast.SubqueryExpr)
		if !ok {
			return nil, errors.FeatureNotSupportedError(typeName(n.Sel) + " in EXISTS")
		}
		sel, err := st.bindSelect(sc, sub.Query)
		if err != nil {
			return nil, err
		}
		return &expr.Exists{Select: sel, Not: n.Not}, nil
	}
	return nil, errors.FeatureNotSupportedError(typeName(node))
}

func (st *state) bindExprs(sc *scope, nodes ...ast.ExprNode) ([]expr.Expr, error) {
	out := make([]expr.Expr, len(nodes))
	for i, n := range nodes {
		e, err := st.bindExpr(sc, n)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// bindCall binds a function call. glob(P, X) and like(P, X) are the
// function forms of X GLOB P and X LIKE P.
func (st *state) bindCall(sc *scope, name string, args []ast.ExprNode) (expr.Expr, error) {
	bound, err := st.bindExprs(sc, args...)
	if err != nil {
		return nil, err
	}
	if len(bound) == 2 {
		switch name {
		case "glob":
			return &expr.Like{Left: bound[1], Pattern: bound[0], Glob: true}, nil
		case "like":
			return &expr.Like{Left: bound[1], Pattern: bound[0]}, nil
		}
	}
	return &expr.FunctionCall{Name: name, Args: bound}, nil
}

// resolveColumn binds a column name in sc or, failing that, in the
// nearest enclosing scope that has it.
func (st *state) resolveColumn(sc *scope, name *ast.ColumnName) (*expr.ColumnRef, error) {
	qualifier := name.Table.L
	for s := sc; s != nil; s = s.parent {
		ref, err := s.lookup(qualifier, name.Name.O)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			return ref, nil
		}
	}
	return nil, errors.UndefinedColumnError(name.Name.O, name.Table.O)
}

// lookup finds column in the scope. It returns nil, nil when no table
// of the scope has it.
func (s *scope) lookup(qualifier, column string) (*expr.ColumnRef, error) {
	var found *expr.ColumnRef
	var rowid *expr.ColumnRef
	matches := 0
	for _, it := range s.items {
		if qualifier != "" && strings.ToLower(it.label()) != qualifier {
			continue
		}
		table := it.item.Table
		col, ord := table.FindColumn(column)
		if col == nil {
			if rowidNames[strings.ToLower(column)] {
				if rowid != nil && qualifier == "" {
					return nil, errors.AmbiguousColumnError(column)
				}
				rowid = expr.Rowid(it.item.Cursor, it.label())
			}
			continue
		}
		matches++
		if matches > 1 {
			return nil, errors.AmbiguousColumnError(column)
		}
		if ord == table.RowidAlias {
			found = expr.Rowid(it.item.Cursor, it.label())
			found.Name = col.Name
			found.Affinity = col.Affinity
			continue
		}
		it.item.ColumnsUsed = it.item.ColumnsUsed.Add(ord)
		found = &expr.ColumnRef{
			Cursor:    it.item.Cursor,
			Column:    ord,
			Table:     it.label(),
			Name:      col.Name,
			Affinity:  col.Affinity,
			Collation: col.Collation,
		}
	}
	if found != nil {
		return found, nil
	}
	return rowid, nil
}

// literal converts a parser constant. Decimal constants become floats.
func literal(v interface{}) (*expr.Literal, error) {
	switch x := v.(type) {
	case nil:
		return expr.Null(), nil
	case int64:
		return expr.Int(x), nil
	case uint64:
		return &expr.Literal{Value: types.NewValue(x)}, nil
	case float64:
		return expr.Float(x), nil
	case float32:
		return expr.Float(float64(x)), nil
	case string:
		return expr.Str(x), nil
	case []byte:
		return &expr.Literal{Value: types.NewValue(x)}, nil
	case fmt.Stringer:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return nil, errors.FeatureNotSupportedError(fmt.Sprintf("constant %s", x))
		}
		return expr.Float(f), nil
	}
	return nil, errors.FeatureNotSupportedError(fmt.Sprintf("constant of type %T", v))
}

// collationName maps a MySQL collation to a collating sequence:
// case-insensitive collations compare as NOCASE, all others as BINARY.
func collationName(name string) string {
	if types.IsBuiltinCollation(name) {
		return types.NormalizeCollation(name)
	}
	if strings.HasSuffix(strings.ToLower(name), "_ci") {
		return types.CollationNoCase
	}
	return types.CollationBinary
}

func typeName(v interface{}) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*ast.")
}
