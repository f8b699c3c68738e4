// Package expr defines the bound expression tree the WHERE planner
// analyzes. Column references are already resolved to cursors and
// column ordinals.
package expr

import (
	"fmt"
	"strings"

	"github.com/dshills/quantaplan/internal/sql/types"
)

// Expr is a bound SQL expression.
type Expr interface {
	// String renders the expression as SQL.
	String() string
	exprNode()
}

// RowidColumn is the column ordinal of the implicit rowid.
const RowidColumn = -1

// ColumnRef references a column of the table open on Cursor.
type ColumnRef struct {
	Cursor    int
	Column    int // RowidColumn for the rowid
	Table     string
	Name      string
	Affinity  types.Affinity
	Collation string // empty means BINARY
}

// IsRowid reports whether the reference is to the implicit rowid.
func (c *ColumnRef) IsRowid() bool {
	return c.Column == RowidColumn
}

func (c *ColumnRef) String() string {
	name := c.Name
	if name == "" {
		if c.IsRowid() {
			name = "rowid"
		} else {
			name = fmt.Sprintf("col%d", c.Column)
		}
	}
	if c.Table != "" {
		return quoteIdent(c.Table) + "." + quoteIdent(name)
	}
	return quoteIdent(name)
}

// Literal is a constant. Literals carry no affinity and no collation.
type Literal struct {
	Value types.Value
}

func (l *Literal) String() string {
	if l.Value.IsNull() {
		return "NULL"
	}
	switch v := l.Value.Data.(type) {
	case string:
		return quoteLiteral(v)
	case []byte:
		return fmt.Sprintf("X'%X'", v)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", l.Value.Data)
	}
}

// BinaryOperator represents a binary operator.
type BinaryOperator int

const (
	// Logical operators
	OpAnd BinaryOperator = iota
	OpOr

	// Comparison operators
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// Arithmetic operators
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide

	// String operators
	OpConcat
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpConcat:
		return "||"
	default:
		return fmt.Sprintf("Unknown(%d)", int(op))
	}
}

// Commute returns the operator that gives the same result with the
// operands swapped.
func (op BinaryOperator) Commute() BinaryOperator {
	switch op {
	case OpLess:
		return OpGreater
	case OpLessEqual:
		return OpGreaterEqual
	case OpGreater:
		return OpLess
	case OpGreaterEqual:
		return OpLessEqual
	default:
		return op
	}
}

// BinaryOp is a binary operation.
type BinaryOp struct {
	Left     Expr
	Right    Expr
	Operator BinaryOperator
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left.String(), b.Operator.String(), b.Right.String())
}

// Commuted returns a new comparison with the operands swapped and the
// operator adjusted to keep its meaning.
func (b *BinaryOp) Commuted() *BinaryOp {
	return &BinaryOp{Left: b.Right, Right: b.Left, Operator: b.Operator.Commute()}
}

// UnaryOperator represents a unary operator.
type UnaryOperator int

const (
	OpNot UnaryOperator = iota
	OpNegate
)

// UnaryOp is a unary operation.
type UnaryOp struct {
	Operator UnaryOperator
	Expr     Expr
}

func (u *UnaryOp) String() string {
	if u.Operator == OpNot {
		return fmt.Sprintf("(NOT %s)", u.Expr.String())
	}
	return fmt.Sprintf("(-%s)", u.Expr.String())
}

// IsNull is "expr IS NULL" or "expr IS NOT NULL".
type IsNull struct {
	Expr Expr
	Not  bool
}

func (n *IsNull) String() string {
	if n.Not {
		return fmt.Sprintf("(%s IS NOT NULL)", n.Expr.String())
	}
	return fmt.Sprintf("(%s IS NULL)", n.Expr.String())
}

// In is "left IN (list)" or "left IN (subquery)". Exactly one of List
// and Subquery is set.
type In struct {
	Left     Expr
	List     []Expr
	Subquery *Select
	Not      bool
}

func (in *In) String() string {
	op := "IN"
	if in.Not {
		op = "NOT IN"
	}
	if in.Subquery != nil {
		return fmt.Sprintf("(%s %s (%s))", in.Left.String(), op, in.Subquery.String())
	}
	return fmt.Sprintf("(%s %s (%s))", in.Left.String(), op, joinExprs(in.List))
}

// Between is "expr BETWEEN low AND high".
type Between struct {
	Expr Expr
	Low  Expr
	High Expr
	Not  bool
}

func (b *Between) String() string {
	op := "BETWEEN"
	if b.Not {
		op = "NOT BETWEEN"
	}
	return fmt.Sprintf("(%s %s %s AND %s)", b.Expr.String(), op, b.Low.String(), b.High.String())
}

// Like is "left LIKE pattern" or "left GLOB pattern".
type Like struct {
	Left    Expr
	Pattern Expr
	Glob    bool
	Not     bool
	Escape  rune // 0 when the pattern has no escape character
}

func (l *Like) String() string {
	op := "LIKE"
	if l.Glob {
		op = "GLOB"
	}
	if l.Not {
		op = "NOT " + op
	}
	s := fmt.Sprintf("%s %s %s", l.Left.String(), op, l.Pattern.String())
	if l.Escape != 0 {
		s += " ESCAPE " + quoteLiteral(string(l.Escape))
	}
	return "(" + s + ")"
}

// FunctionCall is a call of a scalar function. A call named "match"
// with two arguments is the full-text MATCH operator with its
// arguments in (pattern, column) order.
type FunctionCall struct {
	Name string
	Args []Expr
}

func (f *FunctionCall) String() string {
	return fmt.Sprintf("%s(%s)", f.Name, joinExprs(f.Args))
}

// Subquery is a scalar subquery.
type Subquery struct {
	Select *Select
}

func (s *Subquery) String() string {
	return "(" + s.Select.String() + ")"
}

// Exists is "EXISTS (subquery)".
type Exists struct {
	Select *Select
	Not    bool
}

func (e *Exists) String() string {
	if e.Not {
		return "(NOT EXISTS (" + e.Select.String() + "))"
	}
	return "(EXISTS (" + e.Select.String() + "))"
}

// Select is a bound nested SELECT. Only the parts that can reference
// outer tables are kept.
type Select struct {
	Fields  []Expr
	From    []string
	Where   Expr
	GroupBy []Expr
	Having  Expr
	OrderBy []Expr
}

func (s *Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(s.Fields) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(joinExprs(s.Fields))
	}
	if len(s.From) > 0 {
		idents := make([]string, len(s.From))
		for i, name := range s.From {
			idents[i] = quoteIdent(name)
		}
		b.WriteString(" FROM ")
		b.WriteString(strings.Join(idents, ", "))
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where.String())
	}
	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(joinExprs(s.GroupBy))
	}
	if s.Having != nil {
		b.WriteString(" HAVING ")
		b.WriteString(s.Having.String())
	}
	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(joinExprs(s.OrderBy))
	}
	return b.String()
}

func (*ColumnRef) exprNode()    {}
func (*Literal) exprNode()      {}
func (*BinaryOp) exprNode()     {}
func (*UnaryOp) exprNode()      {}
func (*IsNull) exprNode()       {}
func (*In) exprNode()           {}
func (*Between) exprNode()      {}
func (*Like) exprNode()         {}
func (*FunctionCall) exprNode() {}
func (*Subquery) exprNode()     {}
func (*Exists) exprNode()       {}

func joinExprs(list []Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
