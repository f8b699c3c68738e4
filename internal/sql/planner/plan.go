package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/vtab"
)

// WhereFlags describe the shape of the access path chosen for a level.
type WhereFlags uint32

const (
	WhereRowidEq      WhereFlags = 1 << iota // rowid = EXPR or rowid IN (...)
	WhereRowidRange                          // rowid < EXPR and/or rowid > EXPR
	WhereColumnEq                            // index column = EXPR or IN (...)
	WhereColumnRange                         // range bounds on the next index column
	WhereColumnIn                            // an IN feeds an index column
	WhereTopLimit                            // has an upper bound
	WhereBtmLimit                            // has a lower bound
	WhereIdxOnly                             // the index covers every column read
	WhereOrderBy                             // the scan yields the ORDER BY
	WhereReverse                             // scan in reverse order
	WhereUnique                              // at most one row matches
	WhereVirtualTable                        // chosen by an index advisor
)

var whereFlagNames = []struct {
	f    WhereFlags
	name string
}{
	{WhereRowidEq, "ROWID_EQ"},
	{WhereRowidRange, "ROWID_RANGE"},
	{WhereColumnEq, "COLUMN_EQ"},
	{WhereColumnRange, "COLUMN_RANGE"},
	{WhereColumnIn, "COLUMN_IN"},
	{WhereTopLimit, "TOP_LIMIT"},
	{WhereBtmLimit, "BTM_LIMIT"},
	{WhereIdxOnly, "IDX_ONLY"},
	{WhereOrderBy, "ORDERBY"},
	{WhereReverse, "REVERSE"},
	{WhereUnique, "UNIQUE"},
	{WhereVirtualTable, "VIRTUALTABLE"},
}

func (f WhereFlags) String() string {
	if f == 0 {
		return "FULLSCAN"
	}
	var parts []string
	for _, n := range whereFlagNames {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Level is one step of the nested loop: the table visited at this
// position and how it is accessed.
type Level struct {
	From   *FromItem
	Cursor int
	Table  *catalog.Table
	// Index is nil for rowid lookups, full scans and advisor plans.
	Index *catalog.Index
	// NEq is the number of leading index columns pinned by equality.
	NEq   int
	Flags WhereFlags
	Cost  float64
	// Terms lists the WHERE terms the access path enforces.
	Terms []int
	// Advice is the index advisor's answer for advisor-backed tables.
	Advice *vtab.Response
	// LeftJoin is set when the table is the right side of a LEFT JOIN.
	LeftJoin bool
}

func (l *Level) name() string {
	if l.From != nil && l.From.Alias != "" {
		return l.From.Alias
	}
	if l.Table != nil {
		return l.Table.TableName
	}
	return fmt.Sprintf("cursor%d", l.Cursor)
}

// access renders the access method of the level.
func (l *Level) access() string {
	switch {
	case l.Flags&WhereVirtualTable != 0:
		s := "VIRTUAL TABLE INDEX"
		if l.Advice != nil {
			s += fmt.Sprintf(" %d:%s", l.Advice.IdxNum, l.Advice.IdxStr)
		}
		return s
	case l.Index != nil:
		s := "INDEX " + l.Index.Name
		if l.Flags&WhereIdxOnly != 0 {
			s = "COVERING " + s
		}
		return s
	case l.Flags&WhereRowidEq != 0:
		return "ROWID LOOKUP"
	case l.Flags&WhereRowidRange != 0:
		return "ROWID RANGE"
	default:
		return "FULL SCAN"
	}
}

func (l *Level) String() string {
	s := fmt.Sprintf("%s USING %s", l.name(), l.access())
	if l.NEq > 0 {
		s += fmt.Sprintf(" (eq=%d)", l.NEq)
	}
	if l.LeftJoin {
		s += " LEFT"
	}
	return s + fmt.Sprintf(" flags=%s cost=%g", l.Flags, l.Cost)
}

// WhereInfo is the finished plan: the levels in loop order and the
// analyzed WHERE clause with accurate Coded flags.
type WhereInfo struct {
	Levels []*Level
	Clause *WhereClause
	// Unique is set when every level yields at most one row.
	Unique bool
	// OrderSatisfied is set when an ORDER BY was requested and the
	// chosen loop order already produces it.
	OrderSatisfied bool
	// OrderBy is the ORDER BY still to be applied by a sort, nil when
	// none is needed.
	OrderBy []OrderTerm
}

// NeedsSort reports whether the caller has to sort the output.
func (wi *WhereInfo) NeedsSort() bool {
	return len(wi.OrderBy) > 0
}

// Residual returns the terms the executor must still evaluate for
// each candidate row, in collection order.
func (wi *WhereInfo) Residual() []*WhereTerm {
	var out []*WhereTerm
	for _, t := range wi.Clause.Terms() {
		if t.Coded() || t.Virtual() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Explain renders the plan one level per line, followed by the
// residual filters.
func (wi *WhereInfo) Explain() string {
	var b strings.Builder
	for i, l := range wi.Levels {
		fmt.Fprintf(&b, "%d: %s\n", i, l)
		for _, ti := range l.Terms {
			fmt.Fprintf(&b, "   key %s\n", wi.Clause.Term(ti).Expr)
		}
	}
	for _, t := range wi.Residual() {
		fmt.Fprintf(&b, "FILTER %s\n", t.Expr)
	}
	switch {
	case wi.OrderSatisfied:
		b.WriteString("ORDER BY satisfied by scan order\n")
	case wi.NeedsSort():
		parts := make([]string, len(wi.OrderBy))
		for i, o := range wi.OrderBy {
			parts[i] = o.String()
		}
		fmt.Fprintf(&b, "SORT %s\n", strings.Join(parts, ", "))
	}
	if wi.Unique {
		b.WriteString("UNIQUE\n")
	}
	return b.String()
}
