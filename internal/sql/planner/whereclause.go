package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/expr"
)

// OpMask is a set of operator classes a term can serve an index with.
type OpMask uint16

const (
	OpIN OpMask = 1 << iota
	OpEQ
	OpLT
	OpLE
	OpGT
	OpGE
	OpMATCH
	OpISNULL
)

const (
	opRange    = OpLT | OpLE | OpGT | OpGE
	opUpper    = OpLT | OpLE
	opLower    = OpGT | OpGE
	opEquality = OpEQ | OpIN | OpISNULL
)

var opNames = []struct {
	op   OpMask
	name string
}{
	{OpIN, "IN"}, {OpEQ, "EQ"}, {OpLT, "LT"}, {OpLE, "LE"},
	{OpGT, "GT"}, {OpGE, "GE"}, {OpMATCH, "MATCH"}, {OpISNULL, "ISNULL"},
}

func (m OpMask) String() string {
	if m == 0 {
		return "0"
	}
	var parts []string
	for _, n := range opNames {
		if m&n.op != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// TermFlags describe the provenance and state of a WhereTerm.
type TermFlags uint8

const (
	// TermDynamic marks a term whose expression the planner built.
	TermDynamic TermFlags = 1 << iota
	// TermVirtual marks a synthesized term; the executor never
	// evaluates it.
	TermVirtual
	// TermCoded marks a term already enforced by the access path.
	TermCoded
	// TermCopied marks a term that has a commuted duplicate.
	TermCopied
	// TermOrOK marks an OR disjunct that qualifies for the IN rewrite.
	TermOrOK
)

func (f TermFlags) String() string {
	var parts []string
	for _, n := range []struct {
		f    TermFlags
		name string
	}{{TermDynamic, "DYNAMIC"}, {TermVirtual, "VIRTUAL"}, {TermCoded, "CODED"}, {TermCopied, "COPIED"}, {TermOrOK, "OR_OK"}} {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// NoTerm is the index of a term that does not exist.
const NoTerm = -1

// WhereTerm is one AND-separated fragment of the WHERE clause, with
// the facts the planner derived about it.
type WhereTerm struct {
	Expr  expr.Expr
	Flags TermFlags

	// Parent is the term this one was derived from, or NoTerm.
	Parent int
	// LiveChildren counts derived terms that are not yet Coded. The
	// term becomes Coded when it drops to zero.
	LiveChildren int

	// LeftCursor and LeftColumn identify the column side of an
	// indexable "column OP expr" term. LeftCursor is -1 otherwise.
	LeftCursor int
	LeftColumn int
	Operator   OpMask

	// PrereqRight is the set of tables the non-column side needs;
	// PrereqAll the set the whole term needs.
	PrereqRight Bitmask
	PrereqAll   Bitmask

	// JoinTable is the cursor of the right table of the LEFT JOIN
	// whose ON clause the term came from, or -1.
	JoinTable int
}

// Indexable reports whether the term has the "column OP expr" shape.
func (t *WhereTerm) Indexable() bool {
	return t.LeftCursor >= 0
}

// FromJoin reports whether the term came from a LEFT JOIN ON clause.
func (t *WhereTerm) FromJoin() bool {
	return t.JoinTable >= 0
}

// Coded reports whether the access path already enforces the term.
func (t *WhereTerm) Coded() bool {
	return t.Flags&TermCoded != 0
}

// Virtual reports whether the term was synthesized by the planner.
func (t *WhereTerm) Virtual() bool {
	return t.Flags&TermVirtual != 0
}

func (t *WhereTerm) String() string {
	s := t.Expr.String()
	if t.Indexable() {
		s += fmt.Sprintf(" [cursor=%d column=%d op=%s]", t.LeftCursor, t.LeftColumn, t.Operator)
	}
	if t.Flags != 0 {
		s += " {" + t.Flags.String() + "}"
	}
	return s
}

// WhereClause is the append-only arena of terms. Terms are addressed
// by index; Parent links are indices too. Term pointers stay valid
// across appends.
type WhereClause struct {
	terms    []*WhereTerm
	maxTerms int
}

// NewWhereClause creates an empty clause that holds at most maxTerms
// terms.
func NewWhereClause(maxTerms int) *WhereClause {
	return &WhereClause{maxTerms: maxTerms}
}

// Len returns the number of terms.
func (wc *WhereClause) Len() int {
	return len(wc.terms)
}

// Term returns the i-th term.
func (wc *WhereClause) Term(i int) *WhereTerm {
	return wc.terms[i]
}

// Terms returns the terms in collection order.
func (wc *WhereClause) Terms() []*WhereTerm {
	return wc.terms
}

// Insert appends a term for e and returns its index.
func (wc *WhereClause) Insert(e expr.Expr, flags TermFlags, joinTable int) (int, error) {
	if wc.maxTerms > 0 && len(wc.terms) >= wc.maxTerms {
		return NoTerm, errors.OutOfMemoryError("where clause")
	}
	wc.terms = append(wc.terms, &WhereTerm{
		Expr:       e,
		Flags:      flags,
		Parent:     NoTerm,
		LeftCursor: -1,
		JoinTable:  joinTable,
	})
	return len(wc.terms) - 1, nil
}

// Split descends through nodes of operator op and appends every other
// subtree as one term. ANDing (or ORing) the appended terms gives back
// e.
func (wc *WhereClause) Split(e expr.Expr, op expr.BinaryOperator, joinTable int) error {
	if e == nil {
		return nil
	}
	if b, ok := e.(*expr.BinaryOp); ok && b.Operator == op {
		if err := wc.Split(b.Left, op, joinTable); err != nil {
			return err
		}
		return wc.Split(b.Right, op, joinTable)
	}
	_, err := wc.Insert(e, 0, joinTable)
	return err
}
