package planner

import (
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// rewriteOr turns "c = e1 OR c = e2 OR ..." into a Virtual
// "c IN (e1, e2, ...)" term. A disjunct qualifies when it is an
// equality on the candidate column, either directly or through its
// commuted duplicate. One disjunct that does not qualify cancels the
// rewrite.
func (a *analyzer) rewriteOr(wc *WhereClause, idx int, or *expr.BinaryOp) error {
	t := wc.Term(idx)
	sub := NewWhereClause(wc.maxTerms)
	if err := sub.Split(or, expr.OpOr, t.JoinTable); err != nil {
		return err
	}
	if err := a.analyzeAll(sub); err != nil {
		return err
	}

	for _, cand := range orCandidates(sub) {
		if !markOrTerms(sub, cand) {
			continue
		}
		in := &expr.In{Left: cand.left}
		for _, ot := range sub.Terms() {
			if ot.Flags&TermOrOK == 0 {
				continue
			}
			_, rhs := operands(ot.Expr)
			in.List = append(in.List, rhs)
		}
		if _, err := a.insertDerived(wc, idx, in, true); err != nil {
			return err
		}
		wc.Term(idx).LiveChildren = 1
		a.log.Debug("or rewritten to in", log.Int("term", idx), log.String("expr", in.String()))
		return nil
	}
	return nil
}

type orCandidate struct {
	cursor int
	column int
	// left is the column operand of a disjunct on the candidate. It
	// becomes the left side of the IN.
	left *expr.ColumnRef
}

// orCandidates returns the columns the rewrite may target: the column
// of the first disjunct and, when that disjunct was duplicated, the
// column of its duplicate.
func orCandidates(sub *WhereClause) []orCandidate {
	if sub.Len() == 0 {
		return nil
	}
	var cands []orCandidate
	add := func(t *WhereTerm) {
		if !t.Indexable() {
			return
		}
		left, _ := operands(t.Expr)
		col, ok := left.(*expr.ColumnRef)
		if !ok {
			return
		}
		cands = append(cands, orCandidate{cursor: t.LeftCursor, column: t.LeftColumn, left: col})
	}
	first := sub.Term(0)
	add(first)
	if first.Flags&TermCopied != 0 {
		for _, t := range sub.Terms() {
			if t.Parent == 0 {
				add(t)
				break
			}
		}
	}
	return cands
}

// markOrTerms sets TermOrOK on the disjuncts that will feed the IN
// list. It reports whether every disjunct is covered.
func markOrTerms(sub *WhereClause, cand orCandidate) bool {
	for _, t := range sub.Terms() {
		t.Flags &^= TermOrOK
	}
	for _, t := range sub.Terms() {
		if t.Operator != OpEQ {
			return false
		}
		switch {
		case orTermMatches(t, cand):
			t.Flags |= TermOrOK
		case t.Flags&TermCopied != 0:
			// Covered by its duplicate, which is checked later.
		case t.Virtual() && t.Parent != NoTerm && sub.Term(t.Parent).Flags&TermOrOK != 0:
			// The original already qualified.
		default:
			return false
		}
	}
	// A duplicated original only counts when its duplicate qualified.
	for i, t := range sub.Terms() {
		if t.Flags&TermCopied == 0 || t.Flags&TermOrOK != 0 {
			continue
		}
		if !childOrOK(sub, i) {
			return false
		}
	}
	return true
}

func childOrOK(sub *WhereClause, parent int) bool {
	for _, t := range sub.Terms() {
		if t.Parent == parent && t.Flags&TermOrOK != 0 {
			return true
		}
	}
	return false
}

func orTermMatches(t *WhereTerm, cand orCandidate) bool {
	if t.LeftCursor != cand.cursor || t.LeftColumn != cand.column {
		return false
	}
	_, rhs := operands(t.Expr)
	aff := expr.AffinityOf(rhs)
	return aff == types.AffinityUnset || aff == cand.left.Affinity
}
