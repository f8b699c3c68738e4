package planner

import (
	"strings"

	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
)

// analyzer fills in the derived facts of WHERE terms and appends the
// terms produced by the BETWEEN, OR, LIKE and MATCH rewrites.
type analyzer struct {
	masks *MaskSet
	cfg   config.PlannerConfig
	log   log.Logger
}

func newAnalyzer(masks *MaskSet, cfg config.PlannerConfig, logger log.Logger) *analyzer {
	return &analyzer{masks: masks, cfg: cfg, log: logger}
}

// analyzeAll analyzes the terms present on entry, last to first.
// Terms appended along the way are analyzed by the rewrite that
// creates them.
func (a *analyzer) analyzeAll(wc *WhereClause) error {
	for i := wc.Len() - 1; i >= 0; i-- {
		if err := a.analyze(wc, i); err != nil {
			return err
		}
	}
	return nil
}

// operatorMask maps an expression to the operator class it serves
// an index with.
func operatorMask(e expr.Expr) (OpMask, bool) {
	switch e := e.(type) {
	case *expr.BinaryOp:
		return comparisonMask(e.Operator)
	case *expr.In:
		return OpIN, !e.Not
	case *expr.IsNull:
		return OpISNULL, !e.Not
	}
	return 0, false
}

func comparisonMask(op expr.BinaryOperator) (OpMask, bool) {
	switch op {
	case expr.OpEqual:
		return OpEQ, true
	case expr.OpLess:
		return OpLT, true
	case expr.OpLessEqual:
		return OpLE, true
	case expr.OpGreater:
		return OpGT, true
	case expr.OpGreaterEqual:
		return OpGE, true
	}
	return 0, false
}

// operands returns the two sides of a term expression. The right side
// is nil for IN, IS NULL and other non-binary forms.
func operands(e expr.Expr) (left, right expr.Expr) {
	switch e := e.(type) {
	case *expr.BinaryOp:
		return e.Left, e.Right
	case *expr.In:
		return e.Left, nil
	case *expr.IsNull:
		return e.Expr, nil
	case *expr.Between:
		return e.Expr, nil
	case *expr.Like:
		return e.Left, e.Pattern
	}
	return nil, nil
}

func (a *analyzer) analyze(wc *WhereClause, idx int) error {
	t := wc.Term(idx)
	e := t.Expr
	ms := a.masks

	left, right := operands(e)
	prereqLeft := ms.ExprUsage(left)
	var prereqRight Bitmask
	if in, ok := e.(*expr.In); ok {
		prereqRight = ms.ListUsage(in.List) | ms.SelectUsage(in.Subquery)
	} else {
		prereqRight = ms.ExprUsage(right)
	}
	prereqAll := ms.ExprUsage(e)

	// An ON term of a LEFT JOIN must not drive a lookup into any table
	// left of its join table.
	var extraRight Bitmask
	if t.FromJoin() {
		if x := ms.Mask(t.JoinTable); x != 0 {
			prereqAll |= x
			extraRight = x - 1
		}
	}

	t.PrereqRight = prereqRight | extraRight
	t.PrereqAll = prereqAll
	t.LeftCursor = -1
	t.Parent = NoTerm
	t.Operator = 0

	if op, ok := operatorMask(e); ok && prereqRight&prereqLeft == 0 {
		if col, ok := left.(*expr.ColumnRef); ok {
			t.LeftCursor = col.Cursor
			t.LeftColumn = col.Column
			t.Operator = op
		}
		if b, ok := e.(*expr.BinaryOp); ok {
			if rcol, ok := b.Right.(*expr.ColumnRef); ok {
				if err := a.commute(wc, idx, b, rcol, prereqLeft|extraRight, prereqAll); err != nil {
					return err
				}
			}
		}
		return a.analyzeRewrites(wc, idx)
	}

	switch e := e.(type) {
	case *expr.Between:
		if !e.Not {
			if err := a.splitBetween(wc, idx, e); err != nil {
				return err
			}
		}
	case *expr.BinaryOp:
		if e.Operator == expr.OpOr {
			if err := a.rewriteOr(wc, idx, e); err != nil {
				return err
			}
		}
	}
	return a.analyzeRewrites(wc, idx)
}

// analyzeRewrites applies the LIKE and MATCH rewrites, which are
// independent of the comparison analysis.
func (a *analyzer) analyzeRewrites(wc *WhereClause, idx int) error {
	switch e := wc.Term(idx).Expr.(type) {
	case *expr.Like:
		return a.rewriteLike(wc, idx, e)
	case *expr.FunctionCall:
		return a.rewriteMatch(wc, idx, e)
	}
	return nil
}

// commute makes "X op Y" with a column Y findable by Y. When X is a
// column too a commuted duplicate is appended; otherwise the term is
// rewritten in place.
func (a *analyzer) commute(wc *WhereClause, idx int, b *expr.BinaryOp, rcol *expr.ColumnRef, prereqRight, prereqAll Bitmask) error {
	t := wc.Term(idx)
	dup := b.Commuted()
	target := t
	if t.Indexable() {
		n, err := wc.Insert(dup, TermVirtual|TermDynamic, t.JoinTable)
		if err != nil {
			return err
		}
		target = wc.Term(n)
		target.Parent = idx
		t.LiveChildren = 1
		t.Flags |= TermCopied
		a.log.Debug("commuted duplicate", log.Int("term", idx), log.Int("dup", n), log.String("expr", dup.String()))
	} else {
		t.Expr = dup
		t.Flags |= TermDynamic
	}
	op, _ := comparisonMask(dup.Operator)
	target.LeftCursor = rcol.Cursor
	target.LeftColumn = rcol.Column
	target.Operator = op
	target.PrereqRight = prereqRight
	target.PrereqAll = prereqAll
	return nil
}

// insertDerived appends a Virtual term derived from term parent,
// analyzes it, and links it back when link is set.
func (a *analyzer) insertDerived(wc *WhereClause, parent int, e expr.Expr, link bool) (int, error) {
	n, err := wc.Insert(e, TermVirtual|TermDynamic, wc.Term(parent).JoinTable)
	if err != nil {
		return NoTerm, err
	}
	if err := a.analyze(wc, n); err != nil {
		return NoTerm, err
	}
	if link {
		wc.Term(n).Parent = parent
	}
	return n, nil
}

func (a *analyzer) splitBetween(wc *WhereClause, idx int, b *expr.Between) error {
	for _, bound := range []expr.Expr{expr.Ge(b.Expr, b.Low), expr.Le(b.Expr, b.High)} {
		if _, err := a.insertDerived(wc, idx, bound, true); err != nil {
			return err
		}
	}
	wc.Term(idx).LiveChildren = 2
	return nil
}

// rewriteMatch tags match(pattern, column) for index advisors.
func (a *analyzer) rewriteMatch(wc *WhereClause, idx int, f *expr.FunctionCall) error {
	if !strings.EqualFold(f.Name, "match") || len(f.Args) != 2 {
		return nil
	}
	col, ok := f.Args[1].(*expr.ColumnRef)
	if !ok {
		return nil
	}
	prereqExpr := a.masks.ExprUsage(f.Args[0])
	if prereqExpr&a.masks.ExprUsage(col) != 0 {
		return nil
	}
	t := wc.Term(idx)
	n, err := wc.Insert(expr.Match(f.Args[0], col), TermVirtual|TermDynamic, t.JoinTable)
	if err != nil {
		return err
	}
	nt := wc.Term(n)
	nt.LeftCursor = col.Cursor
	nt.LeftColumn = col.Column
	nt.Operator = OpMATCH
	nt.PrereqRight = prereqExpr
	nt.PrereqAll = t.PrereqAll
	nt.Parent = idx
	t.LiveChildren = 1
	t.Flags |= TermCopied
	return nil
}
