package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
)

func TestCommute_Involution(t *testing.T) {
	x := &expr.ColumnRef{Cursor: 0, Column: 0, Name: "x"}
	y := &expr.ColumnRef{Cursor: 1, Column: 0, Name: "y"}
	for _, op := range []expr.BinaryOperator{expr.OpEqual, expr.OpLess, expr.OpLessEqual, expr.OpGreater, expr.OpGreaterEqual} {
		t.Run(op.String(), func(t *testing.T) {
			b := expr.Binary(op, x, y)
			once := b.Commuted()
			assert.Same(t, y, once.Left)
			assert.Same(t, x, once.Right)
			twice := once.Commuted()
			assert.Equal(t, b, twice)

			m1, ok1 := comparisonMask(op)
			m2, ok2 := comparisonMask(twice.Operator)
			require.True(t, ok1 && ok2)
			assert.Equal(t, m1, m2)
		})
	}
}

func TestAnalyze_ColumnEqualsColumn(t *testing.T) {
	f := newFixture(t)
	tid := f.col(0, "t", "id")
	utid := f.col(1, "u", "t_id")
	wc, _ := analyzed(t, config.DefaultPlannerConfig(), expr.And(expr.Eq(tid, expr.Int(5)), expr.Eq(utid, tid)), 0, 1)

	require.Equal(t, 3, wc.Len())

	lit := wc.Term(0)
	assert.Equal(t, 0, lit.LeftCursor)
	assert.Equal(t, expr.RowidColumn, lit.LeftColumn)
	assert.Equal(t, OpEQ, lit.Operator)
	assert.Equal(t, Bitmask(0), lit.PrereqRight)

	join := wc.Term(1)
	assert.Equal(t, 1, join.LeftCursor)
	assert.Equal(t, 1, join.LeftColumn)
	assert.Equal(t, Bitmask(1), join.PrereqRight)
	assert.Equal(t, Bitmask(3), join.PrereqAll)
	assert.Equal(t, 1, join.LiveChildren)
	assert.NotZero(t, join.Flags&TermCopied)

	dup := wc.Term(2)
	assert.Equal(t, "(t.id = u.t_id)", dup.Expr.String())
	assert.Equal(t, TermVirtual|TermDynamic, dup.Flags)
	assert.Equal(t, 1, dup.Parent)
	assert.Equal(t, 0, dup.LeftCursor)
	assert.Equal(t, expr.RowidColumn, dup.LeftColumn)
	assert.Equal(t, OpEQ, dup.Operator)
	assert.Equal(t, Bitmask(2), dup.PrereqRight)
	assert.Equal(t, Bitmask(3), dup.PrereqAll)
}

func TestAnalyze_CommuteInPlace(t *testing.T) {
	f := newFixture(t)
	n := f.col(0, "w", "n")
	wc, _ := analyzed(t, config.DefaultPlannerConfig(), expr.Lt(expr.Int(5), n), 0)

	require.Equal(t, 1, wc.Len())
	term := wc.Term(0)
	assert.Equal(t, "(w.n > 5)", term.Expr.String())
	assert.Equal(t, TermDynamic, term.Flags)
	assert.Equal(t, 0, term.LeftCursor)
	assert.Equal(t, 3, term.LeftColumn)
	assert.Equal(t, OpGT, term.Operator)
}

func TestAnalyze_NotIndexable(t *testing.T) {
	f := newFixture(t)
	x := f.col(0, "w", "x")
	y := f.col(0, "w", "y")
	n := f.col(0, "w", "n")

	tests := []struct {
		name string
		e    expr.Expr
	}{
		{"same table on both sides", expr.Eq(x, y)},
		{"not equal", expr.Binary(expr.OpNotEqual, n, expr.Int(1))},
		{"not in", &expr.In{Left: n, List: []expr.Expr{expr.Int(1)}, Not: true}},
		{"is not null", &expr.IsNull{Expr: n, Not: true}},
		{"expression on the left", expr.Eq(expr.Binary(expr.OpAdd, n, expr.Int(1)), expr.Int(2))},
		{"not between", &expr.Between{Expr: n, Low: expr.Int(1), High: expr.Int(2), Not: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc, _ := analyzed(t, config.DefaultPlannerConfig(), tt.e, 0)
			require.Equal(t, 1, wc.Len())
			assert.False(t, wc.Term(0).Indexable())
		})
	}
}

func TestAnalyze_InAndIsNull(t *testing.T) {
	f := newFixture(t)
	n := f.col(0, "w", "n")
	v := f.col(1, "t", "v")
	wc, _ := analyzed(t, config.DefaultPlannerConfig(), expr.And(
		&expr.In{Left: n, List: []expr.Expr{expr.Int(1), v}},
		&expr.IsNull{Expr: n},
	), 0, 1)

	require.Equal(t, 2, wc.Len())
	assert.Equal(t, OpIN, wc.Term(0).Operator)
	assert.Equal(t, Bitmask(2), wc.Term(0).PrereqRight)
	assert.Equal(t, OpISNULL, wc.Term(1).Operator)
	assert.Equal(t, Bitmask(0), wc.Term(1).PrereqRight)
}

func TestAnalyze_Between(t *testing.T) {
	f := newFixture(t)
	n := f.col(0, "w", "n")
	cfg := config.DefaultPlannerConfig()
	wc, ms := analyzed(t, cfg, &expr.Between{Expr: n, Low: expr.Int(3), High: expr.Int(9)}, 0)

	require.Equal(t, []string{"(w.n BETWEEN 3 AND 9)", "(w.n >= 3)", "(w.n <= 9)"}, exprs(wc))
	parent := wc.Term(0)
	assert.Equal(t, 2, parent.LiveChildren)
	assert.False(t, parent.Indexable())
	for i, op := range []OpMask{OpGE, OpLE} {
		child := wc.Term(i + 1)
		assert.Equal(t, 0, child.Parent)
		assert.Equal(t, op, child.Operator)
		assert.True(t, child.Virtual())
	}

	// The parent is enforced only once both halves are.
	level := &Level{Cursor: 0}
	disableTerm(ms, wc, level, 1)
	assert.True(t, wc.Term(1).Coded())
	assert.False(t, parent.Coded())
	assert.Equal(t, 1, parent.LiveChildren)
	disableTerm(ms, wc, level, 2)
	assert.True(t, parent.Coded())
	assert.Equal(t, 0, parent.LiveChildren)
}

func TestAnalyze_OrToIn(t *testing.T) {
	f := newFixture(t)
	n := f.col(0, "w", "n")
	x := f.col(0, "w", "x")
	y := f.col(0, "w", "y")
	utid := f.col(1, "u", "t_id")

	tests := []struct {
		name string
		e    expr.Expr
		want string // empty when no rewrite is expected
	}{
		{
			name: "same column",
			e:    expr.Or(expr.Eq(n, expr.Int(1)), expr.Eq(n, expr.Int(2)), expr.Eq(n, expr.Int(3))),
			want: "(w.n IN (1, 2, 3))",
		},
		{
			name: "mixed columns",
			e:    expr.Or(expr.Eq(n, expr.Int(1)), expr.Eq(n, expr.Int(2)), expr.Eq(x, expr.Int(3))),
		},
		{
			name: "range disjunct",
			e:    expr.Or(expr.Eq(n, expr.Int(1)), expr.Lt(n, expr.Int(2))),
		},
		{
			name: "commuted literal",
			e:    expr.Or(expr.Eq(expr.Int(1), n), expr.Eq(n, expr.Int(2))),
			want: "(w.n IN (1, 2))",
		},
		{
			name: "affinity mismatch",
			e:    expr.Or(expr.Eq(y, expr.Str("a")), expr.Eq(y, utid)),
		},
		{
			name: "nested and",
			e:    expr.Or(expr.Eq(n, expr.Int(1)), expr.And(expr.Eq(n, expr.Int(2)), expr.Eq(x, expr.Str("b")))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wc, _ := analyzed(t, config.DefaultPlannerConfig(), tt.e, 0, 1)
			if tt.want == "" {
				assert.Equal(t, 1, wc.Len(), "terms: %v", exprs(wc))
				assert.Equal(t, 0, wc.Term(0).LiveChildren)
				return
			}
			require.Equal(t, 2, wc.Len())
			in := wc.Term(1)
			assert.Equal(t, tt.want, in.Expr.String())
			assert.Equal(t, OpIN, in.Operator)
			assert.Equal(t, 0, in.Parent)
			assert.Equal(t, TermVirtual|TermDynamic, in.Flags)
			assert.Equal(t, 1, wc.Term(0).LiveChildren)
		})
	}
}

func TestAnalyze_OrThroughDuplicate(t *testing.T) {
	f := newFixture(t)
	tid := f.col(0, "t", "id")
	utid := f.col(1, "u", "t_id")

	// The first disjunct is on u.t_id, but its commuted duplicate is on
	// t.id like the second one.
	wc, _ := analyzed(t, config.DefaultPlannerConfig(), expr.Or(expr.Eq(utid, tid), expr.Eq(tid, expr.Int(7))), 0, 1)

	require.Equal(t, 2, wc.Len())
	in := wc.Term(1)
	assert.Equal(t, "(t.id IN (7, u.t_id))", in.Expr.String())
	assert.Equal(t, 0, in.LeftCursor)
	assert.Equal(t, expr.RowidColumn, in.LeftColumn)
	assert.Equal(t, OpIN, in.Operator)
	assert.Equal(t, Bitmask(2), in.PrereqRight)
}

func TestAnalyze_Match(t *testing.T) {
	f := newFixture(t)
	body := f.col(0, "docs", "body")
	lang := f.col(0, "docs", "lang")

	wc, _ := analyzed(t, config.DefaultPlannerConfig(), expr.Match(expr.Str("foo"), body), 0)
	require.Equal(t, 2, wc.Len())
	orig := wc.Term(0)
	assert.Equal(t, 1, orig.LiveChildren)
	assert.NotZero(t, orig.Flags&TermCopied)

	m := wc.Term(1)
	assert.Equal(t, OpMATCH, m.Operator)
	assert.Equal(t, 0, m.LeftCursor)
	assert.Equal(t, 0, m.LeftColumn)
	assert.Equal(t, 0, m.Parent)
	assert.True(t, m.Virtual())

	wc, _ = analyzed(t, config.DefaultPlannerConfig(), expr.Match(lang, body), 0)
	assert.Equal(t, 1, wc.Len())
}

func TestAnalyze_LeftJoinOnTerm(t *testing.T) {
	f := newFixture(t)
	tv := f.col(0, "t", "v")
	utid := f.col(1, "u", "t_id")

	ms := NewMaskSet(64)
	for _, c := range []int{0, 1} {
		_, err := ms.Register(c)
		require.NoError(t, err)
	}
	wc := NewWhereClause(0)
	require.NoError(t, wc.Split(expr.And(expr.Eq(utid, tv), expr.Eq(tv, expr.Int(5))), expr.OpAnd, 1))
	require.NoError(t, newAnalyzer(ms, config.DefaultPlannerConfig(), log.Nop()).analyzeAll(wc))

	require.Equal(t, 3, wc.Len())
	on := wc.Term(0)
	assert.Equal(t, 1, on.LeftCursor)
	assert.Equal(t, Bitmask(1), on.PrereqRight)
	assert.Equal(t, Bitmask(3), on.PrereqAll)

	// t.v = 5 may not drive a lookup into t: t is left of the join.
	left := wc.Term(1)
	assert.Equal(t, 0, left.LeftCursor)
	assert.Equal(t, Bitmask(1), left.PrereqRight)
	assert.Equal(t, NoTerm, wc.FindTerm(0, 1, AllTables, OpEQ, nil))

	dup := wc.Term(2)
	assert.Equal(t, "(t.v = u.t_id)", dup.Expr.String())
	assert.Equal(t, 1, dup.JoinTable)
	assert.Equal(t, Bitmask(3), dup.PrereqRight)

	// A level left of the join never enforces its ON terms.
	disableTerm(ms, wc, &Level{Cursor: 0}, 2)
	assert.False(t, dup.Coded())
	assert.Equal(t, 1, on.LiveChildren)

	disableTerm(ms, wc, &Level{Cursor: 1, LeftJoin: true}, 2)
	assert.True(t, dup.Coded())
	assert.True(t, on.Coded())
}
