package planner

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/vtab"
)

func TestAdvisor_StaticRules(t *testing.T) {
	f := newFixture(t)
	body := f.col(0, "docs", "body")
	lang := f.col(0, "docs", "lang")

	in := &Input{
		From:    []FromItem{f.item(0, "docs", "body", "lang")},
		Where:   expr.And(expr.Match(expr.Str("foo"), body), expr.Eq(lang, expr.Str("en"))),
		OrderBy: []OrderTerm{{Expr: lang}},
	}
	wi, err := New(config.DefaultPlannerConfig(), log.Nop()).Plan(in)
	require.NoError(t, err)
	require.Len(t, wi.Levels, 1)

	level := wi.Levels[0]
	assert.Equal(t, WhereVirtualTable|WhereOrderBy, level.Flags)
	assert.Equal(t, 20.0, level.Cost)
	require.NotNil(t, level.Advice)
	assert.Equal(t, 3, level.Advice.IdxNum)
	assert.Equal(t, []vtab.ConstraintUsage{{ArgvIndex: 1}, {ArgvIndex: 2, Omit: true}}, level.Advice.Usage)
	assert.True(t, wi.OrderSatisfied)

	// MATCH is enforced by the table; the equality is not omitted.
	assert.True(t, wi.Clause.Term(0).Coded())
	residual := wi.Residual()
	require.Len(t, residual, 1)
	assert.Equal(t, "(docs.lang = 'en')", residual[0].Expr.String())
}

func TestAdvisor_Request(t *testing.T) {
	f := newFixture(t)
	docs := f.table("docs")
	lang := f.col(1, "docs", "lang")
	body := f.col(1, "docs", "body")
	v := f.col(0, "t", "v")

	var requests []*vtab.Request
	docs.Advisor = vtab.AdvisorFunc(func(req *vtab.Request) (*vtab.Response, error) {
		requests = append(requests, req)
		return &vtab.Response{EstimatedCost: 10}, nil
	})

	in := &Input{
		From: []FromItem{f.item(0, "t", "v"), f.item(1, "docs", "lang")},
		Where: expr.And(
			expr.Eq(lang, v),
			expr.Gt(body, expr.Str("m")),
			&expr.In{Left: lang, List: []expr.Expr{expr.Str("en")}},
			&expr.IsNull{Expr: body},
		),
		OrderBy: []OrderTerm{{Expr: lang, Desc: true}},
	}
	wi, err := New(config.DefaultPlannerConfig(), log.Nop()).Plan(in)
	require.NoError(t, err)
	require.NotEmpty(t, requests)

	first := requests[0]
	assert.Equal(t, "docs", first.Table)
	assert.Equal(t, []vtab.Constraint{
		{Column: 1, Op: vtab.OpEQ, Usable: false},
		{Column: 0, Op: vtab.OpGT, Usable: true},
	}, first.Constraints)
	assert.Equal(t, []vtab.OrderBy{{Column: 1, Desc: true}}, first.OrderBy)

	// t has nothing to choose from and goes first; docs is asked
	// again once the join term is usable.
	require.Len(t, requests, 2)
	assert.Equal(t, 0, wi.Levels[0].Cursor)
	assert.True(t, requests[1].Constraints[0].Usable)
	assert.Nil(t, requests[1].OrderBy)
	assert.False(t, wi.OrderSatisfied)
	assert.True(t, wi.NeedsSort())
}

func TestAdvisor_Errors(t *testing.T) {
	f := newFixture(t)
	lang := f.col(1, "docs", "lang")
	v := f.col(0, "t", "v")
	failure := stderrors.New("backend unavailable")

	tests := []struct {
		name string
		resp *vtab.Response
		err  error
		code string
	}{
		{"argv on unusable constraint", &vtab.Response{Usage: []vtab.ConstraintUsage{{ArgvIndex: 1}}}, nil, errors.FDWError},
		{"omit on unusable constraint", &vtab.Response{Usage: []vtab.ConstraintUsage{{Omit: true}}}, nil, errors.FDWError},
		{"too many usage entries", &vtab.Response{Usage: make([]vtab.ConstraintUsage, 2)}, nil, errors.FDWError},
		{"no response", nil, nil, errors.FDWError},
		{"advisor failure", nil, failure, errors.FDWError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.table("docs").Advisor = vtab.AdvisorFunc(func(*vtab.Request) (*vtab.Response, error) {
				return tt.resp, tt.err
			})
			in := &Input{
				From:  []FromItem{f.item(0, "t", "v"), f.item(1, "docs", "lang")},
				Where: expr.Eq(lang, v),
			}
			wi, err := New(config.DefaultPlannerConfig(), log.Nop()).Plan(in)
			require.Error(t, err)
			assert.Nil(t, wi)
			assert.Equal(t, tt.code, errors.Code(err))
			assert.Contains(t, err.Error(), "docs")
			if tt.err != nil {
				assert.ErrorIs(t, err, failure)
			}
		})
	}
}

func TestAdvisor_CostClamped(t *testing.T) {
	f := newFixture(t)
	f.table("docs").Advisor = vtab.AdvisorFunc(func(*vtab.Request) (*vtab.Response, error) {
		return &vtab.Response{EstimatedCost: 1e300}, nil
	})
	wi, err := New(config.DefaultPlannerConfig(), log.Nop()).Plan(&Input{
		From: []FromItem{f.item(0, "t"), f.item(1, "docs")},
	})
	require.NoError(t, err)
	require.Len(t, wi.Levels, 2)
	assert.Equal(t, 0, wi.Levels[0].Cursor)
	assert.Equal(t, BigCost/2, wi.Levels[1].Cost)
}
