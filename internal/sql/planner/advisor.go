package planner

import (
	"fmt"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/vtab"
)

var advisorOps = map[OpMask]vtab.ConstraintOp{
	OpEQ:    vtab.OpEQ,
	OpLT:    vtab.OpLT,
	OpLE:    vtab.OpLE,
	OpGT:    vtab.OpGT,
	OpGE:    vtab.OpGE,
	OpMATCH: vtab.OpMatch,
}

// bestVirtualIndex asks the table's advisor how to visit it. Terms
// the advisor promises to enforce are returned as consumed.
func (p *Planner) bestVirtualIndex(cc *costContext) (accessPath, error) {
	wc := cc.wc
	item := cc.item
	name := item.name()

	req := &vtab.Request{Table: item.Table.TableName}
	var termOf []int
	for i, t := range wc.Terms() {
		if t.LeftCursor != item.Cursor {
			continue
		}
		op, ok := advisorOps[t.Operator]
		if !ok {
			continue
		}
		req.Constraints = append(req.Constraints, vtab.Constraint{
			Column: t.LeftColumn,
			Op:     op,
			Usable: t.PrereqRight&cc.notReady == 0,
		})
		termOf = append(termOf, i)
	}
	if p.cfg.MaxTerms > 0 && len(req.Constraints) > p.cfg.MaxTerms {
		return accessPath{}, errors.OutOfMemoryError("index advisor")
	}

	offered := p.orderByForAdvisor(item.Cursor, cc.orderBy)
	req.OrderBy = offered

	resp, err := item.Table.Advisor.BestIndex(req)
	if err != nil {
		return accessPath{}, errors.Wrap(err, errors.FDWError, fmt.Sprintf("table %s: index advisor failed", name)).
			WithTable(item.Table.SchemaName, item.Table.TableName)
	}
	if resp == nil {
		return accessPath{}, errors.InvalidExternalPlanError(name)
	}
	if len(resp.Usage) > len(req.Constraints) {
		return accessPath{}, errors.InvalidExternalPlanError(name)
	}

	path := accessPath{flags: WhereVirtualTable, advice: resp}
	for i, u := range resp.Usage {
		if (u.ArgvIndex > 0 || u.Omit) && !req.Constraints[i].Usable {
			return accessPath{}, errors.InvalidExternalPlanError(name).
				WithDetailf("Constraint %d on column %d is not usable at this position.", i, req.Constraints[i].Column)
		}
		if u.Omit {
			path.terms = append(path.terms, termOf[i])
		}
	}
	if resp.OrderByConsumed && len(offered) > 0 {
		path.flags |= WhereOrderBy
	}

	path.cost = resp.EstimatedCost
	if path.cost > BigCost/2 {
		path.cost = BigCost / 2
	}
	p.log.Debug("index advisor",
		log.String("table", name),
		log.Int("constraints", len(req.Constraints)),
		log.Int("idx_num", resp.IdxNum),
		log.Float64("cost", path.cost))
	return path, nil
}

// orderByForAdvisor returns the ORDER BY in advisor form, or nil when
// some term is not a plain column of cursor.
func (p *Planner) orderByForAdvisor(cursor int, orderBy []OrderTerm) []vtab.OrderBy {
	if len(orderBy) == 0 {
		return nil
	}
	out := make([]vtab.OrderBy, 0, len(orderBy))
	for _, o := range orderBy {
		col, ok := o.Expr.(*expr.ColumnRef)
		if !ok || col.Cursor != cursor {
			return nil
		}
		out = append(out, vtab.OrderBy{Column: col.Column, Desc: o.Desc})
	}
	return out
}
