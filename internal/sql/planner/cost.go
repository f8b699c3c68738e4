package planner

import (
	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/vtab"
)

// BigCost is larger than the cost of any real access path.
const BigCost = 1e99

// accessPath is one costed way of visiting a table.
type accessPath struct {
	cost  float64
	flags WhereFlags
	index *catalog.Index
	nEq   int
	// terms are the WHERE terms the path enforces.
	terms  []int
	advice *vtab.Response
}

// estLog is a rough base-10 logarithm: one plus the number of powers
// of ten N exceeds.
func estLog(n float64) float64 {
	logN := 1.0
	for x := 10.0; n > x; x *= 10 {
		logN++
	}
	return logN
}

// costContext carries the inputs of one bestIndex evaluation.
type costContext struct {
	wc       *WhereClause
	masks    *MaskSet
	item     *FromItem
	notReady Bitmask
	orderBy  []OrderTerm
}

// tableRows returns the row estimate of a table: its statistics, else
// the estimate of its first index, else the configured default.
func (p *Planner) tableRows(t *catalog.Table) float64 {
	if n, ok := t.RowEstimate(); ok {
		return n
	}
	if len(t.Indexes) > 0 && len(t.Indexes[0].RowEst) > 0 {
		return float64(t.Indexes[0].RowEst[0])
	}
	return p.cfg.DefaultRowEstimate
}

// bestIndex finds the cheapest way to visit cc.item given the tables
// already placed. Equal costs keep the earlier candidate.
func (p *Planner) bestIndex(cc *costContext) accessPath {
	wc := cc.wc
	cursor := cc.item.Cursor
	table := cc.item.Table
	notReady := cc.notReady
	logger := p.log.With(log.String("table", cc.item.name()))

	// Nothing to choose from: a plain scan costs nothing extra, which
	// lets small or empty tables move to the outer loop.
	if len(table.Indexes) == 0 &&
		wc.FindTerm(cursor, expr.RowidColumn, 0, OpEQ|OpIN|opRange, nil) == NoTerm {
		if _, ok := cc.masks.SortableByRowid(cursor, cc.orderBy); !ok {
			return accessPath{}
		}
	}

	best := accessPath{cost: BigCost}

	if ti := wc.FindTerm(cursor, expr.RowidColumn, notReady, OpEQ|OpIN, nil); ti != NoTerm {
		t := wc.Term(ti)
		if t.Operator&OpEQ != 0 {
			logger.Debug("rowid lookup", log.Int("term", ti))
			return accessPath{flags: WhereRowidEq | WhereUnique, nEq: 1, terms: []int{ti}}
		}
		in := t.Expr.(*expr.In)
		best.flags = WhereRowidEq
		best.nEq = 1
		best.terms = []int{ti}
		if in.Subquery == nil {
			n := float64(len(in.List))
			best.cost = n * estLog(n)
		} else {
			best.cost = p.cfg.RowidInSubqueryCost
		}
		logger.Debug("rowid in", log.Float64("cost", best.cost))
	}

	// Full or rowid-bounded scan of the table.
	cost := p.tableRows(table)
	flags := WhereRowidRange
	var terms []int
	if ti := wc.FindTerm(cursor, expr.RowidColumn, notReady, opUpper, nil); ti != NoTerm {
		flags |= WhereTopLimit
		cost /= p.cfg.RangeDivisor
		terms = append(terms, ti)
	}
	if ti := wc.FindTerm(cursor, expr.RowidColumn, notReady, opLower, nil); ti != NoTerm {
		flags |= WhereBtmLimit
		cost /= p.cfg.RangeDivisor
		terms = append(terms, ti)
	}
	if flags&(WhereTopLimit|WhereBtmLimit) == 0 {
		flags = 0
	}
	if len(cc.orderBy) > 0 {
		if rev, ok := cc.masks.SortableByRowid(cursor, cc.orderBy); ok {
			flags |= WhereOrderBy | WhereRowidRange
			if rev {
				flags |= WhereReverse
			}
		} else {
			cost += cost * estLog(cost)
		}
	}
	logger.Debug("table scan", log.Float64("cost", cost), log.String("flags", flags.String()))
	if cost < best.cost {
		best = accessPath{cost: cost, flags: flags, terms: terms}
	}

	eqMask := opEquality
	if cc.item.JoinType == JoinLeft {
		// IS NULL cannot drive the inner table of a LEFT JOIN; the
		// null row it produces would match.
		eqMask &^= OpISNULL
	}

	for _, index := range table.Indexes {
		path := p.costIndex(cc, index, eqMask)
		logger.Debug("index candidate",
			log.String("index", index.Name),
			log.Int("neq", path.nEq),
			log.Float64("cost", path.cost),
			log.String("flags", path.flags.String()))
		if path.flags != 0 && path.cost < best.cost {
			best = path
		}
	}
	return best
}

// costIndex costs a lookup through one index.
func (p *Planner) costIndex(cc *costContext, index *catalog.Index, eqMask OpMask) accessPath {
	wc := cc.wc
	cursor := cc.item.Cursor
	var flags WhereFlags
	var terms []int
	inMultiplier := 1.0

	ncols := index.ColumnCount()
	nEq := 0
	for ; nEq < ncols; nEq++ {
		column := index.Columns[nEq].Column.Ordinal()
		ti := wc.FindTerm(cursor, column, cc.notReady, eqMask, index)
		if ti == NoTerm {
			break
		}
		terms = append(terms, ti)
		flags |= WhereColumnEq
		t := wc.Term(ti)
		if t.Operator&OpIN != 0 {
			flags |= WhereColumnIn
			in := t.Expr.(*expr.In)
			if in.Subquery != nil {
				inMultiplier *= p.cfg.InSubqueryMultiplier
			} else {
				inMultiplier *= float64(len(in.List) + 1)
			}
		}
	}
	cost := index.Estimate(nEq) * inMultiplier * estLog(inMultiplier)
	if index.IsUnique && flags&WhereColumnIn == 0 && nEq == ncols {
		flags |= WhereUnique
	}

	if nEq < ncols {
		column := index.Columns[nEq].Column.Ordinal()
		if wc.FindTerm(cursor, column, cc.notReady, opRange, index) != NoTerm {
			flags |= WhereColumnRange
			if ti := wc.FindTerm(cursor, column, cc.notReady, opUpper, index); ti != NoTerm {
				flags |= WhereTopLimit
				cost /= p.cfg.RangeDivisor
				terms = append(terms, ti)
			}
			if ti := wc.FindTerm(cursor, column, cc.notReady, opLower, index); ti != NoTerm {
				flags |= WhereBtmLimit
				cost /= p.cfg.RangeDivisor
				terms = append(terms, ti)
			}
		}
	}

	if len(cc.orderBy) > 0 {
		rev, ok := false, false
		if flags&WhereColumnIn == 0 {
			rev, ok = cc.masks.IsSortingIndex(index, cc.item.Table, cursor, cc.orderBy, nEq)
		}
		if ok {
			if flags == 0 {
				flags = WhereColumnRange
			}
			flags |= WhereOrderBy
			if rev {
				flags |= WhereReverse
			}
		} else {
			cost += cost * estLog(cost)
		}
	}

	if flags != 0 && cc.item.ColumnsUsed.Covered(index) {
		flags |= WhereIdxOnly
		cost /= 2
	}

	return accessPath{cost: cost, flags: flags, index: index, nEq: nEq, terms: terms}
}
