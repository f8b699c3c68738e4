// Package planner chooses the loop order and access path of every
// table in a join from the terms of its WHERE clause.
//
// Planning runs in three steps. The WHERE clause and the ON clauses
// are split into AND-separated terms. Each term is analyzed for the
// "column OP expr" shape an index can use, and rewrites add derived
// terms (commuted comparisons, BETWEEN bounds, OR to IN, LIKE prefix
// ranges, MATCH). A greedy loop then places one table per nested loop
// level, cheapest first, and marks the terms its access path enforces.
package planner

import (
	"fmt"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
)

// JoinType is the join operator to the left of a FROM item.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	// JoinCross pins the join order: the item is never moved before
	// the items to its left.
	JoinCross
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinCross:
		return "CROSS"
	default:
		return fmt.Sprintf("Unknown(%d)", j)
	}
}

// ColumnSet is the set of column ordinals a query reads from a table.
// Ordinals of 63 and above all map to ColumnOverflow.
type ColumnSet uint64

// ColumnOverflow stands for every column with an ordinal of 63 or more.
const ColumnOverflow ColumnSet = 1 << 63

// Add returns the set with ordinal added.
func (s ColumnSet) Add(ordinal int) ColumnSet {
	if ordinal < 0 {
		return s
	}
	if ordinal >= 63 {
		return s | ColumnOverflow
	}
	return s | ColumnSet(1)<<uint(ordinal)
}

// Covered reports whether index holds every column in the set.
func (s ColumnSet) Covered(index *catalog.Index) bool {
	if s&ColumnOverflow != 0 {
		return false
	}
	for _, ic := range index.Columns {
		if x := ic.Column.Ordinal(); x < 63 {
			s &^= ColumnSet(1) << uint(x)
		}
	}
	return s == 0
}

// FromItem is one table of the FROM list.
type FromItem struct {
	Cursor   int
	Table    *catalog.Table
	Alias    string
	JoinType JoinType
	// On is the ON clause of the join to the left of the item.
	On expr.Expr
	// ColumnsUsed is the set of columns the query reads.
	ColumnsUsed ColumnSet
}

func (f *FromItem) name() string {
	if f.Alias != "" {
		return f.Alias
	}
	if f.Table != nil {
		return f.Table.TableName
	}
	return fmt.Sprintf("cursor%d", f.Cursor)
}

// doNotReorder reports whether the item must stay after everything to
// its left.
func (f *FromItem) doNotReorder() bool {
	return f.JoinType == JoinLeft || f.JoinType == JoinCross
}

// Input is a bound query as far as the planner is concerned.
type Input struct {
	From    []FromItem
	Where   expr.Expr
	OrderBy []OrderTerm
}

// Planner plans WHERE clauses. Every call to Plan builds its own
// state, so one Planner serves any number of queries.
type Planner struct {
	cfg config.PlannerConfig
	log log.Logger
}

// New creates a planner. A nil logger discards trace output.
func New(cfg config.PlannerConfig, logger log.Logger) *Planner {
	if logger == nil {
		logger = log.Nop()
	}
	return &Planner{cfg: cfg, log: logger}
}

// Plan chooses the loop order and access path of every FROM item.
func (p *Planner) Plan(in *Input) (*WhereInfo, error) {
	limit := p.cfg.MaxTables
	if limit <= 0 || limit > config.MaxJoinTables {
		limit = config.MaxJoinTables
	}
	if len(in.From) > limit {
		return nil, errors.TooManyTablesError(limit)
	}

	ms := NewMaskSet(limit)
	for i := range in.From {
		if _, err := ms.Register(in.From[i].Cursor); err != nil {
			return nil, err
		}
	}

	wc := NewWhereClause(p.cfg.MaxTerms)
	if err := wc.Split(in.Where, expr.OpAnd, -1); err != nil {
		return nil, err
	}
	for i := range in.From {
		item := &in.From[i]
		joinTable := -1
		if item.JoinType == JoinLeft {
			joinTable = item.Cursor
		}
		if err := wc.Split(item.On, expr.OpAnd, joinTable); err != nil {
			return nil, err
		}
	}

	if err := newAnalyzer(ms, p.cfg, p.log).analyzeAll(wc); err != nil {
		return nil, err
	}
	if p.log.DebugEnabled() {
		for i, t := range wc.Terms() {
			p.log.Debug("where term", log.Int("idx", i), log.String("term", t.String()),
				log.Hex("prereq_right", uint64(t.PrereqRight)), log.Hex("prereq_all", uint64(t.PrereqAll)))
		}
	}

	return p.chooseLevels(in, wc, ms)
}

// chooseLevels runs the greedy join loop. Each position takes the
// cheapest unplaced table; a LEFT or CROSS joined table ends the
// search once something to its left is a candidate.
func (p *Planner) chooseLevels(in *Input, wc *WhereClause, ms *MaskSet) (*WhereInfo, error) {
	wi := &WhereInfo{Clause: wc}
	orderBy := in.OrderBy
	notReady := AllTables
	andFlags := ^WhereFlags(0)
	iFrom := 0

	for i := 0; i < len(in.From); i++ {
		lowest := BigCost
		var best accessPath
		bestJ := -1
		once := false

		for j := iFrom; j < len(in.From); j++ {
			item := &in.From[j]
			if notReady&ms.Mask(item.Cursor) == 0 {
				if j == iFrom {
					iFrom++
				}
				continue
			}
			doNotReorder := item.doNotReorder()
			if once && doNotReorder {
				break
			}

			cc := &costContext{wc: wc, masks: ms, item: item, notReady: notReady}
			if i == 0 {
				cc.orderBy = orderBy
			}
			var path accessPath
			if item.Table.IsVirtual() {
				var err error
				if path, err = p.bestVirtualIndex(cc); err != nil {
					return nil, err
				}
			} else {
				path = p.bestIndex(cc)
			}
			if path.cost < lowest {
				lowest = path.cost
				best = path
				bestJ = j
				once = true
			}
			if doNotReorder {
				break
			}
		}
		if bestJ < 0 {
			return nil, errors.InternalErrorf("no table can be placed at join position %d", i)
		}

		item := &in.From[bestJ]
		level := &Level{
			From:     item,
			Cursor:   item.Cursor,
			Table:    item.Table,
			Index:    best.index,
			NEq:      best.nEq,
			Flags:    best.flags,
			Cost:     best.cost,
			Terms:    best.terms,
			Advice:   best.advice,
			LeftJoin: item.JoinType == JoinLeft,
		}
		p.log.Debug("level chosen",
			log.Int("position", i),
			log.String("table", item.name()),
			log.String("access", level.access()),
			log.Float64("cost", level.Cost),
			log.String("flags", level.Flags.String()))

		if level.Flags&WhereOrderBy != 0 {
			orderBy = nil
		}
		andFlags &= level.Flags
		for _, ti := range level.Terms {
			disableTerm(ms, wc, level, ti)
		}
		notReady &^= ms.Mask(item.Cursor)
		wi.Levels = append(wi.Levels, level)
	}

	if len(wi.Levels) > 0 && andFlags&WhereUnique != 0 {
		wi.Unique = true
		orderBy = nil
	}
	wi.OrderSatisfied = len(in.OrderBy) > 0 && len(orderBy) == 0
	wi.OrderBy = orderBy
	return wi, nil
}

// disableTerm marks a term enforced by the access path of level and
// propagates to its parent once every derived sibling is enforced.
// A WHERE term is never disabled by the inner table of a LEFT JOIN,
// whose null row must still be filtered, and an ON term is never
// disabled by a table left of its join.
func disableTerm(ms *MaskSet, wc *WhereClause, level *Level, idx int) {
	if idx < 0 {
		return
	}
	t := wc.Term(idx)
	if t.Coded() {
		return
	}
	if level.LeftJoin && !t.FromJoin() {
		return
	}
	if t.FromJoin() && ms.Mask(level.Cursor) < ms.Mask(t.JoinTable) {
		return
	}
	t.Flags |= TermCoded
	if t.Parent != NoTerm {
		parent := wc.Term(t.Parent)
		parent.LiveChildren--
		if parent.LiveChildren == 0 {
			disableTerm(ms, wc, level, t.Parent)
		}
	}
}
