package planner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/testutil"
)

// Default estimates: 1,000,000 rows for tables without statistics and
// 10 rows per equality on a non-unique index column.
const testSchema = `
tables:
  - name: t
    columns:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: v, type: INT}
  - name: u
    columns:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: t_id, type: INT}
    indexes:
      - name: u_t_id
        columns: [t_id]
  - name: uu
    columns:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: t_id, type: INT}
    indexes:
      - name: uu_t_id
        unique: true
        columns: [t_id]
  - name: w
    columns:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: x, type: TEXT, collate: nocase}
      - {name: y, type: TEXT}
      - {name: n, type: INT}
    indexes:
      - name: w_x
        columns: [x]
      - name: w_y
        columns: [y]
  - name: p
    rows: 100000
    columns:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: x, type: INT}
      - {name: y, type: INT}
      - {name: z, type: INT}
    indexes:
      - name: p_xy
        unique: true
        columns: [x, y]
      - name: p_z
        columns:
          - {name: z, desc: true}
  - name: d
    columns:
      - {name: k, type: INT}
    indexes:
      - name: d_k1
        columns: [k]
      - name: d_k2
        columns: [k]
  - name: h
    columns:
      - {name: a, type: INT}
      - {name: b, type: INT}
  - name: docs
    columns:
      - {name: body, type: TEXT}
      - {name: lang, type: TEXT}
    advisor:
      scan_cost: 2000
      sort_column: lang
      rules:
        - {column: body, op: match, omit: true}
        - {column: lang, op: "="}
`

type fixture struct {
	t   *testing.T
	cat *catalog.MemoryCatalog
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, cat: testutil.NewCatalog(t, testSchema)}
}

func (f *fixture) table(name string) *catalog.Table {
	return testutil.MustTable(f.t, f.cat, name)
}

// item returns a FROM item reading every column named in cols.
func (f *fixture) item(cursor int, name string, cols ...string) FromItem {
	table := f.table(name)
	it := FromItem{Cursor: cursor, Table: table}
	for _, c := range cols {
		_, ord := table.FindColumn(c)
		if ord != table.RowidAlias {
			it.ColumnsUsed = it.ColumnsUsed.Add(ord)
		}
	}
	return it
}

func (f *fixture) col(cursor int, table, column string) *expr.ColumnRef {
	return testutil.Column(f.t, f.table(table), cursor, column)
}

// analyzed splits and analyzes where over the given cursors.
func analyzed(t *testing.T, cfg config.PlannerConfig, where expr.Expr, cursors ...int) (*WhereClause, *MaskSet) {
	t.Helper()
	ms := NewMaskSet(64)
	for _, c := range cursors {
		_, err := ms.Register(c)
		require.NoError(t, err)
	}
	wc := NewWhereClause(cfg.MaxTerms)
	require.NoError(t, wc.Split(where, expr.OpAnd, -1))
	require.NoError(t, newAnalyzer(ms, cfg, log.Nop()).analyzeAll(wc))
	return wc, ms
}

// traceLogger captures debug output as JSON lines.
func traceLogger() (log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.NewJSONLogger(&buf, log.ParseLevel("debug")), &buf
}

// exprs returns the rendered expressions of the terms.
func exprs(wc *WhereClause) []string {
	out := make([]string, wc.Len())
	for i, t := range wc.Terms() {
		out[i] = t.Expr.String()
	}
	return out
}

// findExpr returns the index of the first term rendering as s.
func findExpr(t *testing.T, wc *WhereClause, s string) int {
	t.Helper()
	for i, term := range wc.Terms() {
		if term.Expr.String() == s {
			return i
		}
	}
	t.Fatalf("no term %s in %v", s, exprs(wc))
	return NoTerm
}
