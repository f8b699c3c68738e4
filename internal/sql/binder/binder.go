// Package binder turns SQL text into planner input. It parses a single
// SELECT with the TiDB parser, flattens its FROM clause into cursors,
// and resolves every column reference against the catalog.
package binder

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/sql/planner"
)

// Binder binds SELECT statements against a catalog. A Binder reuses
// one parser and is not safe for concurrent use.
type Binder struct {
	cat    catalog.Catalog
	parser *parser.Parser
	// Schema is used for unqualified table names; empty means the
	// catalog default.
	Schema string
}

// New creates a binder over cat.
func New(cat catalog.Catalog) *Binder {
	return &Binder{cat: cat, parser: parser.New()}
}

// Bind parses sql and returns the planner input for its outermost
// SELECT. Nested SELECTs are bound into the expressions that hold them.
func (b *Binder) Bind(sql string) (*planner.Input, error) {
	stmt, err := b.parser.ParseOneStmt(sql, "", "")
	if err != nil {
		return nil, syntaxError(sql, err)
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, errors.FeatureNotSupportedError(typeName(stmt))
	}

	st := &state{b: b}
	sc := st.newScope(nil)
	if err := st.bindFrom(sc, sel.From); err != nil {
		return nil, err
	}

	in := &planner.Input{From: make([]planner.FromItem, len(sc.items))}
	for _, it := range sc.items {
		if it.on == nil {
			continue
		}
		if it.item.On, err = st.bindExpr(sc, it.on); err != nil {
			return nil, err
		}
	}

	if err := st.bindFields(sc, sel.Fields); err != nil {
		return nil, err
	}
	if sel.Where != nil {
		if in.Where, err = st.bindExpr(sc, sel.Where); err != nil {
			return nil, err
		}
	}
	if sel.GroupBy != nil {
		for _, item := range sel.GroupBy.Items {
			if _, err := st.bindExpr(sc, item.Expr); err != nil {
				return nil, err
			}
		}
	}
	if sel.Having != nil {
		if _, err := st.bindExpr(sc, sel.Having.Expr); err != nil {
			return nil, err
		}
	}
	if sel.OrderBy != nil {
		for _, item := range sel.OrderBy.Items {
			term, err := st.bindOrderTerm(sc, item)
			if err != nil {
				return nil, err
			}
			in.OrderBy = append(in.OrderBy, term)
		}
	}

	// Read-sets are complete only once every clause is bound.
	for i, it := range sc.items {
		in.From[i] = it.item
	}
	return in, nil
}

var parsePosition = regexp.MustCompile(`line (\d+) column (\d+)`)

// syntaxError converts a parser error. The parser reports the line
// and the byte column where the offending token ends.
func syntaxError(sql string, err error) error {
	pos := 0
	if m := parsePosition.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		start := 0
		for l := 1; l < line; l++ {
			nl := strings.IndexByte(sql[start:], '\n')
			if nl < 0 {
				break
			}
			start += nl + 1
		}
		if line > 1 {
			// The column of a later line counts its newline.
			col--
		}
		pos = min(max(start+col, 1), len(sql))
	}
	return errors.SyntaxErrorf(pos, "syntax error at or near position %d", pos).
		WithDetail(err.Error())
}

// state carries the cursor counter across the scopes of one statement.
type state struct {
	b          *Binder
	nextCursor int
}

// scope is the set of tables visible to one SELECT.
type scope struct {
	parent *scope
	items  []*scopeItem
}

type scopeItem struct {
	item planner.FromItem
	on   ast.ExprNode
}

func (st *state) newScope(parent *scope) *scope {
	return &scope{parent: parent}
}

// label is the name used to qualify the item's columns.
func (it *scopeItem) label() string {
	if it.item.Alias != "" {
		return it.item.Alias
	}
	return it.item.Table.TableName
}

// bindFrom flattens a left-deep join tree into scope items, left to
// right. The ON clause belongs to the table on the right of its join.
func (st *state) bindFrom(sc *scope, from *ast.TableRefsClause) error {
	if from == nil || from.TableRefs == nil {
		return nil
	}
	return st.bindJoin(sc, from.TableRefs)
}

func (st *state) bindJoin(sc *scope, j *ast.Join) error {
	if err := st.bindResultSet(sc, j.Left, planner.JoinInner, nil); err != nil {
		return err
	}
	if j.Right == nil {
		return nil
	}
	if j.NaturalJoin || len(j.Using) > 0 {
		return errors.FeatureNotSupportedError("NATURAL and USING joins")
	}

	joinType := planner.JoinInner
	switch {
	case j.Tp == ast.RightJoin:
		return errors.FeatureNotSupportedError("RIGHT JOIN").
			WithHint("Swap the tables and use LEFT JOIN.")
	case j.Tp == ast.LeftJoin:
		joinType = planner.JoinLeft
	case j.StraightJoin:
		joinType = planner.JoinCross
	}
	var on ast.ExprNode
	if j.On != nil {
		on = j.On.Expr
	}
	// "a, b JOIN c" nests the join on the right; a plain cross join
	// with it is the same as joining left to right.
	if right, nested := j.Right.(*ast.Join); nested {
		if joinType != planner.JoinInner || on != nil {
			return errors.FeatureNotSupportedError("parenthesized joins")
		}
		return st.bindJoin(sc, right)
	}
	return st.bindResultSet(sc, j.Right, joinType, on)
}

func (st *state) bindResultSet(sc *scope, node ast.ResultSetNode, joinType planner.JoinType, on ast.ExprNode) error {
	switch n := node.(type) {
	case *ast.Join:
		return st.bindJoin(sc, n)
	case *ast.TableSource:
		name, ok := n.Source.(*ast.TableName)
		if !ok {
			return errors.FeatureNotSupportedError("derived tables")
		}
		schema := name.Schema.O
		if schema == "" {
			schema = st.b.Schema
		}
		table, err := st.b.cat.GetTable(schema, name.Name.O)
		if err != nil {
			return err
		}
		it := &scopeItem{
			item: planner.FromItem{
				Cursor:   st.nextCursor,
				Table:    table,
				Alias:    n.AsName.O,
				JoinType: joinType,
			},
			on: on,
		}
		st.nextCursor++
		sc.items = append(sc.items, it)
		return nil
	default:
		return errors.FeatureNotSupportedError(typeName(node) + " in FROM")
	}
}

// bindFields binds the select list for its read-set. A wildcard reads
// every column of the tables it covers.
func (st *state) bindFields(sc *scope, fields *ast.FieldList) error {
	if fields == nil {
		return nil
	}
	for _, f := range fields.Fields {
		if f.WildCard != nil {
			qualifier := f.WildCard.Table.L
			matched := false
			for _, it := range sc.items {
				if qualifier != "" && strings.ToLower(it.label()) != qualifier {
					continue
				}
				matched = true
				for ord := range it.item.Table.Columns {
					if ord != it.item.Table.RowidAlias {
						it.item.ColumnsUsed = it.item.ColumnsUsed.Add(ord)
					}
				}
			}
			if !matched {
				return errors.UndefinedTableError(f.WildCard.Table.O)
			}
			continue
		}
		if _, err := st.bindExpr(sc, f.Expr); err != nil {
			return err
		}
	}
	return nil
}

func (st *state) bindOrderTerm(sc *scope, item *ast.ByItem) (planner.OrderTerm, error) {
	term := planner.OrderTerm{Desc: item.Desc}
	node := item.Expr
	if c, ok := node.(*ast.SetCollationExpr); ok {
		term.Collation = collationName(c.Collate)
		node = c.Expr
	}
	e, err := st.bindExpr(sc, node)
	if err != nil {
		return planner.OrderTerm{}, err
	}
	term.Expr = e
	return term, nil
}

// bindSelect binds a nested SELECT. Its tables get fresh cursors and
// its columns may refer to any enclosing scope.
func (st *state) bindSelect(parent *scope, node ast.ResultSetNode) (*expr.Select, error) {
	sel, ok := node.(*ast.SelectStmt)
	if !ok {
		return nil, errors.FeatureNotSupportedError(typeName(node) + " in a subquery")
	}
	sc := st.newScope(parent)
	if err := st.bindFrom(sc, sel.From); err != nil {
		return nil, err
	}

	out := &expr.Select{}
	for _, it := range sc.items {
		out.From = append(out.From, it.item.Table.TableName)
	}
	var onTerms []expr.Expr
	for _, it := range sc.items {
		if it.on == nil {
			continue
		}
		on, err := st.bindExpr(sc, it.on)
		if err != nil {
			return nil, err
		}
		onTerms = append(onTerms, on)
	}
	if sel.Fields != nil {
		for _, f := range sel.Fields.Fields {
			if f.WildCard != nil {
				continue
			}
			e, err := st.bindExpr(sc, f.Expr)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, e)
		}
	}
	var where expr.Expr
	if sel.Where != nil {
		var err error
		if where, err = st.bindExpr(sc, sel.Where); err != nil {
			return nil, err
		}
	}
	out.Where = expr.And(append(onTerms, where)...)
	if sel.GroupBy != nil {
		for _, item := range sel.GroupBy.Items {
			e, err := st.bindExpr(sc, item.Expr)
			if err != nil {
				return nil, err
			}
			out.GroupBy = append(out.GroupBy, e)
		}
	}
	if sel.Having != nil {
		e, err := st.bindExpr(sc, sel.Having.Expr)
		if err != nil {
			return nil, err
		}
		out.Having = e
	}
	if sel.OrderBy != nil {
		for _, item := range sel.OrderBy.Items {
			term, err := st.bindOrderTerm(sc, item)
			if err != nil {
				return nil, err
			}
			out.OrderBy = append(out.OrderBy, term.Expr)
		}
	}
	return out, nil
}
