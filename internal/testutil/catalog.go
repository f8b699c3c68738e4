// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/sql/expr"
)

// NewCatalog loads a YAML schema into a fresh memory catalog.
func NewCatalog(t testing.TB, schema string) *catalog.MemoryCatalog {
	t.Helper()
	c, err := catalog.LoadSchema([]byte(schema))
	if err != nil {
		t.Fatalf("failed to load schema: %v", err)
	}
	return c
}

// MustTable returns a table of the default schema.
func MustTable(t testing.TB, c catalog.Catalog, name string) *catalog.Table {
	t.Helper()
	table, err := c.GetTable("", name)
	if err != nil {
		t.Fatalf("table %s: %v", name, err)
	}
	return table
}

// Column returns a bound reference to a column of table open on
// cursor. The rowid alias and the names rowid, _rowid_ and oid bind to
// the rowid.
func Column(t testing.TB, table *catalog.Table, cursor int, name string) *expr.ColumnRef {
	t.Helper()
	switch name {
	case "rowid", "_rowid_", "oid":
		return expr.Rowid(cursor, table.TableName)
	}
	col, ord := table.FindColumn(name)
	if col == nil {
		t.Fatalf("table %s has no column %s", table.TableName, name)
	}
	if ord == table.RowidAlias {
		ref := expr.Rowid(cursor, table.TableName)
		ref.Name = col.Name
		ref.Affinity = col.Affinity
		return ref
	}
	return &expr.ColumnRef{
		Cursor:    cursor,
		Column:    ord,
		Table:     table.TableName,
		Name:      col.Name,
		Affinity:  col.Affinity,
		Collation: col.Collation,
	}
}
