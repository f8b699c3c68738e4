package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/quantaplan/internal/sql/types"
	"github.com/dshills/quantaplan/internal/vtab"
)

// Catalog manages the metadata the planner costs against: tables,
// columns, indexes and their row estimates.
type Catalog interface {
	// Table operations
	CreateTable(schema *TableSchema) (*Table, error)
	GetTable(schemaName, tableName string) (*Table, error)

	// Index operations
	CreateIndex(index *IndexSchema) (*Index, error)

	// Statistics operations
	SetTableStats(schemaName, tableName string, stats *TableStats) error

	// Schema operations
	CreateSchema(name string) error
}

// TableSchema defines the structure for creating a new table.
type TableSchema struct {
	SchemaName string
	TableName  string
	Columns    []ColumnDef
	// PrimaryKey lists the key columns when the key is declared at
	// table level.
	PrimaryKey []string
	// Advisor makes the table external: its access paths come from
	// the advisor instead of catalog indexes.
	Advisor vtab.Advisor
}

// ColumnDef defines a column in a table.
type ColumnDef struct {
	Name       string
	Type       string // declared type name; decides the affinity
	Collation  string
	NotNull    bool
	PrimaryKey bool
}

// Table represents a table with its metadata.
type Table struct {
	ID         int64
	SchemaName string
	TableName  string
	Columns    []*Column
	Indexes    []*Index
	// RowidAlias is the ordinal of the INTEGER PRIMARY KEY column,
	// which names the rowid, or -1.
	RowidAlias int
	Stats      *TableStats
	Advisor    vtab.Advisor
	CreatedAt  time.Time
}

// FindColumn returns the column with the given name (case-insensitive)
// and its ordinal, or nil and -1.
func (t *Table) FindColumn(name string) (*Column, int) {
	for i, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, i
		}
	}
	return nil, -1
}

// IsVirtual reports whether the table is planned by an advisor.
func (t *Table) IsVirtual() bool {
	return t.Advisor != nil
}

// RowEstimate returns the analyzed row count, if any.
func (t *Table) RowEstimate() (float64, bool) {
	if t.Stats == nil || t.Stats.RowCount <= 0 {
		return 0, false
	}
	return float64(t.Stats.RowCount), true
}

// Column represents a column with its metadata.
type Column struct {
	ID              int64
	Name            string
	DeclType        string
	Affinity        types.Affinity
	Collation       string // normalized; BINARY when undeclared
	OrdinalPosition int    // 1-based
	IsNullable      bool
}

// Ordinal returns the 0-based position of the column in its table.
func (c *Column) Ordinal() int {
	return c.OrdinalPosition - 1
}

// Index represents an index on a table.
type Index struct {
	ID        int64
	Name      string
	TableID   int64
	Type      IndexType
	IsUnique  bool
	IsPrimary bool
	Columns   []IndexColumn
	// RowEst[0] estimates the rows in the table and RowEst[n] the rows
	// matching an equality on the first n index columns.
	RowEst      []int64
	explicitEst bool
	CreatedAt   time.Time
}

// ColumnCount returns the number of key columns.
func (ix *Index) ColumnCount() int {
	return len(ix.Columns)
}

// Estimate returns RowEst[nEq], falling back to the last entry.
func (ix *Index) Estimate(nEq int) float64 {
	if len(ix.RowEst) == 0 {
		return 1
	}
	if nEq >= len(ix.RowEst) {
		nEq = len(ix.RowEst) - 1
	}
	return float64(ix.RowEst[nEq])
}

// IndexColumn represents a column in an index.
type IndexColumn struct {
	Column    *Column
	SortOrder SortOrder
	Collation string // normalized
	Position  int
}

// IndexSchema defines the structure for creating a new index.
type IndexSchema struct {
	SchemaName string
	TableName  string
	IndexName  string
	Type       IndexType
	Columns    []IndexColumnDef
	IsUnique   bool
	// RowEst overrides the default estimates; len must be columns+1.
	RowEst []int64
}

// IndexColumnDef defines one key column of a new index.
type IndexColumnDef struct {
	Name      string
	Desc      bool
	Collation string // empty inherits the column collation
}

// IndexType represents the type of index.
type IndexType int

const (
	// BTreeIndex is a B-tree index.
	BTreeIndex IndexType = iota
	// HashIndex is a hash index.
	HashIndex
)

func (t IndexType) String() string {
	switch t {
	case BTreeIndex:
		return "BTREE"
	case HashIndex:
		return "HASH"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// SortOrder represents the sort order in an index.
type SortOrder int

const (
	// Ascending sort order.
	Ascending SortOrder = iota
	// Descending sort order.
	Descending
)

func (s SortOrder) String() string {
	if s == Descending {
		return "DESC"
	}
	return "ASC"
}
