package catalog

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/types"
)

const defaultSchemaName = "public"

// MemoryCatalog is an in-memory implementation of the Catalog interface.
// Names are matched case-insensitively.
type MemoryCatalog struct {
	mu      sync.RWMutex
	schemas map[string]*schema
	tables  map[string]*Table // "schema.table" -> Table
	indexes map[string]*Index // "schema.table.index" -> Index
	nextID  int64
}

// schema represents a database schema.
type schema struct {
	name string
}

// NewMemoryCatalog creates a new in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	c := &MemoryCatalog{
		schemas: make(map[string]*schema),
		tables:  make(map[string]*Table),
		indexes: make(map[string]*Index),
		nextID:  1,
	}

	// Create default public schema
	c.schemas[defaultSchemaName] = &schema{name: defaultSchemaName}

	return c
}

func schemaKey(name string) string {
	if name == "" {
		return defaultSchemaName
	}
	return strings.ToLower(name)
}

func tableKey(schemaName, tableName string) string {
	return schemaKey(schemaName) + "." + strings.ToLower(tableName)
}

func indexKey(schemaName, tableName, indexName string) string {
	return tableKey(schemaName, tableName) + "." + strings.ToLower(indexName)
}

// CreateSchema creates a new schema.
func (c *MemoryCatalog) CreateSchema(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := schemaKey(name)
	if _, exists := c.schemas[key]; exists {
		return errors.Newf(errors.DuplicateObject, "schema \"%s\" already exists", name)
	}

	c.schemas[key] = &schema{name: name}

	return nil
}

// CreateTable creates a new table. A single-column INTEGER primary key
// becomes the rowid alias; any other primary key gets a unique index.
func (c *MemoryCatalog) CreateTable(tableSchema *TableSchema) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sKey := schemaKey(tableSchema.SchemaName)
	s, exists := c.schemas[sKey]
	if !exists {
		return nil, errors.Newf(errors.UndefinedObject, "schema \"%s\" does not exist", tableSchema.SchemaName)
	}
	if tableSchema.TableName == "" {
		return nil, errors.InvalidSchemaError("table", "missing name")
	}
	if len(tableSchema.Columns) == 0 {
		return nil, errors.InvalidSchemaError("table "+tableSchema.TableName, "no columns")
	}

	key := tableKey(tableSchema.SchemaName, tableSchema.TableName)
	if _, exists := c.tables[key]; exists {
		return nil, errors.DuplicateTableError(tableSchema.TableName)
	}

	now := time.Now()
	table := &Table{
		ID:         c.nextID,
		SchemaName: s.name,
		TableName:  tableSchema.TableName,
		Columns:    make([]*Column, 0, len(tableSchema.Columns)),
		Indexes:    make([]*Index, 0),
		RowidAlias: -1,
		Advisor:    tableSchema.Advisor,
		CreatedAt:  now,
	}
	c.nextID++

	pk := append([]string(nil), tableSchema.PrimaryKey...)
	for i, colDef := range tableSchema.Columns {
		if col, _ := table.FindColumn(colDef.Name); col != nil {
			return nil, errors.Newf(errors.DuplicateColumn, "column \"%s\" specified more than once", colDef.Name)
		}
		if colDef.Collation != "" && !types.IsBuiltinCollation(colDef.Collation) {
			return nil, errors.InvalidSchemaError("column "+colDef.Name, fmt.Sprintf("unknown collation %q", colDef.Collation))
		}
		table.Columns = append(table.Columns, &Column{
			ID:              c.nextID,
			Name:            colDef.Name,
			DeclType:        colDef.Type,
			Affinity:        types.AffinityOf(colDef.Type),
			Collation:       types.NormalizeCollation(colDef.Collation),
			OrdinalPosition: i + 1,
			IsNullable:      !colDef.NotNull && !colDef.PrimaryKey,
		})
		c.nextID++
		if colDef.PrimaryKey {
			pk = append(pk, colDef.Name)
		}
	}

	table.Stats = &TableStats{}

	if len(pk) == 1 {
		col, ord := table.FindColumn(pk[0])
		if col == nil {
			return nil, errors.UndefinedColumnError(pk[0], tableSchema.TableName)
		}
		if strings.EqualFold(strings.TrimSpace(col.DeclType), "INTEGER") {
			table.RowidAlias = ord
			pk = nil
		}
	}
	if len(pk) > 0 {
		defs := make([]IndexColumnDef, len(pk))
		for i, name := range pk {
			defs[i] = IndexColumnDef{Name: name}
		}
		index, err := c.buildIndex(table, &IndexSchema{
			IndexName: fmt.Sprintf("%s_pkey", tableSchema.TableName),
			Columns:   defs,
			IsUnique:  true,
		})
		if err != nil {
			return nil, err
		}
		index.IsPrimary = true
		table.Indexes = append(table.Indexes, index)
		c.indexes[indexKey(tableSchema.SchemaName, tableSchema.TableName, index.Name)] = index
	}

	c.tables[key] = table

	return table, nil
}

// GetTable retrieves a table by name.
func (c *MemoryCatalog) GetTable(schemaName, tableName string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	table, exists := c.tables[tableKey(schemaName, tableName)]
	if !exists {
		return nil, errors.UndefinedTableError(tableName)
	}

	return table, nil
}

// CreateIndex creates a new index on a table.
func (c *MemoryCatalog) CreateIndex(indexSchema *IndexSchema) (*Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, exists := c.tables[tableKey(indexSchema.SchemaName, indexSchema.TableName)]
	if !exists {
		return nil, errors.UndefinedTableError(indexSchema.TableName)
	}

	key := indexKey(indexSchema.SchemaName, indexSchema.TableName, indexSchema.IndexName)
	if _, exists := c.indexes[key]; exists {
		return nil, errors.DuplicateIndexError(indexSchema.IndexName)
	}

	index, err := c.buildIndex(table, indexSchema)
	if err != nil {
		return nil, err
	}

	table.Indexes = append(table.Indexes, index)
	c.indexes[key] = index

	return index, nil
}

func (c *MemoryCatalog) buildIndex(table *Table, indexSchema *IndexSchema) (*Index, error) {
	if indexSchema.IndexName == "" {
		return nil, errors.InvalidSchemaError("index on "+table.TableName, "missing name")
	}
	if len(indexSchema.Columns) == 0 {
		return nil, errors.InvalidSchemaError("index "+indexSchema.IndexName, "no columns")
	}

	index := &Index{
		ID:        c.nextID,
		Name:      indexSchema.IndexName,
		TableID:   table.ID,
		Type:      indexSchema.Type,
		IsUnique:  indexSchema.IsUnique,
		Columns:   make([]IndexColumn, 0, len(indexSchema.Columns)),
		CreatedAt: time.Now(),
	}
	c.nextID++

	for i, def := range indexSchema.Columns {
		col, _ := table.FindColumn(def.Name)
		if col == nil {
			return nil, errors.UndefinedColumnError(def.Name, table.TableName)
		}
		coll := col.Collation
		if def.Collation != "" {
			if !types.IsBuiltinCollation(def.Collation) {
				return nil, errors.InvalidSchemaError("index "+indexSchema.IndexName, fmt.Sprintf("unknown collation %q", def.Collation))
			}
			coll = types.NormalizeCollation(def.Collation)
		}
		order := Ascending
		if def.Desc {
			order = Descending
		}
		index.Columns = append(index.Columns, IndexColumn{
			Column:    col,
			SortOrder: order,
			Collation: coll,
			Position:  i,
		})
	}

	if len(indexSchema.RowEst) > 0 {
		if len(indexSchema.RowEst) != len(index.Columns)+1 {
			return nil, errors.InvalidSchemaError("index "+indexSchema.IndexName,
				fmt.Sprintf("expected %d row estimates, got %d", len(index.Columns)+1, len(indexSchema.RowEst)))
		}
		for _, n := range indexSchema.RowEst {
			if n < 1 {
				return nil, errors.InvalidSchemaError("index "+indexSchema.IndexName, "row estimates must be positive")
			}
		}
		index.RowEst = append([]int64(nil), indexSchema.RowEst...)
		index.explicitEst = true
	} else {
		index.RowEst = DefaultRowEst(len(index.Columns), index.IsUnique, table.Stats.RowCount)
	}

	return index, nil
}

// SetTableStats records statistics for a table. Indexes still using
// default estimates are rescaled to the new row count.
func (c *MemoryCatalog) SetTableStats(schemaName, tableName string, stats *TableStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, exists := c.tables[tableKey(schemaName, tableName)]
	if !exists {
		return errors.UndefinedTableError(tableName)
	}

	copied := *stats
	if copied.LastAnalyzed.IsZero() {
		copied.LastAnalyzed = time.Now()
	}
	table.Stats = &copied

	for _, index := range table.Indexes {
		if !index.explicitEst {
			index.RowEst = DefaultRowEst(len(index.Columns), index.IsUnique, copied.RowCount)
		}
	}
	return nil
}
