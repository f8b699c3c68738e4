package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/vtab"
)

// SchemaFile is the YAML description of a set of tables.
//
//	schema: public
//	tables:
//	  - name: users
//	    rows: 50000
//	    columns:
//	      - {name: id, type: INTEGER, primary_key: true}
//	      - {name: email, type: TEXT, collate: NOCASE}
//	    indexes:
//	      - name: users_email
//	        unique: true
//	        columns: [email]
type SchemaFile struct {
	Schema string      `yaml:"schema"`
	Tables []TableSpec `yaml:"tables"`
}

// TableSpec describes one table.
type TableSpec struct {
	Name       string       `yaml:"name"`
	Rows       int64        `yaml:"rows"`
	Columns    []ColumnSpec `yaml:"columns"`
	PrimaryKey []string     `yaml:"primary_key"`
	Indexes    []IndexSpec  `yaml:"indexes"`
	Advisor    *AdvisorSpec `yaml:"advisor"`
}

// ColumnSpec describes one column.
type ColumnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Collate    string `yaml:"collate"`
	NotNull    bool   `yaml:"not_null"`
	PrimaryKey bool   `yaml:"primary_key"`
}

// IndexSpec describes one index.
type IndexSpec struct {
	Name    string            `yaml:"name"`
	Unique  bool              `yaml:"unique"`
	Columns []IndexColumnSpec `yaml:"columns"`
	RowEst  []int64           `yaml:"row_estimates"`
}

// IndexColumnSpec is an index key column. It may be written as a bare
// column name or as a mapping with name, desc and collate keys.
type IndexColumnSpec struct {
	Name    string `yaml:"name"`
	Desc    bool   `yaml:"desc"`
	Collate string `yaml:"collate"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (s *IndexColumnSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Name = node.Value
		return nil
	}
	type plain IndexColumnSpec
	return node.Decode((*plain)(s))
}

// AdvisorSpec turns a table into an external table planned by a
// vtab.StaticAdvisor.
type AdvisorSpec struct {
	ScanCost    float64           `yaml:"scan_cost"`
	Selectivity float64           `yaml:"selectivity"`
	SortColumn  string            `yaml:"sort_column"`
	Rules       []AdvisorRuleSpec `yaml:"rules"`
}

// AdvisorRuleSpec declares one constraint shape the advisor serves.
type AdvisorRuleSpec struct {
	Column string `yaml:"column"`
	Op     string `yaml:"op"`
	Omit   bool   `yaml:"omit"`
}

// ParseSchema decodes a YAML schema document.
func ParseSchema(data []byte) (*SchemaFile, error) {
	var f SchemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, errors.InvalidSchemaDefinition, "failed to parse schema")
	}
	return &f, nil
}

// LoadSchema builds a MemoryCatalog from a YAML schema document.
func LoadSchema(data []byte) (*MemoryCatalog, error) {
	f, err := ParseSchema(data)
	if err != nil {
		return nil, err
	}
	c := NewMemoryCatalog()
	if err := f.Apply(c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadSchemaFile reads and loads a YAML schema file.
func LoadSchemaFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return LoadSchema(data)
}

// Apply creates the described tables and indexes in c.
func (f *SchemaFile) Apply(c Catalog) error {
	if f.Schema != "" && f.Schema != defaultSchemaName {
		if err := c.CreateSchema(f.Schema); err != nil {
			return err
		}
	}
	for i := range f.Tables {
		if err := f.applyTable(c, &f.Tables[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *SchemaFile) applyTable(c Catalog, spec *TableSpec) error {
	ts := &TableSchema{
		SchemaName: f.Schema,
		TableName:  spec.Name,
		PrimaryKey: spec.PrimaryKey,
	}
	for _, col := range spec.Columns {
		ts.Columns = append(ts.Columns, ColumnDef{
			Name:       col.Name,
			Type:       col.Type,
			Collation:  col.Collate,
			NotNull:    col.NotNull,
			PrimaryKey: col.PrimaryKey,
		})
	}

	table, err := c.CreateTable(ts)
	if err != nil {
		return err
	}
	if spec.Advisor != nil {
		advisor, err := spec.Advisor.build(table)
		if err != nil {
			return err
		}
		table.Advisor = advisor
	}
	if spec.Rows > 0 {
		if err := c.SetTableStats(f.Schema, spec.Name, &TableStats{RowCount: spec.Rows}); err != nil {
			return err
		}
	}

	for _, is := range spec.Indexes {
		def := &IndexSchema{
			SchemaName: f.Schema,
			TableName:  spec.Name,
			IndexName:  is.Name,
			IsUnique:   is.Unique,
			RowEst:     is.RowEst,
		}
		for _, col := range is.Columns {
			def.Columns = append(def.Columns, IndexColumnDef{Name: col.Name, Desc: col.Desc, Collation: col.Collate})
		}
		if _, err := c.CreateIndex(def); err != nil {
			return err
		}
	}
	return nil
}

func (s *AdvisorSpec) build(table *Table) (*vtab.StaticAdvisor, error) {
	scan := s.ScanCost
	if scan <= 0 {
		scan = DefaultTableRows
	}
	a := vtab.NewStaticAdvisor(scan)
	if s.Selectivity > 0 {
		a.Selectivity = s.Selectivity
	}
	if s.SortColumn != "" {
		_, ord := table.FindColumn(s.SortColumn)
		if ord < 0 {
			return nil, errors.UndefinedColumnError(s.SortColumn, table.TableName)
		}
		a.SortColumn = ord
	}
	for _, r := range s.Rules {
		_, ord := table.FindColumn(r.Column)
		if ord < 0 {
			return nil, errors.UndefinedColumnError(r.Column, table.TableName)
		}
		op, ok := vtab.ParseOp(r.Op)
		if !ok {
			return nil, errors.InvalidSchemaError("advisor of "+table.TableName, fmt.Sprintf("unknown operator %q", r.Op))
		}
		a.Rules = append(a.Rules, vtab.StaticRule{Column: ord, Op: op, Omit: r.Omit})
	}
	return a, nil
}
