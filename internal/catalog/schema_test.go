package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/vtab"
)

const sampleSchema = `
tables:
  - name: users
    rows: 5000
    columns:
      - {name: id, type: INTEGER, primary_key: true}
      - {name: email, type: TEXT, collate: nocase}
      - {name: age, type: INT}
    indexes:
      - name: users_email
        unique: true
        columns: [email]
      - name: users_age_email
        columns:
          - age
          - {name: email, desc: true, collate: binary}
        row_estimates: [5000, 50, 2]
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

func TestLoadSchema(t *testing.T) {
	c, err := LoadSchema([]byte(sampleSchema))
	require.NoError(t, err)

	users, err := c.GetTable("", "users")
	require.NoError(t, err)
	assert.Equal(t, 0, users.RowidAlias)
	rows, ok := users.RowEstimate()
	assert.True(t, ok)
	assert.Equal(t, 5000.0, rows)

	require.Len(t, users.Indexes, 2)
	assert.Equal(t, []int64{5000, 1}, users.Indexes[0].RowEst)
	second := users.Indexes[1]
	assert.Equal(t, "age", second.Columns[0].Column.Name)
	assert.Equal(t, Descending, second.Columns[1].SortOrder)
	assert.Equal(t, "BINARY", second.Columns[1].Collation)
	assert.Equal(t, []int64{5000, 50, 2}, second.RowEst)

	docs, err := c.GetTable("", "docs")
	require.NoError(t, err)
	require.True(t, docs.IsVirtual())
	static, ok := docs.Advisor.(*vtab.StaticAdvisor)
	require.True(t, ok)
	assert.Equal(t, 2000.0, static.ScanCost)
	assert.Equal(t, 1, static.SortColumn)
	assert.Equal(t, []vtab.StaticRule{
		{Column: 0, Op: vtab.OpMatch, Omit: true},
		{Column: 1, Op: vtab.OpEQ},
	}, static.Rules)
	_, ok = docs.RowEstimate()
	assert.False(t, ok)
}

func TestLoadSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"bad yaml", "tables: [", errors.InvalidSchemaDefinition},
		{"unknown index column", `
tables:
  - name: t
    columns: [{name: a}]
    indexes: [{name: i, columns: [b]}]
`, errors.UndefinedColumn},
		{"unknown advisor op", `
tables:
  - name: t
    columns: [{name: a}]
    advisor: {rules: [{column: a, op: "~"}]}
`, errors.InvalidSchemaDefinition},
		{"unknown advisor column", `
tables:
  - name: t
    columns: [{name: a}]
    advisor: {sort_column: z}
`, errors.UndefinedColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSchema([]byte(tt.doc))
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.Code(err))
		})
	}
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema: app\n"+sampleSchema), 0o600))

	c, err := LoadSchemaFile(path)
	require.NoError(t, err)
	_, err = c.GetTable("app", "users")
	require.NoError(t, err)

	_, err = LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
