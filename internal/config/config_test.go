package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 64, cfg.Planner.MaxTables)
	assert.Equal(t, 1000000.0, cfg.Planner.DefaultRowEstimate)
	assert.Equal(t, 3.0, cfg.Planner.RangeDivisor)
	assert.False(t, cfg.Planner.CaseSensitiveLike)
}

func TestPlannerValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlannerConfig)
		msg    string
	}{
		{"too many tables", func(p *PlannerConfig) { p.MaxTables = 65 }, `"max_tables": "65"`},
		{"zero tables", func(p *PlannerConfig) { p.MaxTables = 0 }, `"max_tables": "0"`},
		{"zero terms", func(p *PlannerConfig) { p.MaxTerms = 0 }, `"max_terms": "0"`},
		{"zero rows", func(p *PlannerConfig) { p.DefaultRowEstimate = 0 }, `"default_row_estimate": "0"`},
		{"negative subquery cost", func(p *PlannerConfig) { p.RowidInSubqueryCost = -1 }, `"rowid_in_subquery_cost": "-1"`},
		{"tiny multiplier", func(p *PlannerConfig) { p.InSubqueryMultiplier = 0.5 }, `"in_subquery_multiplier": "0.5"`},
		{"tiny divisor", func(p *PlannerConfig) { p.RangeDivisor = 0 }, `"range_divisor": "0"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPlannerConfig()
			tt.mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.ConfigFileError, errors.Code(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "planner": {"max_tables": 8, "case_sensitive_like": true},
  "log": {"level": "debug", "format": "json"}
}`), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Planner.MaxTables)
	assert.True(t, cfg.Planner.CaseSensitiveLike)
	// unspecified keys keep their defaults
	assert.Equal(t, 4096, cfg.Planner.MaxTerms)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to read config file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"planner":`), 0o600))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "failed to parse config file")

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"planner":{"max_tables":100}}`), 0o600))
	_, err = LoadFromFile(invalid)
	assert.ErrorContains(t, err, "invalid configuration")
	assert.True(t, errors.IsError(err, errors.ConfigFileError))
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plan.json")
	cfg := DefaultConfig()
	cfg.Planner.RangeDivisor = 4
	cfg.LoadFromFlags("warn", true)
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
