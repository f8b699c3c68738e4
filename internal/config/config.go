package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
)

// MaxJoinTables is the width of the planner's table bitmask.
const MaxJoinTables = 64

// Config represents the complete QuantaPlan configuration.
type Config struct {
	// Planner configuration
	Planner PlannerConfig `json:"planner"`

	// Logging configuration
	Log log.Config `json:"log"`
}

// PlannerConfig holds the cost-model knobs of the WHERE planner.
type PlannerConfig struct {
	// MaxTables caps the number of FROM items in one join.
	MaxTables int `json:"max_tables"`

	// MaxTerms caps the number of WHERE terms, including terms the
	// planner synthesizes. Exceeding it fails planning with an
	// out-of-memory error.
	MaxTerms int `json:"max_terms"`

	// DefaultRowEstimate is used for tables without statistics.
	DefaultRowEstimate float64 `json:"default_row_estimate"`

	// CaseSensitiveLike switches LIKE to case-sensitive matching,
	// which changes the collation LIKE prefix ranges require.
	CaseSensitiveLike bool `json:"case_sensitive_like"`

	// RowidInSubqueryCost is the cost of a rowid IN (SELECT ...) lookup.
	RowidInSubqueryCost float64 `json:"rowid_in_subquery_cost"`

	// InSubqueryMultiplier is the assumed result size of an IN subquery.
	InSubqueryMultiplier float64 `json:"in_subquery_multiplier"`

	// RangeDivisor is the selectivity of each range bound.
	RangeDivisor float64 `json:"range_divisor"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Planner: DefaultPlannerConfig(),
		Log:     log.DefaultConfig(),
	}
}

// DefaultPlannerConfig returns the classic cost-model constants.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxTables:            MaxJoinTables,
		MaxTerms:             4096,
		DefaultRowEstimate:   1000000,
		CaseSensitiveLike:    false,
		RowidInSubqueryCost:  200,
		InSubqueryMultiplier: 25,
		RangeDivisor:         3,
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFlags merges command-line flags into the configuration.
func (c *Config) LoadFromFlags(logLevel string, caseSensitiveLike bool) {
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if caseSensitiveLike {
		c.Planner.CaseSensitiveLike = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}

// Validate checks the planner knobs.
func (p PlannerConfig) Validate() error {
	if p.MaxTables < 1 || p.MaxTables > MaxJoinTables {
		return errors.InvalidConfigurationError("max_tables", strconv.Itoa(p.MaxTables)).
			WithDetailf("Must be between 1 and %d.", MaxJoinTables)
	}
	if p.MaxTerms < 1 {
		return errors.InvalidConfigurationError("max_terms", strconv.Itoa(p.MaxTerms)).
			WithDetail("Must be at least 1.")
	}
	if p.DefaultRowEstimate < 1 {
		return invalidFloat("default_row_estimate", p.DefaultRowEstimate, "Must be at least 1.")
	}
	if p.RowidInSubqueryCost < 0 {
		return invalidFloat("rowid_in_subquery_cost", p.RowidInSubqueryCost, "Must not be negative.")
	}
	if p.InSubqueryMultiplier < 1 {
		return invalidFloat("in_subquery_multiplier", p.InSubqueryMultiplier, "Must be at least 1.")
	}
	if p.RangeDivisor < 1 {
		return invalidFloat("range_divisor", p.RangeDivisor, "Must be at least 1.")
	}
	return nil
}

func invalidFloat(parameter string, value float64, detail string) error {
	return errors.InvalidConfigurationError(parameter, strconv.FormatFloat(value, 'g', -1, 64)).
		WithDetail(detail)
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
