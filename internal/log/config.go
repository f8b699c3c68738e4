package log

import (
	"io"
	"log/slog"
	"strings"

	"github.com/dshills/quantaplan/internal/errors"
)

// Config represents logging configuration.
type Config struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
	}
}

// Validate rejects unknown levels and formats.
func (c Config) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.InvalidConfigurationError("level", c.Level).
			WithHint("Use one of debug, info, warn or error.")
	}
	switch strings.ToLower(c.Format) {
	case "", "text", "json":
	default:
		return errors.InvalidConfigurationError("format", c.Format).
			WithHint("Use text or json.")
	}
	return nil
}

// ParseLevel parses string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewFromConfig builds a logger writing to w.
func NewFromConfig(cfg Config, w io.Writer) Logger {
	level := ParseLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "json") {
		return NewJSONLogger(w, level)
	}
	return NewTextLogger(w, level)
}
