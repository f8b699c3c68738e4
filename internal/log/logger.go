package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

// Logger is the interface for QuantaPlan logging
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithContext(ctx context.Context) Logger
	// DebugEnabled reports whether debug records would be emitted.
	// Callers use it to skip building expensive trace attributes.
	DebugEnabled() bool
}

// logger wraps slog.Logger
type logger struct {
	slog *slog.Logger
	ctx  context.Context
}

// New creates a new logger with the given handler
func New(handler slog.Handler) Logger {
	return &logger{slog: slog.New(handler), ctx: context.Background()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return New(slog.DiscardHandler)
}

// NewTextLogger creates a new text logger writing to w
func NewTextLogger(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewJSONLogger creates a new JSON logger writing to w
func NewJSONLogger(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (l *logger) Debug(msg string, args ...any) {
	l.slog.DebugContext(l.ctx, msg, args...)
}

func (l *logger) Info(msg string, args ...any) {
	l.slog.InfoContext(l.ctx, msg, args...)
}

func (l *logger) Warn(msg string, args ...any) {
	l.slog.WarnContext(l.ctx, msg, args...)
}

func (l *logger) Error(msg string, args ...any) {
	l.slog.ErrorContext(l.ctx, msg, args...)
}

func (l *logger) With(args ...any) Logger {
	return &logger{slog: l.slog.With(args...), ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &logger{slog: l.slog, ctx: ctx}
}

func (l *logger) DebugEnabled() bool {
	return l.slog.Enabled(l.ctx, slog.LevelDebug)
}

// Helper functions for structured logging

// String returns a string attribute
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Int returns an int attribute
func Int(key string, value int) slog.Attr {
	return slog.Int(key, value)
}

// Float64 returns a float64 attribute
func Float64(key string, value float64) slog.Attr {
	return slog.Float64(key, value)
}

// Bool returns a bool attribute
func Bool(key string, value bool) slog.Attr {
	return slog.Bool(key, value)
}

// Hex renders a bitmask attribute in hexadecimal.
func Hex(key string, value uint64) slog.Attr {
	return slog.String(key, "0x"+strconv.FormatUint(value, 16))
}
