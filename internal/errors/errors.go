package errors

import (
	stderrors "errors"
	"fmt"
)

// Error represents a PostgreSQL-compatible error with SQLSTATE code
type Error struct {
	Code     string // SQLSTATE code
	Message  string // Primary error message
	Detail   string // Optional detailed error message
	Hint     string // Optional hint message
	Position int    // Character position in query (0 if not applicable)
	Schema   string // Schema name if applicable
	Table    string // Table name if applicable
	Column   string // Column name if applicable
	cause    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (SQLSTATE %s) DETAIL: %s", e.Message, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s (SQLSTATE %s)", e.Message, e.Code)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new Error with the given code and message
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error that keeps err as its cause
func Wrap(err error, code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
		cause:   err,
	}
}

// WithDetail adds detail to the error
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithPosition sets the query position
func (e *Error) WithPosition(pos int) *Error {
	e.Position = pos
	return e
}

// WithTable sets the table name
func (e *Error) WithTable(schema, table string) *Error {
	e.Schema = schema
	e.Table = table
	return e
}

// WithColumn sets the column name
func (e *Error) WithColumn(column string) *Error {
	e.Column = column
	return e
}

// IsError checks if an error is a QuantaPlan Error with a specific code.
// Wrapped errors are unwrapped.
func IsError(err error, code string) bool {
	var qErr *Error
	return stderrors.As(err, &qErr) && qErr.Code == code
}

// Code returns the SQLSTATE of err, or InternalError for foreign errors.
func Code(err error) string {
	if err == nil {
		return ""
	}
	return GetError(err).Code
}

// GetError attempts to extract a QuantaPlan Error from any error
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	var qErr *Error
	if stderrors.As(err, &qErr) {
		return qErr
	}
	// Wrap generic errors as internal errors
	return Wrap(err, InternalError, "internal error")
}
