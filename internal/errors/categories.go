package errors

// Category-specific error constructors

// Front-end errors

// SyntaxErrorf creates a formatted syntax error
func SyntaxErrorf(position int, format string, args ...interface{}) *Error {
	return Newf(SyntaxError, format, args...).WithPosition(position)
}

// FeatureNotSupportedError creates a feature not supported error
func FeatureNotSupportedError(feature string) *Error {
	return Newf(FeatureNotSupported, "%s is not supported", feature)
}

// UndefinedTableError creates an undefined table error
func UndefinedTableError(tableName string) *Error {
	return Newf(UndefinedTable, "relation \"%s\" does not exist", tableName).
		WithTable("", tableName)
}

// UndefinedColumnError creates an undefined column error
func UndefinedColumnError(columnName string, tableName string) *Error {
	if tableName != "" {
		return Newf(UndefinedColumn, "column %s.%s does not exist", tableName, columnName).
			WithTable("", tableName).
			WithColumn(columnName)
	}
	return Newf(UndefinedColumn, "column \"%s\" does not exist", columnName).
		WithColumn(columnName)
}

// AmbiguousColumnError creates an ambiguous column reference error
func AmbiguousColumnError(columnName string) *Error {
	return Newf(AmbiguousColumn, "column reference \"%s\" is ambiguous", columnName).
		WithColumn(columnName)
}

// Catalog errors

// DuplicateTableError creates a duplicate table error
func DuplicateTableError(tableName string) *Error {
	return Newf(DuplicateTable, "relation \"%s\" already exists", tableName).
		WithTable("", tableName)
}

// DuplicateIndexError creates a duplicate index error
func DuplicateIndexError(indexName string) *Error {
	return Newf(DuplicateObject, "index \"%s\" already exists", indexName)
}

// InvalidSchemaError reports a malformed table or index definition
func InvalidSchemaError(object, reason string) *Error {
	return Newf(InvalidSchemaDefinition, "invalid definition of %s: %s", object, reason)
}

// Planner errors

// TooManyTablesError reports a FROM clause wider than the planner bitmask
func TooManyTablesError(max int) *Error {
	return Newf(ProgramLimitExceeded, "at most %d tables in a join", max)
}

// OutOfMemoryError reports that a planning arena hit its budget
func OutOfMemoryError(context string) *Error {
	return Newf(OutOfMemory, "out of memory").
		WithDetailf("Failed on request of size in %s.", context)
}

// InvalidExternalPlanError reports an index advisor that referenced an
// unusable constraint
func InvalidExternalPlanError(tableName string) *Error {
	return Newf(FDWError, "table %s: index advisor returned an invalid plan", tableName).
		WithTable("", tableName)
}

// Configuration errors

// InvalidConfigurationError creates an invalid configuration error
func InvalidConfigurationError(parameter, value string) *Error {
	return Newf(ConfigFileError, "invalid value for parameter \"%s\": \"%s\"", parameter, value)
}

// InternalErrorf creates an internal error
func InternalErrorf(format string, args ...interface{}) *Error {
	return Newf(InternalError, format, args...)
}
