package errors

// PostgreSQL Error Codes (SQLSTATE)
// Based on PostgreSQL error codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
// Only the classes the planner and its front ends raise are listed.

// Class 0A - Feature Not Supported
const (
	FeatureNotSupported = "0A000"
)

// Class 22 - Data Exception
const (
	DataException          = "22000"
	InvalidParameterValue  = "22023"
	InvalidEscapeCharacter = "22019"
)

// Class 42 - Syntax Error or Access Rule Violation
const (
	SyntaxErrorOrAccessRuleViolation = "42000"
	SyntaxError                      = "42601"
	AmbiguousColumn                  = "42702"
	UndefinedColumn                  = "42703"
	UndefinedTable                   = "42P01"
	DuplicateTable                   = "42P07"
	DuplicateObject                  = "42710"
	UndefinedObject                  = "42704"
	InvalidName                      = "42602"
	InvalidSchemaDefinition          = "42P15"
	DuplicateColumn                  = "42701"
)

// Class 53 - Insufficient Resources
const (
	InsufficientResources = "53000"
	OutOfMemory           = "53200"
)

// Class 54 - Program Limit Exceeded
const (
	ProgramLimitExceeded = "54000"
	StatementTooComplex  = "54001"
	TooManyColumns       = "54011"
)

// Class F0 - Configuration File Error
const (
	ConfigFileError = "F0000"
	LockFileExists  = "F0001"
)

// Class HV - Foreign Data Wrapper Error (SQL/MED)
// Raised when an external index advisor misbehaves.
const (
	FDWError               = "HV000"
	FDWInvalidOptionName   = "HV00D"
	FDWInvalidDataType     = "HV004"
	FDWUnableToCreateReply = "HV00M"
)

// Class XX - Internal Error
const (
	InternalError  = "XX000"
	DataCorrupted  = "XX001"
	IndexCorrupted = "XX002"
)
