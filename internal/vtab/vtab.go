// Package vtab is the contract between the WHERE planner and tables
// whose access paths are chosen by an external index advisor rather
// than by catalog indexes.
package vtab

import "fmt"

// ConstraintOp is the operator of a constraint offered to an advisor.
type ConstraintOp uint8

// The numeric values are part of the advisor contract.
const (
	OpEQ    ConstraintOp = 2
	OpGT    ConstraintOp = 4
	OpLE    ConstraintOp = 8
	OpLT    ConstraintOp = 16
	OpGE    ConstraintOp = 32
	OpMatch ConstraintOp = 64
)

func (op ConstraintOp) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpLT:
		return "<"
	case OpGE:
		return ">="
	case OpMatch:
		return "MATCH"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(op))
	}
}

// Constraint is one candidate WHERE term "column op <expr>". Usable is
// false when the right-hand side depends on a table that is not yet
// available at this join position.
type Constraint struct {
	Column int
	Op     ConstraintOp
	Usable bool
}

// OrderBy is one ORDER BY term on a column of the table.
type OrderBy struct {
	Column int
	Desc   bool
}

// Request describes the query shape an advisor is asked to plan.
type Request struct {
	Table       string
	Constraints []Constraint
	OrderBy     []OrderBy
}

// ConstraintUsage is the advisor's decision for one constraint.
// ArgvIndex > 0 asks for the right-hand value to be passed as the
// ArgvIndex-th argument of the scan. Omit tells the planner that the
// advisor fully enforces the constraint.
type ConstraintUsage struct {
	ArgvIndex int
	Omit      bool
}

// Response is the advisor's plan. Usage is parallel to
// Request.Constraints; missing entries mean "not used".
type Response struct {
	Usage           []ConstraintUsage
	IdxNum          int
	IdxStr          string
	OrderByConsumed bool
	EstimatedCost   float64
}

// Advisor chooses an access strategy for an external table.
type Advisor interface {
	BestIndex(req *Request) (*Response, error)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(req *Request) (*Response, error)

// BestIndex calls f(req).
func (f AdvisorFunc) BestIndex(req *Request) (*Response, error) {
	return f(req)
}
