package vtab

// StaticRule declares that the external table can serve constraints
// with Op on Column. Omit reports that the table fully enforces them.
type StaticRule struct {
	Column int
	Op     ConstraintOp
	Omit   bool
}

// StaticAdvisor is a rule-driven advisor for external tables whose
// capabilities are known up front. Every usable constraint matched by
// a rule is consumed, each one dividing the scan cost by Selectivity.
type StaticAdvisor struct {
	Rules       []StaticRule
	ScanCost    float64
	Selectivity float64
	// SortColumn is the column the table naturally returns rows
	// ordered by, ascending; -1 for none.
	SortColumn int
}

// NewStaticAdvisor returns an advisor with no rules and no natural
// ordering.
func NewStaticAdvisor(scanCost float64) *StaticAdvisor {
	return &StaticAdvisor{ScanCost: scanCost, Selectivity: 10, SortColumn: -1}
}

// BestIndex implements Advisor.
func (a *StaticAdvisor) BestIndex(req *Request) (*Response, error) {
	resp := &Response{
		Usage:         make([]ConstraintUsage, len(req.Constraints)),
		EstimatedCost: a.ScanCost,
	}
	argv := 0
	for i, c := range req.Constraints {
		if !c.Usable {
			continue
		}
		rule, ok := a.match(c)
		if !ok {
			continue
		}
		argv++
		resp.Usage[i] = ConstraintUsage{ArgvIndex: argv, Omit: rule.Omit}
		if a.Selectivity > 1 {
			resp.EstimatedCost /= a.Selectivity
		}
		resp.IdxNum |= 1 << uint(i%31)
	}
	if len(req.OrderBy) == 1 && req.OrderBy[0].Column == a.SortColumn && !req.OrderBy[0].Desc {
		resp.OrderByConsumed = true
	}
	return resp, nil
}

func (a *StaticAdvisor) match(c Constraint) (StaticRule, bool) {
	for _, r := range a.Rules {
		if r.Column == c.Column && r.Op == c.Op {
			return r, true
		}
	}
	return StaticRule{}, false
}

// ParseOp maps an operator spelling to its ConstraintOp.
func ParseOp(name string) (ConstraintOp, bool) {
	switch name {
	case "=", "eq", "EQ":
		return OpEQ, true
	case ">", "gt", "GT":
		return OpGT, true
	case "<=", "le", "LE":
		return OpLE, true
	case "<", "lt", "LT":
		return OpLT, true
	case ">=", "ge", "GE":
		return OpGE, true
	case "match", "MATCH":
		return OpMatch, true
	}
	return 0, false
}
