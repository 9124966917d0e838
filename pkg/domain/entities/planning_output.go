package entities

import "github.com/shopspring/decimal"

// PlanStatus is the decision-maker facing outcome of a planning request
type PlanStatus int

const (
	PlanSolved PlanStatus = iota
	PlanInfeasible
	PlanInconclusive
)

// String method for PlanStatus enum
func (s PlanStatus) String() string {
	switch s {
	case PlanSolved:
		return "solved"
	case PlanInfeasible:
		return "infeasible"
	case PlanInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON and YAML
func (s PlanStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ItemPlan holds one item's per-period values
type ItemPlan struct {
	Item    string            `json:"item"`
	Periods []decimal.Decimal `json:"periods"`
}

// CostBreakdown is the plan cost split by component
type CostBreakdown struct {
	Production decimal.Decimal `json:"production"`
	Setup      decimal.Decimal `json:"setup"`
	Holding    decimal.Decimal `json:"holding"`
	Total      decimal.Decimal `json:"total"`
}

// StatusReport carries the status and human-readable guidance
type StatusReport struct {
	Status    PlanStatus `json:"status"`
	RawStatus string     `json:"raw_status"`
	Message   string     `json:"message"`
	Guidance  []string   `json:"guidance,omitempty"`
}

// PlanningOutput is the terminal artifact of a planning request.
// Plans and Costs are only populated when Report.Status is PlanSolved.
type PlanningOutput struct {
	Periods         int             `json:"periods"`
	Production      []ItemPlan      `json:"production,omitempty"`
	Inventory       []ItemPlan      `json:"inventory,omitempty"`
	Setups          []ItemPlan      `json:"setups,omitempty"`
	Costs           *CostBreakdown  `json:"costs,omitempty"`
	SolverObjective decimal.Decimal `json:"solver_objective"`
	Report          StatusReport    `json:"report"`
	Warnings        []string        `json:"warnings,omitempty"`
}

// Solved reports whether the output carries a plan
func (o *PlanningOutput) Solved() bool {
	return o.Report.Status == PlanSolved
}

// Err maps advisory outcomes onto sentinel errors for callers that prefer
// errors.Is. It returns nil for a solved plan.
func (o *PlanningOutput) Err() error {
	switch o.Report.Status {
	case PlanInfeasible:
		return ErrInfeasibleModel
	case PlanInconclusive:
		return ErrInconclusiveSolve
	default:
		return nil
	}
}
