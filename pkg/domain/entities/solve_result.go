package entities

import "time"

// TerminationStatus is the solver's classification of its own outcome
type TerminationStatus int

const (
	StatusOther TerminationStatus = iota
	StatusOptimal
	StatusInfeasible
)

// String method for TerminationStatus enum
func (s TerminationStatus) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "OTHER"
	}
}

// SolveResult is what a solver hands back for one ModelDescription.
// Values is indexed like ModelDescription.Variables and is only
// meaningful when Status is StatusOptimal.
type SolveResult struct {
	Status    TerminationStatus
	RawStatus string // solver-native status name, e.g. TIME_LIMIT
	Values    []float64
	Objective float64
	Nodes     int
	Elapsed   time.Duration
}

// StatusText returns the raw status when the solver gave one, else the classified status
func (r *SolveResult) StatusText() string {
	if r.RawStatus != "" {
		return r.RawStatus
	}
	return r.Status.String()
}
