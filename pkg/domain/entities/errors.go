package entities

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInfeasibleModel marks an advisory output for a model with no feasible plan
	ErrInfeasibleModel = errors.New("model is infeasible")

	// ErrInconclusiveSolve marks an advisory output for a solve that ended
	// neither optimal nor infeasible
	ErrInconclusiveSolve = errors.New("solve was inconclusive")

	// ErrMalformedSolveResult is returned when a solver hands back a result that
	// does not fit the model it was given
	ErrMalformedSolveResult = errors.New("malformed solve result")
)

// InvalidInputError reports every problem found while validating an InputRecord
type InvalidInputError struct {
	Problems []string
}

func (e *InvalidInputError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid planning input: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid planning input (%d problems): %s",
		len(e.Problems), strings.Join(e.Problems, "; "))
}

// SolverUnavailableError reports that the solver could not be reached or initialised
type SolverUnavailableError struct {
	Solver string
	Err    error
}

func (e *SolverUnavailableError) Error() string {
	if e.Solver == "" {
		return fmt.Sprintf("solver unavailable: %v", e.Err)
	}
	return fmt.Sprintf("solver %s unavailable: %v", e.Solver, e.Err)
}

func (e *SolverUnavailableError) Unwrap() error {
	return e.Err
}
