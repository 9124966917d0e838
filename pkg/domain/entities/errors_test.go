package entities

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidInputError_Message(t *testing.T) {
	single := &InvalidInputError{Problems: []string{"n_items must be between 1 and 10, got 0"}}
	assert.Equal(t, "invalid planning input: n_items must be between 1 and 10, got 0", single.Error())

	multi := &InvalidInputError{Problems: []string{"a", "b"}}
	assert.Equal(t, "invalid planning input (2 problems): a; b", multi.Error())
}

func TestSolverUnavailableError_Unwrap(t *testing.T) {
	cause := errors.New("license expired")
	err := fmt.Errorf("planning: %w", &SolverUnavailableError{Solver: "bnb", Err: cause})

	var unavailable *SolverUnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "solver bnb unavailable: license expired", unavailable.Error())
}

func TestPlanningOutput_Err(t *testing.T) {
	testCases := []struct {
		status PlanStatus
		want   error
	}{
		{PlanSolved, nil},
		{PlanInfeasible, ErrInfeasibleModel},
		{PlanInconclusive, ErrInconclusiveSolve},
	}
	for _, tc := range testCases {
		t.Run(tc.status.String(), func(t *testing.T) {
			out := &PlanningOutput{Report: StatusReport{Status: tc.status}}
			if tc.want == nil {
				assert.NoError(t, out.Err())
				assert.True(t, out.Solved())
				return
			}
			assert.ErrorIs(t, out.Err(), tc.want)
			assert.False(t, out.Solved())
		})
	}
}
