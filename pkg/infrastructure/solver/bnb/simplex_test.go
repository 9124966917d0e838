package bnb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

func newTestLP(cost []float64, rows ...entities.Constraint) *dualSimplex {
	lower := make([]float64, len(cost))
	upper := make([]float64, len(cost))
	for j := range upper {
		upper[j] = math.Inf(1)
	}
	lp := newDualSimplex(cost, lower, upper)
	for _, r := range rows {
		lp.addRow(r.Terms, r.Sense, r.RHS)
	}
	return lp
}

func leq(rhs float64, coefs ...float64) entities.Constraint {
	return constraint(entities.LessEqual, rhs, coefs...)
}

func geq(rhs float64, coefs ...float64) entities.Constraint {
	return constraint(entities.GreaterEqual, rhs, coefs...)
}

func constraint(sense entities.Sense, rhs float64, coefs ...float64) entities.Constraint {
	c := entities.Constraint{Sense: sense, RHS: rhs}
	for j, a := range coefs {
		if a != 0 {
			c.Terms = append(c.Terms, entities.Term{Var: j, Coef: a})
		}
	}
	return c
}

func TestDualSimplex_Maximise(t *testing.T) {
	lp := newTestLP([]float64{-1, -1}, leq(4, 1, 2), leq(6, 3, 1))

	require.NoError(t, lp.solve(nil))
	assert.InDelta(t, -2.8, lp.objective(), 1e-9)
	assert.InDelta(t, 1.6, lp.x[0], 1e-9)
	assert.InDelta(t, 1.2, lp.x[1], 1e-9)
}

func TestDualSimplex_Infeasible(t *testing.T) {
	lp := newTestLP([]float64{1}, geq(5, 1), leq(3, 1))

	assert.ErrorIs(t, lp.solve(nil), errInfeasible)
}

func TestDualSimplex_Unbounded(t *testing.T) {
	lp := newTestLP([]float64{-1, 0}, leq(1, 1, -1))

	assert.ErrorIs(t, lp.solve(nil), errUnbounded)
}

func TestDualSimplex_WarmStartAfterBoundChange(t *testing.T) {
	lp := newTestLP([]float64{1, 2}, geq(3, 1, 1))
	require.NoError(t, lp.solve(nil))
	assert.InDelta(t, 3, lp.objective(), 1e-9)
	warm := lp.snapshot()

	lp.setBounds(0, 0, 1)
	lp.primal()
	require.NoError(t, lp.solve(nil))
	assert.InDelta(t, 5, lp.objective(), 1e-9)
	assert.InDelta(t, 2, lp.x[1], 1e-9)

	// back to the original bounds from the saved basis
	lp.setBounds(0, 0, math.Inf(1))
	require.NoError(t, lp.restore(warm))
	require.NoError(t, lp.solve(nil))
	assert.InDelta(t, 3, lp.objective(), 1e-9)
}

func TestDualSimplex_AddRowAfterSolve(t *testing.T) {
	lp := newTestLP([]float64{1, 2}, geq(3, 1, 1))
	require.NoError(t, lp.solve(nil))

	lp.addRow([]entities.Term{{Var: 0, Coef: 1}}, entities.LessEqual, 1)
	require.NoError(t, lp.solve(nil))
	assert.InDelta(t, 5, lp.objective(), 1e-9)

	// the extended inverse agrees with a fresh factorisation
	before := lp.objective()
	require.NoError(t, lp.refactor())
	assert.InDelta(t, before, lp.objective(), 1e-9)
}

func TestDualSimplex_ColdStartAfterFailure(t *testing.T) {
	lp := newTestLP([]float64{1, 2}, geq(3, 1, 1), leq(10, 1, 1))
	require.NoError(t, lp.solve(nil))

	lp.coldStart()
	require.NoError(t, lp.solve(nil))
	assert.InDelta(t, 3, lp.objective(), 1e-9)
}

func TestDualSimplex_StopIsPolled(t *testing.T) {
	// enough rows that the solve runs past the first poll
	cost := make([]float64, 40)
	var rows []entities.Constraint
	for j := range cost {
		cost[j] = float64(j + 1)
		coefs := make([]float64, len(cost))
		coefs[j] = 1
		rows = append(rows, geq(float64(j+1), coefs...))
	}
	lp := newTestLP(cost, rows...)

	polls := 0
	err := lp.solve(func() bool {
		polls++
		return true
	})
	assert.ErrorIs(t, err, errStopped)
	assert.Equal(t, 1, polls)
}
