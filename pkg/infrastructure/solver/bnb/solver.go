// Package bnb is a general-purpose branch-and-bound MILP solver. LP
// relaxations are solved with a bounded dual simplex that restarts each
// node from its parent's basis. Flow paths found in the model are
// strengthened with (l, S) inequalities at the root, then integer
// variables are branched on depth first, most fractional variable first.
package bnb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/solver"
)

const (
	// DefaultMaxNodes caps the number of LP relaxations solved per call
	DefaultMaxNodes = 100000

	// MaxNodesOption is the solver.Config option key overriding DefaultMaxNodes
	MaxNodesOption = "max_nodes"

	// DefaultCutRounds caps the separation rounds run on the root relaxation
	DefaultCutRounds = 50

	// CutRoundsOption is the solver.Config option key overriding
	// DefaultCutRounds. Zero disables cuts.
	CutRoundsOption = "cut_rounds"

	integralityTolerance = 1e-6
	snapTolerance        = 1e-9
	absoluteGap          = 1e-9
)

// Raw statuses reported alongside entities.StatusOther
const (
	StatusTimeLimit      = "TIME_LIMIT"
	StatusNodeLimit      = "NODE_LIMIT"
	StatusInterrupted    = "INTERRUPTED"
	StatusUnbounded      = "UNBOUNDED"
	StatusNumericalError = "NUMERICAL_ERROR"
	StatusSuboptimal     = "SUBOPTIMAL"
)

// Solver implements solver.Solver. It keeps no state between calls and is
// safe for concurrent use.
type Solver struct {
	now func() time.Time
}

// New creates a branch-and-bound solver
func New() *Solver {
	return &Solver{now: time.Now}
}

// Name returns "bnb"
func (s *Solver) Name() string { return "bnb" }

// bound is a branching restriction on a single variable
type bound struct {
	variable     int
	lower, upper float64
}

// node is an LP relaxation with the branching bounds added so far.
// parentBound is the parent's relaxation objective, a lower bound for the
// node, and warm is the parent's optimal basis.
type node struct {
	bounds      []bound
	parentBound float64
	warm        *basis
}

// search holds the state of one Solve call
type search struct {
	model   *entities.ModelDescription
	integer []bool
	lower   []float64
	upper   []float64

	lp        *dualSimplex
	current   *basis
	paths     [][]flowRow
	cutRounds int

	incumbent    []float64
	incumbentObj float64
	nodes        int
	numerical    int
}

// Solve runs branch and bound on model. It returns an error only when the
// model cannot be handed to the LP solver at all.
func (s *Solver) Solve(ctx context.Context, model *entities.ModelDescription, cfg solver.Config) (*entities.SolveResult, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}

	start := s.now()
	var deadline time.Time
	if cfg.TimeLimit > 0 {
		deadline = start.Add(cfg.TimeLimit)
	}
	maxNodes := cfg.IntOption(MaxNodesOption, DefaultMaxNodes)

	var stopped string
	stop := func() bool {
		stopped = s.interruption(ctx, deadline)
		return stopped != ""
	}

	srch := newSearch(model, cfg.IntOption(CutRoundsOption, DefaultCutRounds))
	stack := []node{{parentBound: math.Inf(-1)}}

	for len(stack) > 0 {
		if stop() {
			break
		}
		if srch.nodes >= maxNodes {
			stopped = StatusNodeLimit
			break
		}

		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.parentBound >= srch.cutoff(cfg.MIPGap) {
			continue
		}

		z, x, err := srch.relax(n, stop)
		if errors.Is(err, errStopped) {
			break
		}
		if err != nil {
			switch {
			case errors.Is(err, errInfeasible):
			case errors.Is(err, errUnbounded):
				return srch.result(StatusUnbounded, s.now().Sub(start)), nil
			default:
				srch.numerical++
			}
			continue
		}

		if z >= srch.cutoff(cfg.MIPGap) {
			continue
		}

		branchVar := srch.mostFractional(x)
		if branchVar < 0 {
			srch.incumbent = x
			srch.incumbentObj = z
			continue
		}

		v := x[branchVar]
		lo, hi := srch.lp.lower[branchVar], srch.lp.upper[branchVar]
		down := withBound(n.bounds, bound{variable: branchVar, lower: lo, upper: math.Floor(v)})
		up := withBound(n.bounds, bound{variable: branchVar, lower: math.Ceil(v), upper: hi})
		// up is explored first: opening a setup tends to reach a feasible plan quickly
		stack = append(stack,
			node{bounds: down, parentBound: z, warm: srch.current},
			node{bounds: up, parentBound: z, warm: srch.current})
	}

	return srch.result(stopped, s.now().Sub(start)), nil
}

// interruption names the reason the search must stop, or returns ""
func (s *Solver) interruption(ctx context.Context, deadline time.Time) string {
	if ctx.Err() != nil {
		return StatusInterrupted
	}
	if !deadline.IsZero() && s.now().After(deadline) {
		return StatusTimeLimit
	}
	return ""
}

func newSearch(model *entities.ModelDescription, cutRounds int) *search {
	n := len(model.Variables)
	srch := &search{
		model:        model,
		integer:      make([]bool, n),
		lower:        make([]float64, n),
		upper:        make([]float64, n),
		cutRounds:    cutRounds,
		incumbentObj: math.Inf(1),
	}
	for j, v := range model.Variables {
		srch.integer[j] = v.Domain == entities.Binary
		srch.lower[j] = v.Lower
		srch.upper[j] = v.Upper
	}

	cost := make([]float64, n)
	for _, t := range model.Objective {
		cost[t.Var] += t.Coef
	}
	srch.lp = newDualSimplex(cost, srch.lower, srch.upper)
	for _, c := range model.Constraints {
		srch.lp.addRow(c.Terms, c.Sense, c.RHS)
	}
	if cutRounds > 0 {
		srch.paths = findPaths(model)
	}
	return srch
}

// cutoff is the objective a node must beat to be worth exploring
func (srch *search) cutoff(mipGap float64) float64 {
	if srch.incumbent == nil {
		return math.Inf(1)
	}
	gap := math.Max(absoluteGap, mipGap*math.Abs(srch.incumbentObj))
	return srch.incumbentObj - gap
}

// relax solves the LP relaxation of n and returns its objective and the
// structural part of the solution. The root relaxation is tightened with
// path cuts before it is returned.
func (srch *search) relax(n node, stop func() bool) (float64, []float64, error) {
	srch.nodes++
	root := srch.nodes == 1

	lp := srch.lp
	for j := range srch.lower {
		lp.setBounds(j, srch.lower[j], srch.upper[j])
	}
	for _, b := range n.bounds {
		lp.setBounds(b.variable, b.lower, b.upper)
	}

	if n.warm != nil && n.warm != srch.current {
		if err := lp.restore(n.warm); err != nil {
			lp.coldStart()
		}
	} else {
		lp.primal()
	}
	srch.current = nil

	if err := srch.resolve(stop); err != nil {
		return 0, nil, err
	}
	if root {
		if err := srch.addCuts(stop); err != nil {
			return 0, nil, err
		}
	}

	srch.current = lp.snapshot()
	x := append([]float64(nil), lp.x[:lp.n]...)
	return lp.objective(), x, nil
}

// resolve re-optimises the relaxation from the current basis. A numerical
// failure is retried once from the all-logical basis before it is reported.
func (srch *search) resolve(stop func() bool) error {
	err := srch.lp.solve(stop)
	if errors.Is(err, errNumerical) {
		srch.lp.coldStart()
		err = srch.lp.solve(stop)
	}
	return err
}

// addCuts runs separation rounds on the solved root relaxation until no
// path inequality is violated or the round budget is spent
func (srch *search) addCuts(stop func() bool) error {
	if len(srch.paths) == 0 {
		return nil
	}
	for round := 0; round < srch.cutRounds; round++ {
		cuts := separatePaths(srch.paths, srch.lp.x)
		if len(cuts) == 0 {
			return nil
		}
		for _, c := range cuts {
			srch.lp.addRow(c.terms, entities.LessEqual, 0)
		}
		if err := srch.resolve(stop); err != nil {
			return err
		}
	}
	return nil
}

// mostFractional returns the integer variable furthest from integrality, or -1
func (srch *search) mostFractional(x []float64) int {
	best, bestDist := -1, integralityTolerance
	for j, isInt := range srch.integer {
		if !isInt {
			continue
		}
		dist := math.Abs(x[j] - math.Round(x[j]))
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

func (srch *search) result(stopped string, elapsed time.Duration) *entities.SolveResult {
	res := &entities.SolveResult{Nodes: srch.nodes, Elapsed: elapsed}

	if srch.incumbent != nil {
		res.Values = snap(srch.incumbent, srch.integer)
		res.Objective = srch.model.Evaluate(res.Values)
	}

	switch {
	case stopped != "":
		res.Status = entities.StatusOther
		res.RawStatus = stopped
	case srch.incumbent != nil && srch.numerical == 0:
		res.Status = entities.StatusOptimal
	case srch.incumbent != nil:
		res.Status = entities.StatusOther
		res.RawStatus = StatusSuboptimal
	case srch.numerical > 0:
		res.Status = entities.StatusOther
		res.RawStatus = StatusNumericalError
	default:
		res.Status = entities.StatusInfeasible
	}
	return res
}

// snap removes simplex noise: values within snapTolerance of zero become
// zero and integer variables within snapTolerance of an integer become that integer
func snap(x []float64, integer []bool) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		switch {
		case math.Abs(v) < snapTolerance:
			v = 0
		case integer[j] && math.Abs(v-math.Round(v)) < snapTolerance:
			v = math.Round(v)
		}
		out[j] = v
	}
	return out
}

func withBound(bounds []bound, b bound) []bound {
	out := make([]bound, len(bounds), len(bounds)+1)
	copy(out, bounds)
	return append(out, b)
}

func checkModel(model *entities.ModelDescription) error {
	if model == nil {
		return fmt.Errorf("bnb: nil model")
	}
	if len(model.Variables) == 0 {
		return fmt.Errorf("bnb: model %q has no variables", model.Name)
	}
	n := len(model.Variables)
	for _, t := range model.Objective {
		if t.Var < 0 || t.Var >= n {
			return fmt.Errorf("bnb: objective references variable %d of %d", t.Var, n)
		}
	}
	for _, c := range model.Constraints {
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= n {
				return fmt.Errorf("bnb: constraint %s references variable %d of %d", c.Name, t.Var, n)
			}
		}
	}
	return nil
}
