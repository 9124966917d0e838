package bnb

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

const (
	// artificialBound boxes every variable so a dual feasible starting
	// basis always exists. A solution resting on it means the LP is unbounded.
	artificialBound = 1e9

	primalTolerance = 1e-7
	dualTolerance   = 1e-7
	pivotTolerance  = 1e-9

	// refactorEvery bounds the number of basis-inverse updates between refactorizations
	refactorEvery = 100
	// stopCheckEvery is how many iterations pass between interruption checks
	stopCheckEvery = 16
)

var (
	errInfeasible = errors.New("bnb: relaxation is infeasible")
	errUnbounded  = errors.New("bnb: relaxation is unbounded")
	errNumerical  = errors.New("bnb: numerical trouble in relaxation")
	errStopped    = errors.New("bnb: relaxation interrupted")
)

type varStatus int8

const (
	basic varStatus = iota
	atLower
	atUpper
)

// entry is one non-zero of a structural column
type entry struct {
	row  int
	coef float64
}

// basis is a snapshot of which variable is basic in each row and where the
// nonbasic variables rest
type basis struct {
	head   []int
	status []varStatus
}

// dualSimplex solves min cᵀx subject to A·x + s = b and lower ≤ (x, s) ≤ upper
// with a bounded-variable dual simplex. Variable j < n is structural; n+i is
// the logical of row i. An explicit basis inverse is kept so a relaxation
// can restart from any earlier basis after bounds change or rows are added.
type dualSimplex struct {
	n, m int
	cols [][]entry
	b    []float64

	cost  []float64
	lower []float64
	upper []float64

	status []varStatus
	x      []float64
	d      []float64
	head   []int
	binv   *mat.Dense

	updates int
	alpha   []float64
	column  []float64
}

// newDualSimplex creates an LP over n structural variables and no rows.
// Infinite bounds are replaced by ±artificialBound.
func newDualSimplex(cost, lower, upper []float64) *dualSimplex {
	n := len(cost)
	s := &dualSimplex{
		n:      n,
		cols:   make([][]entry, n),
		cost:   append([]float64(nil), cost...),
		lower:  make([]float64, n),
		upper:  make([]float64, n),
		status: make([]varStatus, n),
		x:      make([]float64, n),
		d:      append([]float64(nil), cost...),
	}
	for j := 0; j < n; j++ {
		s.lower[j] = clampBound(lower[j])
		s.upper[j] = clampBound(upper[j])
		s.status[j] = atLower
		s.x[j] = s.lower[j]
	}
	return s
}

func clampBound(v float64) float64 {
	return math.Max(-artificialBound, math.Min(artificialBound, v))
}

// addRow appends terms (sense) rhs with its logical basic in the new row.
// The basis inverse is extended in place, so a solved LP stays dual feasible
// and can be re-solved from where it stopped.
func (s *dualSimplex) addRow(terms []entities.Term, sense entities.Sense, rhs float64) {
	i := s.m
	for _, t := range terms {
		if t.Coef != 0 {
			s.cols[t.Var] = append(s.cols[t.Var], entry{row: i, coef: t.Coef})
		}
	}

	lo, hi := 0.0, 0.0
	switch sense {
	case entities.LessEqual:
		hi = artificialBound
	case entities.GreaterEqual:
		lo = -artificialBound
	}

	activity := 0.0
	for _, t := range terms {
		activity += t.Coef * s.x[t.Var]
	}

	// the new row of B⁻¹ is -a_Bᵀ·B⁻¹, with a 1 for the new logical
	rowCoef := make(map[int]float64, len(terms))
	for _, t := range terms {
		rowCoef[t.Var] += t.Coef
	}
	grown := mat.NewDense(i+1, i+1, nil)
	for r := 0; r < i; r++ {
		copy(grown.RawRowView(r)[:i], s.binv.RawRowView(r))
	}
	last := grown.RawRowView(i)
	for r, h := range s.head {
		a, ok := rowCoef[h]
		if !ok || a == 0 {
			continue
		}
		for k, v := range s.binv.RawRowView(r) {
			last[k] -= a * v
		}
	}
	last[i] = 1
	s.binv = grown

	s.b = append(s.b, rhs)
	s.cost = append(s.cost, 0)
	s.lower = append(s.lower, lo)
	s.upper = append(s.upper, hi)
	s.status = append(s.status, basic)
	s.x = append(s.x, rhs-activity)
	s.d = append(s.d, 0)
	s.head = append(s.head, s.n+i)
	s.m++
}

// setBounds changes the bounds of structural variable j. Call primal or
// restore before solving again.
func (s *dualSimplex) setBounds(j int, lower, upper float64) {
	s.lower[j] = clampBound(lower)
	s.upper[j] = clampBound(upper)
}

func (s *dualSimplex) snapshot() *basis {
	return &basis{
		head:   append([]int(nil), s.head...),
		status: append([]varStatus(nil), s.status...),
	}
}

// restore reinstates bs and refactors the basis inverse
func (s *dualSimplex) restore(bs *basis) error {
	if len(bs.head) != s.m || len(bs.status) != s.n+s.m {
		return fmt.Errorf("%w: basis has %d rows, LP has %d", errNumerical, len(bs.head), s.m)
	}
	copy(s.head, bs.head)
	copy(s.status, bs.status)
	return s.refactor()
}

// coldStart drops the current basis for the all-logical one
func (s *dualSimplex) coldStart() {
	for j := 0; j < s.n; j++ {
		s.status[j] = atLower
	}
	for i := 0; i < s.m; i++ {
		s.head[i] = s.n + i
		s.status[s.n+i] = basic
	}
	if s.m > 0 {
		s.binv = mat.NewDense(s.m, s.m, nil)
		for i := 0; i < s.m; i++ {
			s.binv.Set(i, i, 1)
		}
	}
	s.updates = 0
	s.primal()
	s.dual()
}

// refactor inverts the current basis and recomputes primal and dual values
func (s *dualSimplex) refactor() error {
	if s.m > 0 {
		B := mat.NewDense(s.m, s.m, nil)
		for r, h := range s.head {
			if h >= s.n {
				B.Set(h-s.n, r, B.At(h-s.n, r)+1)
				continue
			}
			for _, e := range s.cols[h] {
				B.Set(e.row, r, B.At(e.row, r)+e.coef)
			}
		}
		var inv mat.Dense
		if err := inv.Inverse(B); err != nil {
			return fmt.Errorf("%w: %v", errNumerical, err)
		}
		s.binv = &inv
	}
	s.updates = 0
	s.primal()
	s.dual()
	return nil
}

// primal places nonbasic variables on their bounds and solves for the basics
func (s *dualSimplex) primal() {
	rhs := append([]float64(nil), s.b...)
	for j, st := range s.status {
		switch st {
		case basic:
			continue
		case atLower:
			s.x[j] = s.lower[j]
		case atUpper:
			s.x[j] = s.upper[j]
		}
		if s.x[j] == 0 {
			continue
		}
		if j >= s.n {
			rhs[j-s.n] -= s.x[j]
			continue
		}
		for _, e := range s.cols[j] {
			rhs[e.row] -= e.coef * s.x[j]
		}
	}
	for r, h := range s.head {
		var v float64
		for k, bk := range s.binv.RawRowView(r) {
			v += bk * rhs[k]
		}
		s.x[h] = v
	}
}

// dual recomputes reduced costs from the basis inverse
func (s *dualSimplex) dual() {
	y := make([]float64, s.m)
	for r, h := range s.head {
		if c := s.cost[h]; c != 0 {
			for k, bk := range s.binv.RawRowView(r) {
				y[k] += c * bk
			}
		}
	}
	for j, st := range s.status {
		if st == basic {
			s.d[j] = 0
			continue
		}
		s.d[j] = s.cost[j] - s.dot(y, j)
	}
}

// dot returns vᵀ·a_j for the column of variable j
func (s *dualSimplex) dot(v []float64, j int) float64 {
	if j >= s.n {
		return v[j-s.n]
	}
	var sum float64
	for _, e := range s.cols[j] {
		sum += v[e.row] * e.coef
	}
	return sum
}

func (s *dualSimplex) fixed(j int) bool {
	return s.upper[j]-s.lower[j] < primalTolerance
}

// dualInfeasible reports whether nonbasic j's reduced cost points away from
// its bound by more than tol
func (s *dualSimplex) dualInfeasible(j int, tol float64) bool {
	if s.fixed(j) {
		return false
	}
	switch s.status[j] {
	case atLower:
		return s.d[j] < -tol
	case atUpper:
		return s.d[j] > tol
	}
	return false
}

// flipBounds moves dual infeasible nonbasics to their opposite bound.
// Every variable is boxed, so this always restores dual feasibility.
func (s *dualSimplex) flipBounds() bool {
	flipped := false
	for j, st := range s.status {
		if !s.dualInfeasible(j, dualTolerance) {
			continue
		}
		if st == atLower {
			s.status[j] = atUpper
		} else {
			s.status[j] = atLower
		}
		flipped = true
	}
	if flipped {
		s.primal()
	}
	return flipped
}

// objective is the structural part of cᵀx
func (s *dualSimplex) objective() float64 {
	var z float64
	for j := 0; j < s.n; j++ {
		z += s.cost[j] * s.x[j]
	}
	return z
}

// solve runs dual simplex iterations from the current basis until it is
// primal feasible. stop is polled every few iterations.
func (s *dualSimplex) solve(stop func() bool) error {
	maxIter := 50*(s.n+s.m) + 1000
	if cap(s.alpha) < s.n+s.m {
		s.alpha = make([]float64, s.n+s.m)
	}
	s.alpha = s.alpha[:s.n+s.m]
	if cap(s.column) < s.m {
		s.column = make([]float64, s.m)
	}
	s.column = s.column[:s.m]

	s.flipBounds()
	clean := false
	for iter := 1; ; iter++ {
		if iter > maxIter {
			return fmt.Errorf("%w: no convergence after %d iterations", errNumerical, maxIter)
		}
		if stop != nil && iter%stopCheckEvery == 0 && stop() {
			return errStopped
		}
		if s.updates >= refactorEvery {
			if err := s.refactor(); err != nil {
				return err
			}
			s.flipBounds()
		}

		r := s.leavingRow()
		if r < 0 {
			if s.flipBoundsLoose() {
				clean = false
				continue
			}
			if !clean {
				// drop accumulated update error before accepting the point
				s.primal()
				clean = true
				continue
			}
			return s.checkBounded()
		}
		clean = false

		if err := s.pivot(r); err != nil {
			return err
		}
	}
}

// flipBoundsLoose flips only when the reduced cost error is clearly beyond
// the tolerance the ratio test allows
func (s *dualSimplex) flipBoundsLoose() bool {
	for j := range s.status {
		if s.dualInfeasible(j, 10*dualTolerance) {
			return s.flipBounds()
		}
	}
	return false
}

func (s *dualSimplex) checkBounded() error {
	for j := 0; j < s.n; j++ {
		if math.Abs(s.x[j]) >= artificialBound/2 {
			return errUnbounded
		}
	}
	return nil
}

// leavingRow picks the basic variable with the largest bound violation, or -1
func (s *dualSimplex) leavingRow() int {
	best, bestViolation := -1, primalTolerance
	for r, h := range s.head {
		var violation float64
		switch v := s.x[h]; {
		case v < s.lower[h]:
			violation = s.lower[h] - v
		case v > s.upper[h]:
			violation = v - s.upper[h]
		}
		if violation > bestViolation {
			best, bestViolation = r, violation
		}
	}
	return best
}

// pivot moves the basic variable of row r onto its violated bound
func (s *dualSimplex) pivot(r int) error {
	p := s.head[r]
	toLower := s.x[p] < s.lower[p]
	rho := s.binv.RawRowView(r)

	// Harris two-pass ratio test over the pivot row
	thetaMax := math.Inf(1)
	for j, st := range s.status {
		s.alpha[j] = 0
		if st == basic || s.fixed(j) {
			continue
		}
		a := s.dot(rho, j)
		if math.Abs(a) < pivotTolerance {
			continue
		}
		s.alpha[j] = a
		if dj, ok := s.ratioCandidate(j, a, toLower); ok {
			thetaMax = math.Min(thetaMax, (dj+dualTolerance)/math.Abs(a))
		}
	}
	if math.IsInf(thetaMax, 1) {
		return errInfeasible
	}

	q, aq := -1, 0.0
	for j, a := range s.alpha {
		if a == 0 {
			continue
		}
		dj, ok := s.ratioCandidate(j, a, toLower)
		if ok && dj/math.Abs(a) <= thetaMax && math.Abs(a) > math.Abs(aq) {
			q, aq = j, a
		}
	}

	s.ftran(q)
	if math.Abs(s.column[r]-aq) > 1e-6*(1+math.Abs(aq)) {
		if s.updates == 0 {
			return fmt.Errorf("%w: unstable pivot on %d", errNumerical, q)
		}
		return s.refactor()
	}
	aq = s.column[r]

	theta := s.d[q] / aq
	for j, a := range s.alpha {
		if a != 0 {
			s.d[j] -= theta * a
		}
	}
	s.d[q] = 0
	s.d[p] = -theta

	target := s.upper[p]
	if toLower {
		target = s.lower[p]
	}
	step := (s.x[p] - target) / aq
	for i, h := range s.head {
		s.x[h] -= s.column[i] * step
	}
	s.x[q] += step
	s.x[p] = target

	pivotRow := s.binv.RawRowView(r)
	for k := range pivotRow {
		pivotRow[k] /= aq
	}
	for i := 0; i < s.m; i++ {
		f := s.column[i]
		if i == r || f == 0 {
			continue
		}
		row := s.binv.RawRowView(i)
		for k, v := range pivotRow {
			row[k] -= f * v
		}
	}

	s.head[r] = q
	s.status[q] = basic
	if toLower {
		s.status[p] = atLower
	} else {
		s.status[p] = atUpper
	}
	s.updates++
	return nil
}

// ratioCandidate reports whether nonbasic j with pivot-row entry a can
// enter, and the magnitude of its reduced cost clipped at zero
func (s *dualSimplex) ratioCandidate(j int, a float64, toLower bool) (float64, bool) {
	st := s.status[j]
	var ok bool
	if toLower {
		ok = (st == atLower && a < 0) || (st == atUpper && a > 0)
	} else {
		ok = (st == atLower && a > 0) || (st == atUpper && a < 0)
	}
	if !ok {
		return 0, false
	}
	if st == atLower {
		return math.Max(s.d[j], 0), true
	}
	return math.Max(-s.d[j], 0), true
}

// ftran computes B⁻¹·a_q into s.column
func (s *dualSimplex) ftran(q int) {
	for k := range s.column {
		if q >= s.n {
			s.column[k] = s.binv.At(k, q-s.n)
			continue
		}
		var v float64
		row := s.binv.RawRowView(k)
		for _, e := range s.cols[q] {
			v += row[e.row] * e.coef
		}
		s.column[k] = v
	}
}
