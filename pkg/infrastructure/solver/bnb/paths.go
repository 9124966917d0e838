package bnb

import (
	"math"
	"sort"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

const (
	unitTolerance = 1e-12
	cutTolerance  = 1e-6
	// cutsPerPath bounds how many cuts one separation round adds per path
	cutsPerPath = 4
)

// flowRow is a balance row  in + produce - out = demand  whose produce
// variable is switched on by a binary through produce ≤ capacity·setup.
// in and out are -1 when the row has no such variable.
type flowRow struct {
	produce, setup int
	demand         float64
	in, out        int
}

// cut is a valid inequality Σ terms ≤ 0 together with how far the current
// relaxation violates it
type cut struct {
	terms     []entities.Term
	violation float64
}

// findPaths recognises single-commodity flow structure in model: balance
// rows whose stock variable leaves one row and enters the next. Each path
// is ordered from its first row.
func findPaths(model *entities.ModelDescription) [][]flowRow {
	switches := variableUpperBounds(model)

	var rows []flowRow
	for _, c := range model.Constraints {
		if c.Sense != entities.Equal {
			continue
		}
		if fr, ok := asFlowRow(model, c, switches); ok {
			rows = append(rows, fr)
		}
	}

	byIn := make(map[int][]int)
	outCount := make(map[int]int)
	for k, fr := range rows {
		if fr.in >= 0 {
			byIn[fr.in] = append(byIn[fr.in], k)
		}
		if fr.out >= 0 {
			outCount[fr.out]++
		}
	}

	next := make(map[int]int)
	hasPrev := make(map[int]bool)
	for k, fr := range rows {
		if fr.out < 0 || outCount[fr.out] != 1 || len(byIn[fr.out]) != 1 {
			continue
		}
		if succ := byIn[fr.out][0]; succ != k {
			next[k] = succ
			hasPrev[succ] = true
		}
	}

	var paths [][]flowRow
	seen := make(map[int]bool)
	for k := range rows {
		if hasPrev[k] {
			continue
		}
		var path []flowRow
		for cur, ok := k, true; ok && !seen[cur]; cur, ok = next[cur] {
			seen[cur] = true
			path = append(path, rows[cur])
		}
		paths = append(paths, path)
	}
	return paths
}

// variableUpperBounds maps each non-negative continuous variable that is
// forced to zero by a binary (x - M·y ≤ 0, M ≥ 0) to that binary
func variableUpperBounds(model *entities.ModelDescription) map[int]int {
	switches := make(map[int]int)
	for _, c := range model.Constraints {
		if c.Sense == entities.Equal || c.RHS != 0 || len(c.Terms) != 2 {
			continue
		}
		sign := 1.0
		if c.Sense == entities.GreaterEqual {
			sign = -1
		}
		a, b := c.Terms[0], c.Terms[1]
		for _, pair := range [][2]entities.Term{{a, b}, {b, a}} {
			x, y := pair[0], pair[1]
			if x.Var == y.Var || sign*x.Coef <= 0 || sign*y.Coef > 0 {
				continue
			}
			if !isSwitched(model.Variables[x.Var]) || !isSwitch(model.Variables[y.Var]) {
				continue
			}
			if _, seen := switches[x.Var]; !seen {
				switches[x.Var] = y.Var
			}
		}
	}
	return switches
}

func isSwitched(v entities.Variable) bool {
	return v.Domain == entities.Continuous && v.Lower == 0
}

func isSwitch(v entities.Variable) bool {
	return v.Domain == entities.Binary && v.Lower == 0 && v.Upper == 1
}

// asFlowRow normalises c so its switched variable has coefficient 1 and
// checks the remaining terms are one stock in (+1) and one stock out (-1)
func asFlowRow(model *entities.ModelDescription, c entities.Constraint, switches map[int]int) (flowRow, bool) {
	fr := flowRow{produce: -1, in: -1, out: -1}
	var scale float64
	for _, t := range c.Terms {
		if _, ok := switches[t.Var]; !ok {
			continue
		}
		if fr.produce >= 0 || t.Coef == 0 {
			return fr, false
		}
		fr.produce, fr.setup, scale = t.Var, switches[t.Var], t.Coef
	}
	if fr.produce < 0 {
		return fr, false
	}
	fr.demand = c.RHS / scale
	if fr.demand < 0 {
		return fr, false
	}

	for _, t := range c.Terms {
		if t.Var == fr.produce {
			continue
		}
		if !isSwitched(model.Variables[t.Var]) {
			return fr, false
		}
		switch a := t.Coef / scale; {
		case math.Abs(a-1) < unitTolerance && fr.in < 0:
			fr.in = t.Var
		case math.Abs(a+1) < unitTolerance && fr.out < 0:
			fr.out = t.Var
		default:
			return fr, false
		}
	}
	if fr.in >= 0 && fr.in == fr.out {
		return fr, false
	}
	return fr, true
}

// separatePaths returns the (l, S) inequalities violated by x, most violated
// first. For rows 1..l of a path and S ⊆ {1..l}
//
//	Σ_{j∈S} produce_j ≤ Σ_{j∈S} demand(j..l)·setup_j + out_l
//
// holds for every integer point: the first open setup in S covers at most
// the demand through l plus what is left over. For each l the most violated S
// takes every j with produce_j > demand(j..l)·setup_j.
func separatePaths(paths [][]flowRow, x []float64) []cut {
	var cuts []cut
	for _, path := range paths {
		var found []cut
		for l := range path {
			var terms []entities.Term
			var lhs, cumDemand float64
			for j := l; j >= 0; j-- {
				cumDemand += path[j].demand
				excess := x[path[j].produce] - cumDemand*x[path[j].setup]
				if excess <= cutTolerance {
					continue
				}
				lhs += excess
				terms = append(terms, entities.Term{Var: path[j].produce, Coef: 1})
				if cumDemand != 0 {
					terms = append(terms, entities.Term{Var: path[j].setup, Coef: -cumDemand})
				}
			}
			if out := path[l].out; out >= 0 {
				lhs -= x[out]
				terms = append(terms, entities.Term{Var: out, Coef: -1})
			}
			if lhs > cutTolerance*math.Max(1, cumDemand) {
				found = append(found, cut{terms: terms, violation: lhs})
			}
		}
		sort.Slice(found, func(a, b int) bool { return found[a].violation > found[b].violation })
		if len(found) > cutsPerPath {
			found = found[:cutsPerPath]
		}
		cuts = append(cuts, found...)
	}
	sort.SliceStable(cuts, func(a, b int) bool { return cuts[a].violation > cuts[b].violation })
	return cuts
}
