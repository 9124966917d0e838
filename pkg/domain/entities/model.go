package entities

import (
	"fmt"
	"math"
)

// VariableKind identifies which decision a variable represents
type VariableKind int

const (
	Production VariableKind = iota
	Inventory
	Setup
)

// String method for VariableKind enum
func (k VariableKind) String() string {
	switch k {
	case Production:
		return "Production"
	case Inventory:
		return "Inventory"
	case Setup:
		return "Setup"
	default:
		return "Unknown"
	}
}

// VariableDomain is the value domain of a decision variable
type VariableDomain int

const (
	Continuous VariableDomain = iota
	Binary
)

// String method for VariableDomain enum
func (d VariableDomain) String() string {
	switch d {
	case Continuous:
		return "Continuous"
	case Binary:
		return "Binary"
	default:
		return "Unknown"
	}
}

// Variable is one decision variable of a ModelDescription
type Variable struct {
	Name   string
	Kind   VariableKind
	Domain VariableDomain
	Item   int
	Period int
	Lower  float64
	Upper  float64 // +Inf when unbounded above
}

// Term is coef·variable, where Var indexes ModelDescription.Variables
type Term struct {
	Var  int
	Coef float64
}

// Sense is the relation of a constraint's left-hand side to its right-hand side
type Sense int

const (
	LessEqual Sense = iota
	Equal
	GreaterEqual
)

// String method for Sense enum
func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	case GreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// ConstraintFamily groups constraints by the rule that generated them
type ConstraintFamily int

const (
	InventoryBalance ConstraintFamily = iota
	CapacityLink
	WarehouseCapacity
)

// String method for ConstraintFamily enum
func (f ConstraintFamily) String() string {
	switch f {
	case InventoryBalance:
		return "InventoryBalance"
	case CapacityLink:
		return "CapacityLink"
	case WarehouseCapacity:
		return "WarehouseCapacity"
	default:
		return "Unknown"
	}
}

// Constraint is Σ terms (sense) RHS
type Constraint struct {
	Name   string
	Family ConstraintFamily
	Terms  []Term
	Sense  Sense
	RHS    float64
}

// ModelDescription is a solver-agnostic mixed-integer linear program.
// The objective is always minimised.
type ModelDescription struct {
	Name        string
	Items       int
	Periods     int
	Variables   []Variable
	Objective   []Term
	Constraints []Constraint
}

// variablesPerCell is the (production, inventory, setup) triple per (item, period)
const variablesPerCell = 3

// VarIndex returns the index of the variable of the given kind for (item, period)
func (m *ModelDescription) VarIndex(kind VariableKind, item, period int) int {
	if item < 0 || item >= m.Items || period < 0 || period >= m.Periods {
		panic(fmt.Sprintf("variable (%d,%d) out of range [%d,%d)", item, period, m.Items, m.Periods))
	}
	return (item*m.Periods+period)*variablesPerCell + int(kind)
}

// ProductionVar returns the index of production[item, period]
func (m *ModelDescription) ProductionVar(item, period int) int {
	return m.VarIndex(Production, item, period)
}

// InventoryVar returns the index of inventory[item, period]
func (m *ModelDescription) InventoryVar(item, period int) int {
	return m.VarIndex(Inventory, item, period)
}

// SetupVar returns the index of setup[item, period]
func (m *ModelDescription) SetupVar(item, period int) int {
	return m.VarIndex(Setup, item, period)
}

// ModelStats summarises the size of a model
type ModelStats struct {
	Variables           int                      `json:"variables"`
	BinaryVariables     int                      `json:"binary_variables"`
	Constraints         int                      `json:"constraints"`
	NonZeros            int                      `json:"non_zeros"`
	ConstraintsByFamily map[ConstraintFamily]int `json:"-"`
}

// Stats counts variables, constraints and non-zero coefficients
func (m *ModelDescription) Stats() ModelStats {
	stats := ModelStats{
		Variables:           len(m.Variables),
		Constraints:         len(m.Constraints),
		ConstraintsByFamily: make(map[ConstraintFamily]int),
	}
	for _, v := range m.Variables {
		if v.Domain == Binary {
			stats.BinaryVariables++
		}
	}
	for _, c := range m.Constraints {
		stats.ConstraintsByFamily[c.Family]++
		for _, term := range c.Terms {
			if term.Coef != 0 {
				stats.NonZeros++
			}
		}
	}
	return stats
}

// Evaluate returns the objective value of an assignment
func (m *ModelDescription) Evaluate(values []float64) float64 {
	return evalTerms(m.Objective, values)
}

// Violation describes one constraint or bound an assignment breaks
type Violation struct {
	Name   string
	Amount float64
}

// Violations checks an assignment against every bound, integrality
// requirement and constraint. Each check uses tol scaled by
// max(1, |rhs|) so large right-hand sides are not held to an absolute tolerance.
func (m *ModelDescription) Violations(values []float64, tol float64) []Violation {
	var out []Violation
	if len(values) != len(m.Variables) {
		return []Violation{{Name: "assignment length", Amount: math.Abs(float64(len(values) - len(m.Variables)))}}
	}

	for j, v := range m.Variables {
		x := values[j]
		if x < v.Lower-tol {
			out = append(out, Violation{Name: v.Name + " lower bound", Amount: v.Lower - x})
		}
		if x > v.Upper+tol {
			out = append(out, Violation{Name: v.Name + " upper bound", Amount: x - v.Upper})
		}
		if v.Domain == Binary {
			if d := math.Abs(x - math.Round(x)); d > tol {
				out = append(out, Violation{Name: v.Name + " integrality", Amount: d})
			}
		}
	}

	for _, c := range m.Constraints {
		lhs := evalTerms(c.Terms, values)
		scaled := tol * math.Max(1, math.Abs(c.RHS))
		var excess float64
		switch c.Sense {
		case LessEqual:
			excess = lhs - c.RHS
		case GreaterEqual:
			excess = c.RHS - lhs
		case Equal:
			excess = math.Abs(lhs - c.RHS)
		}
		if excess > scaled {
			out = append(out, Violation{Name: c.Name, Amount: excess})
		}
	}
	return out
}

func evalTerms(terms []Term, values []float64) float64 {
	var sum float64
	for _, t := range terms {
		sum += t.Coef * values[t.Var]
	}
	return sum
}
