package services

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

const (
	// DisplayPrecision is the number of decimals quantities are rounded to
	DisplayPrecision = 2

	// ObjectiveTolerance is the relative tolerance between the re-summed
	// total cost and the objective reported by the solver
	ObjectiveTolerance = 1e-4

	// FeasibilityTolerance is the relative tolerance used when checking a
	// returned assignment against the model's constraints
	FeasibilityTolerance = 1e-6
)

// Report texts shown to the decision maker
const (
	msgSolved       = "Optimal solution found!"
	msgInfeasible   = "The model is infeasible!"
	msgInconclusive = "Model terminated with status: %s"
)

var (
	infeasibleGuidance = []string{
		"The current set of constraints cannot be satisfied simultaneously.",
		"Try increasing production capacities or warehouse capacities.",
	}
	inconclusiveGuidance = []string{
		"Please check your input data and try again.",
	}
)

// ExtractPlan turns a solver's result into a PlanningOutput.
//
// For an optimal result the plan tables are rounded to DisplayPrecision and
// the cost components are re-summed from the assignment rather than taken
// from the solver. Disagreement with the solver's objective, or constraint
// violations in the assignment, become warnings. Infeasible and
// inconclusive results produce advisory reports. ExtractPlan is pure.
func ExtractPlan(input *entities.PlanningInput, result *entities.SolveResult) (*entities.PlanningOutput, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no result", entities.ErrMalformedSolveResult)
	}

	output := &entities.PlanningOutput{
		Periods: input.Periods,
		Report: entities.StatusReport{
			RawStatus: result.StatusText(),
		},
	}

	switch result.Status {
	case entities.StatusOptimal:
		if err := extractOptimal(input, result, output); err != nil {
			return nil, err
		}
	case entities.StatusInfeasible:
		output.Report.Status = entities.PlanInfeasible
		output.Report.Message = msgInfeasible
		output.Report.Guidance = append([]string(nil), infeasibleGuidance...)
	default:
		output.Report.Status = entities.PlanInconclusive
		output.Report.Message = fmt.Sprintf(msgInconclusive, result.StatusText())
		output.Report.Guidance = append([]string(nil), inconclusiveGuidance...)
	}

	return output, nil
}

func extractOptimal(input *entities.PlanningInput, result *entities.SolveResult, output *entities.PlanningOutput) error {
	model := BuildModel(input)
	if len(result.Values) != len(model.Variables) {
		return fmt.Errorf("%w: %d values for %d variables",
			entities.ErrMalformedSolveResult, len(result.Values), len(model.Variables))
	}
	for j, v := range result.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s has non-finite value %v",
				entities.ErrMalformedSolveResult, model.Variables[j].Name, v)
		}
	}

	values := result.Values
	output.Report.Status = entities.PlanSolved
	output.Report.Message = msgSolved
	output.Production = itemPlans(model, input, values, entities.Production, DisplayPrecision)
	output.Inventory = itemPlans(model, input, values, entities.Inventory, DisplayPrecision)
	output.Setups = itemPlans(model, input, values, entities.Setup, 0)

	costs := sumCosts(model, input, values)
	output.Costs = &costs
	output.SolverObjective = decimal.NewFromFloat(result.Objective)

	if !withinObjectiveTolerance(costs.Total, output.SolverObjective) {
		output.Warnings = append(output.Warnings, fmt.Sprintf(
			"re-summed total cost %s differs from solver objective %s beyond relative tolerance %g",
			costs.Total.StringFixed(DisplayPrecision+2), output.SolverObjective.StringFixed(DisplayPrecision+2), ObjectiveTolerance))
	}

	for _, v := range model.Violations(values, FeasibilityTolerance) {
		output.Warnings = append(output.Warnings, fmt.Sprintf(
			"assignment violates %s by %g", v.Name, v.Amount))
	}

	return nil
}

func itemPlans(model *entities.ModelDescription, input *entities.PlanningInput, values []float64, kind entities.VariableKind, places int32) []entities.ItemPlan {
	plans := make([]entities.ItemPlan, input.Items)
	for i := 0; i < input.Items; i++ {
		periods := make([]decimal.Decimal, input.Periods)
		for t := 0; t < input.Periods; t++ {
			periods[t] = decimal.NewFromFloat(values[model.VarIndex(kind, i, t)]).Round(places)
		}
		plans[i] = entities.ItemPlan{Item: entities.ItemLabel(i), Periods: periods}
	}
	return plans
}

func sumCosts(model *entities.ModelDescription, input *entities.PlanningInput, values []float64) entities.CostBreakdown {
	costs := entities.CostBreakdown{
		Production: decimal.Zero,
		Setup:      decimal.Zero,
		Holding:    decimal.Zero,
	}
	for i := 0; i < input.Items; i++ {
		for t := 0; t < input.Periods; t++ {
			costs.Production = costs.Production.Add(costTerm(input.ProductionCost.At(i, t), values[model.ProductionVar(i, t)]))
			costs.Setup = costs.Setup.Add(costTerm(input.SetupCost.At(i, t), values[model.SetupVar(i, t)]))
			costs.Holding = costs.Holding.Add(costTerm(input.HoldingCost.At(i, t), values[model.InventoryVar(i, t)]))
		}
	}
	costs.Total = costs.Production.Add(costs.Setup).Add(costs.Holding)
	return costs
}

func costTerm(cost, value float64) decimal.Decimal {
	return decimal.NewFromFloat(cost).Mul(decimal.NewFromFloat(value))
}

func withinObjectiveTolerance(total, objective decimal.Decimal) bool {
	scale := decimal.Max(decimal.NewFromInt(1), objective.Abs())
	limit := scale.Mul(decimal.NewFromFloat(ObjectiveTolerance))
	return total.Sub(objective).Abs().LessThanOrEqual(limit)
}
