package services

import (
	"fmt"
	"math"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// ModelName is the name given to every lot-sizing model
const ModelName = "ProductionPlanningModel"

// BuildModel formulates the capacitated lot-sizing MILP for a validated input.
//
// Variables are laid out per item, per period as the triple
// (production, inventory, setup). Constraints are emitted in three blocks:
// inventory balance per (item, period), capacity linking per (item, period)
// and warehouse capacity per period. The result has 3·I·T variables and
// 2·I·T + T constraints.
func BuildModel(input *entities.PlanningInput) *entities.ModelDescription {
	model := &entities.ModelDescription{
		Name:    ModelName,
		Items:   input.Items,
		Periods: input.Periods,
	}

	addVariables(model)
	model.Objective = buildObjective(model, input)

	model.Constraints = make([]entities.Constraint, 0, 2*input.Items*input.Periods+input.Periods)
	addInventoryBalance(model, input)
	addCapacityLinks(model, input)
	addWarehouseCapacity(model, input)

	return model
}

func addVariables(model *entities.ModelDescription) {
	model.Variables = make([]entities.Variable, 3*model.Items*model.Periods)
	for i := 0; i < model.Items; i++ {
		label := entities.ItemLabel(i)
		for t := 0; t < model.Periods; t++ {
			period := entities.PeriodNumber(t)
			model.Variables[model.ProductionVar(i, t)] = entities.Variable{
				Name: fmt.Sprintf("x_%s_%d", label, period), Kind: entities.Production,
				Domain: entities.Continuous, Item: i, Period: t, Upper: math.Inf(1),
			}
			model.Variables[model.InventoryVar(i, t)] = entities.Variable{
				Name: fmt.Sprintf("I_%s_%d", label, period), Kind: entities.Inventory,
				Domain: entities.Continuous, Item: i, Period: t, Upper: math.Inf(1),
			}
			model.Variables[model.SetupVar(i, t)] = entities.Variable{
				Name: fmt.Sprintf("y_%s_%d", label, period), Kind: entities.Setup,
				Domain: entities.Binary, Item: i, Period: t, Upper: 1,
			}
		}
	}
}

func buildObjective(model *entities.ModelDescription, input *entities.PlanningInput) []entities.Term {
	terms := make([]entities.Term, 0, len(model.Variables))
	for i := 0; i < input.Items; i++ {
		for t := 0; t < input.Periods; t++ {
			terms = append(terms,
				entities.Term{Var: model.ProductionVar(i, t), Coef: input.ProductionCost.At(i, t)},
				entities.Term{Var: model.SetupVar(i, t), Coef: input.SetupCost.At(i, t)},
				entities.Term{Var: model.InventoryVar(i, t), Coef: input.HoldingCost.At(i, t)},
			)
		}
	}
	return terms
}

// addInventoryBalance emits production - demand = inventory, carrying the
// previous period's inventory in for every period after the first.
// Period 1 starts with no inventory.
func addInventoryBalance(model *entities.ModelDescription, input *entities.PlanningInput) {
	for i := 0; i < input.Items; i++ {
		for t := 0; t < input.Periods; t++ {
			terms := make([]entities.Term, 0, 3)
			if t > 0 {
				terms = append(terms, entities.Term{Var: model.InventoryVar(i, t-1), Coef: 1})
			}
			terms = append(terms,
				entities.Term{Var: model.ProductionVar(i, t), Coef: 1},
				entities.Term{Var: model.InventoryVar(i, t), Coef: -1},
			)
			model.Constraints = append(model.Constraints, entities.Constraint{
				Name:   fmt.Sprintf("inv_balance_%s_%d", entities.ItemLabel(i), entities.PeriodNumber(t)),
				Family: entities.InventoryBalance,
				Terms:  terms,
				Sense:  entities.Equal,
				RHS:    input.Demand.At(i, t),
			})
		}
	}
}

// addCapacityLinks emits production <= maxProd·setup. Using the period's own
// capacity as the coefficient keeps the LP relaxation tight.
func addCapacityLinks(model *entities.ModelDescription, input *entities.PlanningInput) {
	for i := 0; i < input.Items; i++ {
		for t := 0; t < input.Periods; t++ {
			model.Constraints = append(model.Constraints, entities.Constraint{
				Name:   fmt.Sprintf("prod_capacity_%s_%d", entities.ItemLabel(i), entities.PeriodNumber(t)),
				Family: entities.CapacityLink,
				Terms: []entities.Term{
					{Var: model.ProductionVar(i, t), Coef: 1},
					{Var: model.SetupVar(i, t), Coef: -input.MaxProduction.At(i, t)},
				},
				Sense: entities.LessEqual,
				RHS:   0,
			})
		}
	}
}

// addWarehouseCapacity caps end-of-period inventory summed over all items
func addWarehouseCapacity(model *entities.ModelDescription, input *entities.PlanningInput) {
	for t := 0; t < input.Periods; t++ {
		terms := make([]entities.Term, input.Items)
		for i := 0; i < input.Items; i++ {
			terms[i] = entities.Term{Var: model.InventoryVar(i, t), Coef: 1}
		}
		model.Constraints = append(model.Constraints, entities.Constraint{
			Name:   fmt.Sprintf("warehouse_cap_%d", entities.PeriodNumber(t)),
			Family: entities.WarehouseCapacity,
			Terms:  terms,
			Sense:  entities.LessEqual,
			RHS:    input.WarehouseCapacity.At(t),
		})
	}
}
