package testing

import (
	"context"
	"sync"

	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/solver"
)

// FakeSolver returns canned results. Respond, when set, takes precedence
// over Result. It is safe for concurrent use.
type FakeSolver struct {
	Result  *entities.SolveResult
	Err     error
	Respond func(model *entities.ModelDescription) *entities.SolveResult

	mu      sync.Mutex
	models  []*entities.ModelDescription
	configs []solver.Config
}

// Name returns "fake"
func (f *FakeSolver) Name() string { return "fake" }

// Solve records the call and returns the canned outcome
func (f *FakeSolver) Solve(ctx context.Context, model *entities.ModelDescription, cfg solver.Config) (*entities.SolveResult, error) {
	f.mu.Lock()
	f.models = append(f.models, model)
	f.configs = append(f.configs, cfg)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.Respond != nil {
		return f.Respond(model), nil
	}
	return f.Result, nil
}

// Calls returns how many times Solve was invoked
func (f *FakeSolver) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.models)
}

// Models returns every model passed to Solve
func (f *FakeSolver) Models() []*entities.ModelDescription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.ModelDescription(nil), f.models...)
}

// LastConfig returns the config of the most recent call
func (f *FakeSolver) LastConfig() solver.Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.configs) == 0 {
		return solver.Config{}
	}
	return f.configs[len(f.configs)-1]
}

// Assignment builds a value vector for model from a per-variable function
func Assignment(model *entities.ModelDescription, value func(kind entities.VariableKind, item, period int) float64) []float64 {
	values := make([]float64, len(model.Variables))
	for j, v := range model.Variables {
		values[j] = value(v.Kind, v.Item, v.Period)
	}
	return values
}

// OptimalResult wraps values in an OPTIMAL result whose objective is
// evaluated from the model
func OptimalResult(model *entities.ModelDescription, values []float64) *entities.SolveResult {
	return &entities.SolveResult{
		Status:    entities.StatusOptimal,
		Values:    values,
		Objective: model.Evaluate(values),
	}
}

// LotForLot is the plan that produces exactly each period's demand, with a
// setup wherever demand is positive and no inventory carried
func LotForLot(input *entities.PlanningInput) func(entities.VariableKind, int, int) float64 {
	return func(kind entities.VariableKind, item, period int) float64 {
		demand := input.Demand.At(item, period)
		switch kind {
		case entities.Production:
			return demand
		case entities.Setup:
			if demand > 0 {
				return 1
			}
		}
		return 0
	}
}
