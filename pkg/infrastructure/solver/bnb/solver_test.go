package bnb

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/services"
	"github.com/vsinha/lotplan/pkg/domain/solver"
	testhelpers "github.com/vsinha/lotplan/pkg/infrastructure/testing"
)

const valueTolerance = 1e-6

func solve(t *testing.T, input *entities.PlanningInput, cfg solver.Config) (*entities.ModelDescription, *entities.SolveResult) {
	t.Helper()
	model := services.BuildModel(input)
	res, err := New().Solve(context.Background(), model, cfg)
	require.NoError(t, err)
	return model, res
}

func TestSolve_ScenarioA(t *testing.T) {
	model, res := solve(t, testhelpers.ScenarioA().Input(), solver.Config{})

	require.Equal(t, entities.StatusOptimal, res.Status)
	assert.InDelta(t, 20, res.Values[model.ProductionVar(0, 0)], valueTolerance)
	assert.InDelta(t, 0, res.Values[model.InventoryVar(0, 0)], valueTolerance)
	assert.InDelta(t, 1, res.Values[model.SetupVar(0, 0)], valueTolerance)
	assert.InDelta(t, 10*20+50, res.Objective, valueTolerance)
	assert.GreaterOrEqual(t, res.Nodes, 1)
}

func TestSolve_ScenarioB_Infeasible(t *testing.T) {
	_, res := solve(t, testhelpers.ScenarioB().Input(), solver.Config{})

	assert.Equal(t, entities.StatusInfeasible, res.Status)
	assert.Nil(t, res.Values)
}

func TestSolve_ScenarioC_WarehouseOnlyBindsHeldInventory(t *testing.T) {
	model, res := solve(t, testhelpers.ScenarioC().Input(), solver.Config{})

	require.Equal(t, entities.StatusOptimal, res.Status)
	assert.InDelta(t, 30, res.Values[model.ProductionVar(0, 0)], valueTolerance)
	assert.InDelta(t, 15, res.Values[model.ProductionVar(1, 0)], valueTolerance)
	assert.InDelta(t, 0, res.Values[model.InventoryVar(0, 0)], valueTolerance)
	assert.InDelta(t, 0, res.Values[model.InventoryVar(1, 0)], valueTolerance)
	assert.InDelta(t, 10*30+50+10*15+50, res.Objective, valueTolerance)
}

func TestSolve_DefaultScenarioSatisfiesModel(t *testing.T) {
	input, err := services.ValidateInput(services.DefaultRecord(2, 3))
	require.NoError(t, err)
	model, res := solve(t, input, solver.Config{})

	require.Equal(t, entities.StatusOptimal, res.Status)
	assert.Empty(t, model.Violations(res.Values, services.FeasibilityTolerance))

	// never worse than producing each period's demand on the spot
	lotForLot := model.Evaluate(testhelpers.Assignment(model, testhelpers.LotForLot(input)))
	assert.LessOrEqual(t, res.Objective, lotForLot+valueTolerance)

	for i := 0; i < input.Items; i++ {
		for p := 1; p < input.Periods; p++ {
			balance := res.Values[model.InventoryVar(i, p-1)] + res.Values[model.ProductionVar(i, p)] -
				input.Demand.At(i, p)
			assert.InDelta(t, res.Values[model.InventoryVar(i, p)], balance, valueTolerance)
		}
	}
	for p := 0; p < input.Periods; p++ {
		var held float64
		for i := 0; i < input.Items; i++ {
			held += res.Values[model.InventoryVar(i, p)]
			if res.Values[model.SetupVar(i, p)] < 0.5 {
				assert.InDelta(t, 0, res.Values[model.ProductionVar(i, p)], valueTolerance)
			}
		}
		assert.LessOrEqual(t, held, input.WarehouseCapacity.At(p)+valueTolerance)
	}
}

func TestSolve_CarriesInventoryWhenSetupIsExpensive(t *testing.T) {
	// one setup in period 1 covering both periods costs 50 + 1·10 holding
	// instead of 100 for two setups
	input := testhelpers.NewRecord(1, 2).
		Demand("item1", 10, 10).
		ProductionCost("item1", 1, 1).
		HoldingCost("item1", 1, 1).
		Input()
	model, res := solve(t, input, solver.Config{})

	require.Equal(t, entities.StatusOptimal, res.Status)
	assert.InDelta(t, 20, res.Values[model.ProductionVar(0, 0)], valueTolerance)
	assert.InDelta(t, 10, res.Values[model.InventoryVar(0, 0)], valueTolerance)
	assert.InDelta(t, 0, res.Values[model.SetupVar(0, 1)], valueTolerance)
	assert.InDelta(t, 20+50+10, res.Objective, valueTolerance)
}

func TestSolve_NodeLimit(t *testing.T) {
	// without cuts the root relaxation opens the setup fractionally
	_, res := solve(t, testhelpers.ScenarioA().Input(), solver.Config{Options: map[string]any{
		MaxNodesOption:  1,
		CutRoundsOption: 0,
	}})

	assert.Equal(t, entities.StatusOther, res.Status)
	assert.Equal(t, StatusNodeLimit, res.RawStatus)
	assert.Equal(t, 1, res.Nodes)
}

func TestSolve_TimeLimit(t *testing.T) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Solver{now: func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}}

	model := services.BuildModel(testhelpers.ScenarioA().Input())
	res, err := s.Solve(context.Background(), model, solver.Config{TimeLimit: time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, entities.StatusOther, res.Status)
	assert.Equal(t, StatusTimeLimit, res.RawStatus)
	assert.Equal(t, 0, res.Nodes)
}

func TestSolve_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := services.BuildModel(testhelpers.ScenarioA().Input())
	res, err := New().Solve(ctx, model, solver.Config{})
	require.NoError(t, err)
	assert.Equal(t, StatusInterrupted, res.StatusText())
}

func TestSolve_RejectsBrokenModel(t *testing.T) {
	_, err := New().Solve(context.Background(), nil, solver.Config{})
	assert.Error(t, err)

	_, err = New().Solve(context.Background(), &entities.ModelDescription{Name: "empty"}, solver.Config{})
	assert.Error(t, err)

	model := services.BuildModel(testhelpers.ScenarioA().Input())
	model.Constraints[0].Terms = append(model.Constraints[0].Terms, entities.Term{Var: 99, Coef: 1})
	_, err = New().Solve(context.Background(), model, solver.Config{})
	assert.ErrorContains(t, err, "references variable 99")
}

func TestSolve_CheapSetupsWithLooseCapacity(t *testing.T) {
	input := testhelpers.NewRecord(3, 1).
		ProductionCost("item1", 0).ProductionCost("item2", 8).ProductionCost("item3", 0).
		SetupCost("item1", 163).SetupCost("item2", 193).SetupCost("item3", 116).
		HoldingCost("item1", 0).HoldingCost("item2", 6).HoldingCost("item3", 0).
		Demand("item1", 36).Demand("item2", 27).Demand("item3", 31).
		MaxProduction("item1", 10000).MaxProduction("item2", 10000).MaxProduction("item3", 10000).
		Input()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res := solveWithin(t, ctx, services.BuildModel(input), solver.Config{TimeLimit: time.Second}, 10*time.Second)

	require.Equal(t, entities.StatusOptimal, res.Status)
	assert.InDelta(t, 163+193+8*27+116, res.Objective, valueTolerance)
}

func TestSolve_LargestDefaultScenario(t *testing.T) {
	input, err := services.ValidateInput(services.DefaultRecord(10, 10))
	require.NoError(t, err)
	model := services.BuildModel(input)

	res := solveWithin(t, context.Background(), model, solver.Config{TimeLimit: 30 * time.Second, MIPGap: 1e-4}, time.Minute)

	require.Equal(t, entities.StatusOptimal, res.Status, res.StatusText())
	assert.Empty(t, model.Violations(res.Values, services.FeasibilityTolerance))
	// holding a period's demand always costs more than a setup here
	lotForLot := model.Evaluate(testhelpers.Assignment(model, testhelpers.LotForLot(input)))
	assert.InDelta(t, lotForLot, res.Objective, valueTolerance)
	assert.InDelta(t, 147625, res.Objective, valueTolerance)
}

func TestSolve_StopsAtTimeLimit(t *testing.T) {
	input, err := services.ValidateInput(services.DefaultRecord(10, 10))
	require.NoError(t, err)
	model := services.BuildModel(input)
	limit := 200 * time.Millisecond

	started := time.Now()
	res := solveWithin(t, context.Background(), model, solver.Config{
		TimeLimit: limit,
		Options:   map[string]any{CutRoundsOption: 0},
	}, 10*time.Second)

	assert.Equal(t, StatusTimeLimit, res.StatusText())
	assert.Less(t, time.Since(started), limit+2*time.Second)
}

func TestSolve_StopsAtContextDeadline(t *testing.T) {
	input, err := services.ValidateInput(services.DefaultRecord(10, 10))
	require.NoError(t, err)
	model := services.BuildModel(input)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	started := time.Now()
	res := solveWithin(t, ctx, model, solver.Config{Options: map[string]any{CutRoundsOption: 0}}, 10*time.Second)

	assert.Equal(t, StatusInterrupted, res.StatusText())
	assert.Less(t, time.Since(started), 3*time.Second)
}

func TestSolve_CutsKeepTheOptimum(t *testing.T) {
	input := testhelpers.NewRecord(2, 4).
		ProductionCost("item1", 5, 5, 5, 5).ProductionCost("item2", 4, 4, 4, 4).
		SetupCost("item1", 120, 120, 120, 120).SetupCost("item2", 90, 90, 90, 90).
		HoldingCost("item1", 2, 2, 2, 2).HoldingCost("item2", 3, 3, 3, 3).
		Demand("item1", 30, 0, 40, 20).Demand("item2", 10, 25, 0, 35).
		MaxProduction("item1", 50, 50, 50, 50).MaxProduction("item2", 50, 50, 50, 50).
		Warehouse(40, 40, 40, 40).
		Input()

	_, plain := solve(t, input, solver.Config{Options: map[string]any{CutRoundsOption: 0}})
	model, cut := solve(t, input, solver.Config{})

	require.Equal(t, entities.StatusOptimal, plain.Status)
	require.Equal(t, entities.StatusOptimal, cut.Status)
	assert.InDelta(t, 1305, plain.Objective, valueTolerance)
	assert.InDelta(t, plain.Objective, cut.Objective, valueTolerance)
	assert.LessOrEqual(t, cut.Nodes, plain.Nodes)
	assert.Empty(t, model.Violations(cut.Values, services.FeasibilityTolerance))
}

func TestSolve_MatchesWagnerWhitinWhenCapacityIsLoose(t *testing.T) {
	rng := rand.New(rand.NewSource(47))

	for trial := 0; trial < 60; trial++ {
		nItems, nPeriods := 1+rng.Intn(3), 1+rng.Intn(6)
		b := testhelpers.NewRecord(nItems, nPeriods)
		costs := make([]itemCosts, nItems)
		total := 0.0
		for i := range costs {
			c := itemCosts{
				production: randomRow(rng, nPeriods, 10),
				setup:      randomRow(rng, nPeriods, 200),
				holding:    randomRow(rng, nPeriods, 10),
				demand:     randomRow(rng, nPeriods, 60),
			}
			costs[i] = c
			label := entities.ItemLabel(i)
			b.ProductionCost(label, c.production...).SetupCost(label, c.setup...).
				HoldingCost(label, c.holding...).Demand(label, c.demand...)
			for _, d := range c.demand {
				total += d
			}
		}
		for i := range costs {
			b.MaxProduction(entities.ItemLabel(i), constantRow(nPeriods, total)...)
		}
		b.Warehouse(constantRow(nPeriods, total)...)

		want := 0.0
		for _, c := range costs {
			want += wagnerWhitin(c)
		}

		_, res := solve(t, b.Input(), solver.Config{MIPGap: 1e-9})
		require.Equal(t, entities.StatusOptimal, res.Status, "trial %d: %s", trial, res.StatusText())
		assert.InDelta(t, want, res.Objective, 1e-6*math.Max(1, want), "trial %d", trial)
	}
}

func TestRelax_RecoversFromSingularWarmStart(t *testing.T) {
	model := services.BuildModel(testhelpers.ScenarioA().Input())
	srch := newSearch(model, DefaultCutRounds)

	// every row claims the same basic variable
	bad := srch.lp.snapshot()
	for i := range bad.head {
		bad.head[i] = 0
	}

	z, x, err := srch.relax(node{warm: bad}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 250, z, valueTolerance)
	assert.InDelta(t, 1, x[model.SetupVar(0, 0)], valueTolerance)
}

type itemCosts struct {
	production, setup, holding, demand []float64
}

// wagnerWhitin is the uncapacitated single-item optimum by dynamic
// programming over the period of the last setup
func wagnerWhitin(c itemCosts) float64 {
	periods := len(c.demand)
	best := make([]float64, periods+1)
	for end := 1; end <= periods; end++ {
		best[end] = math.Inf(1)
		for setup := 0; setup < end; setup++ {
			cost := best[setup] + c.setup[setup]
			for k := setup; k < end; k++ {
				cost += c.production[setup] * c.demand[k]
				for u := setup; u < k; u++ {
					cost += c.holding[u] * c.demand[k]
				}
			}
			best[end] = math.Min(best[end], cost)
		}
	}
	return best[periods]
}

func randomRow(rng *rand.Rand, n, max int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = float64(rng.Intn(max + 1))
	}
	return row
}

func constantRow(n int, v float64) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = v
	}
	return row
}

// solveWithin fails the test if Solve has not returned after limit
func solveWithin(t *testing.T, ctx context.Context, model *entities.ModelDescription, cfg solver.Config, limit time.Duration) *entities.SolveResult {
	t.Helper()
	type outcome struct {
		res *entities.SolveResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := New().Solve(ctx, model, cfg)
		done <- outcome{res, err}
	}()

	select {
	case out := <-done:
		require.NoError(t, out.err)
		return out.res
	case <-time.After(limit):
		t.Fatalf("Solve did not return within %s", limit)
		return nil
	}
}
