package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/services"
	testhelpers "github.com/vsinha/lotplan/pkg/infrastructure/testing"
)

func TestInMemoryEventStore_VersionsPerStream(t *testing.T) {
	store := NewInMemoryEventStore()

	require.NoError(t, store.AppendEvent("run-1", NewPlanRequestedEvent("run-1", 2, 3)))
	require.NoError(t, store.AppendEvent("run-2", NewPlanRequestedEvent("run-2", 1, 1)))
	require.NoError(t, store.AppendEvent("run-1", NewPlanFailedEvent("run-1", StageValidate, errors.New("bad"))))

	run1, err := store.ReadEvents("run-1", 0)
	require.NoError(t, err)
	require.Len(t, run1, 2)
	assert.Equal(t, 1, run1[0].Version())
	assert.Equal(t, 2, run1[1].Version())
	assert.Equal(t, PlanFailedEvent, run1[1].Type())
	assert.Equal(t, PlanFailed{Stage: StageValidate, Error: "bad"}, run1[1].Data())

	tail, err := store.ReadEvents("run-1", 2)
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	none, err := store.ReadEvents("missing", 1)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := store.ReadAllEvents(1)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-2", all[0].StreamID())
}

func TestInMemoryEventStore_EventIDsAreUnique(t *testing.T) {
	a := NewPlanRequestedEvent("run", 1, 1)
	b := NewPlanRequestedEvent("run", 1, 1)
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestInMemoryEventStore_Subscribers(t *testing.T) {
	store := NewInMemoryEventStore()

	var solved, everything []string
	solvedHandler := &HandlerFunc{Types: []string{SolveCompletedEvent}, Fn: func(e Event) error {
		solved = append(solved, e.Type())
		return nil
	}}
	allHandler := &HandlerFunc{Fn: func(e Event) error {
		everything = append(everything, e.Type())
		return errors.New("logged, not returned")
	}}
	require.NoError(t, store.Subscribe([]string{SolveCompletedEvent}, solvedHandler))
	require.NoError(t, store.Subscribe(nil, allHandler))

	model := services.BuildModel(testhelpers.ScenarioA().Input())
	result := &entities.SolveResult{Status: entities.StatusOptimal, Objective: 250, Nodes: 3}

	require.NoError(t, store.AppendEvent("run", NewModelBuiltEvent("run", model)))
	require.NoError(t, store.AppendEvent("run", NewSolveCompletedEvent("run", "bnb", result)))

	assert.Equal(t, []string{SolveCompletedEvent}, solved)
	assert.Equal(t, []string{ModelBuiltEvent, SolveCompletedEvent}, everything)

	require.NoError(t, store.Unsubscribe(allHandler))
	require.NoError(t, store.AppendEvent("run", NewSolveCompletedEvent("run", "bnb", result)))
	assert.Len(t, everything, 2)
	assert.Len(t, solved, 2)
}

func TestPlanEvents_Payloads(t *testing.T) {
	model := services.BuildModel(testhelpers.ScenarioA().Input())
	built := NewModelBuiltEvent("run", model).Data().(ModelBuilt)
	assert.Equal(t, services.ModelName, built.Model)
	assert.Equal(t, 3, built.Stats.Variables)

	result := &entities.SolveResult{Status: entities.StatusOther, RawStatus: "TIME_LIMIT"}
	completed := NewSolveCompletedEvent("run", "bnb", result).Data().(SolveCompleted)
	assert.Equal(t, "TIME_LIMIT", completed.Status)

	input := testhelpers.ScenarioA().Input()
	solvedModel := services.BuildModel(input)
	values := testhelpers.Assignment(solvedModel, testhelpers.LotForLot(input))
	output, err := services.ExtractPlan(input, testhelpers.OptimalResult(solvedModel, values))
	require.NoError(t, err)
	extracted := NewPlanExtractedEvent("run", output).Data().(PlanExtracted)
	assert.Equal(t, entities.PlanSolved, extracted.Status)
	assert.Equal(t, "250.00", extracted.TotalCost)
	assert.Zero(t, extracted.Warnings)
}
