package events

import (
	"time"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

const (
	PlanRequestedEvent  = "plan.requested"
	ModelBuiltEvent     = "model.built"
	SolveCompletedEvent = "solve.completed"
	PlanExtractedEvent  = "plan.extracted"
	PlanFailedEvent     = "plan.failed"
)

// Stages reported by PlanFailed
const (
	StageValidate = "validate"
	StageSolve    = "solve"
	StageExtract  = "extract"
)

type PlanRequested struct {
	Items   int `json:"items"`
	Periods int `json:"periods"`
}

type ModelBuilt struct {
	Model string              `json:"model"`
	Stats entities.ModelStats `json:"stats"`
}

type SolveCompleted struct {
	Solver    string        `json:"solver"`
	Status    string        `json:"status"`
	Objective float64       `json:"objective"`
	Nodes     int           `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
}

type PlanExtracted struct {
	Status    entities.PlanStatus `json:"status"`
	TotalCost string              `json:"total_cost,omitempty"`
	Warnings  int                 `json:"warnings"`
}

type PlanFailed struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func NewPlanRequestedEvent(runID string, items, periods int) Event {
	return NewEvent(PlanRequestedEvent, runID, PlanRequested{Items: items, Periods: periods})
}

func NewModelBuiltEvent(runID string, model *entities.ModelDescription) Event {
	return NewEvent(ModelBuiltEvent, runID, ModelBuilt{Model: model.Name, Stats: model.Stats()})
}

func NewSolveCompletedEvent(runID, solverName string, result *entities.SolveResult) Event {
	return NewEvent(SolveCompletedEvent, runID, SolveCompleted{
		Solver:    solverName,
		Status:    result.StatusText(),
		Objective: result.Objective,
		Nodes:     result.Nodes,
		Elapsed:   result.Elapsed,
	})
}

func NewPlanExtractedEvent(runID string, output *entities.PlanningOutput) Event {
	data := PlanExtracted{Status: output.Report.Status, Warnings: len(output.Warnings)}
	if output.Costs != nil {
		data.TotalCost = output.Costs.Total.StringFixed(2)
	}
	return NewEvent(PlanExtractedEvent, runID, data)
}

func NewPlanFailedEvent(runID, stage string, err error) Event {
	return NewEvent(PlanFailedEvent, runID, PlanFailed{Stage: stage, Error: err.Error()})
}
