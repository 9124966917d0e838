package dto

import (
	"time"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// PlanResult contains the complete output of one planning run
type PlanResult struct {
	RequestID  string                   `json:"request_id"`
	Model      string                   `json:"model"`
	ModelStats entities.ModelStats      `json:"model_stats"`
	Solve      SolveSummary             `json:"solve"`
	Output     *entities.PlanningOutput `json:"output"`
	Timings    Timings                  `json:"timings"`
}

// SolveSummary is what the run kept from the solver's answer
type SolveSummary struct {
	Solver    string        `json:"solver"`
	Status    string        `json:"status"`
	Objective float64       `json:"objective"`
	Nodes     int           `json:"nodes"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Timings records wall time per phase
type Timings struct {
	Build   time.Duration `json:"build"`
	Solve   time.Duration `json:"solve"`
	Extract time.Duration `json:"extract"`
	Total   time.Duration `json:"total"`
}
