// Package solver defines the boundary between the planning core and a
// general-purpose MILP solver.
package solver

import (
	"context"
	"time"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// Solver solves one ModelDescription. A returned error means the solver could
// not be reached or initialised; infeasibility and time limits are reported
// through the SolveResult status instead.
//
// Solve may block for an unbounded time. Callers invoke it exactly once per
// planning request and do not retry.
type Solver interface {
	Name() string
	Solve(ctx context.Context, model *entities.ModelDescription, cfg Config) (*entities.SolveResult, error)
}

// Config carries solver options. The planning core passes it through untouched.
type Config struct {
	// TimeLimit bounds the solve; zero means no limit
	TimeLimit time.Duration
	// MIPGap is the relative optimality gap at which the search may stop
	MIPGap float64
	// Options holds solver-specific settings, e.g. "max_nodes"
	Options map[string]any
}

// IntOption returns Options[key] as an int when it holds a number
func (c Config) IntOption(key string, fallback int) int {
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

// Func adapts an ordinary function to the Solver interface
type Func func(ctx context.Context, model *entities.ModelDescription, cfg Config) (*entities.SolveResult, error)

// Name returns "func"
func (f Func) Name() string { return "func" }

// Solve calls f
func (f Func) Solve(ctx context.Context, model *entities.ModelDescription, cfg Config) (*entities.SolveResult, error) {
	return f(ctx, model, cfg)
}
