package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vsinha/lotplan/pkg/application/services/planning"
	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/repositories"
	"github.com/vsinha/lotplan/pkg/domain/solver"
	"github.com/vsinha/lotplan/pkg/infrastructure/config"
	"github.com/vsinha/lotplan/pkg/infrastructure/events"
	"github.com/vsinha/lotplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/lotplan/pkg/infrastructure/repositories/yaml"
	"github.com/vsinha/lotplan/pkg/infrastructure/solver/bnb"
	"github.com/vsinha/lotplan/pkg/interfaces/cli/output"
)

// Config holds configuration for the plan command. Nil pointers and empty
// strings fall back to the config file, then to config.Default.
type Config struct {
	ScenarioFile string
	ScenarioDir  string
	ConfigFile   string
	OutputDir    string
	Format       string
	TimeLimit    *time.Duration
	MIPGap       *float64
	Verbose      bool
	Help         bool

	// Out and Err default to os.Stdout and os.Stderr
	Out io.Writer
	Err io.Writer
}

// PlanCommand loads a scenario, solves it and renders the plan
type PlanCommand struct {
	config Config
	solver solver.Solver
}

// NewPlanCommand creates a plan command using the branch-and-bound solver
func NewPlanCommand(config Config) *PlanCommand {
	return NewPlanCommandWithSolver(config, bnb.New())
}

// NewPlanCommandWithSolver creates a plan command around slv
func NewPlanCommandWithSolver(config Config, slv solver.Solver) *PlanCommand {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	if config.Err == nil {
		config.Err = os.Stderr
	}
	return &PlanCommand{config: config, solver: slv}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	settings, err := c.settings()
	if err != nil {
		return err
	}

	level, _ := config.ParseLevel(settings.LogLevel)
	logger := slog.New(slog.NewTextHandler(c.config.Err, &slog.HandlerOptions{Level: level}))

	if c.config.Verbose {
		c.printHeader(settings)
		fmt.Fprintln(c.config.Out, "📂 Loading scenario...")
	}

	rec, err := c.loadScenario()
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.Out, "✅ Scenario loaded: %d items, %d periods\n", rec.NItems, rec.NPeriods)
	}

	store := events.NewInMemoryEventStoreWithLogger(logger)
	svc := planning.New(c.solver,
		planning.WithLogger(logger),
		planning.WithEventStore(store),
		planning.WithProgress(func(msg string) {
			if c.config.Verbose {
				fmt.Fprintf(c.config.Out, "🔄 %s...\n", msg)
			}
		}),
	)

	result, err := svc.Plan(ctx, rec, settings.SolverConfig())
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintf(c.config.Out, "✅ Solve finished in %v (%s)\n\n", result.Timings.Total, result.Solve.Status)
	}

	outputConfig := output.Config{
		Format:    settings.Output.Format,
		OutputDir: settings.Output.Dir,
		Verbose:   c.config.Verbose,
		Out:       c.config.Out,
	}
	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.Verbose {
		c.printTimeline(store, result.RequestID)
		fmt.Fprintln(c.config.Out, "🏁 Planning complete!")
	}
	return nil
}

// settings merges the config file with command line overrides
func (c *PlanCommand) settings() (config.Config, error) {
	settings := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return config.Config{}, err
		}
		settings = loaded
	}

	if c.config.Format != "" {
		settings.Output.Format = c.config.Format
	}
	if c.config.OutputDir != "" {
		settings.Output.Dir = c.config.OutputDir
	}
	if c.config.TimeLimit != nil {
		settings.Solver.TimeLimit = c.config.TimeLimit.Seconds()
	}
	if c.config.MIPGap != nil {
		settings.Solver.MIPGap = *c.config.MIPGap
	}
	if err := settings.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("validation error: %w", err)
	}
	return settings, nil
}

// validateInputs validates the command configuration
func (c *PlanCommand) validateInputs() error {
	if (c.config.ScenarioFile == "") == (c.config.ScenarioDir == "") {
		return fmt.Errorf("must specify exactly one of -scenario file or -dir directory")
	}
	return nil
}

func (c *PlanCommand) loadScenario() (entities.InputRecord, error) {
	var reader repositories.ScenarioReader = yaml.NewLoader()
	location := c.config.ScenarioFile
	if location == "" {
		for _, name := range []string{csv.TablesFile, csv.WarehouseFile} {
			path := filepath.Join(c.config.ScenarioDir, name)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				return entities.InputRecord{}, fmt.Errorf("%s not found in %s", name, c.config.ScenarioDir)
			}
		}
		reader = csv.NewLoader()
		location = c.config.ScenarioDir
	}
	return reader.LoadScenario(location)
}

// printHeader prints the command header information
func (c *PlanCommand) printHeader(settings config.Config) {
	w := c.config.Out
	fmt.Fprintf(w, "🚀 Lot-Sizing Planner CLI\n")
	if c.config.ScenarioFile != "" {
		fmt.Fprintf(w, "Scenario: %s\n", c.config.ScenarioFile)
	} else {
		fmt.Fprintf(w, "Scenario directory: %s\n", c.config.ScenarioDir)
	}
	fmt.Fprintf(w, "Solver: %s (time limit %gs, gap %g, max nodes %d)\n",
		c.solver.Name(), settings.Solver.TimeLimit, settings.Solver.MIPGap, settings.Solver.MaxNodes)
	fmt.Fprintf(w, "Output format: %s\n", settings.Output.Format)
	if settings.Output.Dir != "" {
		fmt.Fprintf(w, "Output directory: %s\n", settings.Output.Dir)
	}
	fmt.Fprintln(w)
}

func (c *PlanCommand) printTimeline(store events.EventStore, requestID string) {
	stream, err := store.ReadEvents(requestID, 1)
	if err != nil || len(stream) == 0 {
		return
	}
	start := stream[0].Timestamp()
	fmt.Fprintf(c.config.Out, "🕒 Timeline:\n")
	for _, e := range stream {
		fmt.Fprintf(c.config.Out, "  +%-12v %s\n", e.Timestamp().Sub(start).Round(time.Microsecond), e.Type())
	}
	fmt.Fprintln(c.config.Out)
}

// showHelp displays the help message
func (c *PlanCommand) showHelp() {
	fmt.Fprintf(c.config.Out, `Lot-Sizing Planner - capacitated multi-item production planning

USAGE:
    lotplan plan -scenario <file>          # YAML or JSON scenario file
    lotplan plan -dir <directory>          # CSV scenario directory

OPTIONS:
    -scenario <file>    Scenario file (.yaml, .yml or .json)
    -dir <dir>          Scenario directory containing tables.csv and warehouse.csv
    -config <file>      Settings file (lotplan.yaml)
    -output <dir>       Output directory for results (required for csv)
    -format <fmt>       Output format: text, json, csv (default: text)
    -time-limit <d>     Solver time limit, e.g. 30s (0 for none)
    -mip-gap <g>        Relative optimality gap (default: 0.0001)
    -verbose            Enable verbose output
    -help               Show this help message

SCENARIO FILE:
    n_items: 2
    n_periods: 3
    production_cost: {item1: {1: 10, 2: 10, 3: 10}, item2: {1: 15, 2: 15, 3: 15}}
    setup_cost:      {item1: {1: 50, 2: 50, 3: 50}, item2: {1: 60, 2: 60, 3: 60}}
    holding_cost:    {item1: {1: 5, 2: 5, 3: 5},    item2: {1: 7, 2: 7, 3: 7}}
    demand:          {item1: {1: 20, 2: 25, 3: 30}, item2: {1: 20, 2: 25, 3: 30}}
    max_production:  {item1: {1: 100, 2: 100, 3: 100}, item2: {1: 100, 2: 100, 3: 100}}
    warehouse_capacity: {1: 200, 2: 200, 3: 200}

SCENARIO DIRECTORY:
    tables.csv:
        item,period,production_cost,setup_cost,holding_cost,demand,max_production
        item1,1,10,50,5,20,100
    warehouse.csv:
        period,capacity
        1,200

EXAMPLES:
    lotplan generate -items 3 -periods 6 -output scenarios/basic.yaml
    lotplan plan -scenario scenarios/basic.yaml -verbose
    lotplan plan -dir scenarios/basic -format csv -output results/
`)
}
