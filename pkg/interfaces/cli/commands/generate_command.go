package commands

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/repositories"
	"github.com/vsinha/lotplan/pkg/domain/services"
	"github.com/vsinha/lotplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/lotplan/pkg/infrastructure/repositories/yaml"
)

// GenerateConfig holds configuration for scenario generation
type GenerateConfig struct {
	Items   int    // Number of items
	Periods int    // Number of periods
	Output  string // Scenario file, or directory for csv
	Format  string // yaml or csv
	// DemandJitter scales each demand by a random factor in [1-j, 1+j]; 0 keeps the defaults
	DemandJitter float64
	Seed         int64 // Random seed for reproducible jitter
	Help         bool
	Verbose      bool

	Out io.Writer
}

// GenerateCommand writes a scenario filled with the default parameters
type GenerateCommand struct {
	config GenerateConfig
	seed   int64
	rand   *rand.Rand
}

// NewGenerateCommand creates a new generate command
func NewGenerateCommand(config GenerateConfig) *GenerateCommand {
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if config.Out == nil {
		config.Out = os.Stdout
	}

	return &GenerateCommand{
		config: config,
		seed:   seed,
		rand:   rand.New(rand.NewSource(seed)),
	}
}

// Execute runs the generate command
func (cmd *GenerateCommand) Execute(ctx context.Context) error {
	if cmd.config.Help {
		cmd.printHelp()
		return nil
	}

	if err := cmd.validate(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out, "🔧 Generating scenario with %d items and %d periods\n", cmd.config.Items, cmd.config.Periods)
		if cmd.config.DemandJitter > 0 {
			fmt.Fprintf(cmd.config.Out, "🎲 Demand jitter ±%.0f%%, seed %d\n", cmd.config.DemandJitter*100, cmd.seed)
		}
	}

	rec := services.DefaultRecord(cmd.config.Items, cmd.config.Periods)
	if cmd.config.DemandJitter > 0 {
		cmd.jitterDemand(rec)
	}

	var writer repositories.ScenarioWriter = yaml.NewWriter()
	if cmd.config.Format == "csv" {
		writer = csv.NewWriter()
	}
	if err := writer.WriteScenario(cmd.config.Output, rec); err != nil {
		return fmt.Errorf("failed to write scenario: %w", err)
	}

	if cmd.config.Verbose {
		fmt.Fprintf(cmd.config.Out, "💾 Scenario saved to: %s\n", cmd.config.Output)
	}
	return nil
}

func (cmd *GenerateCommand) validate() error {
	if cmd.config.Items < 1 || cmd.config.Items > entities.MaxItems {
		return fmt.Errorf("items must be between 1 and %d, got %d", entities.MaxItems, cmd.config.Items)
	}
	if cmd.config.Periods < 1 || cmd.config.Periods > entities.MaxPeriods {
		return fmt.Errorf("periods must be between 1 and %d, got %d", entities.MaxPeriods, cmd.config.Periods)
	}
	if cmd.config.Output == "" {
		return fmt.Errorf("output path is required")
	}
	switch cmd.config.Format {
	case "", "yaml", "csv":
	default:
		return fmt.Errorf("unsupported scenario format: %s", cmd.config.Format)
	}
	if cmd.config.DemandJitter < 0 || cmd.config.DemandJitter > 1 {
		return fmt.Errorf("demand jitter must be between 0 and 1, got %v", cmd.config.DemandJitter)
	}
	return nil
}

// jitterDemand rounds jittered demand to whole units
func (cmd *GenerateCommand) jitterDemand(rec entities.InputRecord) {
	j := cmd.config.DemandJitter
	for i := 0; i < rec.NItems; i++ {
		label := entities.ItemLabel(i)
		for t := 0; t < rec.NPeriods; t++ {
			period := entities.PeriodNumber(t)
			factor := 1 + j*(2*cmd.rand.Float64()-1)
			rec.Demand.Set(label, period, math.Round(rec.Demand[label][period]*factor))
		}
	}
}

func (cmd *GenerateCommand) printHelp() {
	fmt.Fprintf(cmd.config.Out, `Generate a lot-sizing scenario

USAGE:
    lotplan generate -items <n> -periods <n> -output <path> [OPTIONS]

OPTIONS:
    -items <n>          Number of items, 1-%d (default: 2)
    -periods <n>        Number of periods, 1-%d (default: 3)
    -output <path>      Scenario file (.yaml or .json), or directory for csv
    -format <fmt>       yaml or csv (default: yaml)
    -demand-jitter <j>  Scale each demand by a random factor in [1-j, 1+j]
    -seed <n>           Random seed for reproducible jitter
    -verbose            Enable verbose output
    -help               Show this help message

DEFAULTS (i and t counted from zero):
    production cost     10 + 5i
    setup cost          50 + 10i
    holding cost        5 + 2i
    demand              20 + 5t
    max production      100
    warehouse capacity  200
`, entities.MaxItems, entities.MaxPeriods)
}
