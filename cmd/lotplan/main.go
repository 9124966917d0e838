package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/vsinha/lotplan/pkg/interfaces/cli/commands"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch os.Args[1] {
	case "plan":
		err = runPlan(ctx, os.Args[2:])
	case "generate":
		err = runGenerate(ctx, os.Args[2:])
	case "help", "-help", "--help", "-h":
		usage()
		return
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPlan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	var (
		scenarioFile = fs.String("scenario", "", "Path to YAML or JSON scenario file")
		scenarioDir  = fs.String("dir", "", "Path to scenario directory containing CSV files")
		configFile   = fs.String("config", "", "Path to lotplan.yaml settings file")
		outputDir    = fs.String("output", "", "Output directory for results (optional)")
		format       = fs.String("format", "", "Output format: text, json, csv")
		timeLimit    = fs.Duration("time-limit", 0, "Solver time limit (0 for none)")
		mipGap       = fs.Float64("mip-gap", 0, "Relative optimality gap")
		verbose      = fs.Bool("verbose", false, "Enable verbose output")
		help         = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	config := commands.Config{
		ScenarioFile: *scenarioFile,
		ScenarioDir:  *scenarioDir,
		ConfigFile:   *configFile,
		OutputDir:    *outputDir,
		Format:       *format,
		Verbose:      *verbose,
		Help:         *help,
	}
	// only flags given explicitly override the settings file
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "time-limit":
			config.TimeLimit = timeLimit
		case "mip-gap":
			config.MIPGap = mipGap
		}
	})

	return commands.NewPlanCommand(config).Execute(ctx)
}

func runGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	var (
		items   = fs.Int("items", 2, "Number of items")
		periods = fs.Int("periods", 3, "Number of periods")
		output  = fs.String("output", "", "Scenario file, or directory for csv")
		format  = fs.String("format", "yaml", "Scenario format: yaml, csv")
		jitter  = fs.Float64("demand-jitter", 0, "Random demand variation, 0-1")
		seed    = fs.Int64("seed", 0, "Random seed (0 uses the clock)")
		verbose = fs.Bool("verbose", false, "Enable verbose output")
		help    = fs.Bool("help", false, "Show help message")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *seed == 0 && *jitter > 0 {
		*seed = time.Now().UnixNano()
	}

	return commands.NewGenerateCommand(commands.GenerateConfig{
		Items:        *items,
		Periods:      *periods,
		Output:       *output,
		Format:       *format,
		DemandJitter: *jitter,
		Seed:         *seed,
		Verbose:      *verbose,
		Help:         *help,
	}).Execute(ctx)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Lot-Sizing Planner

USAGE:
    lotplan plan -scenario <file> | -dir <directory> [OPTIONS]
    lotplan generate -items <n> -periods <n> -output <path> [OPTIONS]

Run "lotplan plan -help" or "lotplan generate -help" for details.
`)
}
