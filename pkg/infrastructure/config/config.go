// Package config loads lotplan.yaml, the optional settings file for the
// lotplan CLI. Flags given on the command line override it.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsinha/lotplan/pkg/domain/solver"
	"github.com/vsinha/lotplan/pkg/infrastructure/solver/bnb"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config represents a lotplan.yaml file
type Config struct {
	Solver   SolverConfig `yaml:"solver"`
	Output   OutputConfig `yaml:"output"`
	LogLevel string       `yaml:"log_level"`
}

// SolverConfig limits the branch-and-bound search
type SolverConfig struct {
	// TimeLimit is in seconds; 0 means no limit
	TimeLimit float64 `yaml:"time_limit"`
	MIPGap    float64 `yaml:"mip_gap"`
	MaxNodes  int     `yaml:"max_nodes"`
	// CutRounds caps root separation rounds; 0 disables cuts
	CutRounds int     `yaml:"cut_rounds"`
}

// OutputConfig selects how plans are rendered
type OutputConfig struct {
	Format string `yaml:"format"`
	// Dir receives CSV files; empty writes everything to stdout
	Dir string `yaml:"dir"`
}

// Default returns the settings used when no file is given
func Default() Config {
	return Config{
		Solver: SolverConfig{
			TimeLimit: 30,
			MIPGap:    1e-4,
			MaxNodes:  bnb.DefaultMaxNodes,
			CutRounds: bnb.DefaultCutRounds,
		},
		Output:   OutputConfig{Format: FormatText},
		LogLevel: "info",
	}
}

// Load reads path over Default. Keys absent from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations
func (c Config) Validate() error {
	var problems []string
	if c.Solver.TimeLimit < 0 {
		problems = append(problems, fmt.Sprintf("solver.time_limit must be >= 0, got %v", c.Solver.TimeLimit))
	}
	if c.Solver.MIPGap < 0 || c.Solver.MIPGap >= 1 {
		problems = append(problems, fmt.Sprintf("solver.mip_gap must be in [0, 1), got %v", c.Solver.MIPGap))
	}
	if c.Solver.MaxNodes < 1 {
		problems = append(problems, fmt.Sprintf("solver.max_nodes must be >= 1, got %d", c.Solver.MaxNodes))
	}
	if c.Solver.CutRounds < 0 {
		problems = append(problems, fmt.Sprintf("solver.cut_rounds must be >= 0, got %d", c.Solver.CutRounds))
	}
	switch c.Output.Format {
	case FormatText, FormatJSON, FormatCSV:
	default:
		problems = append(problems, fmt.Sprintf("output.format must be text, json or csv, got %q", c.Output.Format))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// SolverConfig converts the solver section into a solver.Config
func (c Config) SolverConfig() solver.Config {
	return solver.Config{
		TimeLimit: time.Duration(c.Solver.TimeLimit * float64(time.Second)),
		MIPGap:    c.Solver.MIPGap,
		Options: map[string]any{
			bnb.MaxNodesOption:  c.Solver.MaxNodes,
			bnb.CutRoundsOption: c.Solver.CutRounds,
		},
	}
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level must be debug, info, warn or error, got %q", level)
	}
}
