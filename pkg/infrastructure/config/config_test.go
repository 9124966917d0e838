package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotplan/pkg/infrastructure/solver/bnb"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lotplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	sc := cfg.SolverConfig()
	assert.Equal(t, 30*time.Second, sc.TimeLimit)
	assert.Equal(t, 1e-4, sc.MIPGap)
	assert.Equal(t, bnb.DefaultMaxNodes, sc.IntOption(bnb.MaxNodesOption, 0))
	assert.Equal(t, bnb.DefaultCutRounds, sc.IntOption(bnb.CutRoundsOption, -1))
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
solver:
  time_limit: 2.5
  max_nodes: 500
  cut_rounds: 0
output:
  format: json
log_level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2500*time.Millisecond, cfg.SolverConfig().TimeLimit)
	assert.Equal(t, 1e-4, cfg.Solver.MIPGap)
	assert.Equal(t, 500, cfg.Solver.MaxNodes)
	assert.Equal(t, 0, cfg.SolverConfig().IntOption(bnb.CutRoundsOption, -1))
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		contains string
	}{
		{"unknown key", "solver:\n  threads: 4\n", "threads"},
		{"negative time limit", "solver:\n  time_limit: -1\n", "solver.time_limit"},
		{"gap out of range", "solver:\n  mip_gap: 1\n", "solver.mip_gap"},
		{"zero nodes", "solver:\n  max_nodes: 0\n", "solver.max_nodes"},
		{"negative cut rounds", "solver:\n  cut_rounds: -1\n", "solver.cut_rounds"},
		{"bad format", "output:\n  format: xml\n", "output.format"},
		{"bad level", "log_level: loud\n", "log_level"},
		{"not yaml", "solver: [", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}
