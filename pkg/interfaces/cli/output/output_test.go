package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/lotplan/pkg/application/dto"
	"github.com/vsinha/lotplan/pkg/domain/entities"
	"github.com/vsinha/lotplan/pkg/domain/services"
	testhelpers "github.com/vsinha/lotplan/pkg/infrastructure/testing"
)

func solvedResult(t *testing.T) *dto.PlanResult {
	t.Helper()
	input := testhelpers.NewRecord(2, 2).
		Demand("item1", 20, 25).
		Demand("item2", 10, 0).
		Input()
	model := services.BuildModel(input)
	values := testhelpers.Assignment(model, testhelpers.LotForLot(input))
	out, err := services.ExtractPlan(input, testhelpers.OptimalResult(model, values))
	require.NoError(t, err)
	return &dto.PlanResult{
		RequestID:  "req-1",
		Model:      model.Name,
		ModelStats: model.Stats(),
		Solve:      dto.SolveSummary{Solver: "fake", Status: "OPTIMAL", Nodes: 1},
		Output:     out,
	}
}

func infeasibleResult(t *testing.T) *dto.PlanResult {
	t.Helper()
	out, err := services.ExtractPlan(testhelpers.ScenarioB().Input(), &entities.SolveResult{Status: entities.StatusInfeasible})
	require.NoError(t, err)
	return &dto.PlanResult{RequestID: "req-2", Output: out}
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$1234.50", Currency(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.00", Currency(decimal.Zero))
	assert.Equal(t, "-$3.10", Currency(decimal.RequireFromString("-3.1")))
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(solvedResult(t), Config{Format: "text", Verbose: true, Out: &buf}))

	text := buf.String()
	assert.Contains(t, text, "Optimal solution found!")
	assert.Contains(t, text, "Production Plan")
	assert.Contains(t, text, "Inventory Levels")
	assert.Contains(t, text, "Setup Decisions")
	assert.Contains(t, text, "Period 2")
	// 55 units at 10 and three setups at 50
	assert.Contains(t, text, "$550.00")
	assert.Contains(t, text, "$150.00")
	assert.Contains(t, text, "$700.00")
	assert.Contains(t, text, "Variables: 12 (4 binary)")
	assert.Contains(t, text, "req-1")
}

func TestGenerate_TextInfeasible(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(infeasibleResult(t), Config{Out: &buf}))

	text := buf.String()
	assert.Contains(t, text, "The model is infeasible!")
	assert.Contains(t, text, "Try increasing production capacities or warehouse capacities.")
	assert.NotContains(t, text, "Production Plan")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(solvedResult(t), Config{Format: "json", Out: &buf}))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "req-1", doc["request_id"])
	output := doc["output"].(map[string]any)
	assert.Equal(t, "solved", output["report"].(map[string]any)["status"])
	assert.Equal(t, "700", output["costs"].(map[string]any)["total"])
}

func TestGenerate_JSONToDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(solvedResult(t), Config{Format: "json", OutputDir: dir, Out: &bytes.Buffer{}}))

	_, err := os.Stat(filepath.Join(dir, "plan.json"))
	assert.NoError(t, err)
}

func TestGenerate_CSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(solvedResult(t), Config{Format: "csv", OutputDir: dir, Out: &bytes.Buffer{}}))

	production, err := os.ReadFile(filepath.Join(dir, "production.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(production)), "\n")
	assert.Equal(t, []string{"item,period_1,period_2", "item1,20.00,25.00", "item2,10.00,0.00"}, lines)

	setups, err := os.ReadFile(filepath.Join(dir, "setups.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(setups), "item2,1,0")

	costs, err := os.ReadFile(filepath.Join(dir, "costs.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(costs), "total,700.00")
}

func TestGenerate_CSVInfeasibleWritesStatusOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Generate(infeasibleResult(t), Config{Format: "csv", OutputDir: dir}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "status.csv", entries[0].Name())
}

func TestGenerate_Errors(t *testing.T) {
	err := Generate(solvedResult(t), Config{Format: "csv"})
	assert.EqualError(t, err, "output directory required for CSV format")

	err = Generate(solvedResult(t), Config{Format: "xml"})
	assert.EqualError(t, err, "unsupported output format: xml")
}

func TestWriteCSV_ReportsFailures(t *testing.T) {
	rows := [][]string{{"item", "period_1"}, {"item1", "20.00"}}

	err := writeCSV(filepath.Join(t.TempDir(), "missing", "plan.csv"), rows)
	assert.Error(t, err)

	if _, statErr := os.Stat("/dev/full"); statErr != nil {
		t.Skip("no /dev/full on this system")
	}
	assert.Error(t, writeCSV("/dev/full", rows))
}
