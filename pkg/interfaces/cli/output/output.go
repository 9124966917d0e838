package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/lotplan/pkg/application/dto"
	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Out receives everything printed; nil means os.Stdout
	Out io.Writer
}

func (c Config) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate renders result in the configured format
func Generate(result *dto.PlanResult, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// Currency formats an amount as dollars with two decimals
func Currency(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.PlanResult, config Config) error {
	w := config.out()
	out := result.Output
	report := out.Report

	switch report.Status {
	case entities.PlanSolved:
		fmt.Fprintf(w, "✅ %s\n\n", report.Message)
	case entities.PlanInfeasible:
		fmt.Fprintf(w, "❌ %s\n", report.Message)
	default:
		fmt.Fprintf(w, "⚠️  %s\n", report.Message)
	}
	for _, g := range report.Guidance {
		fmt.Fprintf(w, "   %s\n", g)
	}
	if !out.Solved() {
		return nil
	}

	writeTable(w, "📦 Production Plan", out.Periods, out.Production, 2)
	writeTable(w, "🏭 Inventory Levels", out.Periods, out.Inventory, 2)
	writeTable(w, "🔧 Setup Decisions", out.Periods, out.Setups, 0)

	fmt.Fprintf(w, "💰 Cost Breakdown\n")
	fmt.Fprintf(w, "%-12s %14s\n", "Production", Currency(out.Costs.Production))
	fmt.Fprintf(w, "%-12s %14s\n", "Setup", Currency(out.Costs.Setup))
	fmt.Fprintf(w, "%-12s %14s\n", "Holding", Currency(out.Costs.Holding))
	fmt.Fprintf(w, "%-12s %14s\n", "------------", "--------------")
	fmt.Fprintf(w, "%-12s %14s\n\n", "Total Cost", Currency(out.Costs.Total))

	if len(out.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Warnings:\n")
		for _, warning := range out.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	if config.Verbose {
		writeModelStats(w, result)
	}
	return nil
}

func writeTable(w io.Writer, title string, periods int, plans []entities.ItemPlan, places int32) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "%-8s", "Item")
	for t := 0; t < periods; t++ {
		fmt.Fprintf(w, " %10s", fmt.Sprintf("Period %d", entities.PeriodNumber(t)))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s", "--------")
	for t := 0; t < periods; t++ {
		fmt.Fprintf(w, " %10s", "----------")
	}
	fmt.Fprintln(w)
	for _, plan := range plans {
		fmt.Fprintf(w, "%-8s", plan.Item)
		for _, v := range plan.Periods {
			fmt.Fprintf(w, " %10s", v.StringFixed(places))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func writeModelStats(w io.Writer, result *dto.PlanResult) {
	stats := result.ModelStats
	fmt.Fprintf(w, "📊 Model %s\n", result.Model)
	fmt.Fprintf(w, "  Variables: %d (%d binary)\n", stats.Variables, stats.BinaryVariables)
	fmt.Fprintf(w, "  Constraints: %d\n", stats.Constraints)

	families := make([]entities.ConstraintFamily, 0, len(stats.ConstraintsByFamily))
	for f := range stats.ConstraintsByFamily {
		families = append(families, f)
	}
	sort.Slice(families, func(i, j int) bool { return families[i] < families[j] })
	for _, f := range families {
		fmt.Fprintf(w, "    %s: %d\n", f, stats.ConstraintsByFamily[f])
	}
	fmt.Fprintf(w, "  Non-zeros: %d\n", stats.NonZeros)
	fmt.Fprintf(w, "  Solver: %s (%s, %d nodes, %v)\n",
		result.Solve.Solver, result.Solve.Status, result.Solve.Nodes, result.Solve.Elapsed)
	fmt.Fprintf(w, "  Request: %s\n", result.RequestID)
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PlanResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.out(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "plan.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one file per plan table plus costs.csv and status.csv
func generateCSVOutput(result *dto.PlanResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out := result.Output
	files := map[string][][]string{
		"status.csv": {
			{"status", "raw_status", "message"},
			{out.Report.Status.String(), out.Report.RawStatus, out.Report.Message},
		},
	}
	if out.Solved() {
		files["production.csv"] = planRows(out.Periods, out.Production, 2)
		files["inventory.csv"] = planRows(out.Periods, out.Inventory, 2)
		files["setups.csv"] = planRows(out.Periods, out.Setups, 0)
		files["costs.csv"] = [][]string{
			{"component", "amount"},
			{"production", out.Costs.Production.StringFixed(2)},
			{"setup", out.Costs.Setup.StringFixed(2)},
			{"holding", out.Costs.Holding.StringFixed(2)},
			{"total", out.Costs.Total.StringFixed(2)},
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		filename := filepath.Join(config.OutputDir, name)
		if err := writeCSV(filename, files[name]); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	if config.Verbose {
		fmt.Fprintf(config.out(), "💾 CSV results saved to %s: %s\n", config.OutputDir, strings.Join(names, ", "))
	}
	return nil
}

func planRows(periods int, plans []entities.ItemPlan, places int32) [][]string {
	header := []string{"item"}
	for t := 0; t < periods; t++ {
		header = append(header, fmt.Sprintf("period_%d", entities.PeriodNumber(t)))
	}
	rows := [][]string{header}
	for _, plan := range plans {
		row := []string{plan.Item}
		for _, v := range plan.Periods {
			row = append(row, v.StringFixed(places))
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
