package services

import (
	"fmt"
	"math"
	"sort"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// tableSpec names one item × period table of an InputRecord
type tableSpec struct {
	name  string
	table entities.Table
}

// ValidateInput checks an InputRecord and converts it into an immutable
// PlanningInput. Every problem found is reported in a single
// *entities.InvalidInputError; nothing is coerced.
func ValidateInput(rec entities.InputRecord) (*entities.PlanningInput, error) {
	var problems []string

	if rec.NItems < 1 || rec.NItems > entities.MaxItems {
		problems = append(problems, fmt.Sprintf("n_items must be between 1 and %d, got %d", entities.MaxItems, rec.NItems))
	}
	if rec.NPeriods < 1 || rec.NPeriods > entities.MaxPeriods {
		problems = append(problems, fmt.Sprintf("n_periods must be between 1 and %d, got %d", entities.MaxPeriods, rec.NPeriods))
	}
	if len(problems) > 0 {
		// without a valid domain the tables cannot be checked cell by cell
		return nil, &entities.InvalidInputError{Problems: problems}
	}

	tables := []tableSpec{
		{"production_cost", rec.ProductionCost},
		{"setup_cost", rec.SetupCost},
		{"holding_cost", rec.HoldingCost},
		{"demand", rec.Demand},
		{"max_production", rec.MaxProduction},
	}

	grids := make([]entities.Grid, len(tables))
	for k, spec := range tables {
		rows, tableProblems := collectTable(spec, rec.NItems, rec.NPeriods)
		problems = append(problems, tableProblems...)
		if len(tableProblems) == 0 {
			grids[k] = entities.MustGrid(rows)
		}
	}

	warehouse, warehouseProblems := collectWarehouse(rec.WarehouseCapacity, rec.NPeriods)
	problems = append(problems, warehouseProblems...)

	if len(problems) > 0 {
		return nil, &entities.InvalidInputError{Problems: problems}
	}

	return &entities.PlanningInput{
		Items:             rec.NItems,
		Periods:           rec.NPeriods,
		ProductionCost:    grids[0],
		SetupCost:         grids[1],
		HoldingCost:       grids[2],
		Demand:            grids[3],
		MaxProduction:     grids[4],
		WarehouseCapacity: entities.MustPeriodSeries(warehouse),
	}, nil
}

func collectTable(spec tableSpec, nItems, nPeriods int) ([][]float64, []string) {
	var problems []string
	if spec.table == nil {
		return nil, []string{fmt.Sprintf("%s table is missing", spec.name)}
	}

	rows := make([][]float64, nItems)
	for i := 0; i < nItems; i++ {
		label := entities.ItemLabel(i)
		rows[i] = make([]float64, nPeriods)
		row, ok := spec.table[label]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s is missing item %s", spec.name, label))
			continue
		}
		for t := 0; t < nPeriods; t++ {
			period := entities.PeriodNumber(t)
			v, ok := row[period]
			if !ok {
				problems = append(problems, fmt.Sprintf("%s is missing entry for %s, period %d", spec.name, label, period))
				continue
			}
			if !validAmount(v) {
				problems = append(problems, fmt.Sprintf("%s[%s][%d] must be a non-negative finite number, got %v", spec.name, label, period, v))
				continue
			}
			rows[i][t] = v
		}
		for _, period := range sortedPeriods(row) {
			if period < 1 || period > nPeriods {
				problems = append(problems, fmt.Sprintf("%s[%s] has entry for period %d outside 1..%d", spec.name, label, period, nPeriods))
			}
		}
	}

	labels := make([]string, 0, len(spec.table))
	for label := range spec.table {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		item, err := entities.ParseItemLabel(label)
		if err != nil || item >= nItems {
			problems = append(problems, fmt.Sprintf("%s has entry for unknown item %q", spec.name, label))
		}
	}

	return rows, problems
}

func collectWarehouse(capacity map[int]float64, nPeriods int) ([]float64, []string) {
	if capacity == nil {
		return nil, []string{"warehouse_capacity table is missing"}
	}

	var problems []string
	values := make([]float64, nPeriods)
	for t := 0; t < nPeriods; t++ {
		period := entities.PeriodNumber(t)
		v, ok := capacity[period]
		if !ok {
			problems = append(problems, fmt.Sprintf("warehouse_capacity is missing entry for period %d", period))
			continue
		}
		if !validAmount(v) {
			problems = append(problems, fmt.Sprintf("warehouse_capacity[%d] must be a non-negative finite number, got %v", period, v))
			continue
		}
		values[t] = v
	}
	for _, period := range sortedPeriods(capacity) {
		if period < 1 || period > nPeriods {
			problems = append(problems, fmt.Sprintf("warehouse_capacity has entry for period %d outside 1..%d", period, nPeriods))
		}
	}
	return values, problems
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func sortedPeriods(row map[int]float64) []int {
	periods := make([]int, 0, len(row))
	for p := range row {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	return periods
}
