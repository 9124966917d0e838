package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

const (
	// TablesFile holds one row per item and period
	TablesFile = "tables.csv"
	// WarehouseFile holds one row per period
	WarehouseFile = "warehouse.csv"
)

var (
	tablesHeader    = []string{"item", "period", "production_cost", "setup_cost", "holding_cost", "demand", "max_production"}
	warehouseHeader = []string{"period", "capacity"}
)

// Loader reads planning scenarios from a directory of CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads TablesFile and WarehouseFile from dir. The item count
// is the number of distinct items and the period count is the highest
// period seen. Blank cells are left out of the record so validation reports
// them as missing.
func (l *Loader) LoadScenario(dir string) (entities.InputRecord, error) {
	rec := entities.InputRecord{
		ProductionCost:    entities.Table{},
		SetupCost:         entities.Table{},
		HoldingCost:       entities.Table{},
		Demand:            entities.Table{},
		MaxProduction:     entities.Table{},
		WarehouseCapacity: map[int]float64{},
	}

	records, err := readCSV(filepath.Join(dir, TablesFile), tablesHeader)
	if err != nil {
		return entities.InputRecord{}, err
	}

	tables := []entities.Table{rec.ProductionCost, rec.SetupCost, rec.HoldingCost, rec.Demand, rec.MaxProduction}
	items := map[string]bool{}
	seen := map[string]bool{}
	maxPeriod := 0

	for i, record := range records {
		item := strings.TrimSpace(record[0])
		if item == "" {
			return entities.InputRecord{}, fmt.Errorf("tables CSV row %d: item is empty", i+2)
		}
		period, err := strconv.Atoi(strings.TrimSpace(record[1]))
		if err != nil {
			return entities.InputRecord{}, fmt.Errorf("tables CSV row %d: invalid period %q: %w", i+2, record[1], err)
		}
		key := fmt.Sprintf("%s/%d", item, period)
		if seen[key] {
			return entities.InputRecord{}, fmt.Errorf("tables CSV row %d: duplicate row for %s, period %d", i+2, item, period)
		}
		seen[key] = true
		items[item] = true
		if period > maxPeriod {
			maxPeriod = period
		}

		for k, table := range tables {
			col := k + 2
			v, ok, err := parseCell(record[col])
			if err != nil {
				return entities.InputRecord{}, fmt.Errorf("tables CSV row %d: invalid %s: %w", i+2, tablesHeader[col], err)
			}
			if ok {
				table.Set(item, period, v)
			}
		}
	}

	records, err = readCSV(filepath.Join(dir, WarehouseFile), warehouseHeader)
	if err != nil {
		return entities.InputRecord{}, err
	}
	for i, record := range records {
		period, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return entities.InputRecord{}, fmt.Errorf("warehouse CSV row %d: invalid period %q: %w", i+2, record[0], err)
		}
		if _, dup := rec.WarehouseCapacity[period]; dup {
			return entities.InputRecord{}, fmt.Errorf("warehouse CSV row %d: duplicate row for period %d", i+2, period)
		}
		v, ok, err := parseCell(record[1])
		if err != nil {
			return entities.InputRecord{}, fmt.Errorf("warehouse CSV row %d: invalid capacity: %w", i+2, err)
		}
		if ok {
			rec.WarehouseCapacity[period] = v
		}
	}

	rec.NItems = len(items)
	rec.NPeriods = maxPeriod
	return rec, nil
}

func readCSV(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filepath.Base(filename))
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filepath.Base(filename), expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d", filepath.Base(filename), i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

// parseCell returns ok=false for a blank cell
func parseCell(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range actual {
		if strings.TrimSpace(strings.ToLower(col)) != expected[i] {
			return false
		}
	}

	return true
}
