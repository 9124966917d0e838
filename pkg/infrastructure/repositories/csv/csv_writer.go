package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// Writer saves planning scenarios in the layout Loader reads
type Writer struct{}

// NewWriter creates a new CSV writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteScenario writes rec into dir, creating it if needed. Items are
// written in label order, then by period; absent cells are left blank.
func (w *Writer) WriteScenario(dir string, rec entities.InputRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scenario directory %s: %w", dir, err)
	}

	tables := []entities.Table{rec.ProductionCost, rec.SetupCost, rec.HoldingCost, rec.Demand, rec.MaxProduction}
	rows := [][]string{tablesHeader}
	for i := 0; i < rec.NItems; i++ {
		item := entities.ItemLabel(i)
		for t := 0; t < rec.NPeriods; t++ {
			period := entities.PeriodNumber(t)
			row := []string{item, strconv.Itoa(period)}
			for _, table := range tables {
				row = append(row, formatCell(table[item], period))
			}
			rows = append(rows, row)
		}
	}
	if err := writeCSV(filepath.Join(dir, TablesFile), rows); err != nil {
		return err
	}

	periods := make([]int, 0, len(rec.WarehouseCapacity))
	for p := range rec.WarehouseCapacity {
		periods = append(periods, p)
	}
	sort.Ints(periods)
	rows = [][]string{warehouseHeader}
	for _, p := range periods {
		rows = append(rows, []string{strconv.Itoa(p), formatCell(rec.WarehouseCapacity, p)})
	}
	return writeCSV(filepath.Join(dir, WarehouseFile), rows)
}

func formatCell(row map[int]float64, period int) string {
	v, ok := row[period]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", filename, err)
	}
	return nil
}
