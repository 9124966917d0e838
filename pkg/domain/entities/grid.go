package entities

import "fmt"

// Grid is an immutable item × period table of non-negative reals.
// Cells are addressed by zero-based item and period indexes.
type Grid struct {
	items   int
	periods int
	cells   []float64
}

// NewGrid copies rows (one slice per item, one entry per period) into a Grid.
// All rows must have the same length.
func NewGrid(rows [][]float64) (Grid, error) {
	if len(rows) == 0 {
		return Grid{}, fmt.Errorf("grid must have at least one item row")
	}
	periods := len(rows[0])
	if periods == 0 {
		return Grid{}, fmt.Errorf("grid must have at least one period column")
	}

	cells := make([]float64, 0, len(rows)*periods)
	for i, row := range rows {
		if len(row) != periods {
			return Grid{}, fmt.Errorf("grid row %d has %d periods, expected %d", i, len(row), periods)
		}
		cells = append(cells, row...)
	}

	return Grid{items: len(rows), periods: periods, cells: cells}, nil
}

// MustGrid is NewGrid that panics on a shape error
func MustGrid(rows [][]float64) Grid {
	g, err := NewGrid(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// Items returns the number of item rows
func (g Grid) Items() int { return g.items }

// Periods returns the number of period columns
func (g Grid) Periods() int { return g.periods }

// At returns the value for (item, period). It panics when either index is
// out of range, the same way slice indexing does.
func (g Grid) At(item, period int) float64 {
	v, ok := g.Lookup(item, period)
	if !ok {
		panic(fmt.Sprintf("grid index (%d,%d) out of range [%d,%d)", item, period, g.items, g.periods))
	}
	return v
}

// Lookup returns the value for (item, period) and whether the cell exists
func (g Grid) Lookup(item, period int) (float64, bool) {
	if item < 0 || item >= g.items || period < 0 || period >= g.periods {
		return 0, false
	}
	return g.cells[item*g.periods+period], true
}

// Row returns a copy of one item's values across all periods
func (g Grid) Row(item int) []float64 {
	if item < 0 || item >= g.items {
		panic(fmt.Sprintf("grid item %d out of range [0,%d)", item, g.items))
	}
	row := make([]float64, g.periods)
	copy(row, g.cells[item*g.periods:(item+1)*g.periods])
	return row
}

// PeriodSeries is an immutable per-period sequence, used for the shared
// warehouse capacity.
type PeriodSeries struct {
	values []float64
}

// NewPeriodSeries copies values into a PeriodSeries
func NewPeriodSeries(values []float64) (PeriodSeries, error) {
	if len(values) == 0 {
		return PeriodSeries{}, fmt.Errorf("period series must have at least one period")
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return PeriodSeries{values: cp}, nil
}

// MustPeriodSeries is NewPeriodSeries that panics on error
func MustPeriodSeries(values []float64) PeriodSeries {
	s, err := NewPeriodSeries(values)
	if err != nil {
		panic(err)
	}
	return s
}

// Periods returns the number of periods
func (s PeriodSeries) Periods() int { return len(s.values) }

// At returns the value for a zero-based period index, panicking when out of range
func (s PeriodSeries) At(period int) float64 {
	if period < 0 || period >= len(s.values) {
		panic(fmt.Sprintf("period index %d out of range [0,%d)", period, len(s.values)))
	}
	return s.values[period]
}

// Values returns a copy of the series
func (s PeriodSeries) Values() []float64 {
	cp := make([]float64, len(s.values))
	copy(cp, s.values)
	return cp
}
