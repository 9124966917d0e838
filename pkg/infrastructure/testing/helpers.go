package testing

import (
	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// RecordBuilder assembles InputRecords for tests. Every table starts out
// uniform: production cost 10, setup cost 50, holding cost 5, demand 0,
// max production 100 and warehouse capacity 200.
type RecordBuilder struct {
	rec entities.InputRecord
}

// NewRecord starts a builder over nItems × nPeriods
func NewRecord(nItems, nPeriods int) *RecordBuilder {
	rec := entities.InputRecord{
		NItems:            nItems,
		NPeriods:          nPeriods,
		ProductionCost:    uniformTable(nItems, nPeriods, 10),
		SetupCost:         uniformTable(nItems, nPeriods, 50),
		HoldingCost:       uniformTable(nItems, nPeriods, 5),
		Demand:            uniformTable(nItems, nPeriods, 0),
		MaxProduction:     uniformTable(nItems, nPeriods, 100),
		WarehouseCapacity: make(map[int]float64, nPeriods),
	}
	for t := 1; t <= nPeriods; t++ {
		rec.WarehouseCapacity[t] = 200
	}
	return &RecordBuilder{rec: rec}
}

func uniformTable(nItems, nPeriods int, v float64) entities.Table {
	table := entities.Table{}
	for i := 0; i < nItems; i++ {
		for t := 1; t <= nPeriods; t++ {
			table.Set(entities.ItemLabel(i), t, v)
		}
	}
	return table
}

func setRow(table entities.Table, item string, values []float64) {
	for t, v := range values {
		table.Set(item, t+1, v)
	}
}

// Demand sets an item's demand for periods 1..len(values)
func (b *RecordBuilder) Demand(item string, values ...float64) *RecordBuilder {
	setRow(b.rec.Demand, item, values)
	return b
}

// MaxProduction sets an item's capacity for periods 1..len(values)
func (b *RecordBuilder) MaxProduction(item string, values ...float64) *RecordBuilder {
	setRow(b.rec.MaxProduction, item, values)
	return b
}

// ProductionCost sets an item's unit production cost for periods 1..len(values)
func (b *RecordBuilder) ProductionCost(item string, values ...float64) *RecordBuilder {
	setRow(b.rec.ProductionCost, item, values)
	return b
}

// SetupCost sets an item's setup cost for periods 1..len(values)
func (b *RecordBuilder) SetupCost(item string, values ...float64) *RecordBuilder {
	setRow(b.rec.SetupCost, item, values)
	return b
}

// HoldingCost sets an item's holding cost for periods 1..len(values)
func (b *RecordBuilder) HoldingCost(item string, values ...float64) *RecordBuilder {
	setRow(b.rec.HoldingCost, item, values)
	return b
}

// Warehouse sets the shared capacity for periods 1..len(values)
func (b *RecordBuilder) Warehouse(values ...float64) *RecordBuilder {
	for t, v := range values {
		b.rec.WarehouseCapacity[t+1] = v
	}
	return b
}

// Record returns the assembled record
func (b *RecordBuilder) Record() entities.InputRecord {
	return b.rec
}

// Input converts the record straight into a PlanningInput without
// validation. It panics when a table does not cover the declared domain.
func (b *RecordBuilder) Input() *entities.PlanningInput {
	rec := b.rec
	return &entities.PlanningInput{
		Items:             rec.NItems,
		Periods:           rec.NPeriods,
		ProductionCost:    tableGrid(rec.ProductionCost, rec.NItems, rec.NPeriods),
		SetupCost:         tableGrid(rec.SetupCost, rec.NItems, rec.NPeriods),
		HoldingCost:       tableGrid(rec.HoldingCost, rec.NItems, rec.NPeriods),
		Demand:            tableGrid(rec.Demand, rec.NItems, rec.NPeriods),
		MaxProduction:     tableGrid(rec.MaxProduction, rec.NItems, rec.NPeriods),
		WarehouseCapacity: warehouseSeries(rec.WarehouseCapacity, rec.NPeriods),
	}
}

func tableGrid(table entities.Table, nItems, nPeriods int) entities.Grid {
	rows := make([][]float64, nItems)
	for i := range rows {
		rows[i] = make([]float64, nPeriods)
		for t := range rows[i] {
			v, ok := table[entities.ItemLabel(i)][t+1]
			if !ok {
				panic("test record table does not cover " + entities.ItemLabel(i))
			}
			rows[i][t] = v
		}
	}
	return entities.MustGrid(rows)
}

func warehouseSeries(capacity map[int]float64, nPeriods int) entities.PeriodSeries {
	values := make([]float64, nPeriods)
	for t := range values {
		values[t] = capacity[t+1]
	}
	return entities.MustPeriodSeries(values)
}

// ScenarioA is one item over one period: demand 20, capacity 100, warehouse 200
func ScenarioA() *RecordBuilder {
	return NewRecord(1, 1).Demand("item1", 20).MaxProduction("item1", 100).Warehouse(200)
}

// ScenarioB is one item over two periods with no capacity in period 1,
// which cannot be met because there is no opening inventory
func ScenarioB() *RecordBuilder {
	return NewRecord(1, 2).Demand("item1", 20, 25).MaxProduction("item1", 0, 100)
}

// ScenarioC is two items over one period with zero warehouse capacity;
// production flows straight through to demand
func ScenarioC() *RecordBuilder {
	return NewRecord(2, 1).
		Demand("item1", 30).
		Demand("item2", 15).
		MaxProduction("item1", 50).
		MaxProduction("item2", 50).
		Warehouse(0)
}
