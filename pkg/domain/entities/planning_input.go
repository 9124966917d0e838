package entities

// Table is the boundary form of an item × period table: item label → period number → value
type Table map[string]map[int]float64

// InputRecord is the record handed over by a data-entry collaborator.
// Tables are keyed by generated item labels (item1..itemN) and one-based period numbers.
type InputRecord struct {
	NItems            int             `yaml:"n_items" json:"n_items"`
	NPeriods          int             `yaml:"n_periods" json:"n_periods"`
	ProductionCost    Table           `yaml:"production_cost" json:"production_cost"`
	SetupCost         Table           `yaml:"setup_cost" json:"setup_cost"`
	HoldingCost       Table           `yaml:"holding_cost" json:"holding_cost"`
	Demand            Table           `yaml:"demand" json:"demand"`
	MaxProduction     Table           `yaml:"max_production" json:"max_production"`
	WarehouseCapacity map[int]float64 `yaml:"warehouse_capacity" json:"warehouse_capacity"`
}

// Set stores value in a table, allocating the inner map on demand
func (t Table) Set(item string, period int, value float64) {
	row, ok := t[item]
	if !ok {
		row = make(map[int]float64)
		t[item] = row
	}
	row[period] = value
}

// PlanningInput is the validated, immutable input of one planning request.
// Every Grid covers exactly Items × Periods cells and WarehouseCapacity
// covers exactly Periods entries.
type PlanningInput struct {
	Items             int
	Periods           int
	ProductionCost    Grid
	SetupCost         Grid
	HoldingCost       Grid
	Demand            Grid
	MaxProduction     Grid
	WarehouseCapacity PeriodSeries
}

// ItemLabels returns item1..itemN for this input
func (p *PlanningInput) ItemLabels() []string {
	return ItemLabels(p.Items)
}

// Record converts the input back into its boundary form
func (p *PlanningInput) Record() InputRecord {
	rec := InputRecord{
		NItems:            p.Items,
		NPeriods:          p.Periods,
		ProductionCost:    gridTable(p.ProductionCost),
		SetupCost:         gridTable(p.SetupCost),
		HoldingCost:       gridTable(p.HoldingCost),
		Demand:            gridTable(p.Demand),
		MaxProduction:     gridTable(p.MaxProduction),
		WarehouseCapacity: make(map[int]float64, p.Periods),
	}
	for t := 0; t < p.Periods; t++ {
		rec.WarehouseCapacity[PeriodNumber(t)] = p.WarehouseCapacity.At(t)
	}
	return rec
}

func gridTable(g Grid) Table {
	table := make(Table, g.Items())
	for i := 0; i < g.Items(); i++ {
		for t := 0; t < g.Periods(); t++ {
			table.Set(ItemLabel(i), PeriodNumber(t), g.At(i, t))
		}
	}
	return table
}
