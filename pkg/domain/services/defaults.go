package services

import "github.com/vsinha/lotplan/pkg/domain/entities"

// Default table values used when generating a starter scenario. Item and
// period offsets are zero-based.
const (
	defaultProductionCost = 10.0
	productionCostStep    = 5.0
	defaultSetupCost      = 50.0
	setupCostStep         = 10.0
	defaultHoldingCost    = 5.0
	holdingCostStep       = 2.0
	defaultDemand         = 20.0
	demandStep            = 5.0
	defaultMaxProduction  = 100.0
	defaultWarehouseCap   = 200.0
)

// DefaultRecord returns a starter InputRecord: costs rise with the item
// index, demand rises with the period, capacity is flat.
func DefaultRecord(nItems, nPeriods int) entities.InputRecord {
	rec := entities.InputRecord{
		NItems:            nItems,
		NPeriods:          nPeriods,
		ProductionCost:    entities.Table{},
		SetupCost:         entities.Table{},
		HoldingCost:       entities.Table{},
		Demand:            entities.Table{},
		MaxProduction:     entities.Table{},
		WarehouseCapacity: make(map[int]float64, nPeriods),
	}

	for i := 0; i < nItems; i++ {
		label := entities.ItemLabel(i)
		for t := 0; t < nPeriods; t++ {
			period := entities.PeriodNumber(t)
			rec.ProductionCost.Set(label, period, defaultProductionCost+float64(i)*productionCostStep)
			rec.SetupCost.Set(label, period, defaultSetupCost+float64(i)*setupCostStep)
			rec.HoldingCost.Set(label, period, defaultHoldingCost+float64(i)*holdingCostStep)
			rec.Demand.Set(label, period, defaultDemand+float64(t)*demandStep)
			rec.MaxProduction.Set(label, period, defaultMaxProduction)
		}
	}
	for t := 0; t < nPeriods; t++ {
		rec.WarehouseCapacity[entities.PeriodNumber(t)] = defaultWarehouseCap
	}
	return rec
}
