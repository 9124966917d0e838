package repositories

import "github.com/vsinha/lotplan/pkg/domain/entities"

// ScenarioReader loads a planning scenario from a location such as a
// file or directory path
type ScenarioReader interface {
	LoadScenario(location string) (entities.InputRecord, error)
}

// ScenarioWriter saves a planning scenario so a matching ScenarioReader
// can load it back
type ScenarioWriter interface {
	WriteScenario(location string, rec entities.InputRecord) error
}
