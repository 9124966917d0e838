// Package yaml stores planning scenarios as YAML documents, or as JSON
// when the file name ends in .json.
package yaml

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vsinha/lotplan/pkg/domain/entities"
)

// Loader reads planning scenarios from files
type Loader struct{}

// NewLoader creates a new scenario loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadScenario reads a scenario file. Unknown fields are rejected.
func (l *Loader) LoadScenario(filename string) (entities.InputRecord, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return entities.InputRecord{}, fmt.Errorf("failed to read scenario %s: %w", filename, err)
	}
	if isJSON(filename) {
		return l.DecodeJSON(bytes.NewReader(data))
	}
	return l.Decode(bytes.NewReader(data))
}

// Decode reads one YAML scenario document from r
func (l *Loader) Decode(r io.Reader) (entities.InputRecord, error) {
	var rec entities.InputRecord
	dec := yamlv3.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return entities.InputRecord{}, fmt.Errorf("scenario is empty")
		}
		return entities.InputRecord{}, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	return rec, nil
}

// DecodeJSON reads one JSON scenario document from r
func (l *Loader) DecodeJSON(r io.Reader) (entities.InputRecord, error) {
	var rec entities.InputRecord
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return entities.InputRecord{}, fmt.Errorf("scenario is empty")
		}
		return entities.InputRecord{}, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	return rec, nil
}

// Writer saves planning scenarios
type Writer struct{}

// NewWriter creates a new scenario writer
func NewWriter() *Writer {
	return &Writer{}
}

// WriteScenario writes rec to filename, as JSON when the name ends in .json
func (w *Writer) WriteScenario(filename string, rec entities.InputRecord) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create scenario %s: %w", filename, err)
	}
	defer file.Close()

	if isJSON(filename) {
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write scenario %s: %w", filename, err)
		}
		return nil
	}
	return w.Encode(file, rec)
}

// Encode writes rec to out as YAML
func (w *Writer) Encode(out io.Writer, rec entities.InputRecord) error {
	enc := yamlv3.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode scenario YAML: %w", err)
	}
	return enc.Close()
}

func isJSON(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}
