package data

import (
	"encoding/json"
	"fmt"
	"os"

	"acca-opf/internal/opf"
)

// LoadCaseJSON reads a network case from disk and validates it.
func LoadCaseJSON(path string) (*opf.Case, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c opf.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse case %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("case %s: %w", path, err)
	}
	return &c, nil
}

// ScenarioFile matches the JSON shape of pre-generated deviation rows.
//
// Example:
//
//	{
//	  "scenarios": [[1.2, -0.4], [0.0, 2.1]]
//	}
type ScenarioFile struct {
	Scenarios [][]float64 `json:"scenarios"`
}

// LoadScenariosJSON reads pre-generated wind deviation rows. Every row must
// have the same width.
func LoadScenariosJSON(path string) ([][]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f ScenarioFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse scenarios %s: %w", path, err)
	}
	if len(f.Scenarios) == 0 {
		return nil, fmt.Errorf("scenarios %s: empty", path)
	}
	width := len(f.Scenarios[0])
	for i, row := range f.Scenarios {
		if len(row) != width {
			return nil, fmt.Errorf("scenarios %s: row %d has %d entries, want %d", path, i, len(row), width)
		}
	}
	return f.Scenarios, nil
}
