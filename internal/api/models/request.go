package models

import "acca-opf/internal/opf"

// SolveRequest is the request body for running a consensus OPF solve.
type SolveRequest struct {
	Case      opf.Case        `json:"case" binding:"required"`
	Scenarios ScenarioOptions `json:"scenarios"`
	Options   SolveOptions    `json:"options,omitempty"`
}

// ScenarioOptions selects the uncertainty input: either pre-generated
// deviation rows, or sampling parameters for the case's wind farms.
type ScenarioOptions struct {
	Rows        [][]float64 `json:"rows,omitempty"`
	Count       int         `json:"count,omitempty"`       // default 100
	Seed        uint64      `json:"seed,omitempty"`        // default 1
	Correlation float64     `json:"correlation,omitempty"` // default 0
}

// SolveOptions tunes the consensus run.
type SolveOptions struct {
	Agents    int   `json:"agents,omitempty"`     // 0: ceil(N/10)
	Diameter  int   `json:"diameter,omitempty"`   // 0: 3
	MaxRounds int   `json:"max_rounds,omitempty"` // 0: 100
	Seed      int64 `json:"seed,omitempty"`       // graph seed
	Debug     bool  `json:"debug,omitempty"`

	// IncludeHistory returns the full per-round history; default off.
	IncludeHistory bool `json:"include_history,omitempty"`
}

// GraphRequest asks for a generated connectivity graph.
type GraphRequest struct {
	Agents   int   `json:"agents" binding:"required"`
	Diameter int   `json:"diameter,omitempty"` // 0: 3
	Seed     int64 `json:"seed,omitempty"`
}
