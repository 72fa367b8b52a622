package models

import "time"

// SolveResponse is the result of a consensus OPF solve.
type SolveResponse struct {
	ID        string        `json:"id"`
	Status    string        `json:"status"` // "converged" or "max_rounds"
	XStar     []float64     `json:"xstar"`
	Objective float64       `json:"objective"`
	Rounds    int           `json:"rounds"`
	Diameter  int           `json:"diameter"`
	Agents    int           `json:"agents"`
	Warnings  []string      `json:"warnings,omitempty"`
	Dispatch  []DispatchRow `json:"dispatch"`
	History   []HistoryRow  `json:"history,omitempty"`
}

// DispatchRow is one generator's share of the solved dispatch.
type DispatchRow struct {
	Gen          int     `json:"gen"`
	Bus          int     `json:"bus"`
	MW           float64 `json:"mw"`
	MarginalCost float64 `json:"marginal_cost"`
	Utilization  float64 `json:"utilization"`
}

// HistoryRow is one (round, agent) record of the iteration history.
type HistoryRow struct {
	Round        int           `json:"round"`
	Agent        int           `json:"agent"`
	Objective    float64       `json:"objective"`
	ActiveDeltas int           `json:"active_deltas"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// GraphResponse describes a generated connectivity graph.
type GraphResponse struct {
	Agents    int     `json:"agents"`
	Diameter  int     `json:"diameter"`
	Threshold int     `json:"threshold"` // 2*diameter+1 stagnation rounds
	Adjacency [][]int `json:"adjacency"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
