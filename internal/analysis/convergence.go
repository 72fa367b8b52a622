package analysis

import (
	"math"
	"time"

	"acca-opf/internal/consensus"
)

// AgentSummary condenses one agent's iteration history.
type AgentSummary struct {
	ID     int
	Rounds int

	// SeedObj/FinalObj are the objective at the seed state and after the
	// last round.
	SeedObj  float64
	FinalObj float64

	// MaxActive is the largest active-delta set the agent ever reported.
	MaxActive int
	// FinalActive is the binding-set size after the last round.
	FinalActive int

	Stagnation int
	Elapsed    time.Duration
}

// Summary is a run-level convergence report for a consensus result.
type Summary struct {
	Rounds    int
	Converged bool
	Diameter  int
	// Threshold is the stagnation count every agent must reach.
	Threshold int

	// ObjSpread is the final cross-agent objective range; XSpread the
	// final max-norm disagreement between any two agents.
	ObjSpread float64
	XSpread   float64

	Elapsed time.Duration
	Agents  []AgentSummary
}

// Summarize condenses a result's per-agent histories into a report.
func Summarize(res *consensus.Result) Summary {
	s := Summary{
		Rounds:    res.Rounds,
		Converged: res.Converged,
		Diameter:  res.Graph.Diameter(),
		Threshold: 2*res.Graph.Diameter() + 1,
	}

	loObj, hiObj := math.Inf(1), math.Inf(-1)
	var finals [][]float64
	for _, a := range res.Agents {
		last := a.Iterations[len(a.Iterations)-1]
		as := AgentSummary{
			ID:          a.ID,
			Rounds:      len(a.Iterations) - 1,
			SeedObj:     a.Iterations[0].Obj,
			FinalObj:    last.Obj,
			FinalActive: len(last.Active),
			Stagnation:  a.Stagnation,
		}
		for _, it := range a.Iterations {
			if len(it.Active) > as.MaxActive {
				as.MaxActive = len(it.Active)
			}
			as.Elapsed += it.Elapsed
		}
		if as.Elapsed > s.Elapsed {
			s.Elapsed = as.Elapsed
		}
		if last.Obj < loObj {
			loObj = last.Obj
		}
		if last.Obj > hiObj {
			hiObj = last.Obj
		}
		finals = append(finals, last.X)
		s.Agents = append(s.Agents, as)
	}
	s.ObjSpread = hiObj - loObj

	for i := range finals {
		for j := i + 1; j < len(finals); j++ {
			for t := range finals[i] {
				if d := math.Abs(finals[i][t] - finals[j][t]); d > s.XSpread {
					s.XSpread = d
				}
			}
		}
	}
	return s
}
