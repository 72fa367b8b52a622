package consensus

import (
	"log"
	"math/rand"
	"time"

	"acca-opf/internal/solver"
)

// Tolerances used throughout the algorithm. All are overridable per run.
const (
	// DefaultFeasTol: a residual below -DefaultFeasTol counts as violated.
	DefaultFeasTol = 1e-6
	// DefaultActiveTol: a residual within the +-band counts as binding.
	DefaultActiveTol = 1e-6
	// DefaultObjTol: objective changes within this band count as stagnant.
	DefaultObjTol = 1e-6
	// DefaultConsensusTol bounds acceptable cross-agent disagreement in
	// the post-loop closeness check.
	DefaultConsensusTol = 1e-3
)

// Options configures one consensus solve. The zero value is usable; every
// field has a stated default.
type Options struct {
	// Verbose enables per-round progress reporting through Logf.
	Verbose bool
	// Logf receives progress lines when Verbose is set. Default log.Printf.
	Logf func(format string, args ...any)

	// Debug records solver diagnostics on every iteration snapshot.
	Debug bool

	// X0 is the initial decision value. Default: zero vector of the
	// objective's dimension.
	X0 []float64

	// Diameter bounds the generated connectivity graph's diameter when no
	// Connectivity is supplied. Default 3.
	Diameter int
	// NumAgents is the agent count m. Default ceil(N/10) for N deltas.
	NumAgents int
	// Connectivity is a precomputed graph; when set its size wins over
	// NumAgents. Default: randomly generated (see RandomConnected).
	Connectivity *Graph
	// MaxRounds caps the global loop. Default 100.
	MaxRounds int

	// Stepsize maps the round index k (1-based) to the proximal step
	// alpha_k. Default 1/(k+1).
	Stepsize func(k int) float64

	// Evaluator overrides the feasibility evaluation strategy. Default:
	// build-and-check over the problem's constraint builder.
	Evaluator Evaluator
	// Solver runs each agent's restricted subproblem. Default: the dense
	// active-set QP solver.
	Solver solver.Interface

	// Rand seeds graph generation. Default: time-seeded.
	Rand *rand.Rand

	// Tolerance overrides; zero means the package default.
	FeasTol      float64
	ActiveTol    float64
	ObjTol       float64
	ConsensusTol float64
}

// withDefaults fills unset fields. nDeltas is the expanded delta count N.
func (o Options) withDefaults(nDeltas int) Options {
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	if o.Diameter == 0 {
		o.Diameter = 3
	}
	if o.NumAgents == 0 {
		o.NumAgents = (nDeltas + 9) / 10
		if o.NumAgents < 1 {
			o.NumAgents = 1
		}
	}
	if o.Connectivity != nil {
		o.NumAgents = o.Connectivity.Size()
	}
	if o.MaxRounds == 0 {
		o.MaxRounds = 100
	}
	if o.Stepsize == nil {
		o.Stepsize = func(k int) float64 { return 1 / float64(k+1) }
	}
	if o.Solver == nil {
		o.Solver = solver.NewActiveSet()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.FeasTol == 0 {
		o.FeasTol = DefaultFeasTol
	}
	if o.ActiveTol == 0 {
		o.ActiveTol = DefaultActiveTol
	}
	if o.ObjTol == 0 {
		o.ObjTol = DefaultObjTol
	}
	if o.ConsensusTol == 0 {
		o.ConsensusTol = DefaultConsensusTol
	}
	return o
}
