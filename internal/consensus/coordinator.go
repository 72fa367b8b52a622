package consensus

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"acca-opf/internal/model"
)

// Problem is the scenario program handed to Solve: a shared convex
// objective, deterministic constraints that every agent always enforces,
// and a builder instantiating the constraint of one delta.
type Problem struct {
	Objective model.Objective
	Default   []model.Constraint
	Build     ConstraintBuilder
	// Families is the number of constraint families N_cons every scenario
	// row is expanded over.
	Families int
}

// AgentHistory is one agent's full per-round record, for diagnostics.
type AgentHistory struct {
	ID         int
	Initial    []model.Delta
	Iterations []Iteration
	Stagnation int
}

// Result of a consensus solve. Warnings never abort a run; Converged is
// false when the loop stopped at MaxRounds instead of full stagnation.
type Result struct {
	X         []float64
	Obj       float64
	Rounds    int
	Converged bool
	Warnings  []Warning
	Graph     *Graph
	Agents    []AgentHistory
}

// Solve runs the distributed scenario-consensus loop: scenario rows are
// expanded over the problem's constraint families, partitioned among agents
// on a fixed connectivity graph, and each round every agent refreshes its
// local optimum against the constraints its neighborhood currently believes
// matter. The loop ends when every agent's objective has been unchanged for
// 2*diameter+1 consecutive rounds (the information-propagation bound) or at
// MaxRounds with a convergence warning.
func Solve(ctx context.Context, prob Problem, scenarios [][]float64, opts Options) (*Result, error) {
	if prob.Objective == nil {
		return nil, configErrorf("problem has no objective")
	}
	if prob.Build == nil {
		return nil, configErrorf("problem has no constraint builder")
	}
	if prob.Families < 1 {
		return nil, configErrorf("problem needs at least one constraint family, got %d", prob.Families)
	}
	if len(scenarios) == 0 {
		return nil, configErrorf("no scenarios supplied")
	}

	nDeltas := len(scenarios) * prob.Families
	opts = opts.withDefaults(nDeltas)

	dim := prob.Objective.Dim()
	x0 := opts.X0
	if x0 == nil {
		x0 = make([]float64, dim)
	}
	if len(x0) != dim {
		return nil, configErrorf("x0 has dimension %d, objective wants %d", len(x0), dim)
	}

	graph := opts.Connectivity
	if graph == nil {
		var err error
		graph, err = RandomConnected(opts.NumAgents, opts.Diameter, opts.Rand)
		if err != nil {
			return nil, err
		}
	}
	m := graph.Size()

	parts, err := Partition(scenarios, prob.Families, m)
	if err != nil {
		return nil, err
	}

	if opts.Evaluator == nil {
		opts.Evaluator = NewBuildEvaluator(prob.Build)
	}
	cfg := &roundConfig{
		objective: prob.Objective,
		defaults:  prob.Default,
		build:     prob.Build,
		eval:      opts.Evaluator,
		solve:     opts.Solver,
		stepsize:  opts.Stepsize,
		feasTol:   opts.FeasTol,
		activeTol: opts.ActiveTol,
		objTol:    opts.ObjTol,
		debug:     opts.Debug,
	}

	seedObj := prob.Objective.Value(x0)
	agents := make([]*Agent, m)
	for i := range agents {
		agents[i] = newAgent(i, parts[i], graph, x0, seedObj)
	}

	threshold := 2*graph.Diameter() + 1
	var warnings []Warning
	converged := false
	rounds := 0

	for k := 1; k <= opts.MaxRounds; k++ {
		if r, ok := cfg.eval.(interface{ Reset() }); ok {
			r.Reset()
		}

		// Publish the previous round: every agent reads only these
		// immutable snapshots during the round.
		prev := make([]Iteration, m)
		for i, a := range agents {
			prev[i] = a.last()
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, a := range agents {
			a := a
			g.Go(func() error {
				return a.runRound(gctx, k, prev, cfg)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		rounds = k

		minStag := agents[0].stagnant
		for _, a := range agents[1:] {
			if a.stagnant < minStag {
				minStag = a.stagnant
			}
		}
		if opts.Verbose {
			opts.Logf("consensus round %d: obj spread %.3g, min stagnation %d/%d",
				k, objSpread(agents), minStag, threshold)
		}
		if minStag >= threshold {
			converged = true
			break
		}
	}

	if !converged {
		warnings = append(warnings, Warning{
			Kind:    KindConvergence,
			Message: fmt.Sprintf("max rounds (%d) reached before all agents stagnated", opts.MaxRounds),
		})
	}
	if msg, ok := disagreement(agents, opts.ConsensusTol); !ok {
		warnings = append(warnings, Warning{Kind: KindConvergence, Message: msg})
	}

	final := agents[0].last()
	histories := make([]AgentHistory, m)
	for i, a := range agents {
		histories[i] = AgentHistory{
			ID:         a.id,
			Initial:    a.initial,
			Iterations: a.iters,
			Stagnation: a.stagnant,
		}
	}
	return &Result{
		X:         append([]float64(nil), final.X...),
		Obj:       final.Obj,
		Rounds:    rounds,
		Converged: converged,
		Warnings:  warnings,
		Graph:     graph,
		Agents:    histories,
	}, nil
}

func objSpread(agents []*Agent) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, a := range agents {
		o := a.last().Obj
		if o < lo {
			lo = o
		}
		if o > hi {
			hi = o
		}
	}
	return hi - lo
}

// disagreement runs the pairwise max-norm closeness check across all
// agents' final values.
func disagreement(agents []*Agent, tol float64) (string, bool) {
	worst := 0.0
	wi, wj := 0, 0
	for i := range agents {
		xi := agents[i].last().X
		for j := i + 1; j < len(agents); j++ {
			xj := agents[j].last().X
			for t := range xi {
				if d := math.Abs(xi[t] - xj[t]); d > worst {
					worst, wi, wj = d, i, j
				}
			}
		}
	}
	if worst > tol {
		return fmt.Sprintf("agents %d and %d disagree by %.3g (tolerance %.3g); consensus may be unreliable", wi, wj, worst, tol), false
	}
	return "", true
}
