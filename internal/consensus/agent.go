package consensus

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"acca-opf/internal/model"
	"acca-opf/internal/solver"
)

// Iteration is one immutable per-round snapshot of an agent. X is owned
// exclusively by the snapshot and never mutated after creation.
type Iteration struct {
	X      []float64
	Obj    float64
	Active []model.Delta
	// Elapsed is the wall-clock duration of the round that produced this
	// snapshot.
	Elapsed time.Duration
	// Info carries solver diagnostics when debug mode is on.
	Info string
}

// Agent owns a fixed partition of deltas and an append-only iteration
// history. iters[0] is the seed state; the history grows by exactly one
// entry per global round.
type Agent struct {
	id      int
	initial []model.Delta
	inNbrs  []int
	iters   []Iteration
	// stagnant counts consecutive rounds with numerically unchanged
	// objective; it is the agent's convergence signal.
	stagnant int
}

func newAgent(id int, initial []model.Delta, g *Graph, x0 []float64, obj float64) *Agent {
	return &Agent{
		id:      id,
		initial: initial,
		inNbrs:  g.InNeighbors(id),
		iters: []Iteration{{
			X:   append([]float64(nil), x0...),
			Obj: obj,
		}},
	}
}

func (a *Agent) last() Iteration { return a.iters[len(a.iters)-1] }

// roundConfig bundles the per-run collaborators an agent needs each round.
type roundConfig struct {
	objective model.Objective
	defaults  []model.Constraint
	build     ConstraintBuilder
	eval      Evaluator
	solve     solver.Interface
	stepsize  func(k int) float64
	feasTol   float64
	activeTol float64
	objTol    float64
	debug     bool
}

// runRound performs the round-k update for this agent. prev holds every
// agent's round-(k-1) snapshot; the agent reads only those and appends to
// its own history, so all agents' round-k updates may run concurrently.
func (a *Agent) runRound(ctx context.Context, k int, prev []Iteration, cfg *roundConfig) error {
	start := time.Now()
	self := prev[a.id]

	// Local view: own partition, own previous actives, and the actives
	// most recently reported by every in-neighbor. Deduplicated by exact
	// row match.
	local := make([]model.Delta, 0, len(a.initial)+len(self.Active))
	local = append(local, a.initial...)
	local = append(local, self.Active...)
	for _, j := range a.inNbrs {
		local = append(local, prev[j].Active...)
	}
	local = model.Dedup(local)

	// Consensus point: uniform average of own and in-neighbors' previous
	// values; the agent counts itself as one of its own neighbors.
	z := append([]float64(nil), self.X...)
	for _, j := range a.inNbrs {
		for i, v := range prev[j].X {
			z[i] += v
		}
	}
	w := 1 / float64(len(a.inNbrs)+1)
	for i := range z {
		z[i] *= w
	}

	// Own previous x satisfying the whole local view is a discovered fixed
	// point: keep x and J unchanged and make this a zero-cost round.
	needOpt := false
	for _, d := range local {
		r, err := cfg.eval.Residual(self.X, d)
		if err != nil {
			return err
		}
		if r < -cfg.feasTol {
			needOpt = true
			break
		}
	}

	newX := append([]float64(nil), self.X...)
	newObj := self.Obj
	info := ""
	if needOpt {
		var err error
		newX, info, err = a.optimize(ctx, k, z, local, cfg)
		if err != nil {
			return err
		}
		newObj = cfg.objective.Value(newX)
	}

	// Re-evaluate the active set over the local view at the new iterate:
	// this shrinking/growing set is what propagates "which scenarios
	// matter" through the graph.
	var active []model.Delta
	for _, d := range local {
		r, err := cfg.eval.Residual(newX, d)
		if err != nil {
			return err
		}
		if math.Abs(r) <= cfg.activeTol {
			active = append(active, d)
		}
	}

	if math.Abs(newObj-self.Obj) <= cfg.objTol {
		a.stagnant++
	} else {
		a.stagnant = 1
	}

	it := Iteration{
		X:       newX,
		Obj:     newObj,
		Active:  active,
		Elapsed: time.Since(start),
	}
	if cfg.debug {
		it.Info = info
	}
	a.iters = append(a.iters, it)
	return nil
}

// optimize solves the restricted proximal subproblem
//
//	minimize f(x) + ||x - z||^2 / (2 alpha_k)
//
// over the deterministic default constraints, the constraints of local-view
// deltas violated at z, and the agent's full initial partition (always
// included: the agent never drops its own assigned scenarios).
func (a *Agent) optimize(ctx context.Context, k int, z []float64, local []model.Delta, cfg *roundConfig) ([]float64, string, error) {
	restricted := make([]model.Delta, 0, len(local))
	var violated []int
	for _, d := range local {
		r, err := cfg.eval.Residual(z, d)
		if err != nil {
			return nil, "", err
		}
		if r < -cfg.feasTol {
			restricted = append(restricted, d)
			violated = append(violated, d.ConstraintID)
		}
	}
	restricted = model.Dedup(append(restricted, a.initial...))

	cons := append([]model.Constraint(nil), cfg.defaults...)
	for _, d := range restricted {
		c, err := cfg.build(d)
		if err != nil {
			return nil, "", &SolverError{Round: k, Agent: a.id, Violated: violated, Info: err.Error(), Err: err}
		}
		cons = append(cons, c)
	}

	alpha := cfg.stepsize(k)
	sol, err := cfg.solve.Solve(ctx, solver.Problem{
		Objective:   proximal(cfg.objective, z, alpha),
		Constraints: cons,
	})
	if err != nil {
		return nil, "", &SolverError{Round: k, Agent: a.id, Violated: violated, Info: err.Error(), Err: err}
	}
	return sol.X, sol.Info, nil
}

// proximal adds the Moreau-envelope-style penalty ||x-z||^2/(2 alpha) to f.
// A quadratic f stays quadratic (the default solver depends on that); any
// other objective is wrapped generically for custom solvers.
func proximal(f model.Objective, z []float64, alpha float64) model.Objective {
	if qf, ok := f.(*model.Quadratic); ok {
		n := qf.Dim()
		p := mat.NewSymDense(n, nil)
		if qf.P != nil {
			p.CopySym(qf.P)
		}
		q := make([]float64, n)
		if qf.Q != nil {
			copy(q, qf.Q)
		}
		c := qf.C
		inv := 1 / alpha
		for i := 0; i < n; i++ {
			p.SetSym(i, i, p.At(i, i)+inv)
			q[i] -= z[i] * inv
			c += z[i] * z[i] * inv / 2
		}
		return model.NewQuadraticObjective(p, q, c)
	}
	return &proxObjective{f: f, z: z, alpha: alpha}
}

type proxObjective struct {
	f     model.Objective
	z     []float64
	alpha float64
}

func (p *proxObjective) Dim() int { return p.f.Dim() }

func (p *proxObjective) Value(x []float64) float64 {
	v := p.f.Value(x)
	for i := range x {
		d := x[i] - p.z[i]
		v += d * d / (2 * p.alpha)
	}
	return v
}

func (p *proxObjective) Grad(x []float64) []float64 {
	g := p.f.Grad(x)
	for i := range g {
		g[i] += (x[i] - p.z[i]) / p.alpha
	}
	return g
}
