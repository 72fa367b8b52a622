package opf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"acca-opf/internal/consensus"
	"acca-opf/internal/model"
)

// Builder turns a Case into the scenario program solved by the consensus
// core. The decision vector is the generator dispatch (MW, one entry per
// generator). Constraint families come in pairs per line: family 2l bounds
// the forward flow of line l, family 2l+1 the reverse flow. A delta's Data
// is one wind-deviation row (MW per farm).
type Builder struct {
	c    *Case
	ptdf *mat.Dense

	// genCoef[l][g]: flow sensitivity of line l to generator g.
	genCoef [][]float64
	// windCoef[l][w]: flow sensitivity of line l to wind farm w.
	windCoef [][]float64
	// baseFlow[l]: line flow from loads and forecast wind at zero dispatch.
	baseFlow []float64
	// gammaCoef[l]: sensitivity of line l to the generator-shared balancing
	// of a total wind deviation (uniform participation factors).
	gammaCoef []float64
}

func NewBuilder(c *Case) (*Builder, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("case invalid: %w", err)
	}
	ptdf, err := PTDF(c)
	if err != nil {
		return nil, err
	}

	nl := len(c.Lines)
	ng := len(c.Generators)
	nw := len(c.Wind)
	b := &Builder{
		c:         c,
		ptdf:      ptdf,
		genCoef:   make([][]float64, nl),
		windCoef:  make([][]float64, nl),
		baseFlow:  make([]float64, nl),
		gammaCoef: make([]float64, nl),
	}
	gamma := 1 / float64(ng) // uniform deviation balancing across units
	for l := 0; l < nl; l++ {
		b.genCoef[l] = make([]float64, ng)
		for g, gen := range c.Generators {
			b.genCoef[l][g] = ptdf.At(l, gen.Bus)
			b.gammaCoef[l] += ptdf.At(l, gen.Bus) * gamma
		}
		b.windCoef[l] = make([]float64, nw)
		for w, farm := range c.Wind {
			b.windCoef[l][w] = ptdf.At(l, farm.Bus)
			b.baseFlow[l] += ptdf.At(l, farm.Bus) * farm.ForecastMW
		}
		for _, bus := range c.Buses {
			b.baseFlow[l] -= ptdf.At(l, bus.ID) * bus.LoadMW
		}
	}
	return b, nil
}

// Families is the constraint-family count: two per line.
func (b *Builder) Families() int { return 2 * len(b.c.Lines) }

// Objective is the total generation cost.
func (b *Builder) Objective() *model.Quadratic {
	ng := len(b.c.Generators)
	p := mat.NewSymDense(ng, nil)
	q := make([]float64, ng)
	c0 := 0.0
	for g, gen := range b.c.Generators {
		p.SetSym(g, g, 2*gen.CostQuad)
		q[g] = gen.CostLin
		c0 += gen.CostConst
	}
	return model.NewQuadraticObjective(p, q, c0)
}

// DefaultConstraints are the deterministic constraints every agent always
// enforces: expected power balance and generator limits.
func (b *Builder) DefaultConstraints() []model.Constraint {
	ng := len(b.c.Generators)
	ones := make([]float64, ng)
	for i := range ones {
		ones[i] = 1
	}
	need := b.c.TotalLoadMW() - b.c.TotalWindForecastMW()
	cons := []model.Constraint{model.NewLinear(ones, model.Eq, need)}
	for g, gen := range b.c.Generators {
		lo := make([]float64, ng)
		hi := make([]float64, ng)
		lo[g], hi[g] = 1, 1
		cons = append(cons,
			model.NewLinear(lo, model.GreaterEq, gen.MinMW),
			model.NewLinear(hi, model.LessEq, gen.MaxMW),
		)
	}
	return cons
}

// InitialDispatch returns a dispatch satisfying the balance equality and
// the generator boxes: minimum output plus the remaining net load shared in
// proportion to headroom. Used as the starting value for a solve.
func (b *Builder) InitialDispatch() ([]float64, error) {
	need := b.c.TotalLoadMW() - b.c.TotalWindForecastMW()
	sumMin, head := 0.0, 0.0
	for _, g := range b.c.Generators {
		sumMin += g.MinMW
		head += g.MaxMW - g.MinMW
	}
	rem := need - sumMin
	if rem < 0 || rem > head {
		return nil, fmt.Errorf("net load %.1f MW outside dispatchable range [%.1f, %.1f]", need, sumMin, sumMin+head)
	}
	x := make([]float64, len(b.c.Generators))
	for i, g := range b.c.Generators {
		x[i] = g.MinMW
		if head > 0 {
			x[i] += rem * (g.MaxMW - g.MinMW) / head
		}
	}
	return x, nil
}

// flowConst returns the dispatch-independent flow on line l under deviation
// row dev, with generators absorbing the total deviation uniformly.
func (b *Builder) flowConst(l int, dev []float64) float64 {
	total := 0.0
	v := b.baseFlow[l]
	for w, d := range dev {
		v += b.windCoef[l][w] * d
		total += d
	}
	return v - b.gammaCoef[l]*total
}

// Build instantiates the line-flow constraint of one delta. It satisfies
// consensus.ConstraintBuilder.
func (b *Builder) Build(d model.Delta) (model.Constraint, error) {
	nl := len(b.c.Lines)
	if d.ConstraintID < 0 || d.ConstraintID >= 2*nl {
		return model.Constraint{}, fmt.Errorf("constraint family %d out of range (have %d)", d.ConstraintID, 2*nl)
	}
	if len(d.Data) != len(b.c.Wind) {
		return model.Constraint{}, fmt.Errorf("deviation row has %d entries for %d wind farms", len(d.Data), len(b.c.Wind))
	}
	l := d.ConstraintID / 2
	limit := b.c.Lines[l].LimitMW
	off := b.flowConst(l, d.Data)

	a := make([]float64, len(b.genCoef[l]))
	if d.ConstraintID%2 == 0 {
		copy(a, b.genCoef[l])
		return model.NewLinear(a, model.LessEq, limit-off), nil
	}
	for i, v := range b.genCoef[l] {
		a[i] = -v
	}
	return model.NewLinear(a, model.LessEq, limit+off), nil
}

// Problem assembles the consensus problem for this case.
func (b *Builder) Problem() consensus.Problem {
	return consensus.Problem{
		Objective: b.Objective(),
		Default:   b.DefaultConstraints(),
		Build:     b.Build,
		Families:  b.Families(),
	}
}
