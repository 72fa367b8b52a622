package opf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acca-opf/internal/model"
)

func triangleCase() *Case {
	return &Case{
		Name: "test-3bus",
		Buses: []Bus{
			{ID: 0, LoadMW: 0},
			{ID: 1, LoadMW: 120},
			{ID: 2, LoadMW: 80},
		},
		Lines: []Line{
			{From: 0, To: 1, SusceptancePU: 10, LimitMW: 110},
			{From: 1, To: 2, SusceptancePU: 10, LimitMW: 70},
			{From: 0, To: 2, SusceptancePU: 10, LimitMW: 90},
		},
		Generators: []Generator{
			{Bus: 0, MinMW: 0, MaxMW: 180, CostQuad: 0.04, CostLin: 18},
			{Bus: 2, MinMW: 0, MaxMW: 120, CostQuad: 0.08, CostLin: 24},
		},
		Wind: []WindFarm{
			{Bus: 1, ForecastMW: 40, CapacityMW: 80, SigmaMW: 12},
		},
	}
}

func TestPTDFTwoBus(t *testing.T) {
	c := &Case{
		Buses: []Bus{{ID: 0}, {ID: 1}},
		Lines: []Line{{From: 0, To: 1, SusceptancePU: 5, LimitMW: 1}},
	}
	ptdf, err := PTDF(c)
	require.NoError(t, err)

	// Reference column is zero; injection at bus 1 flows entirely back to
	// the reference, against the from->to orientation.
	assert.InDelta(t, 0, ptdf.At(0, 0), 1e-12)
	assert.InDelta(t, -1, ptdf.At(0, 1), 1e-9)
}

func TestPTDFTriangleSplitsFlow(t *testing.T) {
	ptdf, err := PTDF(triangleCase())
	require.NoError(t, err)

	// Equal susceptances: one MW injected at bus 1 returns to the reference
	// two thirds over line (0,1) and one third around via bus 2.
	assert.InDelta(t, -2.0/3, ptdf.At(0, 1), 1e-9) // line 0-1
	assert.InDelta(t, 1.0/3, ptdf.At(1, 1), 1e-9)  // line 1-2
	assert.InDelta(t, -1.0/3, ptdf.At(2, 1), 1e-9) // line 0-2

	for l := 0; l < 3; l++ {
		assert.InDelta(t, 0, ptdf.At(l, 0), 1e-12)
	}
}

func TestCaseValidate(t *testing.T) {
	require.NoError(t, triangleCase().Validate())

	bad := triangleCase()
	bad.Buses[1].ID = 5
	assert.Error(t, bad.Validate())

	bad = triangleCase()
	bad.Lines[0].SusceptancePU = 0
	assert.Error(t, bad.Validate())

	bad = triangleCase()
	bad.Generators[0].MinMW = 300
	assert.Error(t, bad.Validate())

	bad = triangleCase()
	bad.Wind[0].ForecastMW = 100 // above capacity
	assert.Error(t, bad.Validate())
}

func TestBuilderObjectiveAndDefaults(t *testing.T) {
	c := triangleCase()
	b, err := NewBuilder(c)
	require.NoError(t, err)

	assert.Equal(t, 6, b.Families())

	// cost(100, 60) = 0.04*100^2 + 18*100 + 0.08*60^2 + 24*60
	obj := b.Objective()
	assert.InDelta(t, 400+1800+288+1440, obj.Value([]float64{100, 60}), 1e-9)

	cons := b.DefaultConstraints()
	require.Len(t, cons, 1+2*len(c.Generators))

	// Balance: total load 200 minus forecast 40 leaves 160 MW of dispatch.
	balance := cons[0]
	require.Equal(t, model.Eq, balance.Sense)
	r, err := balance.Residual([]float64{100, 60})
	require.NoError(t, err)
	assert.InDelta(t, 0, r, 1e-12)
}

func TestBuilderInitialDispatch(t *testing.T) {
	c := triangleCase()
	b, err := NewBuilder(c)
	require.NoError(t, err)

	x0, err := b.InitialDispatch()
	require.NoError(t, err)
	require.Len(t, x0, 2)
	assert.InDelta(t, 160, x0[0]+x0[1], 1e-9)
	for g, gen := range c.Generators {
		assert.GreaterOrEqual(t, x0[g], gen.MinMW)
		assert.LessOrEqual(t, x0[g], gen.MaxMW)
	}

	// Net load beyond total capacity cannot be balanced.
	over := triangleCase()
	over.Buses[1].LoadMW = 1000
	b, err = NewBuilder(over)
	require.NoError(t, err)
	_, err = b.InitialDispatch()
	assert.Error(t, err)
}

// Build's constraint must agree with a direct PTDF flow computation for
// both orientations of a line.
func TestBuilderFlowConstraintMatchesPTDF(t *testing.T) {
	c := triangleCase()
	b, err := NewBuilder(c)
	require.NoError(t, err)
	ptdf, err := PTDF(c)
	require.NoError(t, err)

	x := []float64{110, 50}
	dev := []float64{-7.5}
	line := 1

	// Nodal injections: dispatch plus wind (forecast + deviation, with the
	// generators uniformly absorbing the total deviation) minus load.
	inj := make([]float64, len(c.Buses))
	gamma := 1 / float64(len(c.Generators))
	total := 0.0
	for _, d := range dev {
		total += d
	}
	for g, gen := range c.Generators {
		inj[gen.Bus] += x[g] - gamma*total
	}
	for w, farm := range c.Wind {
		inj[farm.Bus] += farm.ForecastMW + dev[w]
	}
	for _, bus := range c.Buses {
		inj[bus.ID] -= bus.LoadMW
	}
	flow := 0.0
	for bi, p := range inj {
		flow += ptdf.At(line, bi) * p
	}

	fwd, err := b.Build(model.Delta{ConstraintID: 2 * line, Data: dev})
	require.NoError(t, err)
	rf, err := fwd.Residual(x)
	require.NoError(t, err)
	assert.InDelta(t, c.Lines[line].LimitMW-flow, rf, 1e-9)

	rev, err := b.Build(model.Delta{ConstraintID: 2*line + 1, Data: dev})
	require.NoError(t, err)
	rr, err := rev.Residual(x)
	require.NoError(t, err)
	assert.InDelta(t, c.Lines[line].LimitMW+flow, rr, 1e-9)
}

func TestBuilderBuildRejectsBadDeltas(t *testing.T) {
	b, err := NewBuilder(triangleCase())
	require.NoError(t, err)

	_, err = b.Build(model.Delta{ConstraintID: 6, Data: []float64{0}})
	assert.Error(t, err)

	_, err = b.Build(model.Delta{ConstraintID: 0, Data: []float64{0, 0}})
	assert.Error(t, err)
}

func TestExtractDispatch(t *testing.T) {
	c := triangleCase()
	d, err := ExtractDispatch(c, []float64{90, 70})
	require.NoError(t, err)
	require.Len(t, d, 2)

	assert.Equal(t, 0, d[0].Bus)
	assert.InDelta(t, 90, d[0].MW, 1e-12)
	assert.InDelta(t, 2*0.04*90+18, d[0].MarginalCost, 1e-9)
	assert.InDelta(t, 0.5, d[0].Utilization, 1e-12)

	_, err = ExtractDispatch(c, []float64{1})
	assert.Error(t, err)
}
