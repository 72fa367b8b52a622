package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acca-opf/internal/opf"
)

func TestSampleShapeAndDeterminism(t *testing.T) {
	cfg := Config{
		SigmaMW:     []float64{10, 5},
		Correlation: 0.4,
		LowerMW:     []float64{-40, -20},
		UpperMW:     []float64{40, 20},
	}

	a, err := Sample(25, cfg, 42)
	require.NoError(t, err)
	require.Len(t, a, 25)
	for _, row := range a {
		require.Len(t, row, 2)
	}

	b, err := Sample(25, cfg, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Sample(25, cfg, 43)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestSampleTruncation(t *testing.T) {
	// Tight bounds relative to sigma force frequent clipping; every sample
	// must stay inside.
	cfg := Config{
		SigmaMW: []float64{50},
		LowerMW: []float64{-5},
		UpperMW: []float64{10},
	}
	rows, err := Sample(200, cfg, 7)
	require.NoError(t, err)
	for _, row := range rows {
		assert.GreaterOrEqual(t, row[0], -5.0)
		assert.LessOrEqual(t, row[0], 10.0)
	}
}

func TestSampleValidation(t *testing.T) {
	_, err := Sample(10, Config{}, 1)
	assert.Error(t, err)

	_, err = Sample(0, Config{SigmaMW: []float64{1}}, 1)
	assert.Error(t, err)

	_, err = Sample(10, Config{SigmaMW: []float64{1}, Correlation: 1}, 1)
	assert.Error(t, err)

	_, err = Sample(10, Config{SigmaMW: []float64{0}}, 1)
	assert.Error(t, err)
}

func TestForCaseBounds(t *testing.T) {
	c := &opf.Case{
		Wind: []opf.WindFarm{
			{Bus: 1, ForecastMW: 40, CapacityMW: 80, SigmaMW: 12},
			{Bus: 2, ForecastMW: 10, CapacityMW: 50, SigmaMW: 6},
		},
	}
	cfg := ForCase(c, 0.3)
	assert.Equal(t, []float64{12, 6}, cfg.SigmaMW)
	assert.Equal(t, []float64{-40, -10}, cfg.LowerMW)
	assert.Equal(t, []float64{40, 40}, cfg.UpperMW)
	assert.Equal(t, 0.3, cfg.Correlation)
}
