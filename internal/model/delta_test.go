package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeltaKeyAndEqual(t *testing.T) {
	a := Delta{ConstraintID: 1, Data: []float64{1.5, -2.25}}
	b := Delta{ConstraintID: 1, Data: []float64{1.5, -2.25}}
	c := Delta{ConstraintID: 2, Data: []float64{1.5, -2.25}}
	d := Delta{ConstraintID: 1, Data: []float64{1.5}}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.False(t, a.Equal(c))
	assert.NotEqual(t, a.Key(), c.Key())
	assert.False(t, a.Equal(d))
}

func TestDedupPreservesFirstSeenOrder(t *testing.T) {
	in := []Delta{
		{ConstraintID: 0, Data: []float64{1}},
		{ConstraintID: 1, Data: []float64{1}},
		{ConstraintID: 0, Data: []float64{1}},
		{ConstraintID: 0, Data: []float64{2}},
		{ConstraintID: 1, Data: []float64{1}},
	}
	out := Dedup(in)
	require.Len(t, out, 3)
	assert.True(t, out[0].Equal(in[0]))
	assert.True(t, out[1].Equal(in[1]))
	assert.True(t, out[2].Equal(in[3]))
}

func TestExpandTagsEveryFamily(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}}
	out := Expand(rows, 2)
	require.Len(t, out, 6)

	families := map[int]int{}
	for _, d := range out {
		families[d.ConstraintID]++
	}
	assert.Equal(t, map[int]int{0: 3, 1: 3}, families)
}
