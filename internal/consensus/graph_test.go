package consensus

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ring(m int) [][]bool {
	adj := make([][]bool, m)
	for i := range adj {
		adj[i] = make([]bool, m)
	}
	for i := 0; i < m; i++ {
		j := (i + 1) % m
		adj[i][j] = true
		adj[j][i] = true
	}
	return adj
}

func complete(m int) [][]bool {
	adj := make([][]bool, m)
	for i := range adj {
		adj[i] = make([]bool, m)
		for j := range adj[i] {
			adj[i][j] = i != j
		}
	}
	return adj
}

func TestNewGraphRejectsBadMatrices(t *testing.T) {
	_, err := NewGraph(nil)
	assert.Error(t, err)

	_, err = NewGraph([][]bool{{false, true}, {true}})
	assert.Error(t, err)

	// One-way edge only: not strongly connected.
	_, err = NewGraph([][]bool{{false, true}, {false, false}})
	require.Error(t, err)
	var cfg *ConfigurationError
	assert.ErrorAs(t, err, &cfg)
}

func TestGraphDiameterAndNeighbors(t *testing.T) {
	g, err := NewGraph(ring(4))
	require.NoError(t, err)
	assert.Equal(t, 4, g.Size())
	assert.Equal(t, 2, g.Diameter())
	assert.ElementsMatch(t, []int{1, 3}, g.InNeighbors(0))
	assert.Equal(t, 2, g.InDegree(0))

	k3, err := NewGraph(complete(3))
	require.NoError(t, err)
	assert.Equal(t, 1, k3.Diameter())

	single, err := NewGraph([][]bool{{false}})
	require.NoError(t, err)
	assert.Equal(t, 0, single.Diameter())
	assert.Empty(t, single.InNeighbors(0))
}

func TestGraphAdjacencyIsACopy(t *testing.T) {
	g, err := NewGraph(ring(3))
	require.NoError(t, err)
	adj := g.Adjacency()
	adj[0][1] = false
	assert.True(t, g.Adjacency()[0][1])
}

func TestRandomConnectedHonorsDiameterBound(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g, err := RandomConnected(8, 2, rng)
	require.NoError(t, err)
	assert.Equal(t, 8, g.Size())
	assert.LessOrEqual(t, g.Diameter(), 2)

	one, err := RandomConnected(1, 3, rng)
	require.NoError(t, err)
	assert.Equal(t, 0, one.Diameter())

	_, err = RandomConnected(0, 3, rng)
	assert.Error(t, err)
}
