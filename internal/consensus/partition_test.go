package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{float64(i)}
	}
	return out
}

func TestPartitionEvenShares(t *testing.T) {
	parts, err := Partition(rows(10), 2, 4)
	require.NoError(t, err)
	require.Len(t, parts, 4)

	total := 0
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 5)
		assert.NotEmpty(t, p)
		total += len(p)
	}
	assert.Equal(t, 20, total)
}

func TestPartitionRebalancesShortTail(t *testing.T) {
	// ceil(9/4) = 3 leaves only three contiguous chunks; the split pass must
	// still hand every agent a non-empty share.
	parts, err := Partition(rows(9), 1, 4)
	require.NoError(t, err)
	require.Len(t, parts, 4)

	total := 0
	seen := map[string]bool{}
	for _, p := range parts {
		require.NotEmpty(t, p)
		total += len(p)
		for _, d := range p {
			require.False(t, seen[d.Key()], "delta assigned twice")
			seen[d.Key()] = true
		}
	}
	assert.Equal(t, 9, total)
}

func TestPartitionSingleAgentTakesAll(t *testing.T) {
	parts, err := Partition(rows(5), 3, 1)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Len(t, parts[0], 15)
}

func TestPartitionRejectsTooManyAgents(t *testing.T) {
	_, err := Partition(rows(2), 2, 5)
	require.Error(t, err)
	var cfg *ConfigurationError
	assert.ErrorAs(t, err, &cfg)

	_, err = Partition(rows(2), 0, 1)
	assert.Error(t, err)

	_, err = Partition(rows(2), 1, 0)
	assert.Error(t, err)
}
