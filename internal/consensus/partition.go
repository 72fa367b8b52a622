package consensus

import (
	"acca-opf/internal/model"
)

// Partition expands the scenario rows over the nFamilies constraint
// families and splits the resulting deltas into m contiguous shares of
// near-equal size ceil(N/m); the last share may be smaller. Each share is
// an agent's permanently assigned partition.
func Partition(rows [][]float64, nFamilies, m int) ([][]model.Delta, error) {
	if nFamilies < 1 {
		return nil, configErrorf("need at least one constraint family, got %d", nFamilies)
	}
	if m < 1 {
		return nil, configErrorf("agent count must be positive, got %d", m)
	}
	deltas := model.Expand(rows, nFamilies)
	n := len(deltas)
	if m > n {
		return nil, configErrorf("more agents (%d) than scenarios (%d)", m, n)
	}
	share := (n + m - 1) / m
	out := make([][]model.Delta, 0, m)
	for start := 0; start < n; start += share {
		end := start + share
		if end > n {
			end = n
		}
		out = append(out, deltas[start:end:end])
	}
	// Integer division can leave fewer than m non-empty shares; that would
	// strand agents with no scenarios, which the m > n guard precludes
	// only when share sizes divide evenly. Rebalance by splitting the
	// largest shares.
	for len(out) < m {
		big := 0
		for i := range out {
			if len(out[i]) > len(out[big]) {
				big = i
			}
		}
		half := len(out[big]) / 2
		a, b := out[big][:half:half], out[big][half:]
		out[big] = a
		out = append(out, b)
	}
	return out, nil
}
