package analysis

import (
	"sort"

	"acca-opf/internal/opf"
)

// RankDispatch sorts a solved dispatch by utilization descending: the units
// pushed hardest against their limits come first, which is where additional
// scenario constraints bite.
func RankDispatch(c *opf.Case, x []float64) ([]opf.GenDispatch, error) {
	out, err := opf.ExtractDispatch(c, x)
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Utilization > out[j].Utilization
	})
	return out, nil
}
