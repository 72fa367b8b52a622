package opf

import "fmt"

// GenDispatch is one generator's share of a solved dispatch.
type GenDispatch struct {
	Gen int
	Bus int
	MW  float64
	// MarginalCost is d cost/d p at the dispatched output ($/MWh).
	MarginalCost float64
	// Utilization is MW relative to the unit's range.
	Utilization float64
}

// ExtractDispatch maps a solved decision vector back onto the case's
// generators.
func ExtractDispatch(c *Case, x []float64) ([]GenDispatch, error) {
	if len(x) != len(c.Generators) {
		return nil, fmt.Errorf("decision vector has %d entries for %d generators", len(x), len(c.Generators))
	}
	out := make([]GenDispatch, len(x))
	for g, gen := range c.Generators {
		p := x[g]
		util := 0.0
		if gen.MaxMW > gen.MinMW {
			util = (p - gen.MinMW) / (gen.MaxMW - gen.MinMW)
		}
		out[g] = GenDispatch{
			Gen:          g,
			Bus:          gen.Bus,
			MW:           p,
			MarginalCost: 2*gen.CostQuad*p + gen.CostLin,
			Utilization:  util,
		}
	}
	return out, nil
}
