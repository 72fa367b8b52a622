package opf

import (
	"errors"
	"fmt"
)

// Bus is one network node. Loads are fixed withdrawals.
// Units: MW throughout.
type Bus struct {
	ID     int     `json:"id"`
	LoadMW float64 `json:"load_mw"`
}

// Line is a transmission branch with a DC susceptance and a thermal limit.
// Units:
// - SusceptancePU: per-unit susceptance (1/reactance)
// - LimitMW: thermal flow limit, enforced in both directions
type Line struct {
	From          int     `json:"from"`
	To            int     `json:"to"`
	SusceptancePU float64 `json:"susceptance_pu"`
	LimitMW       float64 `json:"limit_mw"`
}

// Generator is a dispatchable unit with a quadratic cost curve
// cost(p) = CostQuad*p^2 + CostLin*p + CostConst ($/h, p in MW).
type Generator struct {
	Bus       int     `json:"bus"`
	MinMW     float64 `json:"min_mw"`
	MaxMW     float64 `json:"max_mw"`
	CostQuad  float64 `json:"cost_quad"`
	CostLin   float64 `json:"cost_lin"`
	CostConst float64 `json:"cost_const"`
}

// WindFarm is an uncertain injection: ForecastMW is the expected output and
// scenario deltas perturb it within [-ForecastMW, CapacityMW-ForecastMW].
type WindFarm struct {
	Bus        int     `json:"bus"`
	ForecastMW float64 `json:"forecast_mw"`
	CapacityMW float64 `json:"capacity_mw"`
	// SigmaMW is the forecast-error standard deviation.
	SigmaMW float64 `json:"sigma_mw"`
}

// Case bundles one network. Bus IDs must be 0..len(Buses)-1; bus 0 is the
// angle reference.
type Case struct {
	Name       string      `json:"name"`
	Buses      []Bus       `json:"buses"`
	Lines      []Line      `json:"lines"`
	Generators []Generator `json:"generators"`
	Wind       []WindFarm  `json:"wind"`
}

func (c *Case) Validate() error {
	if len(c.Buses) < 2 {
		return errors.New("case needs at least two buses")
	}
	for i, b := range c.Buses {
		if b.ID != i {
			return fmt.Errorf("bus %d has id %d; ids must be 0..n-1 in order", i, b.ID)
		}
		if b.LoadMW < 0 {
			return fmt.Errorf("bus %d has negative load", i)
		}
	}
	if len(c.Lines) == 0 {
		return errors.New("case has no lines")
	}
	n := len(c.Buses)
	for i, l := range c.Lines {
		if l.From < 0 || l.From >= n || l.To < 0 || l.To >= n || l.From == l.To {
			return fmt.Errorf("line %d endpoints (%d,%d) invalid", i, l.From, l.To)
		}
		if l.SusceptancePU <= 0 {
			return fmt.Errorf("line %d susceptance must be > 0", i)
		}
		if l.LimitMW <= 0 {
			return fmt.Errorf("line %d limit must be > 0", i)
		}
	}
	if len(c.Generators) == 0 {
		return errors.New("case has no generators")
	}
	for i, g := range c.Generators {
		if g.Bus < 0 || g.Bus >= n {
			return fmt.Errorf("generator %d at unknown bus %d", i, g.Bus)
		}
		if g.MinMW < 0 || g.MaxMW <= 0 || g.MinMW > g.MaxMW {
			return fmt.Errorf("generator %d limits must satisfy 0 <= min <= max, max > 0", i)
		}
		if g.CostQuad < 0 || g.CostLin < 0 {
			return fmt.Errorf("generator %d cost coefficients must be >= 0", i)
		}
	}
	for i, w := range c.Wind {
		if w.Bus < 0 || w.Bus >= n {
			return fmt.Errorf("wind farm %d at unknown bus %d", i, w.Bus)
		}
		if w.CapacityMW <= 0 || w.ForecastMW < 0 || w.ForecastMW > w.CapacityMW {
			return fmt.Errorf("wind farm %d must satisfy 0 <= forecast <= capacity, capacity > 0", i)
		}
		if w.SigmaMW < 0 {
			return fmt.Errorf("wind farm %d sigma must be >= 0", i)
		}
	}
	return nil
}

// TotalLoadMW sums bus withdrawals.
func (c *Case) TotalLoadMW() float64 {
	s := 0.0
	for _, b := range c.Buses {
		s += b.LoadMW
	}
	return s
}

// TotalWindForecastMW sums expected wind injections.
func (c *Case) TotalWindForecastMW() float64 {
	s := 0.0
	for _, w := range c.Wind {
		s += w.ForecastMW
	}
	return s
}
