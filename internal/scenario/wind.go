package scenario

import (
	"errors"
	"fmt"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"acca-opf/internal/opf"
)

// Config describes the wind forecast-error model: per-farm standard
// deviations (MW), a uniform pairwise correlation, and truncation bounds
// keeping each deviation inside the farm's physical range.
type Config struct {
	SigmaMW     []float64
	Correlation float64
	LowerMW     []float64
	UpperMW     []float64
}

// ForCase derives the sampling model from a case's wind farms.
func ForCase(c *opf.Case, correlation float64) Config {
	cfg := Config{Correlation: correlation}
	for _, w := range c.Wind {
		cfg.SigmaMW = append(cfg.SigmaMW, w.SigmaMW)
		cfg.LowerMW = append(cfg.LowerMW, -w.ForecastMW)
		cfg.UpperMW = append(cfg.UpperMW, w.CapacityMW-w.ForecastMW)
	}
	return cfg
}

// Sample draws n correlated deviation rows. Samples are deterministic for
// a fixed seed.
func Sample(n int, cfg Config, seed uint64) ([][]float64, error) {
	nf := len(cfg.SigmaMW)
	if nf == 0 {
		return nil, errors.New("no wind farms to sample")
	}
	if n < 1 {
		return nil, fmt.Errorf("scenario count must be positive, got %d", n)
	}
	if cfg.Correlation < 0 || cfg.Correlation >= 1 {
		return nil, fmt.Errorf("correlation must be in [0,1), got %g", cfg.Correlation)
	}
	for i, s := range cfg.SigmaMW {
		if s <= 0 {
			return nil, fmt.Errorf("wind farm %d sigma must be > 0 to sample, got %g", i, s)
		}
	}

	cov := mat.NewSymDense(nf, nil)
	for i := 0; i < nf; i++ {
		for j := i; j < nf; j++ {
			v := cfg.SigmaMW[i] * cfg.SigmaMW[j]
			if i != j {
				v *= cfg.Correlation
			}
			cov.SetSym(i, j, v)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return nil, errors.New("wind covariance is not positive definite")
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: exprand.NewSource(seed)}
	out := make([][]float64, n)
	z := make([]float64, nf)
	for s := 0; s < n; s++ {
		for i := range z {
			z[i] = norm.Rand()
		}
		row := make([]float64, nf)
		for i := 0; i < nf; i++ {
			v := 0.0
			for j := 0; j <= i; j++ {
				v += lower.At(i, j) * z[j]
			}
			if len(cfg.LowerMW) == nf && v < cfg.LowerMW[i] {
				v = cfg.LowerMW[i]
			}
			if len(cfg.UpperMW) == nf && v > cfg.UpperMW[i] {
				v = cfg.UpperMW[i]
			}
			row[i] = v
		}
		out[s] = row
	}
	return out, nil
}
