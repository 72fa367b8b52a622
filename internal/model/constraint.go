package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sense is the direction of a linear constraint.
type Sense int

const (
	// LessEq means a·x <= b.
	LessEq Sense = iota
	// GreaterEq means a·x >= b.
	GreaterEq
	// Eq means a·x == b.
	Eq
)

// Kind tags the constraint variant.
type Kind int

const (
	KindLinear Kind = iota
	KindQuadratic
	KindPSD
)

// Constraint is a deferred-evaluation constraint bound to a candidate value
// at check time. The residual convention is: residual >= 0 means satisfied,
// residual < 0 means violated, |residual| within tolerance means active.
//
// Exactly one variant is populated, selected by Kind:
//   - linear:    A·x (Sense) B, residual per Sense (for Eq, -|A·x - B|)
//   - quadratic: x'P x + Q·x <= R, residual R - x'P x - Q·x
//   - PSD:       M0 + sum_i x_i M_i must be PSD, residual is the
//     smallest eigenvalue of the assembled matrix
type Constraint struct {
	Kind Kind

	// Linear.
	A     []float64
	B     float64
	Sense Sense

	// Quadratic.
	P *mat.SymDense
	Q []float64
	R float64

	// PSD cone: M0 plus one coefficient matrix per decision entry.
	M0 *mat.SymDense
	M  []*mat.SymDense
}

// NewLinear builds a linear constraint a·x (sense) b.
func NewLinear(a []float64, sense Sense, b float64) Constraint {
	return Constraint{Kind: KindLinear, A: a, Sense: sense, B: b}
}

// NewQuadratic builds x'P x + q·x <= r. P may be nil for a pure linear form.
func NewQuadratic(p *mat.SymDense, q []float64, r float64) Constraint {
	return Constraint{Kind: KindQuadratic, P: p, Q: q, R: r}
}

// NewPSD builds the cone constraint M0 + sum_i x_i M[i] PSD.
func NewPSD(m0 *mat.SymDense, m []*mat.SymDense) Constraint {
	return Constraint{Kind: KindPSD, M0: m0, M: m}
}

func dot(a, x []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * x[i]
	}
	return s
}

// Residual evaluates the signed satisfaction margin of the constraint at x.
func (c Constraint) Residual(x []float64) (float64, error) {
	switch c.Kind {
	case KindLinear:
		if len(c.A) != len(x) {
			return 0, fmt.Errorf("linear constraint dimension %d does not match point dimension %d", len(c.A), len(x))
		}
		ax := dot(c.A, x)
		switch c.Sense {
		case LessEq:
			return c.B - ax, nil
		case GreaterEq:
			return ax - c.B, nil
		case Eq:
			r := ax - c.B
			if r < 0 {
				r = -r
			}
			return -r, nil
		}
		return 0, fmt.Errorf("unknown linear sense %d", c.Sense)
	case KindQuadratic:
		if len(c.Q) != len(x) {
			return 0, fmt.Errorf("quadratic constraint dimension %d does not match point dimension %d", len(c.Q), len(x))
		}
		v := dot(c.Q, x)
		if c.P != nil {
			xv := mat.NewVecDense(len(x), x)
			tmp := mat.NewVecDense(len(x), nil)
			tmp.MulVec(c.P, xv)
			v += mat.Dot(xv, tmp)
		}
		return c.R - v, nil
	case KindPSD:
		if c.M0 == nil {
			return 0, errors.New("PSD constraint has no base matrix")
		}
		if len(c.M) != len(x) {
			return 0, fmt.Errorf("PSD constraint has %d coefficient matrices for point dimension %d", len(c.M), len(x))
		}
		n := c.M0.SymmetricDim()
		acc := mat.NewSymDense(n, nil)
		acc.CopySym(c.M0)
		scaled := mat.NewSymDense(n, nil)
		for i, mi := range c.M {
			if mi == nil || x[i] == 0 {
				continue
			}
			scaled.ScaleSym(x[i], mi)
			acc.AddSym(acc, scaled)
		}
		var eig mat.EigenSym
		if ok := eig.Factorize(acc, false); !ok {
			return 0, errors.New("eigendecomposition of PSD constraint matrix failed")
		}
		vals := eig.Values(nil)
		smallest := vals[0]
		for _, v := range vals[1:] {
			if v < smallest {
				smallest = v
			}
		}
		return smallest, nil
	}
	return 0, fmt.Errorf("unknown constraint kind %d", c.Kind)
}

// Satisfied reports whether the residual at x clears -tol.
func (c Constraint) Satisfied(x []float64, tol float64) (bool, error) {
	r, err := c.Residual(x)
	if err != nil {
		return false, err
	}
	return r >= -tol, nil
}
