package model

import (
	"gonum.org/v1/gonum/mat"
)

// Objective is a convex objective over the decision vector.
type Objective interface {
	// Value evaluates f(x).
	Value(x []float64) float64
	// Grad returns the gradient of f at x as a fresh slice.
	Grad(x []float64) []float64
	// Dim is the decision-vector dimension.
	Dim() int
}

// Quadratic is (1/2) x'P x + q·x + c with P symmetric positive semidefinite.
type Quadratic struct {
	P *mat.SymDense
	Q []float64
	C float64
}

// NewQuadraticObjective builds the objective; p may be nil for a linear
// objective and q may be nil for a pure quadratic one.
func NewQuadraticObjective(p *mat.SymDense, q []float64, c float64) *Quadratic {
	return &Quadratic{P: p, Q: q, C: c}
}

func (f *Quadratic) Dim() int {
	if f.P != nil {
		return f.P.SymmetricDim()
	}
	return len(f.Q)
}

func (f *Quadratic) Value(x []float64) float64 {
	v := f.C
	if f.Q != nil {
		v += dot(f.Q, x)
	}
	if f.P != nil {
		xv := mat.NewVecDense(len(x), x)
		tmp := mat.NewVecDense(len(x), nil)
		tmp.MulVec(f.P, xv)
		v += 0.5 * mat.Dot(xv, tmp)
	}
	return v
}

func (f *Quadratic) Grad(x []float64) []float64 {
	g := make([]float64, len(x))
	if f.Q != nil {
		copy(g, f.Q)
	}
	if f.P != nil {
		xv := mat.NewVecDense(len(x), x)
		tmp := mat.NewVecDense(len(x), nil)
		tmp.MulVec(f.P, xv)
		for i := range g {
			g[i] += tmp.AtVec(i)
		}
	}
	return g
}
