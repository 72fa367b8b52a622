package opf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PTDF returns the L x N matrix of power-transfer distribution factors for
// the DC approximation: row l maps nodal injections to the MW flow on line
// l. Bus 0 is the angle reference; its column is zero.
func PTDF(c *Case) (*mat.Dense, error) {
	n := len(c.Buses)
	nl := len(c.Lines)

	// Nodal susceptance matrix, reference row/column removed.
	br := mat.NewDense(n-1, n-1, nil)
	add := func(i, j int, v float64) {
		if i == 0 || j == 0 {
			return
		}
		br.Set(i-1, j-1, br.At(i-1, j-1)+v)
	}
	for _, l := range c.Lines {
		b := l.SusceptancePU
		add(l.From, l.From, b)
		add(l.To, l.To, b)
		add(l.From, l.To, -b)
		add(l.To, l.From, -b)
	}

	// Branch susceptance incidence, reference column removed.
	bf := mat.NewDense(nl, n-1, nil)
	for li, l := range c.Lines {
		if l.From != 0 {
			bf.Set(li, l.From-1, bf.At(li, l.From-1)+l.SusceptancePU)
		}
		if l.To != 0 {
			bf.Set(li, l.To-1, bf.At(li, l.To-1)-l.SusceptancePU)
		}
	}

	// PTDF_reduced = Bf * Br^-1, computed as the solution of
	// Br * X = Bf' (Br is symmetric).
	var sol mat.Dense
	if err := sol.Solve(br, bf.T()); err != nil {
		return nil, fmt.Errorf("reduced susceptance matrix is singular (islanded network?): %w", err)
	}

	out := mat.NewDense(nl, n, nil)
	for li := 0; li < nl; li++ {
		for bi := 1; bi < n; bi++ {
			out.Set(li, bi, sol.At(bi-1, li))
		}
	}
	return out, nil
}
