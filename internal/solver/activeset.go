package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"acca-opf/internal/model"
)

// ActiveSet is the default solver: a dense primal active-set method for
// strictly convex quadratic programs with linear constraints. A phase-1
// elastic LP (simplex) finds a feasible start or certifies infeasibility.
//
// The objective must be a *model.Quadratic with positive definite P
// (the consensus subproblems guarantee this via their proximal term).
// Quadratic and PSD-cone constraints are not handled here; plug a custom
// Interface for those.
type ActiveSet struct {
	// MaxIter bounds working-set changes. Default 200.
	MaxIter int
	// FeasTol is the feasibility tolerance. Default 1e-8.
	FeasTol float64
}

func NewActiveSet() *ActiveSet {
	return &ActiveSet{MaxIter: 200, FeasTol: 1e-8}
}

type linrow struct {
	a []float64
	b float64
}

func (s *ActiveSet) Solve(ctx context.Context, p Problem) (*Solution, error) {
	quad, ok := p.Objective.(*model.Quadratic)
	if !ok {
		return nil, errors.New("active-set solver requires a quadratic objective")
	}
	n := quad.Dim()
	if n == 0 {
		return nil, errors.New("objective has zero dimension")
	}
	maxIter := s.MaxIter
	if maxIter <= 0 {
		maxIter = 200
	}
	feasTol := s.FeasTol
	if feasTol <= 0 {
		feasTol = 1e-8
	}

	ineq, eq, err := normalize(p.Constraints, n)
	if err != nil {
		return nil, err
	}

	x, err := s.startingPoint(quad, ineq, eq, n, feasTol)
	if err != nil {
		return nil, err
	}

	// Working set holds indices into ineq; equalities are always enforced.
	working := make([]int, 0, len(ineq))
	inWorking := make([]bool, len(ineq))

	for it := 0; it < maxIter; it++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		xStar, lam, err := solveKKT(quad, eq, ineq, working, n)
		if err != nil {
			return nil, fmt.Errorf("KKT system: %w", err)
		}

		step := make([]float64, n)
		pNorm := 0.0
		for i := range step {
			step[i] = xStar[i] - x[i]
			if a := math.Abs(step[i]); a > pNorm {
				pNorm = a
			}
		}

		if pNorm <= feasTol {
			// Stationary on the working set: check multipliers of the
			// inequality rows (they follow the equality rows in lam).
			minLam := 0.0
			minAt := -1
			for wi := range working {
				l := lam[len(eq)+wi]
				if l < minLam {
					minLam = l
					minAt = wi
				}
			}
			if minAt < 0 || minLam >= -feasTol {
				return &Solution{
					X:          x,
					Obj:        quad.Value(x),
					Iterations: it + 1,
					Info:       fmt.Sprintf("optimal: %d working-set changes, %d active", it+1, len(working)),
				}, nil
			}
			inWorking[working[minAt]] = false
			working = append(working[:minAt], working[minAt+1:]...)
			continue
		}

		// Ratio test against inequalities outside the working set.
		alpha := 1.0
		block := -1
		for i, row := range ineq {
			if inWorking[i] {
				continue
			}
			gp := dotf(row.a, step)
			if gp <= feasTol {
				continue
			}
			slack := row.b - dotf(row.a, x)
			a := slack / gp
			if a < alpha {
				alpha = a
				block = i
			}
		}
		if alpha < 0 {
			alpha = 0
		}
		for i := range x {
			x[i] += alpha * step[i]
		}
		if block >= 0 && alpha < 1 {
			working = append(working, block)
			inWorking[block] = true
		}
	}
	return nil, fmt.Errorf("active-set iteration limit (%d) reached", maxIter)
}

// normalize splits linear constraints into <= rows and equality rows,
// flipping >= rows and dropping exact duplicates.
func normalize(cons []model.Constraint, n int) (ineq, eq []linrow, err error) {
	seen := map[string]struct{}{}
	for _, c := range cons {
		if c.Kind != model.KindLinear {
			return nil, nil, fmt.Errorf("active-set solver supports linear constraints only (got kind %d)", c.Kind)
		}
		if len(c.A) != n {
			return nil, nil, fmt.Errorf("constraint dimension %d does not match decision dimension %d", len(c.A), n)
		}
		row := linrow{a: append([]float64(nil), c.A...), b: c.B}
		sense := c.Sense
		if sense == model.GreaterEq {
			for i := range row.a {
				row.a[i] = -row.a[i]
			}
			row.b = -row.b
			sense = model.LessEq
		}
		key := rowKey(row, sense == model.Eq)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if sense == model.Eq {
			eq = append(eq, row)
		} else {
			ineq = append(ineq, row)
		}
	}
	return ineq, eq, nil
}

func rowKey(r linrow, isEq bool) string {
	key := make([]byte, 0, 8*(len(r.a)+1)+1)
	if isEq {
		key = append(key, 'e')
	} else {
		key = append(key, 'i')
	}
	for _, v := range append(r.a, r.b) {
		bits := math.Float64bits(v)
		for s := 0; s < 64; s += 8 {
			key = append(key, byte(bits>>s))
		}
	}
	return string(key)
}

// startingPoint returns a feasible point, trying cheap candidates before
// the phase-1 LP.
func (s *ActiveSet) startingPoint(quad *model.Quadratic, ineq, eq []linrow, n int, feasTol float64) ([]float64, error) {
	if x := make([]float64, n); feasible(x, ineq, eq, feasTol) {
		return x, nil
	}
	if x, err := unconstrainedMin(quad, n); err == nil && feasible(x, ineq, eq, feasTol) {
		return x, nil
	}
	return phase1(ineq, eq, n, feasTol)
}

func feasible(x []float64, ineq, eq []linrow, tol float64) bool {
	for _, r := range ineq {
		if dotf(r.a, x)-r.b > tol {
			return false
		}
	}
	for _, r := range eq {
		if math.Abs(dotf(r.a, x)-r.b) > tol {
			return false
		}
	}
	return true
}

func unconstrainedMin(quad *model.Quadratic, n int) ([]float64, error) {
	if quad.P == nil {
		return nil, errors.New("no curvature")
	}
	rhs := make([]float64, n)
	if quad.Q != nil {
		for i := range rhs {
			rhs[i] = -quad.Q[i]
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(quad.P); !ok {
		return nil, errors.New("objective Hessian is not positive definite")
	}
	out := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(out, mat.NewVecDense(n, rhs)); err != nil {
		return nil, err
	}
	return out.RawVector().Data, nil
}

// phase1 minimizes a single elastic slack s over G x - s <= h, s >= 0.
// The optimum is zero exactly when the inequalities admit a point; a
// positive optimum is the smallest achievable worst-case violation.
func phase1(ineq, eq []linrow, n int, feasTol float64) ([]float64, error) {
	nv := n + 1
	c := make([]float64, nv)
	c[n] = 1

	gRows := len(ineq) + 1
	g := mat.NewDense(gRows, nv, nil)
	h := make([]float64, gRows)
	for i, r := range ineq {
		for j, v := range r.a {
			g.Set(i, j, v)
		}
		g.Set(i, n, -1)
		h[i] = r.b
	}
	g.Set(gRows-1, n, -1) // -s <= 0

	var aeq mat.Matrix
	var beq []float64
	if len(eq) > 0 {
		am := mat.NewDense(len(eq), nv, nil)
		beq = make([]float64, len(eq))
		for i, r := range eq {
			for j, v := range r.a {
				am.Set(i, j, v)
			}
			beq[i] = r.b
		}
		aeq = am
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, aeq, beq)
	opt, xStd, err := lp.Simplex(cStd, aStd, bStd, 1e-10, nil)
	if err != nil {
		return nil, &InfeasibleError{MaxViolation: math.Inf(1)}
	}
	if opt > feasTol {
		return nil, &InfeasibleError{MaxViolation: opt}
	}
	// Convert splits each free variable into a positive and negative part:
	// x[i] = xStd[i] - xStd[nv+i].
	x := make([]float64, n)
	for i := range x {
		x[i] = xStd[i] - xStd[nv+i]
	}
	return x, nil
}

// solveKKT solves the equality-constrained QP over the current working set
// and returns its minimizer with the constraint multipliers.
func solveKKT(quad *model.Quadratic, eq, ineq []linrow, working []int, n int) (xStar, lam []float64, err error) {
	m := len(eq) + len(working)
	dim := n + m
	k := mat.NewDense(dim, dim, nil)
	rhs := mat.NewVecDense(dim, nil)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if quad.P != nil {
				k.Set(i, j, quad.P.At(i, j))
			}
		}
		if quad.Q != nil {
			rhs.SetVec(i, -quad.Q[i])
		}
	}
	row := n
	addRow := func(r linrow) {
		for j, v := range r.a {
			k.Set(row, j, v)
			k.Set(j, row, v)
		}
		rhs.SetVec(row, r.b)
		row++
	}
	for _, r := range eq {
		addRow(r)
	}
	for _, wi := range working {
		addRow(ineq[wi])
	}

	sol := mat.NewVecDense(dim, nil)
	if err := sol.SolveVec(k, rhs); err != nil {
		return nil, nil, fmt.Errorf("singular system (%d active rows): %w", m, err)
	}
	xStar = make([]float64, n)
	lam = make([]float64, m)
	for i := 0; i < n; i++ {
		xStar[i] = sol.AtVec(i)
	}
	for i := 0; i < m; i++ {
		lam[i] = sol.AtVec(n + i)
	}
	return xStar, lam, nil
}

func dotf(a, x []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * x[i]
	}
	return s
}
