package solver

import (
	"context"
	"fmt"

	"acca-opf/internal/model"
)

// Problem is one convex program handed to a solver.
type Problem struct {
	Objective   model.Objective
	Constraints []model.Constraint
}

// Solution is a successful solve.
type Solution struct {
	X          []float64
	Obj        float64
	Iterations int
	// Info carries solver diagnostics (phase-1 slack, working-set size).
	Info string
}

// Interface is the pluggable convex solve call. Implementations must treat
// infeasibility and internal failures as a non-nil error whose message is a
// human-readable diagnostic.
type Interface interface {
	Solve(ctx context.Context, p Problem) (*Solution, error)
}

// InfeasibleError reports that the constraint set admits no point.
type InfeasibleError struct {
	// MaxViolation is the smallest achievable worst-case constraint
	// violation found by the feasibility phase.
	MaxViolation float64
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("constraint set is infeasible (minimum achievable violation %.6g)", e.MaxViolation)
}
