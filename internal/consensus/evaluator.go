package consensus

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"acca-opf/internal/model"
)

// Evaluator returns the signed feasibility residual of one delta's
// constraint at a candidate point: residual >= 0 satisfied, < 0 violated,
// |residual| within tolerance active. The implementation is picked once per
// run, not per call; all implementations agree in sign for equivalent
// underlying constraints.
type Evaluator interface {
	Residual(x []float64, d model.Delta) (float64, error)
}

// ConstraintBuilder instantiates the symbolic constraint for one delta.
type ConstraintBuilder func(d model.Delta) (model.Constraint, error)

// BuildEvaluator is the build-and-check strategy: construct the constraint
// object for the delta and evaluate it at x. Results are memoized per
// (x, delta) key; the coordinator clears the memo at every round boundary.
type BuildEvaluator struct {
	build ConstraintBuilder

	mu   sync.Mutex
	memo map[string]float64
}

func NewBuildEvaluator(build ConstraintBuilder) *BuildEvaluator {
	return &BuildEvaluator{build: build, memo: make(map[string]float64)}
}

func (e *BuildEvaluator) Residual(x []float64, d model.Delta) (float64, error) {
	key := pointKey(x) + "#" + d.Key()
	e.mu.Lock()
	if r, ok := e.memo[key]; ok {
		e.mu.Unlock()
		return r, nil
	}
	e.mu.Unlock()

	c, err := e.build(d)
	if err != nil {
		return 0, fmt.Errorf("build constraint for family %d: %w", d.ConstraintID, err)
	}
	r, err := c.Residual(x)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	e.memo[key] = r
	e.mu.Unlock()
	return r, nil
}

// Reset drops the memo. Called once per round: the same delta is checked
// against at most a handful of points within a round, and points change
// every round.
func (e *BuildEvaluator) Reset() {
	e.mu.Lock()
	e.memo = make(map[string]float64)
	e.mu.Unlock()
}

func pointKey(x []float64) string {
	var b strings.Builder
	for _, v := range x {
		b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
		b.WriteByte(',')
	}
	return b.String()
}

// SelectorFunc is the residual-function-with-selector calling convention:
// h(x, data, constraintID) -> residual.
type SelectorFunc func(x, data []float64, constraintID int) float64

type selectorEvaluator struct{ fn SelectorFunc }

func NewSelectorEvaluator(fn SelectorFunc) Evaluator {
	return selectorEvaluator{fn: fn}
}

func (e selectorEvaluator) Residual(x []float64, d model.Delta) (float64, error) {
	return e.fn(x, d.Data, d.ConstraintID), nil
}

// VectorFunc is the residual-function-without-selector convention:
// h(x, data) -> residual vector indexed by constraint family.
type VectorFunc func(x, data []float64) []float64

type vectorEvaluator struct{ fn VectorFunc }

func NewVectorEvaluator(fn VectorFunc) Evaluator {
	return vectorEvaluator{fn: fn}
}

func (e vectorEvaluator) Residual(x []float64, d model.Delta) (float64, error) {
	rs := e.fn(x, d.Data)
	if d.ConstraintID < 0 || d.ConstraintID >= len(rs) {
		return 0, fmt.Errorf("residual vector has %d entries, constraint family %d out of range", len(rs), d.ConstraintID)
	}
	return rs[d.ConstraintID], nil
}
