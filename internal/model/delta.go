package model

import (
	"math"
	"strconv"
	"strings"
)

// Delta is one realization of uncertain scenario data, tagged with the
// constraint family it instantiates. ConstraintID indexes the problem's
// constraint families; Data holds the uncertain parameter realizations.
// Deltas are immutable once generated; uniqueness is by exact row match.
type Delta struct {
	ConstraintID int
	Data         []float64
}

// Key returns a map key identifying this delta by exact row match.
// Float bits are compared exactly, so two deltas built from the same
// scenario row always collapse to one entry.
func (d Delta) Key() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(d.ConstraintID))
	for _, v := range d.Data {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
	}
	return b.String()
}

// Equal reports exact row equality, including the constraint family tag.
func (d Delta) Equal(o Delta) bool {
	if d.ConstraintID != o.ConstraintID || len(d.Data) != len(o.Data) {
		return false
	}
	for i := range d.Data {
		if math.Float64bits(d.Data[i]) != math.Float64bits(o.Data[i]) {
			return false
		}
	}
	return true
}

// Dedup returns the deltas with duplicate rows removed, preserving the
// order in which each row first appears.
func Dedup(deltas []Delta) []Delta {
	seen := make(map[string]struct{}, len(deltas))
	out := make([]Delta, 0, len(deltas))
	for _, d := range deltas {
		k := d.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Expand tags every scenario row with each of the nFamilies constraint
// family identifiers (Cartesian expansion): one physical scenario may
// instantiate several distinct constraint families.
func Expand(rows [][]float64, nFamilies int) []Delta {
	out := make([]Delta, 0, len(rows)*nFamilies)
	for cid := 0; cid < nFamilies; cid++ {
		for _, row := range rows {
			out = append(out, Delta{ConstraintID: cid, Data: row})
		}
	}
	return out
}
