package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"acca-opf/internal/consensus"
)

// WriteHistoryCSV writes the full per-agent iteration history, one row per
// (round, agent). This is the primary artifact for "what happened" in a
// consensus run.
func WriteHistoryCSV(path string, res *consensus.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"round",
		"agent",
		"objective",
		"active_deltas",
		"stagnant",
		"elapsed_s",
		"x",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, a := range res.Agents {
		prevObj := a.Iterations[0].Obj
		stagnant := 0
		for round, it := range a.Iterations {
			if round > 0 {
				if diff := it.Obj - prevObj; diff <= consensus.DefaultObjTol && diff >= -consensus.DefaultObjTol {
					stagnant++
				} else {
					stagnant = 1
				}
				prevObj = it.Obj
			}
			row := []string{
				strconv.Itoa(round),
				strconv.Itoa(a.ID),
				fmtFloat(it.Obj),
				strconv.Itoa(len(it.Active)),
				strconv.Itoa(stagnant),
				fmtFloat(it.Elapsed.Seconds()),
				fmtVector(it.X),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func fmtVector(x []float64) string {
	out := ""
	for i, v := range x {
		if i > 0 {
			out += ";"
		}
		out += strconv.FormatFloat(v, 'g', 10, 64)
	}
	return out
}
