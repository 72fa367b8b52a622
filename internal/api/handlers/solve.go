package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"acca-opf/internal/analysis"
	"acca-opf/internal/api/models"
	"acca-opf/internal/consensus"
	"acca-opf/internal/opf"
	"acca-opf/internal/scenario"
)

var (
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accaopf_solves_total",
		Help: "Consensus solve requests by outcome.",
	}, []string{"status"})

	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accaopf_solve_duration_seconds",
		Help:    "Wall-clock duration of consensus solves.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	solveRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accaopf_solve_rounds",
		Help:    "Rounds needed per consensus solve.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

// SolveHandler runs consensus OPF solves.
type SolveHandler struct{}

func NewSolveHandler() *SolveHandler { return &SolveHandler{} }

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	if err := req.Case.Validate(); err != nil {
		badRequest(c, "INVALID_CASE", err)
		return
	}

	rows := req.Scenarios.Rows
	if len(rows) == 0 {
		count := req.Scenarios.Count
		if count == 0 {
			count = 100
		}
		seed := req.Scenarios.Seed
		if seed == 0 {
			seed = 1
		}
		var err error
		rows, err = scenario.Sample(count, scenario.ForCase(&req.Case, req.Scenarios.Correlation), seed)
		if err != nil {
			badRequest(c, "INVALID_SCENARIOS", err)
			return
		}
	}

	builder, err := opf.NewBuilder(&req.Case)
	if err != nil {
		badRequest(c, "INVALID_CASE", err)
		return
	}

	x0, err := builder.InitialDispatch()
	if err != nil {
		badRequest(c, "INVALID_CASE", err)
		return
	}

	opts := consensus.Options{
		X0:        x0,
		NumAgents: req.Options.Agents,
		Diameter:  req.Options.Diameter,
		MaxRounds: req.Options.MaxRounds,
		Debug:     req.Options.Debug,
	}
	if req.Options.Seed != 0 {
		opts.Rand = seededRand(req.Options.Seed)
	}

	start := time.Now()
	res, err := consensus.Solve(c.Request.Context(), builder.Problem(), rows, opts)
	solveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var cfgErr *consensus.ConfigurationError
		var solErr *consensus.SolverError
		switch {
		case errors.As(err, &cfgErr):
			solvesTotal.WithLabelValues("config_error").Inc()
			badRequest(c, "CONFIG_ERROR", err)
		case errors.As(err, &solErr):
			solvesTotal.WithLabelValues("solver_error").Inc()
			c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "SOLVER_ERROR",
					Message: err.Error(),
					Details: map[string]interface{}{
						"round": solErr.Round,
						"agent": solErr.Agent,
					},
				},
			})
		default:
			solvesTotal.WithLabelValues("error").Inc()
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()},
			})
		}
		return
	}
	solveRounds.Observe(float64(res.Rounds))

	status := "converged"
	if !res.Converged {
		status = "max_rounds"
	}
	solvesTotal.WithLabelValues(status).Inc()

	dispatch, err := analysis.RankDispatch(&req.Case, res.X)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()},
		})
		return
	}

	resp := models.SolveResponse{
		ID:        uuid.NewString(),
		Status:    status,
		XStar:     res.X,
		Objective: res.Obj,
		Rounds:    res.Rounds,
		Diameter:  res.Graph.Diameter(),
		Agents:    res.Graph.Size(),
	}
	for _, w := range res.Warnings {
		resp.Warnings = append(resp.Warnings, w.String())
	}
	for _, d := range dispatch {
		resp.Dispatch = append(resp.Dispatch, models.DispatchRow{
			Gen:          d.Gen,
			Bus:          d.Bus,
			MW:           d.MW,
			MarginalCost: d.MarginalCost,
			Utilization:  d.Utilization,
		})
	}
	if req.Options.IncludeHistory {
		for _, a := range res.Agents {
			for round, it := range a.Iterations {
				resp.History = append(resp.History, models.HistoryRow{
					Round:        round,
					Agent:        a.ID,
					Objective:    it.Obj,
					ActiveDeltas: len(it.Active),
					Elapsed:      it.Elapsed,
				})
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{Code: code, Message: err.Error()},
	})
}
