package handlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"acca-opf/internal/api/models"
	"acca-opf/internal/consensus"
)

// GraphHandler generates connectivity graphs for inspection.
type GraphHandler struct{}

func NewGraphHandler() *GraphHandler { return &GraphHandler{} }

// Generate handles POST /api/v1/graph
func (h *GraphHandler) Generate(c *gin.Context) {
	var req models.GraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	diameter := req.Diameter
	if diameter == 0 {
		diameter = 3
	}
	rng := seededRand(req.Seed)
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g, err := consensus.RandomConnected(req.Agents, diameter, rng)
	if err != nil {
		badRequest(c, "CONFIG_ERROR", err)
		return
	}

	adj := g.Adjacency()
	rows := make([][]int, len(adj))
	for i, row := range adj {
		rows[i] = make([]int, len(row))
		for j, on := range row {
			if on {
				rows[i][j] = 1
			}
		}
	}
	c.JSON(http.StatusOK, models.GraphResponse{
		Agents:    g.Size(),
		Diameter:  g.Diameter(),
		Threshold: 2*g.Diameter() + 1,
		Adjacency: rows,
	})
}

func seededRand(seed int64) *rand.Rand {
	if seed == 0 {
		return nil // let the run default to a time-based source
	}
	return rand.New(rand.NewSource(seed))
}
