package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acca-opf/internal/api/models"
	"acca-opf/internal/opf"
)

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/solve", NewSolveHandler().Solve)
	r.POST("/api/v1/graph", NewGraphHandler().Generate)
	return r
}

func post(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func solveCase() opf.Case {
	return opf.Case{
		Name: "api-3bus",
		Buses: []opf.Bus{
			{ID: 0, LoadMW: 0},
			{ID: 1, LoadMW: 120},
			{ID: 2, LoadMW: 80},
		},
		Lines: []opf.Line{
			{From: 0, To: 1, SusceptancePU: 10, LimitMW: 110},
			{From: 1, To: 2, SusceptancePU: 10, LimitMW: 70},
			{From: 0, To: 2, SusceptancePU: 10, LimitMW: 90},
		},
		Generators: []opf.Generator{
			{Bus: 0, MinMW: 0, MaxMW: 180, CostQuad: 0.04, CostLin: 18},
			{Bus: 2, MinMW: 0, MaxMW: 120, CostQuad: 0.08, CostLin: 24},
		},
		Wind: []opf.WindFarm{
			{Bus: 1, ForecastMW: 40, CapacityMW: 80, SigmaMW: 12},
		},
	}
}

func TestSolveEndpoint(t *testing.T) {
	r := testRouter()
	w := post(t, r, "/api/v1/solve", models.SolveRequest{
		Case:      solveCase(),
		Scenarios: models.ScenarioOptions{Count: 20, Seed: 3},
		Options:   models.SolveOptions{Agents: 4, Seed: 5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.SolveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Contains(t, []string{"converged", "max_rounds"}, resp.Status)
	assert.Equal(t, 4, resp.Agents)
	require.Len(t, resp.XStar, 2)
	assert.InDelta(t, 160, resp.XStar[0]+resp.XStar[1], 1e-3)
	assert.Len(t, resp.Dispatch, 2)
	assert.Empty(t, resp.History)
}

func TestSolveEndpointRejectsBadCase(t *testing.T) {
	c := solveCase()
	c.Lines = nil
	w := post(t, testRouter(), "/api/v1/solve", models.SolveRequest{Case: c})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSolveEndpointMapsConfigError(t *testing.T) {
	// 500 agents for 120 deltas: rejected before any round.
	w := post(t, testRouter(), "/api/v1/solve", models.SolveRequest{
		Case:      solveCase(),
		Scenarios: models.ScenarioOptions{Count: 20},
		Options:   models.SolveOptions{Agents: 500},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "CONFIG_ERROR", resp.Error.Code)
}

func TestGraphEndpoint(t *testing.T) {
	w := post(t, testRouter(), "/api/v1/graph", models.GraphRequest{Agents: 6, Diameter: 2, Seed: 1})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GraphResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Agents)
	assert.LessOrEqual(t, resp.Diameter, 2)
	assert.Equal(t, 2*resp.Diameter+1, resp.Threshold)
	require.Len(t, resp.Adjacency, 6)
}
