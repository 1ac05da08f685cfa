package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/parlayiq/picks-engine/internal/mlmodels"
	"github.com/parlayiq/picks-engine/internal/models"
	"github.com/parlayiq/picks-engine/pkg/config"
)

type fakeData struct {
	player      *models.Player
	stats       []models.PlayerGameStat
	history     []models.HistoricalGame
	findCalls   int
	lastStatsID string
}

func (f *fakeData) FindPlayer(ctx context.Context, name, team, sport string) (*models.Player, error) {
	f.findCalls++
	return f.player, nil
}

func (f *fakeData) RecentPlayerStats(ctx context.Context, playerID string, n int) []models.PlayerGameStat {
	f.lastStatsID = playerID
	return f.stats
}

func (f *fakeData) TeamHistory(ctx context.Context, team, sport string, n int) []models.HistoricalGame {
	return f.history
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRegistry(t *testing.T) *mlmodels.Registry {
	t.Helper()
	dir := t.TempDir()
	artifact := `{
		"sport": "MLB", "stat": "hits", "kind": "linear",
		"weights": [1.0, 0.0, 0.0, 0.0, 0.0, 0.0], "intercept": 0.0
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mlb_hits.json"), []byte(artifact), 0o644))

	reg, err := mlmodels.LoadRegistry(dir, quietLogger())
	require.NoError(t, err)
	return reg
}

func testRouter(t *testing.T, data *fakeData) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: "development"}
	handler := NewHandler(data, testRegistry(t), quietLogger(), 10)
	return NewRouter(cfg, handler, quietLogger())
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(1), body["models"])
}

func TestModelsStatus(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodGet, "/api/v2/models/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mlb:hits")
}

func TestPredictPlayerPropUnknownModel(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/player-prop", map[string]interface{}{
		"sport": "NHL", "player_name": "Somebody", "prop_type": "goals", "line": 0.5,
	})
	require.Equal(t, http.StatusNotFound, w.Code)
	// The error names the keys that are actually loaded.
	assert.Contains(t, w.Body.String(), "mlb:hits")
}

func TestPredictPlayerPropValidation(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/player-prop", map[string]interface{}{
		"sport": "MLB",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestPredictPlayerPropColdPlayer(t *testing.T) {
	// No player record at all still produces a prediction off the default
	// feature vector.
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/player-prop", map[string]interface{}{
		"sport": "MLB", "player_name": "Rookie Unknown", "prop_type": "hits", "line": 1.5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data mlmodels.Prediction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, []string{"over", "under"}, body.Data.Recommendation)
	assert.LessOrEqual(t, body.Data.Confidence, 85.0)
}

func TestPredictPlayerPropByID(t *testing.T) {
	hits := make([]models.PlayerGameStat, 5)
	for i := range hits {
		hits[i] = models.PlayerGameStat{Stats: datatypes.JSON(`{"hits": 2.0}`)}
	}
	data := &fakeData{stats: hits}
	router := testRouter(t, data)

	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/player-prop", map[string]interface{}{
		"sport": "MLB", "player_id": "p-123", "prop_type": "hits", "line": 1.5,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// An explicit id goes straight to the stat log.
	assert.Equal(t, 0, data.findCalls)
	assert.Equal(t, "p-123", data.lastStatsID)

	var body struct {
		Data mlmodels.Prediction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 2.0, body.Data.Prediction, 0.001)
	assert.Equal(t, "over", body.Data.Recommendation)
}

func TestPredictPlayerPropNeedsIDOrName(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/player-prop", map[string]interface{}{
		"sport": "MLB", "prop_type": "hits", "line": 1.5,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "player_id or player_name")
}

func TestPredictTotalRequiresBothTeams(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/total", map[string]interface{}{
		"sport": "MLB", "home_team": "Yankees",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictSpreadUnknownModel(t *testing.T) {
	router := testRouter(t, &fakeData{})
	w := doJSON(t, router, http.MethodPost, "/api/v2/predict/spread", map[string]interface{}{
		"sport": "MLB", "home_team": "Yankees", "away_team": "Red Sox", "line": -1.5,
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}
