package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/eddiefleurent/schrute_bucks/internal/config"
	"github.com/eddiefleurent/schrute_bucks/internal/metrics"
	"github.com/eddiefleurent/schrute_bucks/internal/models"
	"github.com/eddiefleurent/schrute_bucks/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, authToken string) *Server {
	t.Helper()
	store, err := storage.NewJSONStorage(filepath.Join(t.TempDir(), "analyses.json"))
	require.NoError(t, err)

	require.NoError(t, store.SaveAnalysis(storage.Analysis{
		Name:       "base",
		CreatedAt:  time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Underlying: "SPY",
		Strategy:   config.StrategyShortPut,
		Start:      "2024-01-02",
		End:        "2024-06-28",
		Stats:      metrics.Metrics{TotalReturnPct: 3.1, TradesCount: 2},
		Trades: []models.TradeRecord{
			{ShortStrike: 93, Contracts: 1, Credit: 0.4, PnL: 20, CloseReason: models.CloseReasonExpired},
			{ShortStrike: 94, Contracts: 1, Credit: 0.5, PnL: -10, CloseReason: models.CloseReasonStopLoss},
		},
		Equity: []storage.EquityPoint{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100000},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 100020},
		},
	}))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewServer(Config{Port: 0, AuthToken: authToken}, store, logger)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, testServer(t, ""), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestListAnalyses(t *testing.T) {
	rec := get(t, testServer(t, ""), "/api/analyses")
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []AnalysisSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "base", summaries[0].Name)
	assert.Equal(t, "short_put", summaries[0].Strategy)
	assert.Equal(t, 2, summaries[0].TradesCount)
}

func TestGetAnalysisAndSubresources(t *testing.T) {
	s := testServer(t, "")

	rec := get(t, s, "/api/analyses/base")
	require.Equal(t, http.StatusOK, rec.Code)
	var a storage.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, "SPY", a.Underlying)

	rec = get(t, s, "/api/analyses/base/trades")
	require.Equal(t, http.StatusOK, rec.Code)
	var trades []models.TradeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trades))
	assert.Len(t, trades, 2)

	rec = get(t, s, "/api/analyses/base/equity")
	require.Equal(t, http.StatusOK, rec.Code)
	var equity []storage.EquityPoint
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &equity))
	assert.Len(t, equity, 2)

	rec = get(t, s, "/api/analyses/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAnalysis(t *testing.T) {
	s := testServer(t, "")

	req := httptest.NewRequest(http.MethodDelete, "/api/analyses/base", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, get(t, s, "/api/analyses/base").Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := testServer(t, "sekrit")

	assert.Equal(t, http.StatusUnauthorized, get(t, s, "/api/analyses").Code)
	assert.Equal(t, http.StatusOK, get(t, s, "/health").Code, "health bypasses auth")

	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	req.Header.Set("X-Auth-Token", "sekrit")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusOK, get(t, s, "/api/analyses?token=sekrit").Code)
}
