package rest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"learninglog-backend/application/services"
	"learninglog-backend/infrastructure/ai"
	"learninglog-backend/infrastructure/observability"
	"learninglog-backend/infrastructure/persistence/sqlite"
	"learninglog-backend/interfaces/graph"
	"learninglog-backend/interfaces/http/rest"
	"learninglog-backend/interfaces/http/rest/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewCollector("test")

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logService := services.NewLogService(db, logger, metrics)

	graphqlHandler, err := graph.NewHandler(graph.NewResolver(logService, logger), logger)
	require.NoError(t, err)

	aiClient := ai.NewClient(ai.Config{}, ai.NewQuota(), logger)
	insights := handlers.NewInsightsHandler(logService, ai.NewService(aiClient, logger, metrics), logger)

	router := rest.NewRouter(graphqlHandler, insights, metrics, db, logger,
		[]string{"http://localhost:3000"})
	return router.Setup()
}

func TestProbes(t *testing.T) {
	srv := newServer(t)

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "status")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGraphQLThroughRouter(t *testing.T) {
	srv := newServer(t)

	body := `{"query":"{ learningLogs(first: 5) { edges { node { id } } pageInfo { hasNextPage } } }"}`
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			LearningLogs struct {
				Edges    []interface{} `json:"edges"`
				PageInfo struct {
					HasNextPage bool `json:"hasNextPage"`
				} `json:"pageInfo"`
			} `json:"learningLogs"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.LearningLogs.Edges)
	assert.False(t, resp.Data.LearningLogs.PageInfo.HasNextPage)
}

func TestSummaryEmptyRange(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No learning activity recorded for this range.", resp["summary"])
}

func TestSummaryInvalidDate(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/summary",
		strings.NewReader(`{"from":"not a date"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid from date", resp["error"])
	assert.Equal(t, "INVALID_DATE", resp["code"])
}

func TestAnalyticsEndpoint(t *testing.T) {
	srv := newServer(t)

	// Seed one entry through the GraphQL endpoint.
	body := `{"query":"mutation { createLearningLog(input: {title: \"x\", reflection: \"y\", tags: [\"go\"], timeSpent: 45}) { log { id } } }"}`
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "errors")

	req = httptest.NewRequest(http.MethodGet, "/api/analytics", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Entries      int `json:"entries"`
		TotalMinutes int `json:"totalMinutes"`
		ByTag        []struct {
			Tag     string `json:"tag"`
			Minutes int    `json:"minutes"`
		} `json:"byTag"`
		Streaks struct {
			Current int `json:"current"`
			Longest int `json:"longest"`
		} `json:"streaks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Entries)
	assert.Equal(t, 45, resp.TotalMinutes)
	require.Len(t, resp.ByTag, 1)
	assert.Equal(t, "go", resp.ByTag[0].Tag)
	assert.Equal(t, 1, resp.Streaks.Current)
	assert.Equal(t, 1, resp.Streaks.Longest)
}

func TestCoachWithoutEntries(t *testing.T) {
	srv := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/coach",
		strings.NewReader(`{"focus":"momentum"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan ai.HabitPlan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, ai.FocusMomentum, plan.Focus)
	assert.Equal(t, "Add a few learning logs to unlock a personalized habit plan.", plan.Message)
}
