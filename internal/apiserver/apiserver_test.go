package apiserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jblacketter/qaagent-sub000/internal/apiserver"
	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/pipeline"
)

func newTestServer(t *testing.T) *apiserver.Server {
	t.Helper()
	runsRoot := t.TempDir()
	t.Setenv("QAAGENT_RUNS_DIR", runsRoot)
	cfg := apiserver.DefaultConfig()
	cfg.CacheTTL = time.Millisecond
	return apiserver.New(cfg, nil)
}

func seedRun(t *testing.T, name string) {
	t.Helper()
	runsRoot, err := config.ResolveRunsRoot("")
	require.NoError(t, err)
	target := evidence.Target{Name: name, Path: t.TempDir()}
	_, _, err = pipeline.RunCollectors(context.Background(), runsRoot, config.LogsRoot(runsRoot), target, nil)
	require.NoError(t, err)
}

func TestHandleHealth_ReturnsOK(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleListRuns_RejectsOutOfRangeLimit(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=500", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHandleListRuns_PaginatesResults is spec.md §8 scenario 5: with 3
// runs, limit=2 offset=1 returns exactly one run, the older of the two
// newest, because offset slices into the newest-limit window rather than
// skipping-then-taking across the full list.
func TestHandleListRuns_PaginatesResults(t *testing.T) {
	srv := newTestServer(t)
	seedRun(t, "repo-a")
	seedRun(t, "repo-b")
	seedRun(t, "repo-c")

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Runs   []map[string]any `json:"runs"`
		Total  int              `json:"total"`
		Limit  int              `json:"limit"`
		Offset int              `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 2, body.Limit)
	assert.Equal(t, 1, body.Offset)
	assert.Len(t, body.Runs, 1)
}

func TestHandleGetRun_UnknownRunReturns404(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/runs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListRuns_EmptyRunsRootDegradesGracefully(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs  []map[string]any `json:"runs"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Total)
	assert.Empty(t, body.Runs)
}

func TestRepositoryLifecycle_CreateGetDelete(t *testing.T) {
	srv := newTestServer(t)

	createBody := `{"id":"repo-1","name":"demo","path":"/tmp/demo"}`
	req := httptest.NewRequest(http.MethodPost, "/api/repositories", strings.NewReader(createBody))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/repositories/repo-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/repositories/repo-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/repositories/repo-1", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
