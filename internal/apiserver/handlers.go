package apiserver

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jblacketter/qaagent-sub000/internal/config"
	"github.com/jblacketter/qaagent-sub000/internal/evidence"
	"github.com/jblacketter/qaagent-sub000/internal/pipeline"
	"github.com/jblacketter/qaagent-sub000/internal/qaerr"
	"github.com/jblacketter/qaagent-sub000/internal/runmanager"
	"github.com/jblacketter/qaagent-sub000/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type runSummary struct {
	RunID     string          `json:"run_id"`
	CreatedAt string          `json:"created_at"`
	Target    evidence.Target `json:"target"`
	Counts    evidence.Counts `json:"counts"`
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runsRoot, err := config.ResolveRunsRoot("")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ids, err := runmanager.ListRunIDs(runsRoot)
	if err != nil {
		writeError(w, err)
		return
	}
	total := len(ids)

	// The page is offset into the newest-`limit` window, not a
	// conventional skip-then-take: per spec.md §8 scenario 5, with 3
	// runs, limit=2, offset=1 returns exactly one run (the older of the
	// two newest), not the two runs a skip-then-take offset would give.
	windowEnd := limit
	if windowEnd > total {
		windowEnd = total
	}
	start := offset
	if start > windowEnd {
		start = windowEnd
	}
	page := ids[start:windowEnd]

	summaries := make([]runSummary, 0, len(page))
	for _, id := range page {
		handle, err := runmanager.Load(runsRoot, id)
		if err != nil {
			continue
		}
		m := handle.Manifest()
		summaries = append(summaries, runSummary{
			RunID:     m.RunID,
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Target:    m.Target,
			Counts:    m.Counts,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"runs":   summaries,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func parsePagination(r *http.Request) (limit, offset int, err error) {
	limit = defaultListLimit
	offset = 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > maxListLimit {
			return 0, 0, qaerr.Validation("limit must be an integer in [1,200]")
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 0 {
			return 0, 0, qaerr.Validation("offset must be a non-negative integer")
		}
		offset = n
	}
	return limit, offset, nil
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*runmanager.RunHandle, bool) {
	runsRoot, err := config.ResolveRunsRoot("")
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	runID := mux.Vars(r)["run_id"]
	handle, err := runmanager.Load(runsRoot, runID)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return handle, true
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, handle.Manifest())
}

func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	v, err := s.cache.getOrLoad("findings:"+handle.RunID(), func() (any, error) {
		return store.NewReader(handle, s.log).Findings()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": v})
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	v, err := s.cache.getOrLoad("coverage:"+handle.RunID(), func() (any, error) {
		return store.NewReader(handle, s.log).Coverage()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"coverage": v})
}

func (s *Server) handleChurn(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	v, err := s.cache.getOrLoad("churn:"+handle.RunID(), func() (any, error) {
		return store.NewReader(handle, s.log).Churn()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"churn": v})
}

func (s *Server) handleRisks(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	v, err := s.cache.getOrLoad("risks:"+handle.RunID(), func() (any, error) {
		return store.NewReader(handle, s.log).Risks()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"risks": v})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	handle, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	v, err := s.cache.getOrLoad("recommendations:"+handle.RunID(), func() (any, error) {
		return store.NewReader(handle, s.log).Recommendations()
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": v})
}

type runTrend struct {
	RunID            string         `json:"run_id"`
	CreatedAt        string         `json:"created_at"`
	AverageCoverage  float64        `json:"average_coverage"`
	OverallCoverage  float64        `json:"overall_coverage"`
	HighRiskCount    int            `json:"high_risk_count"`
	RiskCounts       map[string]int `json:"risk_counts"`
	TotalRisks       int            `json:"total_risks"`
	AverageRiskScore float64        `json:"average_risk_score"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	runsRoot, err := config.ResolveRunsRoot("")
	if err != nil {
		writeError(w, err)
		return
	}
	limit := maxListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, convErr := strconv.Atoi(v)
		if convErr != nil || n < 1 || n > maxListLimit {
			writeError(w, qaerr.Validation("limit must be an integer in [1,200]"))
			return
		}
		limit = n
	}

	ids, err := runmanager.ListRunIDs(runsRoot)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	trends := make([]runTrend, 0, len(ids))
	for _, id := range ids {
		handle, err := runmanager.Load(runsRoot, id)
		if err != nil {
			continue
		}
		reader := store.NewReader(handle, s.log)
		coverage, err := reader.Coverage()
		if err != nil {
			continue
		}
		risks, err := reader.Risks()
		if err != nil {
			continue
		}
		trends = append(trends, buildTrend(handle.Manifest(), coverage, risks))
	}

	writeJSON(w, http.StatusOK, map[string]any{"trends": trends})
}

func buildTrend(m evidence.Manifest, coverage []*evidence.CoverageRecord, risks []*evidence.RiskRecord) runTrend {
	t := runTrend{
		RunID:      m.RunID,
		CreatedAt:  m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		RiskCounts: map[string]int{"P0": 0, "P1": 0, "P2": 0, "P3": 0},
		TotalRisks: len(risks),
	}

	var sum float64
	var n int
	for _, c := range coverage {
		if c.Component == evidence.OverallComponent {
			t.OverallCoverage = c.Value
			continue
		}
		sum += c.Value
		n++
	}
	if n > 0 {
		t.AverageCoverage = sum / float64(n)
	}

	var riskSum float64
	for _, rk := range risks {
		riskSum += rk.Score
		t.RiskCounts[string(rk.Band)]++
		if rk.Score >= 65 {
			t.HighRiskCount++
		}
	}
	if len(risks) > 0 {
		t.AverageRiskScore = riskSum / float64(len(risks))
	}
	return t
}

// Repository registry handlers (spec.md §4.10's optional surface).

func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	repos := s.repos.list()
	sort.Slice(repos, func(i, j int) bool { return repos[i].CreatedAt.Before(repos[j].CreatedAt) })
	writeJSON(w, http.StatusOK, map[string]any{"repositories": repos})
}

type createRepositoryRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

func (s *Server) handleCreateRepository(w http.ResponseWriter, r *http.Request) {
	var req createRepositoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, qaerr.Validation("invalid request body: "+err.Error()))
		return
	}
	if req.ID == "" || req.Path == "" {
		writeError(w, qaerr.Validation("id and path are required"))
		return
	}
	repo := &Repository{ID: req.ID, Name: req.Name, Path: req.Path, CreatedAt: s.now()}
	s.repos.add(repo)
	writeJSON(w, http.StatusCreated, repo)
}

func (s *Server) handleGetRepository(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	repo, ok := s.repos.get(id)
	if !ok {
		writeError(w, qaerr.NotFound("repository not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handleDeleteRepository(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.repos.remove(id) {
		writeError(w, qaerr.NotFound("repository not found: "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyzeRepository(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	repo, ok := s.repos.get(id)
	if !ok {
		writeError(w, qaerr.NotFound("repository not found: "+id))
		return
	}
	force := r.URL.Query().Get("force") == "true"
	if !force && repo.LastRunID != "" {
		writeJSON(w, http.StatusOK, map[string]any{"run_id": repo.LastRunID, "status": repo.LastStatus, "reused": true})
		return
	}

	runsRoot, err := config.ResolveRunsRoot("")
	if err != nil {
		writeError(w, err)
		return
	}
	target := evidence.Target{Name: repo.Name, Path: repo.Path}
	handle, _, err := pipeline.RunCollectors(r.Context(), runsRoot, config.LogsRoot(runsRoot), target, s.log)
	if err != nil {
		writeError(w, err)
		return
	}
	s.repos.setLastRun(id, handle.RunID(), "completed")
	writeJSON(w, http.StatusAccepted, map[string]any{"run_id": handle.RunID(), "status": "completed", "reused": false})
}

func (s *Server) handleRepositoryStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	repo, ok := s.repos.get(id)
	if !ok {
		writeError(w, qaerr.NotFound("repository not found: "+id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": repo.LastRunID, "status": repo.LastStatus})
}
