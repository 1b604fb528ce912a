package apiserver

import "github.com/gorilla/mux"

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverPanic(s.log), withTracing, requestID, structuredLog(s.log))

	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	// /runs/trends must be registered ahead of /runs/{run_id}: mux tries
	// routes in registration order and {run_id} would otherwise swallow it.
	api.HandleFunc("/runs/trends", s.handleTrends).Methods("GET")
	api.HandleFunc("/runs/{run_id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{run_id}/findings", s.handleFindings).Methods("GET")
	api.HandleFunc("/runs/{run_id}/coverage", s.handleCoverage).Methods("GET")
	api.HandleFunc("/runs/{run_id}/churn", s.handleChurn).Methods("GET")
	api.HandleFunc("/runs/{run_id}/risks", s.handleRisks).Methods("GET")
	api.HandleFunc("/runs/{run_id}/recommendations", s.handleRecommendations).Methods("GET")

	api.HandleFunc("/repositories", s.handleListRepositories).Methods("GET")
	api.HandleFunc("/repositories", s.handleCreateRepository).Methods("POST")
	api.HandleFunc("/repositories/{id}", s.handleGetRepository).Methods("GET")
	api.HandleFunc("/repositories/{id}", s.handleDeleteRepository).Methods("DELETE")
	api.HandleFunc("/repositories/{id}/analyze", s.handleAnalyzeRepository).Methods("POST")
	api.HandleFunc("/repositories/{id}/status", s.handleRepositoryStatus).Methods("GET")

	return r
}
