package apiserver

import (
	"sync"
	"time"
)

// Repository is one managed analysis target.
type Repository struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	LastRunID  string    `json:"last_run_id,omitempty"`
	LastStatus string    `json:"last_status,omitempty"`
}

// repositoryRegistry is an in-memory, mutex-guarded map of managed
// targets. It exists only to back the optional /api/repositories
// surface and is never persisted across process restarts.
type repositoryRegistry struct {
	mu   sync.Mutex
	byID map[string]*Repository
}

func newRepositoryRegistry() *repositoryRegistry {
	return &repositoryRegistry{byID: map[string]*Repository{}}
}

func (r *repositoryRegistry) add(repo *Repository) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[repo.ID] = repo
}

func (r *repositoryRegistry) get(id string) (*Repository, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	repo, ok := r.byID[id]
	return repo, ok
}

func (r *repositoryRegistry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	return true
}

func (r *repositoryRegistry) list() []*Repository {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Repository, 0, len(r.byID))
	for _, repo := range r.byID {
		out = append(out, repo)
	}
	return out
}

func (r *repositoryRegistry) setLastRun(id, runID, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if repo, ok := r.byID[id]; ok {
		repo.LastRunID = runID
		repo.LastStatus = status
	}
}
