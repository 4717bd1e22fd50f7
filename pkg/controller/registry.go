package controller

import (
	"context"
	"sort"
	"sync"
)

// Registry tracks sessions by ID for callers that poll runs, such as the
// HTTP server.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limit    int
}

// NewRegistry creates a registry that keeps at most limit finished
// sessions. A limit <= 0 keeps everything.
func NewRegistry(limit int) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		limit:    limit,
	}
}

// Add registers s and evicts the oldest finished sessions above the limit.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
	r.evict()
}

// Get returns the session with id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns snapshots of every session, newest first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	out := make([]Snapshot, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s.Snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// CancelAll cancels every session that has not finished.
func (r *Registry) CancelAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		s.Cancel()
	}
}

// Wait blocks until every registered session is done or ctx ends.
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		if err := s.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) evict() {
	if r.limit <= 0 {
		return
	}

	var finished []Snapshot
	for _, s := range r.sessions {
		if snap := s.Snapshot(); snap.State.Terminal() {
			finished = append(finished, snap)
		}
	}
	if len(finished) <= r.limit {
		return
	}

	sort.Slice(finished, func(i, j int) bool {
		return finished[i].FinishedAt.Before(finished[j].FinishedAt)
	})
	for _, snap := range finished[:len(finished)-r.limit] {
		delete(r.sessions, snap.ID)
	}
}
