// Package registry tracks live whiteboard sessions by ID.
package registry

import (
	"context"
	"sync"

	"github.com/grahamonica/gemini-build-day/internal/board"
	"github.com/grahamonica/gemini-build-day/pkg/metrics"
)

// Registry provides concurrent access to the live session set.
type Registry interface {
	// Put registers a session under its ID, replacing any previous entry.
	Put(ctx context.Context, s *board.Session) error
	// Get returns the session for id. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (*board.Session, error)
	// Delete removes the session for id and returns it so the caller can
	// close it. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) (*board.Session, error)
	// List returns all live sessions in no particular order.
	List(ctx context.Context) []*board.Session
	// Count returns the number of live sessions.
	Count(ctx context.Context) int
}

// InMemory is the default Registry backed by a map.
type InMemory struct {
	mu       sync.RWMutex
	sessions map[string]*board.Session
	closed   bool
}

// NewInMemory creates an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[string]*board.Session)}
}

// Put registers a session under its ID.
func (r *InMemory) Put(_ context.Context, s *board.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.sessions[s.ID()] = s
	metrics.UpdateActiveSessions(len(r.sessions))
	return nil
}

// Get returns the session for id.
func (r *InMemory) Get(_ context.Context, id string) (*board.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes and returns the session for id.
func (r *InMemory) Delete(_ context.Context, id string) (*board.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.sessions, id)
	metrics.UpdateActiveSessions(len(r.sessions))
	return s, nil
}

// List returns all live sessions.
func (r *InMemory) List(_ context.Context) []*board.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*board.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (r *InMemory) Count(_ context.Context) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close marks the registry closed. Existing sessions stay readable so
// shutdown can drain them; new registrations are rejected.
func (r *InMemory) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
