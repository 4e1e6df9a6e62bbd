// ABOUTME: Registry mapping transport session ids to live sessions
// ABOUTME: Backs the cookie-based session lookup in the HTTP layer

package session

import "sync"

// Registry tracks live sessions by id. The HTTP layer resolves the session
// cookie through it and creates a session when none exists yet.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Session)}
}

// Get returns the session with the given id, or nil.
func (r *Registry) Get(id string) Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Create makes a new memory session, registers it and returns it.
func (r *Registry) Create() Session {
	s := NewMemory()
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
	return s
}

// Remove drops the session with the given id. Removing an unknown id is a
// no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
