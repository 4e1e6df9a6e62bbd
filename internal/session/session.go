// ABOUTME: Transport session abstraction and in-memory implementation
// ABOUTME: A session is a mutable key-value bag owned by the transport layer

package session

import (
	"sync"

	"github.com/google/uuid"
)

// Well-known session keys used by the login subsystem. Everything else in
// the bag belongs to other collaborators.
const (
	KeyUserID      = "user_id"
	KeyLoginName   = "login_name"
	KeyDisplayName = "display_name"
)

// Session is the transport-owned key-value state for one request principal.
// The login subsystem only reads and writes its own keys.
type Session interface {
	ID() string
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Memory is a goroutine-safe in-memory Session.
type Memory struct {
	id string

	mu     sync.RWMutex
	values map[string]string
}

// NewMemory creates an empty session with a fresh id.
func NewMemory() *Memory {
	return &Memory{
		id:     uuid.New().String(),
		values: make(map[string]string),
	}
}

// ID implements Session.
func (m *Memory) ID() string { return m.id }

// Get implements Session.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

// Set implements Session.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Delete implements Session.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}
