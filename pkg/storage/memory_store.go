package storage

import (
	"sync"

	"github.com/trumenapp/go-tileguard/pkg/engine"
)

// MemoryStore keeps sessions in a process-local map. Thread-safe.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*engine.Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*engine.Session)}
}

// GetOrCreate returns the session for id, creating it on first use.
func (m *MemoryStore) GetOrCreate(id string) *engine.Session {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check: another caller may have created it between the locks.
	if s, ok := m.sessions[id]; ok {
		return s
	}
	s = engine.NewSession(id)
	m.sessions[id] = s
	return s
}

// Get returns the session for id if it exists.
func (m *MemoryStore) Get(id string) (*engine.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete discards the session for id.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
