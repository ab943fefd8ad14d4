package plan

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live planning sessions by id. Sessions are process-scoped:
// created when the planner screen is entered and discarded on teardown.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

func (m *Manager) Create(carrierID string) *Session {
	s := NewSession(uuid.New().String(), carrierID)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete tears a session down, releasing any pending deep-link markers.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
	return ok
}
