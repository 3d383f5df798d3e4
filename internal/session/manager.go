package session

import (
	"context"
	"sync"

	"github.com/flowdeckhq/flowdeck/internal/model"
)

// Manager caches one live session per project per owner. HTTP handlers
// and the MCP server go through it so concurrent mutations on the same
// project serialize on one session instead of racing separate copies.
type Manager struct {
	persister Persister
	notify    func(Event)

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns a manager whose sessions write through p and
// broadcast through notify (may be nil).
func NewManager(p Persister, notify func(Event)) *Manager {
	return &Manager{
		persister: p,
		notify:    notify,
		sessions:  make(map[string]*Session),
	}
}

// Get returns the session for a project, opening one on first use.
func (m *Manager) Get(ctx context.Context, actor model.Actor, projectID string) (*Session, error) {
	key := actor.Owner() + "/" + projectID

	m.mu.Lock()
	if s, ok := m.sessions[key]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Open outside the lock; loading can take a while on large
	// projects. A lost race just drops the extra session.
	s, err := Open(ctx, m.persister, actor, projectID, m.notify)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[key]; ok {
		return existing, nil
	}
	m.sessions[key] = s
	return s, nil
}

// Drop evicts a project's sessions, for example after the project is
// deleted or mutated outside the session (entity create or delete).
func (m *Manager) Drop(projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, s := range m.sessions {
		if s.projectID == projectID {
			delete(m.sessions, key)
		}
	}
}
