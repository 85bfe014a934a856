package session

import (
	"context"
	"fmt"
	"sync"
)

// memoryStore keeps sessions in a plain map. Suitable for a single-process
// deployment and for tests.
type memoryStore struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() Store {
	return &memoryStore{
		sessions: make(map[int64]*Session),
	}
}

func (m *memoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	// Copy so callers can mutate freely before Put.
	sessionCopy := *s
	sessionCopy.Scratch = make(Scratch, len(s.Scratch))
	for k, v := range s.Scratch {
		sessionCopy.Scratch[k] = v
	}
	return &sessionCopy, nil
}

func (m *memoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessionCopy := *s
	sessionCopy.Scratch = make(Scratch, len(s.Scratch))
	for k, v := range s.Scratch {
		sessionCopy.Scratch[k] = v
	}
	m.sessions[s.UserID] = &sessionCopy
	return nil
}

func (m *memoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
	return nil
}
