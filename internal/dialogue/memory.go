package dialogue

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewMemoryStore constructs a process-local Store.
func NewMemoryStore() Store {
	return &memoryStore{states: make(map[int64]State)}
}

func (m *memoryStore) Get(_ context.Context, userID int64) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s, ok := m.states[userID]; ok {
		return s, nil
	}
	return Start{}, nil
}

func (m *memoryStore) Set(_ context.Context, userID int64, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, idle := s.(Start); idle || s == nil {
		delete(m.states, userID)
		return nil
	}
	m.states[userID] = s
	return nil
}

func (m *memoryStore) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, userID)
	return nil
}
