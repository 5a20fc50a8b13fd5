package storage

import (
	"context"
	"sync"
)

// MemoryStore implements Store with a plain in-process map. It backs tests
// and ephemeral deployments; nothing survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string

	// FailWrites makes every Save return an error, for exercising the
	// write-failure path in tests.
	FailWrites error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Load(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	return value, ok, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
