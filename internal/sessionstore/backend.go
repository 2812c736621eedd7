package sessionstore

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by a Backend when the key has no value
var ErrNotFound = errors.New("session key not found")

// Backend is the durable key/value storage behind the session store.
// Delete must not fail when the key is already absent.
type Backend interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryBackend keeps values in process memory. It does not survive a restart
// and is meant for tests and throwaway runs.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (m *MemoryBackend) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
	return nil
}

// Len returns the number of stored keys
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.values)
}
