package store

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is an in-process Storage. It backs `serve --ephemeral` and
// tests.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]string
	closed bool
}

// NewMemory returns an empty *MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{items: make(map[string]string)}
}

// type check
var _ Storage = (*MemoryStore)(nil)

// GetItem implements the Storage interface for *MemoryStore.
func (m *MemoryStore) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.items[key]
	return v, ok, nil
}

// SetItems implements the Storage interface for *MemoryStore.
func (m *MemoryStore) SetItems(_ context.Context, items map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	maps.Copy(m.items, items)
	return nil
}

// RemoveItems implements the Storage interface for *MemoryStore.
func (m *MemoryStore) RemoveItems(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

// Len returns the number of stored items.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Ping implements the Storage interface for *MemoryStore.
func (m *MemoryStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	return nil
}

// Close implements the Storage interface for *MemoryStore.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
