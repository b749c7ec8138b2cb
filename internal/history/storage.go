// Package history keeps the bounded list of recent evaluations. The list is
// persisted as one JSON value under one key of a pluggable key-value Storage,
// so every write replaces the whole list.
package history

import (
	"context"
	"sync"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// Storage is a minimal durable key-value store.
type Storage interface {
	// Get returns the value under key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value under key.
	Set(ctx context.Context, key string, value []byte) error

	// Close releases resources.
	Close() error
}

// MemoryStorage is a process-local Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string][]byte)}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
