/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roster

import (
	"context"
	"sync"
)

// Storage is a string key-value slot the roster is persisted in.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// Watcher is implemented by backends that can see writes made by other
// processes sharing the same data. Watch returns once the watch is in place
// and calls fn from its own goroutine until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, key string, fn func()) error
}

// MemoryStorage keeps values in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		values: make(map[string]string),
	}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]

	return value, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values[key] = value

	return nil
}
