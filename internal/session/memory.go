package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the session fields in process memory. It backs tests
// and the "memory" backend, where a restart always means logged out.
type MemoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

// Get returns the stored value and whether it exists.
func (b *MemoryBackend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	v, ok := b.values[key]
	b.mu.RUnlock()
	return v, ok, nil
}

// Set stores a value.
func (b *MemoryBackend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	b.values[key] = value
	b.mu.Unlock()
	return nil
}

// Delete removes the given keys. Missing keys are ignored.
func (b *MemoryBackend) Delete(_ context.Context, keys ...string) error {
	b.mu.Lock()
	for _, key := range keys {
		delete(b.values, key)
	}
	b.mu.Unlock()
	return nil
}

// Has reports whether a key exists. Useful for tests.
func (b *MemoryBackend) Has(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.values[key]
	return ok
}
