package cache

import (
	"context"
	"sync"
)

// Memory is an in-process Store backed by a map. It is the default for
// tests and for sessions that do not need persistence across restarts.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok, nil
}

func (m *Memory) Set(_ context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Copy the payload so callers may reuse their buffer.
	data := make([]byte, len(entry.Data))
	copy(data, entry.Data)
	entry.Data = data
	m.entries[key] = entry
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

var _ Store = (*Memory)(nil)
