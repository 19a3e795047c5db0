package storage

import (
	"context"
	"sync"
)

// Memory keeps tiles in process memory. When limit is positive the oldest
// entries are evicted first once the limit is reached.
type Memory struct {
	mu    sync.RWMutex
	limit int
	data  map[string][]byte
	order []string
}

func NewMemory(limit int) *Memory {
	return &Memory{limit: limit, data: make(map[string][]byte)}
}

var _ TileStore = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		if m.limit > 0 && len(m.order) >= m.limit {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.data, oldest)
		}
		m.order = append(m.order, key)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return nil
	}
	delete(m.data, key)
	for i, k := range m.order {
		if k == key {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports the number of stored tiles.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
