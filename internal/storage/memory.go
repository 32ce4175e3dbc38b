package storage

import (
	"context"
	"sync"

	"diarias/internal/core"
)

// MemoryStore keeps the last saved snapshot in process.
type MemoryStore struct {
	mu    sync.RWMutex
	snap  *core.Snapshot
	saves int
}

var _ SnapshotStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(_ context.Context) (core.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snap == nil {
		return core.Snapshot{}, ErrNotFound
	}
	return cloneSnapshot(*m.snap), nil
}

func (m *MemoryStore) Save(_ context.Context, s core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := cloneSnapshot(s)
	m.snap = &c
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}
