package storage

import (
	"context"
	"sync"

	"github.com/lotas/tabtab/internal/types"
)

// Memory is an in-process Store. Load and Save copy the collection so
// callers never share a slice with the store.
type Memory struct {
	mu    sync.Mutex
	tabs  []types.SavedTab
	saves int
}

// NewMemory returns a Memory store holding a copy of tabs.
func NewMemory(tabs ...types.SavedTab) *Memory {
	return &Memory{tabs: append([]types.SavedTab(nil), tabs...)}
}

func (m *Memory) Load(ctx context.Context) ([]types.SavedTab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.SavedTab{}, m.tabs...), nil
}

func (m *Memory) Save(ctx context.Context, tabs []types.SavedTab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs = append([]types.SavedTab(nil), tabs...)
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
