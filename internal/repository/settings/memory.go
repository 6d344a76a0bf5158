package settings

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and single-node setups.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]SearchSettings
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]SearchSettings)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, collectionID string) (*SearchSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.data[collectionID]
	if !ok {
		return nil, nil
	}
	return &stored, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, collectionID string, settings SearchSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[collectionID] = settings
	return nil
}
