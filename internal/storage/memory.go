package storage

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/model"
)

// MemoryStore keeps workflows in a map. Aggregates are deep-copied through
// JSON on the way in and out so callers never share mutable state with the
// store, matching the isolation the SQLite store gets for free.
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string][]byte
	locks map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		locks: make(map[string]*sync.Mutex),
	}
}

// Get returns the stored aggregate, or common.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.WorkflowState, error) {
	s.mu.RLock()
	blob, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, common.ErrNotFound
	}

	var state model.WorkflowState
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Put stores or replaces the aggregate.
func (s *MemoryStore) Put(_ context.Context, state *model.WorkflowState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[state.ID] = blob
	s.mu.Unlock()
	return nil
}

// Lock acquires the per-workflow mutex.
func (s *MemoryStore) Lock(id string) func() {
	s.mu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
