// Package memory provides in-memory implementations of the storage
// ports, used in tests and as a fallback when no database path is
// configured.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/windward-data/sailtap/internal/core/domain"
	"github.com/windward-data/sailtap/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of
// driven.CheckpointStore. State is stored serialised so callers never
// share live structures with the store.
type CheckpointStore struct {
	mu     sync.RWMutex
	states map[string][]byte
}

// NewCheckpointStore creates a new in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		states: make(map[string][]byte),
	}
}

// Save stores or updates the state for an account.
func (s *CheckpointStore) Save(_ context.Context, account string, state *domain.State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[account] = payload
	return nil
}

// Load retrieves the state for an account.
func (s *CheckpointStore) Load(_ context.Context, account string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.states[account]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var state domain.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the state for an account.
func (s *CheckpointStore) Delete(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, account)
	return nil
}

// Close releases resources. A no-op for the in-memory store.
func (s *CheckpointStore) Close() error {
	return nil
}
