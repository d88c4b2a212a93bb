// Package memory provides an in-memory snapshot store, primarily for tests
// and single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/bramble/pkg/ports"
	"github.com/aretw0/bramble/pkg/schema"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*schema.Snapshot
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*schema.Snapshot),
	}
}

// Save persists a deep copy so later mutations by the caller stay isolated.
func (s *Store) Save(ctx context.Context, sessionID string, sn *schema.Snapshot) error {
	copied := sn.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves a copy of the snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (*schema.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sn, ok := s.data[sessionID]
	if !ok {
		return nil, ports.ErrSessionNotFound
	}
	return sn.Clone(), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
