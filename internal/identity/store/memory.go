package store

import (
	"context"
	"sync"

	"clubgate/internal/identity"
	"clubgate/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in a process-local map. Not durable across
// restarts; use the Redis or Postgres store in production.
type InMemoryStore struct {
	mu   sync.RWMutex
	byID map[string]identity.Identity
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{byID: make(map[string]identity.Identity)}
}

func (s *InMemoryStore) Read(_ context.Context, sessionID string) (identity.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.byID[sessionID]
	if !ok {
		return identity.Identity{}, sentinel.ErrNotFound
	}
	return ident, nil
}

func (s *InMemoryStore) Write(_ context.Context, sessionID string, ident identity.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sessionID] = ident
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, sessionID)
	return nil
}
