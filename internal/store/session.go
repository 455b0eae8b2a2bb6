// Package store provides the in-memory persistence tier. Every store here
// has a Postgres counterpart in internal/repository; wiring picks one at
// startup so core services never know which backs them.
package store

import (
	"context"
	"sync"

	"github.com/cloo-solutions/papyrai/internal/domain"
)

// MemorySessionStore keeps chat sessions in process memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ChatSession
}

// NewMemorySessionStore creates an empty session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.ChatSession)}
}

// Get returns a copy of the session or ErrSessionNotFound. Copy semantics
// match the Postgres tier, where every read decodes a fresh value; a history
// read must never share message slices with a turn appending to them.
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

// Upsert stores a copy of the session by id.
func (s *MemorySessionStore) Upsert(ctx context.Context, session *domain.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.Clone()
	return nil
}

// Delete removes the session; deleting an unknown id is a no-op.
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}
