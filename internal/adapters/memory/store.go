// Package memory provides an in-memory SessionStore, suitable for tests and
// single-process ephemeral usage.
package memory

import (
	"context"
	"sync"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Session
	mu   sync.RWMutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]domain.Session),
	}
}

// Save persists the session in memory.
func (s *Store) Save(ctx context.Context, id string, session domain.Session) error {
	// Deep copy to ensure isolation, similar to serialization
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = session.Clone()
	return nil
}

// Load retrieves the session from memory.
func (s *Store) Load(ctx context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.data[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate store state directly.
	return session.Clone(), nil
}

// Remove deletes the session.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns active session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
