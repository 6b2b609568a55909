// Package memory provides in-memory implementations of driven port
// interfaces, used by tests and by runs that do not need persistence.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
)

// SessionStore is an in-memory implementation of driven.SessionStore.
// Safe for concurrent use.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.ReviewSession
}

var _ driven.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.ReviewSession),
	}
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copySession(session), nil
}

// GetByDocument retrieves the most recent session for a document URI.
func (s *SessionStore) GetByDocument(_ context.Context, uri string) (*domain.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.ReviewSession
	for _, session := range s.sessions {
		if session.DocumentURI != uri {
			continue
		}
		if latest == nil || session.CreatedAt.After(latest.CreatedAt) {
			latest = session
		}
	}
	if latest == nil {
		return nil, domain.ErrNotFound
	}
	return copySession(latest), nil
}

// Save persists a session and its applied-state set.
func (s *SessionStore) Save(_ context.Context, session *domain.ReviewSession) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = copySession(session)
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// List returns all sessions, newest first.
func (s *SessionStore) List(_ context.Context) ([]*domain.ReviewSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]*domain.ReviewSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, copySession(session))
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// copySession clones a session so callers cannot mutate stored state.
func copySession(session *domain.ReviewSession) *domain.ReviewSession {
	clone := domain.NewReviewSession(session.ID, session.DocumentURI)
	clone.CreatedAt = session.CreatedAt
	for _, key := range session.AppliedKeys() {
		at, _ := session.AppliedAt(key)
		clone.RestoreApplied(key, at)
	}
	return clone
}
