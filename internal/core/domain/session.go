package domain

import (
	"sort"
	"time"
)

// ReviewSession is the applied-state set for one review run: the section
// keys already successfully mutated in the document. It exists so that
// batch apply can be retried without re-applying sections, and it is the
// caller's bookkeeping, not the editor's.
//
// The set grows monotonically; a section marked applied is terminal for
// the session. Starting a new analysis means starting a new session.
type ReviewSession struct {
	// ID identifies the session.
	ID string

	// DocumentURI is the document under review.
	DocumentURI string

	// CreatedAt is when the session started.
	CreatedAt time.Time

	applied map[string]time.Time
}

// NewReviewSession creates an empty session for a document.
func NewReviewSession(id, documentURI string) *ReviewSession {
	return &ReviewSession{
		ID:          id,
		DocumentURI: documentURI,
		CreatedAt:   time.Now(),
		applied:     make(map[string]time.Time),
	}
}

// IsApplied reports whether the section key has already been applied.
func (s *ReviewSession) IsApplied(key string) bool {
	_, ok := s.applied[key]
	return ok
}

// MarkApplied records a section key as applied. Idempotent: re-marking
// keeps the original timestamp.
func (s *ReviewSession) MarkApplied(key string) {
	if s.applied == nil {
		s.applied = make(map[string]time.Time)
	}
	if _, ok := s.applied[key]; !ok {
		s.applied[key] = time.Now()
	}
}

// RestoreApplied seeds the applied set from persisted state.
func (s *ReviewSession) RestoreApplied(key string, at time.Time) {
	if s.applied == nil {
		s.applied = make(map[string]time.Time)
	}
	s.applied[key] = at
}

// AppliedCount returns the number of applied sections.
func (s *ReviewSession) AppliedCount() int {
	return len(s.applied)
}

// AppliedKeys returns the applied section keys in sorted order.
func (s *ReviewSession) AppliedKeys() []string {
	keys := make([]string, 0, len(s.applied))
	for k := range s.applied {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppliedAt returns when a key was applied, if it was.
func (s *ReviewSession) AppliedAt(key string) (time.Time, bool) {
	at, ok := s.applied[key]
	return at, ok
}
