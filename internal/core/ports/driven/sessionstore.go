package driven

import (
	"context"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// SessionStore persists review sessions so that partially applied batches
// can be resumed without re-applying sections.
type SessionStore interface {
	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*domain.ReviewSession, error)

	// GetByDocument retrieves the most recent session for a document URI.
	// Returns domain.ErrNotFound if none exists.
	GetByDocument(ctx context.Context, uri string) (*domain.ReviewSession, error)

	// Save persists a session and its applied-state set.
	Save(ctx context.Context, session *domain.ReviewSession) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// List returns all sessions, newest first.
	List(ctx context.Context) ([]*domain.ReviewSession, error)
}
