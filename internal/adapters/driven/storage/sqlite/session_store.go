package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
	"github.com/custodia-labs/redline-cli/internal/core/ports/driven"
)

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, id string) (*domain.ReviewSession, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_uri, created_at FROM sessions WHERE id = ?
	`, id)
	return s.scanSession(ctx, row)
}

// GetByDocument retrieves the most recent session for a document URI.
func (s *sessionStore) GetByDocument(ctx context.Context, uri string) (*domain.ReviewSession, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_uri, created_at FROM sessions
		WHERE document_uri = ?
		ORDER BY created_at DESC LIMIT 1
	`, uri)
	return s.scanSession(ctx, row)
}

// Save persists a session and its applied-state set.
func (s *sessionStore) Save(ctx context.Context, session *domain.ReviewSession) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, document_uri, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document_uri = excluded.document_uri
	`, session.ID, session.DocumentURI, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	for _, key := range session.AppliedKeys() {
		at, _ := session.AppliedAt(key)
		_, err = tx.ExecContext(ctx, `
			INSERT INTO applied_sections (session_id, section_key, applied_at)
			VALUES (?, ?, ?)
			ON CONFLICT(session_id, section_key) DO NOTHING
		`, session.ID, key, at)
		if err != nil {
			return fmt.Errorf("saving applied section %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing session: %w", err)
	}
	return nil
}

// Delete removes a session and its applied-state set.
func (s *sessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deletion: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all sessions, newest first.
func (s *sessionStore) List(ctx context.Context) ([]*domain.ReviewSession, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_uri, created_at FROM sessions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*domain.ReviewSession
	for rows.Next() {
		var id, uri string
		var createdAt time.Time
		if err := rows.Scan(&id, &uri, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		session := domain.NewReviewSession(id, uri)
		session.CreatedAt = createdAt
		if err := s.loadApplied(ctx, session); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// scanSession reads one session row and hydrates its applied set.
func (s *sessionStore) scanSession(ctx context.Context, row *sql.Row) (*domain.ReviewSession, error) {
	var id, uri string
	var createdAt time.Time
	if err := row.Scan(&id, &uri, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session := domain.NewReviewSession(id, uri)
	session.CreatedAt = createdAt
	if err := s.loadApplied(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// loadApplied seeds the session's applied set from storage.
func (s *sessionStore) loadApplied(ctx context.Context, session *domain.ReviewSession) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT section_key, applied_at FROM applied_sections WHERE session_id = ?
	`, session.ID)
	if err != nil {
		return fmt.Errorf("querying applied sections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var at time.Time
		if err := rows.Scan(&key, &at); err != nil {
			return fmt.Errorf("scanning applied section: %w", err)
		}
		session.RestoreApplied(key, at)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating applied sections: %w", err)
	}
	return nil
}
