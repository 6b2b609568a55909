package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/redline-cli/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "redline-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func TestSessionStoreSaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sessions := store.SessionStore()

	session := domain.NewReviewSession("sess-1", "contracts/msa.docx")
	session.MarkApplied("INDEMNIFICATION")
	session.MarkApplied("LIMITATION OF LIABILITY")

	require.NoError(t, sessions.Save(ctx, session))

	loaded, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", loaded.ID)
	assert.Equal(t, "contracts/msa.docx", loaded.DocumentURI)
	assert.True(t, loaded.IsApplied("INDEMNIFICATION"))
	assert.True(t, loaded.IsApplied("LIMITATION OF LIABILITY"))
	assert.False(t, loaded.IsApplied("TERMINATION"))
	assert.Equal(t, 2, loaded.AppliedCount())
}

func TestSessionStoreGetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.SessionStore().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStoreGetByDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sessions := store.SessionStore()

	older := domain.NewReviewSession("sess-old", "contracts/msa.docx")
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := domain.NewReviewSession("sess-new", "contracts/msa.docx")
	other := domain.NewReviewSession("sess-other", "contracts/nda.docx")

	require.NoError(t, sessions.Save(ctx, older))
	require.NoError(t, sessions.Save(ctx, newer))
	require.NoError(t, sessions.Save(ctx, other))

	loaded, err := sessions.GetByDocument(ctx, "contracts/msa.docx")
	require.NoError(t, err)
	assert.Equal(t, "sess-new", loaded.ID)

	_, err = sessions.GetByDocument(ctx, "contracts/unknown.docx")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStoreSaveIsIncremental(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sessions := store.SessionStore()

	session := domain.NewReviewSession("sess-1", "doc.txt")
	session.MarkApplied("A")
	require.NoError(t, sessions.Save(ctx, session))

	session.MarkApplied("B")
	require.NoError(t, sessions.Save(ctx, session))

	loaded, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, loaded.AppliedKeys())
}

func TestSessionStoreDelete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sessions := store.SessionStore()

	session := domain.NewReviewSession("sess-1", "doc.txt")
	session.MarkApplied("A")
	require.NoError(t, sessions.Save(ctx, session))

	require.NoError(t, sessions.Delete(ctx, "sess-1"))

	_, err := sessions.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = sessions.Delete(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStoreList(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sessions := store.SessionStore()

	first := domain.NewReviewSession("sess-1", "a.txt")
	first.CreatedAt = time.Now().Add(-time.Hour)
	second := domain.NewReviewSession("sess-2", "b.txt")

	require.NoError(t, sessions.Save(ctx, first))
	require.NoError(t, sessions.Save(ctx, second))

	all, err := sessions.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "sess-2", all[0].ID)
	assert.Equal(t, "sess-1", all[1].ID)
}
