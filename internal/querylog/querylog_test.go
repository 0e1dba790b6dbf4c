// ABOUTME: Tests for the SQLite query history store
// ABOUTME: Covers schema creation, save/recent/get round trips, and the not-found sentinel

package querylog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "queries.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNew_CreatesDatabaseFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "subdir", "queries.db")

	store, err := New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist")
}

func TestSaveAndRecent(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		err := store.Save(context.Background(),
			fmt.Sprintf("question %d", i),
			fmt.Sprintf("answer %d", i),
			float64(i)/10,
		)
		require.NoError(t, err)
	}

	entries, err := store.Recent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first
	assert.Equal(t, "question 4", entries[0].Query)
	assert.Equal(t, "answer 4", entries[0].Response)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestRecent_DefaultLimit(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), "q", "a", 0.5))

	entries, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecent_Empty(t *testing.T) {
	store := newTestStore(t)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(context.Background(), "the question", "the answer", 1.25))

	entries, err := store.Recent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got, err := store.Get(context.Background(), entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "the question", got.Query)
	assert.InDelta(t, 1.25, got.ExecutionTime, 0.001)
}

func TestGet_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}
