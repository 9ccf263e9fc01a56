package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, dbPath string) *Store {
	t.Helper()
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestStore_RestoreEmpty(t *testing.T) {
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))

	_, err := store.Restore(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_SaveAndRestore(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "session.db")

	store := newTestStore(t, dbPath)
	require.NoError(t, store.Save(ctx, "my-access-token-123"))

	token, err := store.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "my-access-token-123", token)

	// a new token overwrites the previous one
	require.NoError(t, store.Save(ctx, "another-token-456"))
	token, err = store.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "another-token-456", token)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "session.db")

	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "my-access-token-123"))
	require.NoError(t, store.Close())

	// simulated restart
	reopened := newTestStore(t, dbPath)
	token, err := reopened.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "my-access-token-123", token)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, filepath.Join(t.TempDir(), "session.db"))

	require.NoError(t, store.Save(ctx, "my-access-token-123"))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Restore(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	// clearing an already empty store is fine
	require.NoError(t, store.Clear(ctx))
}
