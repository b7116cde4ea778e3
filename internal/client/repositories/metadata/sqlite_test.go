package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestGet_Missing(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, ok, err := r.Get(context.Background(), KeyWalletAddress)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestSet_InsertThenOverwrite(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyWalletAddress, "0xaaa"))
	require.NoError(t, r.Set(ctx, KeyWalletAddress, "0xbbb"))

	v, ok, err := r.Get(ctx, KeyWalletAddress)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0xbbb", v)
}

func TestDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", "v"))
	require.NoError(t, r.Delete(ctx, "k"))
	require.NoError(t, r.Delete(ctx, "k"))

	_, ok, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, _, err := r.Get(context.Background(), "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")
	require.ErrorContains(t, r.Set(context.Background(), "k", "v"), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(context.Background(), "k"), "failed to delete metadata[k]")
}
