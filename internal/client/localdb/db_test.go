package localdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/walletauth/internal/client/repositories/metadata"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestOpen_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "client.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, tableExists(t, db.DB, "goose_db_version"))
	assert.True(t, tableExists(t, db.DB, "metadata"))

	require.NoError(t, db.Metadata.Set(ctx, metadata.KeyWalletAddress, "0xabc"))
	v, ok, err := db.Metadata.Get(ctx, metadata.KeyWalletAddress)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0xabc", v)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	assert.True(t, tableExists(t, db, "metadata"))
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	db, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, db.Metadata.Set(ctx, "k", "v"))
	require.NoError(t, db.Close())

	db, err = Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	v, ok, err := db.Metadata.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestOpen_ConcurrentReadersAndWriters(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	defer db.Close()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []error
	)
	record := func(err error) {
		if err != nil {
			mu.Lock()
			failed = append(failed, err)
			mu.Unlock()
		}
	}

	for i := 0; i < 100; i++ {
		wg.Add(3)
		go func(i int) {
			defer wg.Done()
			record(db.Metadata.Set(ctx, metadata.KeyWalletAddress, fmt.Sprintf("0x%040d", i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _, err := db.Metadata.Get(ctx, metadata.KeyWalletAddress)
			record(err)
		}()
		go func() {
			defer wg.Done()
			record(db.Metadata.Delete(ctx, metadata.KeyWalletAddress))
		}()
	}
	wg.Wait()

	assert.Empty(t, failed)
}
