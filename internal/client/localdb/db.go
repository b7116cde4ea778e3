// Package localdb opens the terminal client's SQLite database and applies its
// migrations.
package localdb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/walletauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/walletauth/internal/filex"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type Repositories struct {
	Metadata metadata.Repository
}

// DB is an open client database.
type DB struct {
	*sql.DB
	Repositories
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// dsn sets busy_timeout so pooled connections wait for the write lock.
func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)"
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &DB{
		DB:           db,
		Repositories: Repositories{Metadata: metadata.NewSQLiteRepository(db)},
	}, nil
}
