// Package store persists wallet-auth user profiles.
//
// One capability interface, Store, has four interchangeable backends chosen
// by configuration: a plain JSON file, an AES-GCM encrypted JSON file, SQLite
// and Postgres. Every backend keys users by wallet address, compares
// addresses case-insensitively and treats the address and creation time as
// immutable.
//
// The file backends rewrite the whole collection on every change. An
// in-process mutex serialises callers of one Store, but two processes sharing
// a file still race and the last write silently wins. Run a single server
// process per file, or use a SQL backend.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/filex"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

// Store is the persistence contract shared by all backends.
//
// Contract:
//   - Initialize is idempotent; other methods call it lazily.
//   - FindUser returns (nil, nil) when the wallet is unknown.
//   - CreateUser fails with common.ErrorAlreadyExists for a known wallet.
//   - UpdateUser returns (nil, nil) when the wallet is unknown and never
//     changes WalletAddress or CreatedAt.
//   - DeleteUser reports whether a record was removed.
//   - Close is safe to call more than once.
type Store interface {
	Initialize(ctx context.Context) error
	FindUser(ctx context.Context, walletAddress string) (*models.User, error)
	CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error)
	UpdateUser(ctx context.Context, walletAddress string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, walletAddress string) (bool, error)
	Close(ctx context.Context) error
}

// Type names a backend.
type Type string

const (
	TypeJSON          Type = "json"
	TypeEncryptedJSON Type = "encrypted-json"
	TypeSQLite        Type = "sqlite"
	TypePostgres      Type = "postgres"
)

// Default file names, created under ./data when no path is configured.
const (
	DefaultJSONFile          = "zerobrix-users.json"
	DefaultEncryptedJSONFile = "zerobrix-users.encrypted.json"
	DefaultSQLiteFile        = "zerobrix-users.db"
)

// ParseType accepts the canonical names plus a few common aliases.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return TypeJSON, nil
	case "encrypted-json", "encrypted", "encrypted_json":
		return TypeEncryptedJSON, nil
	case "sqlite", "sqlite3":
		return TypeSQLite, nil
	case "postgres", "postgresql", "pg":
		return TypePostgres, nil
	}
	return "", fmt.Errorf("%w: unknown store type %q", common.ErrorValidation, s)
}

// Options selects and configures a backend.
type Options struct {
	Type Type
	// Path is the file for json, encrypted-json and sqlite; empty means ./data/<default>.
	Path string
	// DSN is the Postgres connection string.
	DSN string
	// EncryptionKey is 64 hex chars or a passphrase; see cryptox.ResolveKey.
	EncryptionKey string
	// RequireEncryptionKey turns a missing key into a startup error instead
	// of an ephemeral per-process key.
	RequireEncryptionKey bool
}

// New constructs the backend described by opts. The returned store is owned
// by the caller, who must Close it.
func New(opts Options, logger logging.Logger) (Store, error) {
	logger = logger.With("store", string(opts.Type))

	switch opts.Type {
	case TypeJSON, "":
		path, err := pathOrDefault(opts.Path, DefaultJSONFile)
		if err != nil {
			return nil, err
		}
		return NewJSONStore(path, logger), nil

	case TypeEncryptedJSON:
		path, err := pathOrDefault(opts.Path, DefaultEncryptedJSONFile)
		if err != nil {
			return nil, err
		}
		return NewEncryptedJSONStore(path, opts.EncryptionKey, opts.RequireEncryptionKey, logger)

	case TypeSQLite:
		path, err := pathOrDefault(opts.Path, DefaultSQLiteFile)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(path, logger)

	case TypePostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("%w: DATABASE_DSN", common.ErrorMissingConfig)
		}
		return NewPostgresStore(opts.DSN, logger)
	}

	return nil, fmt.Errorf("%w: unknown store type %q", common.ErrorValidation, opts.Type)
}

func pathOrDefault(path, fileName string) (string, error) {
	if path != "" {
		return path, nil
	}
	return filex.DefaultDataPath(fileName)
}
