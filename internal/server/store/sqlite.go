package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/walletauth/internal/filex"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/store/migrations"
)

// SQLiteStore keeps users in a local SQLite database in WAL mode.
type SQLiteStore struct {
	*sqlStore
}

func sqliteDialect() dialect {
	return dialect{
		name:       "sqlite",
		goose:      goose.DialectSQLite3,
		migrations: migrations.SQLite(),
		pragmas: []string{
			"PRAGMA journal_mode = WAL",
		},
		timeArg: func(t time.Time) any {
			return t.UTC().Format(time.RFC3339Nano)
		},
		isDuplicate: isSQLiteDuplicate,
	}
}

func NewSQLiteStore(path string, logger logging.Logger) (*SQLiteStore, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, fmt.Errorf("store dir: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	return &SQLiteStore{sqlStore: newSQLStore(db, sqliteDialect(), logger)}, nil
}

func isSQLiteDuplicate(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
