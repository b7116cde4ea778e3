package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/store/migrations"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps users in a shared Postgres database. It is the backend
// to use when more than one server process writes users.
type PostgresStore struct {
	*sqlStore
}

func postgresDialect() dialect {
	return dialect{
		name:        "postgres",
		goose:       goose.DialectPostgres,
		migrations:  migrations.Postgres(),
		positional:  true,
		timeArg:     func(t time.Time) any { return t.UTC() },
		isDuplicate: isPostgresDuplicate,
	}
}

func NewPostgresStore(dsn string, logger logging.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newPostgresStoreWithDB(db, logger), nil
}

func newPostgresStoreWithDB(db *sql.DB, logger logging.Logger) *PostgresStore {
	return &PostgresStore{sqlStore: newSQLStore(db, postgresDialect(), logger)}
}

func isPostgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
