package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/dbx"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

const userColumns = "wallet_address, first_name, last_name, company_name, email, role, created_at"

// dialect captures what differs between the SQL backends.
type dialect struct {
	name        string
	goose       goose.Dialect
	migrations  fs.FS
	pragmas     []string
	positional  bool
	timeArg     func(time.Time) any
	isDuplicate func(error) bool
}

// sqlStore implements Store on database/sql. Queries are written with ?
// placeholders and rebound for dialects that use $n.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	logger  logging.Logger
	now     func() time.Time

	initMu      sync.Mutex
	initialized bool
	closeOnce   sync.Once
}

func newSQLStore(db *sql.DB, d dialect, logger logging.Logger) *sqlStore {
	return &sqlStore{db: db, dialect: d, logger: logger, now: time.Now}
}

func (s *sqlStore) Initialize(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.initialized {
		return nil
	}

	for _, p := range s.dialect.pragmas {
		if _, err := s.db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %s: %w", s.dialect.name, p, err)
		}
	}

	provider, err := goose.NewProvider(s.dialect.goose, s.db, s.dialect.migrations)
	if err != nil {
		return fmt.Errorf("%s migrations: %w", s.dialect.name, err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("%s migrations: %w", s.dialect.name, err)
	}
	for _, r := range results {
		s.logger.Info(ctx, "migration applied", "version", r.Source.Version, "duration", r.Duration)
	}

	s.initialized = true
	return nil
}

func (s *sqlStore) q(query string) string {
	if !s.dialect.positional {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) FindUser(ctx context.Context, walletAddress string) (*models.User, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.findUser(ctx, s.db, walletAddress)
}

func (s *sqlStore) findUser(ctx context.Context, db dbx.DBTX, walletAddress string) (*models.User, error) {
	query := s.q(`SELECT ` + userColumns + ` FROM users WHERE lower(wallet_address) = ?`)

	u, err := scanUser(db.QueryRowContext(ctx, query, models.NormalizeAddress(walletAddress)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *sqlStore) CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	if models.NormalizeAddress(data.WalletAddress) == "" {
		return nil, fmt.Errorf("%w: wallet address is required", common.ErrorValidation)
	}

	u := models.NewUser(data, s.now())

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		existing, err := s.findUser(ctx, tx, u.WalletAddress)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("create user %s: %w", u.WalletAddress, common.ErrorAlreadyExists)
		}

		query := s.q(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		_, err = tx.ExecContext(ctx, query,
			u.WalletAddress, nullString(u.FirstName), nullString(u.LastName),
			nullString(u.CompanyName), nullString(u.Email), u.Role, s.dialect.timeArg(u.CreatedAt))
		if err != nil {
			if s.dialect.isDuplicate(err) {
				return fmt.Errorf("create user %s: %w", u.WalletAddress, common.ErrorAlreadyExists)
			}
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user created", "wallet", u.WalletAddress)
	return u, nil
}

func (s *sqlStore) UpdateUser(ctx context.Context, walletAddress string, upd models.UserUpdate) (*models.User, error) {
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}

	cols, args := upd.Columns()
	if len(cols) == 0 {
		return s.findUser(ctx, s.db, walletAddress)
	}

	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = c + " = ?"
	}
	query := s.q(`UPDATE users SET ` + strings.Join(set, ", ") +
		` WHERE lower(wallet_address) = ? RETURNING ` + userColumns)
	args = append(args, models.NormalizeAddress(walletAddress))

	u, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *sqlStore) DeleteUser(ctx context.Context, walletAddress string) (bool, error) {
	if err := s.Initialize(ctx); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM users WHERE lower(wallet_address) = ?`),
		models.NormalizeAddress(walletAddress))
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (s *sqlStore) Close(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u                           models.User
		first, last, company, email sql.NullString
	)
	err := row.Scan(&u.WalletAddress, &first, &last, &company, &email, &u.Role, timeScanner{&u.CreatedAt})
	if err != nil {
		return nil, err
	}
	u.FirstName, u.LastName, u.CompanyName, u.Email = first.String, last.String, company.String, email.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timeScanner accepts native timestamps as well as the RFC 3339 text SQLite
// stores.
type timeScanner struct {
	t *time.Time
}

func (ts timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.t = time.Time{}
	case time.Time:
		*ts.t = v.UTC()
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported created_at type %T", src)
	}
	return nil
}

func (ts timeScanner) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse created_at: %w", err)
	}
	*ts.t = t.UTC()
	return nil
}
