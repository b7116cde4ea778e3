package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/filex"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

const filePerm = 0o600

// fileCodec turns the document into file bytes and back.
type fileCodec interface {
	marshal(doc *document) ([]byte, error)
	unmarshal(raw []byte, doc *document) error
}

// fileStore keeps the whole collection in memory and rewrites the file
// atomically after each change. The JSON and encrypted JSON backends differ
// only in their codec.
type fileStore struct {
	mu          sync.Mutex
	path        string
	codec       fileCodec
	logger      logging.Logger
	now         func() time.Time
	doc         document
	initialized bool
}

func newFileStore(path string, codec fileCodec, logger logging.Logger) *fileStore {
	return &fileStore{
		path:   path,
		codec:  codec,
		logger: logger,
		now:    time.Now,
	}
}

func (s *fileStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *fileStore) initLocked(ctx context.Context) error {
	if s.initialized {
		return nil
	}

	if err := filex.EnsureParentDir(s.path); err != nil {
		return fmt.Errorf("store dir: %w", err)
	}

	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.doc = document{Users: []*models.User{}}
		if err := s.saveLocked(); err != nil {
			return err
		}
		s.logger.Info(ctx, "created user store", "path", s.path)
	case err != nil:
		return fmt.Errorf("read store %s: %w", s.path, err)
	case len(raw) == 0:
		s.doc = document{Users: []*models.User{}}
	default:
		var doc document
		if err := s.codec.unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("load store %s: %w", s.path, err)
		}
		if doc.Users == nil {
			doc.Users = []*models.User{}
		}
		s.doc = doc
		s.logger.Debug(ctx, "loaded user store", "path", s.path, "users", len(doc.Users))
	}

	s.initialized = true
	return nil
}

func (s *fileStore) saveLocked() error {
	raw, err := s.codec.marshal(&s.doc)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := filex.WriteFileAtomic(s.path, raw, filePerm); err != nil {
		return fmt.Errorf("write store %s: %w", s.path, err)
	}
	return nil
}

// mutate applies fn and persists the result. When the write fails the
// in-memory collection is rolled back so memory never runs ahead of disk.
func (s *fileStore) mutate(ctx context.Context, fn func(doc *document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		return err
	}

	backup := s.doc.snapshot()
	changed, err := fn(&s.doc)
	if err != nil || !changed {
		return err
	}
	if err := s.saveLocked(); err != nil {
		s.doc = backup
		return err
	}
	return nil
}

func (s *fileStore) FindUser(ctx context.Context, walletAddress string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initLocked(ctx); err != nil {
		return nil, err
	}
	return s.doc.find(walletAddress), nil
}

func (s *fileStore) CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	var created *models.User
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, err := doc.create(data, s.now())
		if err != nil {
			return false, err
		}
		created = u
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user created", "wallet", created.WalletAddress)
	return created, nil
}

func (s *fileStore) UpdateUser(ctx context.Context, walletAddress string, upd models.UserUpdate) (*models.User, error) {
	if upd.IsEmpty() {
		return s.FindUser(ctx, walletAddress)
	}

	var updated *models.User
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		u, ok := doc.update(walletAddress, upd)
		updated = u
		return ok, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *fileStore) DeleteUser(ctx context.Context, walletAddress string) (bool, error) {
	var removed bool
	err := s.mutate(ctx, func(doc *document) (bool, error) {
		removed = doc.remove(walletAddress)
		return removed, nil
	})
	return removed, err
}

// Close flushes the collection when it was loaded and forgets it, so a later
// call reloads from disk.
func (s *fileStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return nil
	}
	err := s.saveLocked()
	s.initialized = false
	s.doc = document{}
	return err
}
