// Package session keeps the signed-in user of the terminal client.
//
// The user lives in memory only. The wallet address of the last sign-in is
// remembered in the local metadata table so the next start can re-validate
// it with one lookup instead of a new QR round trip. There is no server-side
// session to revoke; Logout only forgets local state.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/walletauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
	"github.com/dmitrijs2005/walletauth/internal/netx"
)

// UserLookup is the part of the server API the session needs.
type UserLookup interface {
	ActiveUser(ctx context.Context, walletAddress string) (*models.User, error)
}

// RestoreResult tells what Restore did with the remembered wallet.
type RestoreResult int

const (
	// RestoreNone means nothing was remembered.
	RestoreNone RestoreResult = iota
	RestoreAdopted
	RestoreDiscarded
	// RestoreKept means the lookup never reached the server and the wallet is
	// still remembered for the next attempt. Any HTTP error answer discards.
	RestoreKept
)

type Session struct {
	lookup UserLookup
	meta   metadata.Repository
	logger logging.Logger

	mu      sync.RWMutex
	user    *models.User
	visible bool
}

func New(lookup UserLookup, meta metadata.Repository, logger logging.Logger) *Session {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Session{lookup: lookup, meta: meta, logger: logger}
}

// Restore re-validates the remembered wallet, if any, with a single lookup.
func (s *Session) Restore(ctx context.Context) (RestoreResult, error) {
	wallet, ok, err := s.meta.Get(ctx, metadata.KeyWalletAddress)
	if err != nil {
		return RestoreNone, fmt.Errorf("read remembered wallet: %w", err)
	}
	if !ok || wallet == "" {
		return RestoreNone, nil
	}

	user, err := s.lookup.ActiveUser(ctx, wallet)
	switch {
	case err == nil && user != nil:
		s.mu.Lock()
		s.user = user.Clone()
		s.mu.Unlock()
		s.logger.Debug(ctx, "session restored", "wallet", wallet)
		return RestoreAdopted, nil

	case err == nil, rejected(err):
		if err := s.meta.Delete(ctx, metadata.KeyWalletAddress); err != nil {
			return RestoreDiscarded, fmt.Errorf("forget wallet: %w", err)
		}
		s.logger.Info(ctx, "remembered wallet is no longer active", "wallet", wallet)
		return RestoreDiscarded, nil

	default:
		s.logger.Warn(ctx, "could not re-validate remembered wallet", "wallet", wallet, "error", err)
		return RestoreKept, err
	}
}

// rejected reports whether the server answered the lookup with an error
// status, as opposed to the request not getting through.
func rejected(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrorValidation) ||
		netx.StatusCode(err) != 0
}

func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.Clone()
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Session) ShowAuth() {
	s.mu.Lock()
	s.visible = true
	s.mu.Unlock()
}

func (s *Session) HideAuth() {
	s.mu.Lock()
	s.visible = false
	s.mu.Unlock()
}

// AuthVisible reports whether the sign-in prompt is open.
func (s *Session) AuthVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visible
}

// HandleAuthenticated adopts user, remembers its wallet and closes the
// sign-in prompt. The user is adopted even when remembering fails.
func (s *Session) HandleAuthenticated(ctx context.Context, walletAddress string, user *models.User) error {
	s.mu.Lock()
	s.user = user.Clone()
	s.visible = false
	s.mu.Unlock()

	if err := s.meta.Set(ctx, metadata.KeyWalletAddress, models.NormalizeAddress(walletAddress)); err != nil {
		return fmt.Errorf("remember wallet: %w", err)
	}
	return nil
}

// Logout forgets the user and the remembered wallet.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	if err := s.meta.Delete(ctx, metadata.KeyWalletAddress); err != nil {
		return fmt.Errorf("forget wallet: %w", err)
	}
	return nil
}
