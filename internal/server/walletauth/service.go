// Package walletauth implements the server side of wallet QR authentication:
// issuing nonces, verifying them against ZeroBrix and resolving the local
// user profile for the authenticated wallet.
package walletauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
	"github.com/dmitrijs2005/walletauth/internal/server/store"
	"github.com/dmitrijs2005/walletauth/internal/server/zerobrix"
)

// ValidationFunc decides whether an authenticated wallet may sign in.
type ValidationFunc func(ctx context.Context, walletAddress string) (bool, error)

// NewUserHook runs after a profile has been created. Its error is logged and
// otherwise ignored.
type NewUserHook func(ctx context.Context, user *models.User) error

type Service struct {
	verifier         zerobrix.Verifier
	store            store.Store
	logger           logging.Logger
	customValidation ValidationFunc
	onNewUser        NewUserHook
}

type Option func(*Service)

func WithCustomValidation(fn ValidationFunc) Option {
	return func(s *Service) { s.customValidation = fn }
}

func WithOnNewUser(fn NewUserHook) Option {
	return func(s *Service) { s.onNewUser = fn }
}

// NewService wires the upstream verifier and a caller-owned store. The
// service never closes the store.
func NewService(v zerobrix.Verifier, st store.Store, logger logging.Logger, opts ...Option) *Service {
	s := &Service{verifier: v, store: st, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// VerifyRequest is the body of a verify call. UserData, when present, is used
// to create the profile of a first-time wallet.
type VerifyRequest struct {
	Nonce    string              `json:"nonce"`
	UserData *models.NewUserData `json:"userData,omitempty"`
}

// VerifyResult describes a successful authentication. User is nil for a
// wallet with no profile yet, which tells the caller to start onboarding.
// StoreError is set when the profile could not be read or written; the
// authentication itself still stands.
type VerifyResult struct {
	Authenticated bool         `json:"authenticated"`
	UserAddress   string       `json:"userAddress"`
	User          *models.User `json:"user,omitempty"`
	StoreError    string       `json:"storeError,omitempty"`
}

// IssueNonce returns a fresh challenge. Failures wrap common.ErrorUpstream.
func (s *Service) IssueNonce(ctx context.Context) (string, error) {
	nonce, err := s.verifier.GenerateNonce(ctx)
	if err != nil {
		s.logger.Error(ctx, "error generating nonce", "error", err)
		return "", err
	}
	return nonce, nil
}

// Verify checks req.Nonce with ZeroBrix.
//
// Errors wrap one of common.ErrorValidation (empty nonce),
// common.ErrorUnauthorized (not authenticated), common.ErrorForbidden
// (custom validation refused the wallet), common.ErrorUpstream or
// common.ErrorInternal.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	nonce := strings.TrimSpace(req.Nonce)
	if nonce == "" {
		return nil, fmt.Errorf("%w: nonce is required", common.ErrorValidation)
	}

	v, err := s.verifier.VerifyAuthentication(ctx, nonce)
	if err != nil {
		s.logger.Error(ctx, "error verifying authentication", "error", err)
		return nil, err
	}
	if !v.Authenticated || v.UserAddress == "" {
		return nil, common.ErrorUnauthorized
	}

	address := v.UserAddress
	if s.customValidation != nil {
		ok, err := s.customValidation(ctx, address)
		if err != nil {
			s.logger.Error(ctx, "custom validation failed", "wallet", address, "error", err)
			return nil, fmt.Errorf("%w: custom validation: %v", common.ErrorInternal, err)
		}
		if !ok {
			s.logger.Info(ctx, "wallet rejected by custom validation", "wallet", address)
			return nil, common.ErrorForbidden
		}
	}

	res := &VerifyResult{Authenticated: true, UserAddress: address}

	user, err := s.store.FindUser(ctx, address)
	if err != nil {
		s.logger.Error(ctx, "error looking up user", "wallet", address, "error", err)
		res.StoreError = err.Error()
		return res, nil
	}

	if user == nil && req.UserData != nil {
		data := *req.UserData
		data.WalletAddress = address
		user, err = s.createUser(ctx, data)
		if errors.Is(err, common.ErrorAlreadyExists) {
			// created concurrently by another request
			user, err = s.store.FindUser(ctx, address)
		}
		if err != nil {
			s.logger.Error(ctx, "error creating user during verify", "wallet", address, "error", err)
			res.StoreError = err.Error()
			return res, nil
		}
	}

	res.User = user
	return res, nil
}

func (s *Service) createUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	user, err := s.store.CreateUser(ctx, data)
	if err != nil {
		return nil, err
	}
	if s.onNewUser != nil {
		if err := s.onNewUser(ctx, user.Clone()); err != nil {
			s.logger.Warn(ctx, "new user hook failed", "wallet", user.WalletAddress, "error", err)
		}
	}
	return user, nil
}
