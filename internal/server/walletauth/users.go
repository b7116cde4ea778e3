package walletauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

func validAddress(addr string) error {
	if !models.IsValidWalletAddress(addr) {
		return fmt.Errorf("%w: invalid wallet address %q", common.ErrorValidation, addr)
	}
	return nil
}

// ActiveUser returns the profile of walletAddress or common.ErrorNotFound.
func (s *Service) ActiveUser(ctx context.Context, walletAddress string) (*models.User, error) {
	if walletAddress == "" {
		return nil, fmt.Errorf("%w: wallet address is required", common.ErrorValidation)
	}

	user, err := s.store.FindUser(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if user == nil {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

// CreateUser registers the profile of a wallet that finished onboarding.
func (s *Service) CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	if err := validAddress(data.WalletAddress); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, data)
	if err != nil {
		if isKnown(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return user, nil
}

// UpdateUser applies a partial profile update; the address and creation time
// never change.
func (s *Service) UpdateUser(ctx context.Context, walletAddress string, upd models.UserUpdate) (*models.User, error) {
	if err := validAddress(walletAddress); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, walletAddress, upd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if user == nil {
		return nil, common.ErrorNotFound
	}
	return user, nil
}

func isKnown(err error) bool {
	return errors.Is(err, common.ErrorAlreadyExists) || errors.Is(err, common.ErrorValidation)
}
