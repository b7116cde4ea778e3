package store

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

// document is the persisted shape of the file backends: {"users": [...]}.
type document struct {
	Users []*models.User `json:"users"`
}

func (d *document) index(walletAddress string) int {
	return slices.IndexFunc(d.Users, func(u *models.User) bool {
		return models.SameAddress(u.WalletAddress, walletAddress)
	})
}

func (d *document) find(walletAddress string) *models.User {
	if i := d.index(walletAddress); i >= 0 {
		return d.Users[i].Clone()
	}
	return nil
}

func (d *document) create(data models.NewUserData, now time.Time) (*models.User, error) {
	if models.NormalizeAddress(data.WalletAddress) == "" {
		return nil, fmt.Errorf("%w: wallet address is required", common.ErrorValidation)
	}
	if d.index(data.WalletAddress) >= 0 {
		return nil, fmt.Errorf("create user %s: %w", data.WalletAddress, common.ErrorAlreadyExists)
	}
	u := models.NewUser(data, now)
	d.Users = append(d.Users, u)
	return u.Clone(), nil
}

// update reports false when the wallet is unknown.
func (d *document) update(walletAddress string, upd models.UserUpdate) (*models.User, bool) {
	i := d.index(walletAddress)
	if i < 0 {
		return nil, false
	}
	upd.ApplyTo(d.Users[i])
	return d.Users[i].Clone(), true
}

func (d *document) remove(walletAddress string) bool {
	before := len(d.Users)
	d.Users = slices.DeleteFunc(d.Users, func(u *models.User) bool {
		return models.SameAddress(u.WalletAddress, walletAddress)
	})
	return len(d.Users) != before
}

// snapshot deep-copies the document so a failed save can be rolled back.
func (d *document) snapshot() document {
	users := make([]*models.User, len(d.Users))
	for i, u := range d.Users {
		users[i] = u.Clone()
	}
	return document{Users: users}
}
