// Package models defines the user profile records shared by the wallet-auth
// server, its stores and the terminal client.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

// User is a locally stored profile keyed by wallet address.
//
// WalletAddress and CreatedAt are set once at creation and never change.
type User struct {
	WalletAddress string    `json:"wallet_address"`
	FirstName     string    `json:"first_name,omitempty"`
	LastName      string    `json:"last_name,omitempty"`
	CompanyName   string    `json:"company_name,omitempty"`
	Email         string    `json:"email,omitempty"`
	Role          string    `json:"role"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUserData is the payload accepted when creating a user. Role may be empty
// and is then defaulted by the store.
type NewUserData struct {
	WalletAddress string `json:"wallet_address"`
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          string `json:"role,omitempty"`
}

// UserUpdate carries a partial update; nil fields are left untouched.
// WalletAddress and CreatedAt are accepted so that payloads decode cleanly,
// but ApplyTo ignores them.
type UserUpdate struct {
	WalletAddress *string    `json:"wallet_address,omitempty"`
	FirstName     *string    `json:"first_name,omitempty"`
	LastName      *string    `json:"last_name,omitempty"`
	CompanyName   *string    `json:"company_name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	Role          *string    `json:"role,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// NewUser builds the record a store persists for data, stamping createdAt and
// canonicalising the address.
func NewUser(data NewUserData, createdAt time.Time) *User {
	role := strings.TrimSpace(data.Role)
	if role == "" {
		role = common.DefaultRole
	}
	return &User{
		WalletAddress: NormalizeAddress(data.WalletAddress),
		FirstName:     data.FirstName,
		LastName:      data.LastName,
		CompanyName:   data.CompanyName,
		Email:         data.Email,
		Role:          role,
		CreatedAt:     createdAt.UTC().Truncate(time.Millisecond),
	}
}

// IsEmpty reports whether the update changes no mutable field.
func (u UserUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.CompanyName == nil &&
		u.Email == nil && u.Role == nil
}

// ApplyTo merges the mutable fields of u into user.
func (u UserUpdate) ApplyTo(user *User) {
	if u.FirstName != nil {
		user.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		user.LastName = *u.LastName
	}
	if u.CompanyName != nil {
		user.CompanyName = *u.CompanyName
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
}

// Columns returns the mutable column/value pairs set in u, in a stable order.
// SQL stores build their SET clause from it.
func (u UserUpdate) Columns() ([]string, []any) {
	var cols []string
	var vals []any
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			vals = append(vals, *v)
		}
	}
	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	add("company_name", u.CompanyName)
	add("email", u.Email)
	add("role", u.Role)
	return cols, vals
}

// Clone returns a copy that callers can mutate freely.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
