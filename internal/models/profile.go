package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

// AccountType selects which name fields an onboarding profile carries.
type AccountType string

const (
	AccountIndividual AccountType = "individual"
	AccountCompany    AccountType = "company"
)

// Profile is what a first-time user fills in during onboarding.
type Profile struct {
	AccountType AccountType
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Role        string
}

// ProfileRules mirrors the onboarding options a host application can set.
type ProfileRules struct {
	RequireName         bool
	RequireEmail        bool
	CompanyNameRequired bool
	AvailableRoles      []string
}

// Validate checks p against the rules. Errors wrap common.ErrorValidation.
func (r ProfileRules) Validate(p Profile) error {
	switch p.AccountType {
	case AccountIndividual, "":
		if r.RequireName && (strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "") {
			return fmt.Errorf("%w: first and last name are required", common.ErrorValidation)
		}
	case AccountCompany:
		if r.CompanyNameRequired && strings.TrimSpace(p.CompanyName) == "" {
			return fmt.Errorf("%w: company name is required", common.ErrorValidation)
		}
	default:
		return fmt.Errorf("%w: unknown account type %q", common.ErrorValidation, p.AccountType)
	}
	if r.RequireEmail && strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	}
	if p.Role != "" && len(r.AvailableRoles) > 0 && !slices.Contains(r.AvailableRoles, p.Role) {
		return fmt.Errorf("%w: role %q is not offered", common.ErrorValidation, p.Role)
	}
	return nil
}

// ToNewUserData builds the create-user payload for wallet. Individual accounts
// send names only; company accounts send the company name only.
func (p Profile) ToNewUserData(wallet string) NewUserData {
	data := NewUserData{
		WalletAddress: wallet,
		Email:         strings.TrimSpace(p.Email),
		Role:          strings.TrimSpace(p.Role),
	}
	if p.AccountType == AccountCompany {
		data.CompanyName = strings.TrimSpace(p.CompanyName)
	} else {
		data.FirstName = strings.TrimSpace(p.FirstName)
		data.LastName = strings.TrimSpace(p.LastName)
	}
	return data
}
