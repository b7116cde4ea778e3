package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

func ptr[T any](v T) *T { return &v }

func TestNewUser_DefaultsRoleAndCanonicalisesAddress(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.FixedZone("X", 3600))
	u := NewUser(NewUserData{WalletAddress: " 0xABCdef0000000000000000000000000000000001 "}, now)

	assert.Equal(t, "0xabcdef0000000000000000000000000000000001", u.WalletAddress)
	assert.Equal(t, common.DefaultRole, u.Role)
	assert.Equal(t, time.UTC, u.CreatedAt.Location())
	assert.Equal(t, 123*time.Millisecond, time.Duration(u.CreatedAt.Nanosecond()))
}

func TestUserUpdate_ApplyToIgnoresImmutableFields(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	u := &User{WalletAddress: "0xaa", Role: "User", CreatedAt: created}

	upd := UserUpdate{
		WalletAddress: ptr("0xbb"),
		CreatedAt:     ptr(time.Now()),
		FirstName:     ptr("Ada"),
		Role:          ptr("Admin"),
	}
	upd.ApplyTo(u)

	assert.Equal(t, "0xaa", u.WalletAddress)
	assert.Equal(t, created, u.CreatedAt)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "Admin", u.Role)
	assert.Empty(t, u.LastName)
}

func TestUserUpdate_ColumnsAndIsEmpty(t *testing.T) {
	assert.True(t, UserUpdate{WalletAddress: ptr("0x1")}.IsEmpty())

	cols, vals := UserUpdate{Email: ptr("a@b.c"), FirstName: ptr("Ada")}.Columns()
	assert.Equal(t, []string{"first_name", "email"}, cols)
	assert.Equal(t, []any{"Ada", "a@b.c"}, vals)
}

func TestClone_IsIndependent(t *testing.T) {
	u := &User{WalletAddress: "0xaa", FirstName: "A"}
	c := u.Clone()
	c.FirstName = "B"
	assert.Equal(t, "A", u.FirstName)

	var nilUser *User
	require.Nil(t, nilUser.Clone())
}

func TestAddressHelpers(t *testing.T) {
	valid := "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	assert.True(t, IsValidWalletAddress(valid))
	assert.False(t, IsValidWalletAddress("0x123"))
	assert.False(t, IsValidWalletAddress("AbCdEf0123456789abcdef0123456789ABCDEF0123"))
	assert.True(t, SameAddress(valid, "0xabcdef0123456789ABCDEF0123456789abcdef01"))
	assert.False(t, SameAddress(valid, "0xabcdef0123456789abcdef0123456789abcdef02"))
}

func TestProfileRules_Validate(t *testing.T) {
	rules := ProfileRules{RequireName: true, RequireEmail: true, CompanyNameRequired: true, AvailableRoles: []string{"User", "Admin"}}

	tests := []struct {
		name    string
		p       Profile
		wantErr bool
	}{
		{name: "individual ok", p: Profile{AccountType: AccountIndividual, FirstName: "Ada", LastName: "L", Email: "a@b.c"}},
		{name: "individual missing name", p: Profile{AccountType: AccountIndividual, FirstName: "Ada", Email: "a@b.c"}, wantErr: true},
		{name: "company ok", p: Profile{AccountType: AccountCompany, CompanyName: "Acme", Email: "a@b.c", Role: "Admin"}},
		{name: "company missing name", p: Profile{AccountType: AccountCompany, Email: "a@b.c"}, wantErr: true},
		{name: "missing email", p: Profile{AccountType: AccountCompany, CompanyName: "Acme"}, wantErr: true},
		{name: "role not offered", p: Profile{AccountType: AccountCompany, CompanyName: "Acme", Email: "a@b.c", Role: "Root"}, wantErr: true},
		{name: "unknown type", p: Profile{AccountType: "robot"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Validate(tt.p)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrorValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProfile_ToNewUserData_SplitsByAccountType(t *testing.T) {
	p := Profile{AccountType: AccountCompany, FirstName: "Ada", LastName: "L", CompanyName: " Acme ", Email: "a@b.c"}
	d := p.ToNewUserData("0xaa")
	assert.Equal(t, NewUserData{WalletAddress: "0xaa", CompanyName: "Acme", Email: "a@b.c"}, d)

	p.AccountType = AccountIndividual
	d = p.ToNewUserData("0xaa")
	assert.Equal(t, NewUserData{WalletAddress: "0xaa", FirstName: "Ada", LastName: "L", Email: "a@b.c"}, d)
}
