package cli

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/walletauth/internal/client/api"
	"github.com/dmitrijs2005/walletauth/internal/client/config"
	"github.com/dmitrijs2005/walletauth/internal/client/flow"
	"github.com/dmitrijs2005/walletauth/internal/client/localdb"
	"github.com/dmitrijs2005/walletauth/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

const wallet = "0xabc0000000000000000000000000000000000001"

type fakeAPI struct {
	mu       sync.Mutex
	nonceErr error
	verify   *api.VerifyResponse
	active   *models.User
	created  []models.NewUserData
}

func (f *fakeAPI) Nonce(ctx context.Context) (string, error) {
	if f.nonceErr != nil {
		return "", f.nonceErr
	}
	return "abc123", nil
}

func (f *fakeAPI) Verify(ctx context.Context, nonce string) (*api.VerifyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verify == nil {
		return &api.VerifyResponse{}, nil
	}
	return f.verify, nil
}

func (f *fakeAPI) ActiveUser(ctx context.Context, walletAddress string) (*models.User, error) {
	if f.active == nil {
		return nil, common.ErrorNotFound
	}
	return f.active, nil
}

func (f *fakeAPI) CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, data)
	return models.NewUser(data, time.Now()), nil
}

type testApp struct {
	*App
	meta metadata.Repository
	out  *bytes.Buffer
}

func setupApp(t *testing.T, f *fakeAPI, input string) *testApp {
	t.Helper()
	captureOutput(t)

	db, err := localdb.Open(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)

	cfg := &config.Config{
		ServerWalletAddress: "0xrecipient",
		ContractID:          "42",
		TokenID:             "7",
		PollInterval:        5 * time.Millisecond,
		AuthTimeout:         time.Minute,
		Onboarding:          models.ProfileRules{RequireEmail: true},
	}
	out := &bytes.Buffer{}
	a := newApp(cfg, f, db.Metadata, logging.Nop(), strings.NewReader(input), out)
	a.db = db
	t.Cleanup(a.Close)

	return &testApp{App: a, meta: db.Metadata, out: out}
}

func printed(t *testing.T) *[]string {
	t.Helper()
	return captureOutput(t)
}

func TestApp_LoginConfirmExistingUser(t *testing.T) {
	f := &fakeAPI{verify: &api.VerifyResponse{
		Authenticated: true,
		UserAddress:   wallet,
		User:          &models.User{WalletAddress: wallet, FirstName: "Ann", LastName: "Lee"},
	}}
	a := setupApp(t, f, "")
	out := printed(t)
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	assert.True(t, a.session.AuthVisible())
	assert.Equal(t, "(qr)", a.getStatus())
	assert.Contains(t, *out, a.flow.State().QRData)
	assert.Contains(t, a.flow.State().QRData, "nonce_abc123")

	require.NoError(t, a.Confirm(ctx))
	assert.Contains(t, *out, "Signed in as Ann Lee")

	assert.True(t, a.isLoggedIn())
	assert.False(t, a.session.AuthVisible())

	v, ok, err := a.meta.Get(ctx, metadata.KeyWalletAddress)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, wallet, v)

	require.NoError(t, a.Login(ctx))
	assert.Contains(t, *out, "Already signed in. Use 'logout' first.")
}

func TestApp_OnboardingViaProfile(t *testing.T) {
	f := &fakeAPI{verify: &api.VerifyResponse{Authenticated: true, UserAddress: wallet}}
	a := setupApp(t, f, "company\nAcme\nops@acme.test\n")
	out := printed(t)
	ctx := context.Background()

	require.NoError(t, a.Profile(ctx))
	assert.Contains(t, *out, "No profile to complete.")

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Confirm(ctx))
	assert.Equal(t, flow.StageOnboarding, a.flow.State().Stage)
	assert.Contains(t, *out, "Wallet verified. This wallet is new here, type 'profile' to finish signing up.")

	require.NoError(t, a.Profile(ctx))
	assert.Contains(t, *out, "Signed in as Acme")
	require.Len(t, f.created, 1)
	assert.Equal(t, models.NewUserData{WalletAddress: wallet, CompanyName: "Acme", Email: "ops@acme.test"}, f.created[0])
	assert.Contains(t, a.out.String(), "Company name (optional)")
	assert.Contains(t, a.out.String(), "Email\n> ")

	assert.True(t, a.isLoggedIn())
}

func TestApp_ProfileValidationError(t *testing.T) {
	f := &fakeAPI{verify: &api.VerifyResponse{Authenticated: true, UserAddress: wallet}}
	a := setupApp(t, f, "individual\nAnn\nLee\n\n")
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Confirm(ctx))

	err := a.Profile(ctx)
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.Equal(t, flow.StageOnboarding, a.flow.State().Stage)
	assert.Empty(t, f.created)
}

func TestApp_LoginNonceFailure(t *testing.T) {
	a := setupApp(t, &fakeAPI{nonceErr: errors.New("down")}, "")
	out := printed(t)

	require.NoError(t, a.Login(context.Background()))
	assert.Contains(t, *out, "Failed to generate authentication code. Please try again.")
	assert.Equal(t, flow.StageIntro, a.flow.State().Stage)
}

func TestApp_ConfirmWithoutLogin(t *testing.T) {
	a := setupApp(t, &fakeAPI{}, "")
	out := printed(t)

	require.NoError(t, a.Confirm(context.Background()))
	assert.Contains(t, *out, "Nothing to confirm. Use 'login' first.")
}

func TestApp_ConfirmCancelledPausesPolling(t *testing.T) {
	a := setupApp(t, &fakeAPI{}, "")
	require.NoError(t, a.Login(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, a.Confirm(ctx), context.DeadlineExceeded)

	s := a.flow.State()
	assert.Equal(t, flow.StagePolling, s.Stage)
	assert.False(t, s.Polling)

	out := printed(t)
	require.NoError(t, a.Status(context.Background()))
	assert.Contains(t, *out, "Polling is paused, type 'confirm' to resume.")
}

func TestApp_LogoutAndRetry(t *testing.T) {
	f := &fakeAPI{verify: &api.VerifyResponse{
		Authenticated: true, UserAddress: wallet, User: &models.User{WalletAddress: wallet},
	}}
	a := setupApp(t, f, "")
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Confirm(ctx))
	require.True(t, a.isLoggedIn(), "session is updated by the time Confirm returns")

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, flow.StageIntro, a.flow.State().Stage)
	_, ok, err := a.meta.Get(ctx, metadata.KeyWalletAddress)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Login(ctx))
	require.NoError(t, a.Retry(ctx))
	assert.Equal(t, flow.State{Stage: flow.StageIntro}, a.flow.State())
}

func TestApp_RestoreRememberedWallet(t *testing.T) {
	f := &fakeAPI{active: &models.User{WalletAddress: wallet, CompanyName: "Acme"}}
	a := setupApp(t, f, "")
	ctx := context.Background()
	require.NoError(t, a.meta.Set(ctx, metadata.KeyWalletAddress, wallet))

	out := printed(t)
	a.restore(ctx)

	assert.Contains(t, *out, "Welcome back, Acme")
	assert.True(t, a.isLoggedIn())
	assert.Equal(t, "(0xabc0…0001)", a.getStatus())
}

func TestApp_RestoreExpiredWallet(t *testing.T) {
	a := setupApp(t, &fakeAPI{}, "")
	ctx := context.Background()
	require.NoError(t, a.meta.Set(ctx, metadata.KeyWalletAddress, wallet))

	out := printed(t)
	a.restore(ctx)

	assert.Contains(t, *out, "Your previous wallet session has expired, please log in again.")
	assert.False(t, a.isLoggedIn())
}

func TestApp_ShowQROnTerminal(t *testing.T) {
	a := setupApp(t, &fakeAPI{}, "")
	orig := isTerminal
	isTerminal = func(int) bool { return true }
	t.Cleanup(func() { isTerminal = orig })
	a.ttyFd = 1

	a.showQR("payload")
	assert.Greater(t, strings.Count(a.out.String(), "\n"), 10)
}
