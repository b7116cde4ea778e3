package flow

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/walletauth/internal/client/api"
	"github.com/dmitrijs2005/walletauth/internal/models"
)

// fakeAPI is a scriptable api.Client.
type fakeAPI struct {
	mu sync.Mutex

	nonce    string
	nonceErr error

	// verify is called for every poll; n is the 1-based call number.
	verify      func(n int, nonce string) (*api.VerifyResponse, error)
	verifyCalls int

	created   []models.NewUserData
	createErr error
	active    *models.User
}

func (f *fakeAPI) Nonce(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, f.nonceErr
}

func (f *fakeAPI) Verify(ctx context.Context, nonce string) (*api.VerifyResponse, error) {
	f.mu.Lock()
	f.verifyCalls++
	n := f.verifyCalls
	fn := f.verify
	f.mu.Unlock()

	if fn == nil {
		return &api.VerifyResponse{Authenticated: false}, nil
	}
	return fn(n, nonce)
}

func (f *fakeAPI) ActiveUser(ctx context.Context, walletAddress string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active.Clone(), nil
}

func (f *fakeAPI) CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, data)
	return models.NewUser(data, fixedTime), nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifyCalls
}
