// Package api is the terminal client's view of the wallet-auth server.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/models"
	"github.com/dmitrijs2005/walletauth/internal/netx"
)

// Client is the set of server calls the flow controller and session use.
type Client interface {
	Nonce(ctx context.Context) (string, error)
	Verify(ctx context.Context, nonce string) (*VerifyResponse, error)
	ActiveUser(ctx context.Context, walletAddress string) (*models.User, error)
	CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error)
}

// VerifyResponse mirrors the server's verify body. A 401 from the server
// decodes to Authenticated=false with no error.
type VerifyResponse struct {
	Authenticated bool         `json:"authenticated"`
	UserAddress   string       `json:"userAddress,omitempty"`
	User          *models.User `json:"user,omitempty"`
	Error         string       `json:"error,omitempty"`
	StoreError    string       `json:"storeError,omitempty"`
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the server at baseURL.
func New(baseURL string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) url(path string) string {
	return c.baseURL + path
}

func (c *httpClient) Nonce(ctx context.Context) (string, error) {
	var resp struct {
		Nonce string `json:"nonce"`
	}
	if _, err := netx.DoJSON(ctx, c.http, http.MethodGet, c.url("/api/wallet-auth"), nil, nil, &resp); err != nil {
		return "", fmt.Errorf("request nonce: %w", err)
	}
	if resp.Nonce == "" {
		return "", fmt.Errorf("request nonce: %w: empty nonce", common.ErrorUpstream)
	}
	return resp.Nonce, nil
}

// Verify returns common.ErrorForbidden for a wallet refused by the server's
// custom validation.
func (c *httpClient) Verify(ctx context.Context, nonce string) (*VerifyResponse, error) {
	var resp VerifyResponse
	_, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/api/wallet-auth"), nil,
		map[string]string{"nonce": nonce}, &resp)

	switch netx.StatusCode(err) {
	case 0:
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		return &resp, nil
	case http.StatusUnauthorized:
		var body VerifyResponse
		netx.DecodeErrorBody(err, &body)
		body.Authenticated = false
		return &body, nil
	case http.StatusForbidden:
		return nil, fmt.Errorf("verify: %w", common.ErrorForbidden)
	}
	return nil, fmt.Errorf("verify: %w: %v", common.ErrorUpstream, err)
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

// ActiveUser returns common.ErrorNotFound when the server has no profile for
// the wallet.
func (c *httpClient) ActiveUser(ctx context.Context, walletAddress string) (*models.User, error) {
	var resp userEnvelope
	_, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/api/users/active"), nil,
		map[string]string{"wallet_address": walletAddress}, &resp)
	if err != nil {
		if netx.StatusCode(err) == http.StatusNotFound {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("active user: %w", err)
	}
	if resp.User == nil {
		return nil, common.ErrorNotFound
	}
	return resp.User, nil
}

// CreateUser maps 409 to common.ErrorAlreadyExists and 400 to
// common.ErrorValidation.
func (c *httpClient) CreateUser(ctx context.Context, data models.NewUserData) (*models.User, error) {
	var resp userEnvelope
	_, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.url("/api/users/create"), nil, data, &resp)
	if err != nil {
		var se *netx.StatusError
		if errors.As(err, &se) {
			switch se.StatusCode {
			case http.StatusConflict:
				return nil, common.ErrorAlreadyExists
			case http.StatusBadRequest:
				return nil, fmt.Errorf("%w: %s", common.ErrorValidation, se.Message)
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if resp.User == nil {
		return nil, fmt.Errorf("create user: %w: empty response", common.ErrorUpstream)
	}
	return resp.User, nil
}
