// Package zerobrix is a client of the ZeroBrix wallet verification API.
//
// The API is an opaque collaborator: it issues one-time nonces for a smart
// contract and later reports whether a wallet has completed the matching
// on-chain transaction.
package zerobrix

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/netx"
)

const (
	actionGenerateNonce        = "generateNonce"
	actionVerifyAuthentication = "verifyAuthentication"

	DefaultTimeout = 15 * time.Second
)

// Verifier is what the wallet-auth service needs from the upstream API.
type Verifier interface {
	GenerateNonce(ctx context.Context) (string, error)
	VerifyAuthentication(ctx context.Context, nonce string) (*Verification, error)
}

// Verification is the upstream answer for a nonce.
type Verification struct {
	Authenticated bool   `json:"authenticated"`
	UserAddress   string `json:"userAddress"`
}

type Client struct {
	baseURL    string
	apiKey     string
	contractID string
	http       *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client (DefaultTimeout, no retries).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New fails with common.ErrorMissingConfig when any setting is empty.
func New(baseURL, apiKey, contractID string, opts ...Option) (*Client, error) {
	missing := []string{}
	if strings.TrimSpace(baseURL) == "" {
		missing = append(missing, "ZEROBRIX_API_URL")
	}
	if strings.TrimSpace(apiKey) == "" {
		missing = append(missing, "ZEROBRIX_API_KEY")
	}
	if strings.TrimSpace(contractID) == "" {
		missing = append(missing, "AUTH_CONTRACT_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrorMissingConfig, strings.Join(missing, ", "))
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		contractID: contractID,
		http:       &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) header() http.Header {
	h := http.Header{}
	h.Set(common.APIKeyHeaderName, c.apiKey)
	return h
}

// GenerateNonce asks the API for a fresh challenge.
func (c *Client) GenerateNonce(ctx context.Context) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: bad api url: %v", common.ErrorUpstream, err)
	}
	q := u.Query()
	q.Set("action", actionGenerateNonce)
	q.Set("contractId", c.contractID)
	u.RawQuery = q.Encode()

	var resp struct {
		Nonce string `json:"nonce"`
	}
	if _, err := netx.DoJSON(ctx, c.http, http.MethodGet, u.String(), c.header(), nil, &resp); err != nil {
		return "", fmt.Errorf("%w: generate nonce: %v", common.ErrorUpstream, err)
	}
	if resp.Nonce == "" {
		return "", fmt.Errorf("%w: generate nonce: empty nonce", common.ErrorUpstream)
	}
	return resp.Nonce, nil
}

// VerifyAuthentication reports whether nonce has been signed by a wallet.
// A negative answer is a result, not an error.
func (c *Client) VerifyAuthentication(ctx context.Context, nonce string) (*Verification, error) {
	body := map[string]string{
		"action":     actionVerifyAuthentication,
		"contractId": c.contractID,
		"nonce":      nonce,
	}

	var v Verification
	if _, err := netx.DoJSON(ctx, c.http, http.MethodPost, c.baseURL, c.header(), body, &v); err != nil {
		return nil, fmt.Errorf("%w: verify authentication: %v", common.ErrorUpstream, err)
	}
	return &v, nil
}
