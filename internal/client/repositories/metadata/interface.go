// Package metadata stores small client-side settings as key/value pairs in
// the local SQLite database, such as the remembered wallet address.
package metadata

import "context"

// Keys used by the client.
const (
	KeyWalletAddress = "wallet_address"
)

type Repository interface {
	// Get reports ok=false when the key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
