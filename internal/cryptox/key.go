package cryptox

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

// passphraseSalt is fixed: the envelope carries no salt.
const passphraseSalt = "walletauth encrypted user store v1"

// Argon2id parameters for passphrase keys.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// KeySource tells how a store key was obtained.
type KeySource string

const (
	KeyFromHex        KeySource = "hex"
	KeyFromPassphrase KeySource = "passphrase"
	KeyEphemeral      KeySource = "ephemeral"
)

// ResolveKey turns the configured secret into a 256-bit key.
//
// A value of exactly 64 hex characters is used as the raw key. Any other
// non-empty value is treated as a passphrase and stretched with Argon2id.
// An empty value yields a random per-process key, unless required is set, in
// which case common.ErrorMissingConfig is returned. Data sealed with an
// ephemeral key cannot be opened after a restart.
func ResolveKey(secret string, required bool) ([]byte, KeySource, error) {
	if secret == "" {
		if required {
			return nil, "", fmt.Errorf("%w: DB_ENCRYPTION_KEY", common.ErrorMissingConfig)
		}
		return common.GenerateRandByteArray(KeySize), KeyEphemeral, nil
	}

	if len(secret) == 2*KeySize {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, KeyFromHex, nil
		}
	}

	key := argon2.IDKey([]byte(secret), []byte(passphraseSalt), argonTime, argonMemory, argonThreads, KeySize)
	return key, KeyFromPassphrase, nil
}
