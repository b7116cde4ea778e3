// Package cryptox implements the at-rest encryption used by the encrypted
// JSON user store: AES-256-GCM with a fresh random IV per write, serialized
// as {"iv","data","authTag"} hex strings.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

const (
	// KeySize is the AES-256 key length in bytes.
	KeySize = 32
	// IVSize matches the 16-byte IVs of existing encrypted store files.
	IVSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16
)

// Envelope is the on-disk form of an encrypted document.
type Envelope struct {
	IV      string `json:"iv"`
	Data    string `json:"data"`
	AuthTag string `json:"authTag"`
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// Seal encrypts plaintext under key and returns the JSON envelope.
func Seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("read iv: %w", err)
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	return json.Marshal(Envelope{
		IV:      hex.EncodeToString(iv),
		Data:    hex.EncodeToString(ct),
		AuthTag: hex.EncodeToString(tag),
	})
}

// Open decrypts a JSON envelope produced by Seal. A wrong key, a tampered
// ciphertext or a malformed envelope yields an error wrapping
// common.ErrorDecrypt; partial plaintext is never returned.
func Open(key, envelope []byte) ([]byte, error) {
	var env Envelope
	if err := json.Unmarshal(envelope, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", common.ErrorDecrypt, err)
	}

	iv, err := hex.DecodeString(env.IV)
	if err != nil || len(iv) != IVSize {
		return nil, fmt.Errorf("%w: bad iv", common.ErrorDecrypt)
	}
	ct, err := hex.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: bad data", common.ErrorDecrypt)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil || len(tag) != TagSize {
		return nil, fmt.Errorf("%w: bad auth tag", common.ErrorDecrypt)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorDecrypt, err)
	}

	plaintext, err := gcm.Open(nil, iv, append(ct, tag...), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorDecrypt, err)
	}
	return plaintext, nil
}
