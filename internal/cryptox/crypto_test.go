package cryptox

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"github.com/dmitrijs2005/walletauth/internal/common"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, KeySize)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	plain := []byte(`{"users":[{"wallet_address":"0xaa"}]}`)

	env, err := Seal(testKey(1), plain)
	require.NoError(t, err)

	var e Envelope
	require.NoError(t, json.Unmarshal(env, &e))
	assert.Len(t, e.IV, 2*IVSize)
	assert.Len(t, e.AuthTag, 2*TagSize)
	assert.Len(t, e.Data, 2*len(plain))

	got, err := Open(testKey(1), env)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestSeal_FreshIVPerCall(t *testing.T) {
	a, err := Seal(testKey(1), []byte("same"))
	require.NoError(t, err)
	b, err := Seal(testKey(1), []byte("same"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_WrongKeyFails(t *testing.T) {
	env, err := Seal(testKey(1), []byte("secret"))
	require.NoError(t, err)

	got, err := Open(testKey(2), env)
	require.ErrorIs(t, err, common.ErrorDecrypt)
	assert.Nil(t, got)
}

func TestOpen_TamperedTagOrDataFails(t *testing.T) {
	env, err := Seal(testKey(1), []byte("secret"))
	require.NoError(t, err)

	var e Envelope
	require.NoError(t, json.Unmarshal(env, &e))

	flip := func(s string) string {
		b, _ := hex.DecodeString(s)
		b[0] ^= 0xff
		return hex.EncodeToString(b)
	}

	badTag := e
	badTag.AuthTag = flip(e.AuthTag)
	raw, _ := json.Marshal(badTag)
	_, err = Open(testKey(1), raw)
	require.ErrorIs(t, err, common.ErrorDecrypt)

	badData := e
	badData.Data = flip(e.Data)
	raw, _ = json.Marshal(badData)
	_, err = Open(testKey(1), raw)
	require.ErrorIs(t, err, common.ErrorDecrypt)
}

func TestOpen_MalformedEnvelope(t *testing.T) {
	for _, in := range []string{`not json`, `{"iv":"zz","data":"","authTag":""}`, `{"iv":"00","data":"","authTag":""}`} {
		_, err := Open(testKey(1), []byte(in))
		require.ErrorIs(t, err, common.ErrorDecrypt, in)
	}
}

func TestSeal_RejectsShortKey(t *testing.T) {
	_, err := Seal([]byte("short"), []byte("x"))
	require.Error(t, err)
}

func TestResolveKey(t *testing.T) {
	hexKey := strings.Repeat("ab", KeySize)

	key, src, err := ResolveKey(hexKey, true)
	require.NoError(t, err)
	assert.Equal(t, KeyFromHex, src)
	assert.Equal(t, bytes.Repeat([]byte{0xab}, KeySize), key)

	k1, src, err := ResolveKey("correct horse battery staple", true)
	require.NoError(t, err)
	assert.Equal(t, KeyFromPassphrase, src)
	assert.Len(t, k1, KeySize)
	k2, _, _ := ResolveKey("correct horse battery staple", true)
	assert.Equal(t, k1, k2, "passphrase derivation must be deterministic")
	assert.Equal(t, argon2.IDKey([]byte("correct horse battery staple"), []byte(passphraseSalt), 1, 64*1024, 4, KeySize), k1)
	k3, _, _ := ResolveKey("correct horse battery stapler", true)
	assert.NotEqual(t, k1, k3)

	eph, src, err := ResolveKey("", false)
	require.NoError(t, err)
	assert.Equal(t, KeyEphemeral, src)
	assert.Len(t, eph, KeySize)

	_, _, err = ResolveKey("", true)
	require.ErrorIs(t, err, common.ErrorMissingConfig)
}
