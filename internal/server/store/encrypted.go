package store

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/cryptox"
	"github.com/dmitrijs2005/walletauth/internal/logging"
)

type encryptedCodec struct {
	key []byte
}

func (c encryptedCodec) marshal(doc *document) ([]byte, error) {
	plain, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plain)
	return cryptox.Seal(c.key, plain)
}

func (c encryptedCodec) unmarshal(raw []byte, doc *document) error {
	plain, err := cryptox.Open(c.key, raw)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plain)
	return json.Unmarshal(plain, doc)
}

// EncryptedJSONStore is a JSONStore whose file is an AES-256-GCM envelope.
type EncryptedJSONStore struct {
	*fileStore
	keySource cryptox.KeySource
}

// NewEncryptedJSONStore resolves secret into a key (see cryptox.ResolveKey).
// With no secret and requireKey unset it falls back to an ephemeral key and
// logs a warning: such a file is unreadable after a restart.
func NewEncryptedJSONStore(path, secret string, requireKey bool, logger logging.Logger) (*EncryptedJSONStore, error) {
	key, source, err := cryptox.ResolveKey(secret, requireKey)
	if err != nil {
		return nil, err
	}
	if source == cryptox.KeyEphemeral {
		logger.Warn(context.Background(),
			"DB_ENCRYPTION_KEY is not set, using an ephemeral key; encrypted data will be unreadable after restart",
			"path", path)
	}

	return &EncryptedJSONStore{
		fileStore: newFileStore(path, encryptedCodec{key: key}, logger),
		keySource: source,
	}, nil
}

// KeySource reports how the store key was obtained.
func (s *EncryptedJSONStore) KeySource() cryptox.KeySource {
	return s.keySource
}
