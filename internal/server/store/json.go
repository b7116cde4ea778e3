package store

import (
	"encoding/json"

	"github.com/dmitrijs2005/walletauth/internal/logging"
)

type jsonCodec struct{}

func (jsonCodec) marshal(doc *document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func (jsonCodec) unmarshal(raw []byte, doc *document) error {
	return json.Unmarshal(raw, doc)
}

// JSONStore keeps users in a human-readable JSON file.
type JSONStore struct {
	*fileStore
}

func NewJSONStore(path string, logger logging.Logger) *JSONStore {
	return &JSONStore{fileStore: newFileStore(path, jsonCodec{}, logger)}
}
