package config

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// SharedKey decodes cfg's hex-encoded key and validates its length. An
// empty or malformed key is a configuration error, not a runtime one: it is
// caught before any connection is attempted.
func (c *Configuration) SharedKey() ([]byte, error) {
	if c.SharedKeyHex == "" {
		return nil, fmt.Errorf("config: SharedKeyHex is empty")
	}
	key, err := hex.DecodeString(c.SharedKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: SharedKeyHex is not valid hex: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("config: SharedKeyHex decodes to %d bytes, want %d", len(key), chacha20poly1305.KeySize)
	}
	return key, nil
}
