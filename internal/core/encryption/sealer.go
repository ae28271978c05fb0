// Package encryption seals chunk content at rest with AES-256-GCM.
//
// A sealed value is "<ciphertext hex>.<nonce hex>". Values that do not have
// that shape are treated as legacy plaintext and returned unchanged by Open.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/markdave123-py/docscope/internal/core"
)

const (
	KeyLength   = 32
	nonceLength = 12
	separator   = "."
)

// Sealer encrypts and decrypts chunk content. It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeyLength {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeyLength, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, nonceLength)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts value with a fresh random nonce. Empty input is returned as is.
func (s *Sealer) Seal(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrContentEncryption, err)
	}
	ciphertext := s.aead.Seal(nil, nonce, []byte(value), nil)
	return hex.EncodeToString(ciphertext) + separator + hex.EncodeToString(nonce), nil
}

// Open decrypts a sealed value. A value that parses as sealed but fails
// authentication returns core.ErrContentDecryption; it is never mapped to "".
func (s *Sealer) Open(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	ciphertext, nonce, ok := parseSealed(value)
	if !ok || len(nonce) != nonceLength {
		return value, nil
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrContentDecryption, err)
	}
	return string(plaintext), nil
}

func parseSealed(value string) (ciphertext, nonce []byte, ok bool) {
	i := strings.LastIndex(value, separator)
	if i <= 0 || i == len(value)-1 {
		return nil, nil, false
	}
	ciphertext, err := hex.DecodeString(value[:i])
	if err != nil {
		return nil, nil, false
	}
	nonce, err = hex.DecodeString(value[i+1:])
	if err != nil {
		return nil, nil, false
	}
	return ciphertext, nonce, true
}
