package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Sealer protects delivery secrets (passwords, license keys, links) at rest.
// aad binds a ciphertext to its row, so a sealed value copied to another order fails to open.
type Sealer interface {
	Seal(plaintext, aad string) (string, error)
	Open(sealed, aad string) (string, error)
}

const (
	gcmPrefix   = "gcm1:"
	plainPrefix = "plain:"
)

var ErrUnsealable = errors.New("sealed value cannot be opened")

// NewSealer returns an AES-GCM sealer for a 16, 24 or 32 byte key, or a
// pass-through sealer when key is empty.
func NewSealer(key string) (Sealer, error) {
	if key == "" {
		return PlainSealer{}, nil
	}
	return NewAESSealer(key)
}

// AESSealer uses AES-GCM with a random nonce per value.
// Format: "gcm1:" + base64(nonce || ciphertext).
type AESSealer struct {
	gcm cipher.AEAD
}

func NewAESSealer(key string) (*AESSealer, error) {
	k := []byte(key)
	n := len(k)
	if n != 16 && n != 24 && n != 32 {
		return nil, fmt.Errorf("encryption key must be 16, 24, or 32 bytes; got %d", n)
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &AESSealer{gcm: gcm}, nil
}

func (s *AESSealer) Seal(plaintext, aad string) (string, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}
	ct := s.gcm.Seal(nonce, nonce, []byte(plaintext), []byte(aad))
	return gcmPrefix + base64.StdEncoding.EncodeToString(ct), nil
}

// Open also accepts values written by PlainSealer, so a key can be introduced on a live table.
func (s *AESSealer) Open(sealed, aad string) (string, error) {
	if strings.HasPrefix(sealed, plainPrefix) {
		return PlainSealer{}.Open(sealed, aad)
	}
	if !strings.HasPrefix(sealed, gcmPrefix) {
		return "", ErrUnsealable
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, gcmPrefix))
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	ns := s.gcm.NonceSize()
	if len(data) < ns {
		return "", ErrUnsealable
	}
	pt, err := s.gcm.Open(nil, data[:ns], data[ns:], []byte(aad))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsealable, err)
	}
	return string(pt), nil
}

// PlainSealer stores values unencrypted; used in development when no key is configured.
type PlainSealer struct{}

func (PlainSealer) Seal(plaintext, _ string) (string, error) { return plainPrefix + plaintext, nil }

func (PlainSealer) Open(sealed, _ string) (string, error) {
	if !strings.HasPrefix(sealed, plainPrefix) {
		return "", ErrUnsealable
	}
	return strings.TrimPrefix(sealed, plainPrefix), nil
}
