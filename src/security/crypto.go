package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// Wallet seeds are stored encrypted. The key comes from the environment and
// the ciphertext carries its nonce, so a row is self-contained.

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

func loadKey() (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(GetConfig().WalletCRKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode wallet credentials key: %w", err)
	}
	if len(raw) != 32 {
		return nil, errors.New("wallet credentials key must be 32 bytes")
	}

	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// EncryptString seals a secret with the configured key and returns it
// base64-encoded with the nonce prepended.
func EncryptString(plain string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString reverses EncryptString.
func DecryptString(cipher string) (string, error) {
	key, err := loadKey()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(cipher)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < 24 {
		return "", ErrInvalidCiphertext
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])

	plain, ok := secretbox.Open(nil, raw[24:], &nonce, key)
	if !ok {
		return "", ErrInvalidCiphertext
	}

	return string(plain), nil
}
