package security

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptString seals plaintext with the configured provider credentials
// key and returns base64(nonce || ciphertext).
func EncryptString(plaintext string) (string, error) {
	aead, err := newAEAD()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce generation failed: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptString opens a value produced by EncryptString.
func DecryptString(sealed string) (string, error) {
	aead, err := newAEAD()
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("base64 decode failed: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("sealed value shorter than nonce")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("open failed: %w", err)
	}
	return string(plaintext), nil
}

func newAEAD() (cipher.AEAD, error) {
	key, err := base64.StdEncoding.DecodeString(GetConfig().ProviderCRKey)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_CREDENTIALS_KEY: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("PROVIDER_CREDENTIALS_KEY must decode to %d bytes", chacha20poly1305.KeySize)
	}
	return chacha20poly1305.New(key)
}
