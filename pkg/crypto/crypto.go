package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"
)

// TokenCipher encrypts tenant forwarding tokens at rest with AES-256-GCM.
// An empty key yields a pass-through cipher so trial deployments keep
// working without APP_SECRET_KEY set.
type TokenCipher struct {
	key []byte
}

// NewTokenCipher derives a 32-byte AES key from the configured secret.
// Shorter secrets are zero-padded, longer ones truncated.
func NewTokenCipher(secret string) *TokenCipher {
	if secret == "" {
		return &TokenCipher{}
	}
	key := make([]byte, 32)
	copy(key, []byte(secret))
	return &TokenCipher{key: key}
}

// Encrypt returns the base64 encoding of nonce||ciphertext.
func (tc *TokenCipher) Encrypt(plainText string) (string, error) {
	if len(tc.key) == 0 {
		return plainText, nil
	}

	block, err := aes.NewCipher(tc.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Values that do not decode as base64 or are too
// short to carry a nonce are assumed to be legacy plain-text tokens and
// returned unchanged.
func (tc *TokenCipher) Decrypt(cipherText string) (string, error) {
	if len(tc.key) == 0 {
		return cipherText, nil
	}

	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return cipherText, nil
	}

	block, err := aes.NewCipher(tc.key)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return cipherText, nil
	}

	nonce, sealed := data[:nonceSize], data[nonceSize:]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}
