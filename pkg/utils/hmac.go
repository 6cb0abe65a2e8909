package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// MessageDigest returns the hex-encoded HMAC-SHA256 of message under key.
func MessageDigest(message, key []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidMAC compares a caller-supplied hex signature against the expected
// HMAC-SHA256 of message under key, in constant time. Malformed input is
// treated as a mismatch, never an error.
func ValidMAC(message []byte, signature string, key []byte) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hmac.Equal(sig, mac.Sum(nil))
}
