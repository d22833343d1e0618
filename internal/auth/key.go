// Package auth issues and validates the API keys that authenticate webhook
// callers. Keys are random tokens of the form "rtk_<random>"; only a SHA-256
// digest is ever stored, so validation is a digest lookup and no plaintext
// comparison happens anywhere.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const (
	keyAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyRandomLen = 32

	// KeyPrefix marks roi-sheet keys so a leaked token is identifiable.
	KeyPrefix = "rtk_"

	// displayPrefixLen is how much of the raw key is kept for display.
	displayPrefixLen = 12
)

// GenerateKey returns new random key material.
func GenerateKey() (string, error) {
	buf := make([]byte, keyRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return KeyPrefix + string(buf), nil
}

// Digest returns the hex SHA-256 of raw key material. This is the stored and
// looked-up form of a key.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// DisplayPrefix returns the leading characters of a raw key, safe to show in
// key listings.
func DisplayPrefix(raw string) string {
	if len(raw) <= displayPrefixLen {
		return raw
	}
	return raw[:displayPrefixLen]
}
