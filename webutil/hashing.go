package webutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashPassword derives the opaque credential stored for a user from their
// submitted password. Returned as a hexadecimal string.
func HashPassword(password string) (string, error) {
	hasher := sha256.New()
	if _, err := hasher.Write([]byte(password)); err != nil {
		return "", fmt.Errorf("failed to write password to hasher: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(password, storedHash string) bool {
	computed, err := HashPassword(password)
	if err != nil {
		return false
	}
	return computed == storedHash
}
