package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashOrRead returns the bcrypt hash of secret, or secret itself when it is already a bcrypt hash.
func HashOrRead(secret string) ([]byte, error) {
	if strings.HasPrefix(secret, "$2a$") || strings.HasPrefix(secret, "$2b$") || strings.HasPrefix(secret, "$2y$") {
		return []byte(secret), nil // already bcrypt
	}
	return bcrypt.GenerateFromPassword([]byte(secret), 10)
}

// MatchesHash reports whether secret matches the bcrypt hash.
func MatchesHash(hash []byte, secret string) bool {
	if len(hash) == 0 || secret == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}
