package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// generatePlainToken creates a new opaque bearer token. The plaintext is
// handed to the client exactly once; only its hash is persisted.
func generatePlainToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken returns the hex-encoded SHA-256 digest stored in the database.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
