// Package crypto holds digest helpers for secrets that are looked up but never read back.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the SHA-256 hex digest of value.
// Refresh tokens are stored this way so a database leak cannot replay them.
func Hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns 2*n hex characters from crypto/rand.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
