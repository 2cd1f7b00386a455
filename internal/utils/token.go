package utils

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for reset tokens
	"encoding/hex"  // hex encoding of random bytes and digests
)

// resetTokenBytes is the amount of entropy in a password-reset token.
const resetTokenBytes = 32

// NewResetToken returns a fresh password-reset token together with the hash
// that should be stored. Only the hash is ever persisted; the raw value is
// handed to the user once, by email.
func NewResetToken() (raw, hash string, err error) {
	raw, err = randomHex(resetTokenBytes)
	if err != nil {
		return "", "", err
	}
	return raw, HashToken(raw), nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.
// Storing only the hash prevents a leaked database row from being replayed.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
