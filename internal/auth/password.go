package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// The password scheme is fixed by the launcher integration: a 16-byte random
// salt and a SHA-256 digest of "password:salt", both base64-encoded. Hashes
// written by earlier deployments must keep verifying, so the digest is
// deterministic by contract.

const saltSize = 16

// GenerateSalt returns a fresh random salt as a printable base64 string.
func GenerateSalt() (string, error) {
	buf := make([]byte, saltSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// HashPassword derives the stored digest for a password and salt. Identical
// inputs always produce identical output.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + ":" + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// VerifyPassword reports whether password matches the stored hash under the
// stored salt. The comparison is constant-time, and malformed stored
// material counts as a mismatch, never a crash.
func VerifyPassword(password, storedHash, salt string) bool {
	stored, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil {
		return false
	}
	computed := sha256.Sum256([]byte(password + ":" + salt))
	return subtle.ConstantTimeCompare(stored, computed[:]) == 1
}
