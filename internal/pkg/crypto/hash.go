// Package crypto provides the small hashing and key helpers shared by the
// blog services.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// TokenFingerprint returns the hex SHA-256 digest of a bearer token. Caches
// and logs carry the fingerprint so the raw credential is never stored.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// EqualSecrets compares two shared secrets in constant time. An empty
// expected secret never matches.
func EqualSecrets(expected, given string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

// ValidFingerprint reports whether s looks like a value produced by
// TokenFingerprint.
func ValidFingerprint(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
