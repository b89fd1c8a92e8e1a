package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// MinSecretBytes is the shortest secret GenerateSecret will produce.
const MinSecretBytes = 16

// DefaultSecretBytes is used for JWT signing secrets and service keys.
const DefaultSecretBytes = 32

// ErrSecretTooShort is returned when fewer than MinSecretBytes are requested.
var ErrSecretTooShort = errors.New("secret must be at least 16 bytes")

// GenerateSecret returns n random bytes, hex encoded.
func GenerateSecret(n int) (string, error) {
	if n < MinSecretBytes {
		return "", ErrSecretTooShort
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
