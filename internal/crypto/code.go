package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

var codeMax = big.NewInt(1_000_000)

// GenerateCode returns a zero-padded six-digit one-time code drawn from
// crypto/rand. big.Int rejection sampling keeps the distribution uniform
// over "000000".."999999".
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeMax)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateSessionID returns a random v4 UUID used as both the store key and
// the client-facing session handle.
func GenerateSessionID() string {
	return uuid.NewString()
}

// SecureCompare reports whether a and b are equal without leaking where they
// first differ. A length mismatch returns false immediately; codes are fixed
// length, so that is not a useful side channel.
func SecureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	var result byte
	for i := 0; i < len(a); i++ {
		result |= a[i] ^ b[i]
	}
	return result == 0
}
