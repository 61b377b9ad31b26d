// Package otpcode generates and digests one-time passcodes.
//
// Codes are drawn from crypto/rand, never a general-purpose PRNG. They are
// stored only as SHA-256 digests: codes are short-lived, rate-limited and
// attempt-capped, so a fast digest is the right trade-off — an adaptive hash
// belongs to long-lived credentials (see the password package).
package otpcode

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
)

// Generate returns a uniformly random numeric code of exactly length digits,
// i.e. a value in [10^(length-1), 10^length - 1]. The first digit is never
// zero so the code survives being treated as a number.
func Generate(length int) (string, error) {
	if length < 4 || length > 10 {
		return "", fmt.Errorf("code length %d out of range [4,10]", length)
	}
	lo := int64(1)
	for i := 1; i < length; i++ {
		lo *= 10
	}
	// Width of the range is 9*lo; rand.Int is uniform over [0, 9*lo).
	n, err := rand.Int(rand.Reader, big.NewInt(9*lo))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strconv.FormatInt(lo+n.Int64(), 10), nil
}

// Hash returns the hex-encoded SHA-256 digest of a code. Deterministic, so
// the stored digest can be matched against a freshly hashed submission.
func Hash(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// Match compares a stored digest against a candidate code in constant time.
func Match(digest, code string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(Hash(code))) == 1
}
