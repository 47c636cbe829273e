// Package hash provides small SHA-256 helpers shared by the fingerprinting
// and tape layers.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// StringHash computes the hex-encoded SHA-256 digest of a string.
func StringHash(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// BytesHash computes the hex-encoded SHA-256 digest of a byte slice.
func BytesHash(input []byte) string {
	sum := sha256.Sum256(input)
	return hex.EncodeToString(sum[:])
}
