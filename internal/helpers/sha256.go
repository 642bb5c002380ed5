package helpers

import (
	"crypto/sha256"
	"encoding/hex"
)

// shortIDLen is the number of hex characters kept by ShortID.
const shortIDLen = 12

// SHA256 returns the hex encoded SHA-256 digest of input.
func SHA256(input string) string {
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// ShortID returns a truncated SHA-256 digest, used to tag expression text in
// logs without writing the (possibly large) text itself.
func ShortID(input string) string {
	return SHA256(input)[:shortIDLen]
}
