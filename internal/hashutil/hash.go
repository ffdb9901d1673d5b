package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// HashStrings returns a SHA256 hash of the provided strings with newline separators.
func HashStrings(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShortHash is the first 16 hex characters of HashStrings.
func ShortHash(parts ...string) string {
	return HashStrings(parts...)[:16]
}

// FormatPoint renders an optional line point for hashing. Absent points hash
// as "-" so they never collide with a real value.
func FormatPoint(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
