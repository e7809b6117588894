// Package checksum computes the content fingerprints used as document ETags.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag formats sum as a strong HTTP entity tag.
func ETag(sum string) string {
	return `"` + sum + `"`
}

// Matches reports whether data satisfies an If-Match value: "*", a bare
// checksum, or a list of entity tags (`"abc"`, `W/"abc"`).
func Matches(data []byte, ifMatch string) bool {
	sum := Sum(data)
	for _, tag := range strings.Split(ifMatch, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		tag = strings.Trim(strings.TrimPrefix(tag, "W/"), `"`)
		if tag == sum {
			return true
		}
	}
	return false
}
