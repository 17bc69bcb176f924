package lexicache

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashText computes the SHA-256 hash of the text.
// The text is hashed as-is: cache keys compare source text by exact equality,
// so callers trim before the key is built, never after.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// CacheKey generates the logical cache key from a source text hash and the
// language pair.
func CacheKey(hash, fromLang, toLang string) string {
	return hash + ":" + fromLang + "|" + toLang
}
