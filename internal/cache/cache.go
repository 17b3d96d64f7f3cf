package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching AI extraction results
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a key from the provider, model and submitted text, so a
// configuration change never serves results produced by another model.
// The text itself is only stored as a digest.
func CacheKey(provider, model, text string) string {
	h := sha256.New()
	for _, part := range []string{provider, model, text} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "physioform:v1:" + hex.EncodeToString(h.Sum(nil))
}
