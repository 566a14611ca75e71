// Package cache provides the layered response cache: a memory layer for hot
// repeats and a disk layer so repeated fact-checks survive process restarts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/veridex/internal/model"
)

// Cache is the storage interface shared by the memory, disk, and layered
// implementations. Values are opaque serialized responses.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// RequestKey derives the cache key for a fact-check request. Two requests
// with the same claim text, image bytes, and source platform hit the same
// entry; the request ID deliberately stays out so retries hit the cache.
func RequestKey(req *model.Request) string {
	h := sha256.New()
	h.Write([]byte(req.ClaimText))
	h.Write([]byte{0})
	if len(req.ImageData) > 0 {
		imageDigest := sha256.Sum256(req.ImageData)
		h.Write(imageDigest[:])
	}
	h.Write([]byte{0})
	h.Write([]byte(req.SourcePlatform))
	return "veridex:v1:" + hex.EncodeToString(h.Sum(nil))
}
