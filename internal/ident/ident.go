// Package ident derives stable numeric identifiers from logical keys.
package ident

import (
	"crypto/sha256"
	"encoding/binary"
)

// StableID generates a deterministic 64-bit identifier from a string key.
// It takes the first 8 bytes of the SHA-256 digest, big-endian, so the same
// key always maps to the same id across processes and runs. Vector index
// writes keyed on this id are therefore idempotent upserts.
func StableID(key string) int64 {
	digest := sha256.Sum256([]byte(key))
	return int64(binary.BigEndian.Uint64(digest[:8]))
}
