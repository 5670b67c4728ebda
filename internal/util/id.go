package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a random 24-character hex identifier. Used for request
// correlation; persisted rows use UUIDs instead.
func NewID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
