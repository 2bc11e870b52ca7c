package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NewOrderID builds an order identifier that sorts by creation time and stays
// collision resistant when two fulfillments land in the same second: the
// suffix hashes the timestamp together with random bytes.
func NewOrderID(now time.Time) string {
	ts := now.UTC().Format("20060102150405")
	salt := make([]byte, 8)
	_, _ = rand.Read(salt)
	sum := sha256.Sum256(append([]byte(ts), salt...))
	return "ORD-" + ts + "-" + hex.EncodeToString(sum[:3])
}
