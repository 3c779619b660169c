package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a best-effort unique identifier, used for socket
// connection IDs. Uniqueness matters only within a single process
// lifetime, so 12 random bytes are plenty.
func NewID() string {
	const size = 12

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err == nil {
		return hex.EncodeToString(buf)
	}

	// crypto/rand failing is effectively fatal elsewhere; a timestamp
	// keeps connection tracking alive regardless.
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
