package order

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewLineID generates an opaque, globally unique id for a cart line: the
// current unix millisecond plus a random hex suffix.  Uniqueness must hold
// across devices because dispatched-line markers are keyed by it.
func NewLineID() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + hex.EncodeToString(b[:])
}
