package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewLocalID creates a new ULID string. Documents inserted locally get one of
// these so they are addressable before sync; it doubles as the tempId in the
// creating operation until reconciliation swaps it for the server id.
func NewLocalID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// IsDurableID reports whether id is a server-assigned MongoDB ObjectID
// (24 lowercase hex chars). Anything else is treated as a client ULID.
func IsDurableID(id string) bool {
	if len(id) != 24 {
		return false
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}
