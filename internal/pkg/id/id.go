package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID for a new user record. ULIDs sort by creation time,
// which keeps the users table partition keys roughly chronological.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
