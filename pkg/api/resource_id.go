package api

import (
	"encoding/base32"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
)

// IDLength is the length of every identifier NewID returns.
const IDLength = 32

const idAlphabet = "0123456789abcdefghijklmnopqrstuv"

var idEncoding = base32.NewEncoding(idAlphabet).WithPadding(base32.NoPadding)

// NewID returns a KSUID in lowercase base32. Resource, pulse and task ids all
// come from here, so they double as DNS-1123 names for adapter Jobs.
func NewID() string {
	return idEncoding.EncodeToString(ksuid.New().Bytes())
}

// ValidID reports whether id has the shape NewID produces. Lookups of any
// other id can be answered as not found without a query.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for _, c := range id {
		if !strings.ContainsRune(idAlphabet, c) {
			return false
		}
	}
	return true
}

// IDTime returns the second-precision creation time embedded in id.
func IDTime(id string) (time.Time, bool) {
	if !ValidID(id) {
		return time.Time{}, false
	}
	raw, err := idEncoding.DecodeString(id)
	if err != nil {
		return time.Time{}, false
	}
	k, err := ksuid.FromBytes(raw)
	if err != nil {
		return time.Time{}, false
	}
	return k.Time(), true
}
