package eztag

import (
	"encoding/base32"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// HashString returns a short, stable fingerprint of str.
func HashString(str string) string {
	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64String(str))
	return base32.StdEncoding.EncodeToString(sum[:])[:8]
}
