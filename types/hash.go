package types

import (
	"encoding/hex"
)

// HashSize is the width of a block or vote hash in bytes.
const HashSize = 32

// Hash is a fixed-width, comparable block identifier. Using a value type
// (rather than a []byte slice) lets Hash serve directly as a map key, which
// the candidate pool and vote tallies both rely on.
type Hash [HashSize]byte

// ZeroHash is the delete sentinel used by hash overrides.
var ZeroHash Hash

// NewHash copies data into a Hash, returning false if the length is wrong.
func NewHash(data []byte) (Hash, bool) {
	var h Hash
	if len(data) != HashSize {
		return h, false
	}
	copy(h[:], data)
	return h, true
}

// IsZero reports whether h is the all-zero sentinel hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the hex encoding of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a fresh copy of the hash bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}
