// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainhash provides the opaque 32-byte Hash identifier used
// throughout the node core for block headers, transactions, note
// commitments and nullifiers.
package chainhash

import (
	"encoding/hex"
	"fmt"
)

// HashSize is the number of bytes in a Hash.
const HashSize = 32

// MaxHashStringSize is the maximum length of a Hash hash string.
const MaxHashStringSize = HashSize * 2

// ErrHashStrSize describes an error that indicates the caller specified
// a hash string that has too many characters.
var ErrHashStrSize = fmt.Errorf("max hash string length is %v bytes", MaxHashStringSize)

// Hash is an opaque 32-byte identifier. Block headers, transactions, note
// commitments and nullifiers are all addressed by a Hash.
type Hash [HashSize]byte

// String returns the Hash as a hex-encoded string, printed in big-endian
// (human reading) order for parity with the byte order used on the wire.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// CloneBytes returns a copy of the bytes backing the hash.
func (h *Hash) CloneBytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// SetBytes sets the bytes which represent the hash. An error is returned if
// the number of bytes passed in is not HashSize.
func (h *Hash) SetBytes(newHash []byte) error {
	if len(newHash) != HashSize {
		return fmt.Errorf("invalid hash length of %v, want %v", len(newHash), HashSize)
	}
	copy(h[:], newHash)
	return nil
}

// IsEqual returns true if the hash is equal to the target. Two hashes are
// equal if all bytes are identical; a nil receiver or target is never equal
// to a non-nil hash, and two nils are equal.
func (h *Hash) IsEqual(target *Hash) bool {
	if h == nil && target == nil {
		return true
	}
	if h == nil || target == nil {
		return false
	}
	return *h == *target
}

// IsZero reports whether the hash is the all-zero value, used as the
// previousBlockHash sentinel for genesis and as the empty-tree root.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// NewHash returns a new Hash from a byte slice. An error is returned if the
// number of bytes passed in is not HashSize.
func NewHash(newHash []byte) (*Hash, error) {
	var h Hash
	if err := h.SetBytes(newHash); err != nil {
		return nil, err
	}
	return &h, nil
}

// NewHashFromStr creates a Hash from a hex hash string.
func NewHashFromStr(hash string) (*Hash, error) {
	if len(hash) > MaxHashStringSize {
		return nil, ErrHashStrSize
	}
	buf, err := hex.DecodeString(hash)
	if err != nil {
		return nil, err
	}
	var h Hash
	copy(h[HashSize-len(buf):], buf)
	return &h, nil
}

// Less reports whether h sorts before other using big-endian byte order,
// used to break cumulative-work ties in fork choice (spec §3 invariant 4).
func Less(h, other Hash) bool {
	for i := 0; i < HashSize; i++ {
		if h[i] != other[i] {
			return h[i] < other[i]
		}
	}
	return false
}

// MarshalJSON implements json.Marshaler, encoding the hash as a hex string.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler, decoding a hex string.
func (h *Hash) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("chainhash: invalid JSON hash %q", data)
	}
	decoded, err := NewHashFromStr(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*h = *decoded
	return nil
}
