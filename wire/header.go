// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

// HeaderSize is the fixed encoded length of a BlockHeader: every field is
// fixed-width, so headers never need a length prefix (spec §6's
// byte-exact wire codec requirement).
const HeaderSize = 8 + chainhash.HashSize + chainhash.HashSize + 8 + chainhash.HashSize + 32 + 8 + 8 + 32 + 32

// SerializeHeader writes header to w in the canonical layout: Sequence,
// PreviousBlockHash, NoteCommitment.Root, NoteCommitment.Size,
// TransactionCommitment, Target, Randomness, Timestamp (unix
// nanoseconds), Graffiti, Work. Integers are little-endian, except
// Target and Work, which are written as 32-byte big-endian values.
func SerializeHeader(w io.Writer, header *types.BlockHeader) error {
	buf := make([]byte, HeaderSize)
	off := 0

	binary.LittleEndian.PutUint64(buf[off:], header.Sequence)
	off += 8
	copy(buf[off:], header.PreviousBlockHash[:])
	off += chainhash.HashSize
	copy(buf[off:], header.NoteCommitment.Root[:])
	off += chainhash.HashSize
	binary.LittleEndian.PutUint64(buf[off:], header.NoteCommitment.Size)
	off += 8
	copy(buf[off:], header.TransactionCommitment[:])
	off += chainhash.HashSize

	targetBytes := header.Target.Bytes32()
	copy(buf[off:], targetBytes[:])
	off += 32

	binary.LittleEndian.PutUint64(buf[off:], header.Randomness)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(header.Timestamp.UnixNano()))
	off += 8
	copy(buf[off:], header.Graffiti[:])
	off += 32

	workBytes := header.Work.Bytes32()
	copy(buf[off:], workBytes[:])
	off += 32

	if off != HeaderSize {
		return fmt.Errorf("wire: internal error, wrote %d of %d header bytes", off, HeaderSize)
	}
	_, err := w.Write(buf)
	return err
}

// DeserializeHeader reads a BlockHeader from r in the layout
// SerializeHeader writes.
func DeserializeHeader(r io.Reader) (*types.BlockHeader, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	off := 0
	header := &types.BlockHeader{}

	header.Sequence = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	if err := header.PreviousBlockHash.SetBytes(buf[off : off+chainhash.HashSize]); err != nil {
		return nil, err
	}
	off += chainhash.HashSize
	if err := header.NoteCommitment.Root.SetBytes(buf[off : off+chainhash.HashSize]); err != nil {
		return nil, err
	}
	off += chainhash.HashSize
	header.NoteCommitment.Size = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	if err := header.TransactionCommitment.SetBytes(buf[off : off+chainhash.HashSize]); err != nil {
		return nil, err
	}
	off += chainhash.HashSize

	var target [32]byte
	copy(target[:], buf[off:off+32])
	header.Target = *new(uint256.Int).SetBytes32(target[:])
	off += 32

	header.Randomness = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	header.Timestamp = time.Unix(0, int64(binary.LittleEndian.Uint64(buf[off:]))).UTC()
	off += 8
	copy(header.Graffiti[:], buf[off:off+32])
	off += 32

	var work [32]byte
	copy(work[:], buf[off:off+32])
	header.Work = *new(uint256.Int).SetBytes32(work[:])
	off += 32

	return header, nil
}
