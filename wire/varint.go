// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Discriminator prefixes for VarInt, following the teacher's own
// wire.VarInt encoding convention (a single-byte discriminator selecting
// a 1/3/5/9-byte encoding) used throughout privacy/confidential's
// Serialize/Deserialize methods.
const (
	varIntDisc16 = 0xfd
	varIntDisc32 = 0xfe
	varIntDisc64 = 0xff
)

// WriteVarInt serializes val to w using the minimal encoding that fits.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < varIntDisc16:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = varIntDisc16
		binary.LittleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = varIntDisc32
		binary.LittleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = varIntDisc64
		binary.LittleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// ReadVarInt deserializes a VarInt from r.
func ReadVarInt(r io.Reader) (uint64, error) {
	var disc [1]byte
	if _, err := io.ReadFull(r, disc[:]); err != nil {
		return 0, err
	}
	switch disc[0] {
	case varIntDisc16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(buf[:])), nil
	case varIntDisc32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(buf[:])), nil
	case varIntDisc64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(buf[:]), nil
	default:
		return uint64(disc[0]), nil
	}
}

// VarIntSerializeSize returns the number of bytes WriteVarInt would emit
// for val, used by callers that precompute a buffer size.
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < varIntDisc16:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// MaxVarBytesLength is a 16 MiB size for a single length-prefixed byte
// blob. No decoder reads it: each ReadVarBytes call passes its own
// per-field maximum, which is what guards Deserialize against a
// maliciously large length prefix.
const MaxVarBytesLength = 1 << 24 // 16 MiB

// WriteVarBytes writes a length-prefixed byte slice.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a length-prefixed byte slice, rejecting a declared
// length above maxLength.
func ReadVarBytes(r io.Reader, maxLength uint64, fieldName string) ([]byte, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length > maxLength {
		return nil, fmt.Errorf("wire: %s length %d exceeds max %d", fieldName, length, maxLength)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
