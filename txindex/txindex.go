// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txindex implements the two lookup indices the blockchain
// keeps alongside the main chain: transaction hash to its confirming
// block location, and block sequence/position to transaction hash
// (spec §4.3's "Blockchain" component also serves transaction lookups by
// hash and by position).
package txindex

import (
	"encoding/binary"
	"fmt"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/storage"
)

// Location records where a confirmed transaction lives: which block, at
// which chain sequence, and at what position within that block's
// transaction list (position 0 is always the miner's fee transaction in
// the wire layout, per spec §3's canonical transaction ordering note).
type Location struct {
	BlockHash chainhash.Hash
	Sequence  uint64
	Index     uint32
}

type txHashKeyCodec struct{}

func (txHashKeyCodec) EncodeKey(h chainhash.Hash) []byte { return h.CloneBytes() }

type locationCodec struct{}

func (locationCodec) Encode(loc Location) ([]byte, error) {
	buf := make([]byte, 0, chainhash.HashSize+8+4)
	buf = append(buf, loc.BlockHash[:]...)
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], loc.Sequence)
	buf = append(buf, seq[:]...)
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], loc.Index)
	buf = append(buf, idx[:]...)
	return buf, nil
}

func (locationCodec) Decode(data []byte) (Location, error) {
	var loc Location
	if len(data) != chainhash.HashSize+8+4 {
		return loc, fmt.Errorf("txindex: invalid location value length %d", len(data))
	}
	copy(loc.BlockHash[:], data[:chainhash.HashSize])
	loc.Sequence = binary.BigEndian.Uint64(data[chainhash.HashSize : chainhash.HashSize+8])
	loc.Index = binary.BigEndian.Uint32(data[chainhash.HashSize+8:])
	return loc, nil
}

// sequenceIndexKey is the composite key (sequence, index) used to look a
// transaction hash back up by its position in the canonical chain.
type sequenceIndexKey struct {
	Sequence uint64
	Index    uint32
}

type sequenceIndexKeyCodec struct{}

func (sequenceIndexKeyCodec) EncodeKey(k sequenceIndexKey) []byte {
	var buf [12]byte
	binary.BigEndian.PutUint64(buf[:8], k.Sequence)
	binary.BigEndian.PutUint32(buf[8:], k.Index)
	return buf[:]
}

type txHashCodec struct{}

func (txHashCodec) Encode(h chainhash.Hash) ([]byte, error) { return h.CloneBytes(), nil }

func (txHashCodec) Decode(data []byte) (chainhash.Hash, error) {
	var h chainhash.Hash
	if err := h.SetBytes(data); err != nil {
		return h, err
	}
	return h, nil
}

// Index is the pair of stores backing hash->location and position->hash
// lookups. One Index is opened per logical CHAIN database.
type Index struct {
	byHash     *storage.Store[chainhash.Hash, Location]
	byPosition *storage.Store[sequenceIndexKey, chainhash.Hash]
}

// New constructs the transaction index stores.
func New() *Index {
	return &Index{
		byHash:     storage.NewStore[chainhash.Hash, Location]("tx_by_hash", txHashKeyCodec{}, locationCodec{}),
		byPosition: storage.NewStore[sequenceIndexKey, chainhash.Hash]("tx_by_position", sequenceIndexKeyCodec{}, txHashCodec{}),
	}
}

// Put records a confirmed transaction's location, writing both the
// hash->location and position->hash entries. Callers do this once per
// transaction during block connect (spec §4.3, "connect" semantics).
func (idx *Index) Put(tx *storage.Transaction, txHash chainhash.Hash, loc Location) error {
	if err := idx.byHash.Put(tx, txHash, loc); err != nil {
		return err
	}
	return idx.byPosition.Put(tx, sequenceIndexKey{Sequence: loc.Sequence, Index: loc.Index}, txHash)
}

// Remove deletes a transaction's index entries, used during block
// disconnect (spec §4.3's reorg semantics: disconnected blocks' state is
// fully undone).
func (idx *Index) Remove(tx *storage.Transaction, txHash chainhash.Hash, loc Location) error {
	if err := idx.byHash.Delete(tx, txHash); err != nil {
		return err
	}
	return idx.byPosition.Delete(tx, sequenceIndexKey{Sequence: loc.Sequence, Index: loc.Index})
}

// Lookup returns the confirming location of a transaction hash, if any.
func (idx *Index) Lookup(tx *storage.Transaction, txHash chainhash.Hash) (Location, bool, error) {
	return idx.byHash.Get(tx, txHash)
}

// LookupByPosition returns the transaction hash at a given chain
// sequence and in-block index, if any.
func (idx *Index) LookupByPosition(tx *storage.Transaction, sequence uint64, index uint32) (chainhash.Hash, bool, error) {
	return idx.byPosition.Get(tx, sequenceIndexKey{Sequence: sequence, Index: index})
}

// IterateBlock walks every transaction hash confirmed in the given
// sequence, in index order, calling fn until it returns false or the
// range is exhausted.
func (idx *Index) IterateBlock(tx *storage.Transaction, sequence uint64, fn func(index uint32, txHash chainhash.Hash) (keepGoing bool, err error)) error {
	lower := sequenceIndexKeyCodec{}.EncodeKey(sequenceIndexKey{Sequence: sequence, Index: 0})
	upper := sequenceIndexKeyCodec{}.EncodeKey(sequenceIndexKey{Sequence: sequence + 1, Index: 0})
	it, err := idx.byPosition.NewRangeIterator(tx, lower, upper, false)
	if err != nil {
		return err
	}
	defer it.Release()
	for it.Next() {
		suffix := it.KeySuffix()
		if len(suffix) < 12 {
			continue
		}
		index := binary.BigEndian.Uint32(suffix[8:12])
		hash, err := it.Value()
		if err != nil {
			return err
		}
		keepGoing, err := fn(index, hash)
		if err != nil {
			return err
		}
		if !keepGoing {
			break
		}
	}
	return it.Err()
}
