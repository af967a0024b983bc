// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkletree

import (
	"encoding/binary"
	"fmt"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/storage"
)

// nodeCoord addresses a single tree node by (depth, index), the key shape
// persisted under a tree's storage.Store (spec §4.1, §4.2).
type nodeCoord struct {
	Depth int
	Index uint64
}

type nodeCoordCodec struct{}

func (nodeCoordCodec) EncodeKey(c nodeCoord) []byte {
	var b [9]byte
	b[0] = byte(c.Depth)
	binary.BigEndian.PutUint64(b[1:], c.Index)
	return b[:]
}

type hashCodec struct{}

func (hashCodec) Encode(h chainhash.Hash) ([]byte, error) {
	return h.CloneBytes(), nil
}

func (hashCodec) Decode(data []byte) (chainhash.Hash, error) {
	var h chainhash.Hash
	if err := h.SetBytes(data); err != nil {
		return h, err
	}
	return h, nil
}

type sizeCodec struct{}

func (sizeCodec) EncodeKey(string) []byte { return []byte("size") }

func (sizeCodec) Encode(v uint64) ([]byte, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:], nil
}

func (sizeCodec) Decode(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("merkletree: invalid size value length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// StoreNodeStore is the production NodeStore, backing a Tree with the
// storage package so tree appends commit atomically alongside the rest of
// a block connect (spec §4.2, §5's "storage writes for one block commit
// atomically").
type StoreNodeStore struct {
	nodes *storage.Store[nodeCoord, chainhash.Hash]
	size  *storage.Store[string, uint64]
	tx    *storage.Transaction
}

// NewStoreNodeStore builds a StoreNodeStore scoped to treeName (e.g.
// "notes" or "nullifiers") and bound to tx for the duration of one
// operation. Callers construct a fresh StoreNodeStore per transaction.
func NewStoreNodeStore(treeName string, tx *storage.Transaction) *StoreNodeStore {
	return &StoreNodeStore{
		nodes: storage.NewStore[nodeCoord, chainhash.Hash](treeName+"_nodes", nodeCoordCodec{}, hashCodec{}),
		size:  storage.NewStore[string, uint64](treeName+"_size", sizeCodec{}, sizeCodec{}),
		tx:    tx,
	}
}

func (s *StoreNodeStore) GetNode(depth int, index uint64) (chainhash.Hash, bool, error) {
	return s.nodes.Get(s.tx, nodeCoord{Depth: depth, Index: index})
}

func (s *StoreNodeStore) PutNode(depth int, index uint64, h chainhash.Hash) error {
	return s.nodes.Put(s.tx, nodeCoord{Depth: depth, Index: index}, h)
}

func (s *StoreNodeStore) DeleteNode(depth int, index uint64) error {
	return s.nodes.Delete(s.tx, nodeCoord{Depth: depth, Index: index})
}

func (s *StoreNodeStore) GetSize() (uint64, error) {
	v, ok, err := s.size.Get(s.tx, "size")
	if err != nil || !ok {
		return 0, err
	}
	return v, nil
}

func (s *StoreNodeStore) SetSize(size uint64) error {
	return s.size.Put(s.tx, "size", size)
}
