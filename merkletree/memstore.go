// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkletree

import "github.com/iron-fish/go-ironfish/chainhash"

type nodeKey struct {
	depth int
	index uint64
}

// MemStore is a map-backed NodeStore for tests and for short-lived trees
// that never need to persist (spec §8 property tests).
type MemStore struct {
	nodes map[nodeKey]chainhash.Hash
	size  uint64
}

// NewMemStore returns an empty in-memory NodeStore.
func NewMemStore() *MemStore {
	return &MemStore{nodes: make(map[nodeKey]chainhash.Hash)}
}

func (m *MemStore) GetNode(depth int, index uint64) (chainhash.Hash, bool, error) {
	h, ok := m.nodes[nodeKey{depth, index}]
	return h, ok, nil
}

func (m *MemStore) PutNode(depth int, index uint64, h chainhash.Hash) error {
	m.nodes[nodeKey{depth, index}] = h
	return nil
}

func (m *MemStore) DeleteNode(depth int, index uint64) error {
	delete(m.nodes, nodeKey{depth, index})
	return nil
}

func (m *MemStore) GetSize() (uint64, error) { return m.size, nil }

func (m *MemStore) SetSize(size uint64) error {
	m.size = size
	return nil
}
