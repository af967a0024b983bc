// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/crypto"
	"github.com/iron-fish/go-ironfish/merkletree"
)

// commitmentHasher adapts a crypto.Provider to merkletree.Hasher[chainhash.Hash]
// for both the note commitment tree and the nullifier tree: their leaves
// are already-computed hashes (a note commitment or a nullifier), so
// HashLeaf is the identity function and only Combine/Empty delegate to
// the provider (spec §3, §4.2).
type commitmentHasher struct {
	provider crypto.Provider
}

func (h commitmentHasher) HashLeaf(e chainhash.Hash) chainhash.Hash {
	return e
}

func (h commitmentHasher) Combine(depth int, left, right chainhash.Hash) chainhash.Hash {
	return h.provider.MerkleCombine(depth, left, right)
}

func (h commitmentHasher) Empty(depth int) chainhash.Hash {
	return h.provider.MerkleEmpty(depth)
}

var _ merkletree.Hasher[chainhash.Hash] = commitmentHasher{}
