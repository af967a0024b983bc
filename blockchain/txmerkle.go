// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/crypto"
)

// transactionCommitment computes the Merkle root over a block's transaction
// hashes (spec §4.1's BlockHeader.transactionCommitment). Leaves pair up
// level by level; an odd leaf out is paired with itself, matching the usual
// Merkle tree convention for an unbalanced transaction set.
func transactionCommitment(provider crypto.Provider, txHashes []chainhash.Hash) chainhash.Hash {
	if len(txHashes) == 0 {
		return chainhash.Hash{}
	}

	level := make([]chainhash.Hash, len(txHashes))
	copy(level, txHashes)

	for depth := 0; len(level) > 1; depth++ {
		next := make([]chainhash.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, provider.MerkleCombine(depth, level[i], level[i+1]))
			} else {
				next = append(next, provider.MerkleCombine(depth, level[i], level[i]))
			}
		}
		level = next
	}
	return level[0]
}
