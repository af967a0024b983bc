// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

// ChainView is the narrow slice of Blockchain the pool needs to validate
// and track transactions against canonical state, kept separate from
// *blockchain.Chain itself so the pool can be tested against a fake.
type ChainView interface {
	// IsNullifierSpent reports whether nullifier is already spent on the
	// canonical chain.
	IsNullifierSpent(nullifier chainhash.Hash) (bool, error)

	// VerifyTransaction runs the same proof/binding checks block
	// validation does, without any chain-context rules.
	VerifyTransaction(t *types.Transaction) error

	// BestHeader returns the current chain tip's header, used to check a
	// transaction's expiration against the chain's current view.
	BestHeader() (*types.BlockHeader, error)

	// GetBlock returns a confirmed block by hash, used to resolve the
	// transactions a Connect/Disconnect event affects.
	GetBlock(hash chainhash.Hash) (*types.Block, bool, error)
}
