// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprocessor

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/events"
	"github.com/iron-fish/go-ironfish/types"
)

// ChainView is the narrow slice of Blockchain a Processor replays over,
// kept separate from *blockchain.Chain so consumers can be tested against
// a fake chain.
type ChainView interface {
	// BestHeader returns the current chain tip's header.
	BestHeader() (*types.BlockHeader, error)

	// HashAtSequence returns the canonical hash at a sequence, if the
	// chain has reached that far.
	HashAtSequence(sequence uint64) (chainhash.Hash, bool, error)

	// GetBlock returns a confirmed block by hash.
	GetBlock(hash chainhash.Hash) (*types.Block, bool, error)

	// Events returns the chain's event bus.
	Events() *events.Bus
}

// Handler receives the replayed connect/disconnect stream. Implementations
// must be idempotent against being asked to handle the same connect twice
// in a row (Processor never does this deliberately, but a handler that
// survives it is cheap insurance against an implementation bug becoming a
// double-counted balance).
type Handler interface {
	// HandleConnect is called once per block, in increasing sequence
	// order, for every block between a Processor's starting cursor and
	// the chain's current tip, and again for every block connected
	// afterward.
	HandleConnect(hash chainhash.Hash, block *types.Block) error

	// HandleDisconnect is called once per block removed from the best
	// chain during a reorg, in decreasing sequence order (tip first).
	HandleDisconnect(hash chainhash.Hash, block *types.Block) error
}
