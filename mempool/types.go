// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

// Policy bounds how the pool accepts and evicts transactions (spec §4.4).
type Policy struct {
	// MaxPoolSize caps the number of transactions the pool holds. Once
	// exceeded, the lowest fee-rate transaction is evicted to make room
	// for a higher fee-rate newcomer; a newcomer that would itself be the
	// lowest entry (fee rate, then hash) is rejected instead.
	MaxPoolSize int

	// MinFeeRate is the minimum fee, in ore per encoded byte, a
	// transaction must carry to be accepted.
	MinFeeRate int64

	// ExpirationGrace is a safety margin ahead of a transaction's
	// Expiration: the pool refuses, and ExpireBefore sweeps, a
	// transaction once the tip sequence plus ExpirationGrace reaches its
	// Expiration. A grace of 0 sweeps as soon as the tip reaches
	// Expiration.
	ExpirationGrace uint64
}

// DefaultPolicy mirrors the teacher's own defaults in spirit: a bounded
// pool, a small nonzero fee floor, and no extra expiration grace.
func DefaultPolicy() Policy {
	return Policy{
		MaxPoolSize: 10000,
		MinFeeRate:  1,
	}
}

// TxDesc is the pool's bookkeeping record for one accepted transaction.
type TxDesc struct {
	Tx      types.Transaction
	TxHash  chainhash.Hash
	Added   time.Time
	Size    int
	Fee     int64
	FeeRate int64
}
