// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

// feeRateItem orders transactions by fee rate for template assembly and
// low-priority eviction, replacing the teacher's unsorted-slice-plus-sort
// approach with an ordered index maintained incrementally.
type feeRateItem struct {
	FeeRate int64
	TxHash  chainhash.Hash
}

// feeRateLess provides the btree.BTreeG total order: ascending by fee
// rate, tie-broken by hash so two transactions at the same rate never
// collide in the tree.
func feeRateLess(a, b feeRateItem) bool {
	if a.FeeRate != b.FeeRate {
		return a.FeeRate < b.FeeRate
	}
	return bytes.Compare(a.TxHash[:], b.TxHash[:]) < 0
}

// encodedSize returns a transaction's serialized byte length, the
// denominator of its fee rate.
func encodedSize(t *types.Transaction) (int, error) {
	var buf bytes.Buffer
	if err := wire.SerializeTransaction(&buf, t); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

// feeRate computes ore-per-byte for a transaction of the given fee and
// size, floored at zero so a zero-size or zero-fee transaction sorts at
// the bottom rather than dividing by zero.
func feeRate(fee int64, size int) int64 {
	if size <= 0 {
		return 0
	}
	return fee / int64(size)
}
