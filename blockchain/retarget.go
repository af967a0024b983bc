// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/consensusparams"
	"github.com/iron-fish/go-ironfish/storage"
	"github.com/iron-fish/go-ironfish/types"
)

// retarget computes the target the block following parent must carry
// (spec §4.5 "retarget"). It walks back up to params.RetargetWindow
// ancestors of parent, compares the actual time that window took against
// params.RetargetWindow*params.TargetBlockTime (the deviation from the
// expected time first divided by params.RetargetDampingDivisor, when it is
// positive), and scales parent's target by that ratio, clamped to
// [1/RetargetClampDivisor,
// RetargetClampDivisor] of parent's target (spec §5 Open Question
// decision: clamp per-period adjustment like Zcash's damped averaging
// window). Genesis and its first RetargetWindow descendants retarget
// against however far back the chain actually reaches.
func retarget(params *consensusparams.Params, stores *stores, tx *storage.Transaction, parentHeader *types.BlockHeader) (*uint256.Int, error) {
	if parentHeader.Sequence <= 1 {
		return &parentHeader.Target, nil
	}

	window := uint64(params.RetargetWindow)
	if window == 0 {
		window = 1
	}
	if window > parentHeader.Sequence-1 {
		window = parentHeader.Sequence - 1
	}

	ancestor := parentHeader
	for i := uint64(0); i < window; i++ {
		h, ok, err := stores.headers.Get(tx, ancestor.PreviousBlockHash)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		ancestor = &h
	}

	actualTimespan := parentHeader.Timestamp.Sub(ancestor.Timestamp)
	expectedTimespan := params.TargetBlockTime * time.Duration(window)
	if params.RetargetDampingDivisor > 0 {
		actualTimespan = expectedTimespan + (actualTimespan-expectedTimespan)/time.Duration(params.RetargetDampingDivisor)
	}
	if actualTimespan <= 0 {
		actualTimespan = time.Nanosecond
	}

	parentTarget := parentHeader.Target
	// MulDivOverflow keeps the full 512-bit product, so target*timespan
	// cannot wrap before the division.
	newTarget, overflow := new(uint256.Int).MulDivOverflow(&parentTarget, uint256.NewInt(uint64(actualTimespan)), uint256.NewInt(uint64(expectedTimespan)))

	minTarget := new(uint256.Int).Div(&parentTarget, uint256.NewInt(consensusparams.RetargetClampDivisor))
	maxTarget := new(uint256.Int).Mul(&parentTarget, uint256.NewInt(consensusparams.RetargetClampDivisor))
	switch {
	case newTarget.Cmp(minTarget) < 0 && !overflow:
		newTarget = minTarget
	case overflow || newTarget.Cmp(maxTarget) > 0:
		newTarget = maxTarget
	}
	if newTarget.Cmp(params.MaxTarget) > 0 {
		newTarget = params.MaxTarget
	}

	return newTarget, nil
}
