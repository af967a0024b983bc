// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/consensusparams"
	"github.com/iron-fish/go-ironfish/merkletree"
	"github.com/iron-fish/go-ironfish/storage"
	"github.com/iron-fish/go-ironfish/types"
)

// maxFutureDrift bounds how far a header's timestamp may sit ahead of
// the validator's own clock when params.MaxBlockFutureTime is not set
// (spec §4.5, invariant 2).
const maxFutureDrift = 15 * time.Minute

// checkBlockStatelessSanity runs every rule that needs nothing but the
// block itself: no database lookups, no chain context (spec §4.5,
// "stateless rules run before a block is even looked up against its
// parent").
func checkBlockStatelessSanity(params *consensusparams.Params, block *types.Block) error {
	header := &block.Header

	drift := params.MaxBlockFutureTime
	if drift <= 0 {
		drift = maxFutureDrift
	}
	if header.Timestamp.After(time.Now().Add(drift)) {
		return ruleError(ErrTimestampTooFarInFuture, "block timestamp too far in the future")
	}

	if header.Target.Sign() <= 0 || header.Target.Cmp(params.MaxTarget) > 0 {
		return ruleError(ErrBadTarget, "target out of the consensus-allowed range")
	}

	expectedWork := workFromTarget(&header.Target)
	if header.Work.Cmp(expectedWork) != 0 && header.Sequence != 1 {
		return ruleError(ErrBadWork, "work does not match target")
	}

	if len(block.Transactions) == 0 {
		return ruleError(ErrNoTransactions, "block carries no transactions")
	}

	seenNullifiers := make(map[[32]byte]struct{})
	for i := range block.Transactions {
		t := &block.Transactions[i]
		if t.Expiration != 0 && header.Sequence > t.Expiration {
			return ruleError(ErrTransactionExpired, "transaction expired before inclusion")
		}
		for _, spend := range t.Spends {
			key := [32]byte(spend.Nullifier)
			if _, dup := seenNullifiers[key]; dup {
				return ruleError(ErrDuplicateNullifierInBlock, "nullifier spent twice in the same block")
			}
			seenNullifiers[key] = struct{}{}
		}
	}

	return nil
}

// checkBlockStateful runs every rule that needs chain context: parent
// lookups, note/nullifier tree roots, and prior nullifier usage (spec
// §4.5's stateful rule set). It is called with the block already staged
// for connection, inside the same transaction that will commit it.
func checkBlockStateful(c *Chain, tx *storage.Transaction, noteTree *merkletree.Tree[chainhash.Hash], block *types.Block) error {
	header := &block.Header

	parentHeader, ok, err := c.stores.headers.Get(tx, header.PreviousBlockHash)
	if err != nil {
		return err
	}
	if !ok {
		return ruleError(ErrMissingParent, "parent block not found")
	}

	if header.Timestamp.Before(parentHeader.Timestamp) {
		return ruleError(ErrTimestampTooOld, "block timestamp precedes its parent's")
	}

	expectedTarget, err := retarget(c.params, c.stores, tx, &parentHeader)
	if err != nil {
		return err
	}
	if header.Target.Cmp(expectedTarget) != 0 {
		return ruleError(ErrBadRetarget, "target does not match the expected retarget value")
	}

	txHashes := make([]chainhash.Hash, len(block.Transactions))
	for i := range block.Transactions {
		txHashes[i] = c.crypto.TxHash(mustEncodeTxForHash(&block.Transactions[i]))
	}
	if expected := transactionCommitment(c.crypto, txHashes); header.TransactionCommitment != expected {
		return ruleError(ErrBadTransactionCommitment, "transaction commitment does not match the block's transactions")
	}

	for i := range block.Transactions {
		t := &block.Transactions[i]
		for _, spend := range t.Spends {
			if _, spent, err := c.stores.nullifiers.Get(tx, spend.Nullifier); err != nil {
				return err
			} else if spent {
				return ruleError(ErrNullifierAlreadySpent, "nullifier already spent on this chain")
			}
			actualRoot, err := noteTree.RootHash(&spend.TreeSize)
			if err != nil {
				return err
			}
			if spend.CommitmentRoot != actualRoot {
				return ruleError(ErrInvalidSpendProof, "spend anchor does not match the note tree root at the claimed size")
			}
			if err := c.crypto.VerifySpendProof(spend, types.TreeRoot{Root: actualRoot, Size: spend.TreeSize}); err != nil {
				return ruleError(ErrInvalidSpendProof, err.Error())
			}
		}
		for _, output := range t.Outputs {
			if err := c.crypto.VerifyOutputProof(output); err != nil {
				return ruleError(ErrInvalidOutputProof, err.Error())
			}
		}
		for i := range t.Mints {
			mint := &t.Mints[i]
			if err := c.crypto.VerifyMintProof(*mint); err != nil {
				return ruleError(ErrInvalidMintProof, err.Error())
			}
			if err := checkMintAgainstAssetRecord(tx, c.stores, mint); err != nil {
				return err
			}
		}
		for i := range t.Burns {
			burn := &t.Burns[i]
			if err := c.crypto.VerifyBurnProof(*burn); err != nil {
				return ruleError(ErrInvalidBurnProof, err.Error())
			}
			if err := checkBurnAgainstAssetRecord(tx, c.stores, burn); err != nil {
				return err
			}
		}
		if err := c.crypto.VerifyBinding(*t); err != nil {
			return ruleError(ErrInvalidBindingSignature, err.Error())
		}
	}

	if err := checkMinerReward(c.params, header.Sequence, block); err != nil {
		return err
	}

	return nil
}

// checkMinerReward verifies the block's first transaction claims exactly
// the scheduled block subsidy plus the sum of every other transaction's
// declared fee, no more and no less (spec §4.5, invariant 5).
func checkMinerReward(params *consensusparams.Params, sequence uint64, block *types.Block) error {
	minerTx, ok := block.MinerFee()
	if !ok {
		return ruleError(ErrFirstTxNotCoinbase, "block has no miner transaction")
	}

	var totalFees int64
	for i := 1; i < len(block.Transactions); i++ {
		totalFees += block.Transactions[i].Fee
	}

	expectedReward := int64(params.RewardAt(sequence)) + totalFees
	if -minerTx.Fee != expectedReward {
		return ruleError(ErrBadReward, "miner transaction does not claim exactly the scheduled subsidy plus fees")
	}
	return nil
}
