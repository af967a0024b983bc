// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package consensusparams defines the network-wide constants a Verifier
// and a Blockchain are parameterized over: genesis, checkpoints, target
// bounds, and the reward schedule (spec §4.5, §3 "Consensus parameters").
// It plays the role chaincfg.Params plays for the teacher, adapted from
// a PoW-voting-deployment shape to Iron Fish's simpler fixed-schedule one.
package consensusparams

import (
	"math"
	"time"

	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/chainhash"
)

// Checkpoint pins a known-good (sequence, hash) pair. A chain whose
// ancestry at that sequence disagrees is rejected outright, the same
// anti-deep-reorg role chaincfg.Checkpoint plays for the teacher.
type Checkpoint struct {
	Sequence uint64
	Hash     chainhash.Hash
}

// Params is the full set of network-wide constants the rest of the
// module is parameterized over. One Params value exists per network
// (spec glossary: "Network" — MAINNET, TESTNET, etc).
type Params struct {
	// Name identifies the network for logging and on-disk path selection.
	Name string

	// GenesisHash is the hash of block 1, the chain's unique root (spec
	// §4.3 invariant: "Every block except genesis has exactly one
	// parent").
	GenesisHash chainhash.Hash

	// GenesisNoteCommitmentRoot and GenesisNullifierRoot are the empty
	// tree roots a fresh chain starts from, at the configured
	// NoteTreeDepth / NullifierTreeDepth.
	GenesisNoteCommitmentRoot chainhash.Hash
	GenesisNullifierRoot      chainhash.Hash

	// NoteTreeDepth and NullifierTreeDepth size the two commitment
	// trees (spec §4.2); production networks use 32.
	NoteTreeDepth      int
	NullifierTreeDepth int

	// Checkpoints is an ascending-by-sequence list of known-good blocks.
	Checkpoints []Checkpoint

	// MaxTarget is the easiest allowed proof-of-work target: the upper
	// bound every block's Target must not exceed (spec §4.5 stateless
	// rule "header.Target obeys the network's maximum target bound").
	MaxTarget *uint256.Int

	// TargetBlockTime is the desired average time between blocks that
	// the retarget algorithm converges toward (spec §4.5 "retarget").
	TargetBlockTime time.Duration

	// RetargetWindow is the number of past blocks the damped retarget
	// average is computed over.
	RetargetWindow int

	// RetargetDampingDivisor softens how aggressively the average
	// observed block time pulls the next target; spec Open Questions §5
	// resolves the per-period adjustment to be clamped to [1/4, 4] of
	// the prior target regardless of divisor, so this only affects how
	// quickly observed time converges within that clamp.
	RetargetDampingDivisor int64

	// HalvingInterval is the number of blocks between mining reward
	// halvings (spec §4.5 "reward schedule").
	HalvingInterval uint64

	// InitialRewardOre is the block reward, in the smallest currency
	// unit ("ore"), paid at genesis before any halving has occurred.
	InitialRewardOre uint64

	// MaxBlockFutureTime bounds how far into the future (relative to the
	// verifying node's clock) a block's Timestamp may be before it is
	// rejected (spec §4.5 stateless rule on timestamps).
	MaxBlockFutureTime time.Duration

	// MaxTransactionExpirationSequenceDelta is how many sequences past
	// the current chain tip a transaction's Expiration field may be set
	// to. No component reads it: the mempool's expiration check uses
	// only its Policy.ExpirationGrace.
	MaxTransactionExpirationSequenceDelta uint64
}

// RetargetClampDivisor bounds the ratio between a new target and the
// prior one in a single retarget to [1/RetargetClampDivisor,
// RetargetClampDivisor], per the Open Question decision in spec §5
// ("clamp per-period adjustment to within [1/4, 4] of the prior target,
// matching Zcash's damped averaging window").
const RetargetClampDivisor = 4

// RewardAt computes the mining reward for a block at the given sequence,
// halving every p.HalvingInterval blocks until it reaches zero (spec
// §4.5 "reward schedule": geometric halving, like Bitcoin's subsidy
// schedule but parameterized per network).
func (p *Params) RewardAt(sequence uint64) uint64 {
	if p.HalvingInterval == 0 {
		return p.InitialRewardOre
	}
	halvings := sequence / p.HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return p.InitialRewardOre >> halvings
}

// CheckpointAt returns the checkpoint pinned at the given sequence, if
// any.
func (p *Params) CheckpointAt(sequence uint64) (Checkpoint, bool) {
	for _, cp := range p.Checkpoints {
		if cp.Sequence == sequence {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// LatestCheckpointBefore returns the highest checkpoint at or below
// sequence, used to reject headers-only sync paths that fork below the
// last pinned point (spec §4.3 "forks below the latest checkpoint are
// rejected without full validation").
func (p *Params) LatestCheckpointBefore(sequence uint64) (Checkpoint, bool) {
	best, ok := Checkpoint{}, false
	for _, cp := range p.Checkpoints {
		if cp.Sequence <= sequence && (!ok || cp.Sequence > best.Sequence) {
			best, ok = cp, true
		}
	}
	return best, ok
}

// MaxReorgDepth reports how many blocks back of the current tip a
// reorganization may reach before it is rejected outright (spec §4.3
// invariant: bounded reorg depth protects checkpointed history). It is
// derived from the checkpoint spacing rather than stored directly: a
// reorg may never cross the most recent checkpoint.
func (p *Params) MaxReorgDepth(tipSequence uint64) uint64 {
	cp, ok := p.LatestCheckpointBefore(tipSequence)
	if !ok {
		return math.MaxUint64
	}
	if tipSequence <= cp.Sequence {
		return 0
	}
	return tipSequence - cp.Sequence
}
