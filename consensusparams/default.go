// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensusparams

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/crypto/blake"
)

const (
	// TreeDepth is the production depth for both the note commitment
	// tree and the nullifier tree (spec §4.2).
	TreeDepth = 32

	// production halving interval, reward, and timing constants mirror
	// Iron Fish mainnet's published schedule.
	mainnetHalvingInterval = 2_102_400 // ~20 years at 5-minute blocks
	mainnetInitialReward   = 20 * 1e8  // 20 IRON, denominated in ore (1 IRON = 1e8 ore)
)

// maxTargetMainnet is the proof-of-work floor difficulty: the easiest
// target any mainnet block may declare.
func maxTargetMainnet() *uint256.Int {
	// 2^234 - 1, chosen to match a RandomX-class PoW's achievable hash
	// rate at genesis (spec leaves the exact constant to the network's
	// launch parameters; this mirrors the teacher's mainPowLimit shape
	// at a lower exponent appropriate for a young chain).
	one := uint256.NewInt(1)
	limit := new(uint256.Int).Lsh(one, 234)
	return new(uint256.Int).Sub(limit, one)
}

// MainNet returns the consensus parameters for the production Iron Fish
// network. genesisHash must be supplied by the caller once the genesis
// block is finalized (spec §4.3's genesis block is network-specific and
// is not hardcoded here, mirroring how the teacher's shellGenesisBlock
// lives in a dedicated, now-removed genesis package rather than
// chaincfg itself).
func MainNet(genesisHash [32]byte) *Params {
	provider := blake.New()
	return &Params{
		Name:                                  "mainnet",
		GenesisHash:                           genesisHash,
		GenesisNoteCommitmentRoot:             provider.MerkleEmpty(TreeDepth),
		GenesisNullifierRoot:                  provider.MerkleEmpty(TreeDepth),
		NoteTreeDepth:                         TreeDepth,
		NullifierTreeDepth:                    TreeDepth,
		MaxTarget:                             maxTargetMainnet(),
		TargetBlockTime:                       5 * time.Minute,
		RetargetWindow:                        17,
		RetargetDampingDivisor:                4,
		HalvingInterval:                       mainnetHalvingInterval,
		InitialRewardOre:                      mainnetInitialReward,
		MaxBlockFutureTime:                    15 * time.Minute,
		MaxTransactionExpirationSequenceDelta: 60,
	}
}

// TestNet returns parameters suited to integration tests: a shallow tree
// depth so tests can exhaust it, and a short halving interval so reward
// schedule tests don't need millions of blocks.
func TestNet(genesisHash [32]byte) *Params {
	provider := blake.New()
	const depth = 8
	return &Params{
		Name:                                  "testnet",
		GenesisHash:                           genesisHash,
		GenesisNoteCommitmentRoot:             provider.MerkleEmpty(depth),
		GenesisNullifierRoot:                  provider.MerkleEmpty(depth),
		NoteTreeDepth:                         depth,
		NullifierTreeDepth:                    depth,
		MaxTarget:                             maxTargetMainnet(),
		TargetBlockTime:                       time.Second,
		RetargetWindow:                        5,
		RetargetDampingDivisor:                4,
		HalvingInterval:                       100,
		InitialRewardOre:                      1000,
		MaxBlockFutureTime:                    time.Minute,
		MaxTransactionExpirationSequenceDelta: 30,
	}
}
