// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/consensusparams"
	"github.com/iron-fish/go-ironfish/crypto/blake"
	"github.com/iron-fish/go-ironfish/storage"
	"github.com/iron-fish/go-ironfish/types"
)

func openTestChain(t *testing.T) (*Chain, *consensusparams.Params) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "chain.ldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var genesisHash chainhash.Hash
	genesisHash[0] = 0xAA
	params := consensusparams.TestNet(genesisHash)
	params.RetargetWindow = 4

	provider := blake.New()
	chain, err := New(params, db, provider)
	require.NoError(t, err)
	return chain, params
}

// buildBlock constructs a minimally valid block extending parent: a
// single miner transaction with no outputs (plus whatever spends the
// caller attaches afterward), a target equal to the expected retarget
// value, and a timestamp just after the parent's. The header's
// transaction commitment is always recomputed to match; the note
// commitment is carried over from the parent since this helper never
// attaches outputs.
func buildBlock(t *testing.T, params *consensusparams.Params, parentHash chainhash.Hash, parentHeader types.BlockHeader, target uint256.Int) types.Block {
	t.Helper()
	provider := blake.New()

	header := types.BlockHeader{
		Sequence:          parentHeader.Sequence + 1,
		PreviousBlockHash: parentHash,
		NoteCommitment:    parentHeader.NoteCommitment,
		Target:            target,
		Timestamp:         parentHeader.Timestamp.Add(params.TargetBlockTime),
	}
	header.Work = *workFromTarget(&target)

	minerTx := types.Transaction{
		Version:          1,
		Fee:              -int64(params.RewardAt(header.Sequence)),
		BindingSignature: [64]byte{0x01},
	}
	header.TransactionCommitment = transactionCommitment(provider, []chainhash.Hash{
		provider.TxHash(mustEncodeTxForHash(&minerTx)),
	})
	return types.Block{Header: header, Transactions: []types.Transaction{minerTx}}
}

// rehashTransactionCommitment recomputes header.TransactionCommitment after
// a test has mutated block.Transactions in place.
func rehashTransactionCommitment(block *types.Block) {
	provider := blake.New()
	hashes := make([]chainhash.Hash, len(block.Transactions))
	for i := range block.Transactions {
		hashes[i] = provider.TxHash(mustEncodeTxForHash(&block.Transactions[i]))
	}
	block.Header.TransactionCommitment = transactionCommitment(provider, hashes)
}

func TestAddBlockExtendsTip(t *testing.T) {
	chain, params := openTestChain(t)

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, ok, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)
	require.True(t, ok)

	block := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)

	ctx := context.Background()
	require.NoError(t, chain.AddBlock(ctx, &block))

	newTip, err := chain.BestHash()
	require.NoError(t, err)
	require.NotEqual(t, genesisHash, newTip)

	header, ok, err := chain.GetHeader(newTip)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(2), header.Sequence)
}

func TestAddBlockRejectsUnknownParent(t *testing.T) {
	chain, params := openTestChain(t)

	var bogusParent chainhash.Hash
	bogusParent[0] = 0xFF
	parentHeader := types.BlockHeader{Sequence: 1, Timestamp: time.Now()}
	block := buildBlock(t, params, bogusParent, parentHeader, *params.MaxTarget)

	err := chain.AddBlock(context.Background(), &block)
	require.Error(t, err)
	require.True(t, IsRuleError(err, ErrMissingParent))
}

func TestAddBlockRejectsDuplicate(t *testing.T) {
	chain, params := openTestChain(t)

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, _, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)

	block := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)
	ctx := context.Background()
	require.NoError(t, chain.AddBlock(ctx, &block))

	err = chain.AddBlock(ctx, &block)
	require.Error(t, err)
	require.True(t, IsRuleError(err, ErrDuplicateBlock))
}

func TestAddBlockRejectsNoTransactions(t *testing.T) {
	chain, params := openTestChain(t)

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, _, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)

	block := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)
	block.Transactions = nil

	err = chain.AddBlock(context.Background(), &block)
	require.Error(t, err)
	require.True(t, IsRuleError(err, ErrNoTransactions))
}

func TestAddBlockRejectsExcessiveMinerReward(t *testing.T) {
	chain, params := openTestChain(t)

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, _, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)

	block := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)
	block.Transactions[0].Fee = -int64(params.RewardAt(block.Header.Sequence)) - 1000
	rehashTransactionCommitment(&block)

	err = chain.AddBlock(context.Background(), &block)
	require.Error(t, err)
	require.True(t, IsRuleError(err, ErrBadReward))
}

func TestAddBlockRejectsNullifierReuse(t *testing.T) {
	chain, params := openTestChain(t)
	provider := blake.New()

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, _, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)

	var nullifier chainhash.Hash
	nullifier[0] = 0x01

	spend := types.Spend{
		Nullifier:      nullifier,
		CommitmentRoot: genesisHeader.NoteCommitment.Root,
		TreeSize:       genesisHeader.NoteCommitment.Size,
		Proof:          []byte{0x01},
	}

	block1 := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)
	block1.Transactions[0].Spends = []types.Spend{spend}
	block1.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&block1)
	_ = provider

	ctx := context.Background()
	require.NoError(t, chain.AddBlock(ctx, &block1))

	tip1, err := chain.BestHash()
	require.NoError(t, err)
	tip1Header, _, err := chain.GetHeader(tip1)
	require.NoError(t, err)

	block2 := buildBlock(t, params, tip1, *tip1Header, *params.MaxTarget)
	block2.Transactions[0].Spends = []types.Spend{spend}
	block2.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&block2)

	err = chain.AddBlock(ctx, &block2)
	require.Error(t, err)
	require.True(t, IsRuleError(err, ErrNullifierAlreadySpent))
}

// assetRecord reads back an AssetRecord directly from the chain's own
// store, the way a reviewer would confirm connectBlock/disconnectBlock
// actually mutate it rather than trusting a higher-level accessor.
func assetRecord(t *testing.T, chain *Chain, assetID [32]byte) (types.AssetRecord, bool) {
	t.Helper()
	var record types.AssetRecord
	var ok bool
	require.NoError(t, chain.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		var err error
		record, ok, err = chain.stores.assets.Get(tx, chainhash.Hash(assetID))
		return err
	}))
	return record, ok
}

func TestAddBlockAppliesAndReversesMintBurnDeltas(t *testing.T) {
	chain, params := openTestChain(t)

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, _, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)

	var assetID [32]byte
	assetID[0] = 0x42
	owner := types.PublicAddress{0x01}

	mint := types.Mint{
		AssetID:  assetID,
		Value:    100,
		Owner:    owner,
		Creator:  owner,
		Name:     "token",
		Metadata: "metadata",
		Proof:    []byte{0x01},
	}

	block1 := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)
	block1.Transactions[0].Mints = []types.Mint{mint}
	block1.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&block1)

	ctx := context.Background()
	require.NoError(t, chain.AddBlock(ctx, &block1))

	record, ok := assetRecord(t, chain, assetID)
	require.True(t, ok)
	require.Equal(t, uint64(100), record.Supply)
	require.Equal(t, owner, record.Owner)

	tip1, err := chain.BestHash()
	require.NoError(t, err)
	tip1Header, _, err := chain.GetHeader(tip1)
	require.NoError(t, err)

	burn := types.Burn{AssetID: assetID, Value: 40, Proof: []byte{0x01}}
	block2 := buildBlock(t, params, tip1, *tip1Header, *params.MaxTarget)
	block2.Transactions[0].Burns = []types.Burn{burn}
	block2.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&block2)

	require.NoError(t, chain.AddBlock(ctx, &block2))

	record, ok = assetRecord(t, chain, assetID)
	require.True(t, ok)
	require.Equal(t, uint64(60), record.Supply)

	tip2, err := chain.BestHash()
	require.NoError(t, err)
	require.NotEqual(t, tip1, tip2)

	// A two-block competing fork off tip1 carries strictly more cumulative
	// work than block2's single block, forcing a reorg that disconnects
	// block2 and reverses its burn. Every block keeps retarget's expected
	// target (parent's target, since each step spaces blocks exactly
	// params.TargetBlockTime apart), so only fork length differs.
	competitor1 := buildBlock(t, params, tip1, *tip1Header, *params.MaxTarget)
	competitor1.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&competitor1)
	require.NoError(t, chain.AddBlock(ctx, &competitor1))
	competitor1Hash, err := chain.headerHash(&competitor1.Header)
	require.NoError(t, err)

	competitor2 := buildBlock(t, params, competitor1Hash, competitor1.Header, *params.MaxTarget)
	competitor2.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&competitor2)
	require.NoError(t, chain.AddBlock(ctx, &competitor2))

	newTip, err := chain.BestHash()
	require.NoError(t, err)
	require.NotEqual(t, tip2, newTip)

	record, ok = assetRecord(t, chain, assetID)
	require.True(t, ok)
	require.Equal(t, uint64(100), record.Supply, "disconnecting block2 must reverse its burn")
}

func TestAddBlockRejectsBurnOfUnknownAsset(t *testing.T) {
	chain, params := openTestChain(t)

	genesisHash, err := chain.BestHash()
	require.NoError(t, err)
	genesisHeader, _, err := chain.GetHeader(genesisHash)
	require.NoError(t, err)

	var assetID [32]byte
	assetID[0] = 0x99

	block := buildBlock(t, params, genesisHash, *genesisHeader, *params.MaxTarget)
	block.Transactions[0].Burns = []types.Burn{{AssetID: assetID, Value: 1, Proof: []byte{0x01}}}
	block.Transactions[0].BindingSignature = [64]byte{0x01}
	rehashTransactionCommitment(&block)

	err = chain.AddBlock(context.Background(), &block)
	require.Error(t, err)
	require.True(t, IsRuleError(err, ErrUnknownAsset))
}
