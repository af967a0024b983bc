// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/events"
	"github.com/iron-fish/go-ironfish/types"
)

// fakeChain is a minimal ChainView for exercising Pool without a real
// Blockchain; it treats every spend as valid against an empty note tree
// and tracks spent nullifiers itself.
type fakeChain struct {
	header types.BlockHeader
	spent  map[chainhash.Hash]struct{}
	blocks map[chainhash.Hash]types.Block
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		spent:  make(map[chainhash.Hash]struct{}),
		blocks: make(map[chainhash.Hash]types.Block),
	}
}

func (f *fakeChain) IsNullifierSpent(n chainhash.Hash) (bool, error) {
	_, ok := f.spent[n]
	return ok, nil
}

func (f *fakeChain) VerifyTransaction(*types.Transaction) error { return nil }

func (f *fakeChain) BestHeader() (*types.BlockHeader, error) { return &f.header, nil }

func (f *fakeChain) GetBlock(hash chainhash.Hash) (*types.Block, bool, error) {
	b, ok := f.blocks[hash]
	return &b, ok, nil
}

func txWithFee(fee int64, tag byte) types.Transaction {
	return types.Transaction{Version: 1, Fee: fee, PublicKeyRandomness: [32]byte{tag}}
}

func newPool(chain ChainView) *Pool {
	policy := DefaultPolicy()
	policy.MinFeeRate = 0
	return New(Config{Policy: policy, Chain: chain, Bus: events.NewBus()})
}

func TestAcceptAddsToPool(t *testing.T) {
	pool := newPool(newFakeChain())
	tx := txWithFee(100, 1)

	desc, err := pool.Accept(&tx)
	require.NoError(t, err)
	require.Equal(t, 1, pool.Len())

	got, ok := pool.Get(desc.TxHash)
	require.True(t, ok)
	require.Equal(t, desc.Fee, got.Fee)
}

func TestAcceptRejectsNullifierConflict(t *testing.T) {
	pool := newPool(newFakeChain())

	var nullifier chainhash.Hash
	nullifier[0] = 0x09

	tx1 := txWithFee(100, 1)
	tx1.Spends = []types.Spend{{Nullifier: nullifier}}
	_, err := pool.Accept(&tx1)
	require.NoError(t, err)

	tx2 := txWithFee(200, 2)
	tx2.Spends = []types.Spend{{Nullifier: nullifier}}
	_, err = pool.Accept(&tx2)
	require.Error(t, err)
	require.Equal(t, 1, pool.Len())
}

func TestAcceptRejectsAlreadySpentOnChain(t *testing.T) {
	chain := newFakeChain()
	var nullifier chainhash.Hash
	nullifier[0] = 0x0A
	chain.spent[nullifier] = struct{}{}

	pool := newPool(chain)
	tx := txWithFee(100, 1)
	tx.Spends = []types.Spend{{Nullifier: nullifier}}

	_, err := pool.Accept(&tx)
	require.Error(t, err)
}

func TestEvictsLowestFeeRateOverCapacity(t *testing.T) {
	chain := newFakeChain()
	pool := newPool(chain)
	pool.cfg.Policy.MaxPoolSize = 2

	low := txWithFee(1, 1)
	mid := txWithFee(500, 2)
	high := txWithFee(10000, 3)

	_, err := pool.Accept(&low)
	require.NoError(t, err)
	_, err = pool.Accept(&mid)
	require.NoError(t, err)
	_, err = pool.Accept(&high)
	require.NoError(t, err)

	require.Equal(t, 2, pool.Len())
	lowHash := txHashForPool(&low)
	_, stillThere := pool.Get(lowHash)
	require.False(t, stillThere, "lowest fee-rate transaction should have been evicted")
}

func TestExpireBeforeRemovesExpiredTransactions(t *testing.T) {
	pool := newPool(newFakeChain())

	tx := txWithFee(100, 1)
	tx.Expiration = 10
	desc, err := pool.Accept(&tx)
	require.NoError(t, err)

	pool.ExpireBefore(5)
	require.Equal(t, 1, pool.Len())

	pool.ExpireBefore(10)
	_, stillThere := pool.Get(desc.TxHash)
	require.False(t, stillThere)
}

func TestOnConnectEvictsConflictingPooledTransaction(t *testing.T) {
	chain := newFakeChain()
	pool := newPool(chain)

	var nullifier chainhash.Hash
	nullifier[0] = 0x0B
	tx := txWithFee(100, 1)
	tx.Spends = []types.Spend{{Nullifier: nullifier}}
	desc, err := pool.Accept(&tx)
	require.NoError(t, err)

	var blockHash chainhash.Hash
	blockHash[0] = 0xEE
	confirmingTx := txWithFee(100, 9)
	confirmingTx.Spends = []types.Spend{{Nullifier: nullifier}}
	chain.blocks[blockHash] = types.Block{Transactions: []types.Transaction{confirmingTx}}

	require.NoError(t, pool.onConnect(blockHash))
	_, stillThere := pool.Get(desc.TxHash)
	require.False(t, stillThere)
}

// TestOnConnectRemovesConfirmedTransactionWithNoSpends covers a mint/
// output-only pooled transaction (no nullifiers at all): onConnect must
// still drop it by identity once its own block confirms it, not only
// transactions that conflict on a nullifier.
func TestOnConnectRemovesConfirmedTransactionWithNoSpends(t *testing.T) {
	chain := newFakeChain()
	pool := newPool(chain)

	tx := txWithFee(100, 1)
	desc, err := pool.Accept(&tx)
	require.NoError(t, err)

	var blockHash chainhash.Hash
	blockHash[0] = 0xFC
	chain.blocks[blockHash] = types.Block{Transactions: []types.Transaction{tx}}

	require.NoError(t, pool.onConnect(blockHash))
	_, stillThere := pool.Get(desc.TxHash)
	require.False(t, stillThere, "confirmed no-Spend transaction must be evicted from the pool")
}

func TestAcceptInvokesOnEvictCallback(t *testing.T) {
	chain := newFakeChain()
	policy := DefaultPolicy()
	policy.MinFeeRate = 0
	policy.MaxPoolSize = 1

	var evicted []TxDesc
	pool := New(Config{
		Policy: policy,
		Chain:  chain,
		Bus:    events.NewBus(),
		OnEvict: func(desc TxDesc) {
			evicted = append(evicted, desc)
		},
	})

	low := txWithFee(1, 1)
	high := txWithFee(10000, 2)
	_, err := pool.Accept(&low)
	require.NoError(t, err)
	_, err = pool.Accept(&high)
	require.NoError(t, err)

	require.Len(t, evicted, 1)
	require.Equal(t, txHashForPool(&low), evicted[0].TxHash)
}
