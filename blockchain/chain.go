// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blockchain implements the single-writer Blockchain state
// machine of spec §4.3: block validation, fork choice by cumulative
// work, reorganization, checkpoints, and post-commit event emission.
package blockchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/consensusparams"
	"github.com/iron-fish/go-ironfish/crypto"
	"github.com/iron-fish/go-ironfish/events"
	"github.com/iron-fish/go-ironfish/merkletree"
	"github.com/iron-fish/go-ironfish/storage"
	"github.com/iron-fish/go-ironfish/txindex"
	"github.com/iron-fish/go-ironfish/types"
)

var log = btclog.Disabled

// UseLogger sets the package-wide logger, following the teacher's
// package-level btclog convention used across every component.
func UseLogger(logger btclog.Logger) {
	log = logger
}

const (
	metaBestHashKey = "best_hash"
)

// Chain is the single-writer blockchain state machine. All mutating
// methods take the database's write lock for their duration (spec §5:
// "one Blockchain, one writer, at a time").
type Chain struct {
	params   *consensusparams.Params
	db       *storage.DB
	crypto   crypto.Provider
	txIndex  *txindex.Index
	stores   *stores
	bus      *events.Bus
	hasher   commitmentHasher

	mu sync.Mutex

	// pendingEvents buffers this in-flight AddBlock call's events so they
	// are only published to bus once the write transaction has actually
	// committed, never while it is still open (spec §4.3: "events are
	// emitted post-commit, in commit order"). Safe as a plain field
	// because mu serializes AddBlock calls.
	pendingEvents []pendingEvent
}

type pendingEvent struct {
	kind     events.Kind
	hash     chainhash.Hash
	sequence uint64
}

// New opens (or initializes, if empty) a Chain backed by db.
func New(params *consensusparams.Params, db *storage.DB, cryptoProvider crypto.Provider) (*Chain, error) {
	c := &Chain{
		params:  params,
		db:      db,
		crypto:  cryptoProvider,
		txIndex: txindex.New(),
		stores:  newStores(),
		bus:     events.NewBus(),
		hasher:  commitmentHasher{provider: cryptoProvider},
	}
	if err := c.maybeInitGenesis(); err != nil {
		return nil, err
	}
	return c, nil
}

// Events returns the chain's event bus (spec §4.3's
// onConnectBlock/onDisconnectBlock/onForkBlock notifications).
func (c *Chain) Events() *events.Bus {
	return c.bus
}

func (c *Chain) maybeInitGenesis() error {
	return c.db.WithTransaction(storage.ReadWrite, nil, func(tx *storage.Transaction) error {
		_, ok, err := c.stores.canonicalChain.Get(tx, 1)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		genesis := types.BlockHeader{
			Sequence:       1,
			NoteCommitment: types.TreeRoot{Root: c.params.GenesisNoteCommitmentRoot, Size: 0},
			Target:         *c.params.MaxTarget,
			Work:           *workFromTarget(c.params.MaxTarget),
		}
		hash := c.params.GenesisHash
		if err := c.stores.headers.Put(tx, hash, genesis); err != nil {
			return err
		}
		if err := c.stores.bodies.Put(tx, hash, nil); err != nil {
			return err
		}
		if err := c.stores.work.Put(tx, hash, genesis.Work); err != nil {
			return err
		}
		if err := c.stores.canonicalChain.Put(tx, 1, hash); err != nil {
			return err
		}
		return c.setBestHash(tx, hash)
	})
}

func (c *Chain) setBestHash(tx *storage.Transaction, hash chainhash.Hash) error {
	return c.stores.meta.Put(tx, metaBestHashKey, hash.CloneBytes())
}

// BestHash returns the hash of the current chain tip.
func (c *Chain) BestHash() (chainhash.Hash, error) {
	var hash chainhash.Hash
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		raw, ok, err := c.stores.meta.Get(tx, metaBestHashKey)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("blockchain: chain has no tip; genesis not initialized")
		}
		return hash.SetBytes(raw)
	})
	return hash, err
}

// GetHeader returns the header stored for hash, if any.
func (c *Chain) GetHeader(hash chainhash.Hash) (*types.BlockHeader, bool, error) {
	var header types.BlockHeader
	var ok bool
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		var err error
		header, ok, err = c.stores.headers.Get(tx, hash)
		return err
	})
	return &header, ok, err
}

// GetBlock returns the full block stored for hash, if any.
func (c *Chain) GetBlock(hash chainhash.Hash) (*types.Block, bool, error) {
	var block types.Block
	var ok bool
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		header, found, err := c.stores.headers.Get(tx, hash)
		if err != nil || !found {
			return err
		}
		txs, _, err := c.stores.bodies.Get(tx, hash)
		if err != nil {
			return err
		}
		block = types.Block{Header: header, Transactions: txs}
		ok = found
		return nil
	})
	return &block, ok, err
}

// GetTransaction returns a confirmed transaction by hash, alongside its
// confirming location.
func (c *Chain) GetTransaction(txHash chainhash.Hash) (*types.Transaction, txindex.Location, bool, error) {
	var found types.Transaction
	var loc txindex.Location
	var ok bool
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		var err error
		loc, ok, err = c.txIndex.Lookup(tx, txHash)
		if err != nil || !ok {
			return err
		}
		txs, bodyOK, err := c.stores.bodies.Get(tx, loc.BlockHash)
		if err != nil || !bodyOK {
			return err
		}
		if int(loc.Index) >= len(txs) {
			return fmt.Errorf("blockchain: corrupt index, transaction position %d out of range", loc.Index)
		}
		found = txs[loc.Index]
		return nil
	})
	return &found, loc, ok, err
}

// HashAtSequence returns the canonical block hash at sequence, if the
// chain has reached that far. Used by chainprocessor to replay a
// cursor-bounded range of the canonical chain.
func (c *Chain) HashAtSequence(sequence uint64) (chainhash.Hash, bool, error) {
	var hash chainhash.Hash
	var ok bool
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		var err error
		hash, ok, err = c.stores.canonicalChain.Get(tx, sequence)
		return err
	})
	return hash, ok, err
}

// BestHeader returns the header of the current chain tip.
func (c *Chain) BestHeader() (*types.BlockHeader, error) {
	hash, err := c.BestHash()
	if err != nil {
		return nil, err
	}
	header, ok, err := c.GetHeader(hash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("blockchain: tip header %s missing", hash)
	}
	return header, nil
}

// IsNullifierSpent reports whether nullifier has already been spent on the
// canonical chain. Mempool acceptance uses this alongside its own in-pool
// conflict set to reject double spends before a block ever sees them.
func (c *Chain) IsNullifierSpent(nullifier chainhash.Hash) (bool, error) {
	var spent bool
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		_, ok, err := c.stores.nullifiers.Get(tx, nullifier)
		spent = ok
		return err
	})
	return spent, err
}

// NoteRootAt returns the note commitment tree root at the given size, as
// recorded by the canonical chain. Mempool spend verification checks a
// transaction's claimed anchor against this rather than trusting the
// transaction's own claim, the same soundness requirement block validation
// enforces in checkBlockStateful.
func (c *Chain) NoteRootAt(size uint64) (chainhash.Hash, error) {
	var root chainhash.Hash
	err := c.db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		noteTree, err := merkletree.New[chainhash.Hash](c.params.NoteTreeDepth, c.hasher, merkletree.NewStoreNodeStore("notes", tx))
		if err != nil {
			return err
		}
		root, err = noteTree.RootHash(&size)
		return err
	})
	return root, err
}

// VerifyTransaction runs every proof/binding check AddBlock would run
// against a single transaction, without any chain-context rules (sequence,
// retarget, miner reward). Used by mempool acceptance to reject
// structurally invalid transactions before they ever reach a block.
func (c *Chain) VerifyTransaction(t *types.Transaction) error {
	for _, spend := range t.Spends {
		root, err := c.NoteRootAt(spend.TreeSize)
		if err != nil {
			return err
		}
		if spend.CommitmentRoot != root {
			return ruleError(ErrInvalidSpendProof, "spend anchor does not match a historical note tree root")
		}
		if err := c.crypto.VerifySpendProof(spend, types.TreeRoot{Root: root, Size: spend.TreeSize}); err != nil {
			return ruleError(ErrInvalidSpendProof, err.Error())
		}
	}
	for _, output := range t.Outputs {
		if err := c.crypto.VerifyOutputProof(output); err != nil {
			return ruleError(ErrInvalidOutputProof, err.Error())
		}
	}
	for _, mint := range t.Mints {
		if err := c.crypto.VerifyMintProof(mint); err != nil {
			return ruleError(ErrInvalidMintProof, err.Error())
		}
	}
	for _, burn := range t.Burns {
		if err := c.crypto.VerifyBurnProof(burn); err != nil {
			return ruleError(ErrInvalidBurnProof, err.Error())
		}
	}
	return c.crypto.VerifyBinding(*t)
}

// workFromTarget converts a proof-of-work target into the work credit a
// block satisfying it contributes to cumulative chain work: work =
// 2^256 / (target + 1), the same inverse-target convention btcd's
// CalcWork uses for its big.Int-based target/work arithmetic, restated
// over uint256 (spec §4.5's invariant 4: "the chain with the greatest
// total work wins ties by lowest hash").
func workFromTarget(target *uint256.Int) *uint256.Int {
	divisor := new(uint256.Int).AddUint64(target, 1)
	if divisor.IsZero() {
		return uint256.NewInt(1)
	}
	// 2^256 does not fit in 256 bits, so compute the equal quantity
	// (2^256 - 1 - target) / (target + 1) + 1.
	work := new(uint256.Int).Not(target)
	work.Div(work, divisor)
	return work.AddUint64(work, 1)
}

// AddBlock validates block and, depending on how it extends the known
// tree of blocks, either connects it to the best chain, files it as a
// side-chain fork, or triggers a reorganization onto it (spec §4.3).
func (c *Chain) AddBlock(ctx context.Context, block *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := checkBlockStatelessSanity(c.params, block); err != nil {
		return err
	}

	headerHash, err := c.headerHash(&block.Header)
	if err != nil {
		return err
	}

	err = c.db.WithTransaction(storage.ReadWrite, nil, func(tx *storage.Transaction) error {
		if _, exists, err := c.stores.headers.Get(tx, headerHash); err != nil {
			return err
		} else if exists {
			return ruleError(ErrDuplicateBlock, "block already known")
		}

		parentHeader, parentExists, err := c.stores.headers.Get(tx, block.Header.PreviousBlockHash)
		if err != nil {
			return err
		}
		if !parentExists {
			return ruleError(ErrMissingParent, "parent block not found")
		}
		if block.Header.Sequence != parentHeader.Sequence+1 {
			return ruleError(ErrBadSequence, "sequence does not immediately follow parent")
		}

		if cp, ok := c.params.CheckpointAt(block.Header.Sequence); ok {
			if !cp.Hash.IsEqual(&headerHash) {
				return ruleError(ErrBelowCheckpoint, "block conflicts with a pinned checkpoint")
			}
		}

		parentWork, _, err := c.stores.work.Get(tx, block.Header.PreviousBlockHash)
		if err != nil {
			return err
		}
		cumulativeWork := new(uint256.Int).Add(&parentWork, &block.Header.Work)

		if err := c.stores.headers.Put(tx, headerHash, block.Header); err != nil {
			return err
		}
		if err := c.stores.bodies.Put(tx, headerHash, block.Transactions); err != nil {
			return err
		}
		if err := c.stores.work.Put(tx, headerHash, *cumulativeWork); err != nil {
			return err
		}

		bestHashRaw, ok, err := c.stores.meta.Get(tx, metaBestHashKey)
		if err != nil {
			return err
		}
		var bestHash chainhash.Hash
		if ok {
			if err := bestHash.SetBytes(bestHashRaw); err != nil {
				return err
			}
		}
		bestWork, _, err := c.stores.work.Get(tx, bestHash)
		if err != nil {
			return err
		}

		switch {
		case block.Header.PreviousBlockHash.IsEqual(&bestHash):
			if err := c.connectBlock(tx, headerHash, block); err != nil {
				return err
			}
			return c.publishLater(ctx, events.Connect, headerHash, block.Header.Sequence)

		case cumulativeWork.Cmp(&bestWork) > 0:
			log.Infof("reorganizing to block %s at sequence %d", headerHash, block.Header.Sequence)
			return c.reorganize(ctx, tx, headerHash)

		case cumulativeWork.Cmp(&bestWork) == 0 && chainhash.Less(headerHash, bestHash):
			log.Infof("reorganizing to block %s at sequence %d on hash tie-break", headerHash, block.Header.Sequence)
			return c.reorganize(ctx, tx, headerHash)

		default:
			return c.publishLater(ctx, events.Fork, headerHash, block.Header.Sequence)
		}
	})
	if err != nil {
		c.pendingEvents = nil
		return err
	}
	return c.flushPendingEvents(ctx)
}

// publishLater buffers an event rather than publishing it immediately:
// WithTransaction's callback runs entirely before the transaction
// commits, so anything published from inside it would be visible to
// subscribers before the write is durable. AddBlock flushes the buffer
// to bus only once WithTransaction has returned successfully (spec
// §4.3: "events are emitted post-commit, in commit order").
func (c *Chain) publishLater(ctx context.Context, kind events.Kind, hash chainhash.Hash, sequence uint64) error {
	c.pendingEvents = append(c.pendingEvents, pendingEvent{kind: kind, hash: hash, sequence: sequence})
	return nil
}

// flushPendingEvents publishes every event buffered by the just-committed
// transaction, in the order they were recorded, and clears the buffer.
func (c *Chain) flushPendingEvents(ctx context.Context) error {
	pending := c.pendingEvents
	c.pendingEvents = nil
	for _, ev := range pending {
		if err := c.bus.Publish(ctx, events.BlockEvent{Kind: ev.kind, BlockHash: ev.hash, Sequence: ev.sequence}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chain) headerHash(header *types.BlockHeader) (chainhash.Hash, error) {
	encoded, err := encodeHeaderForHash(header)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return c.crypto.HeaderHash(encoded), nil
}

// connectBlock applies block's effects to the committed trees and
// indices: appends note commitments and nullifiers, marks nullifiers
// spent, indexes transactions, and advances the canonical chain pointer.
// It assumes block has already passed checkBlockStatelessSanity and sits
// directly atop the current tip.
func (c *Chain) connectBlock(tx *storage.Transaction, hash chainhash.Hash, block *types.Block) error {
	noteTree, err := merkletree.New[chainhash.Hash](c.params.NoteTreeDepth, c.hasher, merkletree.NewStoreNodeStore("notes", tx))
	if err != nil {
		return err
	}
	nullifierTree, err := merkletree.New[chainhash.Hash](c.params.NullifierTreeDepth, c.hasher, merkletree.NewStoreNodeStore("nullifiers", tx))
	if err != nil {
		return err
	}

	if err := checkBlockStateful(c, tx, noteTree, block); err != nil {
		return err
	}

	for txIdx := range block.Transactions {
		t := &block.Transactions[txIdx]
		for i := range t.Spends {
			if _, err := nullifierTree.Append(t.Spends[i].Nullifier); err != nil {
				return err
			}
			if err := c.stores.nullifiers.Put(tx, t.Spends[i].Nullifier, block.Header.Sequence); err != nil {
				return err
			}
		}
		for i := range t.Outputs {
			if _, err := noteTree.Append(t.Outputs[i].Commitment); err != nil {
				return err
			}
		}
		txHash := c.crypto.TxHash(mustEncodeTxForHash(t))
		for i := range t.Mints {
			if err := applyMint(tx, c.stores, &t.Mints[i], txHash); err != nil {
				return err
			}
		}
		for i := range t.Burns {
			if err := applyBurn(tx, c.stores, &t.Burns[i]); err != nil {
				return err
			}
		}
		loc := txindex.Location{BlockHash: hash, Sequence: block.Header.Sequence, Index: uint32(txIdx)}
		if err := c.txIndex.Put(tx, txHash, loc); err != nil {
			return err
		}
	}

	noteSize, err := noteTree.Size()
	if err != nil {
		return err
	}
	noteRoot, err := noteTree.RootHash(nil)
	if err != nil {
		return err
	}
	if block.Header.NoteCommitment.Size != noteSize || block.Header.NoteCommitment.Root != noteRoot {
		return ruleError(ErrBadNoteCommitmentRoot, "note commitment does not match the tree resulting from this block")
	}

	if err := c.stores.canonicalChain.Put(tx, block.Header.Sequence, hash); err != nil {
		return err
	}
	return c.setBestHash(tx, hash)
}

// disconnectBlock undoes connectBlock's effects: truncates both trees
// back to their pre-block sizes, frees the block's nullifiers, and
// removes its transactions from the index (spec §4.3's reorg semantics).
func (c *Chain) disconnectBlock(tx *storage.Transaction, hash chainhash.Hash, block *types.Block, parentHeader *types.BlockHeader) error {
	noteTree, err := merkletree.New[chainhash.Hash](c.params.NoteTreeDepth, c.hasher, merkletree.NewStoreNodeStore("notes", tx))
	if err != nil {
		return err
	}
	nullifierTree, err := merkletree.New[chainhash.Hash](c.params.NullifierTreeDepth, c.hasher, merkletree.NewStoreNodeStore("nullifiers", tx))
	if err != nil {
		return err
	}

	if err := noteTree.Truncate(parentHeader.NoteCommitment.Size); err != nil {
		return err
	}
	currentNullifierSize, err := nullifierTree.Size()
	if err != nil {
		return err
	}
	var spendCount uint64
	for _, t := range block.Transactions {
		spendCount += uint64(len(t.Spends))
	}
	if currentNullifierSize >= spendCount {
		if err := nullifierTree.Truncate(currentNullifierSize - spendCount); err != nil {
			return err
		}
	}

	for txIdx := range block.Transactions {
		t := &block.Transactions[txIdx]
		for i := range t.Spends {
			if err := c.stores.nullifiers.Delete(tx, t.Spends[i].Nullifier); err != nil {
				return err
			}
		}
		txHash := c.crypto.TxHash(mustEncodeTxForHash(t))
		for i := range t.Burns {
			if err := reverseBurn(tx, c.stores, &t.Burns[i]); err != nil {
				return err
			}
		}
		for i := range t.Mints {
			if err := reverseMint(tx, c.stores, &t.Mints[i], txHash); err != nil {
				return err
			}
		}
		loc := txindex.Location{BlockHash: hash, Sequence: block.Header.Sequence, Index: uint32(txIdx)}
		if err := c.txIndex.Remove(tx, txHash, loc); err != nil {
			return err
		}
	}

	return c.stores.canonicalChain.Delete(tx, block.Header.Sequence)
}

// reorganize switches the best chain to the branch ending at newTipHash,
// which has already been shown to carry more cumulative work than the
// current tip, or equal work with a header hash that sorts first (spec
// §4.3: "the chain with the greatest total work wins").
func (c *Chain) reorganize(ctx context.Context, tx *storage.Transaction, newTipHash chainhash.Hash) error {
	bestHashRaw, _, err := c.stores.meta.Get(tx, metaBestHashKey)
	if err != nil {
		return err
	}
	var currentTip chainhash.Hash
	if err := currentTip.SetBytes(bestHashRaw); err != nil {
		return err
	}
	currentHeader, _, err := c.stores.headers.Get(tx, currentTip)
	if err != nil {
		return err
	}

	// Walk backward from the new tip to find the ancestor already on the
	// canonical chain.
	var newBranch []chainhash.Hash
	cursor := newTipHash
	for {
		header, ok, err := c.stores.headers.Get(tx, cursor)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("blockchain: reorg walked off known history at %s", cursor)
		}
		canonicalAtSeq, onChain, err := c.stores.canonicalChain.Get(tx, header.Sequence)
		if err != nil {
			return err
		}
		if onChain && canonicalAtSeq.IsEqual(&cursor) {
			break
		}
		newBranch = append(newBranch, cursor)
		cursor = header.PreviousBlockHash
	}
	ancestorHash := cursor
	ancestorHeader, _, err := c.stores.headers.Get(tx, ancestorHash)
	if err != nil {
		return err
	}

	reorgDepth := currentHeader.Sequence - ancestorHeader.Sequence
	if reorgDepth > c.params.MaxReorgDepth(currentHeader.Sequence) {
		return ruleError(ErrReorgTooDeep, "reorganization would cross the most recent checkpoint")
	}

	// Disconnect down to the ancestor, highest sequence first.
	for seq := currentHeader.Sequence; seq > ancestorHeader.Sequence; seq-- {
		hash, ok, err := c.stores.canonicalChain.Get(tx, seq)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("blockchain: missing canonical entry at sequence %d", seq)
		}
		header, _, err := c.stores.headers.Get(tx, hash)
		if err != nil {
			return err
		}
		body, _, err := c.stores.bodies.Get(tx, hash)
		if err != nil {
			return err
		}
		parentHeader, _, err := c.stores.headers.Get(tx, header.PreviousBlockHash)
		if err != nil {
			return err
		}
		block := &types.Block{Header: header, Transactions: body}
		if err := c.disconnectBlock(tx, hash, block, &parentHeader); err != nil {
			return err
		}
		if err := c.publishLater(ctx, events.Disconnect, hash, seq); err != nil {
			return err
		}
	}

	// Connect the new branch, lowest sequence first.
	for i := len(newBranch) - 1; i >= 0; i-- {
		hash := newBranch[i]
		header, _, err := c.stores.headers.Get(tx, hash)
		if err != nil {
			return err
		}
		body, _, err := c.stores.bodies.Get(tx, hash)
		if err != nil {
			return err
		}
		block := &types.Block{Header: header, Transactions: body}
		if err := c.connectBlock(tx, hash, block); err != nil {
			return err
		}
		if err := c.publishLater(ctx, events.Connect, hash, header.Sequence); err != nil {
			return err
		}
	}

	return nil
}
