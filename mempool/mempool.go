// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool implements the pending-transaction pool: acceptance,
// fee-rate-ordered eviction, sequence-based expiration, and reorg handling
// (spec §4.4).
package mempool

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btclog"
	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/lru"
	"github.com/google/btree"
	"lukechampine.com/blake3"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/events"
	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

// log is the package-level logger, silent until UseLogger installs one
// (same convention as blockchain and mining/randomx).
var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

const recentRejectsSize = 2048

// Config wires a Pool to its collaborators.
type Config struct {
	Policy Policy
	Chain  ChainView
	Bus    *events.Bus

	// OnEvict, if set, is called exactly once per transaction dropped by
	// evictIfOverCapacityLocked, outside the pool's lock (spec §4.4:
	// "eviction is reported via onEvict").
	OnEvict func(TxDesc)
}

// Pool is the set of transactions known to be valid against the current
// chain tip but not yet confirmed in a block. It is safe for concurrent
// use.
type Pool struct {
	mu sync.RWMutex

	cfg Config

	pool       map[chainhash.Hash]*TxDesc
	nullifiers map[chainhash.Hash]chainhash.Hash // nullifier -> spending tx hash
	byFeeRate  *btree.BTreeG[feeRateItem]

	recentRejects *lru.Cache[chainhash.Hash]
}

// New constructs an empty pool. Call Run in its own goroutine to have it
// track confirmations and reorgs off cfg.Bus.
func New(cfg Config) *Pool {
	p := &Pool{
		cfg:           cfg,
		pool:          make(map[chainhash.Hash]*TxDesc),
		nullifiers:    make(map[chainhash.Hash]chainhash.Hash),
		byFeeRate:     btree.NewG(32, feeRateLess),
		recentRejects: lru.NewCache[chainhash.Hash](recentRejectsSize),
	}
	return p
}

// Run drains cfg.Bus events until ctx is canceled, evicting confirmed
// transactions on Connect and re-admitting freed nullifiers on Disconnect
// (spec §4.4's reorg handling). Intended to run in its own goroutine.
func (p *Pool) Run(ctx context.Context) error {
	sub := p.cfg.Bus.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := p.handleEvent(ev); err != nil {
				log.Errorf("mempool: handling %s event for %s: %v", ev.Kind, ev.BlockHash, err)
			}
		}
	}
}

func (p *Pool) handleEvent(ev events.BlockEvent) error {
	switch ev.Kind {
	case events.Connect:
		return p.onConnect(ev.BlockHash)
	case events.Disconnect:
		return p.onDisconnect(ev.BlockHash)
	default:
		return nil
	}
}

// onConnect removes every pooled transaction the newly connected block
// already confirms (by identity, even if it spends no nullifiers, e.g. a
// mint/output-only transaction), and evicts any pooled transaction that
// conflicts with one of the block's nullifiers (it can no longer be valid).
func (p *Pool) onConnect(hash chainhash.Hash) error {
	block, ok, err := p.cfg.Chain.GetBlock(hash)
	if err != nil || !ok {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range block.Transactions {
		t := &block.Transactions[i]
		p.removeLocked(txHashForPool(t))
		for _, spend := range t.Spends {
			if conflictHash, exists := p.nullifiers[spend.Nullifier]; exists {
				p.removeLocked(conflictHash)
			}
		}
	}
	return nil
}

// onDisconnect re-admits a disconnected block's transactions for possible
// re-inclusion in a future block, unless they no longer verify against
// the chain's now-rewound state.
func (p *Pool) onDisconnect(hash chainhash.Hash) error {
	block, ok, err := p.cfg.Chain.GetBlock(hash)
	if err != nil || !ok {
		return err
	}

	for i := range block.Transactions {
		t := block.Transactions[i]
		if t.Fee < 0 {
			continue // miner transactions are never re-pooled
		}
		if _, err := p.Accept(&t); err != nil {
			log.Debugf("mempool: dropping disconnected tx %x: %v", t.BindingSignature, err)
		}
	}
	return nil
}

// Accept validates t and, if acceptable, adds it to the pool. It returns
// the pool's bookkeeping record on success.
func (p *Pool) Accept(t *types.Transaction) (*TxDesc, error) {
	size, err := encodedSize(t)
	if err != nil {
		return nil, fmt.Errorf("mempool: encoding transaction: %w", err)
	}
	txHash := txHashForPool(t)

	p.mu.RLock()
	rejected := p.recentRejects.Contains(txHash)
	_, already := p.pool[txHash]
	p.mu.RUnlock()
	if rejected {
		return nil, fmt.Errorf("mempool: transaction %s was recently rejected", txHash)
	}
	if already {
		return nil, fmt.Errorf("mempool: transaction %s already in pool", txHash)
	}

	if err := p.checkAcceptable(t, txHash, size); err != nil {
		p.mu.Lock()
		p.recentRejects.Add(txHash)
		p.mu.Unlock()
		return nil, err
	}

	desc := &TxDesc{
		Tx:      *t,
		TxHash:  txHash,
		Size:    size,
		Fee:     t.Fee,
		FeeRate: feeRate(t.Fee, size),
	}

	p.mu.Lock()
	p.insertLocked(desc)
	evicted, didEvict := p.evictIfOverCapacityLocked()
	p.mu.Unlock()

	if didEvict && p.cfg.OnEvict != nil {
		p.cfg.OnEvict(evicted)
	}
	if didEvict && evicted.TxHash == txHash {
		return nil, fmt.Errorf("mempool: fee rate %d too low for a full pool", desc.FeeRate)
	}

	log.Debugf("mempool: accepted %s (fee rate %d): %s", txHash, desc.FeeRate, spew.Sdump(desc.Tx))
	return desc, nil
}

// checkAcceptable runs every rule for admitting t, assuming the caller
// has already confirmed it isn't already pooled or recently rejected.
func (p *Pool) checkAcceptable(t *types.Transaction, txHash chainhash.Hash, size int) error {
	rate := feeRate(t.Fee, size)
	if rate < p.cfg.Policy.MinFeeRate {
		return fmt.Errorf("mempool: fee rate %d below minimum %d", rate, p.cfg.Policy.MinFeeRate)
	}

	header, err := p.cfg.Chain.BestHeader()
	if err != nil {
		return err
	}
	if t.Expiration != 0 && header.Sequence+p.cfg.Policy.ExpirationGrace+1 > t.Expiration {
		return fmt.Errorf("mempool: transaction expires at sequence %d, tip is %d", t.Expiration, header.Sequence)
	}

	p.mu.RLock()
	for _, spend := range t.Spends {
		if conflict, exists := p.nullifiers[spend.Nullifier]; exists && conflict != txHash {
			p.mu.RUnlock()
			return fmt.Errorf("mempool: nullifier already spent by pooled transaction %s", conflict)
		}
	}
	p.mu.RUnlock()

	for _, spend := range t.Spends {
		if spent, err := p.cfg.Chain.IsNullifierSpent(spend.Nullifier); err != nil {
			return err
		} else if spent {
			return fmt.Errorf("mempool: nullifier already spent on chain")
		}
	}

	return p.cfg.Chain.VerifyTransaction(t)
}

func (p *Pool) insertLocked(desc *TxDesc) {
	p.pool[desc.TxHash] = desc
	for _, spend := range desc.Tx.Spends {
		p.nullifiers[spend.Nullifier] = desc.TxHash
	}
	p.byFeeRate.ReplaceOrInsert(feeRateItem{FeeRate: desc.FeeRate, TxHash: desc.TxHash})
}

func (p *Pool) removeLocked(txHash chainhash.Hash) {
	desc, ok := p.pool[txHash]
	if !ok {
		return
	}
	delete(p.pool, txHash)
	for _, spend := range desc.Tx.Spends {
		if p.nullifiers[spend.Nullifier] == txHash {
			delete(p.nullifiers, spend.Nullifier)
		}
	}
	p.byFeeRate.Delete(feeRateItem{FeeRate: desc.FeeRate, TxHash: desc.TxHash})
}

// evictIfOverCapacityLocked drops the single lowest fee-rate transaction
// once the pool exceeds its configured size, mirroring the teacher's
// size-capped-pool policy but driven by the ordered fee-rate index
// instead of a linear scan. The evicted descriptor is returned rather
// than reported from here, since cfg.OnEvict must run outside the
// pool's lock.
func (p *Pool) evictIfOverCapacityLocked() (TxDesc, bool) {
	if p.cfg.Policy.MaxPoolSize <= 0 || len(p.pool) <= p.cfg.Policy.MaxPoolSize {
		return TxDesc{}, false
	}
	lowest, ok := p.byFeeRate.Min()
	if !ok {
		return TxDesc{}, false
	}
	desc, ok := p.pool[lowest.TxHash]
	if !ok {
		return TxDesc{}, false
	}
	evicted := *desc
	log.Debugf("mempool: evicting %s to stay under capacity", lowest.TxHash)
	p.removeLocked(lowest.TxHash)
	return evicted, true
}

// ExpireBefore removes every pooled transaction whose nonzero Expiration
// is at or below tipSequence plus Policy.ExpirationGrace (spec §4.4's
// sequence-based expiration).
func (p *Pool) ExpireBefore(tipSequence uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var expired []chainhash.Hash
	for hash, desc := range p.pool {
		if desc.Tx.Expiration != 0 && tipSequence+p.cfg.Policy.ExpirationGrace >= desc.Tx.Expiration {
			expired = append(expired, hash)
		}
	}
	for _, hash := range expired {
		log.Debugf("mempool: expiring %s at sequence %d", hash, tipSequence)
		p.removeLocked(hash)
	}
}

// SpendsNullifier reports whether some pooled transaction already spends
// nullifier, letting callers outside the pool (e.g. wallet balance
// computation) treat a note as in-flight even before its spend is mined
// (spec §4.6's mempool-aware Unconfirmed/Pending buckets).
func (p *Pool) SpendsNullifier(nullifier chainhash.Hash) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.nullifiers[nullifier]
	return ok
}

// Get returns the pooled transaction by hash, if any.
func (p *Pool) Get(txHash chainhash.Hash) (*TxDesc, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	desc, ok := p.pool[txHash]
	return desc, ok
}

// Len returns the number of pooled transactions.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pool)
}

// TemplateTransactions returns up to limit pooled transactions in
// descending fee-rate order, for block template assembly.
func (p *Pool) TemplateTransactions(limit int) []types.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]types.Transaction, 0, limit)
	p.byFeeRate.Descend(func(item feeRateItem) bool {
		if len(out) >= limit {
			return false
		}
		if desc, ok := p.pool[item.TxHash]; ok {
			out = append(out, desc.Tx)
		}
		return true
	})
	return out
}

// txHashForPool derives a stable identity for a pooled transaction
// independent of any particular crypto.Provider, so pool bookkeeping
// never has to agree with the Chain's own TxHash implementation. It is
// only ever used as a map/btree key, never as the confirmed txid a
// wallet or block indexes by.
func txHashForPool(t *types.Transaction) chainhash.Hash {
	var buf bytes.Buffer
	_ = wire.SerializeTransaction(&buf, t)
	digest := blake3.Sum256(buf.Bytes())
	var h chainhash.Hash
	copy(h[:], digest[:])
	return h
}
