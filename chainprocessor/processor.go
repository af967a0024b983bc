// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainprocessor replays a Blockchain's connect/disconnect event
// stream from an arbitrary starting cursor forward (spec §4.6), so a
// consumer like Wallet can resume scanning exactly where it left off
// after being offline rather than needing to have been subscribed the
// whole time.
package chainprocessor

import (
	"context"
	"fmt"

	"github.com/btcsuite/btclog"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/events"
)

var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Cursor is a consumer's position in the canonical chain: the last block
// it has processed a connect for.
type Cursor struct {
	Hash     chainhash.Hash
	Sequence uint64
}

// Processor drives Handler with the ordered connect/disconnect history of
// a ChainView, starting from a Cursor that may be arbitrarily far behind
// the chain's current tip.
type Processor struct {
	chain   ChainView
	handler Handler
	cursor  Cursor
}

// New constructs a Processor that will resume from start on Run.
func New(chain ChainView, handler Handler, start Cursor) *Processor {
	return &Processor{chain: chain, handler: handler, cursor: start}
}

// Cursor returns the processor's current position.
func (p *Processor) Cursor() Cursor {
	return p.cursor
}

// Run subscribes to the chain's event bus, replays every block between
// the processor's starting cursor and the chain's tip as of subscription
// time, then continues draining live events until ctx is canceled. The
// subscription happens before the catch-up replay so no block connected
// during the replay is ever missed.
func (p *Processor) Run(ctx context.Context) error {
	sub := p.chain.Events().Subscribe()
	defer sub.Close()

	tip, err := p.chain.BestHeader()
	if err != nil {
		return fmt.Errorf("chainprocessor: reading chain tip: %w", err)
	}
	if err := p.replayTo(tip.Sequence); err != nil {
		return fmt.Errorf("chainprocessor: catch-up replay: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := p.handleEvent(ev); err != nil {
				return err
			}
		}
	}
}

func (p *Processor) handleEvent(ev events.BlockEvent) error {
	switch ev.Kind {
	case events.Connect:
		if ev.Sequence <= p.cursor.Sequence {
			return nil // already applied during catch-up replay
		}
		if ev.Sequence > p.cursor.Sequence+1 {
			// A gap opened between catch-up and the live stream (a
			// block connected in the moment between reading the tip
			// and draining the subscription). Replay the gap instead
			// of asking the handler to reason about skipped sequences.
			return p.replayTo(ev.Sequence)
		}
		return p.connectOne(ev.BlockHash, ev.Sequence)
	case events.Disconnect:
		if ev.Sequence > p.cursor.Sequence {
			return nil // disconnecting a block we never applied
		}
		return p.disconnectOne(ev.BlockHash, ev.Sequence)
	default:
		return nil
	}
}

// replayTo applies every connect from the processor's current cursor up
// to and including targetSequence, walking the canonical chain by
// sequence number.
func (p *Processor) replayTo(targetSequence uint64) error {
	for seq := p.cursor.Sequence + 1; seq <= targetSequence; seq++ {
		hash, ok, err := p.chain.HashAtSequence(seq)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("chainprocessor: canonical chain missing sequence %d", seq)
		}
		if err := p.connectOne(hash, seq); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) connectOne(hash chainhash.Hash, sequence uint64) error {
	block, ok, err := p.chain.GetBlock(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chainprocessor: block %s not found", hash)
	}
	if err := p.handler.HandleConnect(hash, block); err != nil {
		return fmt.Errorf("chainprocessor: handling connect %s: %w", hash, err)
	}
	p.cursor = Cursor{Hash: hash, Sequence: sequence}
	log.Debugf("chainprocessor: connected %s at sequence %d", hash, sequence)
	return nil
}

func (p *Processor) disconnectOne(hash chainhash.Hash, sequence uint64) error {
	block, ok, err := p.chain.GetBlock(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("chainprocessor: block %s not found", hash)
	}
	if err := p.handler.HandleDisconnect(hash, block); err != nil {
		return fmt.Errorf("chainprocessor: handling disconnect %s: %w", hash, err)
	}
	// The disconnected block's own header names its parent directly, so
	// the cursor rewinds to exactly the block this one was built on
	// without needing to ask the chain what is canonical "now" — by the
	// time this event is delivered the chain has already committed the
	// whole reorg, including whatever new block may already occupy
	// sequence-1's slot on the winning branch.
	p.cursor = Cursor{Hash: block.Header.PreviousBlockHash, Sequence: sequence - 1}
	log.Debugf("chainprocessor: disconnected %s, cursor now at sequence %d", hash, sequence-1)
	return nil
}
