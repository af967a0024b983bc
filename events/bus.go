// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package events implements the Blockchain's notification fan-out
// (spec §4.3, "onConnectBlock/onDisconnectBlock/onForkBlock"), modeled
// as design note §9 prescribes: "a bounded channel per subscriber with
// back-pressure, not shared mutable listener lists."
package events

import (
	"context"
	"sync"

	"github.com/iron-fish/go-ironfish/chainhash"
)

// Kind identifies what happened to a block from the chain's point of
// view.
type Kind int

const (
	// Connect fires when a block becomes part of the best chain.
	Connect Kind = iota
	// Disconnect fires when a block is removed from the best chain
	// during a reorg.
	Disconnect
	// Fork fires when a valid block is accepted onto a side chain that
	// is not (yet) the best chain.
	Fork
)

func (k Kind) String() string {
	switch k {
	case Connect:
		return "connect"
	case Disconnect:
		return "disconnect"
	case Fork:
		return "fork"
	default:
		return "unknown"
	}
}

// BlockEvent is one entry in the chain's commit-ordered event log.
type BlockEvent struct {
	Kind      Kind
	BlockHash chainhash.Hash
	Sequence  uint64
}

// defaultBufferSize bounds how far a slow subscriber may lag the
// publisher before Publish blocks, applying the back-pressure design
// note §9 calls for instead of an unbounded queue.
const defaultBufferSize = 256

// Subscription is a bounded, ordered view onto the event bus from the
// point a subscriber joined.
type Subscription struct {
	ch     chan BlockEvent
	bus    *Bus
	id     uint64
	closed bool
}

// Events returns the subscription's receive channel. It is closed when
// the subscription is closed or the bus itself is closed.
func (s *Subscription) Events() <-chan BlockEvent {
	return s.ch
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// Bus fans a single ordered stream of BlockEvents out to every current
// subscriber.
type Bus struct {
	mu          sync.Mutex
	subscribers map[uint64]*Subscription
	nextID      uint64
	closed      bool
}

// NewBus constructs an empty event bus.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[uint64]*Subscription)}
}

// Subscribe registers a new subscriber and returns its Subscription.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := &Subscription{ch: make(chan BlockEvent, defaultBufferSize), bus: b, id: b.nextID}
	b.subscribers[sub.id] = sub
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[sub.id]; !ok {
		return
	}
	delete(b.subscribers, sub.id)
	close(sub.ch)
}

// Publish delivers ev to every current subscriber, in the commit order
// the caller published them in (spec §4.3: "events are emitted
// post-commit in commit order"). It blocks on any subscriber whose
// buffer is full, providing back-pressure rather than dropping events;
// ctx lets a caller bound how long it is willing to wait on a stuck
// subscriber.
func (b *Bus) Publish(ctx context.Context, ev BlockEvent) error {
	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		targets = append(targets, sub)
	}
	b.mu.Unlock()

	for _, sub := range targets {
		select {
		case sub.ch <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close shuts down the bus and every subscription's channel. Further
// Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}
