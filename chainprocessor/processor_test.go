// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/events"
	"github.com/iron-fish/go-ironfish/types"
)

type fakeChain struct {
	bus        *events.Bus
	byHash     map[chainhash.Hash]types.Block
	bySequence map[uint64]chainhash.Hash
	tip        types.BlockHeader
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		bus:        events.NewBus(),
		byHash:     make(map[chainhash.Hash]types.Block),
		bySequence: make(map[uint64]chainhash.Hash),
	}
}

func (f *fakeChain) BestHeader() (*types.BlockHeader, error) { return &f.tip, nil }

func (f *fakeChain) HashAtSequence(seq uint64) (chainhash.Hash, bool, error) {
	h, ok := f.bySequence[seq]
	return h, ok, nil
}

func (f *fakeChain) GetBlock(hash chainhash.Hash) (*types.Block, bool, error) {
	b, ok := f.byHash[hash]
	return &b, ok, nil
}

func (f *fakeChain) Events() *events.Bus { return f.bus }

// addBlock registers a block at sequence as already-canonical chain
// state, as if it had been connected before the processor ever started.
func (f *fakeChain) addBlock(seq uint64, tag byte) chainhash.Hash {
	var hash chainhash.Hash
	hash[0] = tag
	var parent chainhash.Hash
	if seq > 1 {
		parent = f.bySequence[seq-1]
	}
	block := types.Block{Header: types.BlockHeader{Sequence: seq, PreviousBlockHash: parent}}
	f.byHash[hash] = block
	f.bySequence[seq] = hash
	f.tip = block.Header
	return hash
}

type recordingHandler struct {
	connected    []chainhash.Hash
	disconnected []chainhash.Hash
}

func (h *recordingHandler) HandleConnect(hash chainhash.Hash, block *types.Block) error {
	h.connected = append(h.connected, hash)
	return nil
}

func (h *recordingHandler) HandleDisconnect(hash chainhash.Hash, block *types.Block) error {
	h.disconnected = append(h.disconnected, hash)
	return nil
}

func TestRunReplaysFromCursorToTip(t *testing.T) {
	chain := newFakeChain()
	hash1 := chain.addBlock(1, 0x01)
	hash2 := chain.addBlock(2, 0x02)
	hash3 := chain.addBlock(3, 0x03)

	handler := &recordingHandler{}
	p := New(chain, handler, Cursor{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	require.Equal(t, []chainhash.Hash{hash1, hash2, hash3}, handler.connected)
	require.Equal(t, Cursor{Hash: hash3, Sequence: 3}, p.Cursor())
}

func TestRunResumesFromMidChainCursor(t *testing.T) {
	chain := newFakeChain()
	hash1 := chain.addBlock(1, 0x01)
	hash2 := chain.addBlock(2, 0x02)
	hash3 := chain.addBlock(3, 0x03)

	handler := &recordingHandler{}
	p := New(chain, handler, Cursor{Hash: hash1, Sequence: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	require.Equal(t, []chainhash.Hash{hash2, hash3}, handler.connected)
}

func TestLiveConnectAfterCatchUp(t *testing.T) {
	chain := newFakeChain()
	hash1 := chain.addBlock(1, 0x01)

	handler := &recordingHandler{}
	p := New(chain, handler, Cursor{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)

	hash2 := chain.addBlock(2, 0x02)
	require.NoError(t, chain.bus.Publish(context.Background(), events.BlockEvent{
		Kind: events.Connect, BlockHash: hash2, Sequence: 2,
	}))
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	require.Equal(t, []chainhash.Hash{hash1, hash2}, handler.connected)
}

func TestDisconnectRewindsCursor(t *testing.T) {
	chain := newFakeChain()
	hash1 := chain.addBlock(1, 0x01)
	hash2 := chain.addBlock(2, 0x02)

	handler := &recordingHandler{}
	p := New(chain, handler, Cursor{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, chain.bus.Publish(context.Background(), events.BlockEvent{
		Kind: events.Disconnect, BlockHash: hash2, Sequence: 2,
	}))
	time.Sleep(10 * time.Millisecond)
	cancel()
	<-done

	require.Equal(t, []chainhash.Hash{hash2}, handler.disconnected)
	require.Equal(t, Cursor{Hash: hash1, Sequence: 1}, p.Cursor())
}
