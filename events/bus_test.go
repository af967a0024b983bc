// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()
	subA := bus.Subscribe()
	subB := bus.Subscribe()
	defer subA.Close()
	defer subB.Close()

	ev := BlockEvent{Kind: Connect, Sequence: 1}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Publish(ctx, ev))

	require.Equal(t, ev, <-subA.Events())
	require.Equal(t, ev, <-subB.Events())
}

func TestPublishPreservesOrder(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	defer sub.Close()

	ctx := context.Background()
	for i := uint64(0); i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, BlockEvent{Kind: Connect, Sequence: i}))
	}
	for i := uint64(0); i < 5; i++ {
		ev := <-sub.Events()
		require.Equal(t, i, ev.Sequence)
	}
}

func TestCloseSubscriptionClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	sub.Close()

	_, ok := <-sub.Events()
	require.False(t, ok)
}

func TestSubscribeAfterPublishDoesNotSeePastEvents(t *testing.T) {
	bus := NewBus()
	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, BlockEvent{Kind: Connect, Sequence: 1}))

	sub := bus.Subscribe()
	defer sub.Close()

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event delivered to late subscriber: %+v", ev)
	default:
	}
}

func TestBusCloseClosesAllSubscriptions(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe()
	bus.Close()

	_, ok := <-sub.Events()
	require.False(t, ok)
}
