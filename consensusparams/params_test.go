// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package consensusparams

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewardAtHalvesOnSchedule(t *testing.T) {
	p := TestNet([32]byte{1})
	require.Equal(t, uint64(1000), p.RewardAt(0))
	require.Equal(t, uint64(1000), p.RewardAt(99))
	require.Equal(t, uint64(500), p.RewardAt(100))
	require.Equal(t, uint64(250), p.RewardAt(200))
}

func TestRewardAtEventuallyReachesZero(t *testing.T) {
	p := TestNet([32]byte{1})
	require.Equal(t, uint64(0), p.RewardAt(p.HalvingInterval*65))
}

func TestCheckpointLookup(t *testing.T) {
	p := TestNet([32]byte{1})
	p.Checkpoints = []Checkpoint{
		{Sequence: 10, Hash: [32]byte{0xaa}},
		{Sequence: 20, Hash: [32]byte{0xbb}},
	}

	cp, ok := p.CheckpointAt(20)
	require.True(t, ok)
	require.Equal(t, uint64(20), cp.Sequence)

	_, ok = p.CheckpointAt(15)
	require.False(t, ok)

	latest, ok := p.LatestCheckpointBefore(15)
	require.True(t, ok)
	require.Equal(t, uint64(10), latest.Sequence)

	_, ok = p.LatestCheckpointBefore(5)
	require.False(t, ok)
}

func TestMaxReorgDepthBoundedByCheckpoint(t *testing.T) {
	p := TestNet([32]byte{1})
	p.Checkpoints = []Checkpoint{{Sequence: 100, Hash: [32]byte{0xcc}}}

	require.Equal(t, uint64(50), p.MaxReorgDepth(150))
	require.Equal(t, uint64(0), p.MaxReorgDepth(100))
}

func TestGenesisRootsAreNonZero(t *testing.T) {
	p := TestNet([32]byte{1})
	require.False(t, p.GenesisNoteCommitmentRoot.IsZero())
	require.False(t, p.GenesisNullifierRoot.IsZero())
}
