// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txindex

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/storage"
)

func openTestDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "txindex.ldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func hashFromByte(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestPutThenLookupByHashAndPosition(t *testing.T) {
	db := openTestDB(t)
	idx := New()

	txHash := hashFromByte(1)
	blockHash := hashFromByte(2)
	loc := Location{BlockHash: blockHash, Sequence: 5, Index: 1}

	err := db.WithTransaction(storage.ReadWrite, nil, func(tx *storage.Transaction) error {
		return idx.Put(tx, txHash, loc)
	})
	require.NoError(t, err)

	err = db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		got, ok, err := idx.Lookup(tx, txHash)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, loc, got)

		gotHash, ok, err := idx.LookupByPosition(tx, 5, 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, txHash, gotHash)
		return nil
	})
	require.NoError(t, err)
}

func TestRemoveDeletesBothEntries(t *testing.T) {
	db := openTestDB(t)
	idx := New()

	txHash := hashFromByte(3)
	loc := Location{BlockHash: hashFromByte(4), Sequence: 7, Index: 0}

	err := db.WithTransaction(storage.ReadWrite, nil, func(tx *storage.Transaction) error {
		return idx.Put(tx, txHash, loc)
	})
	require.NoError(t, err)

	err = db.WithTransaction(storage.ReadWrite, nil, func(tx *storage.Transaction) error {
		return idx.Remove(tx, txHash, loc)
	})
	require.NoError(t, err)

	err = db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		_, ok, err := idx.Lookup(tx, txHash)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = idx.LookupByPosition(tx, 7, 0)
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestIterateBlockWalksInIndexOrder(t *testing.T) {
	db := openTestDB(t)
	idx := New()

	blockHash := hashFromByte(9)
	err := db.WithTransaction(storage.ReadWrite, nil, func(tx *storage.Transaction) error {
		for i := uint32(0); i < 4; i++ {
			loc := Location{BlockHash: blockHash, Sequence: 10, Index: i}
			if err := idx.Put(tx, hashFromByte(byte(100+i)), loc); err != nil {
				return err
			}
		}
		// Entry at a different sequence must not show up in the sequence-10 scan.
		return idx.Put(tx, hashFromByte(200), Location{BlockHash: blockHash, Sequence: 11, Index: 0})
	})
	require.NoError(t, err)

	var seen []byte
	err = db.WithTransaction(storage.ReadOnly, nil, func(tx *storage.Transaction) error {
		return idx.IterateBlock(tx, 10, func(index uint32, txHash chainhash.Hash) (bool, error) {
			seen = append(seen, txHash[0])
			return true, nil
		})
	})
	require.NoError(t, err)
	require.Equal(t, []byte{100, 101, 102, 103}, seen)
}
