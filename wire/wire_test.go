// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

func sampleHeader() types.BlockHeader {
	h := types.BlockHeader{
		Sequence:               42,
		PreviousBlockHash:      chainhash.Hash{1, 2, 3},
		NoteCommitment:         types.TreeRoot{Root: chainhash.Hash{4, 5}, Size: 7},
		TransactionCommitment:  chainhash.Hash{6, 7, 8},
		Target:                 *uint256.NewInt(1000),
		Randomness:             99,
		Timestamp:              time.Unix(1700000000, 0).UTC(),
		Graffiti:               [32]byte{9, 9},
		Work:                   *uint256.NewInt(55),
	}
	return h
}

func TestHeaderRoundTrip(t *testing.T) {
	header := sampleHeader()
	var buf bytes.Buffer
	require.NoError(t, SerializeHeader(&buf, &header))
	require.Equal(t, HeaderSize, buf.Len())

	got, err := DeserializeHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, header.Sequence, got.Sequence)
	require.True(t, header.PreviousBlockHash.IsEqual(&got.PreviousBlockHash))
	require.True(t, header.NoteCommitment.Root.IsEqual(&got.NoteCommitment.Root))
	require.Equal(t, header.NoteCommitment.Size, got.NoteCommitment.Size)
	require.True(t, header.TransactionCommitment.IsEqual(&got.TransactionCommitment))
	require.Equal(t, header.Target.String(), got.Target.String())
	require.Equal(t, header.Randomness, got.Randomness)
	require.True(t, header.Timestamp.Equal(got.Timestamp))
	require.Equal(t, header.Graffiti, got.Graffiti)
	require.Equal(t, header.Work.String(), got.Work.String())
}

func sampleTransaction() types.Transaction {
	addr := types.PublicAddress{}
	addr[0] = 0xab
	return types.Transaction{
		Version: 1,
		Spends: []types.Spend{{
			Nullifier:            chainhash.Hash{1},
			CommitmentRoot:       chainhash.Hash{2},
			TreeSize:             10,
			Proof:                []byte{0xde, 0xad, 0xbe, 0xef},
			AuthorizingSignature: [64]byte{3},
		}},
		Outputs: []types.Output{{
			Commitment:          chainhash.Hash{4},
			EncryptedCiphertext: []byte("ciphertext"),
			EphemeralPublicKey:  [32]byte{5},
			Proof:               []byte{0xca, 0xfe},
		}},
		Mints: []types.Mint{{
			AssetID:  chainhash.Hash{6},
			Value:    500,
			Owner:    addr,
			Name:     "widget",
			Metadata: "{}",
			Creator:  addr,
			Nonce:    [32]byte{7},
			Proof:    []byte{0x01},
		}},
		Burns: []types.Burn{{
			AssetID: chainhash.Hash{8},
			Value:   50,
			Proof:   []byte{0x02},
		}},
		Fee:                 -10,
		Expiration:          200,
		PublicKeyRandomness: [32]byte{9},
		BindingSignature:    [64]byte{10},
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	var buf bytes.Buffer
	require.NoError(t, SerializeTransaction(&buf, &tx))

	got, err := DeserializeTransaction(&buf)
	require.NoError(t, err)
	require.Equal(t, tx, *got)
}

func TestTransactionWithTransferOwnershipRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	other := types.PublicAddress{}
	other[0] = 0xcd
	tx.Mints[0].TransferOwnershipTo = &other

	var buf bytes.Buffer
	require.NoError(t, SerializeTransaction(&buf, &tx))

	got, err := DeserializeTransaction(&buf)
	require.NoError(t, err)
	require.NotNil(t, got.Mints[0].TransferOwnershipTo)
	require.Equal(t, other, *got.Mints[0].TransferOwnershipTo)
}

func TestBlockRoundTrip(t *testing.T) {
	block := types.Block{
		Header:       sampleHeader(),
		Transactions: []types.Transaction{sampleTransaction(), sampleTransaction()},
	}
	encoded, err := EncodeBlock(&block)
	require.NoError(t, err)

	got, err := DeserializeBlock(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Equal(t, block.Header.Sequence, got.Header.Sequence)
	require.Len(t, got.Transactions, 2)
}

func TestDeserializeTransactionRejectsOversizedCount(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(1) // version
	require.NoError(t, WriteVarInt(&buf, maxListLength+1))

	_, err := DeserializeTransaction(&buf)
	require.Error(t, err)
}

func TestVarIntRoundTripAcrossSizeClasses(t *testing.T) {
	values := []uint64{0, 1, 252, 253, 0xffff, 0x10000, 0xffffffff, 0x100000000, ^uint64(0)}
	for _, v := range values {
		var buf bytes.Buffer
		require.NoError(t, WriteVarInt(&buf, v))
		require.Equal(t, VarIntSerializeSize(v), buf.Len())
		got, err := ReadVarInt(&buf)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
