// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/storage"
	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

type hashKeyCodec struct{}

func (hashKeyCodec) EncodeKey(h chainhash.Hash) []byte { return h.CloneBytes() }

type headerCodec struct{}

func (headerCodec) Encode(h types.BlockHeader) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.SerializeHeader(&buf, &h); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (headerCodec) Decode(data []byte) (types.BlockHeader, error) {
	h, err := wire.DeserializeHeader(bytes.NewReader(data))
	if err != nil {
		return types.BlockHeader{}, err
	}
	return *h, nil
}

type bodyCodec struct{}

func (bodyCodec) Encode(txs []types.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteVarInt(&buf, uint64(len(txs))); err != nil {
		return nil, err
	}
	for i := range txs {
		if err := wire.SerializeTransaction(&buf, &txs[i]); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (bodyCodec) Decode(data []byte) ([]types.Transaction, error) {
	r := bytes.NewReader(data)
	n, err := wire.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	txs := make([]types.Transaction, n)
	for i := range txs {
		tx, err := wire.DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
		txs[i] = *tx
	}
	return txs, nil
}

type workCodec struct{}

func (workCodec) Encode(w uint256.Int) ([]byte, error) {
	b := w.Bytes32()
	return b[:], nil
}

func (workCodec) Decode(data []byte) (uint256.Int, error) {
	if len(data) != 32 {
		return uint256.Int{}, fmt.Errorf("blockchain: invalid work value length %d", len(data))
	}
	var w uint256.Int
	w.SetBytes32(data)
	return w, nil
}

type sequenceKeyCodec struct{}

func (sequenceKeyCodec) EncodeKey(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}

// stores bundles every storage.Store the Chain persists state in. One
// instance is created per Chain (spec §4.1's CHAIN logical database).
type stores struct {
	headers        *storage.Store[chainhash.Hash, types.BlockHeader]
	bodies         *storage.Store[chainhash.Hash, []types.Transaction]
	work           *storage.Store[chainhash.Hash, uint256.Int]
	canonicalChain *storage.Store[uint64, chainhash.Hash]
	nullifiers     *storage.Store[chainhash.Hash, uint64] // nullifier -> spending sequence
	assets         *storage.Store[chainhash.Hash, types.AssetRecord]
	meta           *storage.Store[string, []byte]
}

func newStores() *stores {
	return &stores{
		headers:        storage.NewStore[chainhash.Hash, types.BlockHeader]("bc_headers", hashKeyCodec{}, headerCodec{}),
		bodies:         storage.NewStore[chainhash.Hash, []types.Transaction]("bc_bodies", hashKeyCodec{}, bodyCodec{}),
		work:           storage.NewStore[chainhash.Hash, uint256.Int]("bc_work", hashKeyCodec{}, workCodec{}),
		canonicalChain: storage.NewStore[uint64, chainhash.Hash]("bc_canonical", sequenceKeyCodec{}, hashCodecBC{}),
		nullifiers:     storage.NewStore[chainhash.Hash, uint64]("bc_nullifiers", hashKeyCodec{}, sequenceValueCodec{}),
		assets:         storage.NewStore[chainhash.Hash, types.AssetRecord]("bc_assets", hashKeyCodec{}, assetCodec{}),
		meta:           storage.NewStore[string, []byte]("bc_meta", stringKeyCodecBC{}, bytesValueCodec{}),
	}
}

type hashCodecBC struct{}

func (hashCodecBC) Encode(h chainhash.Hash) ([]byte, error) { return h.CloneBytes(), nil }
func (hashCodecBC) Decode(data []byte) (chainhash.Hash, error) {
	var h chainhash.Hash
	err := h.SetBytes(data)
	return h, err
}

type sequenceValueCodec struct{}

func (sequenceValueCodec) Encode(v uint64) ([]byte, error) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:], nil
}

func (sequenceValueCodec) Decode(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("blockchain: invalid sequence value length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

type stringKeyCodecBC struct{}

func (stringKeyCodecBC) EncodeKey(k string) []byte { return []byte(k) }

type bytesValueCodec struct{}

func (bytesValueCodec) Encode(v []byte) ([]byte, error) { return v, nil }
func (bytesValueCodec) Decode(data []byte) ([]byte, error) {
	return append([]byte{}, data...), nil
}

type assetCodec struct{}

func (assetCodec) Encode(a types.AssetRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(a.ID[:])
	buf.Write(a.Creator[:])
	buf.Write(a.Owner[:])
	if err := wire.WriteVarBytes(&buf, []byte(a.Name)); err != nil {
		return nil, err
	}
	if err := wire.WriteVarBytes(&buf, []byte(a.Metadata)); err != nil {
		return nil, err
	}
	var supply [8]byte
	binary.BigEndian.PutUint64(supply[:], a.Supply)
	buf.Write(supply[:])
	buf.Write(a.Nonce[:])
	buf.Write(a.CreatedTxHash[:])
	return buf.Bytes(), nil
}

func (assetCodec) Decode(data []byte) (types.AssetRecord, error) {
	var a types.AssetRecord
	r := bytes.NewReader(data)
	read := func(dst []byte) error {
		_, err := io.ReadFull(r, dst)
		return err
	}
	if err := read(a.ID[:]); err != nil {
		return a, err
	}
	if err := read(a.Creator[:]); err != nil {
		return a, err
	}
	if err := read(a.Owner[:]); err != nil {
		return a, err
	}
	name, err := wire.ReadVarBytes(r, 1<<16, "asset name")
	if err != nil {
		return a, err
	}
	a.Name = string(name)
	metadata, err := wire.ReadVarBytes(r, 1<<16, "asset metadata")
	if err != nil {
		return a, err
	}
	a.Metadata = string(metadata)
	var supply [8]byte
	if err := read(supply[:]); err != nil {
		return a, err
	}
	a.Supply = binary.BigEndian.Uint64(supply[:])
	if err := read(a.Nonce[:]); err != nil {
		return a, err
	}
	if err := read(a.CreatedTxHash[:]); err != nil {
		return a, err
	}
	return a, nil
}
