// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/iron-fish/go-ironfish/types"
)

// SerializeBlock writes a Block: its header, then a VarInt transaction
// count, then each transaction in order. Position 0 is always the
// miner's fee transaction (spec §3).
func SerializeBlock(w io.Writer, block *types.Block) error {
	if err := SerializeHeader(w, &block.Header); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(block.Transactions))); err != nil {
		return err
	}
	for i := range block.Transactions {
		if err := SerializeTransaction(w, &block.Transactions[i]); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBlock reads a Block in the layout SerializeBlock writes.
func DeserializeBlock(r io.Reader) (*types.Block, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	numTx, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numTx > maxListLength {
		return nil, fmt.Errorf("wire: transaction count %d exceeds max %d", numTx, maxListLength)
	}
	block := &types.Block{Header: *header, Transactions: make([]types.Transaction, numTx)}
	for i := range block.Transactions {
		tx, err := DeserializeTransaction(r)
		if err != nil {
			return nil, err
		}
		block.Transactions[i] = *tx
	}
	return block, nil
}

// EncodeBlock is a convenience wrapper returning the serialized bytes
// directly, used by callers (e.g. CryptoProvider.HeaderHash/TxHash
// inputs, storage persistence) that want a []byte rather than a Writer.
func EncodeBlock(block *types.Block) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeBlock(&buf, block); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeHeader returns a header's serialized bytes, the canonical input
// to CryptoProvider.HeaderHash (spec §3).
func EncodeHeader(header *types.BlockHeader) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeHeader(&buf, header); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTransaction returns a transaction's serialized bytes, the
// canonical input to CryptoProvider.TxHash (spec §3).
func EncodeTransaction(tx *types.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeTransaction(&buf, tx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
