// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"bytes"

	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

// encodeHeaderForHash returns the canonical byte encoding the
// CryptoProvider hashes to produce a block's identifying hash. It is the
// same fixed-width layout wire.SerializeHeader writes to storage, kept
// as a separate call site so the hashing path never depends on a
// particular io.Writer implementation.
func encodeHeaderForHash(header *types.BlockHeader) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.SerializeHeader(&buf, header); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mustEncodeTxForHash returns the unsigned-body encoding the
// CryptoProvider hashes to produce a transaction's hash. Transactions
// reaching this point have already round-tripped through wire encoding
// once (either decoded off the network or freshly built), so a second
// encoding failure here would indicate corrupt in-memory state rather
// than a caller error; panicking matches the teacher's own
// must-prefixed helpers for invariants that should never fail in
// practice.
func mustEncodeTxForHash(tx *types.Transaction) []byte {
	var buf bytes.Buffer
	if err := wire.SerializeTransaction(&buf, tx); err != nil {
		panic("blockchain: failed to re-encode transaction already accepted onto the chain: " + err.Error())
	}
	return buf.Bytes()
}
