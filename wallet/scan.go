// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/chainprocessor"
	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

// scanHandler is the chainprocessor.Handler driving a single account's
// note decryption and balance bookkeeping (spec §4.6's "Scan"). Each
// account registered with Wallet.AddAccount gets its own handler, paired
// with its own noteTreeSize counter: the position a note was appended
// under depends only on how many outputs preceded it on the canonical
// chain, never on whether this account could decrypt any of them, so
// every handler tracks the full running count independently of what it
// actually decrypts.
type scanHandler struct {
	wallet       *Wallet
	account      *Account
	noteTreeSize uint64
}

var _ chainprocessor.Handler = (*scanHandler)(nil)

func (h *scanHandler) HandleConnect(hash chainhash.Hash, block *types.Block) error {
	for txIdx := range block.Transactions {
		t := &block.Transactions[txIdx]
		txHash := h.wallet.cfg.Crypto.TxHash(encodeTxForHash(t))

		for i := range t.Outputs {
			position := h.noteTreeSize
			h.noteTreeSize++

			note, ok := h.wallet.cfg.Crypto.DecryptForOwner(t.Outputs[i], h.account.Keys.IncomingViewKey)
			if !ok {
				continue
			}
			decrypted := &DecryptedNote{
				AccountID:      h.account.ID,
				NoteCommitment: t.Outputs[i].Commitment,
				Note:           note,
				TreePosition:   position,
				BlockHash:      hash,
				Sequence:       block.Header.Sequence,
				TxHash:         txHash,
			}
			if h.account.CanSpend() {
				decrypted.Nullifier = h.wallet.cfg.Crypto.Nullifier(*h.account.Keys.SpendingKey, note, position)
			}
			h.wallet.addNote(decrypted)
			log.Debugf("wallet: account %s received note %s at sequence %d", h.account.ID, decrypted.NoteCommitment, block.Header.Sequence)
		}

		for i := range t.Spends {
			h.wallet.markSpentByNullifier(h.account.ID, t.Spends[i].Nullifier, block.Header.Sequence)
		}
	}
	return nil
}

func (h *scanHandler) HandleDisconnect(hash chainhash.Hash, block *types.Block) error {
	for txIdx := len(block.Transactions) - 1; txIdx >= 0; txIdx-- {
		t := &block.Transactions[txIdx]
		for i := range t.Spends {
			h.wallet.unmarkSpent(h.account.ID, t.Spends[i].Nullifier)
		}
		for i := range t.Outputs {
			h.noteTreeSize--
			h.wallet.removeNote(h.account.ID, t.Outputs[i].Commitment)
		}
	}
	return nil
}

// encodeTxForHash mirrors blockchain's own mustEncodeTxForHash: the node
// core hashes a transaction by serializing it whole, so the wallet needs
// the identical encoding to recompute the same hash blockchain indexed
// transactions under.
func encodeTxForHash(t *types.Transaction) []byte {
	var buf bytes.Buffer
	if err := wire.SerializeTransaction(&buf, t); err != nil {
		panic("wallet: failed to re-encode a transaction already confirmed on the chain: " + err.Error())
	}
	return buf.Bytes()
}
