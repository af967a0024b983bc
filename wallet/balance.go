// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

// Balance reports accountID's holdings of assetID, bucketed by how
// settled each contributing note currently is (spec §4.6, §8 property 7):
//   - confirmed: unspent notes buried at least MinConfirmations deep
//   - unconfirmed: unspent notes not yet buried that deep
//   - pending: notes spent by a transaction not yet buried that deep, or
//     by a transaction still sitting in the mempool (still spendable
//     again if the chain reorgs the spend away or the pooled spend is
//     dropped)
//   - available: confirmed minus whatever is currently reserved against
//     an in-flight BuildTransaction call
func (w *Wallet) Balance(accountID string, assetID [types.AssetIDLength]byte) (Balance, error) {
	if _, ok := w.Account(accountID); !ok {
		return Balance{}, fmt.Errorf("wallet: unknown account %s", accountID)
	}
	tip, err := w.cfg.Chain.BestHeader()
	if err != nil {
		return Balance{}, err
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	var bal Balance
	reserved := w.reserved[accountID]
	for commitment, note := range w.notes[accountID] {
		if note.Note.AssetID != assetID {
			continue
		}
		if note.Spent {
			if depth(tip.Sequence, note.SpentSequence) < w.cfg.MinConfirmations {
				bal.Pending += note.Note.Value
			}
			continue
		}
		if w.cfg.Mempool != nil && note.Nullifier != (chainhash.Hash{}) && w.cfg.Mempool.SpendsNullifier(note.Nullifier) {
			// A pooled-but-unmined transaction already spends this note: it
			// is no longer safely spendable, but the spend could still be
			// dropped (expiry, reorg, eviction), so it counts as pending
			// rather than confirmed/unconfirmed (spec §4.6).
			bal.Pending += note.Note.Value
			continue
		}
		if depth(tip.Sequence, note.Sequence) >= w.cfg.MinConfirmations {
			bal.Confirmed += note.Note.Value
			if _, held := reserved[commitment]; !held {
				bal.Available += note.Note.Value
			}
		} else {
			bal.Unconfirmed += note.Note.Value
		}
	}
	return bal, nil
}

// depth is how many blocks (inclusive) separate tipSequence from
// noteSequence; a note struck in the tip block itself has depth 1.
func depth(tipSequence, noteSequence uint64) uint64 {
	if tipSequence < noteSequence {
		return 0
	}
	return tipSequence - noteSequence + 1
}
