// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet scans the canonical chain for notes decryptable under a
// registered account's incoming view key, tracks their spends, maintains
// per-asset balances, and assembles raw transactions for posting (spec
// §4.6).
package wallet

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/crypto"
	"github.com/iron-fish/go-ironfish/types"
)

// Account is a single identity the wallet scans for and, if it holds a
// spending key, can spend from (spec §4.6).
type Account struct {
	ID              string
	Name            string
	Keys            crypto.AccountKeys
	ScanningEnabled bool
}

// CanSpend reports whether the account can authorize spends, as opposed
// to being a view-only watch account.
func (a *Account) CanSpend() bool {
	return a.Keys.SpendingKey != nil
}

// DecryptedNote is a note an account's incoming view key opened,
// indexed by the commitment it was appended to the note tree under
// (spec §4.6). Spent/Nullifier/SpentSequence are only ever populated for
// accounts that hold a spending key: nullifier derivation needs it, so
// a view-only account never observes its own notes being spent.
type DecryptedNote struct {
	AccountID      string
	NoteCommitment chainhash.Hash
	Note           types.NotePlaintext
	TreePosition   uint64
	BlockHash      chainhash.Hash
	Sequence       uint64
	TxHash         chainhash.Hash

	Nullifier     chainhash.Hash
	Spent         bool
	SpentSequence uint64
}

// Balance is an account's holdings of a single asset, bucketed by how
// settled each contributing note currently is (spec §4.6, §8 property 7).
type Balance struct {
	Confirmed   uint64
	Unconfirmed uint64
	Pending     uint64
	Available   uint64
}
