// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package crypto defines the CryptoProvider boundary (spec §6). The
// zero-knowledge proving/verification primitives themselves (Sapling keys,
// Spend/Output/Mint/Burn proofs, note encryption) are out of scope (spec
// §1); this package only fixes the interface the rest of the node core
// programs against, plus a reference implementation in package
// crypto/blake good enough to exercise every caller end to end.
package crypto

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

// Size constants mirrored from spec §6.
const (
	NoteSize          = 32 + 8 + 32 + 32 + 32 // commitment-adjacent plaintext fields
	SpendSize         = 32 + 32 + 8
	OutputSize        = 32 + 32
	AssetIDLength     = types.AssetIDLength
	PublicAddressLen  = types.PublicAddressLength
	KeyLength         = types.KeyLength
)

// AccountKeys is the key material derived for a new account (spec §6).
type AccountKeys struct {
	ViewKey          [KeyLength]byte
	IncomingViewKey  [KeyLength]byte
	OutgoingViewKey  [KeyLength]byte
	SpendingKey      *[KeyLength]byte
	PublicAddress    types.PublicAddress
}

// Provider is the external CryptoProvider collaborator (spec §6). All
// operations are pure given their inputs, so implementations may be
// parallelized across a worker pool (spec §5).
type Provider interface {
	// HeaderHash computes H_header over the canonical encoding of a block
	// header's unsigned body.
	HeaderHash(canonicalBytes []byte) chainhash.Hash

	// TxHash computes H_tx over the canonical encoding of a transaction's
	// unsigned body.
	TxHash(unsignedBody []byte) chainhash.Hash

	// NoteCommitment computes the note commitment hash for a decrypted
	// note, the value written to the note tree as a leaf.
	NoteCommitment(note types.NotePlaintext) chainhash.Hash

	// Nullifier computes the nullifier revealed when spending a note at
	// the given tree position, deterministic given the spending key.
	Nullifier(spendingKey [KeyLength]byte, note types.NotePlaintext, position uint64) chainhash.Hash

	// MerkleCombine hashes two sibling nodes at the given tree depth,
	// BLAKE2s(depth ‖ left ‖ right) per spec §3.
	MerkleCombine(depth int, left, right chainhash.Hash) chainhash.Hash

	// MerkleEmpty returns the canonical "empty subtree" hash for a given
	// depth, used for dirty interior nodes with an absent right sibling.
	MerkleEmpty(depth int) chainhash.Hash

	VerifySpendProof(spend types.Spend, anchor types.TreeRoot) error
	VerifyOutputProof(output types.Output) error
	VerifyMintProof(mint types.Mint) error
	VerifyBurnProof(burn types.Burn) error
	VerifyBinding(tx types.Transaction) error

	// Post finalizes a raw (unsigned) transaction with the owner's
	// spending key, producing posted wire bytes ready for the mempool or
	// network.
	Post(rawTx types.Transaction, spendingKey [KeyLength]byte) ([]byte, error)

	// DecryptForOwner attempts to decrypt an output's ciphertext under an
	// incoming view key, returning ok=false if the note does not belong to
	// the holder of that key.
	DecryptForOwner(output types.Output, incomingViewKey [KeyLength]byte) (note types.NotePlaintext, ok bool)

	// DeriveAccount derives account keys from a seed (mnemonic derivation
	// itself is out of scope per spec §1/Non-goals; callers supply already
	// derived seed bytes).
	DeriveAccount(seed []byte) (AccountKeys, error)
}
