// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package types holds the node core's wire-independent domain model:
// headers, transactions, notes, and assets, as described in spec §3.
// Encoding lives in package wire; validation lives in package blockchain;
// persistence lives in package storage.
package types

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/iron-fish/go-ironfish/chainhash"
)

// AssetIDLength is the length in bytes of an asset identifier (spec §6).
const AssetIDLength = 32

// PublicAddressLength is the length in bytes of a shielded public address
// (spec §6).
const PublicAddressLength = 43

// KeyLength is the length in bytes of a view/spending key (spec §6).
const KeyLength = 32

// PublicAddress is a shielded recipient address.
type PublicAddress [PublicAddressLength]byte

// TreeRoot pins a Merkle root to the tree size it was computed at, so a
// historical root stays independently verifiable as the tree grows
// (spec §4.2).
type TreeRoot struct {
	Root chainhash.Hash
	Size uint64
}

// BlockHeader is the fixed-size, hashable portion of a block (spec §3).
type BlockHeader struct {
	Sequence              uint64
	PreviousBlockHash     chainhash.Hash
	NoteCommitment        TreeRoot
	TransactionCommitment chainhash.Hash
	Target                uint256.Int
	Randomness            uint64
	Timestamp             time.Time
	Graffiti              [32]byte
	Work                  uint256.Int
}

// Spend reveals a nullifier for a previously committed note, consuming it
// (spec §3).
type Spend struct {
	Nullifier            chainhash.Hash
	CommitmentRoot       chainhash.Hash
	TreeSize             uint64
	Proof                []byte
	AuthorizingSignature [64]byte
}

// Output is an encrypted note commitment appended to the note tree
// (spec §3).
type Output struct {
	Commitment          chainhash.Hash
	EncryptedCiphertext []byte
	EphemeralPublicKey  [32]byte
	Proof               []byte
}

// NotePlaintext is the decrypted payload of an Output, obtained via
// CryptoProvider.DecryptForOwner (spec §3, §6).
type NotePlaintext struct {
	PublicAddress PublicAddress
	Value         uint64
	Memo          [32]byte
	AssetID       [AssetIDLength]byte
	Sender        PublicAddress
}

// Mint creates new units of an asset, identified by
// H(creator ‖ name ‖ metadata ‖ nonce) (spec §3).
type Mint struct {
	AssetID             [AssetIDLength]byte
	Value               uint64
	Owner               PublicAddress
	TransferOwnershipTo *PublicAddress // optional; encoded and applied for any tx.Version
	Name                string
	Metadata            string
	Creator             PublicAddress
	Nonce               [32]byte
	Proof               []byte
}

// Burn destroys units of an asset (spec §3).
type Burn struct {
	AssetID [AssetIDLength]byte
	Value   uint64
	Proof   []byte
}

// Transaction is the node's canonical, version-1 shielded transaction
// layout (spec §3, §9 open question: no EVM fields are modeled).
type Transaction struct {
	Version             uint8
	Spends              []Spend
	Outputs             []Output
	Mints               []Mint
	Burns               []Burn
	Fee                 int64
	Expiration          uint64
	PublicKeyRandomness [32]byte
	BindingSignature    [64]byte
}

// Hash uniquely identifies the transaction; computed by the CryptoProvider
// over the unsigned body (spec §3). It is cached by callers, not stored on
// the struct, to keep Transaction a plain value type.
type TxHash = chainhash.Hash

// Block is a header plus its ordered transactions. Transaction zero is
// always the miner's fee transaction (spec §3).
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// MinerFee returns the block's miner's fee transaction, or false if the
// block has no transactions at all (only possible before validation).
func (b *Block) MinerFee() (*Transaction, bool) {
	if len(b.Transactions) == 0 {
		return nil, false
	}
	return &b.Transactions[0], true
}

// AssetRecord tracks the mutable state of an asset across mints and burns
// (spec §3). Supply is always non-negative; attempting to burn past zero
// is rejected by the verifier before this record would be updated.
type AssetRecord struct {
	ID            [AssetIDLength]byte
	Creator       PublicAddress
	Owner         PublicAddress
	Name          string
	Metadata      string
	Supply        uint64
	Nonce         [32]byte
	CreatedTxHash chainhash.Hash
}

// IsZero reports whether a Spend slot is the sentinel empty value,
// used by callers iterating fixed-size spend arrays decoded off the wire.
func (s Spend) IsZero() bool {
	return s.Nullifier.IsZero() && s.TreeSize == 0 && len(s.Proof) == 0
}
