// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blake is a reference CryptoProvider implementation. It is not a
// Sapling proving system: proof fields are treated as opaque byte blobs and
// "verified" structurally (non-empty, expected length) so that the rest of
// the node core is concretely exercisable end to end without pulling in an
// actual zk-SNARK toolchain, which spec §1 places out of scope.
package blake

import (
	"bytes"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/blake2s"
	"lukechampine.com/blake3"

	ifcrypto "github.com/iron-fish/go-ironfish/crypto"
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

// Provider is a deterministic, non-zero-knowledge stand-in for the real
// Sapling-backed CryptoProvider (spec §6).
type Provider struct{}

// New returns the reference CryptoProvider.
func New() *Provider {
	return &Provider{}
}

var _ ifcrypto.Provider = (*Provider)(nil)

// HeaderHash implements ifcrypto.Provider using BLAKE3, matching the
// transcript hash other examples in the retrieval pack (AKJUS-bsc-erigon)
// depend on lukechampine.com/blake3 for.
func (p *Provider) HeaderHash(canonicalBytes []byte) chainhash.Hash {
	return sum3(canonicalBytes)
}

// TxHash implements ifcrypto.Provider using BLAKE3.
func (p *Provider) TxHash(unsignedBody []byte) chainhash.Hash {
	return sum3(unsignedBody)
}

func sum3(b []byte) chainhash.Hash {
	digest := blake3.Sum256(b)
	var h chainhash.Hash
	copy(h[:], digest[:])
	return h
}

// NoteCommitment hashes the note's plaintext fields with BLAKE2s, the
// hasher the note/nullifier trees use per spec §3.
func (p *Provider) NoteCommitment(note types.NotePlaintext) chainhash.Hash {
	h, _ := blake2s.New256(nil)
	h.Write(note.PublicAddress[:])
	var valueBuf [8]byte
	binary.LittleEndian.PutUint64(valueBuf[:], note.Value)
	h.Write(valueBuf[:])
	h.Write(note.Memo[:])
	h.Write(note.AssetID[:])
	h.Write(note.Sender[:])
	return toHash(h.Sum(nil))
}

// Nullifier derives a deterministic tag from the spending key, the note,
// and its tree position, so the nullifier can be recomputed by the spender
// without revealing which note it consumes to anyone else.
func (p *Provider) Nullifier(spendingKey [ifcrypto.KeyLength]byte, note types.NotePlaintext, position uint64) chainhash.Hash {
	h, _ := blake2s.New256(nil)
	h.Write(spendingKey[:])
	commitment := p.NoteCommitment(note)
	h.Write(commitment[:])
	var posBuf [8]byte
	binary.LittleEndian.PutUint64(posBuf[:], position)
	h.Write(posBuf[:])
	return toHash(h.Sum(nil))
}

// MerkleCombine implements node hash = BLAKE2s(depth ‖ left ‖ right)
// (spec §3).
func (p *Provider) MerkleCombine(depth int, left, right chainhash.Hash) chainhash.Hash {
	h, _ := blake2s.New256(nil)
	var depthBuf [4]byte
	binary.LittleEndian.PutUint32(depthBuf[:], uint32(depth))
	h.Write(depthBuf[:])
	h.Write(left[:])
	h.Write(right[:])
	return toHash(h.Sum(nil))
}

var emptyCache = map[int]chainhash.Hash{}

// MerkleEmpty returns the canonical empty-subtree hash at a depth,
// memoized since it is re-derived constantly during append/witness.
func (p *Provider) MerkleEmpty(depth int) chainhash.Hash {
	if h, ok := emptyCache[depth]; ok {
		return h
	}
	if depth == 0 {
		h, _ := blake2s.New256(nil)
		h.Write([]byte("ironfish-empty-leaf"))
		out := toHash(h.Sum(nil))
		emptyCache[depth] = out
		return out
	}
	child := p.MerkleEmpty(depth - 1)
	out := p.MerkleCombine(depth, child, child)
	emptyCache[depth] = out
	return out
}

func toHash(b []byte) chainhash.Hash {
	var h chainhash.Hash
	copy(h[:], b)
	return h
}

var errEmptyProof = errors.New("ironfish/crypto/blake: proof field is empty")

// VerifySpendProof performs a structural check only; real Spend-circuit
// verification is out of scope (spec §1).
func (p *Provider) VerifySpendProof(spend types.Spend, anchor types.TreeRoot) error {
	if len(spend.Proof) == 0 {
		return errEmptyProof
	}
	if spend.CommitmentRoot != anchor.Root || spend.TreeSize != anchor.Size {
		return errors.New("ironfish/crypto/blake: spend anchor does not match supplied root")
	}
	return nil
}

// VerifyOutputProof performs a structural check only.
func (p *Provider) VerifyOutputProof(output types.Output) error {
	if len(output.Proof) == 0 {
		return errEmptyProof
	}
	return nil
}

// VerifyMintProof performs a structural check only.
func (p *Provider) VerifyMintProof(mint types.Mint) error {
	if len(mint.Proof) == 0 {
		return errEmptyProof
	}
	return nil
}

// VerifyBurnProof performs a structural check only.
func (p *Provider) VerifyBurnProof(burn types.Burn) error {
	if len(burn.Proof) == 0 {
		return errEmptyProof
	}
	return nil
}

// VerifyBinding checks the binding signature is present; the real
// aggregate value-commitment binding check is out of scope (spec §1).
func (p *Provider) VerifyBinding(tx types.Transaction) error {
	zero := [64]byte{}
	if tx.BindingSignature == zero {
		return errors.New("ironfish/crypto/blake: missing binding signature")
	}
	return nil
}

// Post "signs" the raw transaction by folding the spending key into the
// binding signature field, then serializes the result; callers treat the
// returned bytes as opaque posted-transaction wire bytes ready to hand
// to wire.DeserializeTransaction.
func (p *Provider) Post(rawTx types.Transaction, spendingKey [ifcrypto.KeyLength]byte) ([]byte, error) {
	h, _ := blake2s.New256(nil)
	h.Write(spendingKey[:])
	for _, spend := range rawTx.Spends {
		h.Write(spend.Nullifier[:])
	}
	for _, out := range rawTx.Outputs {
		h.Write(out.Commitment[:])
	}
	sig := h.Sum(nil)
	rawTx.BindingSignature = [64]byte{}
	copy(rawTx.BindingSignature[:], sig)
	copy(rawTx.BindingSignature[32:], sig)

	var buf bytes.Buffer
	if err := wire.SerializeTransaction(&buf, &rawTx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecryptForOwner is a deterministic stand-in for Sapling note decryption:
// it recomputes a tag from the ephemeral key and incoming view key and
// compares it against a tag embedded as the first bytes of the ciphertext
// by the matching encrypt step the wallet's raw-transaction builder uses.
func (p *Provider) DecryptForOwner(output types.Output, incomingViewKey [ifcrypto.KeyLength]byte) (types.NotePlaintext, bool) {
	var note types.NotePlaintext
	const tagLen = 32
	if len(output.EncryptedCiphertext) < tagLen {
		return note, false
	}
	h, _ := blake2s.New256(nil)
	h.Write(incomingViewKey[:])
	h.Write(output.EphemeralPublicKey[:])
	expectedTag := h.Sum(nil)

	gotTag := output.EncryptedCiphertext[:tagLen]
	for i := range expectedTag {
		if expectedTag[i] != gotTag[i] {
			return note, false
		}
	}
	payload := output.EncryptedCiphertext[tagLen:]
	return decodeNotePlaintext(payload), true
}

// DeriveAccount deterministically derives a full key set from seed,
// domain-separating each derived value with a distinct label the same
// way MerkleCombine domain-separates by depth. The spending key is
// always populated; real Sapling derivation additionally supports
// deriving a view-only key set without one, which is out of scope here
// (spec §1).
func (p *Provider) DeriveAccount(seed []byte) (ifcrypto.AccountKeys, error) {
	var keys ifcrypto.AccountKeys

	spendingKey := derive(seed, "spending-key")
	keys.SpendingKey = &spendingKey
	keys.ViewKey = derive(seed, "view-key")
	keys.IncomingViewKey = derive(seed, "incoming-view-key")
	keys.OutgoingViewKey = derive(seed, "outgoing-view-key")

	addr := derive(seed, "public-address")
	copy(keys.PublicAddress[:], addr[:])
	// PublicAddress is longer than the 32-byte hash derive produces; fill
	// the remainder from a second, differently labeled derivation rather
	// than leaving it zero.
	tail := derive(seed, "public-address-tail")
	copy(keys.PublicAddress[32:], tail[:types.PublicAddressLength-32])

	return keys, nil
}

// derive produces a label-separated 32-byte value from seed.
func derive(seed []byte, label string) [ifcrypto.KeyLength]byte {
	h, _ := blake2s.New256(nil)
	h.Write([]byte(label))
	h.Write(seed)
	var out [ifcrypto.KeyLength]byte
	copy(out[:], h.Sum(nil))
	return out
}

func decodeNotePlaintext(payload []byte) types.NotePlaintext {
	var note types.NotePlaintext
	offset := 0
	read := func(n int) []byte {
		if offset+n > len(payload) {
			return nil
		}
		b := payload[offset : offset+n]
		offset += n
		return b
	}
	copy(note.PublicAddress[:], read(types.PublicAddressLength))
	if v := read(8); v != nil {
		note.Value = binary.LittleEndian.Uint64(v)
	}
	copy(note.Memo[:], read(32))
	copy(note.AssetID[:], read(types.AssetIDLength))
	copy(note.Sender[:], read(types.PublicAddressLength))
	return note
}

// EncryptOutput builds the ciphertext for an Output paying note to
// whoever holds incomingViewKey. It is not part of the Provider
// interface since real Sapling encryption belongs to the production
// CryptoProvider (spec §1); the wallet's transaction builder reaches it
// through an optional-capability interface check against its
// crypto.Provider value instead.
func (p *Provider) EncryptOutput(incomingViewKey [ifcrypto.KeyLength]byte, ephemeralPublicKey [32]byte, note types.NotePlaintext) []byte {
	return EncryptForTesting(incomingViewKey, ephemeralPublicKey, note)
}

// EncryptForTesting is a test/wallet helper building ciphertext that
// DecryptForOwner above can open; it is not part of the Provider
// interface since real Sapling encryption belongs to the production
// CryptoProvider (spec §1).
func EncryptForTesting(incomingViewKey [ifcrypto.KeyLength]byte, ephemeralPublicKey [32]byte, note types.NotePlaintext) []byte {
	h, _ := blake2s.New256(nil)
	h.Write(incomingViewKey[:])
	h.Write(ephemeralPublicKey[:])
	tag := h.Sum(nil)

	var buf []byte
	buf = append(buf, tag...)
	buf = append(buf, note.PublicAddress[:]...)
	var valueBuf [8]byte
	binary.LittleEndian.PutUint64(valueBuf[:], note.Value)
	buf = append(buf, valueBuf[:]...)
	buf = append(buf, note.Memo[:]...)
	buf = append(buf, note.AssetID[:]...)
	buf = append(buf, note.Sender[:]...)
	return buf
}
