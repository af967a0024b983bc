// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/types"
)

// maxProofSize and maxCiphertextSize bound the length prefixes accepted
// for proof/ciphertext/metadata blobs, guarding deserialization against
// a corrupt or adversarial length field (spec §6 error handling: "wire
// decoding never panics or overallocates on attacker-controlled input").
const (
	maxProofSize      = 8 << 20 // 8 MiB, generously above any real SNARK proof
	maxCiphertextSize = 1 << 16
	maxMetadataSize   = 1 << 16
)

func writeHash(w io.Writer, h chainhash.Hash) error {
	_, err := w.Write(h[:])
	return err
}

func readHash(r io.Reader) (chainhash.Hash, error) {
	var h chainhash.Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, err
	}
	return h, nil
}

func writePublicAddress(w io.Writer, a types.PublicAddress) error {
	_, err := w.Write(a[:])
	return err
}

func readPublicAddress(r io.Reader) (types.PublicAddress, error) {
	var a types.PublicAddress
	_, err := io.ReadFull(r, a[:])
	return a, err
}

// SerializeSpend writes a Spend in canonical order: Nullifier,
// CommitmentRoot, TreeSize, Proof (length-prefixed),
// AuthorizingSignature.
func SerializeSpend(w io.Writer, s *types.Spend) error {
	if err := writeHash(w, s.Nullifier); err != nil {
		return err
	}
	if err := writeHash(w, s.CommitmentRoot); err != nil {
		return err
	}
	var treeSize [8]byte
	binary.LittleEndian.PutUint64(treeSize[:], s.TreeSize)
	if _, err := w.Write(treeSize[:]); err != nil {
		return err
	}
	if err := WriteVarBytes(w, s.Proof); err != nil {
		return err
	}
	_, err := w.Write(s.AuthorizingSignature[:])
	return err
}

// DeserializeSpend reads a Spend in the layout SerializeSpend writes.
func DeserializeSpend(r io.Reader) (*types.Spend, error) {
	s := &types.Spend{}
	var err error
	if s.Nullifier, err = readHash(r); err != nil {
		return nil, err
	}
	if s.CommitmentRoot, err = readHash(r); err != nil {
		return nil, err
	}
	var treeSize [8]byte
	if _, err := io.ReadFull(r, treeSize[:]); err != nil {
		return nil, err
	}
	s.TreeSize = binary.LittleEndian.Uint64(treeSize[:])
	if s.Proof, err = ReadVarBytes(r, maxProofSize, "spend proof"); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, s.AuthorizingSignature[:]); err != nil {
		return nil, err
	}
	return s, nil
}

// SerializeOutput writes an Output: Commitment, EncryptedCiphertext
// (length-prefixed), EphemeralPublicKey, Proof (length-prefixed).
func SerializeOutput(w io.Writer, o *types.Output) error {
	if err := writeHash(w, o.Commitment); err != nil {
		return err
	}
	if err := WriteVarBytes(w, o.EncryptedCiphertext); err != nil {
		return err
	}
	if _, err := w.Write(o.EphemeralPublicKey[:]); err != nil {
		return err
	}
	return WriteVarBytes(w, o.Proof)
}

// DeserializeOutput reads an Output in the layout SerializeOutput writes.
func DeserializeOutput(r io.Reader) (*types.Output, error) {
	o := &types.Output{}
	var err error
	if o.Commitment, err = readHash(r); err != nil {
		return nil, err
	}
	if o.EncryptedCiphertext, err = ReadVarBytes(r, maxCiphertextSize, "output ciphertext"); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, o.EphemeralPublicKey[:]); err != nil {
		return nil, err
	}
	if o.Proof, err = ReadVarBytes(r, maxProofSize, "output proof"); err != nil {
		return nil, err
	}
	return o, nil
}

// SerializeMint writes a Mint. TransferOwnershipTo is preceded by a
// one-byte presence flag since it's optional. The flag and address are
// written for any transaction version; neither this codec nor block
// validation checks the version before accepting them.
func SerializeMint(w io.Writer, m *types.Mint) error {
	if err := writeHash(w, m.AssetID); err != nil {
		return err
	}
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], m.Value)
	if _, err := w.Write(value[:]); err != nil {
		return err
	}
	if err := writePublicAddress(w, m.Owner); err != nil {
		return err
	}
	if m.TransferOwnershipTo != nil {
		if _, err := w.Write([]byte{1}); err != nil {
			return err
		}
		if err := writePublicAddress(w, *m.TransferOwnershipTo); err != nil {
			return err
		}
	} else {
		if _, err := w.Write([]byte{0}); err != nil {
			return err
		}
	}
	if err := WriteVarBytes(w, []byte(m.Name)); err != nil {
		return err
	}
	if err := WriteVarBytes(w, []byte(m.Metadata)); err != nil {
		return err
	}
	if err := writePublicAddress(w, m.Creator); err != nil {
		return err
	}
	if _, err := w.Write(m.Nonce[:]); err != nil {
		return err
	}
	return WriteVarBytes(w, m.Proof)
}

// DeserializeMint reads a Mint in the layout SerializeMint writes.
func DeserializeMint(r io.Reader) (*types.Mint, error) {
	m := &types.Mint{}
	var err error
	if m.AssetID, err = readHash(r); err != nil {
		return nil, err
	}
	var value [8]byte
	if _, err := io.ReadFull(r, value[:]); err != nil {
		return nil, err
	}
	m.Value = binary.LittleEndian.Uint64(value[:])
	if m.Owner, err = readPublicAddress(r); err != nil {
		return nil, err
	}

	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return nil, err
	}
	if flag[0] == 1 {
		addr, err := readPublicAddress(r)
		if err != nil {
			return nil, err
		}
		m.TransferOwnershipTo = &addr
	} else if flag[0] != 0 {
		return nil, fmt.Errorf("wire: invalid mint transfer-ownership flag %d", flag[0])
	}

	name, err := ReadVarBytes(r, maxMetadataSize, "mint name")
	if err != nil {
		return nil, err
	}
	m.Name = string(name)
	metadata, err := ReadVarBytes(r, maxMetadataSize, "mint metadata")
	if err != nil {
		return nil, err
	}
	m.Metadata = string(metadata)
	if m.Creator, err = readPublicAddress(r); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, m.Nonce[:]); err != nil {
		return nil, err
	}
	if m.Proof, err = ReadVarBytes(r, maxProofSize, "mint proof"); err != nil {
		return nil, err
	}
	return m, nil
}

// SerializeBurn writes a Burn: AssetID, Value, Proof (length-prefixed).
func SerializeBurn(w io.Writer, b *types.Burn) error {
	if err := writeHash(w, b.AssetID); err != nil {
		return err
	}
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], b.Value)
	if _, err := w.Write(value[:]); err != nil {
		return err
	}
	return WriteVarBytes(w, b.Proof)
}

// DeserializeBurn reads a Burn in the layout SerializeBurn writes.
func DeserializeBurn(r io.Reader) (*types.Burn, error) {
	b := &types.Burn{}
	var err error
	if b.AssetID, err = readHash(r); err != nil {
		return nil, err
	}
	var value [8]byte
	if _, err := io.ReadFull(r, value[:]); err != nil {
		return nil, err
	}
	b.Value = binary.LittleEndian.Uint64(value[:])
	if b.Proof, err = ReadVarBytes(r, maxProofSize, "burn proof"); err != nil {
		return nil, err
	}
	return b, nil
}

// SerializeTransaction writes a full Transaction: Version, then
// VarInt-counted Spends/Outputs/Mints/Burns, then Fee, Expiration,
// PublicKeyRandomness, BindingSignature (spec §3's canonical layout:
// every field appears in a fixed order regardless of which optional
// sections are empty, so two semantically-equal transactions always
// serialize identically).
func SerializeTransaction(w io.Writer, tx *types.Transaction) error {
	if _, err := w.Write([]byte{tx.Version}); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(tx.Spends))); err != nil {
		return err
	}
	for i := range tx.Spends {
		if err := SerializeSpend(w, &tx.Spends[i]); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if err := SerializeOutput(w, &tx.Outputs[i]); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Mints))); err != nil {
		return err
	}
	for i := range tx.Mints {
		if err := SerializeMint(w, &tx.Mints[i]); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Burns))); err != nil {
		return err
	}
	for i := range tx.Burns {
		if err := SerializeBurn(w, &tx.Burns[i]); err != nil {
			return err
		}
	}

	var fee [8]byte
	binary.LittleEndian.PutUint64(fee[:], uint64(tx.Fee))
	if _, err := w.Write(fee[:]); err != nil {
		return err
	}
	var expiration [8]byte
	binary.LittleEndian.PutUint64(expiration[:], tx.Expiration)
	if _, err := w.Write(expiration[:]); err != nil {
		return err
	}
	if _, err := w.Write(tx.PublicKeyRandomness[:]); err != nil {
		return err
	}
	_, err := w.Write(tx.BindingSignature[:])
	return err
}

// maxListLength bounds Spend/Output/Mint/Burn counts so a corrupt VarInt
// count can't trigger an enormous slice allocation before the bytes
// backing it are even read.
const maxListLength = 1 << 20

// DeserializeTransaction reads a Transaction in the layout
// SerializeTransaction writes.
func DeserializeTransaction(r io.Reader) (*types.Transaction, error) {
	tx := &types.Transaction{}

	var version [1]byte
	if _, err := io.ReadFull(r, version[:]); err != nil {
		return nil, err
	}
	tx.Version = version[0]

	numSpends, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numSpends > maxListLength {
		return nil, fmt.Errorf("wire: spend count %d exceeds max %d", numSpends, maxListLength)
	}
	tx.Spends = make([]types.Spend, numSpends)
	for i := range tx.Spends {
		s, err := DeserializeSpend(r)
		if err != nil {
			return nil, err
		}
		tx.Spends[i] = *s
	}

	numOutputs, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numOutputs > maxListLength {
		return nil, fmt.Errorf("wire: output count %d exceeds max %d", numOutputs, maxListLength)
	}
	tx.Outputs = make([]types.Output, numOutputs)
	for i := range tx.Outputs {
		o, err := DeserializeOutput(r)
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = *o
	}

	numMints, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numMints > maxListLength {
		return nil, fmt.Errorf("wire: mint count %d exceeds max %d", numMints, maxListLength)
	}
	tx.Mints = make([]types.Mint, numMints)
	for i := range tx.Mints {
		m, err := DeserializeMint(r)
		if err != nil {
			return nil, err
		}
		tx.Mints[i] = *m
	}

	numBurns, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numBurns > maxListLength {
		return nil, fmt.Errorf("wire: burn count %d exceeds max %d", numBurns, maxListLength)
	}
	tx.Burns = make([]types.Burn, numBurns)
	for i := range tx.Burns {
		b, err := DeserializeBurn(r)
		if err != nil {
			return nil, err
		}
		tx.Burns[i] = *b
	}

	var fee [8]byte
	if _, err := io.ReadFull(r, fee[:]); err != nil {
		return nil, err
	}
	tx.Fee = int64(binary.LittleEndian.Uint64(fee[:]))

	var expiration [8]byte
	if _, err := io.ReadFull(r, expiration[:]); err != nil {
		return nil, err
	}
	tx.Expiration = binary.LittleEndian.Uint64(expiration[:])

	if _, err := io.ReadFull(r, tx.PublicKeyRandomness[:]); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, tx.BindingSignature[:]); err != nil {
		return nil, err
	}

	return tx, nil
}
