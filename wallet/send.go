// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"bytes"
	cryptorand "crypto/rand"
	"fmt"
	"sort"
	"time"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/crypto"
	"github.com/iron-fish/go-ironfish/mempool"
	"github.com/iron-fish/go-ironfish/types"
	"github.com/iron-fish/go-ironfish/wire"
)

// NativeAssetID identifies the chain's native asset: miner reward notes
// and transaction fees are always denominated in it, and it is the only
// asset a note can carry without having gone through a Mint (spec §3).
var NativeAssetID [types.AssetIDLength]byte

// Payment is one recipient/amount pair in an outgoing transaction.
type Payment struct {
	To      types.PublicAddress
	Value   uint64
	AssetID [types.AssetIDLength]byte
	Memo    [32]byte
}

// noteEncrypter is an optional capability a crypto.Provider backend may
// implement to let the wallet build Outputs; it is kept separate from
// crypto.Provider itself since real Sapling note encryption belongs to
// the production CryptoProvider alongside proving, not this stand-in's
// interface (spec §1).
type noteEncrypter interface {
	EncryptOutput(incomingViewKey [crypto.KeyLength]byte, ephemeralPublicKey [32]byte, note types.NotePlaintext) []byte
}

// BuildTransaction selects notes covering payments plus fee, spending the
// non-native assets first so a shortfall there surfaces before any
// native-asset note — which also has to cover the fee — gets reserved,
// then builds the resulting Spends/Outputs plus a change output per asset
// where selected value exceeds what was needed (spec §4.6's raw
// transaction building). The returned commitments are held reserved
// (excluded from Balance's available bucket and from later selection)
// until ReleaseReservations or PostTransaction clears them.
func (w *Wallet) BuildTransaction(accountID string, payments []Payment, fee uint64, expiration uint64) (*types.Transaction, []chainhash.Hash, error) {
	account, ok := w.Account(accountID)
	if !ok {
		return nil, nil, fmt.Errorf("wallet: unknown account %s", accountID)
	}
	if !account.CanSpend() {
		return nil, nil, fmt.Errorf("wallet: account %s has no spending key", accountID)
	}

	need := map[[types.AssetIDLength]byte]uint64{}
	for _, p := range payments {
		need[p.AssetID] += p.Value
	}
	need[NativeAssetID] += fee

	tip, err := w.cfg.Chain.BestHeader()
	if err != nil {
		return nil, nil, err
	}
	anchor := tip.NoteCommitment

	var spends []types.Spend
	var reservedCommitments []chainhash.Hash
	selectedValue := map[[types.AssetIDLength]byte]uint64{}

	for _, assetID := range orderedAssetIDs(need) {
		notes, err := w.selectNotes(account.ID, assetID, need[assetID])
		if err != nil {
			w.ReleaseReservations(account.ID, reservedCommitments)
			return nil, nil, err
		}
		for _, note := range notes {
			spend, err := w.spendForNote(account, note, anchor)
			if err != nil {
				w.ReleaseReservations(account.ID, reservedCommitments)
				return nil, nil, err
			}
			spends = append(spends, spend)
			reservedCommitments = append(reservedCommitments, note.NoteCommitment)
			selectedValue[assetID] += note.Note.Value
		}
	}

	var outputs []types.Output
	for _, p := range payments {
		out, err := w.buildOutput(p.To, p.Value, p.AssetID, p.Memo, account)
		if err != nil {
			w.ReleaseReservations(account.ID, reservedCommitments)
			return nil, nil, err
		}
		outputs = append(outputs, out)
	}
	for assetID, selected := range selectedValue {
		if change := selected - need[assetID]; change > 0 {
			out, err := w.buildOutput(account.Keys.PublicAddress, change, assetID, [32]byte{}, account)
			if err != nil {
				w.ReleaseReservations(account.ID, reservedCommitments)
				return nil, nil, err
			}
			outputs = append(outputs, out)
		}
	}

	tx := &types.Transaction{
		Version:    1,
		Spends:     spends,
		Outputs:    outputs,
		Fee:        int64(fee),
		Expiration: expiration,
	}
	if _, err := cryptorand.Read(tx.PublicKeyRandomness[:]); err != nil {
		w.ReleaseReservations(account.ID, reservedCommitments)
		return nil, nil, err
	}
	return tx, reservedCommitments, nil
}

// orderedAssetIDs returns need's keys with NativeAssetID last, so the fee
// asset is selected only after every other asset's demand is satisfied.
func orderedAssetIDs(need map[[types.AssetIDLength]byte]uint64) [][types.AssetIDLength]byte {
	out := make([][types.AssetIDLength]byte, 0, len(need))
	for assetID := range need {
		if assetID != NativeAssetID {
			out = append(out, assetID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return string(out[i][:]) < string(out[j][:]) })
	if _, ok := need[NativeAssetID]; ok {
		out = append(out, NativeAssetID)
	}
	return out
}

// selectNotes greedily reserves accountID's unspent, unreserved notes of
// assetID by descending value until target is covered (spec §4.6).
func (w *Wallet) selectNotes(accountID string, assetID [types.AssetIDLength]byte, target uint64) ([]*DecryptedNote, error) {
	if target == 0 {
		return nil, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var candidates []*DecryptedNote
	reserved := w.reserved[accountID]
	for commitment, note := range w.notes[accountID] {
		if note.Note.AssetID != assetID || note.Spent {
			continue
		}
		if reservedAt, held := reserved[commitment]; held && time.Since(reservedAt) < reservationTTL {
			continue
		}
		candidates = append(candidates, note)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Note.Value > candidates[j].Note.Value })

	var selected []*DecryptedNote
	var total uint64
	for _, note := range candidates {
		selected = append(selected, note)
		total += note.Note.Value
		reserved[note.NoteCommitment] = time.Now()
		if total >= target {
			return selected, nil
		}
	}
	for _, note := range selected {
		delete(reserved, note.NoteCommitment)
	}
	return nil, fmt.Errorf("wallet: insufficient balance for asset %x: have %d, need %d", assetID, total, target)
}

// ReleaseReservations frees notes BuildTransaction reserved but that were
// never posted, making them selectable again.
func (w *Wallet) ReleaseReservations(accountID string, commitments []chainhash.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range commitments {
		delete(w.reserved[accountID], c)
	}
}

func (w *Wallet) spendForNote(account *Account, note *DecryptedNote, anchor types.TreeRoot) (types.Spend, error) {
	nullifier := note.Nullifier
	if nullifier == (chainhash.Hash{}) {
		nullifier = w.cfg.Crypto.Nullifier(*account.Keys.SpendingKey, note.Note, note.TreePosition)
	}
	return types.Spend{
		Nullifier:      nullifier,
		CommitmentRoot: anchor.Root,
		TreeSize:       anchor.Size,
		Proof:          []byte{0x01}, // out of scope: real Spend-circuit proof (spec §1)
	}, nil
}

func (w *Wallet) buildOutput(to types.PublicAddress, value uint64, assetID [types.AssetIDLength]byte, memo [32]byte, sender *Account) (types.Output, error) {
	enc, ok := w.cfg.Crypto.(noteEncrypter)
	if !ok {
		return types.Output{}, fmt.Errorf("wallet: crypto provider cannot encrypt outputs")
	}

	note := types.NotePlaintext{
		PublicAddress: to,
		Value:         value,
		Memo:          memo,
		AssetID:       assetID,
		Sender:        sender.Keys.PublicAddress,
	}

	var ephemeral [32]byte
	if _, err := cryptorand.Read(ephemeral[:]); err != nil {
		return types.Output{}, err
	}

	return types.Output{
		Commitment:          w.cfg.Crypto.NoteCommitment(note),
		EncryptedCiphertext: enc.EncryptOutput(sender.Keys.IncomingViewKey, ephemeral, note),
		EphemeralPublicKey:  ephemeral,
		Proof:               []byte{0x01}, // out of scope: real Output-circuit proof (spec §1)
	}, nil
}

// PostTransaction finalizes tx with the account's spending key via the
// CryptoProvider, submits the posted transaction to the mempool, and
// releases reservedCommitments regardless of outcome (spec §4.6's
// "Posting", spec §4.4 admission).
func (w *Wallet) PostTransaction(accountID string, tx *types.Transaction, reservedCommitments []chainhash.Hash) (*mempool.TxDesc, error) {
	defer w.ReleaseReservations(accountID, reservedCommitments)

	account, ok := w.Account(accountID)
	if !ok {
		return nil, fmt.Errorf("wallet: unknown account %s", accountID)
	}
	if !account.CanSpend() {
		return nil, fmt.Errorf("wallet: account %s has no spending key", accountID)
	}

	posted, err := w.cfg.Crypto.Post(*tx, *account.Keys.SpendingKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: posting transaction: %w", err)
	}
	finalTx, err := wire.DeserializeTransaction(bytes.NewReader(posted))
	if err != nil {
		return nil, fmt.Errorf("wallet: decoding posted transaction: %w", err)
	}
	return w.cfg.Mempool.Accept(finalTx)
}
