// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btclog"
	"golang.org/x/sync/errgroup"

	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/chainprocessor"
	"github.com/iron-fish/go-ironfish/crypto"
)

var log = btclog.Disabled

// UseLogger sets the package-wide logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// DefaultMinConfirmations is how many blocks must bury a note before its
// value counts as confirmed (and available) in Balance (spec §4.6).
// BuildTransaction's note selection does not check depth.
const DefaultMinConfirmations = 3

// reservationTTL bounds how long a note stays reserved against reuse by
// a second send after BuildTransaction selects it; ReleaseReservations
// clears it explicitly once a send either posts or is abandoned, this is
// only a backstop against a caller that never calls either.
const reservationTTL = 10 * time.Minute

// Config wires a Wallet to its collaborators.
type Config struct {
	Crypto           crypto.Provider
	Chain            ChainView
	Mempool          MempoolView
	MinConfirmations uint64
}

// Wallet tracks a set of accounts' decrypted notes and assembles raw
// transactions from them (spec §4.6). Each account scans via its own
// chainprocessor.Processor so a reorg below one account's scan head, or
// an account imported with a birthday well after genesis, never disturbs
// another account's progress.
type Wallet struct {
	cfg Config

	mu          sync.RWMutex
	accounts    map[string]*Account
	notes       map[string]map[chainhash.Hash]*DecryptedNote  // accountID -> commitment -> note
	byNullifier map[string]map[chainhash.Hash]chainhash.Hash  // accountID -> nullifier -> commitment
	reserved    map[string]map[chainhash.Hash]time.Time       // accountID -> commitment -> reserved-at
	processors  map[string]*chainprocessor.Processor
}

// New constructs an empty Wallet. Call AddAccount for each account to
// track, then Run to start scanning all of them concurrently.
func New(cfg Config) *Wallet {
	if cfg.MinConfirmations == 0 {
		cfg.MinConfirmations = DefaultMinConfirmations
	}
	return &Wallet{
		cfg:         cfg,
		accounts:    make(map[string]*Account),
		notes:       make(map[string]map[chainhash.Hash]*DecryptedNote),
		byNullifier: make(map[string]map[chainhash.Hash]chainhash.Hash),
		reserved:    make(map[string]map[chainhash.Hash]time.Time),
		processors:  make(map[string]*chainprocessor.Processor),
	}
}

// AddAccount registers account for scanning from start and returns the
// Processor that will drive it; Run fans every registered account's
// Processor out concurrently. start is the account's birthday cursor:
// the zero Cursor scans from genesis, a later one resumes an account
// imported with already-known chain history.
func (w *Wallet) AddAccount(account *Account, start chainprocessor.Cursor) (*chainprocessor.Processor, error) {
	seed, err := w.noteTreeSizeAt(start)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if _, exists := w.accounts[account.ID]; exists {
		w.mu.Unlock()
		return nil, fmt.Errorf("wallet: account %s already registered", account.ID)
	}
	w.accounts[account.ID] = account
	w.notes[account.ID] = make(map[chainhash.Hash]*DecryptedNote)
	w.byNullifier[account.ID] = make(map[chainhash.Hash]chainhash.Hash)
	w.reserved[account.ID] = make(map[chainhash.Hash]time.Time)
	w.mu.Unlock()

	handler := &scanHandler{wallet: w, account: account, noteTreeSize: seed}
	proc := chainprocessor.New(w.cfg.Chain, handler, start)

	w.mu.Lock()
	w.processors[account.ID] = proc
	w.mu.Unlock()
	return proc, nil
}

func (w *Wallet) noteTreeSizeAt(cursor chainprocessor.Cursor) (uint64, error) {
	if cursor.Sequence == 0 {
		return 0, nil
	}
	block, ok, err := w.cfg.Chain.GetBlock(cursor.Hash)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("wallet: cursor block %s not found", cursor.Hash)
	}
	return block.Header.NoteCommitment.Size, nil
}

// Run drives every registered account's Processor concurrently until ctx
// is canceled or one of them returns an error.
func (w *Wallet) Run(ctx context.Context) error {
	w.mu.RLock()
	procs := make([]*chainprocessor.Processor, 0, len(w.processors))
	for _, p := range w.processors {
		procs = append(procs, p)
	}
	w.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range procs {
		p := p
		g.Go(func() error { return p.Run(ctx) })
	}
	return g.Wait()
}

// Account returns a registered account by id.
func (w *Wallet) Account(id string) (*Account, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	a, ok := w.accounts[id]
	return a, ok
}

// Accounts returns every registered account.
func (w *Wallet) Accounts() []*Account {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]*Account, 0, len(w.accounts))
	for _, a := range w.accounts {
		out = append(out, a)
	}
	return out
}

// Notes returns accountID's current decrypted-note set, including spent
// notes not yet pruned by a confirmed disconnect.
func (w *Wallet) Notes(accountID string) []*DecryptedNote {
	w.mu.RLock()
	defer w.mu.RUnlock()
	notes := w.notes[accountID]
	out := make([]*DecryptedNote, 0, len(notes))
	for _, n := range notes {
		out = append(out, n)
	}
	return out
}

func (w *Wallet) addNote(note *DecryptedNote) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.notes[note.AccountID][note.NoteCommitment] = note
	if note.Nullifier != (chainhash.Hash{}) {
		w.byNullifier[note.AccountID][note.Nullifier] = note.NoteCommitment
	}
}

func (w *Wallet) removeNote(accountID string, commitment chainhash.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	note, ok := w.notes[accountID][commitment]
	if !ok {
		return
	}
	if note.Nullifier != (chainhash.Hash{}) {
		delete(w.byNullifier[accountID], note.Nullifier)
	}
	delete(w.notes[accountID], commitment)
	delete(w.reserved[accountID], commitment)
}

func (w *Wallet) markSpentByNullifier(accountID string, nullifier chainhash.Hash, sequence uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	commitment, ok := w.byNullifier[accountID][nullifier]
	if !ok {
		return
	}
	note := w.notes[accountID][commitment]
	note.Spent = true
	note.SpentSequence = sequence
	delete(w.reserved[accountID], commitment)
}

func (w *Wallet) unmarkSpent(accountID string, nullifier chainhash.Hash) {
	w.mu.Lock()
	defer w.mu.Unlock()
	commitment, ok := w.byNullifier[accountID][nullifier]
	if !ok {
		return
	}
	note := w.notes[accountID][commitment]
	note.Spent = false
	note.SpentSequence = 0
}
