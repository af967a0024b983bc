// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Mode selects whether a transaction may write.
type Mode int

const (
	// ReadOnly transactions are served from a point-in-time snapshot and
	// never block the writer.
	ReadOnly Mode = iota
	// ReadWrite transactions hold the database's single writer slot for
	// their duration (spec §4.1, §5).
	ReadWrite
)

// DB is one of the two logical databases named in spec §6 (CHAIN or
// WALLET), backed by a single goleveldb instance.
type DB struct {
	name string
	ldb  *leveldb.DB

	// writerMu serializes ReadWrite transactions. goleveldb's own
	// *leveldb.Transaction already excludes concurrent writers, but we
	// hold an explicit mutex too so WithTransaction's nesting check and
	// the "single writer lock per database" guarantee (spec §5) do not
	// depend on goleveldb's internal blocking behavior.
	writerMu sync.Mutex
}

// Open opens (creating if absent) a goleveldb-backed logical database at
// path.
func Open(path string) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		if errors.IsCorrupted(err) {
			return nil, storeErr(ErrCorruption, "open %s: %v", path, err)
		}
		return nil, err
	}
	return &DB{name: path, ldb: ldb}, nil
}

// Close releases the underlying goleveldb handle.
func (db *DB) Close() error {
	return db.ldb.Close()
}

// Transaction is a batch of reads/writes against a DB, atomic on Commit.
type Transaction struct {
	db       *DB
	mode     Mode
	done     bool
	ldbTx    *leveldb.Transaction // non-nil only for ReadWrite
	snapshot *leveldb.Snapshot    // non-nil only for ReadOnly
}

// Begin starts a new top-level transaction. Prefer WithTransaction, which
// also handles nesting and commit/rollback bookkeeping.
func (db *DB) Begin(mode Mode) (*Transaction, error) {
	if mode == ReadWrite {
		db.writerMu.Lock()
		ldbTx, err := db.ldb.OpenTransaction()
		if err != nil {
			db.writerMu.Unlock()
			return nil, err
		}
		return &Transaction{db: db, mode: mode, ldbTx: ldbTx}, nil
	}
	snap, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, err
	}
	return &Transaction{db: db, mode: mode, snapshot: snap}, nil
}

// WithTransaction runs fn inside a transaction of at least mode. If parent
// is non-nil the call reuses it instead of opening a new transaction
// (spec §4.1, "Nested transactions reuse the outer transaction"); it is an
// error to request ReadWrite nested inside a ReadOnly parent. A top-level
// transaction commits on a nil return from fn and rolls back otherwise.
func (db *DB) WithTransaction(mode Mode, parent *Transaction, fn func(tx *Transaction) error) error {
	if parent != nil {
		if mode == ReadWrite && parent.mode == ReadOnly {
			return storeErr(ErrTxReadOnly, "cannot open a read-write transaction inside a read-only parent")
		}
		return fn(parent)
	}

	tx, err := db.Begin(mode)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Commit makes a ReadWrite transaction's writes durable and visible to
// new transactions. Commit on a ReadOnly transaction just releases its
// snapshot.
func (tx *Transaction) Commit() error {
	if tx.done {
		return storeErr(ErrTxDone, "commit called twice")
	}
	tx.done = true
	if tx.mode == ReadOnly {
		tx.snapshot.Release()
		return nil
	}
	defer tx.db.writerMu.Unlock()
	return tx.ldbTx.Commit()
}

// Rollback discards a transaction's writes (a no-op beyond releasing
// resources for ReadOnly transactions).
func (tx *Transaction) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true
	if tx.mode == ReadOnly {
		tx.snapshot.Release()
		return nil
	}
	defer tx.db.writerMu.Unlock()
	tx.ldbTx.Discard()
	return nil
}

func (tx *Transaction) get(key []byte) ([]byte, error) {
	if tx.done {
		return nil, storeErr(ErrTxDone, "get on closed transaction")
	}
	var (
		val []byte
		err error
	)
	if tx.mode == ReadWrite {
		val, err = tx.ldbTx.Get(key, nil)
	} else {
		val, err = tx.snapshot.Get(key, nil)
	}
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, storeErr(ErrNotFound, "key not found")
		}
		return nil, err
	}
	return val, nil
}

func (tx *Transaction) has(key []byte) (bool, error) {
	if tx.done {
		return false, storeErr(ErrTxDone, "has on closed transaction")
	}
	if tx.mode == ReadWrite {
		return tx.ldbTx.Has(key, nil)
	}
	return tx.snapshot.Has(key, nil)
}

func (tx *Transaction) put(key, value []byte) error {
	if tx.mode != ReadWrite {
		return storeErr(ErrTxReadOnly, "put on read-only transaction")
	}
	if tx.done {
		return storeErr(ErrTxDone, "put on closed transaction")
	}
	return tx.ldbTx.Put(key, value, nil)
}

func (tx *Transaction) delete(key []byte) error {
	if tx.mode != ReadWrite {
		return storeErr(ErrTxReadOnly, "delete on read-only transaction")
	}
	if tx.done {
		return storeErr(ErrTxDone, "delete on closed transaction")
	}
	return tx.ldbTx.Delete(key, nil)
}

// rawIterator abstracts over goleveldb's transaction/snapshot iterator
// types so Store[K,V] doesn't need to know which one backs it.
type rawIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

func (tx *Transaction) newIterator(lower, upper []byte, reverse bool) (rawIterator, error) {
	if tx.done {
		return nil, storeErr(ErrTxDone, "iterate on closed transaction")
	}
	rng := &util.Range{Start: lower, Limit: upper}
	var it iterator.Iterator
	if tx.mode == ReadWrite {
		it = tx.ldbTx.NewIterator(rng, nil)
	} else {
		it = tx.snapshot.NewIterator(rng, nil)
	}
	return &directionalIterator{it: it, reverse: reverse}, nil
}

// directionalIterator adapts goleveldb's Next-only iterator.Iterator to
// also support the reverse ordered scans spec §4.1 requires.
type directionalIterator struct {
	it      iterator.Iterator
	reverse bool
	started bool
}

func (d *directionalIterator) Next() bool {
	if !d.started {
		d.started = true
		if d.reverse {
			return d.it.Last()
		}
		return d.it.First()
	}
	if d.reverse {
		return d.it.Prev()
	}
	return d.it.Next()
}

func (d *directionalIterator) Key() []byte   { return d.it.Key() }
func (d *directionalIterator) Value() []byte { return d.it.Value() }
func (d *directionalIterator) Release()      { d.it.Release() }
func (d *directionalIterator) Error() error  { return d.it.Error() }
