// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/btcsuite/btclog"
)

// Database names one of the two logical databases spec §6 defines.
type Database int

const (
	// CHAIN holds blocks, headers, commitment trees, asset records, and
	// sequence/hash indices.
	CHAIN Database = iota
	// WALLET holds accounts, decrypted notes, and wallet-local indices.
	WALLET
)

func (d Database) String() string {
	if d == WALLET {
		return "wallet"
	}
	return "chain"
}

// Migration is a single numbered, reversible schema change (spec §4.1).
// Forward and Backward each run inside the same write transaction as the
// version-bookkeeping update, so a failure rolls back cleanly.
type Migration struct {
	Number   uint32
	Database Database
	Forward  func(ctx context.Context, db *DB, tx *Transaction, logger btclog.Logger) error
	Backward func(ctx context.Context, db *DB, tx *Transaction, logger btclog.Logger) error
}

// PassphraseProvider supplies an unlock passphrase for encrypted wallet
// migrations that must re-encrypt each record (spec §4.1). The passphrase
// is never persisted.
type PassphraseProvider func() (passphrase []byte, ok bool)

// Registry is the ordered set of migrations a database opens against,
// modeled on the teacher's versionbits deployment registry
// (blockchain/versionbits.go) but keyed by schema number instead of
// consensus bits.
type Registry struct {
	database   Database
	migrations []Migration
}

// NewRegistry builds a registry for one logical database. Migrations for
// other databases passed in are ignored, so callers can share one
// literal slice of all known migrations across CHAIN and WALLET setup.
func NewRegistry(database Database, all []Migration) *Registry {
	r := &Registry{database: database}
	for _, m := range all {
		if m.Database == database {
			r.migrations = append(r.migrations, m)
		}
	}
	sort.Slice(r.migrations, func(i, j int) bool {
		return r.migrations[i].Number < r.migrations[j].Number
	})
	return r
}

var metaAppliedStore = NewStore[uint32, struct{}]("meta_migrations_applied", uint32KeyCodec{}, unitCodec{})
var metaVersionStore = NewStore[string, uint32](metaVersionStoreName, stringKeyCodec{}, uint32Codec{})

const metaVersionStoreName = "meta_version"
const metaVersionKey = "schema_version"

// Apply runs every pending migration in order inside its own write
// transaction. If any migration fails, that transaction rolls back and
// Apply returns an ErrMigrationFailed error; already-applied migrations
// from earlier calls are untouched (spec §4.1 failure mode: "failure
// aborts open and leaves state untouched via transaction rollback").
func (r *Registry) Apply(ctx context.Context, db *DB, logger btclog.Logger) error {
	applied, err := r.appliedSet(db)
	if err != nil {
		return err
	}

	highestKnown := uint32(0)
	if len(r.migrations) > 0 {
		highestKnown = r.migrations[len(r.migrations)-1].Number
	}
	currentVersion, err := r.currentVersion(db)
	if err != nil {
		return err
	}
	if currentVersion > highestKnown {
		return storeErr(ErrSchemaTooNew, "%s on-disk schema version %d is newer than this binary's highest known migration %d",
			r.database, currentVersion, highestKnown)
	}

	for _, m := range r.migrations {
		if applied[m.Number] {
			continue
		}
		migration := m
		err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
			if err := migration.Forward(ctx, db, tx, logger); err != nil {
				return err
			}
			if err := metaAppliedStore.Put(tx, migration.Number, struct{}{}); err != nil {
				return err
			}
			return metaVersionStore.Put(tx, metaVersionKey, migration.Number)
		})
		if err != nil {
			return storeErr(ErrMigrationFailed, "%s migration %d: %v", r.database, migration.Number, err)
		}
		if logger != nil {
			logger.Infof("applied %s migration %d", r.database, migration.Number)
		}
	}
	return nil
}

// Revert rolls the database back to targetVersion by running Backward on
// every applied migration above it, in descending order.
func (r *Registry) Revert(ctx context.Context, db *DB, targetVersion uint32, logger btclog.Logger) error {
	applied, err := r.appliedSet(db)
	if err != nil {
		return err
	}
	for i := len(r.migrations) - 1; i >= 0; i-- {
		m := r.migrations[i]
		if m.Number <= targetVersion || !applied[m.Number] {
			continue
		}
		migration := m
		err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
			if err := migration.Backward(ctx, db, tx, logger); err != nil {
				return err
			}
			if err := metaAppliedStore.Delete(tx, migration.Number); err != nil {
				return err
			}
			return metaVersionStore.Put(tx, metaVersionKey, targetVersion)
		})
		if err != nil {
			return storeErr(ErrMigrationFailed, "%s rollback of migration %d: %v", r.database, migration.Number, err)
		}
	}
	return nil
}

func (r *Registry) appliedSet(db *DB) (map[uint32]bool, error) {
	applied := map[uint32]bool{}
	err := db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		it, err := metaAppliedStore.NewRangeIterator(tx, nil, nil, false)
		if err != nil {
			return err
		}
		defer it.Release()
		for it.Next() {
			num := uint32KeyCodec{}.decode(it.KeySuffix())
			applied[num] = true
		}
		return it.Err()
	})
	return applied, err
}

func (r *Registry) currentVersion(db *DB) (uint32, error) {
	var version uint32
	err := db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		v, ok, err := metaVersionStore.Get(tx, metaVersionKey)
		if err != nil {
			return err
		}
		if ok {
			version = v
		}
		return nil
	})
	return version, err
}

// --- minimal built-in codecs used by the migration metadata stores ---

type uint32KeyCodec struct{}

func (uint32KeyCodec) EncodeKey(k uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], k)
	return b[:]
}

func (uint32KeyCodec) decode(b []byte) uint32 {
	return binary.BigEndian.Uint32(b)
}

type uint32Codec struct{}

func (uint32Codec) Encode(v uint32) ([]byte, error) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:], nil
}

func (uint32Codec) Decode(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, fmt.Errorf("storage: invalid uint32 value length %d", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

type unitCodec struct{}

func (unitCodec) Encode(struct{}) ([]byte, error) { return []byte{1}, nil }
func (unitCodec) Decode([]byte) (struct{}, error) { return struct{}{}, nil }

type stringKeyCodec struct{}

func (stringKeyCodec) EncodeKey(k string) []byte { return []byte(k) }
