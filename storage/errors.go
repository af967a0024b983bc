// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of storage failure (spec §7).
type ErrorCode int

const (
	// ErrNotFound indicates the requested key does not exist.
	ErrNotFound ErrorCode = iota
	// ErrCorruption indicates a CRC/magic mismatch while reading state.
	ErrCorruption
	// ErrSchemaTooNew indicates the on-disk schema version is newer than
	// this binary's migration registry knows how to open.
	ErrSchemaTooNew
	// ErrMigrationFailed indicates a migration's forward/backward step
	// returned an error; the enclosing transaction is rolled back.
	ErrMigrationFailed
	// ErrPassphraseRequired indicates an encrypted wallet migration needs
	// an unlock passphrase the caller has not supplied.
	ErrPassphraseRequired
	// ErrWrongPassphrase indicates a supplied passphrase failed to
	// decrypt an encrypted record.
	ErrWrongPassphrase
	// ErrTxReadOnly indicates a write was attempted against a read-only
	// transaction.
	ErrTxReadOnly
	// ErrTxDone indicates an operation was attempted against a
	// transaction that has already committed or rolled back.
	ErrTxDone
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrCorruption:
		return "database corruption"
	case ErrSchemaTooNew:
		return "schema too new"
	case ErrMigrationFailed:
		return "migration failed"
	case ErrPassphraseRequired:
		return "passphrase required"
	case ErrWrongPassphrase:
		return "wrong passphrase"
	case ErrTxReadOnly:
		return "transaction is read-only"
	case ErrTxDone:
		return "transaction already closed"
	default:
		return "unknown storage error"
	}
}

// Error is the typed error storage operations return, following the
// ruleError(code, description) shape the teacher's blockchain package
// uses for its own RuleError.
type Error struct {
	Code        ErrorCode
	Description string
}

func (e Error) Error() string {
	return e.Description
}

func storeErr(code ErrorCode, format string, args ...interface{}) error {
	return Error{Code: code, Description: fmt.Sprintf("storage: %s: %s", code, fmt.Sprintf(format, args...))}
}

// IsNotFound reports whether err is (or wraps) an ErrNotFound storage error.
func IsNotFound(err error) bool {
	var se Error
	if errors.As(err, &se) {
		return se.Code == ErrNotFound
	}
	return false
}
