// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logsetup wires the per-package btclog loggers every component
// (blockchain, mempool, chainprocessor, wallet) already exposes a
// UseLogger hook for, backing them with a rotating log file plus stdout,
// the same split the teacher's own logging setup writes to.
package logsetup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/iron-fish/go-ironfish/blockchain"
	"github.com/iron-fish/go-ironfish/chainprocessor"
	"github.com/iron-fish/go-ironfish/mempool"
	"github.com/iron-fish/go-ironfish/wallet"
)

// maxLogRollSize is the threshold, in bytes, at which the rotator closes
// the current log file and starts a new one.
const maxLogRollSize = 10 * 1024 * 1024

// maxLogRolls is how many rotated files are kept before the oldest is
// deleted.
const maxLogRolls = 8

// Loggers holds the per-subsystem loggers Init wired up, so the caller
// can still reach them directly (e.g. to log its own startup messages
// under one of the same tags).
type Loggers struct {
	Chain          btclog.Logger
	Mempool        btclog.Logger
	ChainProcessor btclog.Logger
	Wallet         btclog.Logger
}

// logWriter fans out to stdout and the rotator together, the pair
// btclog.NewBackend is given as its single io.Writer.
type logWriter struct {
	rotator *rotator.Rotator
}

func (w logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	return w.rotator.Write(p)
}

var _ io.Writer = logWriter{}

// Init opens (creating parent directories as needed) a rotating log file
// at logFile, builds a btclog.Backend over stdout+file, constructs one
// logger per subsystem at level, and installs them via each package's own
// UseLogger. The returned closer must be called on shutdown to flush and
// close the rotator.
func Init(logFile string, level btclog.Level) (*Loggers, func() error, error) {
	dir := filepath.Dir(logFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, nil, fmt.Errorf("logsetup: creating log directory %s: %w", dir, err)
	}

	r, err := rotator.New(logFile, maxLogRollSize, false, maxLogRolls)
	if err != nil {
		return nil, nil, fmt.Errorf("logsetup: initializing log rotator: %w", err)
	}

	backend := btclog.NewBackend(logWriter{rotator: r})

	newLogger := func(subsystem string) btclog.Logger {
		l := backend.Logger(subsystem)
		l.SetLevel(level)
		return l
	}

	loggers := &Loggers{
		Chain:          newLogger("CHAIN"),
		Mempool:        newLogger("MPOL"),
		ChainProcessor: newLogger("CHPR"),
		Wallet:         newLogger("WLLT"),
	}

	blockchain.UseLogger(loggers.Chain)
	mempool.UseLogger(loggers.Mempool)
	chainprocessor.UseLogger(loggers.ChainProcessor)
	wallet.UseLogger(loggers.Wallet)

	return loggers, r.Close, nil
}

// ParseLevel resolves a level name (trace, debug, info, warn, error,
// critical, off) to a btclog.Level, defaulting to info on an unknown or
// empty string.
func ParseLevel(name string) btclog.Level {
	if name == "" {
		return btclog.LevelInfo
	}
	level, ok := btclog.LevelFromString(name)
	if !ok {
		return btclog.LevelInfo
	}
	return level
}
