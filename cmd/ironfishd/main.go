// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command ironfishd wires the node-core components (storage, Blockchain,
// Mempool, Wallet) into a running process: open the databases, apply
// migrations, construct each component against its collaborators, start
// the background loops, and block until an OS signal asks for shutdown.
// Exposing that wiring over RPC or a CLI is explicitly out of scope
// (spec §1 Non-goals); CryptoProvider stays the deterministic
// crypto/blake stand-in until a real Sapling-backed one exists, and
// PeerNetwork is not wired at all since block/transaction ingestion from
// peers is likewise out of scope.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/sync/errgroup"

	"github.com/iron-fish/go-ironfish/blockchain"
	"github.com/iron-fish/go-ironfish/chainprocessor"
	"github.com/iron-fish/go-ironfish/consensusparams"
	"github.com/iron-fish/go-ironfish/crypto/blake"
	"github.com/iron-fish/go-ironfish/internal/logsetup"
	"github.com/iron-fish/go-ironfish/mempool"
	"github.com/iron-fish/go-ironfish/storage"
	"github.com/iron-fish/go-ironfish/wallet"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ironfishd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := defaultConfig()
	if _, err := flags.Parse(cfg); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}
	cfg.normalize()

	loggers, closeLog, err := logsetup.Init(cfg.logFile, logsetup.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()

	loggers.Chain.Infof("starting ironfishd on network %s, home %s", cfg.Network, cfg.HomeDir)

	chainDB, err := storage.Open(cfg.chainDBPath())
	if err != nil {
		return fmt.Errorf("opening chain database: %w", err)
	}
	defer chainDB.Close()

	walletDB, err := storage.Open(cfg.walletDBPath())
	if err != nil {
		return fmt.Errorf("opening wallet database: %w", err)
	}
	defer walletDB.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No migrations are registered yet; Apply against an empty registry
	// is a no-op, kept here so a future migration only needs to be added
	// to this slice.
	if err := storage.NewRegistry(storage.CHAIN, nil).Apply(ctx, chainDB, loggers.Chain); err != nil {
		return fmt.Errorf("applying chain migrations: %w", err)
	}
	if err := storage.NewRegistry(storage.WALLET, nil).Apply(ctx, walletDB, loggers.Wallet); err != nil {
		return fmt.Errorf("applying wallet migrations: %w", err)
	}

	cryptoProvider := blake.New()
	params := networkParams(cfg.Network, cryptoProvider.HeaderHash([]byte("ironfish-genesis-"+cfg.Network)))

	chain, err := blockchain.New(params, chainDB, cryptoProvider)
	if err != nil {
		return fmt.Errorf("initializing blockchain: %w", err)
	}

	pool := mempool.New(mempool.Config{
		Policy: mempool.DefaultPolicy(),
		Chain:  chain,
		Bus:    chain.Events(),
	})

	w := wallet.New(wallet.Config{
		Crypto:           cryptoProvider,
		Chain:            chain,
		Mempool:          pool,
		MinConfirmations: wallet.DefaultMinConfirmations,
	})

	if err := loadAccounts(w, cfg); err != nil {
		return fmt.Errorf("loading wallet accounts: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(gctx) })
	g.Go(func() error { return w.Run(gctx) })

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		loggers.Chain.Infof("received signal %s, shutting down", sig)
	case <-gctx.Done():
	}
	cancel()

	if err := g.Wait(); err != nil && err != context.Canceled {
		return fmt.Errorf("component loop exited: %w", err)
	}
	return nil
}

// networkParams resolves cfg.Network to its consensus parameters,
// defaulting to mainnet for an unrecognized value the same way
// logsetup.ParseLevel defaults an unrecognized log level to info.
func networkParams(network string, genesisHash [32]byte) *consensusparams.Params {
	if network == "testnet" {
		return consensusparams.TestNet(genesisHash)
	}
	return consensusparams.MainNet(genesisHash)
}

// loadAccounts derives and registers a wallet account from cfg.WalletSeed
// if one was supplied. A production deployment would import accounts
// through an RPC surface (out of scope, spec §1); this is the minimal
// hook process wiring needs to have at least one account scanning.
func loadAccounts(w *wallet.Wallet, cfg *Config) error {
	if cfg.WalletSeed == "" {
		return nil
	}
	seed, err := hex.DecodeString(cfg.WalletSeed)
	if err != nil {
		return fmt.Errorf("decoding wallet seed: %w", err)
	}
	account, err := w.DeriveAccount("default", seed)
	if err != nil {
		return err
	}
	_, err = w.AddAccount(account, chainprocessor.Cursor{})
	return err
}
