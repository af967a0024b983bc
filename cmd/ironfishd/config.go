// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
)

const (
	defaultDataDirname = "data"
	defaultLogDirname  = "logs"
	defaultLogFilename = "ironfishd.log"
	defaultNetwork     = "mainnet"
	defaultLogLevel    = "info"
)

// Config holds every flag ironfishd accepts. Parsing it is deliberately
// minimal: spec §1 Non-goals excludes a full RPC/CLI layer, so this
// struct only carries what process wiring itself needs, in the same
// go-flags struct-tag shape the teacher's own config carries.
type Config struct {
	HomeDir    string `short:"b" long:"homedir" description:"Directory to store chain and wallet data, and logs, under"`
	Network    string `long:"network" description:"Network to connect to (mainnet, testnet)" choice:"mainnet" choice:"testnet"`
	LogLevel   string `long:"loglevel" description:"Logging level (trace, debug, info, warn, error, critical, off)"`
	WalletSeed string `long:"walletseed" description:"Hex-encoded seed to derive and register a wallet account from on startup"`

	dataDir string
	logFile string
}

// defaultHomeDir mirrors the teacher's btcutil.AppDataDir convention:
// an OS-appropriate per-user application directory named after the
// binary.
func defaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".ironfishd")
}

// defaultConfig returns a Config already populated with every default,
// as if go-flags had parsed zero arguments.
func defaultConfig() *Config {
	cfg := &Config{
		HomeDir:  defaultHomeDir(),
		Network:  defaultNetwork,
		LogLevel: defaultLogLevel,
	}
	cfg.normalize()
	return cfg
}

// normalize fills in the derived, unexported paths once HomeDir/Network
// are known, after flag parsing has populated the exported fields.
func (c *Config) normalize() {
	if c.Network == "" {
		c.Network = defaultNetwork
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	netDir := filepath.Join(c.HomeDir, c.Network)
	c.dataDir = filepath.Join(netDir, defaultDataDirname)
	c.logFile = filepath.Join(netDir, defaultLogDirname, defaultLogFilename)
}

func (c *Config) chainDBPath() string  { return filepath.Join(c.dataDir, "chain") }
func (c *Config) walletDBPath() string { return filepath.Join(c.dataDir, "wallet") }
