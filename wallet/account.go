// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"encoding/hex"
	"fmt"
)

// DeriveAccount builds an Account from seed via the wallet's
// CryptoProvider, naming it name and identifying it by the hex encoding
// of its public address (spec §4.6's account shape; HD-wallet key
// derivation itself is out of scope, spec §1).
func (w *Wallet) DeriveAccount(name string, seed []byte) (*Account, error) {
	keys, err := w.cfg.Crypto.DeriveAccount(seed)
	if err != nil {
		return nil, fmt.Errorf("wallet: deriving account %q: %w", name, err)
	}
	return &Account{
		ID:              hex.EncodeToString(keys.PublicAddress[:]),
		Name:            name,
		Keys:            keys,
		ScanningEnabled: true,
	}, nil
}

// ViewOnly reports whether account was imported without a spending key.
func (a *Account) ViewOnly() bool {
	return !a.CanSpend()
}
