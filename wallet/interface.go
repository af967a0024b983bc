// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"github.com/iron-fish/go-ironfish/chainhash"
	"github.com/iron-fish/go-ironfish/chainprocessor"
	"github.com/iron-fish/go-ironfish/mempool"
	"github.com/iron-fish/go-ironfish/types"
)

// ChainView is the slice of Blockchain the wallet needs: the same one
// chainprocessor.Processor replays over, since each account drives its
// own Processor against it.
type ChainView = chainprocessor.ChainView

// MempoolView is the slice of Pool the wallet needs to submit a freshly
// posted transaction for relay and to fold pooled-but-unconfirmed spends
// into Balance (spec §4.6).
type MempoolView interface {
	Accept(t *types.Transaction) (*mempool.TxDesc, error)
	SpendsNullifier(nullifier chainhash.Hash) bool
}
