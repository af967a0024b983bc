// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the byte-exact encodings (little-endian
// integers; a header's Target and Work are 32-byte big-endian) for
// block headers, blocks, and transactions described in spec §3 and §6,
// plus the network magic identifier used to tag a PeerNetwork's wire
// framing (the PeerNetwork transport itself is out of scope per spec §1
// Non-goals).
package wire

import "fmt"

// Network identifies which Iron Fish network a framed message belongs
// to, mirrored from the teacher's BitcoinNet magic-number convention
// (wire/protocol.go, since deleted — the P2P service-flag and
// protocol-version-history constants it carried have no Iron Fish
// analogue and did not survive the rewrite).
type Network uint32

const (
	// MainNet is Iron Fish's production network magic.
	MainNet Network = 0x49524f4e // "IRON"

	// TestNet is the public test network magic.
	TestNet Network = 0x54455354 // "TEST"
)

var networkStrings = map[Network]string{
	MainNet: "mainnet",
	TestNet: "testnet",
}

// String returns the Network in human-readable form.
func (n Network) String() string {
	if s, ok := networkStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("unknown network (0x%08x)", uint32(n))
}
