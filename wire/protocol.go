// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

// BitcoinNet identifies a network by its 4-byte magic. The transport
// package's frames do not carry it.
type BitcoinNet uint32

// Network magics, distinct per network.
const (
	MainNet        BitcoinNet = 0xe8f3e1e3
	TestNet4       BitcoinNet = 0xe2b7daaf
	RegressionNet  BitcoinNet = 0xdab5bffa
)

// String returns the human-readable name of the network, or "unknown" for
// an unrecognized magic.
func (n BitcoinNet) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet4:
		return "testnet4"
	case RegressionNet:
		return "regtest"
	default:
		return "unknown"
	}
}

// ProtocolVersion is the version of the wire protocol this node speaks.
const ProtocolVersion uint32 = 70016
