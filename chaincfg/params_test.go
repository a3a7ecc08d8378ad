// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"
	"testing"
)

func TestMainNetGenesisBlockHash(t *testing.T) {
	params := MainNetParams()
	got := params.GenesisBlock.BlockHash()
	if !params.GenesisHash.IsEqual(&got) {
		t.Fatalf("GenesisHash = %s, recomputed BlockHash = %s", params.GenesisHash, got)
	}
}

func TestTestNet4GenesisBlockHash(t *testing.T) {
	params := TestNet4Params()
	got := params.GenesisBlock.BlockHash()
	if !params.GenesisHash.IsEqual(&got) {
		t.Fatalf("GenesisHash = %s, recomputed BlockHash = %s", params.GenesisHash, got)
	}
}

func TestRegressionNetGenesisBlockHash(t *testing.T) {
	params := RegressionNetParams()
	got := params.GenesisBlock.BlockHash()
	if !params.GenesisHash.IsEqual(&got) {
		t.Fatalf("GenesisHash = %s, recomputed BlockHash = %s", params.GenesisHash, got)
	}
}

func TestNetworksHaveDistinctMagics(t *testing.T) {
	seen := map[uint32]string{}
	for _, p := range []*Params{MainNetParams(), TestNet4Params(), RegressionNetParams()} {
		if name, ok := seen[uint32(p.Net)]; ok {
			t.Fatalf("%s and %s share network magic %#x", name, p.Name, uint32(p.Net))
		}
		seen[uint32(p.Net)] = p.Name
	}
}

func TestBigToCompactRoundTripsKnownValues(t *testing.T) {
	cases := []struct {
		bits uint32
	}{
		{0x1d00ffff},
		{0x1b0404cb},
		{0x207fffff},
	}
	for _, c := range cases {
		n := compactToBigForTest(c.bits)
		got := bigToCompact(n)
		if got != c.bits {
			t.Fatalf("bigToCompact(compactToBig(%#x)) = %#x, want %#x", c.bits, got, c.bits)
		}
	}
}

// compactToBigForTest is a minimal local inverse of bigToCompact, used only
// to build round-trip fixtures; the production inverse lives in
// math/uint256.SetCompact for the validation engine's own use.
func compactToBigForTest(bits uint32) *big.Int {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff
	n := new(big.Int).SetUint64(uint64(mantissa))
	if exponent <= 3 {
		return n.Rsh(n, 8*(3-uint(exponent)))
	}
	return n.Lsh(n, 8*(uint(exponent)-3))
}
