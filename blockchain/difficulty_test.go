// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/bchcore/bchnode/chaincfg"
)

// buildNode constructs a standalone node (no real parent chain) with the
// given height/timestamp/bits, sufficient for exercising the legacy
// retarget, which only reads lastNode's own fields plus firstBlockTime.
func buildNode(height int32, timestamp uint32, bits uint32) *blockNode {
	return &blockNode{height: height, timestamp: timestamp, bits: bits}
}

// The following cases are taken directly from the retrieved Flowee/Bitcoin
// Core pow_tests.cpp retargeting unit tests.
func TestCalcLegacyNextRequiredDifficultyKnownVectors(t *testing.T) {
	params := chaincfg.MainNetParams()

	cases := []struct {
		name           string
		height         int32
		lastBlockTime  uint32
		lastBits       uint32
		firstBlockTime uint32
		want           uint32
	}{
		{"no constraints", 32255, 1262152739, 0x1d00ffff, 1261130161, 0x1d00d86a},
		{"pow limit constraint", 2015, 1233061996, 0x1d00ffff, 1231006505, 0x1d00ffff},
		{"lower actual-time bound", 68543, 1279297671, 0x1c05a3f4, 1279008237, 0x1c0168fd},
		{"upper actual-time bound", 46367, 1269211443, 0x1c387f6f, 1263163443, 0x1d00e1fd},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			node := buildNode(c.height, c.lastBlockTime, c.lastBits)
			got := calcLegacyNextRequiredDifficulty(node, c.firstBlockTime, params)
			if got != c.want {
				t.Fatalf("got %#x, want %#x", got, c.want)
			}
		})
	}
}

func TestCalcLegacyNextRequiredDifficultyNonRetargetHeightReusesBits(t *testing.T) {
	params := chaincfg.MainNetParams()
	node := buildNode(32254, 1262152739, 0x1d00ffff)
	got := calcLegacyNextRequiredDifficulty(node, 1261130161, params)
	if got != node.bits {
		t.Fatalf("got %#x, want unchanged %#x", got, node.bits)
	}
}

func TestCalcNextRequiredDifficultyDispatchesOnDaaHeight(t *testing.T) {
	params := chaincfg.RegressionNetParams()
	// Daa2017Height is 0 on regtest, so every block after genesis uses the
	// DAA path, which below daaHalfLife just reuses the parent's bits.
	genesis := newBlockNode(&params.GenesisBlock.Header, nil)
	got := CalcNextRequiredDifficulty(genesis, genesis.timestamp, params)
	if got != genesis.bits {
		t.Fatalf("got %#x, want %#x", got, genesis.bits)
	}
}

func TestCompactToBigRoundTrip(t *testing.T) {
	for _, bits := range []uint32{0x1d00ffff, 0x1b0404cb, 0x207fffff} {
		n := CompactToBig(bits)
		got := BigToCompact(n)
		if got != bits {
			t.Fatalf("BigToCompact(CompactToBig(%#x)) = %#x", bits, got)
		}
	}
}
