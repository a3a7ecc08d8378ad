// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"testing"

	"github.com/bchcore/bchnode/chaincfg"
)

func TestCalcBlockSubsidyHalves(t *testing.T) {
	params := chaincfg.MainNetParams()
	cases := []struct {
		height int32
		want   int64
	}{
		{0, 50 * 1e8},
		{params.SubsidyHalvingInterval - 1, 50 * 1e8},
		{params.SubsidyHalvingInterval, 25 * 1e8},
		{params.SubsidyHalvingInterval * 2, 1250000000},
	}
	for _, c := range cases {
		got := CalcBlockSubsidy(c.height, params)
		if got != c.want {
			t.Fatalf("height %d: got %d, want %d", c.height, got, c.want)
		}
	}
}

func TestCalcBlockSubsidyReachesZero(t *testing.T) {
	params := chaincfg.MainNetParams()
	got := CalcBlockSubsidy(params.SubsidyHalvingInterval*65, params)
	if got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}

func TestTotalInputMayBeClaimed(t *testing.T) {
	params := chaincfg.MainNetParams()
	if TotalInputMayBeClaimed(100, 100+int32(params.CoinbaseMaturity)-1, params) {
		t.Fatal("expected immature spend to be rejected")
	}
	if !TotalInputMayBeClaimed(100, 100+int32(params.CoinbaseMaturity), params) {
		t.Fatal("expected mature spend to be accepted")
	}
}
