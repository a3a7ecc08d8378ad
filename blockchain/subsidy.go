// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "github.com/bchcore/bchnode/chaincfg"

// baseSubsidy is the block reward paid at genesis, in satoshis, before any
// halving has occurred: 50 BCH.
const baseSubsidy = 50 * 1e8

// CalcBlockSubsidy returns the coinbase subsidy a block at the given height
// may pay, halving every params.SubsidyHalvingInterval blocks until it
// reaches zero. There is no treasury or stakeholder split on this chain —
// the full subsidy is available to the miner.
func CalcBlockSubsidy(height int32, params *chaincfg.Params) int64 {
	if params.SubsidyHalvingInterval == 0 {
		return baseSubsidy
	}

	halvings := height / params.SubsidyHalvingInterval
	// Mirrors Bitcoin Core's subsidy loop: after 64 halvings the reward
	// has right-shifted to zero and stays there, rather than wrapping.
	if halvings >= 64 {
		return 0
	}
	return baseSubsidy >> uint(halvings)
}

// TotalInputMayBeClaimed reports whether a transaction spending a coinbase
// output at spendHeight, where the coinbase was mined at coinbaseHeight, has
// satisfied the coinbase maturity rule.
func TotalInputMayBeClaimed(coinbaseHeight, spendHeight int32, params *chaincfg.Params) bool {
	return spendHeight-coinbaseHeight >= int32(params.CoinbaseMaturity)
}
