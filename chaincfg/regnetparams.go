// Copyright (c) 2018-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// RegressionNetParams returns the network parameters for the regression
// test network. This is not the public test network; its sole purpose is
// local unit and integration testing, and its values are subject to change
// even if it would be a hard fork on any real network.
func RegressionNetParams() *Params {
	regNetPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	genesisBlock := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: chainhash.Hash{},
			Timestamp: 1296688602,
			Bits:      0x207fffff,
			Nonce:     2,
		},
		Transactions: []*wire.MsgTx{{
			Version: 1,
			TxIn: []*wire.TxIn{{
				PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
				SignatureScript:  hexDecode("04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73"),
				Sequence:         0xffffffff,
			}},
			TxOut: []*wire.TxOut{{
				Value:    50 * 1e8,
				PkScript: hexDecode("4104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac"),
			}},
		}},
	}
	genesisBlock.Header.MerkleRoot = genesisBlock.Transactions[0].TxHash()

	return &Params{
		Name:        "regtest",
		Net:         wire.RegressionNet,
		DefaultPort: "18444",
		DNSSeeds:    nil, // no seeds on a local test network

		CashAddrPrefix:   "bchreg",
		PubKeyHashAddrID: 0x6f,
		ScriptHashAddrID: 0xc4,
		PrivateKeyID:     0xef,
		HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
		HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub

		GenesisBlock: &genesisBlock,
		GenesisHash:  genesisBlock.BlockHash(),
		PowLimit:     regNetPowLimit,
		PowLimitBits: 0x207fffff,

		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     targetTimePerBlock * 2,
		TargetTimePerBlock:       targetTimePerBlock,
		TargetTimespan:           targetTimePerBlock * 2016,
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 150,
		CoinbaseMaturity:       100,

		// Every upgrade is active from genesis on the regression network,
		// since its sole purpose is testing current rules.
		Uahf2017Height:     0,
		Daa2017Height:      0,
		Magnetic2018Height: 0,
		Upgrades:           nil,

		BIP16Height: 0,
		BIP34Height: 100000000,
		BIP65Height: 1351,
		BIP66Height: 1251,
		BIP68Height: 0,

		RuleChangeActivationThreshold: 108, // 75% of MinerConfirmationWindow
		MinerConfirmationWindow:       144,
		Deployments:                   map[uint32][]ConsensusDeployment{},

		Checkpoints: nil,

		MaxBlockSize: 32 * 1000 * 1000,
		MaxTxSize:    32 * 1000 * 1000,

		AcceptNonStdTxs: true,
	}
}
