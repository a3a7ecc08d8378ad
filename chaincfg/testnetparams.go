// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math/big"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// TestNet4Params returns the network parameters for the public test
// network, version 4 — the currently active BCH testnet.
func TestNet4Params() *Params {
	testNetPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	genesisBlock := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: chainhash.Hash{},
			Timestamp: 1597811185,
			Bits:      0x1d00ffff,
			Nonce:     114152193,
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
		Name:        "testnet4",
		Net:         wire.TestNet4,
		DefaultPort: "28333",
		DNSSeeds: []DNSSeed{
			{Host: "testnet4-seed.flowee.cash", HasFiltering: false},
			{Host: "testnet4-seed-bch.bitcoinforks.org", HasFiltering: false},
		},

		CashAddrPrefix:   "bchtest",
		PubKeyHashAddrID: 0x6f,
		ScriptHashAddrID: 0xc4,
		PrivateKeyID:     0xef,
		HDPrivateKeyID:   [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
		HDPublicKeyID:    [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub

		GenesisBlock: &genesisBlock,
		GenesisHash:  genesisBlock.BlockHash(),
		PowLimit:     testNetPowLimit,
		PowLimitBits: bigToCompact(testNetPowLimit),

		ReduceMinDifficulty:      true,
		MinDiffReductionTime:     targetTimePerBlock * 2,
		TargetTimePerBlock:       targetTimePerBlock,
		TargetTimespan:           targetTimePerBlock * 2016,
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 210000,
		CoinbaseMaturity:       100,

		Uahf2017Height:     1155876,
		Daa2017Height:      1188697,
		Magnetic2018Height: 1267996,
		Upgrades: []Upgrade{
			{Name: "uahf-2017-08", Height: 1155876},
			{Name: "daa-2017-11", Height: 1188697},
			{Name: "magnetic-2018-11", Height: 1267996},
		},

		BIP16Height: 0,
		BIP34Height: 21111,
		BIP65Height: 581885,
		BIP66Height: 330776,
		BIP68Height: 770112,

		RuleChangeActivationThreshold: 1512, // 75% of MinerConfirmationWindow
		MinerConfirmationWindow:       2016,
		Deployments:                   map[uint32][]ConsensusDeployment{},

		Checkpoints: []Checkpoint{
			{Height: 0, Hash: newHashFromStr("000000001dd410c49a788668ce26751718cc797474d3152a5fc073dd44fd9f7")},
		},

		MaxBlockSize: 32 * 1000 * 1000,
		MaxTxSize:    32 * 1000 * 1000,

		AcceptNonStdTxs: true,
	}
}
