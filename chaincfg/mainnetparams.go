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

// MainNetParams returns the network parameters for the main BCH network.
func MainNetParams() *Params {
	// mainPowLimit is the highest proof of work value a block may have on
	// the main network: 2^224 - 1.
	mainPowLimit := new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	genesisBlock := wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   1,
			PrevBlock: chainhash.Hash{},
			// MerkleRoot: set below, once the coinbase hash is known.
			Timestamp: 1231006505, // 2009-01-03 18:15:05 UTC
			Bits:      0x1d00ffff,
			Nonce:     2083236893,
		},
		Transactions: []*wire.MsgTx{{
			Version: 1,
			TxIn: []*wire.TxIn{{
				PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
				SignatureScript: hexDecode("04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73"),
				Sequence: 0xffffffff,
			}},
			TxOut: []*wire.TxOut{{
				Value: 50 * 1e8,
				PkScript: hexDecode("4104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac"),
			}},
		}},
	}
	genesisBlock.Header.MerkleRoot = genesisBlock.Transactions[0].TxHash()

	return &Params{
		Name:        "mainnet",
		Net:         wire.MainNet,
		DefaultPort: "8333",
		DNSSeeds: []DNSSeed{
			{Host: "seed.bitcoinabc.org", HasFiltering: false},
			{Host: "seed-bch.bitcoinforks.org", HasFiltering: false},
			{Host: "btccash-seeder.bitcoinunlimited.info", HasFiltering: false},
			{Host: "seed.bchd.cash", HasFiltering: false},
		},

		CashAddrPrefix:   "bitcoincash",
		PubKeyHashAddrID: 0x00,
		ScriptHashAddrID: 0x05,
		PrivateKeyID:     0x80,
		HDPrivateKeyID:   [4]byte{0x04, 0x88, 0xad, 0xe4}, // xprv
		HDPublicKeyID:    [4]byte{0x04, 0x88, 0xb2, 0x1e}, // xpub

		GenesisBlock: &genesisBlock,
		GenesisHash:  genesisBlock.BlockHash(),
		PowLimit:     mainPowLimit,
		PowLimitBits: bigToCompact(mainPowLimit),

		ReduceMinDifficulty:      false,
		TargetTimePerBlock:       targetTimePerBlock,
		TargetTimespan:           targetTimePerBlock * 2016,
		RetargetAdjustmentFactor: 4,

		SubsidyHalvingInterval: 210000,
		CoinbaseMaturity:       100,

		Uahf2017Height:     478559,
		Daa2017Height:      504031,
		Magnetic2018Height: 556767,
		Upgrades: []Upgrade{
			{Name: "uahf-2017-08", Height: 478559},
			{Name: "daa-2017-11", Height: 504031},
			{Name: "magnetic-2018-11", Height: 556767},
		},

		BIP16Height: 173805,
		BIP34Height: 227931,
		BIP65Height: 388381,
		BIP66Height: 363725,
		BIP68Height: 419328,

		RuleChangeActivationThreshold: 1916, // 95% of MinerConfirmationWindow
		MinerConfirmationWindow:       2016,
		Deployments:                   map[uint32][]ConsensusDeployment{},

		Checkpoints: []Checkpoint{
			{Height: 11111, Hash: newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
			{Height: 478559, Hash: newHashFromStr("000000000000000000651ef99cb9fcbe0dadde1d424bd9f15ff20136191a5eec")},
			{Height: 556767, Hash: newHashFromStr("0000000000000000004626ff6e3b936941d341c5932ece4357eeccac44e6d56c")},
		},

		MaxBlockSize: 32 * 1000 * 1000,
		MaxTxSize:    32 * 1000 * 1000,

		AcceptNonStdTxs: false,
	}
}

// targetTimePerBlock is the intended spacing between blocks, shared by
// every BCH network: ten minutes.
const targetTimePerBlock = 10 * 60 * 1e9 // time.Duration, as nanoseconds
