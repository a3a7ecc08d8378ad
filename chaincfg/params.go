// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"encoding/hex"
	"math/big"
	"time"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// DNSSeed identifies a DNS seed that returns addresses of peers to try.
type DNSSeed struct {
	Host string

	// HasFiltering reports whether the seed supports filtering by service
	// bit, via a hostname prefix.
	HasFiltering bool
}

// Checkpoint identifies a known-good block by height and hash. The
// validation engine does not consult Params.Checkpoints: a chain that forks
// below a checkpoint is validated like any other chain.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// ConsensusDeployment defines the parameters for a voted (BIP9-style)
// consensus rule change, activated once a supermajority of the most recent
// MinerConfirmationWindow blocks signal it.
type ConsensusDeployment struct {
	// BitNumber is the bit position, 0-28, in the block header's version
	// field used to signal support for the deployment.
	BitNumber uint8

	// StartTime is the median time after which voting on the deployment
	// begins.
	StartTime uint64

	// ExpireTime is the median time after which the deployment is
	// considered failed if it has not yet locked in.
	ExpireTime uint64
}

// Upgrade names one of the scheduled BCH hard forks that change consensus
// rules at a fixed block height (rather than through miner voting).
type Upgrade struct {
	// Name identifies the upgrade for logging purposes, e.g. "hf2018-11".
	Name string

	// Height is the block height, inclusive, at which the new rules take
	// effect.
	Height int32
}

// Params defines a BCH network by its genesis block, consensus parameters,
// and the fixed-height hard-fork schedule. One of MainNetParams,
// TestNet4Params, or RegressionNetParams is the active set for a given
// process; chaincfg never mutates the struct a caller has already taken a
// pointer to — ReloadConfig swaps the pointer instead.
type Params struct {
	Name        string
	Net         wire.BitcoinNet
	DefaultPort string
	DNSSeeds    []DNSSeed

	// CashAddrPrefix is the bech32-style human-readable prefix used by the
	// cashaddr package when encoding and decoding addresses on this
	// network, e.g. "bitcoincash" for mainnet.
	CashAddrPrefix string

	// Legacy base58 address version bytes, retained for interoperability
	// with tooling that has not migrated to CashAddr.
	PubKeyHashAddrID byte
	ScriptHashAddrID byte
	PrivateKeyID     byte

	// BIP32 hierarchical deterministic extended key magics.
	HDPrivateKeyID [4]byte
	HDPublicKeyID  [4]byte

	GenesisBlock *wire.MsgBlock
	GenesisHash  chainhash.Hash

	// PowLimit is the highest proof-of-work target (lowest difficulty) a
	// block may have on this network.
	PowLimit     *big.Int
	PowLimitBits uint32

	// ReduceMinDifficulty allows a much lower difficulty for blocks whose
	// timestamp is more than TargetTimePerBlock*2 after the previous
	// block, as testnet's anti-griefing rule does.
	ReduceMinDifficulty     bool
	MinDiffReductionTime    time.Duration
	TargetTimePerBlock      time.Duration
	TargetTimespan          time.Duration
	RetargetAdjustmentFactor int64

	SubsidyHalvingInterval int32
	CoinbaseMaturity       uint16

	// Consensus-rule activation heights, mirroring the BCH hard-fork
	// schedule: UAHF (Aug 2017, SIGHASH_FORKID + 8MB cap), the November
	// 2017 DAA retarget, and the November 2018 CTOR + OP_CHECKDATASIG
	// upgrade. Later upgrades (2019-2023) did not change anything this
	// node enforces and are tracked only as Upgrades entries for logging.
	Uahf2017Height   int32
	Daa2017Height    int32
	Magnetic2018Height int32

	Upgrades []Upgrade

	// BIP16/34/65/66/68 activation heights, all long since active on
	// mainnet but still meaningful on regtest/testnet fixtures.
	BIP16Height int32
	BIP34Height int32
	BIP65Height int32
	BIP66Height int32
	BIP68Height int32

	RuleChangeActivationThreshold uint32
	MinerConfirmationWindow       uint32
	Deployments                   map[uint32][]ConsensusDeployment

	Checkpoints []Checkpoint

	// MaxBlockSize is the largest serialized block size accepted, in
	// bytes. It stepped up at several hard forks; callers should consult
	// Upgrades rather than hard-coding this for historical blocks.
	MaxBlockSize uint64
	MaxTxSize    uint64

	// AcceptNonStdTxs controls whether the mempool relays and mines
	// transactions that do not match one of the stdscript templates.
	AcceptNonStdTxs bool
}

var bigOne = big.NewInt(1)

func hexDecode(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic("chaincfg: invalid hex literal: " + err.Error())
	}
	return b
}

func newHashFromStr(s string) *chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic("chaincfg: invalid hash literal: " + err.Error())
	}
	return h
}

// bigToCompact converts a big.Int target to the compact "bits" encoding
// used in the block header: a one-byte size (in bytes) of the value,
// followed by its three most significant bytes.
func bigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	nSize := uint((n.BitLen() + 7) / 8)
	var nCompact uint32
	if nSize <= 3 {
		nCompact = uint32(n.Uint64()) << (8 * (3 - nSize))
	} else {
		tn := new(big.Int).Rsh(n, 8*(nSize-3))
		nCompact = uint32(tn.Uint64())
	}

	// The sign bit (0x00800000) must never be set on the mantissa, since
	// Satoshi's encoding uses it to indicate negative numbers; if it
	// would be, shift one more byte into the size instead.
	if nCompact&0x00800000 != 0 {
		nCompact >>= 8
		nSize++
	}

	return nCompact | uint32(nSize)<<24
}
