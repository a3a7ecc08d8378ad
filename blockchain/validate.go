// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/bchcore/bchnode/chaincfg"
	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/math/uint256"
	"github.com/bchcore/bchnode/wire"
)

// maxTimeOffset is how far into the future a block's timestamp may be,
// relative to the validating node's clock, before it is rejected outright.
const maxTimeOffset = 2 * time.Hour

// minHF201811TxSize is the minimum serialized size a transaction must have
// once the 2018-11-15 upgrade is active, a blanket anti-DoS floor imposed
// alongside CTOR.
const minHF201811TxSize = 100

// checkBlockHeaderSanity performs the context-free checks that depend only
// on the header itself: proof of work against its own claimed bits, bits
// not exceeding the network's pow-limit, and the 2-hour future-timestamp
// allowance. It does not check the header against its parent; that is
// checkBlockHeaderContext's job once the parent is known.
func checkBlockHeaderSanity(header *wire.BlockHeader, params *chaincfg.Params, now time.Time) error {
	if err := checkProofOfWork(header, params); err != nil {
		return err
	}

	maxTimestamp := now.Add(maxTimeOffset)
	if time.Unix(int64(header.Timestamp), 0).After(maxTimestamp) {
		return ruleError(ErrTimeTooNew, "block timestamp is too far in the future")
	}
	return nil
}

// checkProofOfWork verifies hash(header) <= target_from_bits(header.Bits)
// and that Bits does not claim a target looser than the network's
// pow-limit.
func checkProofOfWork(header *wire.BlockHeader, params *chaincfg.Params) error {
	target := uint256.SetCompact(header.Bits)

	powLimitBits := uint256.SetCompact(params.PowLimitBits)
	if uint256.Cmp(target, powLimitBits) > 0 {
		return ruleError(ErrUnexpectedDifficulty, "claimed difficulty bits exceed the network's minimum allowed difficulty")
	}

	hash := header.BlockHash()
	hashNum := hashToUint256(hash)
	if uint256.Cmp(hashNum, target) > 0 {
		return ruleError(ErrHighHash, "block hash does not satisfy the claimed proof-of-work target")
	}
	return nil
}

// hashToUint256 reinterprets a block hash's internal (little-endian) byte
// order as the big-endian 256-bit integer that difficulty comparisons are
// conventionally expressed in.
func hashToUint256(hash [32]byte) uint256.Uint256 {
	var be [32]byte
	for i, b := range hash {
		be[31-i] = b
	}
	return uint256.FromBytes(be)
}

// checkBlockSanity runs the context-free checks over a full block body:
// at least one transaction, the first (and only the first) is a coinbase,
// merkle root matches and is free of the CVE-2012-2459 duplication
// pattern, and every transaction is structurally well-formed.
func checkBlockSanity(block *wire.MsgBlock, params *chaincfg.Params, now time.Time) error {
	if err := checkBlockHeaderSanity(&block.Header, params, now); err != nil {
		return err
	}

	numTx := len(block.Transactions)
	if numTx == 0 {
		return ruleError(ErrNoTransactions, "block does not contain any transactions")
	}
	if uint64(numTx) > uint64(wire.MaxTxPerAcceptedBlock) {
		return ruleError(ErrBlockTooBig, "block contains too many transactions")
	}
	if uint64(block.SerializeSize()) > params.MaxBlockSize {
		return ruleError(ErrBlockTooBig, "serialized block size exceeds the network maximum")
	}

	if !block.Transactions[0].IsCoinBase() {
		return ruleError(ErrFirstTxNotCoinbase, "first transaction in block is not a coinbase")
	}
	for _, tx := range block.Transactions[1:] {
		if tx.IsCoinBase() {
			return ruleError(ErrMultipleCoinbases, "block contains more than one coinbase transaction")
		}
	}

	for _, tx := range block.Transactions {
		if err := checkTransactionSanity(tx, params); err != nil {
			return err
		}
	}

	if merkleRootHasDuplication(block.Transactions) {
		return ruleError(ErrBadMerkleRoot, "block contains a duplicate-transaction merkle attack pattern")
	}
	merkles := buildMerkleTreeStore(block.Transactions)
	calculatedRoot := merkles[len(merkles)-1]
	if *calculatedRoot != block.Header.MerkleRoot {
		return ruleError(ErrBadMerkleRoot, "merkle root does not match transactions")
	}

	seen := make(map[chainhash.Hash]struct{}, numTx)
	for _, tx := range block.Transactions {
		h := tx.TxHash()
		if _, dup := seen[h]; dup {
			return ruleError(ErrDuplicateTx, "block contains a duplicate transaction id")
		}
		seen[h] = struct{}{}
	}

	return nil
}

// checkTransactionSanity verifies a transaction's structural well-formedness
// in isolation: it has inputs and outputs, no output value is negative or
// exceeds the maximum allowed, a non-coinbase has no null previous
// outpoint, and a coinbase's scriptSig length is within [2,100] bytes.
func checkTransactionSanity(tx *wire.MsgTx, params *chaincfg.Params) error {
	if len(tx.TxIn) == 0 {
		return ruleError(ErrNoTransactions, "transaction has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return ruleError(ErrNoTransactions, "transaction has no outputs")
	}
	if uint64(tx.SerializeSize()) > params.MaxTxSize {
		return ruleError(ErrBlockTooBig, "transaction exceeds the maximum allowed size")
	}

	var totalOut int64
	for _, out := range tx.TxOut {
		if out.Value < 0 {
			return ruleError(ErrBadFees, "transaction output has a negative value")
		}
		if out.Value > maxSatoshi {
			return ruleError(ErrBadFees, "transaction output value exceeds the maximum money supply")
		}
		totalOut += out.Value
		if totalOut > maxSatoshi {
			return ruleError(ErrBadFees, "transaction total output value exceeds the maximum money supply")
		}
	}

	if tx.IsCoinBase() {
		slen := len(tx.TxIn[0].SignatureScript)
		if slen < 2 || slen > 100 {
			return ruleError(ErrBadCoinbaseScriptLen, "coinbase transaction script length is out of range")
		}
		return nil
	}

	seenOutpoints := make(map[wire.OutPoint]struct{}, len(tx.TxIn))
	for _, in := range tx.TxIn {
		if in.PreviousOutPoint.Hash == (chainhash.Hash{}) && in.PreviousOutPoint.Index == 0xffffffff {
			return ruleError(ErrBadCoinbaseScriptLen, "non-coinbase transaction has a coinbase-style null previous outpoint")
		}
		if _, dup := seenOutpoints[in.PreviousOutPoint]; dup {
			return ruleError(ErrDuplicateTx, "transaction spends the same outpoint more than once")
		}
		seenOutpoints[in.PreviousOutPoint] = struct{}{}
	}

	return nil
}

// maxSatoshi is the total BCH money supply, in the smallest unit, as a
// hard sanity ceiling no output or running total may exceed.
const maxSatoshi = 21000000 * 1e8

// checkBlockHeaderContext verifies the header-level checks that need the
// parent node: the claimed difficulty equals the next-work-required
// derived from the active chain, and the block's timestamp exceeds the
// parent chain's median time past.
func checkBlockHeaderContext(header *wire.BlockHeader, parent *blockNode, params *chaincfg.Params) error {
	requiredBits := CalcNextRequiredDifficulty(parent, parentFirstBlockTime(parent, params), params)
	if header.Bits != requiredBits {
		return ruleError(ErrUnexpectedDifficulty, "block difficulty bits do not match the required value")
	}

	medianTime := calcPastMedianTime(parent)
	if time.Unix(int64(header.Timestamp), 0).Before(medianTime) || time.Unix(int64(header.Timestamp), 0).Equal(medianTime) {
		return ruleError(ErrTimeTooOld, "block timestamp is not after the median time of the previous blocks")
	}
	return nil
}

// parentFirstBlockTime returns the timestamp of the first block of the
// legacy 2016-block retarget window ending at parent, the value the
// classic difficulty formula needs. checkBlockHeaderContext always computes
// it, but CalcNextRequiredDifficulty ignores it once the DAA has activated
// (it dispatches on Daa2017Height).
func parentFirstBlockTime(parent *blockNode, params *chaincfg.Params) uint32 {
	if parent == nil || parent.height+1 < blocksPerRetarget {
		if parent == nil {
			return 0
		}
		return genesisAncestorNode(parent).timestamp
	}
	first := parent.relativeAncestor(blocksPerRetarget - 1)
	if first == nil {
		return 0
	}
	return first.timestamp
}

func genesisAncestorNode(node *blockNode) *blockNode {
	return node.ancestor(0)
}

// checkSerializedHeight verifies a BIP34-active coinbase's scriptSig begins
// with a push of the little-endian serialized block height, per BIP34. It
// does not check that the push is minimally encoded.
func checkSerializedHeight(coinbase *wire.MsgTx, wantHeight int32) error {
	sigScript := coinbase.TxIn[0].SignatureScript
	if len(sigScript) < 1 {
		return ruleError(ErrBadCoinbaseScriptLen, "coinbase script missing serialized block height")
	}

	serializedLen := int(sigScript[0])
	if serializedLen == 0 || serializedLen > 8 || len(sigScript) < 1+serializedLen {
		return ruleError(ErrBadCoinbaseScriptLen, "coinbase script height push is malformed")
	}

	var height int64
	for i := 0; i < serializedLen; i++ {
		height |= int64(sigScript[1+i]) << (8 * i)
	}
	if int32(height) != wantHeight {
		return ruleError(ErrBadCoinbaseScriptLen, "coinbase script height does not match the block's actual height")
	}
	return nil
}

// checkVersionSuperMajority reports whether at least the given fraction
// (numerator/denominator) of the window ancestors ending at node have a
// version at or above minVersion, the mechanism BIP34/65/66 each used to
// become mandatory.
func checkVersionSuperMajority(node *blockNode, minVersion int32, numerator, denominator, window int32) bool {
	var count int32
	cur := node
	for i := int32(0); i < window && cur != nil; i++ {
		if cur.version >= minVersion {
			count++
		}
		cur = cur.parent
	}
	return count*denominator >= numerator*window
}
