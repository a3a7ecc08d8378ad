// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/bchcore/bchnode/chaincfg"
)

var bigOne = big.NewInt(1)

// CompactToBig expands a block header's compact "bits" encoding into the
// full target it represents: a 1-byte exponent and 3-byte mantissa, target =
// mantissa * 256^(exponent-3). Negative mantissas (bit 0x00800000 set) never
// occur in a valid header; they are returned as the negated value, which
// BigToCompact encodes back with the sign bit set.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := compact >> 24

	var n *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		n = big.NewInt(int64(mantissa))
	} else {
		n = big.NewInt(int64(mantissa))
		n.Lsh(n, 8*(uint(exponent)-3))
	}
	if isNegative {
		n = n.Neg(n)
	}
	return n
}

// BigToCompact is the inverse of CompactToBig, used to re-encode a retarget
// result back into header form.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	negative := n.Sign() < 0
	work := new(big.Int).Abs(n)

	nSize := uint((work.BitLen() + 7) / 8)
	var nCompact uint32
	if nSize <= 3 {
		nCompact = uint32(work.Uint64()) << (8 * (3 - nSize))
	} else {
		tn := new(big.Int).Rsh(work, 8*(nSize-3))
		nCompact = uint32(tn.Uint64())
	}
	if nCompact&0x00800000 != 0 {
		nCompact >>= 8
		nSize++
	}

	nCompact |= uint32(nSize) << 24
	if negative {
		nCompact |= 0x00800000
	}
	return nCompact
}

// workSumBig converts a node's accumulated chain work (a fixed-width
// math/uint256.Uint256, used for the hot-path add on every new header) into
// a math/big.Int, the type the DAA's division-heavy window calculation
// needs. Difficulty retargets happen once per block at most, so the
// allocation here is immaterial next to the per-header add it is not on the
// path of.
func workSumBig(node *blockNode) *big.Int {
	b := node.workSum.Bytes()
	return new(big.Int).SetBytes(b[:])
}

// blocksPerRetarget is the classic Bitcoin difficulty window: every 2016
// blocks, the network retargets to bring the average block interval over
// that window back to ten minutes.
const blocksPerRetarget = 2016

// calcLegacyNextRequiredDifficulty implements the pre-DAA retarget rule
// (still in effect on mainnet for blocks below chaincfg.Params.Daa2017Height):
// every 2016th block, scale the previous target by the ratio of actual to
// expected timespan, clamped to a factor of 4 in either direction and to
// the network's PowLimit ceiling. Grounded in the classic
// CalculateNextWorkRequired algorithm and its retrieved unit-test vectors
// (height 32255/nBits 0x1d00ffff/firstBlockTime 1261130161 -> 0x1d00d86a).
func calcLegacyNextRequiredDifficulty(lastNode *blockNode, firstBlockTime uint32, params *chaincfg.Params) uint32 {
	// Only change difficulty at the 2016-block retarget boundary;
	// otherwise every block reuses its parent's target, modulo the
	// testnet/regtest minimum-difficulty allowance.
	if (lastNode.height+1)%blocksPerRetarget != 0 {
		return testNetMinDifficulty(lastNode, params)
	}

	actualTimespan := int64(lastNode.timestamp) - int64(firstBlockTime)
	targetTimespan := int64(params.TargetTimespan.Seconds())
	adjustedTimespan := actualTimespan
	minTimespan := targetTimespan / params.RetargetAdjustmentFactor
	maxTimespan := targetTimespan * params.RetargetAdjustmentFactor
	switch {
	case adjustedTimespan < minTimespan:
		adjustedTimespan = minTimespan
	case adjustedTimespan > maxTimespan:
		adjustedTimespan = maxTimespan
	}

	oldTarget := CompactToBig(lastNode.bits)
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(adjustedTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	if newTarget.Cmp(params.PowLimit) > 0 {
		newTarget.Set(params.PowLimit)
	}
	return BigToCompact(newTarget)
}

// testNetMinDifficulty implements the anti-griefing rule used on testnet
// and regtest-like networks: if more than MinDiffReductionTime has elapsed
// since lastNode, the next block may use the network's PowLimit outright
// rather than wait out a full retarget window.
func testNetMinDifficulty(lastNode *blockNode, params *chaincfg.Params) uint32 {
	if !params.ReduceMinDifficulty {
		return lastNode.bits
	}
	return params.PowLimitBits
}

// daaHalfLife is the averaging window, in blocks, used by the November-2017
// "cw-144" difficulty adjustment algorithm: each block's target is derived
// from the work done and time elapsed across the previous 144 blocks
// (roughly one day), rather than only retargeting every 2016 blocks. There
// is no original reference implementation for this algorithm in the
// retrieved source pack (it postdates the Bitcoin Core fork this node's
// legacy path is grounded in); the window size and suitable-block selection
// below follow the publicly specified BCH cw-144 algorithm.
const daaHalfLife = 144

// calcDAANextRequiredDifficulty implements the cw-144 algorithm active from
// chaincfg.Params.Daa2017Height onward: it computes the average target and
// average block time over the preceding daaHalfLife blocks (using the
// median-of-three "suitable block" endpoints to resist timestamp
// manipulation) and scales the previous target by their ratio, without the
// legacy algorithm's once-per-2016-blocks restriction or asymmetric 4x clamp.
func calcDAANextRequiredDifficulty(lastNode *blockNode, params *chaincfg.Params) uint32 {
	if lastNode.height < daaHalfLife {
		return lastNode.bits
	}

	firstNode := suitableBlock(lastNode.relativeAncestor(daaHalfLife))
	lastSuitable := suitableBlock(lastNode)
	if firstNode == nil || lastSuitable == nil {
		return lastNode.bits
	}

	spacing := int64(params.TargetTimePerBlock.Seconds())

	workDone := new(big.Int).Sub(workSumBig(lastSuitable), workSumBig(firstNode))
	workDone.Mul(workDone, big.NewInt(spacing))

	actualTimespan := int64(lastSuitable.timestamp) - int64(firstNode.timestamp)
	switch {
	case actualTimespan > 288*spacing:
		actualTimespan = 288 * spacing
	case actualTimespan < 72*spacing:
		actualTimespan = 72 * spacing
	}
	workDone.Div(workDone, big.NewInt(actualTimespan))
	if workDone.Sign() <= 0 {
		return params.PowLimitBits
	}

	nextTarget := new(big.Int).Div(maxUint256, workDone)
	if nextTarget.Cmp(params.PowLimit) > 0 {
		nextTarget.Set(params.PowLimit)
	}
	return BigToCompact(nextTarget)
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 256), bigOne)

// suitableBlock implements the cw-144 "median of three" endpoint selection:
// given a node, it returns whichever of that node and its two immediate
// ancestors has the median timestamp, which damps the effect of any single
// block's manipulated timestamp on the window's measured timespan.
func suitableBlock(node *blockNode) *blockNode {
	if node == nil || node.parent == nil || node.parent.parent == nil {
		return node
	}
	candidates := [3]*blockNode{node.parent.parent, node.parent, node}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && candidates[j].timestamp < candidates[j-1].timestamp; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	return candidates[1]
}

// CalcNextRequiredDifficulty computes the "bits" value a block extending
// lastNode must carry, dispatching to the legacy 2016-block retarget or the
// cw-144 DAA depending on where lastNode falls relative to
// params.Daa2017Height.
func CalcNextRequiredDifficulty(lastNode *blockNode, firstBlockTime uint32, params *chaincfg.Params) uint32 {
	if lastNode == nil {
		return params.PowLimitBits
	}
	if lastNode.height+1 >= params.Daa2017Height {
		return calcDAANextRequiredDifficulty(lastNode, params)
	}
	return calcLegacyNextRequiredDifficulty(lastNode, firstBlockTime, params)
}
