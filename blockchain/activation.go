// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/bchcore/bchnode/chaincfg"
	"github.com/bchcore/bchnode/txscript"
)

// ThresholdState mirrors the BIP9 deployment lifecycle used for the small
// set of voted (rather than fixed-height) rule changes a network's
// Params.Deployments may still carry. BCH's own hard forks are all
// fixed-height (see Params.Upgrades) and do not use this machinery, but a
// network configuration is still free to declare a BIP9 deployment for
// forward compatibility with tooling that expects one.
type ThresholdState byte

// Recognized threshold states, in the order a deployment passes through
// them.
const (
	ThresholdDefined ThresholdState = iota
	ThresholdStarted
	ThresholdLockedIn
	ThresholdActive
	ThresholdFailed
)

func (s ThresholdState) String() string {
	switch s {
	case ThresholdDefined:
		return "defined"
	case ThresholdStarted:
		return "started"
	case ThresholdLockedIn:
		return "locked-in"
	case ThresholdActive:
		return "active"
	case ThresholdFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// calcThresholdState replays the deployment's confirmation windows from
// genesis up to node, per the standard BIP9 state machine: Defined until a
// window's median time reaches StartTime, Started while counting
// version-bit votes each window (LockedIn once
// RuleChangeActivationThreshold is reached within a window, Failed if
// ExpireTime is reached first), Active the window after LockedIn.
func calcThresholdState(node *blockNode, deployment chaincfg.ConsensusDeployment, params *chaincfg.Params) ThresholdState {
	window := int32(params.MinerConfirmationWindow)
	if node == nil || window == 0 {
		return ThresholdDefined
	}

	state := ThresholdDefined
	lastWindowEnd := (node.height / window) * window
	for windowEnd := window - 1; windowEnd <= lastWindowEnd && state != ThresholdFailed && state != ThresholdActive; windowEnd += window {
		end := node.ancestor(windowEnd)
		if end == nil {
			break
		}
		mtp := uint64(calcPastMedianTime(end).Unix())

		switch state {
		case ThresholdDefined:
			if mtp >= deployment.StartTime {
				state = ThresholdStarted
			}
		case ThresholdStarted:
			if mtp >= deployment.ExpireTime {
				state = ThresholdFailed
			} else if countVotes(end, window, deployment.BitNumber) >= params.RuleChangeActivationThreshold {
				state = ThresholdLockedIn
			}
		case ThresholdLockedIn:
			state = ThresholdActive
		}
	}
	return state
}

// countVotes counts how many of the window blocks ending at node signaled
// support for bitNumber in their version field.
func countVotes(node *blockNode, window int32, bitNumber uint8) uint32 {
	var count uint32
	mask := int32(1) << bitNumber
	cur := node
	for i := int32(0); i < window && cur != nil; i++ {
		if cur.version&mask != 0 {
			count++
		}
		cur = cur.parent
	}
	return count
}

// ScriptFlagsForBlock derives the txscript.ScriptFlags a block at the given
// height must be verified under. BCH's own hard forks
// (UAHF/DAA/Magnetic, §4.6) all activate at a publicly known height rather
// than through BIP9 miner signaling, but the legacy Bitcoin soft forks BCH
// inherited (P2SH, strict DER, CLTV, CSV) still gate on their own
// activation heights, carried here for networks whose genesis predates
// them (e.g. a regtest chain replaying pre-fork history).
func ScriptFlagsForBlock(height int32, params *chaincfg.Params) txscript.ScriptFlags {
	var flags txscript.ScriptFlags

	if bip16Active(height, params) {
		flags |= txscript.ScriptBip16
	}
	if bip66Active(height, params) {
		flags |= txscript.ScriptVerifyStrictEncoding
	}
	if bip65Active(height, params) {
		flags |= txscript.ScriptVerifyCheckLockTimeVerify
	}
	if bip68Active(height, params) {
		flags |= txscript.ScriptVerifyCheckSequenceVerify
	}

	if height >= params.Uahf2017Height {
		// SIGHASH_FORKID becomes mandatory at UAHF; enforced by
		// TxSigChecker/CalcSignatureHash rather than a flag bit, since it
		// changes the sighash algorithm itself rather than gating an
		// opcode.
	}
	if height >= params.Magnetic2018Height {
		flags |= txscript.ScriptVerifyCheckDataSig
	}
	return flags
}

// bip16Active reports whether BIP16 (pay-to-script-hash) evaluation is
// active at height.
func bip16Active(height int32, params *chaincfg.Params) bool {
	return height >= params.BIP16Height
}

// bip34Active reports whether BIP34 (coinbase must embed serialized height)
// is active at height.
func bip34Active(height int32, params *chaincfg.Params) bool {
	return height >= params.BIP34Height
}

// bip65Active reports whether OP_CHECKLOCKTIMEVERIFY is active at height.
func bip65Active(height int32, params *chaincfg.Params) bool {
	return height >= params.BIP65Height
}

// bip66Active reports whether strict DER signature encoding is mandatory at
// height.
func bip66Active(height int32, params *chaincfg.Params) bool {
	return height >= params.BIP66Height
}

// bip68Active reports whether relative-locktime (OP_CHECKSEQUENCEVERIFY and
// nSequence-based sequence locks) is active at height.
func bip68Active(height int32, params *chaincfg.Params) bool {
	return height >= params.BIP68Height
}

// magneticActive reports whether the 2018-11-15 upgrade (CTOR transaction
// ordering, OP_CHECKDATASIG, minimum transaction size) is active at height.
func magneticActive(height int32, params *chaincfg.Params) bool {
	return height >= params.Magnetic2018Height
}
