// Copyright (c) 2021 The Decred developers
// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stdscript provides facilities for recognizing and decomposing the
// standard script templates a full node treats as spendable by default
// policy: pay-to-pubkey, pay-to-pubkey-hash, pay-to-script-hash, bare
// multisig, and provably prunable null data. All other scripts are
// considered non-standard — they may still be consensus valid, but a node
// need not relay or mine them.
package stdscript

// ScriptType identifies which, if any, of the standard templates a script
// matches.
type ScriptType byte

// Recognized standard script types.
const (
	// STNonStandard indicates a script matches none of the recognized
	// standard forms.
	STNonStandard ScriptType = iota

	// STPubKeyEcdsaSecp256k1 identifies a pay-to-pubkey (P2PK) script: a
	// single compressed or uncompressed secp256k1 public key followed by
	// OP_CHECKSIG.
	STPubKeyEcdsaSecp256k1

	// STPubKeyHashEcdsaSecp256k1 identifies a pay-to-pubkey-hash (P2PKH)
	// script.
	STPubKeyHashEcdsaSecp256k1

	// STScriptHash identifies a pay-to-script-hash (P2SH) script.
	STScriptHash

	// STMultiSig identifies a bare ECDSA n-of-m multisig script.
	STMultiSig

	// STNullData identifies a provably prunable OP_RETURN script.
	STNullData

	// numScriptTypes must be the last entry in the enum.
	numScriptTypes
)

var scriptTypeToName = []string{
	STNonStandard:              "nonstandard",
	STPubKeyEcdsaSecp256k1:     "pubkey",
	STPubKeyHashEcdsaSecp256k1: "pubkeyhash",
	STScriptHash:               "scripthash",
	STMultiSig:                 "multisig",
	STNullData:                 "nulldata",
}

// String returns the ScriptType as a human-readable name.
func (t ScriptType) String() string {
	if t >= numScriptTypes {
		return "invalid"
	}
	return scriptTypeToName[t]
}

// DetermineScriptType returns the standard type of script, or STNonStandard
// if it does not parse or match any recognized template.
func DetermineScriptType(script []byte) ScriptType {
	switch {
	case IsPubKeyScript(script):
		return STPubKeyEcdsaSecp256k1
	case IsPubKeyHashScript(script):
		return STPubKeyHashEcdsaSecp256k1
	case IsScriptHashScript(script):
		return STScriptHash
	case IsMultiSigScript(script):
		return STMultiSig
	case IsNullDataScript(script):
		return STNullData
	}
	return STNonStandard
}

// DetermineRequiredSigs returns the number of signatures required to spend
// an output locked by script, or 0 if the script does not parse or is not
// one of the known standard types that requires a fixed signature count.
func DetermineRequiredSigs(script []byte) uint16 {
	switch DetermineScriptType(script) {
	case STPubKeyEcdsaSecp256k1, STPubKeyHashEcdsaSecp256k1:
		return 1
	case STMultiSig:
		return ExtractMultiSigScriptDetails(script, false).RequiredSigs
	}
	return 0
}
