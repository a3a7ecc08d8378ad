// Copyright (c) 2021 The Decred developers
// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stdscript

import "github.com/bchcore/bchnode/txscript"

// MaxDataCarrierSize is the maximum number of bytes allowed in the pushed
// data of a standard provably-prunable null data script.
const MaxDataCarrierSize = 220

// ExtractCompressedPubKey extracts a compressed public key from script if it
// is a standard pay-to-compressed-secp256k1-pubkey script. It returns nil
// otherwise.
func ExtractCompressedPubKey(script []byte) []byte {
	// OP_DATA_33 <33-byte compressed pubkey> OP_CHECKSIG
	if len(script) == 35 &&
		script[34] == txscript.OP_CHECKSIG &&
		script[0] == txscript.OP_DATA_33 &&
		(script[1] == 0x02 || script[1] == 0x03) {

		return script[1:34]
	}
	return nil
}

// ExtractUncompressedPubKey extracts an uncompressed public key from script
// if it is a standard pay-to-uncompressed-secp256k1-pubkey script. It
// returns nil otherwise.
func ExtractUncompressedPubKey(script []byte) []byte {
	// OP_DATA_65 <65-byte uncompressed pubkey> OP_CHECKSIG
	if len(script) == 67 &&
		script[66] == txscript.OP_CHECKSIG &&
		script[0] == txscript.OP_DATA_65 &&
		script[1] == 0x04 {

		return script[1:66]
	}
	return nil
}

// ExtractPubKey extracts either a compressed or uncompressed public key from
// script if it is a standard pay-to-pubkey script. It returns nil otherwise.
func ExtractPubKey(script []byte) []byte {
	if pubKey := ExtractCompressedPubKey(script); pubKey != nil {
		return pubKey
	}
	return ExtractUncompressedPubKey(script)
}

// IsPubKeyScript reports whether script is a standard pay-to-pubkey script.
func IsPubKeyScript(script []byte) bool {
	return ExtractPubKey(script) != nil
}

// ExtractPubKeyHash extracts the public key hash from script if it is a
// standard pay-to-pubkey-hash script. It returns nil otherwise.
func ExtractPubKeyHash(script []byte) []byte {
	// OP_DUP OP_HASH160 <20-byte hash> OP_EQUALVERIFY OP_CHECKSIG
	if len(script) == 25 &&
		script[0] == txscript.OP_DUP &&
		script[1] == txscript.OP_HASH160 &&
		script[2] == txscript.OP_DATA_20 &&
		script[23] == txscript.OP_EQUALVERIFY &&
		script[24] == txscript.OP_CHECKSIG {

		return script[3:23]
	}
	return nil
}

// IsPubKeyHashScript reports whether script is a standard pay-to-pubkey-hash
// script.
func IsPubKeyHashScript(script []byte) bool {
	return ExtractPubKeyHash(script) != nil
}

// ExtractScriptHash extracts the script hash from script if it is a
// standard pay-to-script-hash script. It returns nil otherwise.
func ExtractScriptHash(script []byte) []byte {
	return txscript.ExtractScriptHash(script)
}

// IsScriptHashScript reports whether script is a standard pay-to-script-hash
// script.
func IsScriptHashScript(script []byte) bool {
	return ExtractScriptHash(script) != nil
}

// MultiSigDetails houses details extracted from a standard bare ECDSA
// multisig script.
type MultiSigDetails struct {
	RequiredSigs uint16
	NumPubKeys   uint16
	PubKeys      [][]byte
	Valid        bool
}

// ExtractMultiSigScriptDetails attempts to extract details from script if it
// is a standard bare ECDSA multisig script. The returned details' Valid
// field is false otherwise.
//
// extractPubKeys controls whether the public keys themselves are also
// extracted; skipping that avoids an allocation when the caller only needs
// to know whether the script matches the template.
func ExtractMultiSigScriptDetails(script []byte, extractPubKeys bool) MultiSigDetails {
	// REQ_SIGS PUBKEY PUBKEY ... NUM_PUBKEYS OP_CHECKMULTISIG
	if len(script) < 3 || script[len(script)-1] != txscript.OP_CHECKMULTISIG {
		return MultiSigDetails{}
	}

	tokenizer := txscript.MakeScriptTokenizer(script)
	if !tokenizer.Next() || !txscript.IsSmallInt(tokenizer.Opcode()) {
		return MultiSigDetails{}
	}
	requiredSigs := txscript.AsSmallInt(tokenizer.Opcode())
	if requiredSigs == 0 {
		return MultiSigDetails{}
	}

	var numPubKeys int
	var pubKeys [][]byte
	if extractPubKeys {
		pubKeys = make([][]byte, 0, txscript.MaxPubKeysPerMultiSig)
	}
	for tokenizer.Next() {
		data := tokenizer.Data()
		if !txscript.IsStrictCompressedPubKeyEncoding(data) && !(len(data) == 65 && data[0] == 0x04) {
			break
		}
		numPubKeys++
		if extractPubKeys {
			pubKeys = append(pubKeys, data)
		}
	}
	if tokenizer.Done() {
		return MultiSigDetails{}
	}

	op := tokenizer.Opcode()
	if !txscript.IsSmallInt(op) || txscript.AsSmallInt(op) != numPubKeys {
		return MultiSigDetails{}
	}
	if numPubKeys < requiredSigs || numPubKeys > txscript.MaxPubKeysPerMultiSig {
		return MultiSigDetails{}
	}

	// Exactly one opcode (OP_CHECKMULTISIG, checked above) should remain.
	if int32(len(tokenizer.Script()))-tokenizer.ByteIndex() != 1 {
		return MultiSigDetails{}
	}

	return MultiSigDetails{
		RequiredSigs: uint16(requiredSigs),
		NumPubKeys:   uint16(numPubKeys),
		PubKeys:      pubKeys,
		Valid:        true,
	}
}

// IsMultiSigScript reports whether script is a standard bare ECDSA multisig
// script.
func IsMultiSigScript(script []byte) bool {
	return ExtractMultiSigScriptDetails(script, false).Valid
}

// finalOpcodeData returns the data associated with the final opcode in
// script, or nil if the script fails to parse.
func finalOpcodeData(script []byte) []byte {
	if len(script) == 0 {
		return nil
	}
	var data []byte
	tokenizer := txscript.MakeScriptTokenizer(script)
	for tokenizer.Next() {
		data = tokenizer.Data()
	}
	if tokenizer.Err() != nil {
		return nil
	}
	return data
}

// IsMultiSigSigScript makes a fast best-effort guess at whether script is a
// signature script redeeming a pay-to-script-hash multisig redeem script,
// by checking whether it ends in a data push that itself looks like a
// multisig script. Determining this for certain would require the
// associated locking script, which is often expensive to fetch.
func IsMultiSigSigScript(script []byte) bool {
	if len(script) < 4 || script[len(script)-1] != txscript.OP_CHECKMULTISIG {
		return false
	}
	possibleRedeemScript := finalOpcodeData(script)
	if possibleRedeemScript == nil {
		return false
	}
	return IsMultiSigScript(possibleRedeemScript)
}

// MultiSigRedeemScriptFromScriptSig extracts a multisig redeem script from a
// P2SH-redeeming signature script. The script is expected to already have
// been checked to be a multisig-redeeming signature script prior to calling
// this; results are undefined otherwise.
func MultiSigRedeemScriptFromScriptSig(script []byte) []byte {
	return finalOpcodeData(script)
}

// isCanonicalPush reports whether opcode/data represents a push using the
// smallest instruction capable of encoding it.
func isCanonicalPush(opcode byte, data []byte) bool {
	dataLen := len(data)
	if opcode > txscript.OP_16 {
		return false
	}
	if opcode < txscript.OP_PUSHDATA1 && opcode > txscript.OP_0 &&
		dataLen == 1 && data[0] <= 16 {
		return false
	}
	if opcode == txscript.OP_PUSHDATA1 && dataLen < txscript.OP_PUSHDATA1 {
		return false
	}
	if opcode == txscript.OP_PUSHDATA2 && dataLen <= 0xff {
		return false
	}
	if opcode == txscript.OP_PUSHDATA4 && dataLen <= 0xffff {
		return false
	}
	return true
}

// IsNullDataScript reports whether script is a standard provably prunable
// null data script: OP_RETURN, optionally followed by a single canonical
// data push of at most MaxDataCarrierSize bytes.
func IsNullDataScript(script []byte) bool {
	if len(script) < 1 || script[0] != txscript.OP_RETURN {
		return false
	}
	if len(script) == 1 {
		return true
	}

	tokenizer := txscript.MakeScriptTokenizer(script[1:])
	return tokenizer.Next() && tokenizer.Done() &&
		len(tokenizer.Data()) <= MaxDataCarrierSize &&
		isCanonicalPush(tokenizer.Opcode(), tokenizer.Data())
}
