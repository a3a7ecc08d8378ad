// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

// CountSigOps returns the number of signature operations a script
// contributes, counting CHECKSIG/CHECKSIGVERIFY as one each and
// CHECKMULTISIG/CHECKMULTISIGVERIFY by its immediately preceding small-int
// push (or the conservative worst case of 20 if the count cannot be read
// that way), the standard accept-limit accounting every Satoshi-derived
// implementation uses.
func CountSigOps(script []byte) int {
	const maxPubKeysPerMultisig = 20

	var numSigOps int
	tok := MakeScriptTokenizer(script)
	sawOp := false
	var lastOp byte
	for tok.Next() {
		switch tok.Opcode() {
		case OP_CHECKSIG, OP_CHECKSIGVERIFY:
			numSigOps++
		case OP_CHECKMULTISIG, OP_CHECKMULTISIGVERIFY:
			if sawOp && IsSmallInt(lastOp) {
				numSigOps += AsSmallInt(lastOp)
			} else {
				numSigOps += maxPubKeysPerMultisig
			}
		}
		lastOp = tok.Opcode()
		sawOp = true
	}
	return numSigOps
}
