// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// sighashPrecomputed holds the three whole-transaction digests the BIP143
// preimage commits to. CalcSignatureHash builds a fresh one on every call;
// the digests are not cached across the inputs of a transaction.
type sighashPrecomputed struct {
	hashPrevouts  chainhash.Hash
	hashSequence  chainhash.Hash
	hashOutputs   chainhash.Hash
}

func newSighashPrecomputed(tx *wire.MsgTx) *sighashPrecomputed {
	var prevouts, sequences, outputs bytes.Buffer
	for _, in := range tx.TxIn {
		prevouts.Write(in.PreviousOutPoint.Hash[:])
		var idx [4]byte
		putUint32LE(idx[:], in.PreviousOutPoint.Index)
		prevouts.Write(idx[:])

		var seq [4]byte
		putUint32LE(seq[:], in.Sequence)
		sequences.Write(seq[:])
	}
	for _, out := range tx.TxOut {
		var val [8]byte
		putUint64LE(val[:], uint64(out.Value))
		outputs.Write(val[:])
		_ = wire.WriteVarBytes(&outputs, out.PkScript)
	}

	return &sighashPrecomputed{
		hashPrevouts: chainhash.HashH(prevouts.Bytes()),
		hashSequence: chainhash.HashH(sequences.Bytes()),
		hashOutputs:  chainhash.HashH(outputs.Bytes()),
	}
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func putUint64LE(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// CalcSignatureHash computes the BIP143-style sighash digest this chain has
// used for every signature since the UAHF mandated SIGHASH_FORKID: rather
// than re-hashing the entire spending transaction per input as the legacy
// algorithm did (quadratic in transaction size), it commits separately to
// the inputs, sequences, and outputs the hash type selects, via
// sighashPrecomputed. Those digests are recomputed on each call.
//
// subScript is the scriptCode for this input: the pkScript being redeemed
// (or, for P2SH, the redeem script), with any CODESEPARATOR-preceding bytes
// already removed — this engine never implements OP_CODESEPARATOR so
// subScript is always the script unmodified.
func CalcSignatureHash(subScript []byte, hashType SigHashType, tx *wire.MsgTx, idx int, amount int64) (chainhash.Hash, error) {
	if idx < 0 || idx >= len(tx.TxIn) {
		return chainhash.Hash{}, ErrStackUnderflow
	}
	if hashType&SigHashForkID == 0 {
		return chainhash.Hash{}, errSighashRequiresForkID
	}

	pre := newSighashPrecomputed(tx)
	anyoneCanPay := hashType&SigHashAnyOneCanPay != 0
	base := hashType &^ (SigHashAnyOneCanPay | SigHashForkID)

	var buf bytes.Buffer

	var version [4]byte
	putUint32LE(version[:], uint32(tx.Version))
	buf.Write(version[:])

	zero := chainhash.Hash{}
	if anyoneCanPay {
		buf.Write(zero[:])
	} else {
		buf.Write(pre.hashPrevouts[:])
	}

	if !anyoneCanPay && base == SigHashAll {
		buf.Write(pre.hashSequence[:])
	} else {
		buf.Write(zero[:])
	}

	in := tx.TxIn[idx]
	buf.Write(in.PreviousOutPoint.Hash[:])
	var outIdx [4]byte
	putUint32LE(outIdx[:], in.PreviousOutPoint.Index)
	buf.Write(outIdx[:])

	_ = wire.WriteVarBytes(&buf, subScript)

	var amt [8]byte
	putUint64LE(amt[:], uint64(amount))
	buf.Write(amt[:])

	var seq [4]byte
	putUint32LE(seq[:], in.Sequence)
	buf.Write(seq[:])

	switch {
	case base == SigHashAll:
		buf.Write(pre.hashOutputs[:])
	case base == SigHashSingle && idx < len(tx.TxOut):
		var out bytes.Buffer
		var val [8]byte
		putUint64LE(val[:], uint64(tx.TxOut[idx].Value))
		out.Write(val[:])
		_ = wire.WriteVarBytes(&out, tx.TxOut[idx].PkScript)
		h := chainhash.HashH(out.Bytes())
		buf.Write(h[:])
	default:
		buf.Write(zero[:])
	}

	var lockTime [4]byte
	putUint32LE(lockTime[:], tx.LockTime)
	buf.Write(lockTime[:])

	var ht [4]byte
	putUint32LE(ht[:], uint32(hashType))
	buf.Write(ht[:])

	return chainhash.HashH(buf.Bytes()), nil
}

var errSighashRequiresForkID = errDisabledSighash("txscript: signature hash type is missing mandatory SIGHASH_FORKID")

type errDisabledSighash string

func (e errDisabledSighash) Error() string { return string(e) }

// TxSigChecker is the production SigChecker, verifying signatures against
// the real sighash of one input of a real spending transaction. PrevOuts
// must contain, for every input of Tx, the TxOut it spends (by index,
// matching Tx.TxIn); it is populated by the caller from the UTXO store
// ahead of running the engine for a given input.
type TxSigChecker struct {
	Tx       *wire.MsgTx
	InputIdx int
	PrevOuts []wire.TxOut
}

func (c *TxSigChecker) CheckSig(sig, pubKey, subScript []byte, hashType SigHashType) bool {
	if c.InputIdx >= len(c.PrevOuts) {
		return false
	}
	amount := c.PrevOuts[c.InputIdx].Value

	sigHash, err := CalcSignatureHash(subScript, hashType, c.Tx, c.InputIdx, amount)
	if err != nil {
		return false
	}

	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	parsedKey, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	return parsedSig.Verify(sigHash[:], parsedKey)
}

// lockTimeThreshold is the dividing line between a locktime interpreted as
// a block height and one interpreted as a Unix timestamp (BIP65).
const lockTimeThreshold = 500000000

// maxTxInSequenceNum marks a final input; a CHECKLOCKTIMEVERIFY requirement
// has no effect once the spending input carries this sequence value.
const maxTxInSequenceNum = 0xffffffff

// CheckLockTime implements BIP65: the requested lockTime must be
// non-negative, of the same kind (height vs. timestamp) as the
// transaction's own nLockTime, no greater than it, and the spending input
// must not be final.
func (c *TxSigChecker) CheckLockTime(lockTime int64) bool {
	if lockTime < 0 || c.InputIdx >= len(c.Tx.TxIn) {
		return false
	}
	txLockTime := int64(c.Tx.LockTime)
	if (lockTime < lockTimeThreshold) != (txLockTime < lockTimeThreshold) {
		return false
	}
	if lockTime > txLockTime {
		return false
	}
	return c.Tx.TxIn[c.InputIdx].Sequence != maxTxInSequenceNum
}

// Relative-locktime (BIP68/BIP112) field layout within an nSequence value.
const (
	sequenceLockTimeDisableFlag = 1 << 31
	sequenceLockTimeTypeFlag    = 1 << 22
	sequenceLockTimeMask        = 0x0000ffff
)

// CheckSequence implements BIP112: a disabled requested sequence always
// passes; otherwise the spending transaction must be version 2+, its
// input's own relative locktime must be enabled, of the same kind (blocks
// vs. time, per the type flag) as the request, and at least as large.
func (c *TxSigChecker) CheckSequence(sequence int64) bool {
	if sequence < 0 {
		return false
	}
	if sequence&sequenceLockTimeDisableFlag != 0 {
		return true
	}
	if c.Tx.Version < 2 || c.InputIdx >= len(c.Tx.TxIn) {
		return false
	}
	txSeq := int64(c.Tx.TxIn[c.InputIdx].Sequence)
	if txSeq&sequenceLockTimeDisableFlag != 0 {
		return false
	}
	if (sequence & sequenceLockTimeTypeFlag) != (txSeq & sequenceLockTimeTypeFlag) {
		return false
	}
	return sequence&sequenceLockTimeMask <= txSeq&sequenceLockTimeMask
}

func (c *TxSigChecker) CheckDataSig(sig, pubKey, message []byte) bool {
	digest := chainhash.HashH(message)

	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	parsedKey, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	return parsedSig.Verify(digest[:], parsedKey)
}
