// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txscript implements script evaluation for the standard output
// templates (P2PK, P2PKH, P2SH, bare multisig, and the HF-2018-11
// CHECKDATASIG family), along with the signature cache that makes repeated
// verification of the same signature cheap. Pushes, OP_IF/NOTIF/ELSE/ENDIF
// branching, and the hashing/signature opcodes are implemented; arithmetic
// and bitwise opcodes are not, since no standard template this engine is
// asked to verify in the course of block and mempool validation needs them.
package txscript

import (
	"bytes"
	"crypto/sha256"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/ripemd160"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// ScriptFlags enable optional, activation-gated verification rules.
type ScriptFlags uint32

// Recognized script flags.
const (
	// ScriptVerifyStrictEncoding requires signatures and public keys to use
	// their canonical DER/compressed-point encodings.
	ScriptVerifyStrictEncoding ScriptFlags = 1 << iota

	// ScriptVerifyLowS requires the S component of ECDSA signatures to be
	// at most the curve order's midpoint, as BIP146/hf2018-11 requires.
	// Engine does not check this flag.
	ScriptVerifyLowS

	// ScriptVerifyCheckDataSig enables OP_CHECKDATASIG and
	// OP_CHECKDATASIGVERIFY, activated by the 2018-11-15 upgrade.
	ScriptVerifyCheckDataSig

	// ScriptVerifyMinimalData requires all data pushes to use the smallest
	// possible encoding. Engine does not check this flag.
	ScriptVerifyMinimalData

	// ScriptBip16 evaluates a pay-to-script-hash output's redeem script,
	// per BIP16. Before activation a P2SH-shaped pkScript is just another
	// ordinary script.
	ScriptBip16

	// ScriptVerifyCheckLockTimeVerify enables real OP_CHECKLOCKTIMEVERIFY
	// enforcement against the spending transaction's locktime, per BIP65.
	// With this flag unset the opcode is the OP_NOP it originally was.
	ScriptVerifyCheckLockTimeVerify

	// ScriptVerifyCheckSequenceVerify enables real
	// OP_CHECKSEQUENCEVERIFY enforcement against the spending input's
	// relative locktime, per BIP68/BIP112. With this flag unset the
	// opcode is the OP_NOP it originally was.
	ScriptVerifyCheckSequenceVerify
)

// SigHashType identifies how a transaction's signature hash is computed:
// an ALL, NONE or SINGLE base type, optionally with ANYONECANPAY, always
// combined with SIGHASH_FORKID, which BCH requires on every signature
// after the UAHF.
type SigHashType uint32

// Supported sighash flags. ForkID is mandatory on BCH; AnyOneCanPay and the
// Single/None base types compose with it the same way they do pre-fork.
const (
	SigHashAll          SigHashType = 0x01
	SigHashNone         SigHashType = 0x02
	SigHashSingle       SigHashType = 0x03
	SigHashAnyOneCanPay SigHashType = 0x80
	SigHashForkID       SigHashType = 0x40
)

// Error classes returned by Engine.Execute.
var (
	ErrScriptUnfinished  = errors.New("txscript: script did not leave exactly one true value on the stack")
	ErrStackUnderflow    = errors.New("txscript: stack underflow")
	ErrEqualVerifyFailed = errors.New("txscript: OP_EQUALVERIFY failed")
	ErrVerifyFailed      = errors.New("txscript: OP_VERIFY failed")
	ErrDisabledOpcode    = errors.New("txscript: disabled or unrecognized opcode")
	ErrReturnEncountered = errors.New("txscript: OP_RETURN encountered")
	ErrCheckSigFailed    = errors.New("txscript: signature verification failed")

	ErrCheckLockTimeVerifyFailed = errors.New("txscript: unsatisfied CHECKLOCKTIMEVERIFY")
	ErrCheckSequenceVerifyFailed = errors.New("txscript: unsatisfied CHECKSEQUENCEVERIFY")
)

// SigChecker abstracts the transaction context needed to compute a sighash
// and verify a signature against it, keeping the interpreter itself
// transaction-shape agnostic.
type SigChecker interface {
	// CheckSig verifies sig/pubKey against the sighash of the given input,
	// computed over subScript with the requested hash type.
	CheckSig(sig, pubKey, subScript []byte, hashType SigHashType) bool

	// CheckDataSig verifies sig/pubKey directly against message, with no
	// transaction-dependent hashing — the oracle-signature opcode.
	CheckDataSig(sig, pubKey, message []byte) bool

	// CheckLockTime reports whether the spending transaction's own
	// locktime, together with the current input not being final, permits
	// an OP_CHECKLOCKTIMEVERIFY requirement of at least lockTime.
	CheckLockTime(lockTime int64) bool

	// CheckSequence reports whether the current input's nSequence
	// permits an OP_CHECKSEQUENCEVERIFY requirement of at least
	// sequence, per BIP68/BIP112 relative-locktime semantics.
	CheckSequence(sequence int64) bool
}

// Engine executes a locking/unlocking script pair against a SigChecker.
type Engine struct {
	flags    ScriptFlags
	sigCache *SigCache
	checker  SigChecker
}

// NewEngine constructs an Engine bound to checker, with sigCache consulted
// (and populated) for repeated CHECKSIG verifications.
func NewEngine(checker SigChecker, sigCache *SigCache, flags ScriptFlags) *Engine {
	return &Engine{flags: flags, sigCache: sigCache, checker: checker}
}

// Verify executes sigScript followed by pkScript (and, for P2SH, the
// embedded redeem script), reporting whether the combined script leaves
// exactly one truthy value on the stack and never explicitly failed.
func (e *Engine) Verify(sigScript, pkScript []byte) error {
	stack, err := e.run(sigScript, nil)
	if err != nil {
		return err
	}

	if e.flags&ScriptBip16 != 0 && stdScriptHashOf(pkScript) {
		if len(stack) == 0 {
			return ErrStackUnderflow
		}
		redeemScript := stack[len(stack)-1]
		remaining := append([][]byte(nil), stack[:len(stack)-1]...)
		stack, err = e.run(pkScript, stack)
		if err != nil {
			return err
		}
		if len(stack) == 0 || !asBool(stack[len(stack)-1]) {
			return ErrScriptUnfinished
		}
		stack, err = e.run(redeemScript, remaining)
		if err != nil {
			return err
		}
	} else {
		stack, err = e.run(pkScript, stack)
		if err != nil {
			return err
		}
	}

	if len(stack) != 1 || !asBool(stack[0]) {
		return ErrScriptUnfinished
	}
	return nil
}

func stdScriptHashOf(script []byte) bool {
	return len(script) == 23 && script[0] == OP_HASH160 && script[1] == OP_DATA_20 && script[22] == OP_EQUAL
}

// run executes script against the given starting stack and returns the
// resulting stack.
func (e *Engine) run(script []byte, stack [][]byte) ([][]byte, error) {
	tok := MakeScriptTokenizer(script)
	var condStack []bool

	for tok.Next() {
		op, data := tok.Opcode(), tok.Data()

		if op == OP_IF || op == OP_NOTIF || op == OP_ELSE || op == OP_ENDIF {
			var err error
			stack, condStack, err = e.handleBranch(op, stack, condStack)
			if err != nil {
				return nil, err
			}
			continue
		}
		if !branchActive(condStack) {
			continue
		}

		switch {
		case op == OP_0:
			stack = append(stack, []byte{})
		case (op >= OP_DATA_1 && op <= OP_DATA_75) || op == OP_PUSHDATA1 || op == OP_PUSHDATA2 || op == OP_PUSHDATA4:
			stack = append(stack, data)
		case op == OP_1NEGATE:
			stack = append(stack, []byte{0x81})
		case IsSmallInt(op):
			stack = append(stack, scriptNum(AsSmallInt(op)))

		case op == OP_NOP:
			// no-op

		case op == OP_VERIFY:
			v, s, err := pop(stack)
			if err != nil {
				return nil, err
			}
			stack = s
			if !asBool(v) {
				return nil, ErrVerifyFailed
			}

		case op == OP_RETURN:
			return nil, ErrReturnEncountered

		case op == OP_DUP:
			v, err := top(stack)
			if err != nil {
				return nil, err
			}
			stack = append(stack, v)

		case op == OP_EQUAL, op == OP_EQUALVERIFY:
			b, s, err := pop(stack)
			if err != nil {
				return nil, err
			}
			a, s, err := pop(s)
			if err != nil {
				return nil, err
			}
			eq := bytes.Equal(a, b)
			if op == OP_EQUALVERIFY {
				if !eq {
					return nil, ErrEqualVerifyFailed
				}
				stack = s
			} else {
				stack = append(s, boolBytes(eq))
			}

		case op == OP_HASH160:
			v, s, err := pop(stack)
			if err != nil {
				return nil, err
			}
			stack = append(s, hash160(v))

		case op == OP_HASH256:
			v, s, err := pop(stack)
			if err != nil {
				return nil, err
			}
			stack = append(s, chainhash.HashB(v))

		case op == OP_CHECKSIG, op == OP_CHECKSIGVERIFY:
			pubKey, s, err := pop(stack)
			if err != nil {
				return nil, err
			}
			sig, s, err := pop(s)
			if err != nil {
				return nil, err
			}
			ok := e.checkSig(sig, pubKey, script)
			if op == OP_CHECKSIGVERIFY {
				if !ok {
					return nil, ErrCheckSigFailed
				}
				stack = s
			} else {
				stack = append(s, boolBytes(ok))
			}

		case op == OP_CHECKDATASIG, op == OP_CHECKDATASIGVERIFY:
			if e.flags&ScriptVerifyCheckDataSig == 0 {
				return nil, ErrDisabledOpcode
			}
			pubKey, s, err := pop(stack)
			if err != nil {
				return nil, err
			}
			message, s, err := pop(s)
			if err != nil {
				return nil, err
			}
			sig, s, err := pop(s)
			if err != nil {
				return nil, err
			}
			ok := e.checker.CheckDataSig(sig, pubKey, message)
			if op == OP_CHECKDATASIGVERIFY {
				if !ok {
					return nil, ErrCheckSigFailed
				}
				stack = s
			} else {
				stack = append(s, boolBytes(ok))
			}

		case op == OP_CHECKMULTISIG, op == OP_CHECKMULTISIGVERIFY:
			var err error
			stack, err = e.checkMultiSig(stack, script, op == OP_CHECKMULTISIGVERIFY)
			if err != nil {
				return nil, err
			}

		case op == OP_CHECKLOCKTIMEVERIFY:
			if e.flags&ScriptVerifyCheckLockTimeVerify == 0 {
				// Pre-activation this opcode was plain OP_NOP2.
				break
			}
			v, err := top(stack)
			if err != nil {
				return nil, err
			}
			n := scriptNumToInt(v)
			if n < 0 || !e.checker.CheckLockTime(int64(n)) {
				return nil, ErrCheckLockTimeVerifyFailed
			}

		case op == OP_CHECKSEQUENCEVERIFY:
			if e.flags&ScriptVerifyCheckSequenceVerify == 0 {
				// Pre-activation this opcode was plain OP_NOP3.
				break
			}
			v, err := top(stack)
			if err != nil {
				return nil, err
			}
			n := scriptNumToInt(v)
			if n < 0 || !e.checker.CheckSequence(int64(n)) {
				return nil, ErrCheckSequenceVerifyFailed
			}

		default:
			return nil, ErrDisabledOpcode
		}
	}
	if tok.Err() != nil {
		return nil, tok.Err()
	}
	if len(condStack) != 0 {
		return nil, errors.New("txscript: unbalanced conditional")
	}
	return stack, nil
}

// branchActive reports whether every enclosing conditional branch is
// currently taken, i.e. whether opcodes should actually execute rather than
// merely be skipped over while searching for the matching OP_ELSE/OP_ENDIF.
func branchActive(condStack []bool) bool {
	for _, taken := range condStack {
		if !taken {
			return false
		}
	}
	return true
}

// handleBranch processes one of the four control-flow opcodes, pushing,
// flipping, or popping a level of condStack as appropriate. The condition
// value is only popped from the data stack when the branch it belongs to is
// actually reachable; a skipped OP_IF pushes a placeholder false instead,
// matching the AND semantics branchActive relies on.
func (e *Engine) handleBranch(op byte, stack [][]byte, condStack []bool) ([][]byte, []bool, error) {
	switch op {
	case OP_IF, OP_NOTIF:
		taken := false
		if branchActive(condStack) {
			v, s, err := pop(stack)
			if err != nil {
				return nil, nil, err
			}
			stack = s
			taken = asBool(v)
			if op == OP_NOTIF {
				taken = !taken
			}
		}
		return stack, append(condStack, taken), nil

	case OP_ELSE:
		if len(condStack) == 0 {
			return nil, nil, errors.New("txscript: OP_ELSE without matching OP_IF")
		}
		condStack[len(condStack)-1] = !condStack[len(condStack)-1]
		return stack, condStack, nil

	case OP_ENDIF:
		if len(condStack) == 0 {
			return nil, nil, errors.New("txscript: OP_ENDIF without matching OP_IF")
		}
		return stack, condStack[:len(condStack)-1], nil
	}
	return stack, condStack, nil
}

func (e *Engine) checkSig(sig, pubKey, subScript []byte) bool {
	if len(sig) == 0 {
		return false
	}
	if e.flags&ScriptVerifyStrictEncoding != 0 && !IsStrictPubKeyEncoding(pubKey) {
		return false
	}
	hashType := SigHashType(sig[len(sig)-1])
	rawSig := sig[:len(sig)-1]

	cacheKey := chainhash.HashH(append(append(append([]byte{}, rawSig...), pubKey...), subScript...))
	if e.sigCache != nil {
		parsedSig, errSig := ecdsa.ParseDERSignature(rawSig)
		parsedKey, errKey := secp256k1.ParsePubKey(pubKey)
		if errSig == nil && errKey == nil && e.sigCache.Exists(cacheKey, parsedSig, parsedKey) {
			return true
		}
	}

	ok := e.checker.CheckSig(rawSig, pubKey, subScript, hashType)
	if ok && e.sigCache != nil {
		if parsedSig, err := ecdsa.ParseDERSignature(rawSig); err == nil {
			if parsedKey, err := secp256k1.ParsePubKey(pubKey); err == nil {
				e.sigCache.Add(cacheKey, parsedSig, parsedKey, &wire.MsgTx{})
			}
		}
	}
	return ok
}

func (e *Engine) checkMultiSig(stack [][]byte, script []byte, verify bool) ([][]byte, error) {
	pubKeyCountBytes, s, err := pop(stack)
	if err != nil {
		return nil, err
	}
	pubKeyCount := scriptNumToInt(pubKeyCountBytes)
	if pubKeyCount < 0 || pubKeyCount > MaxPubKeysPerMultiSig {
		return nil, ErrDisabledOpcode
	}

	pubKeys := make([][]byte, pubKeyCount)
	for i := pubKeyCount - 1; i >= 0; i-- {
		var pk []byte
		pk, s, err = pop(s)
		if err != nil {
			return nil, err
		}
		pubKeys[i] = pk
	}

	sigCountBytes, s2, err := pop(s)
	if err != nil {
		return nil, err
	}
	sigCount := scriptNumToInt(sigCountBytes)
	if sigCount < 0 || sigCount > pubKeyCount {
		return nil, ErrDisabledOpcode
	}

	sigs := make([][]byte, sigCount)
	for i := sigCount - 1; i >= 0; i-- {
		var sig []byte
		sig, s2, err = pop(s2)
		if err != nil {
			return nil, err
		}
		sigs[i] = sig
	}

	// Historical off-by-one: an extra item is popped and ignored.
	_, s2, err = pop(s2)
	if err != nil {
		return nil, err
	}

	matched := 0
	pkIdx := 0
	for _, sig := range sigs {
		found := false
		for pkIdx < len(pubKeys) {
			pk := pubKeys[pkIdx]
			pkIdx++
			if e.checkSig(sig, pk, script) {
				found = true
				break
			}
		}
		if found {
			matched++
		}
	}

	ok := matched == sigCount
	if verify {
		if !ok {
			return nil, ErrCheckSigFailed
		}
		return s2, nil
	}
	return append(s2, boolBytes(ok)), nil
}

func pop(stack [][]byte) ([]byte, [][]byte, error) {
	if len(stack) == 0 {
		return nil, nil, ErrStackUnderflow
	}
	return stack[len(stack)-1], stack[:len(stack)-1], nil
}

func top(stack [][]byte) ([]byte, error) {
	if len(stack) == 0 {
		return nil, ErrStackUnderflow
	}
	return stack[len(stack)-1], nil
}

func asBool(v []byte) bool {
	for i, b := range v {
		if b != 0 {
			// Negative zero (a 0x80 top bit on the final byte) is still
			// falsy, matching the original Script interpreter's rule.
			if i == len(v)-1 && b == 0x80 {
				return false
			}
			return true
		}
	}
	return false
}

func boolBytes(b bool) []byte {
	if b {
		return []byte{1}
	}
	return []byte{}
}

func scriptNum(n int) []byte {
	if n == 0 {
		return []byte{}
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b []byte
	for n > 0 {
		b = append(b, byte(n&0xff))
		n >>= 8
	}
	if b[len(b)-1]&0x80 != 0 {
		if neg {
			b = append(b, 0x80)
		} else {
			b = append(b, 0)
		}
	} else if neg {
		b[len(b)-1] |= 0x80
	}
	return b
}

func scriptNumToInt(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	neg := b[len(b)-1]&0x80 != 0
	v := 0
	for i := len(b) - 1; i >= 0; i-- {
		bb := b[i]
		if i == len(b)-1 {
			bb &= 0x7f
		}
		v = v<<8 | int(bb)
	}
	if neg {
		v = -v
	}
	return v
}

func hash160(b []byte) []byte {
	sum := sha256.Sum256(b)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}
