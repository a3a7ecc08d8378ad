// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// fakeChecker signs and verifies against a fixed message, standing in for
// the real transaction sighash computation so the interpreter can be
// exercised without a full MsgTx.
type fakeChecker struct {
	message    []byte
	lockTimeOK bool
}

func (f *fakeChecker) CheckLockTime(lockTime int64) bool { return f.lockTimeOK }
func (f *fakeChecker) CheckSequence(sequence int64) bool { return f.lockTimeOK }

func (f *fakeChecker) CheckSig(sig, pubKey, subScript []byte, hashType SigHashType) bool {
	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	parsedKey, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	hash := sha256.Sum256(f.message)
	return parsedSig.Verify(hash[:], parsedKey)
}

func (f *fakeChecker) CheckDataSig(sig, pubKey, message []byte) bool {
	parsedSig, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	parsedKey, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return false
	}
	hash := sha256.Sum256(message)
	return parsedSig.Verify(hash[:], parsedKey)
}

func signMessage(t *testing.T, priv *secp256k1.PrivateKey, message []byte) []byte {
	t.Helper()
	hash := sha256.Sum256(message)
	sig := ecdsa.Sign(priv, hash[:])
	return append(sig.Serialize(), byte(SigHashAll|SigHashForkID))
}

func TestEngineVerifyP2PKH(t *testing.T) {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))
	pubKey := priv.PubKey().SerializeCompressed()

	message := []byte("p2pkh sighash preimage")
	sig := signMessage(t, priv, message)

	pkHash := hash160(pubKey)
	pkScript := append([]byte{OP_DUP, OP_HASH160, OP_DATA_20}, pkHash...)
	pkScript = append(pkScript, OP_EQUALVERIFY, OP_CHECKSIG)

	sigScript := append([]byte{byte(len(sig))}, sig...)
	sigScript = append(sigScript, byte(len(pubKey)))
	sigScript = append(sigScript, pubKey...)

	engine := NewEngine(&fakeChecker{message: message}, nil, ScriptVerifyStrictEncoding)
	if err := engine.Verify(sigScript, pkScript); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
}

func TestEngineVerifyP2PKHWrongSignatureFails(t *testing.T) {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x07}, 32))
	other := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x09}, 32))
	pubKey := priv.PubKey().SerializeCompressed()

	message := []byte("p2pkh sighash preimage")
	sig := signMessage(t, other, message)

	pkHash := hash160(pubKey)
	pkScript := append([]byte{OP_DUP, OP_HASH160, OP_DATA_20}, pkHash...)
	pkScript = append(pkScript, OP_EQUALVERIFY, OP_CHECKSIG)

	sigScript := append([]byte{byte(len(sig))}, sig...)
	sigScript = append(sigScript, byte(len(pubKey)))
	sigScript = append(sigScript, pubKey...)

	engine := NewEngine(&fakeChecker{message: message}, nil, 0)
	if err := engine.Verify(sigScript, pkScript); err == nil {
		t.Fatalf("Verify() = nil, want an error for a mismatched signature")
	}
}

func TestEngineVerifyMultiSig(t *testing.T) {
	priv1 := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x01}, 32))
	priv2 := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x02}, 32))
	pub1 := priv1.PubKey().SerializeCompressed()
	pub2 := priv2.PubKey().SerializeCompressed()

	message := []byte("multisig sighash preimage")
	sig1 := signMessage(t, priv1, message)

	redeemScript := []byte{OP_1, byte(len(pub1))}
	redeemScript = append(redeemScript, pub1...)
	redeemScript = append(redeemScript, byte(len(pub2)))
	redeemScript = append(redeemScript, pub2...)
	redeemScript = append(redeemScript, OP_1+1, OP_CHECKMULTISIG)

	sigScript := []byte{OP_0, byte(len(sig1))}
	sigScript = append(sigScript, sig1...)

	engine := NewEngine(&fakeChecker{message: message}, nil, 0)
	stack, err := engine.run(sigScript, nil)
	if err != nil {
		t.Fatalf("run(sigScript) = %v", err)
	}
	stack, err = engine.run(redeemScript, stack)
	if err != nil {
		t.Fatalf("run(redeemScript) = %v", err)
	}
	if len(stack) != 1 || !asBool(stack[0]) {
		t.Fatalf("expected exactly one truthy value left on the stack, got %v", stack)
	}
}

func TestEngineVerifyP2SH(t *testing.T) {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x03}, 32))
	pubKey := priv.PubKey().SerializeCompressed()

	message := []byte("p2sh sighash preimage")
	sig := signMessage(t, priv, message)

	redeemScript := append([]byte{OP_DATA_33}, pubKey...)
	redeemScript = append(redeemScript, OP_CHECKSIG)
	redeemHash := hash160(redeemScript)

	pkScript := append([]byte{OP_HASH160, OP_DATA_20}, redeemHash...)
	pkScript = append(pkScript, OP_EQUAL)

	sigScript := append([]byte{byte(len(sig))}, sig...)
	sigScript = append(sigScript, byte(len(redeemScript)))
	sigScript = append(sigScript, redeemScript...)

	engine := NewEngine(&fakeChecker{message: message}, nil, ScriptBip16)
	if err := engine.Verify(sigScript, pkScript); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
}

func TestEngineVerifyP2SHNotActiveRunsAsOrdinaryScript(t *testing.T) {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x03}, 32))
	pubKey := priv.PubKey().SerializeCompressed()

	message := []byte("p2sh sighash preimage")
	sig := signMessage(t, priv, message)

	redeemScript := append([]byte{OP_DATA_33}, pubKey...)
	redeemScript = append(redeemScript, OP_CHECKSIG)
	redeemHash := hash160(redeemScript)

	pkScript := append([]byte{OP_HASH160, OP_DATA_20}, redeemHash...)
	pkScript = append(pkScript, OP_EQUAL)

	sigScript := append([]byte{byte(len(sig))}, sig...)
	sigScript = append(sigScript, byte(len(redeemScript)))
	sigScript = append(sigScript, redeemScript...)

	engine := NewEngine(&fakeChecker{message: message}, nil, 0)
	if err := engine.Verify(sigScript, pkScript); err != nil {
		t.Fatalf("Verify() = %v, want nil (ordinary HASH160/EQUAL script)", err)
	}
}

func TestEngineVerifyCheckLockTimeVerify(t *testing.T) {
	script := []byte{OP_DATA_1, 100, OP_CHECKLOCKTIMEVERIFY}

	engine := NewEngine(&fakeChecker{lockTimeOK: true}, nil, ScriptVerifyCheckLockTimeVerify)
	if _, err := engine.run(script, nil); err != nil {
		t.Fatalf("run() = %v, want nil when the checker reports the locktime satisfied", err)
	}

	engine = NewEngine(&fakeChecker{lockTimeOK: false}, nil, ScriptVerifyCheckLockTimeVerify)
	if _, err := engine.run(script, nil); err != ErrCheckLockTimeVerifyFailed {
		t.Fatalf("run() = %v, want ErrCheckLockTimeVerifyFailed", err)
	}

	engine = NewEngine(&fakeChecker{lockTimeOK: false}, nil, 0)
	if _, err := engine.run(script, nil); err != nil {
		t.Fatalf("run() = %v, want nil when the flag is unset (plain OP_NOP2)", err)
	}
}

func TestEngineVerifyCheckDataSig(t *testing.T) {
	priv := secp256k1.PrivKeyFromBytes(bytes.Repeat([]byte{0x05}, 32))
	pubKey := priv.PubKey().SerializeCompressed()

	oracleMessage := []byte("oracle data")
	hash := sha256.Sum256(oracleMessage)
	sig := ecdsa.Sign(priv, hash[:]).Serialize()

	script := []byte{byte(len(sig))}
	script = append(script, sig...)
	script = append(script, byte(len(oracleMessage)))
	script = append(script, oracleMessage...)
	script = append(script, byte(len(pubKey)))
	script = append(script, pubKey...)
	script = append(script, OP_CHECKDATASIG)

	engine := NewEngine(&fakeChecker{}, nil, ScriptVerifyCheckDataSig)
	stack, err := engine.run(script, nil)
	if err != nil {
		t.Fatalf("run() = %v", err)
	}
	if len(stack) != 1 || !asBool(stack[0]) {
		t.Fatalf("expected a truthy result, got %v", stack)
	}
}

func TestAsBoolNegativeZeroIsFalse(t *testing.T) {
	if asBool([]byte{0x80}) {
		t.Fatalf("negative zero should be falsy")
	}
	if !asBool([]byte{0x01}) {
		t.Fatalf("0x01 should be truthy")
	}
}

func TestEngineBranching(t *testing.T) {
	engine := NewEngine(&fakeChecker{}, nil, 0)

	taken := []byte{OP_1, OP_IF, OP_1, OP_ELSE, OP_0, OP_ENDIF}
	stack, err := engine.run(taken, nil)
	if err != nil {
		t.Fatalf("run(taken branch) = %v", err)
	}
	if len(stack) != 1 || !asBool(stack[0]) {
		t.Fatalf("expected the if-branch result to be truthy, got %v", stack)
	}

	notTaken := []byte{OP_0, OP_IF, OP_1, OP_ELSE, OP_0, OP_ENDIF}
	stack, err = engine.run(notTaken, nil)
	if err != nil {
		t.Fatalf("run(not-taken branch) = %v", err)
	}
	if len(stack) != 1 || asBool(stack[0]) {
		t.Fatalf("expected the else-branch result to be falsy, got %v", stack)
	}
}

func TestEngineUnbalancedConditionalFails(t *testing.T) {
	engine := NewEngine(&fakeChecker{}, nil, 0)
	if _, err := engine.run([]byte{OP_1, OP_IF, OP_1}, nil); err == nil {
		t.Fatalf("expected an error for a dangling OP_IF")
	}
}

func TestScriptNumRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 16, 127, 128, 255, 256, -1, -128, -129} {
		got := scriptNumToInt(scriptNum(n))
		if got != n {
			t.Fatalf("scriptNumToInt(scriptNum(%d)) = %d", n, got)
		}
	}
}
