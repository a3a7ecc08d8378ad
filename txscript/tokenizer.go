// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import "fmt"

// ScriptTokenizer walks a raw script one opcode (and, for pushes, its data)
// at a time, without allocating for each step. It is the building block
// both the standard-script pattern matchers and the interpreter use to walk
// a script's instruction stream.
type ScriptTokenizer struct {
	script    []byte
	offset    int32
	op        byte
	data      []byte
	err       error
}

// MakeScriptTokenizer returns a tokenizer ready to walk script from the
// start.
func MakeScriptTokenizer(script []byte) ScriptTokenizer {
	return ScriptTokenizer{script: script}
}

// Next advances the tokenizer to the next opcode, returning false once the
// script is exhausted or malformed (check Err to tell the two apart).
func (t *ScriptTokenizer) Next() bool {
	if t.err != nil || int(t.offset) >= len(t.script) {
		return false
	}

	op := t.script[t.offset]
	switch {
	case op == OP_0 || (op > OP_DATA_75 && op < OP_PUSHDATA1) || op > OP_16:
		// Not a length-prefixed push: either OP_0, a single-byte opcode
		// with no associated data, or a small-int/control opcode.
		t.op, t.data = op, nil
		t.offset++
		return true

	case op >= OP_DATA_1 && op <= OP_DATA_75:
		length := int32(op)
		if t.offset+1+length > int32(len(t.script)) {
			t.err = fmt.Errorf("txscript: opcode %#x pushes past end of script", op)
			return false
		}
		t.op = op
		t.data = t.script[t.offset+1 : t.offset+1+length]
		t.offset += 1 + length
		return true

	case op == OP_PUSHDATA1, op == OP_PUSHDATA2, op == OP_PUSHDATA4:
		return t.nextPushDataN(op)
	}

	t.op, t.data = op, nil
	t.offset++
	return true
}

func (t *ScriptTokenizer) nextPushDataN(op byte) bool {
	var lenBytes int32
	switch op {
	case OP_PUSHDATA1:
		lenBytes = 1
	case OP_PUSHDATA2:
		lenBytes = 2
	case OP_PUSHDATA4:
		lenBytes = 4
	}

	if t.offset+1+lenBytes > int32(len(t.script)) {
		t.err = fmt.Errorf("txscript: opcode %#x length prefix runs past end of script", op)
		return false
	}

	var length int32
	lenField := t.script[t.offset+1 : t.offset+1+lenBytes]
	for i := lenBytes - 1; i >= 0; i-- {
		length = (length << 8) | int32(lenField[i])
	}

	start := t.offset + 1 + lenBytes
	if start+length > int32(len(t.script)) {
		t.err = fmt.Errorf("txscript: opcode %#x pushes past end of script", op)
		return false
	}

	t.op = op
	t.data = t.script[start : start+length]
	t.offset = start + length
	return true
}

// Opcode returns the most recently parsed opcode.
func (t *ScriptTokenizer) Opcode() byte { return t.op }

// Data returns the data pushed by the most recently parsed opcode, if any.
func (t *ScriptTokenizer) Data() []byte { return t.data }

// Done reports whether the tokenizer has consumed the entire script without
// error.
func (t *ScriptTokenizer) Done() bool { return t.err == nil && int(t.offset) >= len(t.script) }

// Err returns the first parse error encountered, if any.
func (t *ScriptTokenizer) Err() error { return t.err }

// ByteIndex returns the tokenizer's current offset into the script.
func (t *ScriptTokenizer) ByteIndex() int32 { return t.offset }

// Script returns the full script the tokenizer is walking.
func (t *ScriptTokenizer) Script() []byte { return t.script }

// ExtractScriptHash extracts the script hash from script if it is a
// standard pay-to-script-hash script (OP_HASH160 <20-byte hash> OP_EQUAL).
// It returns nil otherwise.
func ExtractScriptHash(script []byte) []byte {
	if len(script) == 23 &&
		script[0] == OP_HASH160 &&
		script[1] == OP_DATA_20 &&
		script[22] == OP_EQUAL {

		return script[2:22]
	}
	return nil
}

// OP_DATA_20 names the push opcode for a 20-byte hash, the size every
// standard hash160-keyed template uses.
const OP_DATA_20 = 0x14

// MaxPubKeysPerMultiSig bounds the number of public keys a standard bare
// multisig script may reference; it is capped by what a small-int push (up
// to OP_16) can express.
const MaxPubKeysPerMultiSig = 16
