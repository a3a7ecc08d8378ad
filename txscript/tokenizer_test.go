// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"bytes"
	"testing"
)

func TestTokenizerDirectPush(t *testing.T) {
	script := []byte{OP_DATA_1, 0x42, OP_CHECKSIG}
	tok := MakeScriptTokenizer(script)

	if !tok.Next() || tok.Opcode() != OP_DATA_1 || !bytes.Equal(tok.Data(), []byte{0x42}) {
		t.Fatalf("expected first token to be a 1-byte push of 0x42")
	}
	if !tok.Next() || tok.Opcode() != OP_CHECKSIG || tok.Data() != nil {
		t.Fatalf("expected second token to be OP_CHECKSIG with no data")
	}
	if tok.Next() {
		t.Fatalf("expected no more tokens")
	}
	if !tok.Done() || tok.Err() != nil {
		t.Fatalf("expected tokenizer to finish cleanly")
	}
}

func TestTokenizerPushData1(t *testing.T) {
	data := bytes.Repeat([]byte{0xaa}, 80)
	script := append([]byte{OP_PUSHDATA1, byte(len(data))}, data...)

	tok := MakeScriptTokenizer(script)
	if !tok.Next() {
		t.Fatalf("Next: unexpected failure, err=%v", tok.Err())
	}
	if !bytes.Equal(tok.Data(), data) {
		t.Fatalf("pushdata1 data mismatch")
	}
	if !tok.Done() {
		t.Fatalf("expected tokenizer to be done")
	}
}

func TestTokenizerTruncatedPushErrors(t *testing.T) {
	script := []byte{OP_DATA_1 + 1, 0x01} // claims 2 bytes, only 1 present
	tok := MakeScriptTokenizer(script)
	if tok.Next() {
		t.Fatalf("expected Next to fail on a truncated push")
	}
	if tok.Err() == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestExtractScriptHash(t *testing.T) {
	hash := bytes.Repeat([]byte{0x11}, 20)
	script := append(append([]byte{OP_HASH160, OP_DATA_20}, hash...), OP_EQUAL)

	got := ExtractScriptHash(script)
	if !bytes.Equal(got, hash) {
		t.Fatalf("ExtractScriptHash = %x, want %x", got, hash)
	}
}

func TestExtractScriptHashRejectsWrongShape(t *testing.T) {
	if ExtractScriptHash([]byte{OP_HASH160, OP_EQUAL}) != nil {
		t.Fatalf("expected nil for a malformed p2sh script")
	}
}
