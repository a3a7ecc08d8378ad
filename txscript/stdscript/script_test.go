// Copyright (c) 2021 The Decred developers
// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package stdscript

import (
	"bytes"
	"testing"

	"github.com/bchcore/bchnode/txscript"
)

func p2pkhScript(hash []byte) []byte {
	s := []byte{txscript.OP_DUP, txscript.OP_HASH160, txscript.OP_DATA_20}
	s = append(s, hash...)
	s = append(s, txscript.OP_EQUALVERIFY, txscript.OP_CHECKSIG)
	return s
}

func p2shScript(hash []byte) []byte {
	s := []byte{txscript.OP_HASH160, txscript.OP_DATA_20}
	s = append(s, hash...)
	s = append(s, txscript.OP_EQUAL)
	return s
}

func TestDetermineScriptTypePubKeyHash(t *testing.T) {
	hash := bytes.Repeat([]byte{0x01}, 20)
	script := p2pkhScript(hash)

	if got := DetermineScriptType(script); got != STPubKeyHashEcdsaSecp256k1 {
		t.Fatalf("DetermineScriptType = %v, want %v", got, STPubKeyHashEcdsaSecp256k1)
	}
	if got := ExtractPubKeyHash(script); !bytes.Equal(got, hash) {
		t.Fatalf("ExtractPubKeyHash = %x, want %x", got, hash)
	}
	if DetermineRequiredSigs(script) != 1 {
		t.Fatalf("expected one required signature for p2pkh")
	}
}

func TestDetermineScriptTypeScriptHash(t *testing.T) {
	hash := bytes.Repeat([]byte{0x02}, 20)
	script := p2shScript(hash)

	if got := DetermineScriptType(script); got != STScriptHash {
		t.Fatalf("DetermineScriptType = %v, want %v", got, STScriptHash)
	}
	if got := ExtractScriptHash(script); !bytes.Equal(got, hash) {
		t.Fatalf("ExtractScriptHash = %x, want %x", got, hash)
	}
}

func TestDetermineScriptTypeNullData(t *testing.T) {
	script := []byte{txscript.OP_RETURN, txscript.OP_DATA_1, 0xff}
	if got := DetermineScriptType(script); got != STNullData {
		t.Fatalf("DetermineScriptType = %v, want %v", got, STNullData)
	}
	if !IsNullDataScript([]byte{txscript.OP_RETURN}) {
		t.Fatalf("expected a bare OP_RETURN to be a valid null data script")
	}
}

func TestDetermineScriptTypeNonStandard(t *testing.T) {
	script := []byte{0xff, 0xfe, 0xfd}
	if got := DetermineScriptType(script); got != STNonStandard {
		t.Fatalf("DetermineScriptType = %v, want %v", got, STNonStandard)
	}
}

func TestExtractMultiSigScriptDetails(t *testing.T) {
	pk1 := append([]byte{0x02}, bytes.Repeat([]byte{0x01}, 32)...)
	pk2 := append([]byte{0x03}, bytes.Repeat([]byte{0x02}, 32)...)

	script := []byte{txscript.OP_1, txscript.OP_DATA_33}
	script = append(script, pk1...)
	script = append(script, txscript.OP_DATA_33)
	script = append(script, pk2...)
	const op2 = txscript.OP_1 + 1 // OP_2: two public keys follow
	script = append(script, op2, txscript.OP_CHECKMULTISIG)

	details := ExtractMultiSigScriptDetails(script, true)
	if !details.Valid {
		t.Fatalf("expected a valid 1-of-2 multisig script")
	}
	if details.RequiredSigs != 1 || details.NumPubKeys != 2 {
		t.Fatalf("details = %+v, want RequiredSigs=1 NumPubKeys=2", details)
	}
	if len(details.PubKeys) != 2 {
		t.Fatalf("expected 2 extracted pubkeys, got %d", len(details.PubKeys))
	}
}
