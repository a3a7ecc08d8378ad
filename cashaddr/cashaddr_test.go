// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cashaddr

import (
	"bytes"
	"testing"
)

func sampleHash160() []byte {
	h := make([]byte, 20)
	for i := range h {
		h[i] = byte(i + 1)
	}
	return h
}

func TestEncodeDecodeRoundTripP2PKH(t *testing.T) {
	hash := sampleHash160()
	addr, err := EncodeAddress(PrefixMainNet, TypePubKeyHash, hash)
	if err != nil {
		t.Fatalf("EncodeAddress: unexpected error: %v", err)
	}

	content, err := Decode(addr, PrefixMainNet)
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if content.Type != TypePubKeyHash {
		t.Fatalf("type = %v, want %v", content.Type, TypePubKeyHash)
	}
	if !bytes.Equal(content.Hash, hash) {
		t.Fatalf("hash = %x, want %x", content.Hash, hash)
	}
}

func TestEncodeDecodeRoundTripP2SH(t *testing.T) {
	hash := sampleHash160()
	addr, err := EncodeAddress(PrefixTestNet, TypeScriptHash, hash)
	if err != nil {
		t.Fatalf("EncodeAddress: unexpected error: %v", err)
	}

	content, err := Decode(addr, PrefixTestNet)
	if err != nil {
		t.Fatalf("Decode: unexpected error: %v", err)
	}
	if content.Type != TypeScriptHash {
		t.Fatalf("type = %v, want %v", content.Type, TypeScriptHash)
	}
	if !bytes.Equal(content.Hash, hash) {
		t.Fatalf("hash = %x, want %x", content.Hash, hash)
	}
}

func TestDecodeAddressTriesKnownPrefixes(t *testing.T) {
	hash := sampleHash160()
	addr, err := EncodeAddress(PrefixRegNet, TypePubKeyHash, hash)
	if err != nil {
		t.Fatalf("EncodeAddress: unexpected error: %v", err)
	}
	// Strip the explicit prefix so DecodeAddress must recover it by trying
	// each known network in turn.
	bare := addr[len(PrefixRegNet)+1:]

	prefix, content, err := DecodeAddress(bare)
	if err != nil {
		t.Fatalf("DecodeAddress: unexpected error: %v", err)
	}
	if prefix != PrefixRegNet {
		t.Fatalf("prefix = %q, want %q", prefix, PrefixRegNet)
	}
	if !bytes.Equal(content.Hash, hash) {
		t.Fatalf("hash = %x, want %x", content.Hash, hash)
	}
}

func TestDecodeRejectsWrongPrefix(t *testing.T) {
	addr, err := EncodeAddress(PrefixMainNet, TypePubKeyHash, sampleHash160())
	if err != nil {
		t.Fatalf("EncodeAddress: unexpected error: %v", err)
	}
	if _, err := Decode(addr, PrefixTestNet); err == nil {
		t.Fatalf("expected prefix mismatch error")
	}
}

func TestPackAddrDataRejectsInvalidHashLength(t *testing.T) {
	if _, err := PackAddrData(make([]byte, 17), TypePubKeyHash); err == nil {
		t.Fatalf("expected error for an unsupported hash length")
	}
}

func TestLockingScriptP2PKH(t *testing.T) {
	hash := sampleHash160()
	script, err := LockingScript(Content{Type: TypePubKeyHash, Hash: hash})
	if err != nil {
		t.Fatalf("LockingScript: unexpected error: %v", err)
	}
	want := append(append([]byte{0x76, 0xa9, 20}, hash...), 0x88, 0xac)
	if !bytes.Equal(script, want) {
		t.Fatalf("script = %x, want %x", script, want)
	}
}

func TestLockingScriptP2SH(t *testing.T) {
	hash := sampleHash160()
	script, err := LockingScript(Content{Type: TypeScriptHash, Hash: hash})
	if err != nil {
		t.Fatalf("LockingScript: unexpected error: %v", err)
	}
	want := append(append([]byte{0xa9, 20}, hash...), 0x87)
	if !bytes.Equal(script, want) {
		t.Fatalf("script = %x, want %x", script, want)
	}
}

func TestHash160Length(t *testing.T) {
	h := Hash160([]byte("test input"))
	if len(h) != 20 {
		t.Fatalf("Hash160 length = %d, want 20", len(h))
	}
}
