// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"
)

func TestBlockHeaderSerializeDeserializeRoundTrip(t *testing.T) {
	h := BlockHeader{Version: 536870912, Timestamp: 1600000000, Bits: 0x1d00ffff, Nonce: 12345}

	var buf bytes.Buffer
	if err := h.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: unexpected error: %v", err)
	}
	if buf.Len() != BlockHeaderLen {
		t.Fatalf("serialized header length = %d, want %d", buf.Len(), BlockHeaderLen)
	}

	got, err := DeserializeHeader(&buf)
	if err != nil {
		t.Fatalf("DeserializeHeader: unexpected error: %v", err)
	}
	if got != h {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestBlockSerializeDeserializeRoundTrip(t *testing.T) {
	block := sampleBlock()

	var buf bytes.Buffer
	if err := block.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: unexpected error: %v", err)
	}
	if buf.Len() != block.SerializeSize() {
		t.Fatalf("SerializeSize mismatch: got %d, want %d", block.SerializeSize(), buf.Len())
	}

	got, err := DeserializeBlock(&buf)
	if err != nil {
		t.Fatalf("DeserializeBlock: unexpected error: %v", err)
	}
	if len(got.Transactions) != len(block.Transactions) {
		t.Fatalf("transaction count mismatch: got %d, want %d", len(got.Transactions), len(block.Transactions))
	}
	if got.BlockHash() != block.BlockHash() {
		t.Fatalf("block hash mismatch after round trip")
	}
	if !got.HasBody() {
		t.Fatalf("expected HasBody true for a block with transactions")
	}
}

func TestBlockHasBodyFalseForHeaderOnly(t *testing.T) {
	block := &MsgBlock{Header: BlockHeader{Version: 1}}
	if block.HasBody() {
		t.Fatalf("expected HasBody false for a header-only block")
	}
}
