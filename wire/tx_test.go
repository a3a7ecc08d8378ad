// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"testing"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
)

func sampleTx() *MsgTx {
	return &MsgTx{
		Version: 2,
		TxIn: []*TxIn{
			{
				PreviousOutPoint: OutPoint{Hash: chainhash.Hash{1, 2, 3}, Index: 0},
				SignatureScript:  []byte{0x51, 0x52},
				Sequence:         0xffffffff,
			},
		},
		TxOut: []*TxOut{
			{Value: 5000000000, PkScript: []byte{0x76, 0xa9, 0x14}},
		},
		LockTime: 0,
	}
}

func TestTxSerializeDeserializeRoundTrip(t *testing.T) {
	tx := sampleTx()

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: unexpected error: %v", err)
	}
	if buf.Len() != tx.SerializeSize() {
		t.Fatalf("SerializeSize mismatch: got %d, want %d", tx.SerializeSize(), buf.Len())
	}

	got, err := DeserializeTx(&buf)
	if err != nil {
		t.Fatalf("DeserializeTx: unexpected error: %v", err)
	}
	if got.Version != tx.Version || got.LockTime != tx.LockTime {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, tx)
	}
	if len(got.TxIn) != 1 || len(got.TxOut) != 1 {
		t.Fatalf("round trip length mismatch: %+v", got)
	}
	if got.TxIn[0].PreviousOutPoint != tx.TxIn[0].PreviousOutPoint {
		t.Fatalf("outpoint mismatch: got %+v, want %+v", got.TxIn[0].PreviousOutPoint, tx.TxIn[0].PreviousOutPoint)
	}
}

func TestTxIsCoinBase(t *testing.T) {
	cb := &MsgTx{
		TxIn: []*TxIn{
			{PreviousOutPoint: OutPoint{Index: 0xffffffff}},
		},
	}
	if !cb.IsCoinBase() {
		t.Fatalf("expected coinbase")
	}

	notCb := sampleTx()
	if notCb.IsCoinBase() {
		t.Fatalf("expected non-coinbase")
	}
}

func TestTxHashDeterministic(t *testing.T) {
	tx := sampleTx()
	h1 := tx.TxHash()
	h2 := tx.TxHash()
	if h1 != h2 {
		t.Fatalf("TxHash not deterministic")
	}
}

func TestDeserializeTxRejectsExcessiveInputCount(t *testing.T) {
	var buf bytes.Buffer
	_ = writeInt32LE(&buf, 1)
	_ = WriteVarInt(&buf, MaxTxInPerMessage+1)

	if _, err := DeserializeTx(&buf); err == nil {
		t.Fatalf("expected error for excessive input count")
	}
}
