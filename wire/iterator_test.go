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

func sampleBlock() *MsgBlock {
	return &MsgBlock{
		Header: BlockHeader{Version: 1, Timestamp: 1234, Bits: 0x1d00ffff, Nonce: 99},
		Transactions: []*MsgTx{
			{
				Version: 1,
				TxIn: []*TxIn{
					{PreviousOutPoint: OutPoint{Index: 0xffffffff}, SignatureScript: []byte{0x01}, Sequence: 0xffffffff},
				},
				TxOut: []*TxOut{
					{Value: 5000000000, PkScript: []byte{0x76, 0xa9}},
				},
			},
			{
				Version: 2,
				TxIn: []*TxIn{
					{PreviousOutPoint: OutPoint{Hash: chainhash.Hash{9}, Index: 1}, SignatureScript: []byte{0x02, 0x03}, Sequence: 1},
					{PreviousOutPoint: OutPoint{Hash: chainhash.Hash{8}, Index: 2}, SignatureScript: []byte{}, Sequence: 2},
				},
				TxOut: []*TxOut{
					{Value: 100, PkScript: []byte{0xaa}},
					{Value: 200, PkScript: []byte{0xbb, 0xcc}},
				},
			},
		},
	}
}

func TestBlockIteratorMatchesMaterializedBlock(t *testing.T) {
	block := sampleBlock()

	var buf bytes.Buffer
	if err := block.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: unexpected error: %v", err)
	}

	it, err := NewBlockIterator(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewBlockIterator: unexpected error: %v", err)
	}
	if it.Header().Nonce != block.Header.Nonce {
		t.Fatalf("header mismatch: got nonce %d, want %d", it.Header().Nonce, block.Header.Nonce)
	}

	var f Field
	txIdx, inIdx, outIdx := -1, 0, 0
	for it.Next(&f) {
		switch f.Tag {
		case FieldTxStart:
			txIdx = f.TxIndex
			inIdx, outIdx = 0, 0
		case FieldInputPrevHash:
			want := block.Transactions[txIdx].TxIn[inIdx].PreviousOutPoint.Hash
			if f.Hash != want {
				t.Fatalf("tx %d input %d hash mismatch: got %v, want %v", txIdx, inIdx, f.Hash, want)
			}
		case FieldInputScript:
			want := block.Transactions[txIdx].TxIn[inIdx].SignatureScript
			if !bytes.Equal(f.Script, want) {
				t.Fatalf("tx %d input %d script mismatch: got %x, want %x", txIdx, inIdx, f.Script, want)
			}
			inIdx++
		case FieldOutputValue:
			want := block.Transactions[txIdx].TxOut[outIdx].Value
			if f.Value != want {
				t.Fatalf("tx %d output %d value mismatch: got %d, want %d", txIdx, outIdx, f.Value, want)
			}
		case FieldOutputScript:
			want := block.Transactions[txIdx].TxOut[outIdx].PkScript
			if !bytes.Equal(f.Script, want) {
				t.Fatalf("tx %d output %d script mismatch: got %x, want %x", txIdx, outIdx, f.Script, want)
			}
			outIdx++
		case FieldTxEnd:
			if inIdx != len(block.Transactions[txIdx].TxIn) {
				t.Fatalf("tx %d ended with %d inputs consumed, want %d", txIdx, inIdx, len(block.Transactions[txIdx].TxIn))
			}
			if outIdx != len(block.Transactions[txIdx].TxOut) {
				t.Fatalf("tx %d ended with %d outputs consumed, want %d", txIdx, outIdx, len(block.Transactions[txIdx].TxOut))
			}
		}
	}
	if it.Err() != nil {
		t.Fatalf("iterator error: %v", it.Err())
	}
	if txIdx != len(block.Transactions)-1 {
		t.Fatalf("iterator stopped at tx %d, want %d", txIdx, len(block.Transactions)-1)
	}
}

func TestBlockIteratorEmptyBlock(t *testing.T) {
	block := &MsgBlock{Header: BlockHeader{Version: 1}}

	var buf bytes.Buffer
	if err := block.Serialize(&buf); err != nil {
		t.Fatalf("Serialize: unexpected error: %v", err)
	}

	it, err := NewBlockIterator(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewBlockIterator: unexpected error: %v", err)
	}
	var f Field
	if it.Next(&f) {
		t.Fatalf("expected no fields for an empty block, got %+v", f)
	}
	if it.Err() != nil {
		t.Fatalf("unexpected error: %v", it.Err())
	}
}
