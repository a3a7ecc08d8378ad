// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"testing"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

func sampleTx() *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash{0x01}, Index: 0},
			Sequence:         0xffffffff,
		}},
		TxOut: []*wire.TxOut{{
			Value:    1000,
			PkScript: []byte{OP_DUP, OP_HASH160},
		}},
		LockTime: 0,
	}
}

func TestCalcSignatureHashRequiresForkID(t *testing.T) {
	tx := sampleTx()
	if _, err := CalcSignatureHash(nil, SigHashAll, tx, 0, 5000); err == nil {
		t.Fatal("expected an error for a hash type missing SIGHASH_FORKID")
	}
}

func TestCalcSignatureHashIsDeterministic(t *testing.T) {
	tx := sampleTx()
	h1, err := CalcSignatureHash([]byte{OP_DUP}, SigHashAll|SigHashForkID, tx, 0, 5000)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	h2, err := CalcSignatureHash([]byte{OP_DUP}, SigHashAll|SigHashForkID, tx, 0, 5000)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	if h1 != h2 {
		t.Fatal("expected identical sighash across repeat calls on the same inputs")
	}
}

func TestCalcSignatureHashDiffersByAmount(t *testing.T) {
	tx := sampleTx()
	h1, err := CalcSignatureHash([]byte{OP_DUP}, SigHashAll|SigHashForkID, tx, 0, 5000)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	h2, err := CalcSignatureHash([]byte{OP_DUP}, SigHashAll|SigHashForkID, tx, 0, 6000)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	if h1 == h2 {
		t.Fatal("expected the spent amount to be committed to by the sighash")
	}
}

func TestCalcSignatureHashDiffersByHashType(t *testing.T) {
	tx := sampleTx()
	hAll, err := CalcSignatureHash([]byte{OP_DUP}, SigHashAll|SigHashForkID, tx, 0, 5000)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	hSingle, err := CalcSignatureHash([]byte{OP_DUP}, SigHashSingle|SigHashForkID, tx, 0, 5000)
	if err != nil {
		t.Fatalf("CalcSignatureHash: %v", err)
	}
	if hAll == hSingle {
		t.Fatal("expected SigHashAll and SigHashSingle to diverge")
	}
}
