// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxo

import (
	"errors"
	"testing"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
)

func TestMemStoreInsertFindRemove(t *testing.T) {
	s := NewMemStore()
	op := Outpoint{Hash: chainhash.Hash{0x01}, Index: 0}
	entry := Entry{Amount: 5000000000, PkScript: []byte{0x76, 0xa9}, Height: 1}

	if err := s.Insert(op, entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := s.Find(op)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Amount != entry.Amount {
		t.Fatalf("got amount %d, want %d", got.Amount, entry.Amount)
	}

	if _, err := s.Remove(op, nil); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Find(op); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find after Remove: got %v, want ErrNotFound", err)
	}
}

func TestMemStoreDuplicateInsertUnderActiveBlockFails(t *testing.T) {
	s := NewMemStore()
	op := Outpoint{Hash: chainhash.Hash{0x02}, Index: 0}
	if err := s.Insert(op, Entry{}); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	if err := s.Insert(op, Entry{}); err == nil {
		t.Fatal("expected second Insert of the same outpoint to fail")
	}
}

func TestMemStoreRollbackDiscardsStagedMutations(t *testing.T) {
	s := NewMemStore()
	op := Outpoint{Hash: chainhash.Hash{0x03}, Index: 0}
	if err := s.Insert(op, Entry{Amount: 1}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if _, err := s.Find(op); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find after Rollback: got %v, want ErrNotFound", err)
	}
}

func TestMemStoreBlockFinishedCommitsAndSetsBestBlock(t *testing.T) {
	s := NewMemStore()
	op := Outpoint{Hash: chainhash.Hash{0x04}, Index: 1}
	if err := s.Insert(op, Entry{Amount: 42}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	blockHash := chainhash.Hash{0xaa}
	if err := s.BlockFinished(100, blockHash); err != nil {
		t.Fatalf("BlockFinished: %v", err)
	}
	if s.BestBlock() != blockHash {
		t.Fatalf("BestBlock = %s, want %s", s.BestBlock(), blockHash)
	}

	// Now committed: removing it should be visible immediately, and a
	// rollback of that removal should bring it back.
	if _, err := s.Remove(op, nil); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Find(op); !errors.Is(err, ErrNotFound) {
		t.Fatal("expected removed committed entry to be hidden before BlockFinished")
	}
	if err := s.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if _, err := s.Find(op); err != nil {
		t.Fatalf("expected entry visible again after rollback of its removal: %v", err)
	}
}

func TestMemStoreInsertAllAtomicOnDuplicate(t *testing.T) {
	s := NewMemStore()
	shared := Outpoint{Hash: chainhash.Hash{0x05}, Index: 0}
	if err := s.Insert(shared, Entry{}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	data := BlockData{
		Height: 2,
		Entries: map[Outpoint]Entry{
			{Hash: chainhash.Hash{0x06}, Index: 0}: {},
			shared:                                 {},
		},
	}
	if err := s.InsertAll(data); err == nil {
		t.Fatal("expected InsertAll to fail on a duplicate key")
	}
}
