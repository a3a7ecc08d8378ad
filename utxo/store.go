// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package utxo defines the unspent-output store the validation engine
// reads and writes while checking block bodies. Two implementations are
// provided: a leveldb-backed one for real operation, and an in-memory one
// for tests.
package utxo

import (
	"errors"
	"sync"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
)

// ErrNotFound is returned by Find and Remove when the requested output does
// not exist in the store.
var ErrNotFound = errors.New("utxo: output not found")

// Outpoint identifies a single transaction output.
type Outpoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// Entry is the data kept for one unspent output: enough to reconstruct the
// spent TxOut for script verification, plus the provenance needed for
// coinbase-maturity checks and undo-block bookkeeping.
type Entry struct {
	Amount      int64
	PkScript    []byte
	Height      int32
	IsCoinbase  bool
	BlockOffset uint32 // byte offset of the containing tx within its block, an opaque hint for Remove
}

// BlockData is one block's worth of newly created outputs, keyed by
// outpoint, as produced by the UTXO pre-insert pass (§4.2 "UTXO
// pre-insert").
type BlockData struct {
	Height  int32
	Hash    chainhash.Hash
	Entries map[Outpoint]Entry
}

// Store is the interface the validation engine assumes of an unspent-output
// set. insert/insertAll/blockFinished/rollback are called only from the
// engine's single validation-scheduler goroutine; Find and Remove must be
// safe to call concurrently from the worker pool validating one block's
// transactions.
type Store interface {
	// Insert adds one output. It is a fatal internal error — not a normal
	// failure — for the key to already exist under the currently staged
	// block, since that would mean the engine tried to create the same
	// outpoint twice within one validation pass.
	Insert(op Outpoint, entry Entry) error

	// InsertAll bulk-inserts every output produced by a block. It is
	// atomic with respect to failure: either every entry lands or none
	// does.
	InsertAll(data BlockData) error

	// Find looks up an output without removing it.
	Find(op Outpoint) (Entry, error)

	// Remove deletes an output and returns its prior value. hint, when
	// non-nil, is an opaque acceleration value a particular Store
	// implementation may use to avoid an index lookup; callers pass back
	// whatever the Store previously handed them for the same outpoint, or
	// nil if they have nothing cached.
	Remove(op Outpoint, hint *uint32) (Entry, error)

	// BlockFinished atomically commits every mutation staged since the
	// last BlockFinished (or since open, if none yet) and records height
	// and hash as the new best block.
	BlockFinished(height int32, hash chainhash.Hash) error

	// BestBlock returns the hash most recently committed by
	// BlockFinished, or the zero hash before any block has been.
	BestBlock() chainhash.Hash

	// Rollback discards every mutation staged since the last
	// BlockFinished, used when a block fails validation after its outputs
	// were already pre-inserted.
	Rollback() error

	// Close releases any resources the store holds open.
	Close() error
}

// staged bundles the mutations accumulated since the last commit, shared by
// both Store implementations so Rollback/BlockFinished behave identically.
type staged struct {
	mu       sync.Mutex
	inserted map[Outpoint]Entry
	removed  map[Outpoint]struct{}
}

func newStaged() *staged {
	return &staged{
		inserted: make(map[Outpoint]Entry),
		removed:  make(map[Outpoint]struct{}),
	}
}

func (s *staged) reset() {
	s.inserted = make(map[Outpoint]Entry)
	s.removed = make(map[Outpoint]struct{})
}
