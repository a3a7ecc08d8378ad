// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxo

import (
	"fmt"
	"sync"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
)

// MemStore is a Store backed entirely by an in-memory map, for uses where
// mutations must be tracked per block but never need to survive a process
// restart, such as tests.
type MemStore struct {
	mu        sync.RWMutex
	committed map[Outpoint]Entry
	best      chainhash.Hash

	*staged
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		committed: make(map[Outpoint]Entry),
		staged:    newStaged(),
	}
}

func (s *MemStore) Insert(op Outpoint, entry Entry) error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()

	if _, ok := s.staged.inserted[op]; ok {
		return fmt.Errorf("utxo: %w: %s:%d already staged this block", errDuplicateInsert, op.Hash, op.Index)
	}
	s.staged.inserted[op] = entry
	delete(s.staged.removed, op)
	return nil
}

func (s *MemStore) InsertAll(data BlockData) error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()

	for op := range data.Entries {
		if _, ok := s.staged.inserted[op]; ok {
			return fmt.Errorf("utxo: %w: %s:%d already staged this block", errDuplicateInsert, op.Hash, op.Index)
		}
	}
	for op, entry := range data.Entries {
		s.staged.inserted[op] = entry
		delete(s.staged.removed, op)
	}
	return nil
}

func (s *MemStore) Find(op Outpoint) (Entry, error) {
	s.staged.mu.Lock()
	if e, ok := s.staged.inserted[op]; ok {
		s.staged.mu.Unlock()
		return e, nil
	}
	_, removed := s.staged.removed[op]
	s.staged.mu.Unlock()
	if removed {
		return Entry{}, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.committed[op]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (s *MemStore) Remove(op Outpoint, _ *uint32) (Entry, error) {
	e, err := s.Find(op)
	if err != nil {
		return Entry{}, err
	}

	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()
	if _, ok := s.staged.inserted[op]; ok {
		delete(s.staged.inserted, op)
		return e, nil
	}
	s.staged.removed[op] = struct{}{}
	return e, nil
}

func (s *MemStore) BlockFinished(height int32, hash chainhash.Hash) error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for op := range s.staged.removed {
		delete(s.committed, op)
	}
	for op, entry := range s.staged.inserted {
		s.committed[op] = entry
	}
	s.best = hash
	s.staged.reset()
	return nil
}

func (s *MemStore) BestBlock() chainhash.Hash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.best
}

func (s *MemStore) Rollback() error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()
	s.staged.reset()
	return nil
}

func (s *MemStore) Close() error { return nil }

var errDuplicateInsert = fmt.Errorf("duplicate insert under active block")
