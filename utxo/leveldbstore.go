// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package utxo

import (
	"encoding/binary"
	"fmt"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/syndtr/goleveldb/leveldb"
)

// bestBlockKey stores the committed best-block hash under a fixed key,
// distinct from the outpoint key space below.
var bestBlockKey = []byte("b")

// LevelStore is a Store backed by a goleveldb database on disk. Mutations
// are held in an in-memory staged set, exactly like MemStore, and only
// reach the database in a single leveldb.Batch on BlockFinished — this
// keeps the engine's single-threaded commit point atomic without needing a
// leveldb transaction for every input check.
type LevelStore struct {
	db *leveldb.DB
	*staged
}

// OpenLevelStore opens (creating if necessary) a leveldb database at dir to
// back the UTXO set.
func OpenLevelStore(dir string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("utxo: opening leveldb store: %w", err)
	}
	return &LevelStore{db: db, staged: newStaged()}, nil
}

// outpointKey packs an outpoint into the big-endian byte string goleveldb
// orders lexicographically, which keeps every output of a given tx adjacent
// on disk — a cheap locality win for insertAll's sequential writes.
func outpointKey(op Outpoint) []byte {
	key := make([]byte, chainhash.HashSize+4)
	copy(key, op.Hash[:])
	binary.BigEndian.PutUint32(key[chainhash.HashSize:], op.Index)
	return key
}

func encodeEntry(e Entry) []byte {
	buf := make([]byte, 8+4+4+1+len(e.PkScript))
	binary.BigEndian.PutUint64(buf[0:8], uint64(e.Amount))
	binary.BigEndian.PutUint32(buf[8:12], uint32(e.Height))
	binary.BigEndian.PutUint32(buf[12:16], e.BlockOffset)
	if e.IsCoinbase {
		buf[16] = 1
	}
	copy(buf[17:], e.PkScript)
	return buf
}

func decodeEntry(b []byte) (Entry, error) {
	if len(b) < 17 {
		return Entry{}, fmt.Errorf("utxo: truncated entry (%d bytes)", len(b))
	}
	return Entry{
		Amount:      int64(binary.BigEndian.Uint64(b[0:8])),
		Height:      int32(binary.BigEndian.Uint32(b[8:12])),
		BlockOffset: binary.BigEndian.Uint32(b[12:16]),
		IsCoinbase:  b[16] == 1,
		PkScript:    append([]byte(nil), b[17:]...),
	}, nil
}

func (s *LevelStore) Insert(op Outpoint, entry Entry) error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()
	if _, ok := s.staged.inserted[op]; ok {
		return fmt.Errorf("utxo: %w: %s:%d already staged this block", errDuplicateInsert, op.Hash, op.Index)
	}
	s.staged.inserted[op] = entry
	delete(s.staged.removed, op)
	return nil
}

func (s *LevelStore) InsertAll(data BlockData) error {
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

func (s *LevelStore) Find(op Outpoint) (Entry, error) {
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

	raw, err := s.db.Get(outpointKey(op), nil)
	if err == leveldb.ErrNotFound {
		return Entry{}, ErrNotFound
	} else if err != nil {
		return Entry{}, fmt.Errorf("utxo: %w", err)
	}
	return decodeEntry(raw)
}

func (s *LevelStore) Remove(op Outpoint, _ *uint32) (Entry, error) {
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

func (s *LevelStore) BlockFinished(height int32, hash chainhash.Hash) error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()

	batch := new(leveldb.Batch)
	for op := range s.staged.removed {
		batch.Delete(outpointKey(op))
	}
	for op, entry := range s.staged.inserted {
		batch.Put(outpointKey(op), encodeEntry(entry))
	}
	batch.Put(bestBlockKey, hash[:])

	if err := s.db.Write(batch, nil); err != nil {
		return fmt.Errorf("utxo: committing block %d (%s): %w", height, hash, err)
	}
	s.staged.reset()
	return nil
}

func (s *LevelStore) BestBlock() chainhash.Hash {
	raw, err := s.db.Get(bestBlockKey, nil)
	if err != nil {
		return chainhash.Hash{}
	}
	var h chainhash.Hash
	copy(h[:], raw)
	return h
}

func (s *LevelStore) Rollback() error {
	s.staged.mu.Lock()
	defer s.staged.mu.Unlock()
	s.staged.reset()
	return nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
