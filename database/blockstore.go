// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package database implements the on-disk block and undo-block store: flat
// append-only files (blkNNNNN.dat / undoNNNNN.dat) holding the canonical
// serialized data, and a leveldb index mapping each block hash to the
// file/offset/height/status record needed to find it again, the same
// split Bitcoin-Core-derived full nodes use to keep random lookups (the
// index) off the append path (the flat files).
package database

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// maxFileSize bounds how large a single blkNNNNN.dat/undoNNNNN.dat pair
// grows before the store rolls over to the next file number, keeping any
// one file small enough to copy, truncate, or mmap comfortably.
const maxFileSize = 128 * 1024 * 1024

// Status records where validation left a block.
type Status byte

// Recognized statuses.
const (
	StatusHeaderOnly Status = iota
	StatusValid
	StatusInvalid
)

// indexRecord is the leveldb-indexed record for a single block.
type indexRecord struct {
	Height     int32
	File       uint32
	Offset     uint32
	UndoOffset uint32
	Status     Status
}

const indexRecordLen = 4 + 4 + 4 + 4 + 1

func encodeIndexRecord(r indexRecord) []byte {
	buf := make([]byte, indexRecordLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Height))
	binary.LittleEndian.PutUint32(buf[4:8], r.File)
	binary.LittleEndian.PutUint32(buf[8:12], r.Offset)
	binary.LittleEndian.PutUint32(buf[12:16], r.UndoOffset)
	buf[16] = byte(r.Status)
	return buf
}

func decodeIndexRecord(buf []byte) (indexRecord, error) {
	if len(buf) != indexRecordLen {
		return indexRecord{}, fmt.Errorf("database: corrupt index record length %d", len(buf))
	}
	return indexRecord{
		Height:     int32(binary.LittleEndian.Uint32(buf[0:4])),
		File:       binary.LittleEndian.Uint32(buf[4:8]),
		Offset:     binary.LittleEndian.Uint32(buf[8:12]),
		UndoOffset: binary.LittleEndian.Uint32(buf[12:16]),
		Status:     Status(buf[16]),
	}, nil
}

// BlockStore persists full blocks and their undo data to flat files, with
// a leveldb index for hash-keyed lookup.
type BlockStore struct {
	dir   string
	index *leveldb.DB

	mu         sync.Mutex
	curFile    uint32
	blkFile    *os.File
	undoFile   *os.File
	blkOffset  uint32
	undoOffset uint32
}

// Open opens (creating if necessary) a block store rooted at dir.
func Open(dir string) (*BlockStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	idx, err := leveldb.OpenFile(filepath.Join(dir, "index"), nil)
	if err != nil {
		return nil, err
	}
	bs := &BlockStore{dir: dir, index: idx}
	if err := bs.openCurrentFiles(); err != nil {
		idx.Close()
		return nil, err
	}
	return bs, nil
}

func (bs *BlockStore) openCurrentFiles() error {
	blkFile, err := os.OpenFile(bs.blkPath(bs.curFile), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	undoFile, err := os.OpenFile(bs.undoPath(bs.curFile), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		blkFile.Close()
		return err
	}
	blkInfo, err := blkFile.Stat()
	if err != nil {
		return err
	}
	undoInfo, err := undoFile.Stat()
	if err != nil {
		return err
	}
	bs.blkFile = blkFile
	bs.undoFile = undoFile
	bs.blkOffset = uint32(blkInfo.Size())
	bs.undoOffset = uint32(undoInfo.Size())
	return nil
}

func (bs *BlockStore) blkPath(file uint32) string {
	return filepath.Join(bs.dir, fmt.Sprintf("blk%05d.dat", file))
}

func (bs *BlockStore) undoPath(file uint32) string {
	return filepath.Join(bs.dir, fmt.Sprintf("undo%05d.dat", file))
}

// UndoEntry is one spent-output record restored by disconnecting a block:
// an output the block spent, reinserted into the UTXO set when the block
// is disconnected.
type UndoEntry struct {
	PrevHash   chainhash.Hash
	PrevIndex  uint32
	PrevHeight int32
	Offset     uint32
	Amount     int64
	PkScript   []byte
	IsCoinbase bool
}

// WriteBlock appends block's canonical serialization and its undo list to
// the current flat files and indexes it at height with StatusValid. It
// returns only an error; the index record is read back through the index.
func (bs *BlockStore) WriteBlock(block *wire.MsgBlock, height int32, undo []UndoEntry) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if bs.blkOffset > 0 && uint64(bs.blkOffset)+uint64(block.SerializeSize()) > maxFileSize {
		if err := bs.rollover(); err != nil {
			return err
		}
	}

	hash := block.BlockHash()
	startOffset := bs.blkOffset
	undoStartOffset := bs.undoOffset
	if err := block.Serialize(bs.blkFile); err != nil {
		return err
	}
	bs.blkOffset += uint32(block.SerializeSize())

	if err := writeUndoBlock(bs.undoFile, undo); err != nil {
		return err
	}
	bs.undoOffset += undoSerializeSize(undo)

	rec := indexRecord{Height: height, File: bs.curFile, Offset: startOffset, UndoOffset: undoStartOffset, Status: StatusValid}
	return bs.index.Put(hash[:], encodeIndexRecord(rec), nil)
}

func (bs *BlockStore) rollover() error {
	bs.blkFile.Close()
	bs.undoFile.Close()
	bs.curFile++
	bs.blkOffset = 0
	bs.undoOffset = 0
	return bs.openCurrentFiles()
}

// ReadBlock loads the full block stored under hash.
func (bs *BlockStore) ReadBlock(hash chainhash.Hash) (*wire.MsgBlock, error) {
	rec, err := bs.lookup(hash)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(bs.blkPath(rec.File))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(int64(rec.Offset), 0); err != nil {
		return nil, err
	}
	return wire.DeserializeBlock(f)
}

func (bs *BlockStore) lookup(hash chainhash.Hash) (indexRecord, error) {
	buf, err := bs.index.Get(hash[:], nil)
	if err != nil {
		return indexRecord{}, fmt.Errorf("database: block %s not indexed: %w", hash, err)
	}
	return decodeIndexRecord(buf)
}

// MarkStatus updates the recorded status of an already-indexed block,
// used when validation later discovers a previously header-only or
// pending block is invalid.
func (bs *BlockStore) MarkStatus(hash chainhash.Hash, status Status) error {
	rec, err := bs.lookup(hash)
	if err != nil {
		return err
	}
	rec.Status = status
	return bs.index.Put(hash[:], encodeIndexRecord(rec), nil)
}

// Close releases the index and flat-file handles.
func (bs *BlockStore) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.blkFile.Close()
	bs.undoFile.Close()
	return bs.index.Close()
}

func writeUndoBlock(w *os.File, undo []UndoEntry) error {
	if err := wire.WriteVarInt(w, uint64(len(undo))); err != nil {
		return err
	}
	for _, u := range undo {
		if _, err := w.Write(u.PrevHash[:]); err != nil {
			return err
		}
		var rest [12]byte
		binary.LittleEndian.PutUint32(rest[0:4], u.PrevIndex)
		binary.LittleEndian.PutUint32(rest[4:8], uint32(u.PrevHeight))
		binary.LittleEndian.PutUint32(rest[8:12], u.Offset)
		if _, err := w.Write(rest[:]); err != nil {
			return err
		}
		var amtCoinbase [9]byte
		binary.LittleEndian.PutUint64(amtCoinbase[0:8], uint64(u.Amount))
		if u.IsCoinbase {
			amtCoinbase[8] = 1
		}
		if _, err := w.Write(amtCoinbase[:]); err != nil {
			return err
		}
		if err := wire.WriteVarBytes(w, u.PkScript); err != nil {
			return err
		}
	}
	return nil
}

func undoSerializeSize(undo []UndoEntry) uint32 {
	n := wire.VarIntSerializeSize(uint64(len(undo)))
	for _, u := range undo {
		n += chainhash.HashSize + 12 + 9 + wire.VarIntSerializeSize(uint64(len(u.PkScript))) + len(u.PkScript)
	}
	return uint32(n)
}

// ReadUndoBlock loads the undo list previously written alongside the block
// at hash.
func (bs *BlockStore) ReadUndoBlock(hash chainhash.Hash) ([]UndoEntry, error) {
	rec, err := bs.lookup(hash)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(bs.undoPath(rec.File))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := f.Seek(int64(rec.UndoOffset), 0); err != nil {
		return nil, err
	}

	count, err := wire.ReadVarInt(f)
	if err != nil {
		return nil, err
	}
	entries := make([]UndoEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		var prevHash chainhash.Hash
		if _, err := f.Read(prevHash[:]); err != nil {
			return nil, err
		}
		var rest [12]byte
		if _, err := f.Read(rest[:]); err != nil {
			return nil, err
		}
		var amtCoinbase [9]byte
		if _, err := f.Read(amtCoinbase[:]); err != nil {
			return nil, err
		}
		pkScript, err := wire.ReadVarBytes(f, wire.MaxBlockAcceptSize, "undoPkScript")
		if err != nil {
			return nil, err
		}
		entries = append(entries, UndoEntry{
			PrevHash:   prevHash,
			PrevIndex:  binary.LittleEndian.Uint32(rest[0:4]),
			PrevHeight: int32(binary.LittleEndian.Uint32(rest[4:8])),
			Offset:     binary.LittleEndian.Uint32(rest[8:12]),
			Amount:     int64(binary.LittleEndian.Uint64(amtCoinbase[0:8])),
			IsCoinbase: amtCoinbase[8] != 0,
			PkScript:   pkScript,
		})
	}
	return entries, nil
}
