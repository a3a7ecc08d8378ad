// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
)

// BlockHeaderLen is the number of bytes in a serialized block header: four
// 32-bit fields, two hashes, and a 32-bit nonce.
const BlockHeaderLen = 80

// MaxBlockAcceptSize is the maximum permitted size, in bytes, of a block
// that will be accepted into the fork tree.
const MaxBlockAcceptSize = 32 * 1000 * 1000

// MaxTxPerAcceptedBlock bounds the number of transactions a single accepted
// block may carry; it exists purely as a structural sanity check ahead of
// full parsing.
const MaxTxPerAcceptedBlock = MaxBlockAcceptSize / 100

// BlockHeader defines the fixed 80-byte header fields common to every block.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// BlockHash computes the block identifier: the double-SHA256 of the
// serialized 80-byte header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(BlockHeaderLen)
	_ = h.Serialize(&buf)
	return chainhash.HashH(buf.Bytes())
}

// Serialize writes the fixed-layout 80-byte header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := writeInt32LE(w, h.Version); err != nil {
		return err
	}
	if _, err := w.Write(h.PrevBlock[:]); err != nil {
		return err
	}
	if _, err := w.Write(h.MerkleRoot[:]); err != nil {
		return err
	}
	if err := writeUint32LE(w, h.Timestamp); err != nil {
		return err
	}
	if err := writeUint32LE(w, h.Bits); err != nil {
		return err
	}
	return writeUint32LE(w, h.Nonce)
}

// DeserializeHeader reads the fixed 80-byte header layout from r.
func DeserializeHeader(r io.Reader) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.Version, err = readInt32LE(r); err != nil {
		return h, err
	}
	if _, err = io.ReadFull(r, h.PrevBlock[:]); err != nil {
		return h, err
	}
	if _, err = io.ReadFull(r, h.MerkleRoot[:]); err != nil {
		return h, err
	}
	if h.Timestamp, err = readUint32LE(r); err != nil {
		return h, err
	}
	if h.Bits, err = readUint32LE(r); err != nil {
		return h, err
	}
	if h.Nonce, err = readUint32LE(r); err != nil {
		return h, err
	}
	return h, nil
}

// MsgBlock is a full block: the header plus its ordered transactions.  A
// header-only block (as received while only headers have synced) is
// represented by a MsgBlock with a nil Transactions slice; HasBody reports
// which case applies.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
}

// HasBody reports whether the block carries at least the mandatory coinbase
// transaction, as opposed to being a bare 80-byte header.
func (b *MsgBlock) HasBody() bool {
	return len(b.Transactions) > 0
}

// BlockHash returns the header's block hash.
func (b *MsgBlock) BlockHash() chainhash.Hash {
	return b.Header.BlockHash()
}

// Serialize writes header ‖ varint(tx-count) ‖ transactions to w.
func (b *MsgBlock) Serialize(w io.Writer) error {
	if err := b.Header.Serialize(w); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(b.Transactions))); err != nil {
		return err
	}
	for _, tx := range b.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// DeserializeBlock parses a full Satoshi block: the 80-byte header, a
// varint transaction count, then that many serialized transactions.
func DeserializeBlock(r io.Reader) (*MsgBlock, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > MaxTxPerAcceptedBlock {
		return nil, messageError("DeserializeBlock", "transaction count exceeds the maximum allowed")
	}

	txns := make([]*MsgTx, 0, count)
	for i := uint64(0); i < count; i++ {
		tx, err := DeserializeTx(r)
		if err != nil {
			return nil, err
		}
		txns = append(txns, tx)
	}
	return &MsgBlock{Header: header, Transactions: txns}, nil
}

// SerializeSize returns the number of bytes the block would occupy once
// serialized, without actually performing the serialization.
func (b *MsgBlock) SerializeSize() int {
	n := BlockHeaderLen + VarIntSerializeSize(uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		n += tx.SerializeSize()
	}
	return n
}
