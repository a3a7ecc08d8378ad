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

// FieldTag identifies which field of a transaction the iterator most
// recently yielded.
type FieldTag int

// Field tags yielded by BlockIterator.Next.
const (
	FieldTxStart FieldTag = iota
	FieldInputPrevHash
	FieldInputScript
	FieldOutputValue
	FieldOutputScript
	FieldTxEnd
)

// Field describes one tagged value surfaced by BlockIterator while walking
// a serialized block without first materializing MsgTx/MsgBlock objects.
// Hash is a copy and Script a freshly read slice, so both stay valid after
// later calls to Next.
type Field struct {
	Tag     FieldTag
	TxIndex int
	Hash    chainhash.Hash
	Value   int64
	Script  []byte
}

// BlockIterator walks a serialized block byte stream, yielding a flat
// sequence of tagged fields (previous-tx hash, input script, output value,
// output script) without allocating MsgTx/MsgBlock objects for the whole
// block up front. It is intended for call sites — like context-free input
// fan-out — that only need a narrow slice of each transaction's data.
type BlockIterator struct {
	r        io.Reader
	header   BlockHeader
	txCount  uint64
	curTx    uint64
	inCount  uint64
	curIn    uint64
	outCount uint64
	curOut   uint64
	curValue int64
	state    int
	err      error
}

const (
	iterStateTxHeader = iota
	iterStateInputHash
	iterStateInputScript
	iterStateReadOutCount
	iterStateOutputValue
	iterStateOutputScript
)

// NewBlockIterator prepares a BlockIterator over r, which must begin at the
// start of a serialized block (the 80-byte header followed by the
// transaction varint and bodies).
func NewBlockIterator(r io.Reader) (*BlockIterator, error) {
	header, err := DeserializeHeader(r)
	if err != nil {
		return nil, err
	}
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > MaxTxPerAcceptedBlock {
		return nil, messageError("NewBlockIterator", "transaction count exceeds the maximum allowed")
	}
	return &BlockIterator{r: r, header: header, txCount: count, state: iterStateTxHeader}, nil
}

// Header returns the block header read when the iterator was constructed.
func (it *BlockIterator) Header() BlockHeader {
	return it.header
}

// Err returns the first error encountered by Next, if any.
func (it *BlockIterator) Err() error {
	return it.err
}

// Next advances the iterator and reports the next tagged field. It returns
// false once the block has been fully consumed or an error occurs; callers
// should check Err after a false return to distinguish the two.
func (it *BlockIterator) Next(f *Field) bool {
	if it.err != nil || it.curTx >= it.txCount {
		return false
	}

	switch it.state {
	case iterStateTxHeader:
		if _, err := readInt32LE(it.r); err != nil { // tx version
			it.err = err
			return false
		}
		count, err := ReadVarInt(it.r)
		if err != nil {
			it.err = err
			return false
		}
		if count > MaxTxInPerMessage {
			it.err = messageError("BlockIterator.Next", "too many transaction inputs")
			return false
		}
		it.inCount, it.curIn = count, 0
		f.Tag, f.TxIndex = FieldTxStart, int(it.curTx)
		if count == 0 {
			it.state = iterStateReadOutCount
		} else {
			it.state = iterStateInputHash
		}
		return true

	case iterStateInputHash:
		var hash chainhash.Hash
		if _, err := io.ReadFull(it.r, hash[:]); err != nil {
			it.err = err
			return false
		}
		if _, err := readUint32LE(it.r); err != nil { // prev-out index
			it.err = err
			return false
		}
		f.Tag, f.TxIndex, f.Hash = FieldInputPrevHash, int(it.curTx), hash
		it.state = iterStateInputScript
		return true

	case iterStateInputScript:
		script, err := ReadVarBytes(it.r, maxScriptSize, "signature script")
		if err != nil {
			it.err = err
			return false
		}
		if _, err := readUint32LE(it.r); err != nil { // sequence
			it.err = err
			return false
		}
		f.Tag, f.TxIndex, f.Script = FieldInputScript, int(it.curTx), script
		it.curIn++
		if it.curIn >= it.inCount {
			it.state = iterStateReadOutCount
		} else {
			it.state = iterStateInputHash
		}
		return true

	case iterStateReadOutCount:
		count, err := ReadVarInt(it.r)
		if err != nil {
			it.err = err
			return false
		}
		if count > MaxTxOutPerMessage {
			it.err = messageError("BlockIterator.Next", "too many transaction outputs")
			return false
		}
		it.outCount, it.curOut = count, 0
		it.state = iterStateOutputValue
		return it.Next(f)

	case iterStateOutputValue:
		if it.curOut >= it.outCount {
			if _, err := readUint32LE(it.r); err != nil { // lock time
				it.err = err
				return false
			}
			it.curTx++
			it.state = iterStateTxHeader
			f.Tag, f.TxIndex = FieldTxEnd, int(it.curTx-1)
			return true
		}

		value, err := readInt64LE(it.r)
		if err != nil {
			it.err = err
			return false
		}
		it.curValue = value
		f.Tag, f.TxIndex, f.Value = FieldOutputValue, int(it.curTx), value
		it.state = iterStateOutputScript
		return true

	case iterStateOutputScript:
		script, err := ReadVarBytes(it.r, maxScriptSize, "pk script")
		if err != nil {
			it.err = err
			return false
		}
		f.Tag, f.TxIndex, f.Value, f.Script = FieldOutputScript, int(it.curTx), it.curValue, script
		it.curOut++
		it.state = iterStateOutputValue
		return true
	}

	return false
}

// ScriptReader adapts a byte slice field into an io.Reader, useful when a
// caller wants to hand a yielded script straight to the script engine
// without a copy.
func ScriptReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}
