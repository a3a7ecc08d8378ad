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

// MaxTxInPerMessage / MaxTxOutPerMessage guard deserialization against
// claimed counts that couldn't possibly fit in a consensus-sized block.
const (
	MaxTxInPerMessage  = MaxBlockAcceptSize / 41
	MaxTxOutPerMessage = MaxBlockAcceptSize / 9
	maxScriptSize      = MaxBlockAcceptSize
)

// OutPoint defines a reference to an output of a prior transaction: the
// transaction hash and the zero-based output index within it.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// TxIn defines a single transaction input: the prior output it spends, the
// unlocking script, and the sequence number.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Sequence         uint32
}

// SerializeSize returns the number of bytes the input occupies serialized.
func (ti *TxIn) SerializeSize() int {
	return chainhash.HashSize + 4 + VarIntSerializeSize(uint64(len(ti.SignatureScript))) +
		len(ti.SignatureScript) + 4
}

// TxOut defines a single transaction output: the amount, in satoshis, and
// the locking script that encumbers it.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// SerializeSize returns the number of bytes the output occupies serialized.
func (to *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(to.PkScript))) + len(to.PkScript)
}

// MsgTx defines a transaction: version ‖ varint(input-count) ‖ inputs ‖
// varint(output-count) ‖ outputs ‖ lock-time, matching the classic Satoshi
// transaction wire layout used by BCH.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// IsCoinBase determines whether a transaction is a coinbase by checking that
// it has a single input with a previous output of zero hash and max index.
func (tx *MsgTx) IsCoinBase() bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prevOut := &tx.TxIn[0].PreviousOutPoint
	return prevOut.Index == 0xffffffff && prevOut.Hash == chainhash.Hash{}
}

// TxHash computes the double-SHA256 hash of the serialized transaction,
// i.e. its txid.
func (tx *MsgTx) TxHash() chainhash.Hash {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	_ = tx.Serialize(&buf)
	return chainhash.HashH(buf.Bytes())
}

// SerializeSize returns the number of bytes the transaction would occupy
// once serialized.
func (tx *MsgTx) SerializeSize() int {
	n := 4 + VarIntSerializeSize(uint64(len(tx.TxIn))) + VarIntSerializeSize(uint64(len(tx.TxOut))) + 4
	for _, ti := range tx.TxIn {
		n += ti.SerializeSize()
	}
	for _, to := range tx.TxOut {
		n += to.SerializeSize()
	}
	return n
}

// Serialize writes the classic Satoshi transaction encoding to w.
func (tx *MsgTx) Serialize(w io.Writer) error {
	if err := writeInt32LE(w, tx.Version); err != nil {
		return err
	}
	if err := WriteVarInt(w, uint64(len(tx.TxIn))); err != nil {
		return err
	}
	for _, ti := range tx.TxIn {
		if _, err := w.Write(ti.PreviousOutPoint.Hash[:]); err != nil {
			return err
		}
		if err := writeUint32LE(w, ti.PreviousOutPoint.Index); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		if err := writeUint32LE(w, ti.Sequence); err != nil {
			return err
		}
	}
	if err := WriteVarInt(w, uint64(len(tx.TxOut))); err != nil {
		return err
	}
	for _, to := range tx.TxOut {
		if err := writeInt64LE(w, to.Value); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}
	return writeUint32LE(w, tx.LockTime)
}

// DeserializeTx parses a single transaction using the classic Satoshi
// encoding: version ‖ varint(input-count) ‖ inputs ‖ varint(output-count) ‖
// outputs ‖ lock-time.
func DeserializeTx(r io.Reader) (*MsgTx, error) {
	tx := new(MsgTx)
	var err error
	if tx.Version, err = readInt32LE(r); err != nil {
		return nil, err
	}

	inCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if inCount > MaxTxInPerMessage {
		return nil, messageError("DeserializeTx", "too many transaction inputs")
	}
	tx.TxIn = make([]*TxIn, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		ti := new(TxIn)
		if _, err := io.ReadFull(r, ti.PreviousOutPoint.Hash[:]); err != nil {
			return nil, err
		}
		if ti.PreviousOutPoint.Index, err = readUint32LE(r); err != nil {
			return nil, err
		}
		if ti.SignatureScript, err = ReadVarBytes(r, maxScriptSize, "signature script"); err != nil {
			return nil, err
		}
		if ti.Sequence, err = readUint32LE(r); err != nil {
			return nil, err
		}
		tx.TxIn = append(tx.TxIn, ti)
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if outCount > MaxTxOutPerMessage {
		return nil, messageError("DeserializeTx", "too many transaction outputs")
	}
	tx.TxOut = make([]*TxOut, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		to := new(TxOut)
		if to.Value, err = readInt64LE(r); err != nil {
			return nil, err
		}
		if to.PkScript, err = ReadVarBytes(r, maxScriptSize, "pk script"); err != nil {
			return nil, err
		}
		tx.TxOut = append(tx.TxOut, to)
	}

	if tx.LockTime, err = readUint32LE(r); err != nil {
		return nil, err
	}
	return tx, nil
}
