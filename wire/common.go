// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire implements the Satoshi block and transaction wire encoding:
// little/big-endian integer conversions, variable-length integers, and the
// fixed block-header / transaction layouts described by the data model.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MessageError describes an issue with a message.
type MessageError struct {
	Func        string
	Description string
}

func (e *MessageError) Error() string {
	if e.Func != "" {
		return fmt.Sprintf("%s: %s", e.Func, e.Description)
	}
	return e.Description
}

func messageError(f, desc string) *MessageError {
	return &MessageError{Func: f, Description: desc}
}

// littleEndian and bigEndian are short aliases for the encoding/binary
// byte orders.
var littleEndian = binary.LittleEndian
var bigEndian = binary.BigEndian

func readUint32LE(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return littleEndian.Uint32(buf[:]), nil
}

func writeUint32LE(w io.Writer, v uint32) error {
	var buf [4]byte
	littleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readInt32LE(r io.Reader) (int32, error) {
	v, err := readUint32LE(r)
	return int32(v), err
}

func writeInt32LE(w io.Writer, v int32) error {
	return writeUint32LE(w, uint32(v))
}

func readInt64LE(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(littleEndian.Uint64(buf[:])), nil
}

func writeInt64LE(w io.Writer, v int64) error {
	var buf [8]byte
	littleEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer, following the classic Satoshi encoding
// (1/3/5/9 bytes depending on magnitude).
func VarIntSerializeSize(val uint64) int {
	switch {
	case val < 0xfd:
		return 1
	case val <= 0xffff:
		return 3
	case val <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// ReadVarInt reads a variable length integer from r and returns it as a
// uint64, following the classic Satoshi varint prefix bytes 0xfd/0xfe/0xff.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}

	switch prefix[0] {
	case 0xff:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := littleEndian.Uint64(buf[:])
		if v < 0x100000000 {
			return 0, messageError("ReadVarInt", "non-canonical varint (64-bit form with a value that could be encoded in a smaller form)")
		}
		return v, nil
	case 0xfe:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := uint64(littleEndian.Uint32(buf[:]))
		if v < 0x10000 {
			return 0, messageError("ReadVarInt", "non-canonical varint (32-bit form with a value that could be encoded in a smaller form)")
		}
		return v, nil
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		v := uint64(littleEndian.Uint16(buf[:]))
		if v < 0xfd {
			return 0, messageError("ReadVarInt", "non-canonical varint (16-bit form with a value that could be encoded in a smaller form)")
		}
		return v, nil
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarInt serializes val to w using the classic Satoshi variable length
// integer encoding.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = 0xfd
		littleEndian.PutUint16(buf[1:], uint16(val))
		_, err := w.Write(buf)
		return err
	case val <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = 0xfe
		littleEndian.PutUint32(buf[1:], uint32(val))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = 0xff
		littleEndian.PutUint64(buf[1:], val)
		_, err := w.Write(buf)
		return err
	}
}

// ReadVarBytes reads a variable length byte array following a varint length
// prefix.  maxAllowed bounds the length to protect against hostile input
// claiming an absurd size ahead of the actual bytes arriving.
func ReadVarBytes(r io.Reader, maxAllowed uint64, fieldName string) ([]byte, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAllowed {
		str := fmt.Sprintf("%s is larger than the max allowed size [count %d, max %d]",
			fieldName, count, maxAllowed)
		return nil, messageError("ReadVarBytes", str)
	}

	b := make([]byte, count)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// WriteVarBytes serializes a variable length byte array as a varint length
// prefix followed by the bytes themselves.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}
