// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transport implements the tagged, chunked framing protocol
// connections speak to each other: a 2-byte length-prefixed frame holding
// a sequence of tag-length-value items, reassembled into logical messages
// that may span several frames.
package transport

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameLen is the largest total frame size, length prefix included,
// that the wire format allows.
const maxFrameLen = 9000

// itemType is the low-3-bit type discriminator of a tag byte.
type itemType byte

const (
	typePositiveInt itemType = 0
	typeNegativeInt itemType = 1
	typeString      itemType = 2
	typeByteArray   itemType = 3
	typeBoolTrue    itemType = 4
	typeBoolFalse   itemType = 5
	typeDouble      itemType = 6
)

// Tag numbers reserved for header items.
const (
	TagEnd            = 0
	TagServiceID      = 1
	TagMessageID      = 2
	TagSequenceStart  = 3
	TagLastInSequence = 4
	TagPing           = 5
	TagPong           = 6
	TagHeaderEnd      = 7
)

// Item is one decoded tag-length-value entry from a frame.
type Item struct {
	Tag   uint64
	Type  itemType
	Int   int64
	Str   string
	Bytes []byte
}

// frameHeader is the two recognized protocol bytes identifying a peer's
// first frame: a positive-int item tagged ServiceID.
var frameHeader = [2]byte{0x00, 0x08}

// encodeTag packs tag into a tag byte plus an optional varint
// continuation: the low 3 bits carry t and the high 5 bits carry tag.
// A tag of 0x1f or more saturates the high bits at 0x1f and follows the
// byte with tag itself as a varint.
func encodeTag(buf []byte, tag uint64, t itemType) []byte {
	if tag < 0x1f {
		return append(buf, byte(t)|byte(tag)<<3)
	}
	buf = append(buf, byte(t)|0x1f<<3)
	var tmp [10]byte
	n := binary.PutUvarint(tmp[:], tag)
	return append(buf, tmp[:n]...)
}

func decodeTag(b []byte) (tag uint64, t itemType, n int, err error) {
	if len(b) < 1 {
		return 0, 0, 0, io.ErrShortBuffer
	}
	t = itemType(b[0] & 0x7)
	low := uint64(b[0] >> 3)
	n = 1
	if low == 0x1f { // continuation present whenever the packed low bits saturate
		rest, m := binary.Uvarint(b[1:])
		if m <= 0 {
			return 0, 0, 0, io.ErrShortBuffer
		}
		n += m
		tag = rest
	} else {
		tag = low
	}
	return tag, t, n, nil
}

// EncodeFrame serializes items into a single length-prefixed frame. It
// returns an error if the result would exceed maxFrameLen.
func EncodeFrame(items []Item) ([]byte, error) {
	body := EncodeItems(items)
	total := len(body) + 2
	if total > maxFrameLen {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds %d-byte limit", total, maxFrameLen)
	}
	frame := make([]byte, 2, total)
	binary.LittleEndian.PutUint16(frame, uint16(total))
	return append(frame, body...), nil
}

// EncodeItems renders items as a bare tag-length-value byte sequence with
// no frame length prefix, the same encoding used both for frame bodies
// and for nested structures carried inside a byte-array item (such as a
// login message's body).
func EncodeItems(items []Item) []byte {
	body := make([]byte, 0, 256)
	for _, it := range items {
		switch it.Type {
		case typePositiveInt, typeNegativeInt:
			body = encodeTag(body, it.Tag, it.Type)
			v := it.Int
			if it.Type == typeNegativeInt {
				v = -v // the type carries the sign; the varint carries the magnitude
			}
			var tmp [10]byte
			n := binary.PutUvarint(tmp[:], uint64(v))
			body = append(body, tmp[:n]...)
		case typeBoolTrue, typeBoolFalse:
			body = encodeTag(body, it.Tag, it.Type)
		case typeString:
			body = encodeTag(body, it.Tag, it.Type)
			var tmp [10]byte
			n := binary.PutUvarint(tmp[:], uint64(len(it.Str)))
			body = append(body, tmp[:n]...)
			body = append(body, it.Str...)
		case typeByteArray:
			body = encodeTag(body, it.Tag, it.Type)
			var tmp [10]byte
			n := binary.PutUvarint(tmp[:], uint64(len(it.Bytes)))
			body = append(body, tmp[:n]...)
			body = append(body, it.Bytes...)
		case typeDouble:
			body = encodeTag(body, it.Tag, it.Type)
			var tmp [8]byte
			binary.LittleEndian.PutUint64(tmp[:], uint64(it.Int))
			body = append(body, tmp[:]...)
		}
	}
	return body
}

// DecodeFrame parses a frame's body (length prefix already consumed) into
// its items.
func DecodeFrame(body []byte) ([]Item, error) {
	var items []Item
	for len(body) > 0 {
		tag, t, n, err := decodeTag(body)
		if err != nil {
			return nil, fmt.Errorf("transport: malformed tag: %w", err)
		}
		body = body[n:]
		it := Item{Tag: tag, Type: t}
		switch t {
		case typePositiveInt, typeNegativeInt:
			v, m := binary.Uvarint(body)
			if m <= 0 {
				return nil, fmt.Errorf("transport: truncated integer item")
			}
			it.Int = int64(v)
			if t == typeNegativeInt {
				it.Int = -it.Int
			}
			body = body[m:]
		case typeBoolTrue:
			it.Int = 1
		case typeBoolFalse:
			it.Int = 0
		case typeString:
			l, m := binary.Uvarint(body)
			if m <= 0 || uint64(len(body)-m) < l {
				return nil, fmt.Errorf("transport: truncated string item")
			}
			body = body[m:]
			it.Str = string(body[:l])
			body = body[l:]
		case typeByteArray:
			l, m := binary.Uvarint(body)
			if m <= 0 || uint64(len(body)-m) < l {
				return nil, fmt.Errorf("transport: truncated bytearray item")
			}
			body = body[m:]
			it.Bytes = append([]byte(nil), body[:l]...)
			body = body[l:]
		case typeDouble:
			if len(body) < 8 {
				return nil, fmt.Errorf("transport: truncated double item")
			}
			it.Int = int64(binary.LittleEndian.Uint64(body[:8]))
			body = body[8:]
		default:
			return nil, fmt.Errorf("transport: unknown item type %d", t)
		}
		items = append(items, it)
	}
	return items, nil
}

// findItem returns the first item carrying tag, if any.
func findItem(items []Item, tag uint64) (Item, bool) {
	for _, it := range items {
		if it.Tag == tag {
			return it, true
		}
	}
	return Item{}, false
}

func intItem(tag uint64, v int64) Item {
	t := typePositiveInt
	if v < 0 {
		t = typeNegativeInt
	}
	return Item{Tag: tag, Type: t, Int: v}
}

func boolItem(tag uint64, v bool) Item {
	t := typeBoolFalse
	if v {
		t = typeBoolTrue
	}
	return Item{Tag: tag, Type: t}
}

func bytesItem(tag uint64, b []byte) Item {
	return Item{Tag: tag, Type: typeByteArray, Bytes: b}
}
