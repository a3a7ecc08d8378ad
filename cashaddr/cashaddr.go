// Copyright (c) 2017 Pieter Wuille
// Copyright (c) 2017 The Bitcoin developers
// Copyright (c) 2021-2022 The bchnode developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cashaddr implements the CashAddr address format: a bech32-style
// encoding of a 160/192/224/256/320/384/448/512-bit hash plus a one-byte
// type/size version, checksummed with the cashaddr BCH polynomial from
// package bech32. It is a direct, idiomatic-Go port of the original
// implementation's CashAddress::encode/decode/encodeCashAddrContent/
// decodeCashAddrContent/createHashedOutputScript.
package cashaddr

import (
	"crypto/sha256"
	"fmt"

	"github.com/bchcore/bchnode/bech32"
)

// AddressType identifies the kind of hash a cashaddr payload carries.
type AddressType uint8

// Address types understood by the current script templates.
const (
	TypePubKeyHash AddressType = 0
	TypeScriptHash AddressType = 1
)

// Content is the decoded payload of a cashaddr string: a type tag plus the
// raw hash bytes (most commonly a 20-byte hash160).
type Content struct {
	Type AddressType
	Hash []byte
}

// sizeBits maps a hash length, in bytes, to the 3-bit encoded-size field
// cashaddr packs into the version byte.
var sizeBits = map[int]byte{
	20: 0, 24: 1, 28: 2, 32: 3, 40: 4, 48: 5, 56: 6, 64: 7,
}

var bitsSize = map[byte]int{
	0: 20, 1: 24, 2: 28, 3: 32, 4: 40, 5: 48, 6: 56, 7: 64,
}

// PackAddrData builds the 5-bit-grouped payload — version byte followed by
// the hash — that Encode checksums and charset-encodes.
func PackAddrData(hash []byte, typ AddressType) ([]byte, error) {
	encodedSize, ok := sizeBits[len(hash)]
	if !ok {
		return nil, fmt.Errorf("cashaddr: invalid hash length %d", len(hash))
	}

	versionByte := byte(typ)<<3 | encodedSize
	data := make([]byte, 0, len(hash)+1)
	data = append(data, versionByte)
	data = append(data, hash...)

	return bech32.ConvertBits(data, 8, 5, true)
}

// Encode renders prefix and content as a cashaddr string, e.g.
// "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a".
func Encode(prefix string, content Content) (string, error) {
	payload, err := PackAddrData(content.Hash, content.Type)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, payload), nil
}

// Decode parses a cashaddr string under expectedPrefix, verifying the
// checksum, the reserved version bit, the zero-padding of the final 5-bit
// group, and that the payload length exactly matches the size field.
func Decode(addr, expectedPrefix string) (Content, error) {
	prefix, payload, err := bech32.Decode(addr, expectedPrefix)
	if err != nil {
		return Content{}, err
	}
	if prefix != expectedPrefix {
		return Content{}, fmt.Errorf("cashaddr: prefix %q does not match expected %q", prefix, expectedPrefix)
	}
	if len(payload) == 0 {
		return Content{}, fmt.Errorf("cashaddr: empty payload")
	}

	extraBits := uint(len(payload)*5) % 8
	if extraBits >= 5 {
		return Content{}, fmt.Errorf("cashaddr: payload is not a whole number of bytes")
	}
	last := payload[len(payload)-1]
	mask := byte(1<<extraBits) - 1
	if last&mask != 0 {
		return Content{}, fmt.Errorf("cashaddr: non-zero padding bits")
	}

	data, err := bech32.ConvertBits(payload, 5, 8, false)
	if err != nil {
		return Content{}, err
	}

	version := data[0]
	if version&0x80 != 0 {
		return Content{}, fmt.Errorf("cashaddr: reserved version bit set")
	}

	typ := AddressType((version >> 3) & 0x1f)
	hashSize, ok := bitsSize[version&0x03]
	if !ok {
		return Content{}, fmt.Errorf("cashaddr: invalid size field")
	}
	if version&0x04 != 0 {
		hashSize *= 2
	}

	if len(data) != hashSize+1 {
		return Content{}, fmt.Errorf("cashaddr: decoded length %d does not match size field (want %d)", len(data)-1, hashSize)
	}

	return Content{Type: typ, Hash: data[1:]}, nil
}

var (
	p2pkhPrefix  = []byte{0x76, 0xa9, 20} // OP_DUP OP_HASH160 <20>
	p2shPrefix   = []byte{0xa9, 20}       // OP_HASH160 <20>
	p2pkhPostfix = []byte{0x88, 0xac}     // OP_EQUALVERIFY OP_CHECKSIG
	p2shPostfix  = []byte{0x87}           // OP_EQUAL
)

// LockingScript builds the standard output script a CashAddr content value
// implies — P2PKH for TypePubKeyHash, P2SH for TypeScriptHash — so callers
// with a decoded address can go directly to a spendable script without
// reaching into txscript's builder for the common case.
func LockingScript(content Content) ([]byte, error) {
	if len(content.Hash) != 20 {
		return nil, fmt.Errorf("cashaddr: locking script requires a 20-byte hash, got %d", len(content.Hash))
	}

	var script []byte
	switch content.Type {
	case TypePubKeyHash:
		script = append(script, p2pkhPrefix...)
		script = append(script, content.Hash...)
		script = append(script, p2pkhPostfix...)
	case TypeScriptHash:
		script = append(script, p2shPrefix...)
		script = append(script, content.Hash...)
		script = append(script, p2shPostfix...)
	default:
		return nil, fmt.Errorf("cashaddr: unsupported address type %d for a locking script", content.Type)
	}
	return script, nil
}

// Hash160 is exposed for callers building a Content from a raw public key
// or redeem script: RIPEMD160(SHA256(data)). It's implemented here, rather
// than imported from txscript, to keep this package self-contained; both
// use the same golang.org/x/crypto/ripemd160 primitive.
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	return ripemd160Sum(sum[:])
}
