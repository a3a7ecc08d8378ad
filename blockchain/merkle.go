// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// buildMerkleTreeStore builds the full Satoshi merkle tree for a block's
// transactions (leaves, then each successive level hashing pairs,
// duplicating the final node of an odd-length level) and returns every
// node, root last. A tree built over a level containing two identical
// adjacent hashes is flagged by merkleRootHasDuplication, since such a
// block can be maliciously crafted to collide with a different, shorter
// transaction list under the same root (CVE-2012-2459).
func buildMerkleTreeStore(txns []*wire.MsgTx) []*chainhash.Hash {
	if len(txns) == 0 {
		return nil
	}

	// The size of the tree is 2*nextPowerOfTwo(n) - 1 using the classic
	// array-backed binary tree layout, with nil entries for the padding
	// introduced by rounding up to a power of two.
	nextPoT := nextPowerOfTwo(len(txns))
	arraySize := nextPoT*2 - 1
	merkles := make([]*chainhash.Hash, arraySize)

	for i, tx := range txns {
		h := tx.TxHash()
		merkles[i] = &h
	}

	offset := nextPoT
	for i := 0; i < arraySize-offset; i += 2 {
		switch {
		case merkles[i] == nil:
			merkles[offset] = nil
		case merkles[i+1] == nil:
			newHash := hashMerkleBranches(merkles[i], merkles[i])
			merkles[offset] = &newHash
		default:
			newHash := hashMerkleBranches(merkles[i], merkles[i+1])
			merkles[offset] = &newHash
		}
		offset++
	}
	return merkles
}

func hashMerkleBranches(left, right *chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], left[:])
	copy(buf[chainhash.HashSize:], right[:])
	return chainhash.HashH(buf[:])
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// merkleRootHasDuplication reports whether constructing the merkle tree
// from txns ever hashed two identical non-nil leaves together at any
// interior level, the signature of a duplicated-transaction-list attack.
func merkleRootHasDuplication(txns []*wire.MsgTx) bool {
	nextPoT := nextPowerOfTwo(len(txns))
	level := make([]*chainhash.Hash, nextPoT)
	for i, tx := range txns {
		h := tx.TxHash()
		level[i] = &h
	}

	for len(level) > 1 {
		next := make([]*chainhash.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			var right *chainhash.Hash
			if i+1 < len(level) {
				right = level[i+1]
			} else {
				right = left
			}
			if left != nil && right != nil && *left == *right && i+1 < len(level) {
				return true
			}
			if left == nil {
				next = append(next, nil)
				continue
			}
			if right == nil {
				right = left // odd level: the final node is paired with itself
			}
			h := hashMerkleBranches(left, right)
			next = append(next, &h)
		}
		level = next
	}
	return false
}
