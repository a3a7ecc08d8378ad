// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sort"
	"time"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/math/uint256"
	"github.com/bchcore/bchnode/wire"
)

// medianTimeBlocks is the number of previous blocks, including the node
// itself, whose timestamps are considered when calculating a node's past
// median time.
const medianTimeBlocks = 11

// blockNode represents a block in the tree of known chains. Only the header
// fields needed for validation and difficulty/work bookkeeping are kept;
// the block's transactions live in the block store, not in the index.
type blockNode struct {
	parent *blockNode

	hash   chainhash.Hash
	height int32

	version    int32
	bits       uint32
	timestamp  uint32
	nonce      uint32
	merkleRoot chainhash.Hash

	// workSum is the total accumulated proof of work from genesis through
	// this node, inclusive. It uses the fixed-width math/uint256 type
	// rather than math/big, since every node on an active chain needs one
	// and a fixed-width add is cheaper than big.Int's allocations.
	workSum uint256.Uint256
}

// newBlockNode builds a node from a header and wires it to its parent. The
// caller is responsible for having already validated that header against
// parent (newBlockNode does no validation of its own).
func newBlockNode(header *wire.BlockHeader, parent *blockNode) *blockNode {
	node := &blockNode{
		parent:     parent,
		hash:       header.BlockHash(),
		version:    header.Version,
		bits:       header.Bits,
		timestamp:  header.Timestamp,
		nonce:      header.Nonce,
		merkleRoot: header.MerkleRoot,
	}
	if parent != nil {
		node.height = parent.height + 1
		node.workSum = uint256.Add(parent.workSum, uint256.WorkFromCompact(header.Bits))
	} else {
		node.workSum = uint256.WorkFromCompact(header.Bits)
	}
	return node
}

// Header reconstructs the wire header this node was built from.
func (node *blockNode) Header() wire.BlockHeader {
	prevHash := chainhash.Hash{}
	if node.parent != nil {
		prevHash = node.parent.hash
	}
	return wire.BlockHeader{
		Version:    node.version,
		PrevBlock:  prevHash,
		MerkleRoot: node.merkleRoot,
		Timestamp:  node.timestamp,
		Bits:       node.bits,
		Nonce:      node.nonce,
	}
}

// relativeAncestor returns the ancestor of node distance blocks back, or nil
// if distance exceeds the node's height.
func (node *blockNode) relativeAncestor(distance int32) *blockNode {
	if distance < 0 || distance > node.height {
		return nil
	}
	n := node
	for i := int32(0); i < distance && n != nil; i++ {
		n = n.parent
	}
	return n
}

// ancestor returns the ancestor of node at the given height, or nil if
// height is out of range for node's chain.
func (node *blockNode) ancestor(height int32) *blockNode {
	if height < 0 || height > node.height {
		return nil
	}
	return node.relativeAncestor(node.height - height)
}

// calcPastMedianTime returns the median of the timestamps of node and up to
// the preceding medianTimeBlocks-1 ancestors, the timestamp rule actually
// enforced against (BIP113-style) rather than a block's own nTime: it is
// monotonic along a chain even though individual block timestamps are not.
func calcPastMedianTime(node *blockNode) time.Time {
	timestamps := make([]uint32, 0, medianTimeBlocks)
	for n := node; n != nil && len(timestamps) < medianTimeBlocks; n = n.parent {
		timestamps = append(timestamps, n.timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return time.Unix(int64(timestamps[len(timestamps)/2]), 0)
}

// BlockIndex is an in-memory index of every known block header, keyed by
// hash, used to answer ancestry and best-chain-work queries without going
// back to the block store. It is populated as headers are received and
// validated, ahead of any block body arriving.
type BlockIndex struct {
	nodes map[chainhash.Hash]*blockNode
}

// NewBlockIndex returns an empty index.
func NewBlockIndex() *BlockIndex {
	return &BlockIndex{nodes: make(map[chainhash.Hash]*blockNode)}
}

// AddNode registers node in the index, keyed by its block hash.
func (bi *BlockIndex) AddNode(node *blockNode) {
	bi.nodes[node.hash] = node
}

// LookupNode returns the node for hash, or nil if it is not indexed.
func (bi *BlockIndex) LookupNode(hash chainhash.Hash) *blockNode {
	return bi.nodes[hash]
}

// HaveBlock reports whether hash is already indexed.
func (bi *BlockIndex) HaveBlock(hash chainhash.Hash) bool {
	_, ok := bi.nodes[hash]
	return ok
}
