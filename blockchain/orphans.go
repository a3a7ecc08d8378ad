// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/lru"
	"github.com/bchcore/bchnode/wire"
)

// maxOrphanBlocks bounds the orphan pool's memory use; the oldest orphan
// is evicted once the bound is exceeded.
const maxOrphanBlocks = 100

// orphanPool holds blocks accepted structurally but whose parent is not
// yet known, indexed both by their own hash (for eviction) and by their
// claimed parent hash (for adoption once that parent arrives), per the
// header-acceptance pipeline's step 4.
type orphanPool struct {
	byHash     *lru.Cache[chainhash.Hash, *wire.MsgBlock]
	byParent   map[chainhash.Hash][]chainhash.Hash
}

func newOrphanPool() *orphanPool {
	return &orphanPool{
		byHash:   lru.New[chainhash.Hash, *wire.MsgBlock](maxOrphanBlocks),
		byParent: make(map[chainhash.Hash][]chainhash.Hash),
	}
}

// add files block as an orphan, indexed under its claimed parent.
func (p *orphanPool) add(block *wire.MsgBlock) {
	hash := block.BlockHash()
	if p.byHash.Contains(hash) {
		return
	}
	p.byHash.Add(hash, block)
	parent := block.Header.PrevBlock
	p.byParent[parent] = append(p.byParent[parent], hash)
}

// takeChildrenOf removes and returns every orphan directly claiming
// parentHash as its parent.
func (p *orphanPool) takeChildrenOf(parentHash chainhash.Hash) []*wire.MsgBlock {
	hashes := p.byParent[parentHash]
	if len(hashes) == 0 {
		return nil
	}
	delete(p.byParent, parentHash)

	children := make([]*wire.MsgBlock, 0, len(hashes))
	for _, h := range hashes {
		if block, ok := p.byHash.Get(h); ok {
			children = append(children, block)
			p.byHash.Remove(h)
		}
	}
	return children
}
