// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"

	"github.com/bchcore/bchnode/notifier"
	"github.com/bchcore/bchnode/utxo"
)

// maxReorgDepth bounds how far back a competing chain may fork before it
// is refused automatically rather than replayed, per the header-chain
// update rule: "if it diverges ≤ 6 blocks deep, schedule a replay; if > 6,
// log a warning and require manual intervention."
const maxReorgDepth = 6

// reorganize replays the active chain from bc.best to newTip, disconnecting
// blocks back to their common ancestor and reconnecting forward along
// newTip's branch. It runs on the engine strand, so no further
// synchronization is needed around bc.best/bc.index.
func (bc *BlockChain) reorganize(newTip *blockNode) error {
	ancestor := findCommonAncestor(bc.best, newTip)
	if ancestor == nil {
		return AssertError("reorganize: no common ancestor between active tip and candidate")
	}
	if bc.best.height-ancestor.height > maxReorgDepth {
		return ruleError(ErrMissingParent, "competing chain forks too deep below the active tip for automatic reorg")
	}

	if bc.cfg.BlockStore == nil {
		return AssertError("reorganize: no block store configured to replay undo data")
	}

	// Disconnect the active chain down to the common ancestor.
	for n := bc.best; n != nil && n != ancestor; n = n.parent {
		if err := bc.disconnectBlock(n); err != nil {
			return fmt.Errorf("disconnecting block %s: %w", n.hash, err)
		}
	}
	bc.best = ancestor

	// Reconnect forward along newTip's branch, oldest first.
	var chain []*blockNode
	for n := newTip; n != nil && n != ancestor; n = n.parent {
		chain = append([]*blockNode{n}, chain...)
	}
	for _, n := range chain {
		block, err := bc.cfg.BlockStore.ReadBlock(n.hash)
		if err != nil {
			return fmt.Errorf("reading block %s for reconnect: %w", n.hash, err)
		}
		if err := bc.validateBody(n, block); err != nil {
			return fmt.Errorf("reconnecting block %s: %w", n.hash, err)
		}
		bc.best = n
	}

	return nil
}

// disconnectBlock undoes node's effect on the UTXO set by loading its undo
// block and applying each entry in reverse: an output this block inserted
// is removed again, an output this block spent is reinserted.
func (bc *BlockChain) disconnectBlock(node *blockNode) error {
	block, err := bc.cfg.BlockStore.ReadBlock(node.hash)
	if err != nil {
		return err
	}
	undo, err := bc.cfg.BlockStore.ReadUndoBlock(node.hash)
	if err != nil {
		return err
	}

	store := bc.cfg.UTXOStore
	for _, tx := range block.Transactions {
		txHash := tx.TxHash()
		for outIdx := range tx.TxOut {
			op := utxo.Outpoint{Hash: txHash, Index: uint32(outIdx)}
			if _, err := store.Remove(op, nil); err != nil {
				return fmt.Errorf("removing output reinserted by disconnect: %w", err)
			}
		}
		if bc.cfg.Notifier != nil && !tx.IsCoinBase() {
			bc.cfg.Notifier.Publish(notifier.Event{Kind: notifier.TxSyncedOutOfBlock, Tx: tx})
		}
	}

	for _, u := range undo {
		op := utxo.Outpoint{Hash: u.PrevHash, Index: u.PrevIndex}
		if err := store.Insert(op, utxo.Entry{
			Amount:      u.Amount,
			PkScript:    u.PkScript,
			Height:      u.PrevHeight,
			IsCoinbase:  u.IsCoinbase,
			BlockOffset: u.Offset,
		}); err != nil {
			return fmt.Errorf("restoring spent output: %w", err)
		}
	}

	return store.BlockFinished(node.parent.height, node.parent.hash)
}

// findCommonAncestor walks both nodes back to equal height, then in
// lockstep, until the chains meet.
func findCommonAncestor(a, b *blockNode) *blockNode {
	for a != nil && b != nil && a.height > b.height {
		a = a.parent
	}
	for a != nil && b != nil && b.height > a.height {
		b = b.parent
	}
	for a != nil && b != nil && a != b {
		a = a.parent
		b = b.parent
	}
	return a
}
