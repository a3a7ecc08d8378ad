// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"runtime"
	"sync"
	"time"

	"github.com/bchcore/bchnode/database"
	"github.com/bchcore/bchnode/notifier"
	"github.com/bchcore/bchnode/txscript"
	"github.com/bchcore/bchnode/utxo"
	"github.com/bchcore/bchnode/wire"
)

// sigopAcceptLimit caps the total signature operations a block may claim,
// a structural anti-DoS bound independent of the actual script execution
// cost.
const sigopAcceptLimit = 20000

// validationHorizon bounds how many blocks behind the current header tip
// full script validation still runs; blocks further back than this are
// assumed already checkpointed/assumed-valid territory and only get the
// structural/UTXO bookkeeping pass. This mirrors the "within 1008 blocks
// of header tip" rule.
const validationHorizon = 1008

// chunkResult is what one worker-pool chunk reports back to the
// single-threaded finalization step.
type chunkResult struct {
	fees   int64
	sigOps int
	undo   []database.UndoEntry
	err    error
}

// validateBody runs body validation (§4.2 "Body validation") for node: the
// serial context checks, the UTXO pre-insert pass, the parallel chunked
// input check, and single-threaded finalization. It is called only from
// the engine strand, but performs no fork-tree/orphan-pool/in-flight-map
// mutation itself, keeping the actual heavy lifting off the strand except
// for its final bookkeeping.
func (bc *BlockChain) validateBody(node *blockNode, block *wire.MsgBlock) error {
	parent := node.parent

	if err := bc.checkBodyContext(node, parent, block); err != nil {
		return err
	}

	store := bc.cfg.UTXOStore
	blockData := utxo.BlockData{Height: node.height, Hash: node.hash, Entries: make(map[utxo.Outpoint]utxo.Entry, len(block.Transactions))}
	for txIdx, tx := range block.Transactions {
		txHash := tx.TxHash()
		for outIdx, out := range tx.TxOut {
			blockData.Entries[utxo.Outpoint{Hash: txHash, Index: uint32(outIdx)}] = utxo.Entry{
				Amount:      out.Value,
				PkScript:    out.PkScript,
				Height:      node.height,
				IsCoinbase:  txIdx == 0,
				BlockOffset: uint32(txIdx),
			}
		}
	}
	if err := store.InsertAll(blockData); err != nil {
		return ruleError(ErrMissingTxOut, "UTXO pre-insert failed: "+err.Error())
	}

	spends := block.Transactions[1:]
	numWorkers := runtime.NumCPU()
	if numWorkers > len(spends) {
		numWorkers = len(spends)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	results := make([]chunkResult, numWorkers)
	chunkSize := (len(spends) + numWorkers - 1) / numWorkers
	if chunkSize < 1 {
		chunkSize = 1
	}

	runScripts := bc.headerTip.height-node.height < validationHorizon
	flags := ScriptFlagsForBlock(node.height, bc.cfg.Params)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if start >= len(spends) {
			break
		}
		if end > len(spends) {
			end = len(spends)
		}
		wg.Add(1)
		go func(idx int, txs []*wire.MsgTx) {
			defer wg.Done()
			results[idx] = bc.validateChunk(node, txs, store, runScripts, flags)
		}(w, spends[start:end])
	}
	wg.Wait()

	var totalFees int64
	var totalSigOps int
	var undo []database.UndoEntry
	var firstErr error
	for _, r := range results {
		if r.err != nil && firstErr == nil {
			firstErr = r.err
			continue
		}
		totalFees += r.fees
		totalSigOps += r.sigOps
		undo = append(undo, r.undo...)
	}

	if firstErr != nil {
		_ = store.Rollback()
		return firstErr
	}

	for _, tx := range block.Transactions {
		totalSigOps += txscript.CountSigOps(tx.TxIn[0].SignatureScript)
	}
	if totalSigOps > sigopAcceptLimit {
		_ = store.Rollback()
		return ruleError(ErrTooManySigOps, "block exceeds the signature operation limit")
	}

	var coinbaseOut int64
	for _, out := range block.Transactions[0].TxOut {
		coinbaseOut += out.Value
	}
	maxSubsidy := CalcBlockSubsidy(node.height, bc.cfg.Params) + totalFees
	if coinbaseOut > maxSubsidy {
		_ = store.Rollback()
		return ruleError(ErrSpendTooHigh, "coinbase claims more than the allowed subsidy plus fees")
	}

	if bc.cfg.BlockStore != nil {
		if err := bc.cfg.BlockStore.WriteBlock(block, node.height, undo); err != nil {
			_ = store.Rollback()
			return ruleError(ErrMissingTxOut, "failed writing block to disk: "+err.Error())
		}
	}

	if err := store.BlockFinished(node.height, node.hash); err != nil {
		return ruleError(ErrMissingTxOut, "UTXO commit failed: "+err.Error())
	}

	if bc.cfg.Notifier != nil {
		bc.cfg.Notifier.Publish(notifier.Event{Kind: notifier.AllTransactionsInBlock, Block: block})
	}
	return nil
}

// validateChunk runs the per-transaction input resolution, script
// verification, and fee/sigop accounting for one worker-pool chunk's share
// of a block's non-coinbase transactions.
func (bc *BlockChain) validateChunk(node *blockNode, txs []*wire.MsgTx, store utxo.Store, runScripts bool, flags txscript.ScriptFlags) chunkResult {
	var res chunkResult
	for _, tx := range txs {
		prevOuts := make([]wire.TxOut, len(tx.TxIn))
		var inputTotal int64
		for i, in := range tx.TxIn {
			op := utxo.Outpoint{Hash: in.PreviousOutPoint.Hash, Index: in.PreviousOutPoint.Index}
			entry, err := store.Find(op)
			if err != nil {
				res.err = ruleError(ErrMissingTxOut, "missing-inputs")
				return res
			}
			if entry.IsCoinbase && !TotalInputMayBeClaimed(entry.Height, node.height, bc.cfg.Params) {
				res.err = ruleError(ErrImmatureSpend, "attempt to spend an immature coinbase output")
				return res
			}
			if bip68Active(node.height, bc.cfg.Params) {
				if err := checkSequenceLock(node, tx, in.Sequence, entry.Height); err != nil {
					res.err = err
					return res
				}
			}
			prevOuts[i] = wire.TxOut{Value: entry.Amount, PkScript: entry.PkScript}
			inputTotal += entry.Amount

			if _, err := store.Remove(op, nil); err != nil {
				res.err = ruleError(ErrDoubleSpend, "double spend detected")
				return res
			}
			res.undo = append(res.undo, database.UndoEntry{
				PrevHash:   op.Hash,
				PrevIndex:  op.Index,
				PrevHeight: entry.Height,
				Offset:     entry.BlockOffset,
				Amount:     entry.Amount,
				PkScript:   entry.PkScript,
				IsCoinbase: entry.IsCoinbase,
			})
		}

		var outputTotal int64
		for _, out := range tx.TxOut {
			outputTotal += out.Value
		}
		if outputTotal > inputTotal {
			res.err = ruleError(ErrBadFees, "transaction outputs exceed inputs")
			return res
		}
		res.fees += inputTotal - outputTotal

		if runScripts {
			checker := &txscript.TxSigChecker{Tx: tx, PrevOuts: prevOuts}
			for i, in := range tx.TxIn {
				checker.InputIdx = i
				engine := txscript.NewEngine(checker, nil, flags)
				if err := engine.Verify(in.SignatureScript, prevOuts[i].PkScript); err != nil {
					res.err = ruleError(ErrScriptValidation, "script validation failed: "+err.Error())
					return res
				}
			}
		}
		for _, in := range tx.TxIn {
			res.sigOps += txscript.CountSigOps(in.SignatureScript)
		}
	}
	return res
}

// Relative-locktime (BIP68) field layout within an nSequence value, mirrored
// from txscript's own copy since OP_CHECKSEQUENCEVERIFY and the transaction-
// level sequence lock described here are two independent consumers of the
// same encoding.
const (
	seqLockDisableFlag = 1 << 31
	seqLockTypeFlag    = 1 << 22
	seqLockMask        = 0x0000ffff
	seqLockGranularity = 512 // seconds per time-based sequence unit
)

// checkSequenceLock implements BIP68's consensus-enforced relative
// lock-time: independent of any OP_CHECKSEQUENCEVERIFY in its script, a
// version>=2 input with the disable flag unset may not be spent until the
// requested number of blocks, or seconds of median time, have passed since
// the output it spends was confirmed.
func checkSequenceLock(node *blockNode, tx *wire.MsgTx, sequence uint32, confirmedHeight int32) error {
	if tx.Version < 2 || sequence&seqLockDisableFlag != 0 {
		return nil
	}
	relative := int32(sequence & seqLockMask)

	if sequence&seqLockTypeFlag != 0 {
		var refTime time.Time
		if confirmedHeight > 0 {
			if anc := node.ancestor(confirmedHeight - 1); anc != nil {
				refTime = calcPastMedianTime(anc)
			}
		}
		required := refTime.Add(time.Duration(relative) * seqLockGranularity * time.Second)
		if calcPastMedianTime(node.parent).Before(required) {
			return ruleError(ErrInvalidTime, "transaction's relative time-lock has not matured")
		}
		return nil
	}

	if node.height < confirmedHeight+relative {
		return ruleError(ErrInvalidTime, "transaction's relative height-lock has not matured")
	}
	return nil
}

// checkBodyContext implements the serial per-block context checks that
// precede UTXO pre-insert: version super-majority obsolescence, BIP34
// coinbase height, and the HF-2018-11 minimum transaction size.
func (bc *BlockChain) checkBodyContext(node *blockNode, parent *blockNode, block *wire.MsgBlock) error {
	params := bc.cfg.Params
	window := int32(1000)
	threshold := int32(95)
	if params.Name != "mainnet" {
		threshold = 75
	}

	if block.Header.Version < 2 && checkVersionSuperMajority(parent, 2, threshold, 100, window) {
		return ruleError(ErrBlockVersionTooOld, "version 1 blocks are no longer accepted")
	}
	if block.Header.Version < 3 && checkVersionSuperMajority(parent, 3, threshold, 100, window) {
		return ruleError(ErrBlockVersionTooOld, "version 2 blocks are no longer accepted")
	}
	if block.Header.Version < 4 && checkVersionSuperMajority(parent, 4, threshold, 100, window) {
		return ruleError(ErrBlockVersionTooOld, "version 3 blocks are no longer accepted")
	}

	if bip34Active(node.height, params) {
		if err := checkSerializedHeight(block.Transactions[0], node.height); err != nil {
			return err
		}
	}

	if magneticActive(node.height, params) {
		for i, tx := range block.Transactions {
			if tx.SerializeSize() < minHF201811TxSize {
				return ruleError(ErrBlockTooBig, "transaction is smaller than the post-upgrade minimum size")
			}
			if i > 1 && block.Transactions[i-1].TxHash().String() >= tx.TxHash().String() {
				return ruleError(ErrDuplicateTx, "tx-ordering-not-CTOR")
			}
		}
	}
	return nil
}
