// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bchcore/bchnode/chaincfg"
	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/database"
	"github.com/bchcore/bchnode/notifier"
	"github.com/bchcore/bchnode/utxo"
	"github.com/bchcore/bchnode/wire"
)

// BehaviorFlags gate optional steps of block processing, for callers that
// already know some of them to be unnecessary (headers-only sync skipping
// proof-of-work checks on known-checkpointed ranges, reorg replay skipping
// redundant sanity checks on blocks already known valid).
type BehaviorFlags uint32

const (
	// BFNone is the default: every check runs.
	BFNone BehaviorFlags = 0

	// BFNoPoWCheck skips ProcessBlock's header sanity check (proof of work
	// and future timestamp), used only by tests that feed synthetic headers.
	// A full block processed without BFFastAdd still has its header checked
	// by checkBlockSanity.
	BFNoPoWCheck BehaviorFlags = 1 << iota

	// BFFastAdd skips expensive checks already known to have passed, used
	// while replaying blocks already once validated (reorg reconnect).
	BFFastAdd
)

// inFlightState is the per-block bookkeeping the header-acceptance
// pipeline threads through duplicate detection, orphan adoption, and body
// admission.
type inFlightState int

const (
	stateCreated inFlightState = iota
	stateHeaderCheckDone
	stateOrphan
	stateScheduled
	stateBodyContextChecked
	stateBodyValidating
	stateFinalized
	stateFailed
)

type blockInFlight struct {
	node  *blockNode
	block *wire.MsgBlock
	state inFlightState
	err   error
}

// Config bundles everything BlockChain needs from its environment, set
// once at construction. A chaincfg.Params reload swaps only the
// supervisor's own pointer; a running BlockChain keeps the Params it was
// constructed with.
type Config struct {
	Params       *chaincfg.Params
	UTXOStore    utxo.Store
	BlockStore   *database.BlockStore
	Notifier     *notifier.Notifier
	MaxInFlight  int
	ValidityOnly bool
}

// BlockChain is the engine strand owner described by the concurrency
// model: a single goroutine (run via strand) serializes every mutation of
// the fork tree, orphan pool, and in-flight map, while a worker pool
// (sized to hardware concurrency) performs the context-free and chunked
// checks that do not need serialization.
type BlockChain struct {
	cfg Config

	strand chan func()
	wg     sync.WaitGroup

	index      *BlockIndex
	orphans    *orphanPool
	inFlight   map[chainhash.Hash]*blockInFlight
	best       *blockNode
	headerTip  *blockNode
	maxInFlight int

	shuttingDown chan struct{}
	closeOnce    sync.Once
}

// New constructs a BlockChain around the given genesis node, with an empty
// fork tree otherwise; the caller is expected to have already loaded any
// persisted chain state into cfg before this returns, or to call
// ProcessBlock with the genesis block first.
func New(cfg Config) *BlockChain {
	maxInFlight := cfg.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = runtime.NumCPU()
		if maxInFlight > 8 {
			maxInFlight = 8
		}
		if maxInFlight < 1 {
			maxInFlight = 1
		}
	}

	bc := &BlockChain{
		cfg:          cfg,
		strand:       make(chan func(), 64),
		index:        NewBlockIndex(),
		orphans:      newOrphanPool(),
		inFlight:     make(map[chainhash.Hash]*blockInFlight),
		maxInFlight:  maxInFlight,
		shuttingDown: make(chan struct{}),
	}

	genesis := newBlockNode(&cfg.Params.GenesisBlock.Header, nil)
	bc.index.AddNode(genesis)
	bc.best = genesis
	bc.headerTip = genesis

	bc.wg.Add(1)
	go bc.run()
	return bc
}

// run is the engine strand: every fork-tree/orphan-pool/in-flight-map
// mutation happens here, one closure at a time, giving the totally-ordered
// state-transition guarantee the concurrency model requires.
func (bc *BlockChain) run() {
	defer bc.wg.Done()
	for {
		select {
		case fn := <-bc.strand:
			fn()
		case <-bc.shuttingDown:
			return
		}
	}
}

// post schedules fn to run on the engine strand and blocks until it has,
// giving ProcessBlock's caller a synchronous-looking API over the
// internally asynchronous strand.
func (bc *BlockChain) post(fn func()) {
	done := make(chan struct{})
	select {
	case bc.strand <- func() { fn(); close(done) }:
	case <-bc.shuttingDown:
		return
	}
	select {
	case <-done:
	case <-bc.shuttingDown:
	}
}

// Shutdown sets the shutting-down flag; in-flight strand work finishes its
// current closure and the strand goroutine then exits, per the "bounded
// wait, interrupted by the flag rather than a timer" shutdown policy.
func (bc *BlockChain) Shutdown() {
	bc.closeOnce.Do(func() { close(bc.shuttingDown) })
	bc.wg.Wait()
}

// BestSnapshot is a point-in-time, safe-to-read-off-strand copy of the
// active chain tip, the kind of snapshot accessor §5 requires readers
// outside the engine strand to go through.
type BestSnapshot struct {
	Hash   chainhash.Hash
	Height int32
	Bits   uint32
}

// BestSnapshot returns the current active-chain tip.
func (bc *BlockChain) BestSnapshot() BestSnapshot {
	var snap BestSnapshot
	bc.post(func() {
		snap = BestSnapshot{Hash: bc.best.hash, Height: bc.best.height, Bits: bc.best.bits}
	})
	return snap
}

// DeploymentStates returns the current BIP9 threshold state of every voted
// consensus deployment Params declares for the currently active chain
// tip's version-bits window. BCH's own hard forks are all fixed-height and
// never populate Params.Deployments, so in ordinary operation this returns
// an empty map; it exists so a network configuration that does declare a
// deployment (as some test and sidechain configurations do) gets the same
// BIP9 accounting a voted rule change needs.
func (bc *BlockChain) DeploymentStates() map[uint8]ThresholdState {
	states := make(map[uint8]ThresholdState)
	bc.post(func() {
		for _, deployments := range bc.cfg.Params.Deployments {
			for _, d := range deployments {
				states[d.BitNumber] = calcThresholdState(bc.best, d, bc.cfg.Params)
			}
		}
	})
	return states
}

// ProcessBlock runs a received block (full body or header-only) through
// the header-acceptance pipeline and, if admitted, through body
// validation, returning whether it joined the active chain, whether it
// was filed as an orphan for lack of a known parent, and any error.
func (bc *BlockChain) ProcessBlock(block *wire.MsgBlock, flags BehaviorFlags) (isMainChain bool, isOrphan bool, err error) {
	hash := block.BlockHash()

	if flags&BFNoPoWCheck == 0 {
		if chkErr := checkBlockHeaderSanity(&block.Header, bc.cfg.Params, time.Now()); chkErr != nil {
			return false, false, chkErr
		}
	}
	if block.HasBody() && flags&BFFastAdd == 0 {
		if chkErr := checkBlockSanity(block, bc.cfg.Params, time.Now()); chkErr != nil {
			return false, false, chkErr
		}
	}

	bc.post(func() {
		isMainChain, isOrphan, err = bc.acceptLocked(hash, block, flags)
	})
	return isMainChain, isOrphan, err
}

// acceptLocked implements header-acceptance pipeline steps 2-6; it runs on
// the engine strand and so may touch bc.index/bc.orphans/bc.inFlight
// without further synchronization.
func (bc *BlockChain) acceptLocked(hash chainhash.Hash, block *wire.MsgBlock, flags BehaviorFlags) (bool, bool, error) {
	// Step 2: duplicate detection.
	if existing, ok := bc.inFlight[hash]; ok {
		if block.HasBody() && existing.block == nil {
			existing.block = block
		}
		return existing.node == bc.best, existing.state == stateOrphan, existing.err
	}
	if existingNode := bc.index.LookupNode(hash); existingNode != nil && !block.HasBody() {
		return existingNode == bc.best, false, nil
	}

	// Step 3: index creation / linkage.
	var parent *blockNode
	if pending, ok := bc.inFlight[block.Header.PrevBlock]; ok {
		parent = pending.node
	} else {
		parent = bc.index.LookupNode(block.Header.PrevBlock)
	}

	if parent == nil {
		// Step 4a: orphan.
		bc.orphans.add(block)
		return false, true, nil
	}

	node := bc.index.LookupNode(hash)
	if node == nil {
		node = newBlockNode(&block.Header, parent)
		bc.index.AddNode(node)
	}

	state := &blockInFlight{node: node, block: block, state: stateHeaderCheckDone}
	bc.inFlight[hash] = state

	if flags&BFFastAdd == 0 {
		if err := checkBlockHeaderContext(&block.Header, parent, bc.cfg.Params); err != nil {
			state.state = stateFailed
			state.err = err
			bc.failDescendants(node, err)
			return false, false, err
		}
	}

	// Step 4b: adopt any orphans that were waiting on this node.
	bc.adoptOrphans(node)

	// Step 5: header-chain update.
	if node.height > bc.headerTip.height {
		bc.headerTip = node
	}

	isMain := false
	tipChanged := false
	if parent == bc.best {
		bc.best = node
		isMain = true
		tipChanged = true
	} else if node.height > bc.best.height {
		// A competing chain has pulled ahead; a reorg replay is required.
		if err := bc.reorganize(node); err != nil {
			state.state = stateFailed
			state.err = err
			return false, false, err
		}
		isMain = true
	}

	// Step 6: body admission.
	if block.HasBody() && len(bc.inFlight) <= bc.maxInFlight {
		if err := bc.validateBody(node, block); err != nil {
			state.state = stateFailed
			state.err = err
			bc.failDescendants(node, err)
			return false, false, err
		}
		state.state = stateFinalized
	} else {
		state.state = stateScheduled
	}

	// The tip change is announced after validateBody has published the
	// block's transaction events.
	if tipChanged && bc.cfg.Notifier != nil {
		bc.cfg.Notifier.Publish(notifier.Event{Kind: notifier.BlockTipChanged, Node: node.hash, Height: node.height})
	}

	delete(bc.inFlight, hash)
	return isMain, false, nil
}

// adoptOrphans recursively moves any orphan whose parent hash is now
// parent's hash out of the orphan pool and re-runs acceptLocked on it,
// implementing header-acceptance step 4's "recursively adopt" rule.
func (bc *BlockChain) adoptOrphans(parent *blockNode) {
	for _, child := range bc.orphans.takeChildrenOf(parent.hash) {
		_, _, _ = bc.acceptLocked(child.BlockHash(), child, BFNone)
	}
}

// failDescendants marks every in-flight node descending from node as
// Invalid, per the error-handling policy that a failure propagates
// downward through the fork subtree.
func (bc *BlockChain) failDescendants(node *blockNode, cause error) {
	for _, state := range bc.inFlight {
		for n := state.node; n != nil; n = n.parent {
			if n == node {
				state.state = stateFailed
				state.err = fmt.Errorf("ancestor invalid: %w", cause)
				break
			}
		}
	}
}
