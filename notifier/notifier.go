// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notifier implements the validation engine's external event
// channel: a typed, ordered stream of chain-lifecycle events delivered on
// the engine strand's goroutine, replacing the observer-callback-map style
// of the original implementation with Go channels.
package notifier

import (
	"sync"

	"github.com/bchcore/bchnode/chaincfg/chainhash"
	"github.com/bchcore/bchnode/wire"
)

// Kind identifies the category of an Event.
type Kind int

// Recognized event kinds, emitted in the order Design Notes specifies:
// disconnected transactions first, then the new block's transactions,
// then the tip update, then a generic mempool-update signal.
const (
	TxSyncedOutOfBlock Kind = iota
	AllTransactionsInBlock
	BlockTipChanged
	MempoolUpdated
)

func (k Kind) String() string {
	switch k {
	case TxSyncedOutOfBlock:
		return "TxSyncedOutOfBlock"
	case AllTransactionsInBlock:
		return "AllTransactionsInBlock"
	case BlockTipChanged:
		return "BlockTipChanged"
	case MempoolUpdated:
		return "MempoolUpdated"
	default:
		return "Unknown"
	}
}

// Event is the payload delivered to a subscriber; fields not relevant to
// Kind are left at their zero value.
type Event struct {
	Kind Kind

	Tx    *wire.MsgTx
	Block *wire.MsgBlock

	Node          chainhash.Hash
	Height        int32
	IsInitialSync bool
}

// subscriberBuffer is how many undelivered events a subscriber's channel
// holds before being considered slow.
const subscriberBuffer = 64

// Notifier fans a sequential stream of Events out to any number of
// subscribers. Publish is called only from the engine strand, so delivery
// order across subscribers always matches emission order; a subscriber
// that does not keep up has its channel closed and its events dropped
// rather than blocking the strand, per §4.5's "must not block" contract.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
}

// New returns an empty Notifier.
func New() *Notifier {
	return &Notifier{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its channel and an id
// usable with Unsubscribe. The channel is closed by Unsubscribe or, if the
// subscriber falls behind, automatically by Publish.
func (n *Notifier) Subscribe() (<-chan Event, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	id := n.nextID
	n.nextID++
	n.subscribers[id] = ch
	return ch, id
}

// Unsubscribe removes and closes the subscriber registered under id, if
// still present.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if ch, ok := n.subscribers[id]; ok {
		close(ch)
		delete(n.subscribers, id)
	}
}

// Close unsubscribes and closes every current subscriber's channel, used
// at shutdown so no subscriber blocks forever waiting on an event that
// will never come.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.subscribers {
		close(ch)
		delete(n.subscribers, id)
	}
}

// Publish delivers ev to every current subscriber, dropping (and
// unsubscribing) any whose channel is full rather than blocking.
func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, ch := range n.subscribers {
		select {
		case ch <- ev:
		default:
			close(ch)
			delete(n.subscribers, id)
		}
	}
}
