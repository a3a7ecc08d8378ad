// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer turns a raw transport.Conn into an addressable network
// peer: handshake bookkeeping, a message dispatcher hookup, and the
// connect/disconnect lifecycle callbacks the rest of the node hangs its
// own behavior off of.
package peer

import (
	"sync"
	"time"

	"github.com/bchcore/bchnode/transport"
)

// Dispatcher routes an inbound message to whatever subsystem owns its
// service id (block relay, mempool relay, RPC-over-transport, …).
// Peer itself stays ignorant of what any service id means.
type Dispatcher interface {
	Dispatch(p *Peer, msg transport.Message)
}

// Peer is one connected remote node.
type Peer struct {
	conn        *transport.Conn
	connectedAt time.Time
}

// ID returns the peer's connection-local identifier.
func (p *Peer) ID() uint64 { return p.conn.ID() }

// Outbound reports whether the local node dialed this peer.
func (p *Peer) Outbound() bool { return p.conn.Outbound() }

// Addr returns the peer's remote socket address.
func (p *Peer) Addr() string { return p.conn.RemoteAddr().String() }

// ConnectedAt returns when the handshake completed.
func (p *Peer) ConnectedAt() time.Time { return p.connectedAt }

// Send queues msg for delivery on the normal queue.
func (p *Peer) Send(msg transport.Message) error { return p.conn.Send(msg) }

// SendPriority queues msg ahead of normal traffic.
func (p *Peer) SendPriority(msg transport.Message) error { return p.conn.SendPriority(msg) }

// AddBanScore adds n to the peer's misbehavior counter, closing the
// connection once it reaches the transport ban-score limit.
func (p *Peer) AddBanScore(n int32) int32 { return p.conn.AddBanScore(n) }

// Disconnect closes the underlying connection.
func (p *Peer) Disconnect() { p.conn.Close(nil) }

// Manager tracks every currently connected Peer and implements
// transport.Handler, turning raw connection events into peer lifecycle
// callbacks.
type Manager struct {
	mu    sync.Mutex
	peers map[uint64]*Peer

	dispatcher Dispatcher

	OnConnected    func(*Peer)
	OnDisconnected func(*Peer)
}

// NewManager constructs an empty peer Manager routing messages to
// dispatcher.
func NewManager(dispatcher Dispatcher) *Manager {
	return &Manager{peers: make(map[uint64]*Peer), dispatcher: dispatcher}
}

// Peers returns a snapshot of every currently connected peer.
func (m *Manager) Peers() []*Peer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Peer, 0, len(m.peers))
	for _, p := range m.peers {
		out = append(out, p)
	}
	return out
}

// Count returns the number of currently connected peers.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.peers)
}

// HandleProtocolGreeting admits the connection as a peer once its first
// frame has been validated by transport.
func (m *Manager) HandleProtocolGreeting(c *transport.Conn, items []transport.Item) error {
	p := &Peer{conn: c, connectedAt: time.Now()}
	m.mu.Lock()
	m.peers[c.ID()] = p
	m.mu.Unlock()

	if m.OnConnected != nil {
		m.OnConnected(p)
	}
	return nil
}

// HandleMessage forwards msg to the dispatcher, if any, on behalf of the
// peer that owns c.
func (m *Manager) HandleMessage(c *transport.Conn, msg transport.Message) {
	m.mu.Lock()
	p := m.peers[c.ID()]
	m.mu.Unlock()
	if p == nil || m.dispatcher == nil {
		return
	}
	m.dispatcher.Dispatch(p, msg)
}

// HandleClose drops the peer from the tracked set and fires
// OnDisconnected.
func (m *Manager) HandleClose(c *transport.Conn, err error) {
	m.mu.Lock()
	p := m.peers[c.ID()]
	delete(m.peers, c.ID())
	m.mu.Unlock()

	if p == nil {
		return
	}
	if err != nil {
		log.Debugf("peer: %s disconnected: %v", p.Addr(), err)
	}
	if m.OnDisconnected != nil {
		m.OnDisconnected(p)
	}
}
