// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import (
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/bchcore/bchnode/container/apbf"
)

// LoginServiceID and LoginMessageID address the auto-login message every
// outbound connection sends before any user traffic, when a cookie file
// is configured.
const (
	LoginServiceID = -1
	LoginMessageID = -1

	// TagCookieData is the tag carrying the raw cookie bytes inside a
	// login message's body.
	TagCookieData = 10

	maxCookieSize = 1000
)

// BanStore is the address-reputation store a Manager consults before
// accepting a connection. addrmgr implements it. Manager itself only calls
// IsBanned; it never records a ban through Ban.
type BanStore interface {
	IsBanned(host string) bool
	Ban(host string, duration time.Duration)
}

// Config bundles everything a Manager needs to accept and dial
// connections.
type Config struct {
	// ListenAddr, if non-empty, is bound for inbound connections.
	ListenAddr string

	// MaxInbound caps concurrently accepted inbound connections.
	MaxInbound int

	Bans    BanStore
	Handler Handler

	// CookiePath, if set, is read fresh on every outbound dial and sent
	// as a login message ahead of user traffic.
	CookiePath string

	// Dial overrides the network dialer (for SOCKS-proxied outbound
	// connections); nil uses net.Dial.
	Dial func(network, address string) (net.Conn, error)
}

// Manager owns a listener and the bookkeeping shared by every connection
// it accepts or dials: id allocation, ban checks, and a rotating filter of
// recently seen items that MarkSeen uses to suppress duplicate relay.
type Manager struct {
	cfg Config

	nextID uint64 // atomic

	listener net.Listener
	wg       sync.WaitGroup
	quit     chan struct{}

	seen   *apbf.Filter
	seenMu sync.Mutex

	rotateStop chan struct{}
}

// NewManager constructs a Manager around cfg. Call Listen to begin
// accepting inbound connections.
func NewManager(cfg Config) *Manager {
	if cfg.MaxInbound <= 0 {
		cfg.MaxInbound = 125
	}
	m := &Manager{
		cfg:        cfg,
		quit:       make(chan struct{}),
		seen:       apbf.New(6, 4096, 0.01),
		rotateStop: make(chan struct{}),
	}
	go m.rotateLoop()
	return m
}

// rotateLoop ages out the seen-recently filter once an hour, the same
// cadence addrmgr's expired-ban eviction task runs on.
func (m *Manager) rotateLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.seenMu.Lock()
			m.seen.Rotate()
			m.seenMu.Unlock()
		case <-m.rotateStop:
			return
		}
	}
}

// MarkSeen records item as recently observed and reports whether it had
// already been marked this window, letting callers cheaply suppress
// duplicate relay of a message they just handled on another connection.
func (m *Manager) MarkSeen(item []byte) (alreadySeen bool) {
	m.seenMu.Lock()
	defer m.seenMu.Unlock()
	if m.seen.Contains(item) {
		return true
	}
	m.seen.Insert(item)
	return false
}

// SetAutoLogin configures (or disables, given "") the cookie file path
// sent as a login message ahead of user traffic on every subsequent
// outbound dial.
func (m *Manager) SetAutoLogin(cookiePath string) {
	m.cfg.CookiePath = cookiePath
}

func (m *Manager) allocID() uint64 {
	return atomic.AddUint64(&m.nextID, 1)
}

// Listen binds cfg.ListenAddr and accepts inbound connections until
// Shutdown is called.
func (m *Manager) Listen() error {
	if m.cfg.ListenAddr == "" {
		return nil
	}
	ln, err := net.Listen("tcp", m.cfg.ListenAddr)
	if err != nil {
		return err
	}
	m.listener = netutil.LimitListener(ln, m.cfg.MaxInbound)

	m.wg.Add(1)
	go m.acceptLoop()
	return nil
}

func (m *Manager) acceptLoop() {
	defer m.wg.Done()
	for {
		nc, err := m.listener.Accept()
		if err != nil {
			select {
			case <-m.quit:
				return
			default:
				log.Warnf("transport: accept failed: %v", err)
				continue
			}
		}

		host, _, _ := net.SplitHostPort(nc.RemoteAddr().String())
		if m.cfg.Bans != nil && m.cfg.Bans.IsBanned(host) {
			nc.Close()
			continue
		}

		NewConn(m.allocID(), nc, false, m.cfg.Handler)
	}
}

// DialOnce makes a single outbound connection attempt to address,
// performing the auto-login handshake before returning the connection to
// the caller. Reconnect scheduling and backoff live in connmgr, one layer
// up; Manager only ever tries once per call.
func (m *Manager) DialOnce(network, address string) (*Conn, error) {
	dial := m.cfg.Dial
	if dial == nil {
		dial = net.Dial
	}
	nc, err := dial(network, address)
	if err != nil {
		return nil, err
	}

	c := NewConn(m.allocID(), nc, true, m.cfg.Handler)

	if m.cfg.CookiePath != "" {
		cookie, err := os.ReadFile(m.cfg.CookiePath)
		if err != nil {
			c.Close(err)
			return nil, fmt.Errorf("transport: reading login cookie: %w", err)
		}
		if len(cookie) < maxCookieSize {
			body := EncodeItems([]Item{bytesItem(TagCookieData, cookie)})
			if err := c.SendPriority(Message{ServiceID: LoginServiceID, MessageID: LoginMessageID, Body: body}); err != nil {
				c.Close(err)
				return nil, fmt.Errorf("transport: sending login message: %w", err)
			}
		}
	}

	return c, nil
}

// Shutdown closes the listener, if any, and stops background
// maintenance. It does not close already-accepted connections; callers
// track those separately and close them explicitly.
func (m *Manager) Shutdown() {
	close(m.quit)
	close(m.rotateStop)
	if m.listener != nil {
		m.listener.Close()
	}
	m.wg.Wait()
}
