// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package addrmgr tracks known peer addresses and temporary bans. It
// backs transport.Manager's BanStore and remembers bans recorded through
// Ban across reconnect attempts and, when persisted, restarts. The
// transport package's ban-score limit closes a connection without calling
// Ban.
package addrmgr

import (
	"encoding/json"
	"net"
	"os"
	"sync"
	"time"
)

// knownAddress is one remembered peer endpoint.
type knownAddress struct {
	addr       string
	lastSeen   time.Time
	lastAttempt time.Time
	attempts   int
}

// Manager tracks known addresses and active bans. All methods are safe
// for concurrent use; the maintenance task (evicting expired bans) runs on
// its own goroutine started by Start.
type Manager struct {
	mu sync.Mutex

	addrs map[string]*knownAddress
	bans  map[string]time.Time // host -> ban expiry

	// banFile, if set, is where bans are persisted so a restart does not
	// forget an active ban.
	banFile string

	quit chan struct{}
	wg   sync.WaitGroup
}

// New constructs an empty Manager.
func New() *Manager {
	return &Manager{
		addrs: make(map[string]*knownAddress),
		bans:  make(map[string]time.Time),
		quit:  make(chan struct{}),
	}
}

// NewPersisted constructs a Manager that loads its ban list from banFile
// (if it exists) and rewrites it on every Ban/eviction.
func NewPersisted(banFile string) *Manager {
	m := New()
	m.banFile = banFile
	m.loadBans()
	return m
}

func (m *Manager) loadBans() {
	if m.banFile == "" {
		return
	}
	data, err := os.ReadFile(m.banFile)
	if err != nil {
		return
	}
	var bans map[string]time.Time
	if err := json.Unmarshal(data, &bans); err != nil {
		log.Warnf("addrmgr: discarding corrupt ban file %s: %v", m.banFile, err)
		return
	}
	m.mu.Lock()
	m.bans = bans
	m.mu.Unlock()
}

// saveBans writes the current ban list to banFile; the caller must hold
// m.mu.
func (m *Manager) saveBans() {
	if m.banFile == "" {
		return
	}
	data, err := json.Marshal(m.bans)
	if err != nil {
		return
	}
	if err := os.WriteFile(m.banFile, data, 0o600); err != nil {
		log.Warnf("addrmgr: failed to persist ban list: %v", err)
	}
}

// Start launches the once-an-hour maintenance task that evicts expired
// bans, matching the maintenance cadence transport.Manager's seen-filter
// rotation uses.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.maintenanceLoop()
}

// Stop halts the maintenance task.
func (m *Manager) Stop() {
	close(m.quit)
	m.wg.Wait()
}

func (m *Manager) maintenanceLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictExpiredBans()
		case <-m.quit:
			return
		}
	}
}

func (m *Manager) evictExpiredBans() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	changed := false
	for host, expiry := range m.bans {
		if now.After(expiry) {
			delete(m.bans, host)
			changed = true
		}
	}
	if changed {
		m.saveBans()
	}
}

// AddAddress records addr as known-reachable, refreshing its last-seen
// time if already tracked.
func (m *Manager) AddAddress(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ka, ok := m.addrs[addr]
	if !ok {
		ka = &knownAddress{addr: addr}
		m.addrs[addr] = ka
	}
	ka.lastSeen = time.Now()
}

// Attempted records a connection attempt to addr, for reconnect backoff
// decisions made by connmgr.
func (m *Manager) Attempted(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ka, ok := m.addrs[addr]; ok {
		ka.lastAttempt = time.Now()
		ka.attempts++
	}
}

// ResetAttempts clears the attempt counter for addr, called after a
// successful dial resets the reconnect backoff step.
func (m *Manager) ResetAttempts(addr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ka, ok := m.addrs[addr]; ok {
		ka.attempts = 0
	}
}

// Attempts returns how many consecutive failed attempts addr has
// accumulated.
func (m *Manager) Attempts(addr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ka, ok := m.addrs[addr]; ok {
		return ka.attempts
	}
	return 0
}

// Addresses returns every currently known address.
func (m *Manager) Addresses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.addrs))
	for a := range m.addrs {
		out = append(out, a)
	}
	return out
}

// Ban marks host (no port) as banned for duration, implementing
// transport.BanStore.
func (m *Manager) Ban(host string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bans[host] = time.Now().Add(duration)
	m.saveBans()
	log.Warnf("addrmgr: banned %s for %s", host, duration)
}

// IsBanned reports whether host is currently under an active ban,
// implementing transport.BanStore.
func (m *Manager) IsBanned(host string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, ok := m.bans[host]
	if !ok {
		return false
	}
	return time.Now().Before(expiry)
}

// HostOf strips the port from an address, tolerating inputs that carry
// none.
func HostOf(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
