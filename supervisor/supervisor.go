// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package supervisor owns the process-level lifecycle of a running node:
// wiring the validation engine, storage, and transport together at
// startup, re-parsing configuration on SIGHUP, and shutting everything
// down in dependency order on SIGINT/SIGTERM.
package supervisor

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bchcore/bchnode/addrmgr"
	"github.com/bchcore/bchnode/blockchain"
	"github.com/bchcore/bchnode/chaincfg"
	"github.com/bchcore/bchnode/connmgr"
	"github.com/bchcore/bchnode/database"
	"github.com/bchcore/bchnode/notifier"
	"github.com/bchcore/bchnode/peer"
	"github.com/bchcore/bchnode/transport"
	"github.com/bchcore/bchnode/utxo"
)

// Config is everything supervisor.Init needs, the in-memory form of the
// CLI surface cmd/fullnoded parses (spec §6's --conf/--datadir/--bind
// surface).
type Config struct {
	DataDir     string
	Listen      string
	Net         string // "mainnet", "testnet4", "regtest"
	MaxInFlight int
	CookiePath  string
	ConnectTo   []string
}

// Supervisor holds every long-lived subsystem a running node needs and
// the glue that lets SIGHUP swap chaincfg.Params without tearing the
// process down.
type Supervisor struct {
	cfg Config

	params atomic.Pointer[chaincfg.Params]

	blockStore *database.BlockStore
	utxoStore  utxo.Store
	notify     *notifier.Notifier
	chain      *blockchain.BlockChain

	bans    *addrmgr.Manager
	netMgr  *transport.Manager
	peers   *peer.Manager
	dialer  *connmgr.Dialer

	mu       sync.Mutex
	shutOnce sync.Once
	done     chan struct{}
}

func paramsForNet(net string) (*chaincfg.Params, error) {
	switch net {
	case "", "mainnet":
		return chaincfg.MainNetParams(), nil
	case "testnet4":
		return chaincfg.TestNet4Params(), nil
	case "regtest":
		return chaincfg.RegressionNetParams(), nil
	default:
		return nil, fmt.Errorf("supervisor: unknown network %q", net)
	}
}

// Init constructs and starts every subsystem: storage, the validation
// engine, and the transport layer (bound to cfg.Listen if non-empty, and
// dialing cfg.ConnectTo). newDispatcher builds the message
// dispatcher handed to incoming connections; it runs after the
// validation engine exists but before the transport layer starts
// accepting, so a dispatcher may safely capture the engine reference
// with no startup race against the first inbound message.
func Init(cfg Config, newDispatcher func(*blockchain.BlockChain) peer.Dispatcher) (*Supervisor, error) {
	params, err := paramsForNet(cfg.Net)
	if err != nil {
		return nil, err
	}

	blockStore, err := database.Open(filepath.Join(cfg.DataDir, "blocks"))
	if err != nil {
		return nil, fmt.Errorf("supervisor: opening block store: %w", err)
	}
	utxoStore, err := utxo.OpenLevelStore(filepath.Join(cfg.DataDir, "utxo"))
	if err != nil {
		blockStore.Close()
		return nil, fmt.Errorf("supervisor: opening utxo store: %w", err)
	}

	notify := notifier.New()
	chain := blockchain.New(blockchain.Config{
		Params:      params,
		UTXOStore:   utxoStore,
		BlockStore:  blockStore,
		Notifier:    notify,
		MaxInFlight: cfg.MaxInFlight,
	})

	bans := addrmgr.NewPersisted(filepath.Join(cfg.DataDir, "bans.json"))
	bans.Start()

	peers := peer.NewManager(newDispatcher(chain))

	netMgr := transport.NewManager(transport.Config{
		ListenAddr: cfg.Listen,
		Bans:       bans,
		Handler:    peers,
		CookiePath: cfg.CookiePath,
	})
	if err := netMgr.Listen(); err != nil {
		notify.Close()
		utxoStore.Close()
		blockStore.Close()
		bans.Stop()
		return nil, fmt.Errorf("supervisor: binding %s: %w", cfg.Listen, err)
	}

	dialer := connmgr.New(netMgr, bans, nil)
	for _, addr := range cfg.ConnectTo {
		dialer.Connect(connmgr.Target{Network: "tcp", Address: addr})
	}

	s := &Supervisor{
		cfg:        cfg,
		blockStore: blockStore,
		utxoStore:  utxoStore,
		notify:     notify,
		chain:      chain,
		bans:       bans,
		netMgr:     netMgr,
		peers:      peers,
		dialer:     dialer,
		done:       make(chan struct{}),
	}
	s.params.Store(params)
	return s, nil
}

// Params returns the currently active chain parameters; it is safe to
// call concurrently with ReloadConfig.
func (s *Supervisor) Params() *chaincfg.Params { return s.params.Load() }

// Chain returns the validation engine.
func (s *Supervisor) Chain() *blockchain.BlockChain { return s.chain }

// Peers returns the connected-peer tracker.
func (s *Supervisor) Peers() *peer.Manager { return s.peers }

// Notifier returns the event notifier subsystems subscribe to.
func (s *Supervisor) Notifier() *notifier.Notifier { return s.notify }

// ReloadConfig re-parses the network selection and publishes a fresh
// chaincfg.Params swap-pointer; it does not touch already-open storage
// or transport, matching the Design Notes' policy of replacing global
// mutable config rather than mutating subsystems in place.
func (s *Supervisor) ReloadConfig(cfg Config) error {
	params, err := paramsForNet(cfg.Net)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.params.Store(params)
	log.Infof("supervisor: configuration reloaded, network=%s", cfg.Net)
	return nil
}

// Shutdown stops the transport layer, waits for the validation engine's
// strand to drain, and closes storage, in that dependency order. It
// returns once every subsystem has released its resources or ctx is
// done, whichever comes first.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	var shutErr error
	s.shutOnce.Do(func() {
		s.dialer.Stop()
		s.netMgr.Shutdown()
		s.bans.Stop()

		engineDone := make(chan struct{})
		go func() {
			s.chain.Shutdown()
			close(engineDone)
		}()
		select {
		case <-engineDone:
		case <-ctx.Done():
			shutErr = ctx.Err()
		}

		if err := s.utxoStore.Close(); err != nil && shutErr == nil {
			shutErr = err
		}
		if err := s.blockStore.Close(); err != nil && shutErr == nil {
			shutErr = err
		}
		s.notify.Close()
		close(s.done)
	})
	return shutErr
}

// Done returns a channel closed once Shutdown has finished.
func (s *Supervisor) Done() <-chan struct{} { return s.done }
