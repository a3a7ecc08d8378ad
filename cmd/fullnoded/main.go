// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command fullnoded runs the full-node process: it wires storage, the
// block validation engine, and the framed transport together through
// package supervisor, then blocks until an interrupt or reload signal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/decred/slog"

	"github.com/bchcore/bchnode/addrmgr"
	"github.com/bchcore/bchnode/blockchain"
	"github.com/bchcore/bchnode/connmgr"
	"github.com/bchcore/bchnode/database"
	"github.com/bchcore/bchnode/notifier"
	"github.com/bchcore/bchnode/peer"
	"github.com/bchcore/bchnode/supervisor"
	"github.com/bchcore/bchnode/transport"
	"github.com/bchcore/bchnode/utxo"
)

const version = "0.1.0"

// blockRelay is the minimal peer.Dispatcher that feeds inbound block
// messages into the validation engine; it has no service table of its
// own beyond the one service id a real deployment would register many
// more of.
type blockRelay struct {
	chain *blockchain.BlockChain
}

const (
	serviceBlocks  = 1
	msgNewBlock    = 1
	msgBlockHeader = 2
)

func (r *blockRelay) Dispatch(p *peer.Peer, msg transport.Message) {
	if msg.ServiceID != serviceBlocks {
		return
	}
	switch msg.MessageID {
	case msgNewBlock, msgBlockHeader:
		block, err := decodeBlockMessage(msg)
		if err != nil {
			p.AddBanScore(100)
			return
		}
		if _, _, err := r.chain.ProcessBlock(block, blockchain.BFNone); err != nil {
			log.Debugf("fullnoded: rejecting block from %s: %v", p.Addr(), err)
		}
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	backend := slog.NewBackend(os.Stdout)
	level, ok := slog.LevelFromString(cfg.DebugLevel)
	if !ok {
		level = slog.LevelInfo
	}
	setupLogging(backend, level)

	log.Infof("fullnoded %s starting, network=%s, datadir=%s", version, cfg.Net, cfg.DataDir)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("fullnoded: creating data directory: %w", err)
	}

	sup, err := supervisor.Init(cfg.supervisorConfig(), func(chain *blockchain.BlockChain) peer.Dispatcher {
		return &blockRelay{chain: chain}
	})
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		switch sig {
		case syscall.SIGHUP:
			newCfg, err := loadConfig(os.Args[1:])
			if err != nil {
				log.Warnf("fullnoded: reload failed: %v", err)
				continue
			}
			if err := sup.ReloadConfig(newCfg.supervisorConfig()); err != nil {
				log.Warnf("fullnoded: reload failed: %v", err)
			}
		default:
			log.Infof("fullnoded: received %s, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			err := sup.Shutdown(ctx)
			cancel()
			return err
		}
	}
	return nil
}

func setupLogging(backend *slog.Backend, level slog.Level) {
	loggers := []struct {
		name string
		use  func(slog.Logger)
	}{
		{"CHAN", blockchain.UseLogger},
		{"UTXO", utxo.UseLogger},
		{"BDB ", database.UseLogger},
		{"NWM ", transport.UseLogger},
		{"ADDR", addrmgr.UseLogger},
		{"CONN", connmgr.UseLogger},
		{"PEER", peer.UseLogger},
		{"NTFY", notifier.UseLogger},
		{"SRVR", supervisor.UseLogger},
	}
	for _, l := range loggers {
		logger := backend.Logger(l.name)
		logger.SetLevel(level)
		l.use(logger)
	}
	log = backend.Logger("BCHN")
	log.SetLevel(level)
}
