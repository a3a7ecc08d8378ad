// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	flags "github.com/jessevdk/go-flags"

	"github.com/bchcore/bchnode/supervisor"
)

const (
	defaultConfigFilename = "fullnoded.conf"
	defaultDataDirname    = "data"
)

// options is the CLI/config-file surface spec §6 requires: --conf,
// --datadir, --bind, --daemon, --help, --version, plus the debug/
// inflight knobs the ambient stack adds.
type options struct {
	ConfigFile  string   `short:"C" long:"conf" description:"Path to configuration file"`
	DataDir     string   `short:"b" long:"datadir" description:"Directory to store data"`
	Listen      string   `long:"bind" description:"Address to listen for peer connections (host:port)"`
	Daemon      bool     `long:"daemon" description:"Detach and run in the background"`
	Version     bool     `long:"version" description:"Display version information and exit"`
	Net         string   `long:"net" description:"Network to use: mainnet, testnet4, regtest" default:"mainnet"`
	DebugLevel  string   `long:"debuglevel" description:"Logging level: trace, debug, info, warn, error, critical" default:"info"`
	MaxInFlight int      `long:"maxinflight" description:"Maximum blocks admitted to body validation concurrently"`
	CookieFile  string   `long:"cookiefile" description:"Path to an auto-login cookie file sent on outbound connections"`
	ConnectTo   []string `long:"connect" description:"Addresses of peers to connect to instead of normal discovery"`
}

// loadConfig parses the CLI arguments, then layers a config file over
// them: the file named by --conf, or fullnoded.conf in the data directory,
// is parsed after the CLI into the same options, so a value set in the
// file overrides the same option given on the command line. Unknown or
// positional arguments abort startup with exit 1, per spec §6.
func loadConfig(args []string) (*options, error) {
	cfg := &options{
		DataDir: defaultDataDir(),
	}

	parser := flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
	remaining, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}
	if len(remaining) > 0 {
		return nil, fmt.Errorf("fullnoded: unexpected arguments: %s", strings.Join(remaining, " "))
	}

	if cfg.Version {
		fmt.Println("fullnoded version", version)
		os.Exit(0)
	}

	if cfg.ConfigFile == "" {
		cfg.ConfigFile = filepath.Join(cfg.DataDir, defaultConfigFilename)
	}
	if _, err := os.Stat(cfg.ConfigFile); err == nil {
		fileParser := flags.NewParser(cfg, flags.IgnoreUnknown)
		if err := flags.NewIniParser(fileParser).ParseFile(cfg.ConfigFile); err != nil {
			return nil, fmt.Errorf("fullnoded: parsing %s: %w", cfg.ConfigFile, err)
		}
	}

	return cfg, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDataDirname
	}
	return filepath.Join(home, ".fullnoded", defaultDataDirname)
}

func (o *options) supervisorConfig() supervisor.Config {
	return supervisor.Config{
		DataDir:     o.DataDir,
		Listen:      o.Listen,
		Net:         o.Net,
		MaxInFlight: o.MaxInFlight,
		CookiePath:  o.CookieFile,
		ConnectTo:   o.ConnectTo,
	}
}
