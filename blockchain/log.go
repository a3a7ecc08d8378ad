// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "github.com/decred/slog"

// log is the package-wide subsystem logger, set by UseLogger during
// supervisor startup. It defaults to a disabled backend so the package is
// silent, and safe to import, when no caller ever configures logging (unit
// tests, for instance).
var log = slog.Disabled

// UseLogger sets the subsystem logger used by this package. It is called
// once, by the supervisor, before any chain activity begins.
func UseLogger(logger slog.Logger) {
	log = logger
}
