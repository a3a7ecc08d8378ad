// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"time"

	"github.com/decred/slog"

	"github.com/bchcore/bchnode/transport"
	"github.com/bchcore/bchnode/wire"
)

var log = slog.Disabled

// shutdownGrace bounds how long Shutdown waits for the engine strand and
// transport layer to drain before giving up and returning ctx's error.
const shutdownGrace = 30 * time.Second

// decodeBlockMessage extracts the wire.MsgBlock carried in msg's body:
// the raw canonical block serialization, unwrapped from any tag
// structure by the time it reaches a service dispatcher.
func decodeBlockMessage(msg transport.Message) (*wire.MsgBlock, error) {
	return wire.DeserializeBlock(bytes.NewReader(msg.Body))
}
