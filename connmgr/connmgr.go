// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package connmgr drives outbound connection lifecycle: dialing a
// configured address through a transport.Manager, and re-dialing on
// failure with the backoff schedule a long-lived node needs to avoid
// hammering an unreachable peer.
package connmgr

import (
	"context"
	"errors"
	"math"
	"net"
	"time"

	"github.com/bchcore/bchnode/addrmgr"
	"github.com/bchcore/bchnode/transport"
)

// Backoff constants per the reconnect schedule: step³/2 seconds below
// step 5, a flat 44s past it; DNS failures and post-accept garbage use
// their own fixed intervals.
const (
	maxSteppedBackoff = 5
	flatBackoff       = 44 * time.Second
	unresolvableRetry = 45 * time.Second
	garbageRetry      = 15 * time.Second
)

// ErrGarbage marks a connection that completed a TCP handshake but never
// produced a valid first frame. backoffFor applies the short garbage
// backoff, instead of the stepped schedule, to any error wrapping it;
// transport.Manager.DialOnce does not return it.
var ErrGarbage = errors.New("connmgr: peer sent unrecognized data")

func backoffFor(step int, err error) time.Duration {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return unresolvableRetry
	}
	if errors.Is(err, ErrGarbage) {
		return garbageRetry
	}
	if step < maxSteppedBackoff {
		return time.Duration(math.Pow(float64(step), 3)/2) * time.Second
	}
	return flatBackoff
}

// Target is one outbound address the Dialer keeps connected.
type Target struct {
	Network string
	Address string
}

// Dialer repeatedly connects a fixed set of outbound targets through a
// transport.Manager, reconnecting with backoff whenever a connection
// ends, until Stop is called.
type Dialer struct {
	mgr  *transport.Manager
	bans *addrmgr.Manager

	onConnect func(*transport.Conn)

	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Dialer. onConnect is invoked once per successful dial,
// on the Dialer's own goroutine for that target, before the Dialer waits
// on the connection to close.
func New(mgr *transport.Manager, bans *addrmgr.Manager, onConnect func(*transport.Conn)) *Dialer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dialer{mgr: mgr, bans: bans, onConnect: onConnect, ctx: ctx, cancel: cancel}
}

// Connect starts (or restarts) the reconnect loop for target; it returns
// immediately and runs until Stop is called. While the target's host is
// banned the loop waits and checks again rather than exiting.
func (d *Dialer) Connect(target Target) {
	go d.loop(target)
}

// Stop cancels every running reconnect loop.
func (d *Dialer) Stop() {
	d.cancel()
}

func (d *Dialer) loop(target Target) {
	step := 0
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
		}

		if d.bans != nil && d.bans.IsBanned(addrmgr.HostOf(target.Address)) {
			select {
			case <-d.ctx.Done():
				return
			case <-time.After(flatBackoff):
				continue
			}
		}

		if d.bans != nil {
			d.bans.Attempted(target.Address)
		}

		c, err := d.mgr.DialOnce(target.Network, target.Address)
		if err != nil {
			wait := backoffFor(step, err)
			step++
			log.Debugf("connmgr: dial %s failed: %v, retrying in %s", target.Address, err, wait)
			select {
			case <-d.ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		step = 0
		if d.bans != nil {
			d.bans.ResetAttempts(target.Address)
			d.bans.AddAddress(target.Address)
		}
		if d.onConnect != nil {
			d.onConnect(c)
		}
		c.Wait()

		select {
		case <-d.ctx.Done():
			return
		default:
		}
	}
}
