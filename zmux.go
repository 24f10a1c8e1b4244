// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package zmux provides a thread-safe, message-passing front door to
// socket handles that must only ever be touched from a single goroutine.
//
// A Mux owns every native socket handle and runs a perpetual poll/dispatch
// loop on one dedicated goroutine. Facades are the only values callers
// interact with: each Facade stands for one logical socket and translates
// every call into a control message to the Mux, paired with a wake
// notification so the loop services it promptly instead of waiting out its
// poll timeout.
//
// The native socket layer is consumed through the Driver interface; the
// default driver is backed by github.com/go-zeromq/zmq4.
package zmux

import "errors"

var (
	// ErrMuxClosed is returned for operations on a terminated Mux.
	ErrMuxClosed = errors.New("zmux: mux closed")

	// ErrCreateTimeout is returned when socket creation does not complete
	// within the configured creation timeout.
	ErrCreateTimeout = errors.New("zmux: socket creation timed out")

	// ErrClosed is returned for operations on a closed Facade.
	ErrClosed = errors.New("zmux: facade closed")

	errBadParam = errors.New("zmux: bad param")
)

// Listener receives inbound messages and lifecycle events for a Facade.
//
// Deliver is invoked from the Mux loop goroutine and must not block.
// Closed is invoked exactly once, as the last event the listener observes.
type Listener interface {
	Deliver(msg Msg)
	Closed()
}

// ListenerFunc adapts a plain function to the Listener interface.
// Its Closed event is a no-op.
type ListenerFunc func(msg Msg)

func (f ListenerFunc) Deliver(msg Msg) { f(msg) }
func (f ListenerFunc) Closed()         {}

var _ Listener = (ListenerFunc)(nil)
