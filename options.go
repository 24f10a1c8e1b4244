// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"log"
	"time"
)

// Option configures some aspect of a Mux.
type Option func(mux *Mux)

// WithPollTimeout configures the bounded timeout of a single poll cycle.
// A pending wake notification always cuts the wait short, so the timeout
// only caps the loop's latency when a wake was missed.
func WithPollTimeout(timeout time.Duration) Option {
	return func(mux *Mux) {
		mux.pollTimeout = timeout
	}
}

// WithCreateTimeout configures how long a Facade constructor waits for
// the Mux to acknowledge socket creation.
func WithCreateTimeout(timeout time.Duration) Option {
	return func(mux *Mux) {
		mux.createTimeout = timeout
	}
}

// WithWakeEndpoint configures the loopback endpoint of the wake handle.
// An empty endpoint (the default) lets the driver pick one.
func WithWakeEndpoint(endpoint string) Option {
	return func(mux *Mux) {
		mux.wakeEP = endpoint
	}
}

// WithLogger sets a dedicated log.Logger for the Mux.
func WithLogger(l *log.Logger) Option {
	return func(mux *Mux) {
		mux.log = l
	}
}

// WithDriver sets the native socket layer the Mux multiplexes over.
// The default is the zmq4-backed driver.
func WithDriver(drv Driver) Option {
	return func(mux *Mux) {
		mux.drv = drv
	}
}

// Pseudo-options answered by the Mux itself from its registration
// state; every other option name is passed through to the native layer.
const (
	OptionType     = "TYPE"     // socket type, as a SocketType
	OptionEndpoint = "ENDPOINT" // last bound or connected endpoint
)
