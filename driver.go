// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import "time"

// Driver is the native socket layer a Mux multiplexes over.
//
// A Driver and every NativeSocket it produces are owned by the Mux loop
// goroutine: apart from WakeHandle.Wake, none of their methods may be
// called from anywhere else.
type Driver interface {
	// Socket creates a new native socket of the given type.
	Socket(typ SocketType) (NativeSocket, error)

	// Wake creates the wake handle polled alongside the real sockets.
	// An empty endpoint lets the driver pick one.
	Wake(endpoint string) (WakeHandle, error)

	// Poll blocks until at least one socket or the wake handle may have
	// become ready, or the timeout elapses. It returns the number of
	// readiness events observed (0 on timeout).
	Poll(timeout time.Duration) (int, error)

	// Close terminates the native context and releases every resource
	// still held by the driver.
	Close() error
}

// NativeSocket is a single native socket handle.
type NativeSocket interface {
	// Readable reports whether Recv would return at least one message.
	Readable() bool

	// Writable reports whether Send would accept a message without
	// blocking the loop.
	Writable() bool

	// Recv returns all currently-available inbound messages, in arrival
	// order, without blocking.
	Recv() []Msg

	// Send hands one message to the native layer for transmission.
	Send(msg Msg) error

	SetOption(name string, value interface{}) error
	GetOption(name string) (interface{}, error)

	Connect(endpoint string) error
	Bind(endpoint string) error

	Subscribe(topic string) error
	Unsubscribe(topic string) error

	Close() error
}

// WakeHandle shortens the loop's blocking poll when work is pending.
// A redundant or spurious wake is harmless: Drain clears every pending
// notification and the signal carries no payload.
type WakeHandle interface {
	// Wake signals the loop. Safe to call from any goroutine; never blocks.
	Wake()

	// Drain clears all pending wake notifications and returns how many
	// were cleared. Loop goroutine only.
	Drain() int

	Close() error
}
