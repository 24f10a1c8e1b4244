// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

// Facade is the front door of one logical socket.
//
// Any number of goroutines may hold and use a Facade: it never touches a
// native handle itself, every native-affecting operation becomes a control
// message to the Mux paired with a wake notification. Inbound messages and
// the terminal Closed event are pushed to the registered Listener.
type Facade struct {
	id  string
	typ SocketType
	mux *Mux

	mu       sync.RWMutex
	listener Listener

	closed    atomic.Bool
	closeOnce sync.Once
	notified  sync.Once
}

// NewFacade creates a logical socket of the given type on mux and blocks
// until the Mux acknowledges its creation, the creation fails, or the
// mux's creation timeout elapses. Params are applied family by family:
// generic options, then connect/bind, then subscriptions, each in the
// order supplied. A WithListener param installs the initial listener.
//
// On failure no socket is registered and no usable Facade exists.
func NewFacade(mux *Mux, typ SocketType, params ...Param) (*Facade, error) {
	fcd := &Facade{
		id:  xid.New().String(),
		typ: typ,
		mux: mux,
	}
	for _, p := range params {
		if p.family == famListener {
			fcd.listener = p.listener
		}
	}

	reply := make(chan error, 1)
	err := mux.submit(cmdCreate{fcd: fcd, typ: typ, params: params, reply: reply})
	if err != nil {
		return nil, err
	}

	select {
	case err := <-reply:
		if err != nil {
			return nil, err
		}
	case <-time.After(mux.createTimeout):
		// a late create may still register the socket; the detach
		// behind it in the control queue cleans that up.
		_ = mux.submit(cmdDetach{id: fcd.id})
		return nil, ErrCreateTimeout
	}
	return fcd, nil
}

// ID returns the facade's identity.
func (fcd *Facade) ID() string { return fcd.id }

// Type returns the type of the underlying socket (PUB, SUB, ...).
func (fcd *Facade) Type() SocketType { return fcd.typ }

// SetListener replaces the facade's listener. At most one listener is
// active at a time; the previous one receives no further deliveries.
// A nil listener clears it, turning inbound deliveries into no-ops.
func (fcd *Facade) SetListener(l Listener) {
	fcd.mu.Lock()
	fcd.listener = l
	fcd.mu.Unlock()
}

// Send enqueues msg for transmission. It is fire-and-forget: the actual
// native send happens on the Mux loop during a flush step, in enqueue
// order relative to other sends on this facade.
func (fcd *Facade) Send(msg Msg) error {
	if fcd.closed.Load() {
		return ErrClosed
	}
	return fcd.mux.submit(cmdSend{id: fcd.id, msg: msg})
}

// SetOption forwards a configuration Param to the Mux. The result is
// reported asynchronously: the returned channel yields at most one error
// and is then closed. A Listener param is applied locally.
func (fcd *Facade) SetOption(p Param) <-chan error {
	reply := make(chan error, 1)
	if p.family == famListener {
		fcd.SetListener(p.listener)
		close(reply)
		return reply
	}
	if fcd.closed.Load() {
		reply <- ErrClosed
		close(reply)
		return reply
	}
	if err := fcd.mux.submit(cmdOption{id: fcd.id, param: p, reply: reply}); err != nil {
		reply <- err
		close(reply)
	}
	return reply
}

// Query asks the Mux for the value of a socket option. The answer
// arrives asynchronously on the returned channel, which is closed after
// at most one value; a closed channel with no value means the option
// (or the facade itself) is unknown.
func (fcd *Facade) Query(name string) <-chan interface{} {
	reply := make(chan interface{}, 1)
	if fcd.closed.Load() {
		close(reply)
		return reply
	}
	if err := fcd.mux.submit(cmdQuery{id: fcd.id, name: name, reply: reply}); err != nil {
		close(reply)
	}
	return reply
}

// Close detaches the facade from the Mux, closing its native socket
// exactly once. The listener's Closed event fires on the Mux loop when
// the detach is applied, after any delivery already in flight: it is
// the last event the listener observes. Close is idempotent.
func (fcd *Facade) Close() error {
	fcd.closeOnce.Do(func() {
		fcd.closed.Store(true)
		if err := fcd.mux.submit(cmdDetach{id: fcd.id}); err != nil {
			// the loop is gone and cannot notify on our behalf.
			fcd.notifyClosed()
		}
	})
	return nil
}

// deliver routes one inbound message to the listener.
// Called from the Mux loop goroutine.
func (fcd *Facade) deliver(msg Msg) {
	fcd.mu.RLock()
	l := fcd.listener
	fcd.mu.RUnlock()
	if l == nil {
		// no listener: drop, not queue.
		return
	}
	l.Deliver(msg)
}

// notifyClosed fires the listener's Closed event exactly once and clears
// the listener so no delivery can follow it.
func (fcd *Facade) notifyClosed() {
	fcd.notified.Do(func() {
		fcd.mu.Lock()
		l := fcd.listener
		fcd.listener = nil
		fcd.mu.Unlock()
		if l != nil {
			l.Closed()
		}
	})
}
