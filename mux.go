// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"
)

const (
	defaultPollTimeout   = 250 * time.Millisecond
	defaultCreateTimeout = 5 * time.Second

	cmdQueueSize = 256
)

// Mux multiplexes any number of logical sockets over one loop goroutine.
//
// The loop goroutine is the sole owner of the driver and of every native
// socket handle: it alternates between draining control messages sent by
// Facades and polling all handles (plus the wake handle) with a bounded
// timeout, delivering inbound messages and flushing outbound queues as
// handles become ready. No other goroutine ever touches a handle or the
// registration table.
type Mux struct {
	drv  Driver
	wake WakeHandle
	log  *log.Logger

	pollTimeout   time.Duration
	createTimeout time.Duration
	wakeEP        string

	cmds chan interface{}
	quit chan struct{}
	done chan struct{}

	once sync.Once

	socks map[string]*muxSocket // loop goroutine only
}

// muxSocket is the loop-side state of one registered facade.
type muxSocket struct {
	id  string
	typ SocketType
	sck NativeSocket
	fcd *Facade
	out *Queue
	ep  string // last bound or connected endpoint
}

// Control messages, sent by Facades and applied between poll cycles.
type (
	cmdCreate struct {
		fcd    *Facade
		typ    SocketType
		params []Param
		reply  chan error
	}

	cmdSend struct {
		id  string
		msg Msg
	}

	cmdOption struct {
		id    string
		param Param
		reply chan error
	}

	cmdQuery struct {
		id    string
		name  string
		reply chan interface{}
	}

	cmdDetach struct {
		id string
	}
)

// NewMux creates a Mux and starts its loop goroutine.
// It fails synchronously if the driver cannot produce a wake handle.
func NewMux(opts ...Option) (*Mux, error) {
	mux := &Mux{
		pollTimeout:   defaultPollTimeout,
		createTimeout: defaultCreateTimeout,
		cmds:          make(chan interface{}, cmdQueueSize),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		socks:         make(map[string]*muxSocket),
	}
	for _, opt := range opts {
		opt(mux)
	}
	if mux.log == nil {
		mux.log = log.New(os.Stderr, "zmux: ", 0)
	}
	if mux.drv == nil {
		mux.drv = NewZMQ4Driver(context.Background())
	}

	wake, err := mux.drv.Wake(mux.wakeEP)
	if err != nil {
		_ = mux.drv.Close()
		return nil, fmt.Errorf("zmux: could not create wake handle: %w", err)
	}
	mux.wake = wake

	go mux.loop()
	return mux, nil
}

// Close terminates the Mux: every registered socket is closed, its facade
// notified, and the wake handle and native context torn down.
// Close is idempotent and terminal.
func (mux *Mux) Close() error {
	mux.once.Do(func() {
		close(mux.quit)
		mux.wake.Wake()
	})
	<-mux.done
	return nil
}

// submit enqueues a control message and wakes the loop.
// quit is checked on its own before and after the enqueue: a single
// select over both channels would pick at random once quit is closed,
// and a terminated Mux must deterministically reject submissions.
func (mux *Mux) submit(cmd interface{}) error {
	select {
	case <-mux.quit:
		return ErrMuxClosed
	default:
	}
	select {
	case <-mux.quit:
		return ErrMuxClosed
	case mux.cmds <- cmd:
	}
	select {
	case <-mux.quit:
		// the loop may already be past its control-queue drain; never
		// report a message accepted when nothing can service it.
		return ErrMuxClosed
	default:
	}
	mux.wake.Wake()
	return nil
}

func (mux *Mux) loop() {
	defer close(mux.done)
	for {
		if !mux.drainCmds() {
			mux.teardown()
			return
		}
		n, err := mux.drv.Poll(mux.pollTimeout)
		if err != nil {
			select {
			case <-mux.quit:
			default:
				mux.log.Printf("poll failed: %+v", err)
			}
		}
		if n > 0 {
			mux.dispatch()
		}
		mux.wake.Drain()
	}
}

// drainCmds applies every pending control message.
// It reports false when the Mux has been told to stop. Quit takes
// precedence over queued work: once terminated, remaining control
// messages are failed in teardown instead of being applied.
func (mux *Mux) drainCmds() bool {
	for {
		select {
		case <-mux.quit:
			return false
		default:
		}
		select {
		case cmd := <-mux.cmds:
			mux.handle(cmd)
		default:
			return true
		}
	}
}

func (mux *Mux) handle(cmd interface{}) {
	switch cmd := cmd.(type) {
	case cmdCreate:
		cmd.reply <- mux.create(cmd)
		close(cmd.reply)

	case cmdSend:
		ms, ok := mux.socks[cmd.id]
		if !ok {
			// benign race with concurrent teardown: drop.
			return
		}
		if !ms.typ.CanSend() {
			mux.log.Printf("dropping send on %v socket %s", ms.typ, ms.id)
			return
		}
		ms.out.Push(cmd.msg)

	case cmdOption:
		defer close(cmd.reply)
		ms, ok := mux.socks[cmd.id]
		if !ok {
			return
		}
		if err := guard(func() error { return mux.apply(ms, cmd.param) }); err != nil {
			cmd.reply <- err
		}

	case cmdQuery:
		defer close(cmd.reply)
		ms, ok := mux.socks[cmd.id]
		if !ok {
			return
		}
		if v, err := mux.query(ms, cmd.name); err == nil {
			cmd.reply <- v
		}

	case cmdDetach:
		ms, ok := mux.socks[cmd.id]
		if !ok {
			// second termination notice: no-op.
			return
		}
		delete(mux.socks, cmd.id)
		if err := ms.sck.Close(); err != nil {
			mux.log.Printf("could not close socket %s: %+v", ms.id, err)
		}
		// closure is observed from the loop goroutine, so it cannot
		// overtake a delivery already in flight.
		ms.fcd.notifyClosed()

	default:
		panic(fmt.Errorf("zmux: invalid control message: %T", cmd))
	}
}

// create builds and configures a native socket, registering it under the
// facade's identity only when every configuration step succeeded.
func (mux *Mux) create(cmd cmdCreate) error {
	id := cmd.fcd.id
	if _, dup := mux.socks[id]; dup {
		return fmt.Errorf("zmux: duplicate facade %s", id)
	}

	sck, err := mux.drv.Socket(cmd.typ)
	if err != nil {
		return fmt.Errorf("zmux: could not create %v socket: %w", cmd.typ, err)
	}

	ms := &muxSocket{
		id:  id,
		typ: cmd.typ,
		sck: sck,
		fcd: cmd.fcd,
		out: NewQueue(),
	}

	err = guard(func() error { return mux.configure(ms, cmd.params) })
	if err != nil {
		// never register a partially-configured socket.
		_ = sck.Close()
		return err
	}

	mux.socks[id] = ms
	return nil
}

// configure applies params family by family: generic options first, then
// connect/bind, then subscriptions, each in submission order.
func (mux *Mux) configure(ms *muxSocket, params []Param) error {
	opts, conns, subs := partition(params)
	for _, p := range opts {
		if err := mux.apply(ms, p); err != nil {
			return err
		}
	}
	for _, p := range conns {
		if err := mux.apply(ms, p); err != nil {
			return err
		}
	}
	for _, p := range subs {
		if err := mux.apply(ms, p); err != nil {
			return err
		}
	}
	return nil
}

// apply performs one configuration instruction against the native socket.
func (mux *Mux) apply(ms *muxSocket, p Param) error {
	switch p.family {
	case famOption:
		if err := ms.sck.SetOption(p.name, p.value); err != nil {
			return fmt.Errorf("zmux: could not set option %q: %w", p.name, err)
		}
		return nil

	case famConnect:
		var err error
		switch p.kind {
		case kindBind:
			err = ms.sck.Bind(p.endpoint)
		default:
			err = ms.sck.Connect(p.endpoint)
		}
		if err != nil {
			return fmt.Errorf("zmux: could not attach to %q: %w", p.endpoint, err)
		}
		ms.ep = p.endpoint
		return nil

	case famPubSub:
		if !ms.typ.CanSubscribe() {
			return fmt.Errorf("zmux: %v sockets do not accept subscriptions", ms.typ)
		}
		var err error
		switch {
		case p.subscribe:
			err = ms.sck.Subscribe(p.topic)
		default:
			err = ms.sck.Unsubscribe(p.topic)
		}
		if err != nil {
			return fmt.Errorf("zmux: could not update subscription %q: %w", p.topic, err)
		}
		return nil
	}
	return errBadParam
}

// query answers a single option query, either from the registration
// state (pseudo-options) or from the native layer.
func (mux *Mux) query(ms *muxSocket, name string) (v interface{}, err error) {
	switch name {
	case OptionType:
		return ms.typ, nil
	case OptionEndpoint:
		return ms.ep, nil
	}
	err = guard(func() error {
		v, err = ms.sck.GetOption(name)
		return err
	})
	return v, err
}

// dispatch runs the readable/writable scan of one poll cycle.
func (mux *Mux) dispatch() {
	for _, ms := range mux.socks {
		if ms.typ.CanRecv() && ms.sck.Readable() {
			for _, msg := range ms.sck.Recv() {
				ms.fcd.deliver(msg)
			}
		}
		if ms.out.Len() > 0 && ms.sck.Writable() {
			mux.flush(ms)
		}
	}
}

// flush drains the outbound queue for as long as the socket stays
// writable. A failed send is logged and dropped; it never stalls the
// queue nor the loop.
func (mux *Mux) flush(ms *muxSocket) {
	for ms.sck.Writable() {
		msg, ok := ms.out.Peek()
		if !ok {
			return
		}
		err := guard(func() error { return ms.sck.Send(msg) })
		if err != nil {
			mux.log.Printf("could not send on socket %s: %+v", ms.id, err)
		}
		ms.out.Pop()
	}
}

func (mux *Mux) teardown() {
	mux.rejectPending()
	for id, ms := range mux.socks {
		delete(mux.socks, id)
		if err := ms.sck.Close(); err != nil {
			mux.log.Printf("could not close socket %s: %+v", ms.id, err)
		}
		ms.fcd.notifyClosed()
	}
	if err := mux.wake.Close(); err != nil {
		mux.log.Printf("could not close wake handle: %+v", err)
	}
	if err := mux.drv.Close(); err != nil {
		mux.log.Printf("could not close driver: %+v", err)
	}
}

// rejectPending fails every control message still queued at teardown,
// so a constructor blocked on its reply does not wait out its timeout
// against a dead loop.
func (mux *Mux) rejectPending() {
	for {
		select {
		case cmd := <-mux.cmds:
			switch cmd := cmd.(type) {
			case cmdCreate:
				cmd.reply <- ErrMuxClosed
				close(cmd.reply)
			case cmdOption:
				cmd.reply <- ErrMuxClosed
				close(cmd.reply)
			case cmdQuery:
				close(cmd.reply)
			}
		default:
			return
		}
	}
}

// guard converts a panic escaping a native call into an error, so a
// misbehaving driver cannot take the shared loop down with it.
func guard(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("zmux: native layer panic: %v", r)
		}
	}()
	return f()
}
