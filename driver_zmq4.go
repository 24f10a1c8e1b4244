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

	"github.com/go-zeromq/zmq4"
	"github.com/rs/xid"
	"github.com/sourcegraph/conc"
)

const (
	pendingSize = 128 // inbound messages buffered per socket
	outboxSize  = 128 // outbound messages buffered per socket
	wakeSize    = 64  // pending wake notifications
)

// NewZMQ4Driver returns a Driver backed by github.com/go-zeromq/zmq4.
//
// zmq4 sockets expose blocking Recv/Send, so the driver pairs each socket
// with a reader and a writer goroutine bridging them to the non-blocking
// NativeSocket surface: Readable/Recv observe an inbound buffer fed by
// the reader, Send hands off to the writer through a bounded outbox, and
// Poll waits on a shared readiness signal raised whenever any buffer or
// the wake handle gains work. The wake handle itself is a loopback PAIR
// pair over an inproc endpoint, polled like any other socket.
func NewZMQ4Driver(ctx context.Context) Driver {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &zdriver{
		ctx:    ctx,
		cancel: cancel,
		log:    log.New(os.Stderr, "zmux: ", 0),
		ready:  make(chan struct{}, 1),
	}
}

type zdriver struct {
	ctx    context.Context // life-line of the driver
	cancel context.CancelFunc
	log    *log.Logger
	ready  chan struct{}
	grp    conc.WaitGroup

	mu    sync.Mutex
	socks []*zsocket
}

func (drv *zdriver) Socket(typ SocketType) (NativeSocket, error) {
	var sck zmq4.Socket
	switch typ {
	case Pair:
		sck = zmq4.NewPair(drv.ctx)
	case Pub:
		sck = zmq4.NewPub(drv.ctx)
	case Sub:
		sck = zmq4.NewSub(drv.ctx)
	case Req:
		sck = zmq4.NewReq(drv.ctx)
	case Rep:
		sck = zmq4.NewRep(drv.ctx)
	case Dealer:
		sck = zmq4.NewDealer(drv.ctx)
	case Router:
		sck = zmq4.NewRouter(drv.ctx)
	case Pull:
		sck = zmq4.NewPull(drv.ctx)
	case Push:
		sck = zmq4.NewPush(drv.ctx)
	case XPub:
		sck = zmq4.NewXPub(drv.ctx)
	case XSub:
		sck = zmq4.NewXSub(drv.ctx)
	default:
		return nil, fmt.Errorf("zmux: unknown socket type %q", typ)
	}

	zs := &zsocket{
		drv:     drv,
		typ:     typ,
		sck:     sck,
		pending: make(chan Msg, pendingSize),
		outbox:  make(chan Msg, outboxSize),
	}
	if typ.CanRecv() {
		drv.grp.Go(zs.reader)
	}
	if typ.CanSend() {
		drv.grp.Go(zs.writer)
	}

	drv.mu.Lock()
	drv.socks = append(drv.socks, zs)
	drv.mu.Unlock()
	return zs, nil
}

func (drv *zdriver) Wake(endpoint string) (WakeHandle, error) {
	if endpoint == "" {
		endpoint = "inproc://zmux-wake-" + xid.New().String()
	}

	recv := zmq4.NewPair(drv.ctx)
	if err := recv.Listen(endpoint); err != nil {
		return nil, fmt.Errorf("zmux: could not listen on wake endpoint %q: %w", endpoint, err)
	}
	send := zmq4.NewPair(drv.ctx)
	if err := send.Dial(endpoint); err != nil {
		_ = recv.Close()
		return nil, fmt.Errorf("zmux: could not dial wake endpoint %q: %w", endpoint, err)
	}

	w := &zwake{
		drv:     drv,
		send:    send,
		recv:    recv,
		notes:   make(chan struct{}, wakeSize),
		pending: make(chan struct{}, wakeSize),
		done:    make(chan struct{}),
	}
	drv.grp.Go(w.sender)
	drv.grp.Go(w.reader)
	return w, nil
}

func (drv *zdriver) Poll(timeout time.Duration) (int, error) {
	select {
	case <-drv.ready:
		return 1, nil
	case <-drv.ctx.Done():
		return 0, drv.ctx.Err()
	case <-time.After(timeout):
		return 0, nil
	}
}

func (drv *zdriver) Close() error {
	drv.cancel()

	drv.mu.Lock()
	socks := drv.socks
	drv.socks = nil
	drv.mu.Unlock()

	var err error
	for _, zs := range socks {
		if e := zs.Close(); e != nil && err == nil {
			err = e
		}
	}
	drv.grp.Wait()
	return err
}

// notify raises the shared readiness signal. A full signal channel means
// the loop will scan anyway, so the notification can be dropped.
func (drv *zdriver) notify() {
	select {
	case drv.ready <- struct{}{}:
	default:
	}
}

// zsocket adapts one zmq4 socket to the NativeSocket interface.
type zsocket struct {
	drv *zdriver
	typ SocketType
	sck zmq4.Socket

	pending chan Msg // inbound, fed by reader
	outbox  chan Msg // outbound, drained by writer

	once sync.Once
}

func (zs *zsocket) reader() {
	for {
		msg, err := zs.sck.Recv()
		if err != nil {
			return
		}
		select {
		case zs.pending <- Msg{Frames: msg.Frames}:
			zs.drv.notify()
		case <-zs.drv.ctx.Done():
			return
		}
	}
}

func (zs *zsocket) writer() {
	for {
		select {
		case <-zs.drv.ctx.Done():
			return
		case msg, ok := <-zs.outbox:
			if !ok {
				return
			}
			var err error
			switch {
			case len(msg.Frames) > 1:
				err = zs.sck.SendMulti(zmq4.NewMsgFrom(msg.Frames...))
			default:
				err = zs.sck.Send(zmq4.NewMsgFrom(msg.Frames...))
			}
			if err != nil {
				zs.drv.log.Printf("could not send on %v socket: %+v", zs.typ, err)
			}
		}
	}
}

func (zs *zsocket) Readable() bool { return len(zs.pending) > 0 }

func (zs *zsocket) Writable() bool { return len(zs.outbox) < cap(zs.outbox) }

func (zs *zsocket) Recv() []Msg {
	var msgs []Msg
	for {
		select {
		case msg := <-zs.pending:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func (zs *zsocket) Send(msg Msg) error {
	select {
	case zs.outbox <- msg:
		return nil
	default:
		return fmt.Errorf("zmux: outbox full on %v socket", zs.typ)
	}
}

func (zs *zsocket) SetOption(name string, value interface{}) error {
	return zs.sck.SetOption(name, value)
}

func (zs *zsocket) GetOption(name string) (interface{}, error) {
	return zs.sck.GetOption(name)
}

func (zs *zsocket) Connect(endpoint string) error { return zs.sck.Dial(endpoint) }

func (zs *zsocket) Bind(endpoint string) error { return zs.sck.Listen(endpoint) }

func (zs *zsocket) Subscribe(topic string) error {
	return zs.sck.SetOption(zmq4.OptionSubscribe, topic)
}

func (zs *zsocket) Unsubscribe(topic string) error {
	return zs.sck.SetOption(zmq4.OptionUnsubscribe, topic)
}

func (zs *zsocket) Close() error {
	var err error
	zs.once.Do(func() {
		err = zs.sck.Close()
	})
	return err
}

// zwake is the loopback wake handle: a PAIR pair over inproc, the recv
// side polled like every other socket. Wake notifications funnel
// through a bounded channel drained by a single sender goroutine, the
// same bridge shape the driver uses for socket reads and writes.
type zwake struct {
	drv  *zdriver
	send zmq4.Socket
	recv zmq4.Socket

	notes   chan struct{} // signalled by Wake, drained by sender
	pending chan struct{} // loop-side, cleared by Drain
	done    chan struct{}
	once    sync.Once
}

func (w *zwake) reader() {
	for {
		_, err := w.recv.Recv()
		if err != nil {
			return
		}
		select {
		case w.pending <- struct{}{}:
		default:
			// already signalled; a redundant wake is harmless.
		}
		w.drv.notify()
	}
}

// Wake signals the loop. A full notification channel means a wake is
// already on its way; redundant wakes collapse.
func (w *zwake) Wake() {
	select {
	case w.notes <- struct{}{}:
	default:
	}
}

// sender writes one byte to the loopback pair per queued notification.
func (w *zwake) sender() {
	for {
		select {
		case <-w.drv.ctx.Done():
			return
		case <-w.done:
			return
		case <-w.notes:
			if err := w.send.Send(zmq4.NewMsg([]byte{1})); err != nil {
				select {
				case <-w.drv.ctx.Done():
				case <-w.done:
				default:
					w.drv.log.Printf("could not signal wake handle: %+v", err)
				}
			}
		}
	}
}

func (w *zwake) Drain() int {
	n := 0
	for {
		select {
		case <-w.pending:
			n++
		default:
			return n
		}
	}
}

func (w *zwake) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.send.Close()
		if e := w.recv.Close(); e != nil && err == nil {
			err = e
		}
	})
	return err
}

var (
	_ Driver       = (*zdriver)(nil)
	_ NativeSocket = (*zsocket)(nil)
	_ WakeHandle   = (*zwake)(nil)
)
