// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeDriver is a deterministic in-memory Driver for tests.
// Every native call is recorded on the socket it hit; failures are
// injected through the fail map, keyed by the recorded op string.
type fakeDriver struct {
	ready chan struct{}

	mu      sync.Mutex
	socks   []*fakeSocket
	fail    map[string]error
	sockErr error
	closed  bool
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		ready: make(chan struct{}, 1),
		fail:  make(map[string]error),
	}
}

func (drv *fakeDriver) failOn(op string, err error) {
	drv.mu.Lock()
	drv.fail[op] = err
	drv.mu.Unlock()
}

func (drv *fakeDriver) failure(op string) error {
	drv.mu.Lock()
	defer drv.mu.Unlock()
	return drv.fail[op]
}

func (drv *fakeDriver) notify() {
	select {
	case drv.ready <- struct{}{}:
	default:
	}
}

func (drv *fakeDriver) Socket(typ SocketType) (NativeSocket, error) {
	drv.mu.Lock()
	defer drv.mu.Unlock()
	if drv.sockErr != nil {
		return nil, drv.sockErr
	}
	fs := &fakeSocket{
		drv:  drv,
		typ:  typ,
		opts: make(map[string]interface{}),
	}
	drv.socks = append(drv.socks, fs)
	return fs, nil
}

func (drv *fakeDriver) Wake(endpoint string) (WakeHandle, error) {
	return &fakeWake{drv: drv, pending: make(chan struct{}, 64)}, nil
}

func (drv *fakeDriver) Poll(timeout time.Duration) (int, error) {
	select {
	case <-drv.ready:
		return 1, nil
	case <-time.After(timeout):
		return 0, nil
	}
}

func (drv *fakeDriver) Close() error {
	drv.mu.Lock()
	drv.closed = true
	drv.mu.Unlock()
	return nil
}

// last returns the most recently created socket.
func (drv *fakeDriver) last() *fakeSocket {
	drv.mu.Lock()
	defer drv.mu.Unlock()
	if len(drv.socks) == 0 {
		return nil
	}
	return drv.socks[len(drv.socks)-1]
}

type fakeSocket struct {
	drv *fakeDriver
	typ SocketType

	mu     sync.Mutex
	ops    []string
	sent   []Msg
	inbox  []Msg
	opts   map[string]interface{}
	closed int
	full   bool
}

func (fs *fakeSocket) record(op string) error {
	fs.mu.Lock()
	fs.ops = append(fs.ops, op)
	fs.mu.Unlock()
	return fs.drv.failure(op)
}

// push injects an inbound message, as if the wire had produced it.
func (fs *fakeSocket) push(msg Msg) {
	fs.mu.Lock()
	fs.inbox = append(fs.inbox, msg)
	fs.mu.Unlock()
	fs.drv.notify()
}

func (fs *fakeSocket) opLog() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.ops...)
}

func (fs *fakeSocket) sentMsgs() []Msg {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]Msg(nil), fs.sent...)
}

func (fs *fakeSocket) closeCount() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.closed
}

func (fs *fakeSocket) Readable() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.inbox) > 0
}

func (fs *fakeSocket) Writable() bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return !fs.full
}

func (fs *fakeSocket) Recv() []Msg {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	msgs := fs.inbox
	fs.inbox = nil
	return msgs
}

func (fs *fakeSocket) Send(msg Msg) error {
	err := fs.record("send")
	if err != nil {
		return err
	}
	fs.mu.Lock()
	fs.sent = append(fs.sent, msg)
	fs.mu.Unlock()
	return nil
}

func (fs *fakeSocket) SetOption(name string, value interface{}) error {
	err := fs.record("setopt:" + name)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	fs.opts[name] = value
	fs.mu.Unlock()
	return nil
}

func (fs *fakeSocket) GetOption(name string) (interface{}, error) {
	if err := fs.record("getopt:" + name); err != nil {
		return nil, err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.opts[name]
	if !ok {
		return nil, fmt.Errorf("no such option %q", name)
	}
	return v, nil
}

func (fs *fakeSocket) Connect(endpoint string) error { return fs.record("connect:" + endpoint) }
func (fs *fakeSocket) Bind(endpoint string) error    { return fs.record("bind:" + endpoint) }
func (fs *fakeSocket) Subscribe(topic string) error  { return fs.record("subscribe:" + topic) }
func (fs *fakeSocket) Unsubscribe(topic string) error {
	return fs.record("unsubscribe:" + topic)
}

func (fs *fakeSocket) Close() error {
	fs.mu.Lock()
	fs.closed++
	fs.mu.Unlock()
	return nil
}

type fakeWake struct {
	drv     *fakeDriver
	pending chan struct{}
}

func (w *fakeWake) Wake() {
	select {
	case w.pending <- struct{}{}:
	default:
	}
	w.drv.notify()
}

func (w *fakeWake) Drain() int {
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

func (w *fakeWake) Close() error { return nil }

var (
	_ Driver       = (*fakeDriver)(nil)
	_ NativeSocket = (*fakeSocket)(nil)
	_ WakeHandle   = (*fakeWake)(nil)
)

// testListener records deliveries and lifecycle events.
type testListener struct {
	mu     sync.Mutex
	msgs   []Msg
	closed int
}

func (l *testListener) Deliver(msg Msg) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *testListener) Closed() {
	l.mu.Lock()
	l.closed++
	l.mu.Unlock()
}

func (l *testListener) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

func (l *testListener) messages() []Msg {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Msg(nil), l.msgs...)
}

func (l *testListener) closeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// stallListener blocks inside Deliver until released, recording the
// order in which delivery and closure complete.
type stallListener struct {
	entered chan struct{}
	release chan struct{}

	mu     sync.Mutex
	events []string
}

func newStallListener() *stallListener {
	return &stallListener{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (l *stallListener) Deliver(msg Msg) {
	l.entered <- struct{}{}
	<-l.release
	l.mu.Lock()
	l.events = append(l.events, "deliver")
	l.mu.Unlock()
}

func (l *stallListener) Closed() {
	l.mu.Lock()
	l.events = append(l.events, "closed")
	l.mu.Unlock()
}

func (l *stallListener) order() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// waitFor polls cond until it holds or the test deadline budget runs out.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
