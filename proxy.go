// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Proxy connects a frontend facade to a backend facade.
type Proxy struct {
	ctx  context.Context // life-line of proxy
	grp  *errgroup.Group
	cmds chan proxyCmd

	paused atomic.Bool
}

type proxyCmd byte

const (
	proxyPause proxyCmd = iota
	proxyResume
	proxyKill
)

// NewProxy creates a new Proxy value.
// It forwards messages received on the frontend to the backend (and vice
// versa), entirely through the Facade API: inbound deliveries on one side
// are re-enqueued as sends on the other.
//
// Conceptually, data flows from frontend to backend. Depending on the
// socket types, replies may flow in the opposite direction. The direction
// is conceptual only; the proxy is fully symmetric.
//
// Before creating a Proxy, users must create and configure both facades.
// The proxy installs its own listeners on them.
func NewProxy(ctx context.Context, front, back *Facade) *Proxy {
	grp, ctx := errgroup.WithContext(ctx)
	proxy := Proxy{
		ctx:  ctx,
		grp:  grp,
		cmds: make(chan proxyCmd),
	}
	proxy.init(front, back)
	return &proxy
}

func (p *Proxy) Pause()  { p.cmds <- proxyPause }
func (p *Proxy) Resume() { p.cmds <- proxyResume }
func (p *Proxy) Kill()   { p.cmds <- proxyKill }

// Run runs the proxy loop until the context ends or Kill is called.
func (p *Proxy) Run() error {
	return p.grp.Wait()
}

func (p *Proxy) init(front, back *Facade) {
	type pipe struct {
		name string
		dst  *Facade
		src  *Facade
	}

	pipes := []pipe{
		{
			name: "backend",
			dst:  back,
			src:  front,
		},
		{
			name: "frontend",
			dst:  front,
			src:  back,
		},
	}

	for _, pp := range pipes {
		if pp.src == nil || !pp.src.Type().CanRecv() {
			continue
		}
		if pp.dst == nil || !pp.dst.Type().CanSend() {
			continue
		}
		dst, name := pp.dst, pp.name
		pp.src.SetListener(ListenerFunc(func(msg Msg) {
			if p.paused.Load() {
				return
			}
			if err := dst.Send(msg); err != nil {
				dst.mux.log.Printf("could not forward to %s: %+v", name, err)
			}
		}))
	}

	p.grp.Go(func() error {
		defer func() {
			if front != nil {
				front.SetListener(nil)
			}
			if back != nil {
				back.SetListener(nil)
			}
		}()
		for {
			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case cmd := <-p.cmds:
				switch cmd {
				case proxyPause:
					p.paused.Store(true)
				case proxyResume:
					p.paused.Store(false)
				case proxyKill:
					return nil
				default:
					// API error. panic.
					panic(fmt.Errorf("zmux: invalid proxy command: %v", cmd))
				}
			}
		}
	})
}
