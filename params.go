// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import "fmt"

// paramFamily discriminates the configuration families a Param may
// belong to. Families are applied in ascending order: generic socket
// options first, then connect/bind, then subscriptions.
type paramFamily int

const (
	famOption paramFamily = iota
	famConnect
	famPubSub
	famListener
)

// connectKind discriminates the two connect-family actions.
type connectKind int

const (
	kindConnect connectKind = iota
	kindBind
)

// Param is a single configuration instruction for a socket.
// Params are created with Opt, Connect, Bind, Subscribe, Unsubscribe
// and WithListener; the zero Param is invalid.
type Param struct {
	family paramFamily

	name  string      // famOption
	value interface{} // famOption

	kind     connectKind // famConnect
	endpoint string      // famConnect

	subscribe bool   // famPubSub
	topic     string // famPubSub

	listener Listener // famListener
}

// Opt returns a Param carrying a generic socket option.
// Options are applied before any connect, bind or subscription action.
func Opt(name string, value interface{}) Param {
	return Param{family: famOption, name: name, value: value}
}

// Connect returns a Param instructing the socket to dial endpoint.
func Connect(endpoint string) Param {
	return Param{family: famConnect, kind: kindConnect, endpoint: endpoint}
}

// Bind returns a Param instructing the socket to listen on endpoint.
func Bind(endpoint string) Param {
	return Param{family: famConnect, kind: kindBind, endpoint: endpoint}
}

// Subscribe returns a Param subscribing the socket to topic.
// Only valid on subscribe-capable socket types.
func Subscribe(topic string) Param {
	return Param{family: famPubSub, subscribe: true, topic: topic}
}

// Unsubscribe returns a Param dropping the socket's subscription to topic.
func Unsubscribe(topic string) Param {
	return Param{family: famPubSub, topic: topic}
}

// WithListener returns a Param installing the initial Listener of a
// Facade. It is handled by the Facade itself and never forwarded to
// the Mux.
func WithListener(l Listener) Param {
	return Param{family: famListener, listener: l}
}

func (p Param) String() string {
	switch p.family {
	case famOption:
		return fmt.Sprintf("Opt(%q, %v)", p.name, p.value)
	case famConnect:
		if p.kind == kindBind {
			return fmt.Sprintf("Bind(%q)", p.endpoint)
		}
		return fmt.Sprintf("Connect(%q)", p.endpoint)
	case famPubSub:
		if p.subscribe {
			return fmt.Sprintf("Subscribe(%q)", p.topic)
		}
		return fmt.Sprintf("Unsubscribe(%q)", p.topic)
	case famListener:
		return "WithListener(...)"
	}
	return "Param(?)"
}

// partition splits params into the three mux-side families, preserving
// the submission order within each family. Listener params are skipped.
func partition(params []Param) (opts, conns, subs []Param) {
	for _, p := range params {
		switch p.family {
		case famOption:
			opts = append(opts, p)
		case famConnect:
			conns = append(conns, p)
		case famPubSub:
			subs = append(subs, p)
		}
	}
	return opts, conns, subs
}
