// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

// SocketType is a ZeroMQ socket type.
type SocketType string

const (
	Pair   SocketType = "PAIR"   // a ZMQ_PAIR socket
	Pub    SocketType = "PUB"    // a ZMQ_PUB socket
	Sub    SocketType = "SUB"    // a ZMQ_SUB socket
	Req    SocketType = "REQ"    // a ZMQ_REQ socket
	Rep    SocketType = "REP"    // a ZMQ_REP socket
	Dealer SocketType = "DEALER" // a ZMQ_DEALER socket
	Router SocketType = "ROUTER" // a ZMQ_ROUTER socket
	Pull   SocketType = "PULL"   // a ZMQ_PULL socket
	Push   SocketType = "PUSH"   // a ZMQ_PUSH socket
	XPub   SocketType = "XPUB"   // a ZMQ_XPUB socket
	XSub   SocketType = "XSUB"   // a ZMQ_XSUB socket
)

// CanRecv reports whether sockets of this type carry inbound user messages.
func (typ SocketType) CanRecv() bool {
	switch typ {
	case Pub, Push:
		return false
	}
	return true
}

// CanSend reports whether sockets of this type carry outbound user messages.
func (typ SocketType) CanSend() bool {
	switch typ {
	case Sub, Pull:
		return false
	}
	return true
}

// CanSubscribe reports whether sockets of this type accept topic
// subscriptions.
func (typ SocketType) CanSubscribe() bool {
	switch typ {
	case Sub, XSub:
		return true
	}
	return false
}
