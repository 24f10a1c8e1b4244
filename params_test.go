// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"reflect"
	"testing"
)

func TestPartition(t *testing.T) {
	cases := []struct {
		name   string
		params []Param
		opts   []Param
		conns  []Param
		subs   []Param
	}{
		{
			name: "empty",
		},
		{
			name: "interleaved",
			params: []Param{
				Subscribe("A"),
				Opt("HWM", 1),
				Connect("tcp://a"),
				Unsubscribe("B"),
				Bind("tcp://b"),
				Opt("ID", "x"),
			},
			opts:  []Param{Opt("HWM", 1), Opt("ID", "x")},
			conns: []Param{Connect("tcp://a"), Bind("tcp://b")},
			subs:  []Param{Subscribe("A"), Unsubscribe("B")},
		},
		{
			name: "listener-skipped",
			params: []Param{
				WithListener(ListenerFunc(func(Msg) {})),
				Connect("tcp://a"),
			},
			conns: []Param{Connect("tcp://a")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts, conns, subs := partition(tc.params)
			if !reflect.DeepEqual(opts, tc.opts) {
				t.Fatalf("invalid options: got=%v, want=%v", opts, tc.opts)
			}
			if !reflect.DeepEqual(conns, tc.conns) {
				t.Fatalf("invalid connects: got=%v, want=%v", conns, tc.conns)
			}
			if !reflect.DeepEqual(subs, tc.subs) {
				t.Fatalf("invalid subscriptions: got=%v, want=%v", subs, tc.subs)
			}
		})
	}
}

func TestParamString(t *testing.T) {
	cases := []struct {
		param Param
		want  string
	}{
		{Opt("HWM", 1000), `Opt("HWM", 1000)`},
		{Connect("tcp://a"), `Connect("tcp://a")`},
		{Bind("tcp://b"), `Bind("tcp://b")`},
		{Subscribe("A"), `Subscribe("A")`},
		{Unsubscribe("A"), `Unsubscribe("A")`},
		{WithListener(nil), `WithListener(...)`},
	}
	for _, tc := range cases {
		if got := tc.param.String(); got != tc.want {
			t.Fatalf("invalid string: got=%q, want=%q", got, tc.want)
		}
	}
}

func TestSocketTypeCapabilities(t *testing.T) {
	cases := []struct {
		typ          SocketType
		recv, send   bool
		subscribable bool
	}{
		{Pair, true, true, false},
		{Pub, false, true, false},
		{Sub, true, false, true},
		{Req, true, true, false},
		{Rep, true, true, false},
		{Dealer, true, true, false},
		{Router, true, true, false},
		{Pull, true, false, false},
		{Push, false, true, false},
		{XPub, true, true, false},
		{XSub, true, true, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.typ), func(t *testing.T) {
			if got := tc.typ.CanRecv(); got != tc.recv {
				t.Fatalf("CanRecv: got=%v, want=%v", got, tc.recv)
			}
			if got := tc.typ.CanSend(); got != tc.send {
				t.Fatalf("CanSend: got=%v, want=%v", got, tc.send)
			}
			if got := tc.typ.CanSubscribe(); got != tc.subscribable {
				t.Fatalf("CanSubscribe: got=%v, want=%v", got, tc.subscribable)
			}
		})
	}
}
