// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build ignore
// +build ignore

// PubSub subscriber
package main

import (
	"log"

	"github.com/go-zeromq/zmux"
)

func main() {
	log.SetPrefix("pssub: ")

	mux, err := zmux.NewMux()
	if err != nil {
		log.Fatalf("could not create mux: %+v", err)
	}
	defer mux.Close()

	sub, err := zmux.NewFacade(mux, zmux.Sub,
		zmux.Connect("tcp://localhost:5563"),
		zmux.Subscribe("B"),
		zmux.WithListener(zmux.ListenerFunc(func(msg zmux.Msg) {
			log.Printf("[%s] %s", msg.Frames[0], msg.Frames[1])
		})),
	)
	if err != nil {
		log.Fatalf("could not create subscriber: %+v", err)
	}
	defer sub.Close()

	select {}
}
