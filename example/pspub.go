// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build ignore
// +build ignore

// PubSub publisher
package main

import (
	"log"
	"time"

	"github.com/go-zeromq/zmux"
)

func main() {
	log.SetPrefix("pspub: ")

	mux, err := zmux.NewMux()
	if err != nil {
		log.Fatalf("could not create mux: %+v", err)
	}
	defer mux.Close()

	pub, err := zmux.NewFacade(mux, zmux.Pub, zmux.Bind("tcp://*:5563"))
	if err != nil {
		log.Fatalf("could not create publisher: %+v", err)
	}
	defer pub.Close()

	for {
		time.Sleep(time.Second)
		err = pub.Send(zmux.NewMsgFromString([]string{"A", "We don't want to see this"}))
		if err != nil {
			log.Fatalf("could not publish: %+v", err)
		}
		err = pub.Send(zmux.NewMsgFromString([]string{"B", "We would like to see this"}))
		if err != nil {
			log.Fatalf("could not publish: %+v", err)
		}
	}
}
