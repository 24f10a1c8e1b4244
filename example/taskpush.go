// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build ignore
// +build ignore

// Task ventilator pushing work to a pool of pullers.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-zeromq/zmux"
)

func main() {
	log.SetPrefix("taskpush: ")

	mux, err := zmux.NewMux()
	if err != nil {
		log.Fatalf("could not create mux: %+v", err)
	}
	defer mux.Close()

	push, err := zmux.NewFacade(mux, zmux.Push, zmux.Bind("tcp://*:5557"))
	if err != nil {
		log.Fatalf("could not create pusher: %+v", err)
	}
	defer push.Close()

	for i := 0; ; i++ {
		err = push.Send(zmux.NewMsgString(fmt.Sprintf("task-%d", i)))
		if err != nil {
			log.Fatalf("could not push task %d: %+v", i, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
