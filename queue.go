// Copyright 2023 The go-zeromq Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zmux

import (
	"github.com/eapache/queue"
)

// Queue is an unbounded FIFO queue of messages.
// It is not safe for concurrent use; the Mux only ever touches a
// Queue from its loop goroutine.
type Queue struct {
	rep *queue.Queue
}

func NewQueue() *Queue {
	return &Queue{rep: queue.New()}
}

func (q *Queue) Len() int {
	return q.rep.Length()
}

func (q *Queue) Push(msg Msg) {
	q.rep.Add(msg)
}

func (q *Queue) Peek() (Msg, bool) {
	if q.rep.Length() == 0 {
		return Msg{}, false
	}
	return q.rep.Peek().(Msg), true
}

func (q *Queue) Pop() {
	if q.rep.Length() == 0 {
		panic("attempting to Pop on an empty Queue")
	}
	q.rep.Remove()
}
