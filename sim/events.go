// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import "github.com/go-dls/dls/logic"

// pinUpdate carries a new value for a pin, scheduled on the
// time-ordered queue.
type pinUpdate struct {
	time  uint64
	pin   uint32
	value logic.Bits
}

// gateUpdate wakes a gate up after one of its pins changed.
type gateUpdate struct {
	sender uint32 // pin that triggered the wakeup
	gate   uint32
}

// lumpUpdate broadcasts a new value from a driving pin to a lump.
type lumpUpdate struct {
	sender uint32 // driving pin, excluded from the broadcast
	lump   uint32
	bits   logic.Bits
}

// pinQueue is a min-heap of pin updates keyed by time.
// Events with equal times pop in unspecified order.
type pinQueue []pinUpdate

func (q pinQueue) Len() int            { return len(q) }
func (q pinQueue) Less(i, j int) bool  { return q[i].time < q[j].time }
func (q pinQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *pinQueue) Push(v interface{}) { *q = append(*q, v.(pinUpdate)) }

func (q *pinQueue) Pop() interface{} {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}
