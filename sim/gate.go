// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import "github.com/go-dls/dls/logic"

// Flow tags the direction data is moving through an inout pin for
// one gate wakeup.
type Flow uint8

const (
	FlowIn  Flow = iota // the inout pin triggered the wakeup
	FlowOut             // the inout pin is being driven
)

// Port is the snapshot of an inout pin handed to a gate's logic
// function.
type Port struct {
	Bits logic.Bits
	Dir  Flow
}

// UpdateData is the snapshot a gate's logic function computes over:
// the current values of all input pins, in layout order, and the
// inout ports tagged with their flow direction.
type UpdateData struct {
	In    []logic.Bits
	InOut []Port
}

// Dispatch schedules bits on the gate's out-th output pin after
// delay time units. It is the logic function's only way back into
// the engine.
type Dispatch func(delay uint64, out int, bits logic.Bits)

// Func is a pure gate logic function.
type Func func(data UpdateData, dispatch Dispatch)

// GPIO is the pin layout of a gate: three ordered, index-addressable
// lists of pin ids. The ordering is the gate's public contract.
type GPIO struct {
	gate  uint32
	in    []uint32
	out   []uint32
	inout []uint32
}

// Pins returns the pin ids of the given kind, in layout order.
func (g *GPIO) Pins(kind Kind) []uint32 {
	switch kind {
	case In:
		return g.in
	case Out:
		return g.out
	default:
		return g.inout
	}
}

func (g *GPIO) addIn(m *Manager, n int) {
	g.in = append(g.in, m.createPin(g.gate, n, In))
}

func (g *GPIO) addOut(m *Manager, n int) {
	g.out = append(g.out, m.createPin(g.gate, n, Out))
}

func (g *GPIO) addInOut(m *Manager, n int) {
	g.inout = append(g.inout, m.createPin(g.gate, n, InOut))
}

// Gate is a combinational logic block: a constant GPIO layout plus a
// pure logic function.
type Gate struct {
	id    uint32
	gpio  GPIO
	logic Func
}

// ID returns the gate identifier.
func (g *Gate) ID() uint32 { return g.id }

// GPIO returns the gate's pin layout.
func (g *Gate) GPIO() *GPIO { return &g.gpio }

// handleEvent snapshots the gate's inputs and runs the logic
// function. Scheduled outputs land on the timed queue via the
// dispatch callback.
func (g *Gate) handleEvent(m *Manager, ev gateUpdate) {
	data := UpdateData{In: make([]logic.Bits, len(g.gpio.in))}
	for i, id := range g.gpio.in {
		data.In[i] = m.PinValue(id)
	}
	for _, id := range g.gpio.inout {
		dir := FlowOut
		if id == ev.sender {
			dir = FlowIn
		}
		data.InOut = append(data.InOut, Port{Bits: m.PinValue(id), Dir: dir})
	}

	g.logic(data, func(delay uint64, out int, bits logic.Bits) {
		m.SchedulePinUpdate(delay, g.gpio.out[out], bits)
	})
}
