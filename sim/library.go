// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import "github.com/go-dls/dls/logic"

// DefaultDelay is the propagation delay of the built-in gates, in
// simulation time units.
const DefaultDelay = 1

// Blueprint describes how to build a gate: Pins declares the GPIO
// layout (in a fixed order) and Logic is the gate's pure function.
type Blueprint struct {
	Pins  func(b *Builder)
	Logic Func
}

// Builder allocates pins for a gate under construction.
type Builder struct {
	m    *Manager
	gpio *GPIO
}

// In appends an n-bit input pin to the layout.
func (b *Builder) In(n int) { b.gpio.addIn(b.m, n) }

// Out appends an n-bit output pin to the layout.
func (b *Builder) Out(n int) { b.gpio.addOut(b.m, n) }

// InOut appends an n-bit bidirectional pin to the layout.
// Driving it is not implemented in this version.
func (b *Builder) InOut(n int) { b.gpio.addInOut(b.m, n) }

// binary1 is a 1-bit two-input one-output gate applying f, with the
// default propagation delay.
func binary1(f func(a, b logic.Bits) logic.Bits) Blueprint {
	return Blueprint{
		Pins: func(b *Builder) {
			b.In(1)
			b.In(1)
			b.Out(1)
		},
		Logic: func(data UpdateData, dispatch Dispatch) {
			dispatch(DefaultDelay, 0, f(data.In[0], data.In[1]))
		},
	}
}

// unary1 is a 1-bit one-input one-output gate applying f.
func unary1(f func(a logic.Bits) logic.Bits) Blueprint {
	return Blueprint{
		Pins: func(b *Builder) {
			b.In(1)
			b.Out(1)
		},
		Logic: func(data UpdateData, dispatch Dispatch) {
			dispatch(DefaultDelay, 0, f(data.In[0]))
		},
	}
}

func builtins() map[string]Blueprint {
	return map[string]Blueprint{
		"AND":  binary1(logic.Bits.And),
		"OR":   binary1(logic.Bits.Or),
		"XOR":  binary1(logic.Bits.Xor),
		"NAND": binary1(func(a, b logic.Bits) logic.Bits { return a.And(b).Not() }),
		"NOR":  binary1(func(a, b logic.Bits) logic.Bits { return a.Or(b).Not() }),
		"XNOR": binary1(func(a, b logic.Bits) logic.Bits { return a.Xor(b).Not() }),
		"NOT":  unary1(logic.Bits.Not),
		"BUF":  unary1(func(a logic.Bits) logic.Bits { return a.Clone() }),
	}
}
