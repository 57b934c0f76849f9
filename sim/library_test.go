// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"testing"

	"github.com/go-dls/dls/logic"
)

func TestBuiltinGates(t *testing.T) {
	for _, tc := range []struct {
		gate string
		a, b string
		want string
	}{
		{gate: "AND", a: "1", b: "1", want: "1"},
		{gate: "AND", a: "1", b: "0", want: "0"},
		{gate: "OR", a: "0", b: "0", want: "0"},
		{gate: "OR", a: "0", b: "1", want: "1"},
		{gate: "XOR", a: "1", b: "1", want: "0"},
		{gate: "XOR", a: "1", b: "0", want: "1"},
		{gate: "NAND", a: "1", b: "1", want: "0"},
		{gate: "NAND", a: "1", b: "0", want: "1"},
		{gate: "NOR", a: "0", b: "0", want: "1"},
		{gate: "NOR", a: "1", b: "0", want: "0"},
		{gate: "XNOR", a: "1", b: "1", want: "1"},
		{gate: "XNOR", a: "1", b: "0", want: "0"},
	} {
		t.Run(tc.gate+"-"+tc.a+tc.b, func(t *testing.T) {
			m, a, b, c := binaryGate(t, tc.gate)
			m.SchedulePinUpdate(0, a, logic.MustParse(tc.a))
			m.SchedulePinUpdate(0, b, logic.MustParse(tc.b))
			m.Run()
			if got := m.PinValue(c).String(); got != tc.want {
				t.Fatalf("invalid output: got=%q, want=%q", got, tc.want)
			}
		})
	}
}

func TestUnaryGates(t *testing.T) {
	for _, tc := range []struct {
		gate string
		in   string
		want string
	}{
		{gate: "NOT", in: "1", want: "0"},
		{gate: "NOT", in: "0", want: "1"},
		{gate: "NOT", in: "X", want: "X"},
		{gate: "BUF", in: "1", want: "1"},
		{gate: "BUF", in: "0", want: "0"},
	} {
		t.Run(tc.gate+"-"+tc.in, func(t *testing.T) {
			m := newTestManager()
			g, err := m.CreateGate(tc.gate)
			if err != nil {
				t.Fatalf("could not create %s gate: %+v", tc.gate, err)
			}
			in, _ := m.GatePin(g, In, 0)
			out, _ := m.GatePin(g, Out, 0)

			m.SchedulePinUpdate(0, in, logic.MustParse(tc.in))
			m.Run()
			if got := m.PinValue(out).String(); got != tc.want {
				t.Fatalf("invalid output: got=%q, want=%q", got, tc.want)
			}
			if got, want := m.Now(), uint64(1); got != want {
				t.Fatalf("invalid time: got=%d, want=%d", got, want)
			}
		})
	}
}

// The inverter cannot tell an undriven input from an unknown one:
// both produce X (the Z case is locked in by the logic tests, since
// a Z stimulus on a fresh pin is a no-op and never wakes a gate up).
func TestNOTOfUnknown(t *testing.T) {
	m := newTestManager()
	g, _ := m.CreateGate("NOT")
	in, _ := m.GatePin(g, In, 0)
	out, _ := m.GatePin(g, Out, 0)

	// The input pin already holds Z; the X stimulus is the only way
	// to wake the gate up, and the inversion of either undetermined
	// value is X.
	m.SchedulePinUpdate(0, in, logic.MustParse("X"))
	m.Run()
	if got, want := m.PinValue(out).String(), "X"; got != want {
		t.Fatalf("invalid NOT(X): got=%q, want=%q", got, want)
	}
}

func TestRegister(t *testing.T) {
	m := newTestManager()

	// A two-input multiplexer-ish custom gate: out = a OR b with a
	// doubled delay, to check both extensibility and dispatch timing.
	err := m.Register("OR2", Blueprint{
		Pins: func(b *Builder) {
			b.In(1)
			b.In(1)
			b.Out(1)
		},
		Logic: func(data UpdateData, dispatch Dispatch) {
			dispatch(2*DefaultDelay, 0, data.In[0].Or(data.In[1]))
		},
	})
	if err != nil {
		t.Fatalf("could not register gate: %+v", err)
	}

	g, err := m.CreateGate("OR2")
	if err != nil {
		t.Fatalf("could not create custom gate: %+v", err)
	}
	a, _ := m.GatePin(g, In, 0)
	out, _ := m.GatePin(g, Out, 0)

	m.SchedulePinUpdate(0, a, logic.MustParse("1"))
	m.Run()

	if got, want := m.PinValue(out).String(), "1"; got != want {
		t.Fatalf("invalid output: got=%q, want=%q", got, want)
	}
	if got, want := m.Now(), uint64(2); got != want {
		t.Fatalf("invalid time: got=%d, want=%d", got, want)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	m := newTestManager()
	err := m.Register("AND", Blueprint{})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if got, want := err.Error(), `sim: gate "AND" already registered`; got != want {
		t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, want)
	}
}
