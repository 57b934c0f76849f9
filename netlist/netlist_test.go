// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package netlist

import (
	"io"
	"strings"
	"testing"

	"github.com/go-daq/tdaq/log"
	"github.com/go-dls/dls/sim"
)

// The half-adder gates are stimulated at distinct timestamps: the
// pin-event queue does not order same-time events, so a test bench
// settles one gate before driving the next.
const halfAdder = `
# half adder, each gate driven with both inputs at 1
gate  x1 XOR
gate  a1 AND
wire  sum 1
wire  carry 1
bind  x1 out 0 sum
bind  a1 out 0 carry
drive x1 in 0 1 @0
drive x1 in 1 1 @0
drive a1 in 0 1 @2
drive a1 in 1 1 @2
probe sum
probe carry
`

func TestParse(t *testing.T) {
	d, err := Parse(strings.NewReader(halfAdder))
	if err != nil {
		t.Fatalf("could not parse design: %+v", err)
	}

	if got, want := len(d.Gates), 2; got != want {
		t.Fatalf("invalid number of gates: got=%d, want=%d", got, want)
	}
	if got, want := len(d.Wires), 2; got != want {
		t.Fatalf("invalid number of wires: got=%d, want=%d", got, want)
	}
	if got, want := len(d.Binds), 2; got != want {
		t.Fatalf("invalid number of binds: got=%d, want=%d", got, want)
	}
	if got, want := len(d.Drives), 4; got != want {
		t.Fatalf("invalid number of drives: got=%d, want=%d", got, want)
	}
	if got, want := d.Probes, []string{"sum", "carry"}; len(got) != len(want) ||
		got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("invalid probes: got=%v, want=%v", got, want)
	}
	if got, want := d.Drives[0].Time, uint64(0); got != want {
		t.Fatalf("invalid drive time: got=%d, want=%d", got, want)
	}
	if got, want := d.Drives[0].Bits.String(), "1"; got != want {
		t.Fatalf("invalid drive bits: got=%q, want=%q", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
		want string
	}{
		{
			name: "unknown-directive",
			in:   "frobnicate a b",
			want: `netlist: line 1: unknown directive "frobnicate"`,
		},
		{
			name: "gate-usage",
			in:   "gate g1",
			want: "netlist: line 1: usage: gate <name> <kind>",
		},
		{
			name: "dup-gate",
			in:   "gate g1 AND\ngate g1 OR",
			want: `netlist: line 2: duplicate gate "g1"`,
		},
		{
			name: "dup-wire",
			in:   "wire w 1\nwire w 1",
			want: `netlist: line 2: duplicate wire "w"`,
		},
		{
			name: "bad-width",
			in:   "wire w nope",
			want: `netlist: line 1: invalid wire width "nope"`,
		},
		{
			name: "zero-width",
			in:   "wire w 0",
			want: `netlist: line 1: invalid wire width "0"`,
		},
		{
			name: "bind-unknown-gate",
			in:   "wire w 1\nbind g1 out 0 w",
			want: `netlist: line 2: unknown gate "g1"`,
		},
		{
			name: "bind-unknown-wire",
			in:   "gate g1 AND\nbind g1 out 0 w",
			want: `netlist: line 2: unknown wire "w"`,
		},
		{
			name: "bind-bad-kind",
			in:   "gate g1 AND\nwire w 1\nbind g1 sideways 0 w",
			want: `netlist: line 3: invalid pin kind "sideways"`,
		},
		{
			name: "drive-bad-time",
			in:   "gate g1 AND\ndrive g1 in 0 1 7",
			want: `netlist: line 2: invalid time "7" (want @<time>)`,
		},
		{
			name: "drive-bad-bits",
			in:   "gate g1 AND\ndrive g1 in 0 2 @0",
			want: `netlist: line 2: invalid bits "2"`,
		},
		{
			name: "probe-unknown-wire",
			in:   "probe w",
			want: `netlist: line 1: unknown wire "w"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.in))
			if err == nil {
				t.Fatalf("expected an error")
			}
			if got := err.Error(); got != tc.want {
				t.Fatalf("invalid error:\ngot= %q\nwant=%q", got, tc.want)
			}
		})
	}
}

func TestInstantiateAndRun(t *testing.T) {
	d, err := Parse(strings.NewReader(halfAdder))
	if err != nil {
		t.Fatalf("could not parse design: %+v", err)
	}

	m := sim.New(log.NewMsgStream("netlist-test", log.LvlError, io.Discard))
	ins, err := d.Instantiate(m)
	if err != nil {
		t.Fatalf("could not instantiate design: %+v", err)
	}
	if err := ins.Apply(m); err != nil {
		t.Fatalf("could not apply stimuli: %+v", err)
	}

	m.Run()

	if got, want := m.LumpValue(ins.Wires["sum"]).String(), "0"; got != want {
		t.Fatalf("invalid sum: got=%q, want=%q", got, want)
	}
	if got, want := m.LumpValue(ins.Wires["carry"]).String(), "1"; got != want {
		t.Fatalf("invalid carry: got=%q, want=%q", got, want)
	}
	if got, want := len(ins.Probes), 2; got != want {
		t.Fatalf("invalid probes: got=%d, want=%d", got, want)
	}
	if got, want := ins.Probes[0].Lump, ins.Wires["sum"]; got != want {
		t.Fatalf("invalid probe binding: got=%d, want=%d", got, want)
	}
}

func TestInstantiateUnknownKind(t *testing.T) {
	d, err := Parse(strings.NewReader("gate g1 FROB"))
	if err != nil {
		t.Fatalf("could not parse design: %+v", err)
	}
	m := sim.New(log.NewMsgStream("netlist-test", log.LvlError, io.Discard))
	_, err = d.Instantiate(m)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if !strings.Contains(err.Error(), `gate with name "FROB" does not exist`) {
		t.Fatalf("invalid error: %q", err.Error())
	}
}
