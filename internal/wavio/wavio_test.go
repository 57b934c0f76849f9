// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wavio

import (
	"bytes"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/go-daq/tdaq/log"
	"github.com/go-dls/dls/logic"
	"github.com/go-dls/dls/sim"
)

func TestRoundTrip(t *testing.T) {
	wf := Waveform{
		Signals: []Signal{
			{Name: "clk", Width: 1},
			{Name: "bus", Width: 4},
		},
		Samples: []Sample{
			{Time: 0, Values: []logic.Bits{logic.MustParse("0"), logic.MustParse("ZZZZ")}},
			{Time: 1, Values: []logic.Bits{logic.MustParse("1"), logic.MustParse("10XZ")}},
			{Time: 2, Values: []logic.Bits{logic.MustParse("0"), logic.MustParse("10XZ")}},
			{Time: 5, Values: []logic.Bits{logic.MustParse("X"), logic.MustParse("1111")}},
		},
	}

	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(&wf)
	if err != nil {
		t.Fatalf("could not encode waveform: %+v", err)
	}

	var got Waveform
	err = NewDecoder(buf).Decode(&got)
	if err != nil {
		t.Fatalf("could not decode waveform: %+v", err)
	}

	if !reflect.DeepEqual(got.Signals, wf.Signals) {
		t.Fatalf("invalid signals:\ngot= %#v\nwant=%#v", got.Signals, wf.Signals)
	}
	if got, want := len(got.Samples), len(wf.Samples); got != want {
		t.Fatalf("invalid number of samples: got=%d, want=%d", got, want)
	}
	for i, s := range got.Samples {
		want := wf.Samples[i]
		if s.Time != want.Time {
			t.Fatalf("sample %d: invalid time: got=%d, want=%d", i, s.Time, want.Time)
		}
		for j, v := range s.Values {
			if !v.Equal(want.Values[j]) {
				t.Fatalf("sample %d, signal %d: got=%q, want=%q", i, j, v, want.Values[j])
			}
		}
	}
}

func TestEncoderOutput(t *testing.T) {
	wf := Waveform{
		Signals: []Signal{{Name: "q", Width: 1}},
		Samples: []Sample{
			{Time: 0, Values: []logic.Bits{logic.MustParse("Z")}},
			{Time: 3, Values: []logic.Bits{logic.MustParse("1")}},
		},
	}

	buf := new(bytes.Buffer)
	err := NewEncoder(buf).Encode(&wf)
	if err != nil {
		t.Fatalf("could not encode waveform: %+v", err)
	}

	want := `$timescale 1ns $end
$scope module dls $end
$var wire 1 ! q $end
$upscope $end
$enddefinitions $end
#0
z!
#3
1!
`
	if got := buf.String(); got != want {
		t.Fatalf("invalid VCD output:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDecoderErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   string
	}{
		{name: "bad-var", in: "$var wire one ! q $end"},
		{name: "bad-time", in: "#zap"},
		{name: "unknown-code", in: "$enddefinitions $end\n#0\n1!"},
		{name: "width-mismatch", in: "$var wire 2 ! q $end\n#0\nb101 !"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var wf Waveform
			err := NewDecoder(strings.NewReader(tc.in)).Decode(&wf)
			if err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestIDCode(t *testing.T) {
	if got, want := idCode(0), "!"; got != want {
		t.Fatalf("invalid code for 0: got=%q, want=%q", got, want)
	}
	if got, want := idCode(93), "~"; got != want {
		t.Fatalf("invalid code for 93: got=%q, want=%q", got, want)
	}
	if got, want := idCode(94), "!!"; got != want {
		t.Fatalf("invalid code for 94: got=%q, want=%q", got, want)
	}
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		c := idCode(i)
		if seen[c] {
			t.Fatalf("duplicate code %q for index %d", c, i)
		}
		seen[c] = true
	}
}

func TestRecorder(t *testing.T) {
	m := sim.New(log.NewMsgStream("wavio-test", log.LvlError, io.Discard))

	g1, err := m.CreateGate("NOT")
	if err != nil {
		t.Fatalf("could not create gate: %+v", err)
	}
	lump := m.CreateLump(1)
	if err := m.ConnectGatePin(g1, sim.Out, 0, lump); err != nil {
		t.Fatalf("could not bind output: %+v", err)
	}

	rec := NewRecorder(m)
	rec.Watch("q", lump)

	in, _ := m.GatePin(g1, sim.In, 0)
	m.SchedulePinUpdate(0, in, logic.MustParse("1"))

	rec.Sample()
	for m.Pending() {
		m.Step()
		rec.Sample()
	}

	wf := rec.Waveform()
	if got, want := len(wf.Signals), 1; got != want {
		t.Fatalf("invalid number of signals: got=%d, want=%d", got, want)
	}
	// Two distinct states: the initial Z and the inverted input at t=1.
	if got, want := len(wf.Samples), 2; got != want {
		t.Fatalf("invalid number of samples: got=%d, want=%d", got, want)
	}
	if got, want := wf.Samples[0].Values[0].String(), "Z"; got != want {
		t.Fatalf("invalid initial sample: got=%q, want=%q", got, want)
	}
	if got, want := wf.Samples[1].Time, uint64(1); got != want {
		t.Fatalf("invalid sample time: got=%d, want=%d", got, want)
	}
	if got, want := wf.Samples[1].Values[0].String(), "0"; got != want {
		t.Fatalf("invalid sample value: got=%q, want=%q", got, want)
	}
}
