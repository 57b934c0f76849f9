// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wavio records simulation waveforms and encodes them to
// (and decodes them from) a VCD subset.
package wavio // import "github.com/go-dls/dls/internal/wavio"

import (
	"github.com/go-dls/dls/logic"
	"github.com/go-dls/dls/sim"
)

// Signal names one recorded wire.
type Signal struct {
	Name  string
	Width int
}

// Sample holds the value of every signal, in declaration order, at
// one timestamp.
type Sample struct {
	Time   uint64
	Values []logic.Bits
}

// Waveform is a recorded set of signals and their samples, ordered
// by time.
type Waveform struct {
	Signals []Signal
	Samples []Sample
}

// Recorder samples probed lumps of a simulation. The driver calls
// Sample after each engine yield; identical consecutive samples are
// dropped.
type Recorder struct {
	mgr   *sim.Manager
	lumps []uint32
	wf    Waveform
}

// NewRecorder returns a recorder bound to mgr.
func NewRecorder(mgr *sim.Manager) *Recorder {
	return &Recorder{mgr: mgr}
}

// Watch adds the lump to the recorded set under the given name.
func (rec *Recorder) Watch(name string, lump uint32) {
	v := rec.mgr.LumpValue(lump)
	rec.wf.Signals = append(rec.wf.Signals, Signal{Name: name, Width: v.Len()})
	rec.lumps = append(rec.lumps, lump)
}

// Sample records the current value of every watched lump at the
// current simulation time. A sample at the same timestamp replaces
// the previous one; a sample equal to the last is dropped.
func (rec *Recorder) Sample() {
	now := rec.mgr.Now()
	vals := make([]logic.Bits, len(rec.lumps))
	for i, id := range rec.lumps {
		vals[i] = rec.mgr.LumpValue(id)
	}

	if n := len(rec.wf.Samples); n > 0 {
		last := rec.wf.Samples[n-1]
		if equalValues(last.Values, vals) {
			return
		}
		if last.Time == now {
			rec.wf.Samples[n-1] = Sample{Time: now, Values: vals}
			return
		}
	}
	rec.wf.Samples = append(rec.wf.Samples, Sample{Time: now, Values: vals})
}

// Waveform returns the recorded waveform.
func (rec *Recorder) Waveform() *Waveform {
	return &rec.wf
}

func equalValues(a, b []logic.Bits) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
