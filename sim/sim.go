// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim implements the DLS discrete-event engine: an entity
// store owning pins, lumps and gates, and a three-queue event loop
// advancing simulated time.
package sim // import "github.com/go-dls/dls/sim"

import (
	"container/heap"
	"fmt"
	"os"

	"github.com/go-daq/tdaq/log"
	"github.com/go-dls/dls/logic"
)

// Manager owns every pin, lump and gate of a simulation and drives
// the event loop. External code refers to entities only by the
// numeric ids Manager hands out; ids are allocated monotonically,
// starting at 1, and never reused. Id 0 means "no entity".
//
// Manager is not safe for concurrent use: the engine is
// single-threaded and cooperative by design.
type Manager struct {
	msg log.MsgStream
	lib map[string]Blueprint

	counter uint32
	now     uint64

	pinq  pinQueue
	gateq []gateUpdate
	lumpq []lumpUpdate

	pins  map[uint32]*Pin
	lumps map[uint32]*Lump
	gates map[uint32]*Gate
}

// New returns a Manager with the built-in gate library installed.
// Informational events are reported on msg; a nil msg logs to stdout.
func New(msg log.MsgStream) *Manager {
	if msg == nil {
		msg = log.NewMsgStream("sim", log.LvlInfo, os.Stdout)
	}
	return &Manager{
		msg:   msg,
		lib:   builtins(),
		pins:  make(map[uint32]*Pin),
		lumps: make(map[uint32]*Lump),
		gates: make(map[uint32]*Gate),
	}
}

func (m *Manager) nextID() uint32 {
	m.counter++
	return m.counter
}

func (m *Manager) createPin(gate uint32, n int, kind Kind) uint32 {
	id := m.nextID()
	m.pins[id] = &Pin{id: id, gate: gate, kind: kind, value: logic.New(n)}
	m.msg.Debugf("created %v pin %d (gate=%d, width=%d)", kind, id, gate, n)
	return id
}

// Register adds a gate blueprint to the library under name.
func (m *Manager) Register(name string, bp Blueprint) error {
	if _, dup := m.lib[name]; dup {
		return fmt.Errorf("sim: gate %q already registered", name)
	}
	m.lib[name] = bp
	return nil
}

// CreateGate instantiates the named gate from the library and
// returns its id. The gate id is allocated first, then the pins, in
// the blueprint's declaration order.
func (m *Manager) CreateGate(name string) (uint32, error) {
	bp, ok := m.lib[name]
	if !ok {
		return 0, fmt.Errorf("sim: gate with name %q does not exist", name)
	}

	id := m.nextID()
	g := &Gate{id: id, gpio: GPIO{gate: id}, logic: bp.Logic}
	bp.Pins(&Builder{m: m, gpio: &g.gpio})
	m.gates[id] = g
	m.msg.Debugf("created gate %q id=%d", name, id)

	return id, nil
}

// CreateLump creates an n-bit wide shared wire and returns its id.
func (m *Manager) CreateLump(n int) uint32 {
	id := m.nextID()
	m.lumps[id] = &Lump{id: id, value: logic.New(n)}
	m.msg.Debugf("created lump %d (width=%d)", id, n)
	return id
}

// ConnectPinToLump binds pin to lump. A pin already bound to another
// lump is disconnected from it first.
func (m *Manager) ConnectPinToLump(pin, lump uint32) error {
	p, okp := m.pins[pin]
	l, okl := m.lumps[lump]
	switch {
	case !okp && !okl:
		return fmt.Errorf("sim: could not connect: unknown pin id=%d and unknown lump id=%d", pin, lump)
	case !okp:
		return fmt.Errorf("sim: could not connect: unknown pin id=%d", pin)
	case !okl:
		return fmt.Errorf("sim: could not connect: unknown lump id=%d", lump)
	}

	if p.lump == lump {
		return nil
	}
	if p.lump != 0 {
		m.lumps[p.lump].disconnect(pin)
	}
	p.lump = lump
	l.connect(pin)
	return nil
}

// DisconnectPinFromLump unbinds pin from lump.
func (m *Manager) DisconnectPinFromLump(pin, lump uint32) error {
	p, okp := m.pins[pin]
	l, okl := m.lumps[lump]
	switch {
	case !okp && !okl:
		return fmt.Errorf("sim: could not disconnect: unknown pin id=%d and unknown lump id=%d", pin, lump)
	case !okp:
		return fmt.Errorf("sim: could not disconnect: unknown pin id=%d", pin)
	case !okl:
		return fmt.Errorf("sim: could not disconnect: unknown lump id=%d", lump)
	}

	if p.lump == lump {
		p.lump = 0
	}
	l.disconnect(pin)
	return nil
}

// GatePin resolves the idx-th pin of the given kind on a gate,
// following the gate's public index-addressable layout.
func (m *Manager) GatePin(gate uint32, kind Kind, idx int) (uint32, error) {
	g, ok := m.gates[gate]
	if !ok {
		return 0, fmt.Errorf("sim: unknown gate id=%d", gate)
	}
	pins := g.gpio.Pins(kind)
	if idx < 0 || idx >= len(pins) {
		return 0, fmt.Errorf("sim: gate %d has no %v pin %d (got=%d pins)", gate, kind, idx, len(pins))
	}
	return pins[idx], nil
}

// ConnectGatePin binds the idx-th pin of the given kind on gate to
// lump. It is a convenience over GatePin and ConnectPinToLump.
func (m *Manager) ConnectGatePin(gate uint32, kind Kind, idx int, lump uint32) error {
	pin, err := m.GatePin(gate, kind, idx)
	if err != nil {
		return err
	}
	return m.ConnectPinToLump(pin, lump)
}

// PinValue returns a copy of the pin's current value.
// An unknown id is a programmer error.
func (m *Manager) PinValue(id uint32) logic.Bits {
	p, ok := m.pins[id]
	if !ok {
		panic(fmt.Errorf("sim: unknown pin id=%d", id))
	}
	return p.value.Clone()
}

// LumpValue returns a copy of the lump's current value.
// An unknown id is a programmer error.
func (m *Manager) LumpValue(id uint32) logic.Bits {
	l, ok := m.lumps[id]
	if !ok {
		panic(fmt.Errorf("sim: unknown lump id=%d", id))
	}
	return l.value.Clone()
}

// SchedulePinUpdate schedules bits to land on pin after delay time
// units. A zero delay schedules for the current timestamp.
func (m *Manager) SchedulePinUpdate(delay uint64, pin uint32, bits logic.Bits) {
	ev := pinUpdate{time: m.now + delay, pin: pin, value: bits.Clone()}
	m.msg.Debugf("scheduling pin %d update to %v at t=%d", pin, ev.value, ev.time)
	heap.Push(&m.pinq, ev)
}

// Now returns the current simulation time.
func (m *Manager) Now() uint64 { return m.now }

// Pending reports whether any pin update is scheduled.
func (m *Manager) Pending() bool { return m.pinq.Len() > 0 }

// Step processes every pin update scheduled for the current
// timestamp. After each one, the gate queue and then the lump queue
// are drained to exhaustion, so the full causal chain of a pin event
// completes before the next one is popped. Step returns when the
// queue is empty (quiescent) or when the next event lies in the
// future, in which case the clock advances to it.
func (m *Manager) Step() {
	for {
		if m.pinq.Len() == 0 {
			m.msg.Debugf("no pending pin events at t=%d", m.now)
			return
		}
		if next := m.pinq[0].time; next > m.now {
			m.msg.Debugf("advancing time to %d", next)
			m.now = next
			return
		}

		ev := heap.Pop(&m.pinq).(pinUpdate)
		p, ok := m.pins[ev.pin]
		if !ok {
			panic(fmt.Errorf("sim: unknown pin id=%d", ev.pin))
		}
		p.acceptUpdate(m, ev.value)

		m.drainGates()
		m.drainLumps()
	}
}

// Run steps the simulation until quiescence.
func (m *Manager) Run() {
	for m.Pending() {
		m.Step()
	}
}

func (m *Manager) drainGates() {
	for len(m.gateq) > 0 {
		ev := m.gateq[0]
		m.gateq = m.gateq[1:]

		g, ok := m.gates[ev.gate]
		if !ok {
			panic(fmt.Errorf("sim: unknown gate id=%d", ev.gate))
		}
		m.msg.Debugf("updating gate %d (sender pin=%d)", ev.gate, ev.sender)
		g.handleEvent(m, ev)
	}
}

func (m *Manager) drainLumps() {
	for len(m.lumpq) > 0 {
		ev := m.lumpq[0]
		m.lumpq = m.lumpq[1:]

		l, ok := m.lumps[ev.lump]
		if !ok {
			panic(fmt.Errorf("sim: unknown lump id=%d", ev.lump))
		}
		l.acceptUpdate(m, ev)
	}
}
