// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package netlist implements the DLS textual netlist and stimulus
// format:
//
//	# half adder
//	gate  x1 XOR
//	gate  a1 AND
//	wire  sum 1
//	wire  carry 1
//	bind  x1 out 0 sum
//	bind  a1 out 0 carry
//	drive x1 in 0 1 @0
//	drive a1 in 0 1 @0
//	probe sum
//	probe carry
//
// Lines are shlex-tokenized; '#' starts a comment.
package netlist // import "github.com/go-dls/dls/netlist"

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-dls/dls/logic"
	"github.com/go-dls/dls/sim"
	"github.com/google/shlex"
)

// GateDecl instantiates a named gate from the library.
type GateDecl struct {
	Name string
	Kind string // library name, e.g. "AND"
}

// WireDecl creates a named lump.
type WireDecl struct {
	Name  string
	Width int
}

// BindDecl connects a gate pin, addressed by kind and index, to a wire.
type BindDecl struct {
	Gate  string
	Kind  sim.Kind
	Index int
	Wire  string
}

// DriveDecl schedules a stimulus on a gate pin at an absolute time.
type DriveDecl struct {
	Gate  string
	Kind  sim.Kind
	Index int
	Bits  logic.Bits
	Time  uint64
}

// Design is a parsed netlist.
type Design struct {
	Gates  []GateDecl
	Wires  []WireDecl
	Binds  []BindDecl
	Drives []DriveDecl
	Probes []string
}

// Parse reads a design from r.
func Parse(r io.Reader) (*Design, error) {
	var (
		d     Design
		gates = make(map[string]bool)
		wires = make(map[string]bool)
		sc    = bufio.NewScanner(r)
		line  = 0
	)

	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}
		toks, err := shlex.Split(text)
		if err != nil {
			return nil, fmt.Errorf("netlist: line %d: could not tokenize: %w", line, err)
		}
		if len(toks) == 0 {
			continue
		}

		switch toks[0] {
		case "gate":
			if len(toks) != 3 {
				return nil, fmt.Errorf("netlist: line %d: usage: gate <name> <kind>", line)
			}
			if gates[toks[1]] {
				return nil, fmt.Errorf("netlist: line %d: duplicate gate %q", line, toks[1])
			}
			gates[toks[1]] = true
			d.Gates = append(d.Gates, GateDecl{Name: toks[1], Kind: toks[2]})

		case "wire":
			if len(toks) != 3 {
				return nil, fmt.Errorf("netlist: line %d: usage: wire <name> <width>", line)
			}
			if wires[toks[1]] {
				return nil, fmt.Errorf("netlist: line %d: duplicate wire %q", line, toks[1])
			}
			width, err := strconv.Atoi(toks[2])
			if err != nil || width <= 0 {
				return nil, fmt.Errorf("netlist: line %d: invalid wire width %q", line, toks[2])
			}
			wires[toks[1]] = true
			d.Wires = append(d.Wires, WireDecl{Name: toks[1], Width: width})

		case "bind":
			if len(toks) != 5 {
				return nil, fmt.Errorf("netlist: line %d: usage: bind <gate> <in|out|inout> <index> <wire>", line)
			}
			kind, err := parseKind(toks[2])
			if err != nil {
				return nil, fmt.Errorf("netlist: line %d: %w", line, err)
			}
			idx, err := strconv.Atoi(toks[3])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("netlist: line %d: invalid pin index %q", line, toks[3])
			}
			if !gates[toks[1]] {
				return nil, fmt.Errorf("netlist: line %d: unknown gate %q", line, toks[1])
			}
			if !wires[toks[4]] {
				return nil, fmt.Errorf("netlist: line %d: unknown wire %q", line, toks[4])
			}
			d.Binds = append(d.Binds, BindDecl{Gate: toks[1], Kind: kind, Index: idx, Wire: toks[4]})

		case "drive":
			if len(toks) != 6 {
				return nil, fmt.Errorf("netlist: line %d: usage: drive <gate> <in|out> <index> <bits> @<time>", line)
			}
			kind, err := parseKind(toks[2])
			if err != nil {
				return nil, fmt.Errorf("netlist: line %d: %w", line, err)
			}
			idx, err := strconv.Atoi(toks[3])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("netlist: line %d: invalid pin index %q", line, toks[3])
			}
			bits, err := logic.Parse(toks[4])
			if err != nil {
				return nil, fmt.Errorf("netlist: line %d: invalid bits %q", line, toks[4])
			}
			if !strings.HasPrefix(toks[5], "@") {
				return nil, fmt.Errorf("netlist: line %d: invalid time %q (want @<time>)", line, toks[5])
			}
			tv, err := strconv.ParseUint(toks[5][1:], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("netlist: line %d: invalid time %q", line, toks[5])
			}
			if !gates[toks[1]] {
				return nil, fmt.Errorf("netlist: line %d: unknown gate %q", line, toks[1])
			}
			d.Drives = append(d.Drives, DriveDecl{Gate: toks[1], Kind: kind, Index: idx, Bits: bits, Time: tv})

		case "probe":
			if len(toks) != 2 {
				return nil, fmt.Errorf("netlist: line %d: usage: probe <wire>", line)
			}
			if !wires[toks[1]] {
				return nil, fmt.Errorf("netlist: line %d: unknown wire %q", line, toks[1])
			}
			d.Probes = append(d.Probes, toks[1])

		default:
			return nil, fmt.Errorf("netlist: line %d: unknown directive %q", line, toks[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("netlist: could not read input: %w", err)
	}

	return &d, nil
}

func parseKind(s string) (sim.Kind, error) {
	switch s {
	case "in":
		return sim.In, nil
	case "out":
		return sim.Out, nil
	case "inout":
		return sim.InOut, nil
	}
	return 0, fmt.Errorf("invalid pin kind %q", s)
}

// ProbeRef is a probed wire resolved to its lump id.
type ProbeRef struct {
	Name string
	Lump uint32
}

// Instance is a design realized inside a Manager: the name-to-id
// maps external drivers navigate with.
type Instance struct {
	Gates  map[string]uint32
	Wires  map[string]uint32
	Probes []ProbeRef

	design *Design
}

// Instantiate creates the design's gates and wires in m and connects
// them.
func (d *Design) Instantiate(m *sim.Manager) (*Instance, error) {
	ins := &Instance{
		Gates:  make(map[string]uint32, len(d.Gates)),
		Wires:  make(map[string]uint32, len(d.Wires)),
		design: d,
	}

	for _, g := range d.Gates {
		id, err := m.CreateGate(g.Kind)
		if err != nil {
			return nil, fmt.Errorf("netlist: could not create gate %q: %w", g.Name, err)
		}
		ins.Gates[g.Name] = id
	}
	for _, w := range d.Wires {
		ins.Wires[w.Name] = m.CreateLump(w.Width)
	}
	for _, b := range d.Binds {
		err := m.ConnectGatePin(ins.Gates[b.Gate], b.Kind, b.Index, ins.Wires[b.Wire])
		if err != nil {
			return nil, fmt.Errorf("netlist: could not bind %s %v %d to %s: %w",
				b.Gate, b.Kind, b.Index, b.Wire, err,
			)
		}
	}
	for _, p := range d.Probes {
		ins.Probes = append(ins.Probes, ProbeRef{Name: p, Lump: ins.Wires[p]})
	}

	return ins, nil
}

// Apply schedules the design's stimuli on m. Stimulus times are
// absolute; a drive in the simulated past is an error.
func (ins *Instance) Apply(m *sim.Manager) error {
	for _, d := range ins.design.Drives {
		pin, err := m.GatePin(ins.Gates[d.Gate], d.Kind, d.Index)
		if err != nil {
			return fmt.Errorf("netlist: could not resolve drive target %s %v %d: %w",
				d.Gate, d.Kind, d.Index, err,
			)
		}
		if d.Time < m.Now() {
			return fmt.Errorf("netlist: drive on %s %v %d at t=%d is in the past (now=%d)",
				d.Gate, d.Kind, d.Index, d.Time, m.Now(),
			)
		}
		m.SchedulePinUpdate(d.Time-m.Now(), pin, d.Bits)
	}
	return nil
}
