// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package srv implements the TDAQ server driving a DLS simulation
// node: it loads a netlist design, steps the engine and publishes
// waveform frames.
package srv // import "github.com/go-dls/dls/srv"

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-dls/dls/logic"
	"github.com/go-dls/dls/netlist"
	"github.com/go-dls/dls/sim"
)

// Server drives one simulation from a netlist design over TDAQ.
//
// The /config command (re)loads the design from the configured file,
// /init instantiates it into a fresh engine and schedules its
// stimuli, /start begins stepping. One waveform frame per engine
// yield is published on the output end-point.
type Server struct {
	name  string
	fname string // netlist file

	mu      sync.Mutex
	design  *netlist.Design
	mgr     *sim.Manager
	ins     *netlist.Instance
	running bool

	wave chan []byte
}

// New returns a server for the given netlist file.
func New(name, fname string) *Server {
	return &Server{
		name:  name,
		fname: fname,
		wave:  make(chan []byte, 1024),
	}
}

// OnConfig loads the netlist design from disk.
func (srv *Server) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	f, err := os.Open(srv.fname)
	if err != nil {
		ctx.Msg.Errorf("could not open netlist %q: %+v", srv.fname, err)
		return fmt.Errorf("could not open netlist %q: %w", srv.fname, err)
	}
	defer f.Close()

	design, err := netlist.Parse(f)
	if err != nil {
		ctx.Msg.Errorf("could not parse netlist %q: %+v", srv.fname, err)
		return fmt.Errorf("could not parse netlist %q: %w", srv.fname, err)
	}

	srv.mu.Lock()
	srv.design = design
	srv.mu.Unlock()

	ctx.Msg.Infof("loaded design %q (%d gates, %d wires, %d probes)",
		srv.fname, len(design.Gates), len(design.Wires), len(design.Probes),
	)
	return nil
}

// OnInit builds a fresh engine from the loaded design.
func (srv *Server) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return srv.rebuild(ctx)
}

// OnReset drops the engine and rebuilds it from the design.
func (srv *Server) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return srv.rebuild(ctx)
}

func (srv *Server) rebuild(ctx tdaq.Context) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.design == nil {
		ctx.Msg.Errorf("no design loaded")
		return fmt.Errorf("no design loaded")
	}

	mgr := sim.New(ctx.Msg)
	ins, err := srv.design.Instantiate(mgr)
	if err != nil {
		ctx.Msg.Errorf("could not instantiate design: %+v", err)
		return fmt.Errorf("could not instantiate design: %w", err)
	}
	err = ins.Apply(mgr)
	if err != nil {
		ctx.Msg.Errorf("could not apply stimuli: %+v", err)
		return fmt.Errorf("could not apply stimuli: %w", err)
	}

	srv.mgr = mgr
	srv.ins = ins
	srv.running = false
	return nil
}

// OnStart begins stepping the simulation.
func (srv *Server) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.mgr == nil {
		return fmt.Errorf("simulation not initialized")
	}
	srv.running = true
	return nil
}

// OnStop pauses the simulation.
func (srv *Server) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /stop command...")

	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.running = false
	return nil
}

// OnQuit terminates the server.
func (srv *Server) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

// Wave publishes waveform frames on the output end-point.
func (srv *Server) Wave(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-srv.wave:
		dst.Body = data
	}
	return nil
}

// Run steps the simulation while it is running and pending, pushing
// one waveform frame per engine yield.
func (srv *Server) Run(ctx tdaq.Context) error {
	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
			if !srv.step(ctx) {
				time.Sleep(10 * time.Millisecond)
			}
		}
	}
}

func (srv *Server) step(ctx tdaq.Context) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if !srv.running || srv.mgr == nil || !srv.mgr.Pending() {
		return false
	}

	srv.mgr.Step()
	frame := srv.frame()
	select {
	case srv.wave <- frame:
	default:
		ctx.Msg.Warnf("dropping waveform frame at t=%d", srv.mgr.Now())
	}

	if !srv.mgr.Pending() {
		ctx.Msg.Infof("simulation quiescent at t=%d", srv.mgr.Now())
		srv.running = false
	}
	return true
}

// frame encodes the current probe values: u64 time, u32 probe count,
// then per probe a u32 width and one byte per logic value.
func (srv *Server) frame() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.BigEndian, srv.mgr.Now())
	_ = binary.Write(buf, binary.BigEndian, uint32(len(srv.ins.Probes)))
	for _, p := range srv.ins.Probes {
		v := srv.mgr.LumpValue(p.Lump)
		_ = binary.Write(buf, binary.BigEndian, uint32(v.Len()))
		for i := 0; i < v.Len(); i++ {
			buf.WriteByte(byte(v.At(i)))
		}
	}
	return buf.Bytes()
}

// DecodeFrame is the inverse of the waveform frame encoding.
func DecodeFrame(p []byte) (t uint64, values []logic.Bits, err error) {
	r := bytes.NewReader(p)
	err = binary.Read(r, binary.BigEndian, &t)
	if err != nil {
		return 0, nil, fmt.Errorf("srv: could not read frame time: %w", err)
	}
	var n uint32
	err = binary.Read(r, binary.BigEndian, &n)
	if err != nil {
		return 0, nil, fmt.Errorf("srv: could not read frame probe count: %w", err)
	}
	for i := 0; i < int(n); i++ {
		var w uint32
		err = binary.Read(r, binary.BigEndian, &w)
		if err != nil {
			return 0, nil, fmt.Errorf("srv: could not read frame probe width: %w", err)
		}
		bits := logic.New(int(w))
		for j := 0; j < int(w); j++ {
			c, err := r.ReadByte()
			if err != nil {
				return 0, nil, fmt.Errorf("srv: could not read frame probe value: %w", err)
			}
			bits.Set(j, logic.LV(c))
		}
		values = append(values, bits)
	}
	return t, values, nil
}
