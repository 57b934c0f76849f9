// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dls-run loads a netlist design, runs it to quiescence (or
// to a time horizon) and reports the value of every wire. With -vcd, the
// probed waveform is written out as a VCD file.
package main // import "github.com/go-dls/dls/cmd/dls-run"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-dls/dls/internal/wavio"
	"github.com/go-dls/dls/netlist"
	"github.com/go-dls/dls/sim"
)

func main() {
	log.SetPrefix("dls-run: ")
	log.SetFlags(0)

	var (
		oname   = flag.String("vcd", "", "path to output VCD file")
		horizon = flag.Uint64("t", 0, "time horizon (0 runs to quiescence)")
		verbose = flag.Bool("v", false, "enable verbose simulation logs")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: dls-run [OPTIONS] design.dls

ex:
 $> dls-run -vcd out.vcd -t 100 ./half-adder.dls

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input netlist file")
	}

	err := run(flag.Arg(0), *oname, *horizon, *verbose)
	if err != nil {
		log.Fatalf("could not run simulation: %+v", err)
	}
}

func run(fname, oname string, horizon uint64, verbose bool) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open netlist %q: %w", fname, err)
	}
	defer f.Close()

	design, err := netlist.Parse(f)
	if err != nil {
		return fmt.Errorf("could not parse netlist %q: %w", fname, err)
	}

	lvl := tlog.LvlInfo
	if verbose {
		lvl = tlog.LvlDebug
	}
	mgr := sim.New(tlog.NewMsgStream("sim", lvl, os.Stdout))

	ins, err := design.Instantiate(mgr)
	if err != nil {
		return fmt.Errorf("could not instantiate design: %w", err)
	}
	err = ins.Apply(mgr)
	if err != nil {
		return fmt.Errorf("could not apply stimuli: %w", err)
	}

	rec := wavio.NewRecorder(mgr)
	for _, p := range ins.Probes {
		rec.Watch(p.Name, p.Lump)
	}

	rec.Sample()
	for mgr.Pending() {
		mgr.Step()
		rec.Sample()
		if horizon > 0 && mgr.Now() >= horizon {
			log.Printf("stopping at time horizon t=%d", mgr.Now())
			break
		}
	}

	fmt.Printf("=== %s ===\n", fname)
	fmt.Printf("time:   %d\n", mgr.Now())
	wires := make([]string, 0, len(ins.Wires))
	for name := range ins.Wires {
		wires = append(wires, name)
	}
	sort.Strings(wires)
	for _, name := range wires {
		fmt.Printf("wire %-12s %v\n", name, mgr.LumpValue(ins.Wires[name]))
	}

	if oname == "" {
		return nil
	}

	o, err := os.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create VCD file %q: %w", oname, err)
	}
	defer o.Close()

	err = wavio.NewEncoder(o).Encode(rec.Waveform())
	if err != nil {
		return fmt.Errorf("could not encode VCD file %q: %w", oname, err)
	}

	err = o.Close()
	if err != nil {
		return fmt.Errorf("could not close VCD file %q: %w", oname, err)
	}

	return nil
}
