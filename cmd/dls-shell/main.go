// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dls-shell is an interactive shell over a live simulation:
// build gates and wires, drive pins, step the clock and inspect
// values.
package main // import "github.com/go-dls/dls/cmd/dls-shell"

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-dls/dls/logic"
	"github.com/go-dls/dls/netlist"
	"github.com/go-dls/dls/sim"
	"github.com/google/shlex"
	"github.com/peterh/liner"
)

func main() {
	log.SetPrefix("dls-shell: ")
	log.SetFlags(0)

	var (
		verbose = flag.Bool("v", false, "enable verbose simulation logs")
	)
	flag.Parse()

	sh := newShell(*verbose)
	if flag.NArg() == 1 {
		err := sh.load(flag.Arg(0))
		if err != nil {
			log.Fatalf("could not load design: %+v", err)
		}
	}

	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	history := filepath.Join(os.TempDir(), ".dls_shell_history")
	if f, err := os.Open(history); err == nil {
		_, _ = term.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(history); err == nil {
			_, _ = term.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		o, err := term.Prompt("dls> ")
		if err != nil {
			if err != liner.ErrPromptAborted {
				log.Printf("error: %+v", err)
			}
			return
		}
		if strings.TrimSpace(o) == "" {
			continue
		}
		term.AppendHistory(o)

		quit, err := sh.exec(o)
		if err != nil {
			log.Printf("error: %+v", err)
		}
		if quit {
			return
		}
	}
}

type shell struct {
	mgr   *sim.Manager
	gates map[string]uint32
	wires map[string]uint32
}

func newShell(verbose bool) *shell {
	lvl := tlog.LvlInfo
	if verbose {
		lvl = tlog.LvlDebug
	}
	return &shell{
		mgr:   sim.New(tlog.NewMsgStream("sim", lvl, os.Stdout)),
		gates: make(map[string]uint32),
		wires: make(map[string]uint32),
	}
}

func (sh *shell) exec(line string) (quit bool, err error) {
	toks, err := shlex.Split(line)
	if err != nil {
		return false, fmt.Errorf("could not tokenize %q: %w", line, err)
	}
	if len(toks) == 0 {
		return false, nil
	}

	switch toks[0] {
	case "help":
		sh.help()
		return false, nil
	case "quit", "exit":
		return true, nil
	case "gate":
		return false, sh.cmdGate(toks[1:])
	case "wire":
		return false, sh.cmdWire(toks[1:])
	case "bind":
		return false, sh.cmdBind(toks[1:])
	case "drive":
		return false, sh.cmdDrive(toks[1:])
	case "step":
		sh.mgr.Step()
		fmt.Printf("t=%d\n", sh.mgr.Now())
		return false, nil
	case "run":
		sh.mgr.Run()
		fmt.Printf("t=%d (quiescent)\n", sh.mgr.Now())
		return false, nil
	case "time":
		fmt.Printf("t=%d\n", sh.mgr.Now())
		return false, nil
	case "print":
		return false, sh.cmdPrint(toks[1:])
	case "list":
		sh.cmdList()
		return false, nil
	case "load":
		if len(toks) != 2 {
			return false, fmt.Errorf("usage: load <file>")
		}
		return false, sh.load(toks[1])
	}
	return false, fmt.Errorf("unknown command %q (try 'help')", toks[0])
}

func (sh *shell) help() {
	fmt.Print(`commands:
  gate  <name> <kind>                  create a gate (AND, OR, NOT, ...)
  wire  <name> <width>                 create a wire
  bind  <gate> <in|out|inout> <i> <w>  connect a gate pin to a wire
  drive <gate> <in|out> <i> <bits> @t  schedule a stimulus
  step                                 advance to the next timestamp
  run                                  run to quiescence
  time                                 print the current time
  print <gate|wire>                    print pin/wire values
  list                                 list gates and wires
  load  <file>                         load a netlist into the session
  quit
`)
}

func (sh *shell) cmdGate(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: gate <name> <kind>")
	}
	if _, dup := sh.gates[args[0]]; dup {
		return fmt.Errorf("duplicate gate %q", args[0])
	}
	id, err := sh.mgr.CreateGate(args[1])
	if err != nil {
		return err
	}
	sh.gates[args[0]] = id
	return nil
}

func (sh *shell) cmdWire(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: wire <name> <width>")
	}
	if _, dup := sh.wires[args[0]]; dup {
		return fmt.Errorf("duplicate wire %q", args[0])
	}
	width, err := strconv.Atoi(args[1])
	if err != nil || width <= 0 {
		return fmt.Errorf("invalid wire width %q", args[1])
	}
	sh.wires[args[0]] = sh.mgr.CreateLump(width)
	return nil
}

func (sh *shell) cmdBind(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: bind <gate> <in|out|inout> <index> <wire>")
	}
	gate, ok := sh.gates[args[0]]
	if !ok {
		return fmt.Errorf("unknown gate %q", args[0])
	}
	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[2])
	if err != nil || idx < 0 {
		return fmt.Errorf("invalid pin index %q", args[2])
	}
	wire, ok := sh.wires[args[3]]
	if !ok {
		return fmt.Errorf("unknown wire %q", args[3])
	}
	return sh.mgr.ConnectGatePin(gate, kind, idx, wire)
}

func (sh *shell) cmdDrive(args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: drive <gate> <in|out> <index> <bits> @<time>")
	}
	gate, ok := sh.gates[args[0]]
	if !ok {
		return fmt.Errorf("unknown gate %q", args[0])
	}
	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	idx, err := strconv.Atoi(args[2])
	if err != nil || idx < 0 {
		return fmt.Errorf("invalid pin index %q", args[2])
	}
	bits, err := logic.Parse(args[3])
	if err != nil {
		return err
	}
	if !strings.HasPrefix(args[4], "@") {
		return fmt.Errorf("invalid time %q (want @<time>)", args[4])
	}
	tv, err := strconv.ParseUint(args[4][1:], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid time %q", args[4])
	}
	if tv < sh.mgr.Now() {
		return fmt.Errorf("time t=%d is in the past (now=%d)", tv, sh.mgr.Now())
	}
	pin, err := sh.mgr.GatePin(gate, kind, idx)
	if err != nil {
		return err
	}
	sh.mgr.SchedulePinUpdate(tv-sh.mgr.Now(), pin, bits)
	return nil
}

func (sh *shell) cmdPrint(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: print <gate|wire>")
	}
	if id, ok := sh.wires[args[0]]; ok {
		fmt.Printf("wire %s: %v\n", args[0], sh.mgr.LumpValue(id))
		return nil
	}
	id, ok := sh.gates[args[0]]
	if !ok {
		return fmt.Errorf("unknown gate or wire %q", args[0])
	}
	for _, kind := range []sim.Kind{sim.In, sim.Out, sim.InOut} {
		for i := 0; ; i++ {
			pin, err := sh.mgr.GatePin(id, kind, i)
			if err != nil {
				break
			}
			fmt.Printf("%s %v %d: %v\n", args[0], kind, i, sh.mgr.PinValue(pin))
		}
	}
	return nil
}

func (sh *shell) cmdList() {
	names := make([]string, 0, len(sh.gates))
	for name := range sh.gates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("gate %s (id=%d)\n", name, sh.gates[name])
	}
	names = names[:0]
	for name := range sh.wires {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("wire %s (id=%d) %v\n", name, sh.wires[name], sh.mgr.LumpValue(sh.wires[name]))
	}
}

func (sh *shell) load(fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open netlist %q: %w", fname, err)
	}
	defer f.Close()

	design, err := netlist.Parse(f)
	if err != nil {
		return fmt.Errorf("could not parse netlist %q: %w", fname, err)
	}
	ins, err := design.Instantiate(sh.mgr)
	if err != nil {
		return fmt.Errorf("could not instantiate design: %w", err)
	}
	err = ins.Apply(sh.mgr)
	if err != nil {
		return fmt.Errorf("could not apply stimuli: %w", err)
	}

	for name, id := range ins.Gates {
		sh.gates[name] = id
	}
	for name, id := range ins.Wires {
		sh.wires[name] = id
	}
	log.Printf("loaded %q (%d gates, %d wires)", fname, len(ins.Gates), len(ins.Wires))
	return nil
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
