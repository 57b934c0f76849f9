// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dls-boot brings a DLS node up: it launches the TDAQ
// simulation server and the run controller, keeps their logs and
// optional pmon resource profiles under one directory, and probes
// the controller's socket so a dead control plane takes the node
// down instead of lingering half-alive.
package main // import "github.com/go-dls/dls/cmd/dls-boot"

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/sbinet/pmon"
	"golang.org/x/sync/errgroup"
)

func main() {
	var (
		design = flag.String("design", "design.dls", "netlist served by dls-srv")
		dir    = flag.String("dir", "/var/log/dls", "directory for process logs")
		ctl    = flag.String("ctl", "localhost:8866", "dls-ctl address to health-check")
		doMon  = flag.Bool("pmon", false, "record pmon resource profiles")
		freq   = flag.Duration("freq", 10*time.Second, "pmon and health-check interval")
	)

	flag.Parse()

	log.SetPrefix("dls-boot: ")
	log.SetFlags(0)

	procs := []proc{
		{name: "dls-srv", args: []string{"sim", *design}},
		{name: "dls-ctl", args: []string{"-addr", *ctl, "-dir", *dir}},
	}

	err := boot(procs, *dir, *ctl, *doMon, *freq)
	if err != nil {
		log.Fatalf("%+v", err)
	}
}

// proc describes one node process to bring up.
type proc struct {
	name string
	args []string
}

func boot(procs []proc, dir, ctl string, doMon bool, freq time.Duration) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return fmt.Errorf("could not create log directory %q: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	grp, gctx := errgroup.WithContext(ctx)
	for i := range procs {
		p := procs[i]
		grp.Go(func() error {
			return supervise(gctx, p, dir, doMon, freq)
		})
	}
	grp.Go(func() error {
		return probeCtl(gctx, ctl, freq)
	})

	err = grp.Wait()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("could not keep DLS node up: %w", err)
	}
	return nil
}

// supervise runs one process to completion, writing its output to a
// log file. Cancelling ctx terminates the process; a process dying
// on its own is an error that brings the whole node down.
func supervise(ctx context.Context, p proc, dir string, doMon bool, freq time.Duration) error {
	out, err := os.Create(filepath.Join(dir, p.name+".log"))
	if err != nil {
		return fmt.Errorf("could not create log file for %q: %w", p.name, err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdout = out
	cmd.Stderr = out

	log.Printf("bringing up %q...", p.name)
	err = cmd.Start()
	if err != nil {
		return fmt.Errorf("could not bring up %q: %w", p.name, err)
	}

	if doMon {
		detach, err := profile(cmd, dir, freq)
		if err != nil {
			log.Printf("no resource profile for %q: %+v", p.name, err)
		} else {
			defer detach()
		}
	}

	err = cmd.Wait()
	switch {
	case ctx.Err() != nil:
		log.Printf("shutting down %q", p.name)
		return nil
	case err != nil:
		return fmt.Errorf("process %q died: %w", p.name, err)
	default:
		return fmt.Errorf("process %q exited; a node process should not stop on its own", p.name)
	}
}

// profile attaches a pmon sampler to a running process and streams
// the resource profile next to its log. The returned function
// detaches the sampler.
func profile(cmd *exec.Cmd, dir string, freq time.Duration) (func(), error) {
	var (
		name  = filepath.Base(cmd.Path)
		pid   = cmd.Process.Pid
		fname = filepath.Join(dir, name+".pmon")
	)

	f, err := os.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("could not create profile %q: %w", fname, err)
	}

	mon, err := pmon.Monitor(pid)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("could not attach to pid=%d: %w", pid, err)
	}
	mon.W = f
	mon.Freq = freq

	go func() {
		log.Printf("profiling %q (pid=%d) every %v", name, pid, freq)
		err := mon.Run()
		if err != nil {
			log.Printf("profile of %q ended: %+v", name, err)
		}
	}()

	return func() {
		err := mon.Kill()
		if err != nil {
			log.Printf("could not detach profile of %q: %+v", name, err)
		}
		f.Close()
	}, nil
}

// probeCtl dials the run controller on every tick. The controller is
// given a grace period to open its socket; after that, an
// unreachable control plane is fatal for the node.
func probeCtl(ctx context.Context, addr string, freq time.Duration) error {
	const grace = 3

	tick := time.NewTicker(freq)
	defer tick.Stop()

	misses := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
			if err != nil {
				misses++
				log.Printf("control plane %q unreachable (%d/%d): %+v", addr, misses, grace, err)
				if misses >= grace {
					return fmt.Errorf("control plane %q unreachable: %w", addr, err)
				}
				continue
			}
			conn.Close()
			misses = 0
		}
	}
}
