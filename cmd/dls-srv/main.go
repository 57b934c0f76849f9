// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dls-srv starts a TDAQ server driving a DLS simulation node.
package main // import "github.com/go-dls/dls/cmd/dls-srv"

import (
	"context"
	"log"
	"os"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-dls/dls/srv"
)

func main() {
	cmd := flags.New()

	if len(cmd.Args) != 2 {
		log.Fatalf("usage: dls-srv [tdaq-flags] <name> <design.dls>")
	}

	dev := srv.New(cmd.Args[0], cmd.Args[1])

	tsrv := tdaq.New(cmd, os.Stdout)
	tsrv.CmdHandle("/config", dev.OnConfig)
	tsrv.CmdHandle("/init", dev.OnInit)
	tsrv.CmdHandle("/reset", dev.OnReset)
	tsrv.CmdHandle("/start", dev.OnStart)
	tsrv.CmdHandle("/stop", dev.OnStop)
	tsrv.CmdHandle("/quit", dev.OnQuit)

	tsrv.OutputHandle("/wave", dev.Wave)

	tsrv.RunHandle(dev.Run)

	err := tsrv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}
