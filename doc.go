// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dls holds code for the DLS discrete-event digital-logic
// simulator: a four-valued logic algebra, a time-ordered event engine
// propagating values across gates, pins and wires, and the tooling
// around it (netlist loading, waveform export, design database).
package dls // import "github.com/go-dls/dls"
