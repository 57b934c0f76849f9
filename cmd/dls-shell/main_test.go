// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"
)

func TestShellExec(t *testing.T) {
	sh := newShell(false)

	for _, cmd := range []string{
		"gate n1 NOT",
		"wire q 1",
		"bind n1 out 0 q",
		"drive n1 in 0 1 @0",
		"run",
	} {
		quit, err := sh.exec(cmd)
		if err != nil {
			t.Fatalf("could not exec %q: %+v", cmd, err)
		}
		if quit {
			t.Fatalf("command %q requested quit", cmd)
		}
	}

	if got, want := sh.mgr.LumpValue(sh.wires["q"]).String(), "0"; got != want {
		t.Fatalf("invalid wire value: got=%q, want=%q", got, want)
	}
	if got, want := sh.mgr.Now(), uint64(1); got != want {
		t.Fatalf("invalid time: got=%d, want=%d", got, want)
	}

	quit, err := sh.exec("quit")
	if err != nil {
		t.Fatalf("could not exec quit: %+v", err)
	}
	if !quit {
		t.Fatalf("quit did not request quit")
	}
}

func TestShellExecErrors(t *testing.T) {
	sh := newShell(false)

	for _, tc := range []struct {
		name string
		cmd  string
	}{
		{name: "unknown-command", cmd: "frobnicate"},
		{name: "unknown-gate-kind", cmd: "gate g1 FROB"},
		{name: "bad-width", cmd: "wire w nope"},
		{name: "bind-unknown-gate", cmd: "bind g1 out 0 w"},
		{name: "drive-unknown-gate", cmd: "drive g1 in 0 1 @0"},
		{name: "print-unknown", cmd: "print nope"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sh.exec(tc.cmd)
			if err == nil {
				t.Fatalf("expected an error for %q", tc.cmd)
			}
		})
	}
}
