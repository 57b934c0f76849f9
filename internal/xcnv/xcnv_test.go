// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-dls/dls/internal/wavio"
	"github.com/go-dls/dls/logic"
	"go-hep.org/x/hep/lcio"
)

func TestWav2LCIO(t *testing.T) {
	tmp, err := os.MkdirTemp("", "dls-xcnv-")
	if err != nil {
		t.Fatalf("could not create tmp dir: %+v", err)
	}
	defer os.RemoveAll(tmp)

	wf := wavio.Waveform{
		Signals: []wavio.Signal{
			{Name: "sum", Width: 1},
			{Name: "bus", Width: 4},
		},
		Samples: []wavio.Sample{
			{Time: 0, Values: []logic.Bits{logic.MustParse("Z"), logic.MustParse("ZZZZ")}},
			{Time: 1, Values: []logic.Bits{logic.MustParse("1"), logic.MustParse("10XZ")}},
		},
	}

	vcd := new(bytes.Buffer)
	err = wavio.NewEncoder(vcd).Encode(&wf)
	if err != nil {
		t.Fatalf("could not encode waveform: %+v", err)
	}

	const run = 42
	fname := filepath.Join(tmp, "out.lcio")

	lw, err := lcio.Create(fname)
	if err != nil {
		t.Fatalf("could not create LCIO file: %+v", err)
	}
	defer lw.Close()

	msg := log.New(os.Stdout, "", 0)
	err = Wav2LCIO(lw, wavio.NewDecoder(vcd), run, msg)
	if err != nil {
		t.Fatalf("could not convert waveform: %+v", err)
	}
	err = lw.Close()
	if err != nil {
		t.Fatalf("could not close LCIO file: %+v", err)
	}

	lr, err := lcio.Open(fname)
	if err != nil {
		t.Fatalf("could not open LCIO file: %+v", err)
	}
	defer lr.Close()

	want := [][]int32{
		{1, 3, 4, 3, 3, 3, 3}, // Z, ZZZZ
		{1, 0, 4, 0, 1, 2, 3}, // 1, 10XZ
	}

	i := 0
	for lr.Next() {
		evt := lr.Event()
		if got, want := evt.RunNumber, int32(run); got != want {
			t.Fatalf("event %d: invalid run number: got=%d, want=%d", i, got, want)
		}
		if got, want := evt.TimeStamp, int64(wf.Samples[i].Time); got != want {
			t.Fatalf("event %d: invalid timestamp: got=%d, want=%d", i, got, want)
		}
		raw := evt.Get("DLS_WAVE").(*lcio.GenericObject).Data[0].I32s
		if !reflect.DeepEqual(raw, want[i]) {
			t.Fatalf("event %d: invalid payload:\ngot= %v\nwant=%v", i, raw, want[i])
		}
		i++
	}
	if got, want := i, len(wf.Samples); got != want {
		t.Fatalf("invalid number of events: got=%d, want=%d", got, want)
	}
}
