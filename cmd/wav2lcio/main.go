// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command wav2lcio converts a VCD waveform file to an LCIO one.
package main // import "github.com/go-dls/dls/cmd/wav2lcio"

import (
	"compress/flate"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-dls/dls/internal/wavio"
	"github.com/go-dls/dls/internal/xcnv"
	"go-hep.org/x/hep/lcio"
)

func main() {
	log.SetPrefix("wav2lcio: ")
	log.SetFlags(0)

	var (
		oname = flag.String("o", "out.lcio", "path to output LCIO file")
		compr = flag.Int("lvl", flate.DefaultCompression, "compression level for output LCIO file")
		run   = flag.Int("run", 0, "run number for the output LCIO file")
	)

	flag.Usage = func() {
		fmt.Printf(`Usage: wav2lcio [OPTIONS] file.vcd

ex:
 $> wav2lcio -o out.lcio -lvl=9 -run=42 ./wave.vcd

options:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		log.Fatalf("missing input VCD file")
	}

	if *oname == "" {
		flag.Usage()
		log.Fatalf("invalid output LCIO file name")
	}

	err := process(*oname, *compr, int32(*run), flag.Arg(0))
	if err != nil {
		log.Fatalf("could not convert VCD file: %+v", err)
	}
}

func process(oname string, lvl int, run int32, fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open VCD file: %w", err)
	}
	defer f.Close()

	w, err := lcio.Create(oname)
	if err != nil {
		return fmt.Errorf("could not create output LCIO file: %w", err)
	}
	defer w.Close()

	w.SetCompressionLevel(lvl)

	msg := log.New(os.Stdout, "wav2lcio: ", 0)
	err = xcnv.Wav2LCIO(w, wavio.NewDecoder(f), run, msg)
	if err != nil {
		return fmt.Errorf("could not convert %q: %w", fname, err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("could not close output LCIO file: %w", err)
	}

	return nil
}
