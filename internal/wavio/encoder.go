// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wavio

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-dls/dls/logic"
)

// Encoder writes a waveform as a VCD stream. Only value changes are
// emitted after the initial dump.
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder returns a new Encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the waveform header and every sample to the stream.
func (enc *Encoder) Encode(wf *Waveform) error {
	if wf == nil {
		return nil
	}

	enc.printf("$timescale 1ns $end\n")
	enc.printf("$scope module dls $end\n")
	for i, sig := range wf.Signals {
		enc.printf("$var wire %d %s %s $end\n", sig.Width, idCode(i), sig.Name)
	}
	enc.printf("$upscope $end\n")
	enc.printf("$enddefinitions $end\n")
	if enc.err != nil {
		return fmt.Errorf("wavio: could not write VCD header: %w", enc.err)
	}

	var prev []logic.Bits
	for _, s := range wf.Samples {
		enc.printf("#%d\n", s.Time)
		for i, v := range s.Values {
			if prev != nil && v.Equal(prev[i]) {
				continue
			}
			switch v.Len() {
			case 1:
				enc.printf("%c%s\n", vcdChar(v.At(0)), idCode(i))
			default:
				enc.printf("b%s %s\n", vcdVec(v), idCode(i))
			}
		}
		prev = s.Values
	}

	if enc.err != nil {
		return fmt.Errorf("wavio: could not write VCD samples: %w", enc.err)
	}
	return nil
}

func (enc *Encoder) printf(format string, args ...interface{}) {
	if enc.err != nil {
		return
	}
	_, enc.err = fmt.Fprintf(enc.w, format, args...)
}

// idCode maps a signal index to a VCD identifier over the printable
// characters '!'..'~'.
func idCode(i int) string {
	const (
		lo = '!'
		n  = '~' - '!' + 1
	)
	var o strings.Builder
	for {
		o.WriteByte(byte(lo + i%n))
		i /= n
		if i == 0 {
			break
		}
		i--
	}
	return o.String()
}

func vcdChar(v logic.LV) byte {
	switch v {
	case logic.H:
		return '1'
	case logic.L:
		return '0'
	case logic.Z:
		return 'z'
	default:
		return 'x'
	}
}

func vcdVec(v logic.Bits) string {
	var o strings.Builder
	for i := 0; i < v.Len(); i++ {
		o.WriteByte(vcdChar(v.At(i)))
	}
	return o.String()
}
