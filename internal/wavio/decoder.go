// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wavio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-dls/dls/logic"
)

// Decoder reads the VCD subset Encoder writes: one flat scope of
// wire variables, then timestamped scalar and vector value changes.
type Decoder struct {
	s *bufio.Scanner
}

// NewDecoder returns a new Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{s: bufio.NewScanner(r)}
}

// Decode reads the whole stream into wf.
func (dec *Decoder) Decode(wf *Waveform) error {
	var (
		codes   = make(map[string]int)
		current []logic.Bits
		sample  *Sample
		line    = 0
	)

	flush := func() {
		if sample == nil {
			return
		}
		sample.Values = cloneValues(current)
		wf.Samples = append(wf.Samples, *sample)
		sample = nil
	}

	for dec.s.Scan() {
		line++
		toks := strings.Fields(dec.s.Text())
		if len(toks) == 0 {
			continue
		}

		switch {
		case toks[0] == "$var":
			// $var wire <width> <code> <name> $end
			if len(toks) != 6 || toks[1] != "wire" || toks[5] != "$end" {
				return fmt.Errorf("wavio: line %d: invalid $var declaration", line)
			}
			width, err := strconv.Atoi(toks[2])
			if err != nil || width <= 0 {
				return fmt.Errorf("wavio: line %d: invalid $var width %q", line, toks[2])
			}
			codes[toks[3]] = len(wf.Signals)
			wf.Signals = append(wf.Signals, Signal{Name: toks[4], Width: width})
			current = append(current, logic.New(width))

		case strings.HasPrefix(toks[0], "$"):
			// $timescale, $scope, $upscope, $enddefinitions, ...

		case strings.HasPrefix(toks[0], "#"):
			t, err := strconv.ParseUint(toks[0][1:], 10, 64)
			if err != nil {
				return fmt.Errorf("wavio: line %d: invalid timestamp %q", line, toks[0])
			}
			flush()
			sample = &Sample{Time: t}

		case strings.HasPrefix(toks[0], "b"):
			// b<vec> <code>
			if len(toks) != 2 {
				return fmt.Errorf("wavio: line %d: invalid vector change", line)
			}
			idx, ok := codes[toks[1]]
			if !ok {
				return fmt.Errorf("wavio: line %d: unknown signal code %q", line, toks[1])
			}
			bits, err := logic.Parse(toks[0][1:])
			if err != nil {
				return fmt.Errorf("wavio: line %d: invalid vector value %q: %w", line, toks[0], err)
			}
			if bits.Len() != wf.Signals[idx].Width {
				return fmt.Errorf("wavio: line %d: value width mismatch for %q (got=%d, want=%d)",
					line, wf.Signals[idx].Name, bits.Len(), wf.Signals[idx].Width,
				)
			}
			current[idx] = bits

		default:
			// <v><code> scalar change
			if len(toks) != 1 || len(toks[0]) < 2 {
				return fmt.Errorf("wavio: line %d: invalid scalar change %q", line, toks[0])
			}
			idx, ok := codes[toks[0][1:]]
			if !ok {
				return fmt.Errorf("wavio: line %d: unknown signal code %q", line, toks[0][1:])
			}
			bits, err := logic.Parse(toks[0][:1])
			if err != nil {
				return fmt.Errorf("wavio: line %d: invalid scalar value %q: %w", line, toks[0], err)
			}
			current[idx] = bits
		}
	}
	if err := dec.s.Err(); err != nil {
		return fmt.Errorf("wavio: could not read VCD stream: %w", err)
	}
	flush()

	return nil
}

func cloneValues(vs []logic.Bits) []logic.Bits {
	o := make([]logic.Bits, len(vs))
	for i, v := range vs {
		o[i] = v.Clone()
	}
	return o
}
