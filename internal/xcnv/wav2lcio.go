// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xcnv

import (
	"fmt"
	"log"

	"github.com/go-dls/dls/internal/wavio"
	"go-hep.org/x/hep/lcio"
)

// Wav2LCIO converts a decoded waveform to an LCIO event stream: one
// event per sample, the probe values packed as a generic-object
// int32 block.
func Wav2LCIO(w *lcio.Writer, dec *wavio.Decoder, run int32, msg *log.Logger) error {
	var wf wavio.Waveform
	err := dec.Decode(&wf)
	if err != nil {
		return fmt.Errorf("could not decode waveform: %w", err)
	}

	err = w.WriteRunHeader(&lcio.RunHeader{
		RunNumber: run,
		Detector:  "DLS",
		Descr:     "",
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Signals": {int32(len(wf.Signals))},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("could not write run header: %w", err)
	}

	raw := &lcio.GenericObject{
		Data: []lcio.GenericObjectData{
			{I32s: nil},
		},
	}

	for i, sample := range wf.Samples {
		if i%100 == 0 {
			msg.Printf("processing sample %d...", i)
		}

		evt := lcio.Event{
			RunNumber:   run,
			EventNumber: int32(i),
			TimeStamp:   int64(sample.Time),
			Detector:    "DLS",
		}
		raw.Data[0].I32s = i32sFrom(&sample)
		evt.Add("DLS_WAVE", raw)

		err = w.WriteEvent(&evt)
		if err != nil {
			return fmt.Errorf("could not write waveform event: %w", err)
		}
	}

	return nil
}

// i32sFrom packs one sample as a flat int32 block: per signal, the
// width followed by one int32 per logic value.
func i32sFrom(sample *wavio.Sample) []int32 {
	var o []int32
	for _, v := range sample.Values {
		o = append(o, int32(v.Len()))
		for i := 0; i < v.Len(); i++ {
			o = append(o, int32(v.At(i)))
		}
	}
	return o
}
