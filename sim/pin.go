// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"

	"github.com/go-dls/dls/logic"
)

// Kind is the direction of a pin on its gate.
type Kind uint8

const (
	In Kind = iota
	Out
	InOut
)

func (k Kind) String() string {
	switch k {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Pin is a typed endpoint of a gate. A pin belongs to exactly one
// gate for its whole life and is connected to at most one lump.
type Pin struct {
	id    uint32
	gate  uint32
	kind  Kind
	lump  uint32 // 0 when not connected
	value logic.Bits
}

// ID returns the pin identifier.
func (p *Pin) ID() uint32 { return p.id }

// Kind returns the pin direction.
func (p *Pin) Kind() Kind { return p.kind }

// acceptUpdate stores bits as the pin's new value and propagates the
// change: input pins wake their gate up, output pins broadcast on
// their lump. Storing the value the pin already holds is a no-op;
// that check is what damps oscillation through zero-delay lump
// chains.
func (p *Pin) acceptUpdate(m *Manager, bits logic.Bits) {
	if p.value.Equal(bits) {
		m.msg.Debugf("pin %d already at %v", p.id, bits)
		return
	}
	if p.value.Len() != bits.Len() {
		panic(fmt.Errorf("sim: pin %d width mismatch (got=%d, want=%d)",
			p.id, bits.Len(), p.value.Len()))
	}
	p.value = bits.Clone()
	m.msg.Debugf("pin %d accepted %v", p.id, p.value)

	switch p.kind {
	case In:
		m.gateq = append(m.gateq, gateUpdate{sender: p.id, gate: p.gate})
	case Out:
		if p.lump == 0 {
			m.msg.Infof("pin %d is currently not connected", p.id)
			return
		}
		m.lumpq = append(m.lumpq, lumpUpdate{sender: p.id, lump: p.lump, bits: p.value.Clone()})
	case InOut:
		panic(fmt.Errorf("sim: pin %d is inout; inout updates are not implemented", p.id))
	}
}
