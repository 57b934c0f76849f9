// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"fmt"

	"github.com/go-dls/dls/logic"
)

// Lump is a shared wire joining a set of pins. It holds the value of
// the most recent broadcast; conflicting drivers are not merged.
type Lump struct {
	id    uint32
	pins  []uint32
	value logic.Bits
}

// ID returns the lump identifier.
func (l *Lump) ID() uint32 { return l.id }

// acceptUpdate stores the broadcast value and schedules a zero-delay
// pin update for every member pin except the sender.
func (l *Lump) acceptUpdate(m *Manager, ev lumpUpdate) {
	if l.value.Equal(ev.bits) {
		m.msg.Debugf("lump %d already at %v", l.id, ev.bits)
		return
	}
	if l.value.Len() != ev.bits.Len() {
		panic(fmt.Errorf("sim: lump %d width mismatch (got=%d, want=%d)",
			l.id, ev.bits.Len(), l.value.Len()))
	}
	l.value = ev.bits.Clone()
	m.msg.Debugf("lump %d accepted %v from pin %d", l.id, l.value, ev.sender)

	for _, pid := range l.pins {
		if pid == ev.sender {
			continue
		}
		m.SchedulePinUpdate(0, pid, l.value)
	}
}

// connect adds pid to the member set. Adding a member twice is a no-op.
func (l *Lump) connect(pid uint32) {
	for _, id := range l.pins {
		if id == pid {
			return
		}
	}
	l.pins = append(l.pins, pid)
}

// disconnect removes pid from the member set if present.
func (l *Lump) disconnect(pid uint32) {
	for i, id := range l.pins {
		if id == pid {
			l.pins = append(l.pins[:i], l.pins[i+1:]...)
			return
		}
	}
}
