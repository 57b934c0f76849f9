// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logic

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRange is returned by Bits.Range for out-of-bounds slice indices.
var ErrRange = errors.New("logic: bit range out of bounds")

// Bits is an ordered, fixed-width vector of logic values.
// The width is established at creation and never changes.
// Index 0 is the leftmost value in the display form.
type Bits struct {
	vs []LV
}

// New returns a vector of n high-impedance values.
func New(n int) Bits {
	vs := make([]LV, n)
	for i := range vs {
		vs[i] = Z
	}
	return Bits{vs: vs}
}

// Parse is the inverse of String: '1', '0', 'X'/'x' and 'Z'/'z' map
// to H, L, X and Z.
func Parse(s string) (Bits, error) {
	vs := make([]LV, len(s))
	for i, c := range s {
		switch c {
		case '1':
			vs[i] = H
		case '0':
			vs[i] = L
		case 'X', 'x':
			vs[i] = X
		case 'Z', 'z':
			vs[i] = Z
		default:
			return Bits{}, fmt.Errorf("logic: invalid logic value %q in %q", c, s)
		}
	}
	return Bits{vs: vs}, nil
}

// MustParse is like Parse but panics on invalid input.
func MustParse(s string) Bits {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the width of the vector.
func (b Bits) Len() int { return len(b.vs) }

// At returns the i-th value.
func (b Bits) At(i int) LV { return b.vs[i] }

// Set replaces the i-th value.
func (b *Bits) Set(i int, v LV) { b.vs[i] = v }

// Clone returns a copy of b that shares no storage with it.
func (b Bits) Clone() Bits {
	vs := make([]LV, len(b.vs))
	copy(vs, b.vs)
	return Bits{vs: vs}
}

// Equal reports whether b and o have the same width and values.
func (b Bits) Equal(o Bits) bool {
	if len(b.vs) != len(o.vs) {
		return false
	}
	for i, v := range b.vs {
		if v != o.vs[i] {
			return false
		}
	}
	return true
}

// And returns the pointwise conjunction of b and o.
// Operating on vectors of different widths is a contract violation.
func (b Bits) And(o Bits) Bits {
	b.check(o)
	vs := make([]LV, len(b.vs))
	for i, v := range b.vs {
		vs[i] = v.And(o.vs[i])
	}
	return Bits{vs: vs}
}

// Or returns the pointwise disjunction of b and o.
func (b Bits) Or(o Bits) Bits {
	b.check(o)
	vs := make([]LV, len(b.vs))
	for i, v := range b.vs {
		vs[i] = v.Or(o.vs[i])
	}
	return Bits{vs: vs}
}

// Xor returns the pointwise exclusive disjunction of b and o.
func (b Bits) Xor(o Bits) Bits {
	b.check(o)
	vs := make([]LV, len(b.vs))
	for i, v := range b.vs {
		vs[i] = v.Xor(o.vs[i])
	}
	return Bits{vs: vs}
}

// Not returns the pointwise inversion of b.
func (b Bits) Not() Bits {
	vs := make([]LV, len(b.vs))
	for i, v := range b.vs {
		vs[i] = v.Not()
	}
	return Bits{vs: vs}
}

// Range returns the half-open sub-vector [start, end).
func (b Bits) Range(start, end int) (Bits, error) {
	if start >= len(b.vs) || end > len(b.vs) || start > end {
		return Bits{}, ErrRange
	}
	vs := make([]LV, end-start)
	copy(vs, b.vs[start:end])
	return Bits{vs: vs}, nil
}

func (b Bits) String() string {
	var o strings.Builder
	for _, v := range b.vs {
		o.WriteString(v.String())
	}
	return o.String()
}

func (b Bits) check(o Bits) {
	if len(b.vs) != len(o.vs) {
		panic(fmt.Errorf("logic: bit width mismatch (got=%d, want=%d)", len(o.vs), len(b.vs)))
	}
}
