// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logic holds the four-valued logic values and fixed-width
// bit vectors the DLS simulator computes over.
package logic // import "github.com/go-dls/dls/logic"

// LV is a four-valued logic value: driven high, driven low,
// unknown (or conflicting), and high-impedance (undriven).
type LV uint8

const (
	H LV = iota // logical 1
	L           // logical 0
	X           // unknown
	Z           // high impedance
)

// And returns the conjunction of v and o.
// L dominates; any H/X/Z mix with an undetermined operand yields X.
func (v LV) And(o LV) LV {
	switch {
	case v == L || o == L:
		return L
	case v == H && o == H:
		return H
	default:
		return X
	}
}

// Or returns the disjunction of v and o.
// H dominates; any L/X/Z mix with an undetermined operand yields X.
func (v LV) Or(o LV) LV {
	switch {
	case v == H || o == H:
		return H
	case v == L && o == L:
		return L
	default:
		return X
	}
}

// Not inverts v. X and Z both invert to X: an undriven input does not
// produce an undriven output.
func (v LV) Not() LV {
	switch v {
	case H:
		return L
	case L:
		return H
	default:
		return X
	}
}

// Xor is derived from the primitive operations, so X/Z poisoning
// follows the And/Or/Not tables.
func (v LV) Xor(o LV) LV {
	return v.And(o.Not()).Or(v.Not().And(o))
}

func (v LV) String() string {
	switch v {
	case H:
		return "1"
	case L:
		return "0"
	case X:
		return "X"
	case Z:
		return "Z"
	}
	return "?"
}
