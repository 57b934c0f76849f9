// Copyright 2023 The go-dls Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xcnv provides tools to convert DLS waveforms to LCIO.
package xcnv // import "github.com/go-dls/dls/internal/xcnv"
