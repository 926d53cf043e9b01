// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rngstream derives independent, reproducible *rand.Rand streams
// from a single run seed, one per chunk worker, so a parallel run
// produces the same per-chunk draws as a serial one run with the same
// seed (spec.md §4.4, the RNGStream entity in §3).
package rngstream

import "math/rand"

// largePrime spaces consecutive stream seeds far enough apart that the
// underlying generator's short-range correlations don't leak across
// streams; it's the same constant Knuth's multiplicative hash uses.
const largePrime = 2654435761

// New returns the stream for the given index under seed.
func New(seed int64, streamIdx int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(streamIdx)*largePrime))
}
