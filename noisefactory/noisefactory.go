// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package noisefactory builds the per-trial noise callable the driver
// hands to a kernel. A factory closes over the resolved trial/condition
// binding so it can read e.g. a per-item diffusion coefficient (spec.md
// §4.3, C3 in the component table).
package noisefactory

import (
	"math"
	"math/rand"

	"github.com/y-guang/eam/formula"
	"github.com/y-guang/eam/kernel"
)

// Factory builds a kernel.NoiseFunc from a trial's resolved environment
// and the worker's RNG stream.
type Factory func(trialEnv formula.Env, rng *rand.Rand) kernel.NoiseFunc

// Gaussian builds additive-style standard Gaussian noise scaled by a
// diffusion coefficient looked up by sigmaKey in the trial env (falling
// back to 1.0 when absent). Only the first entry of that vector is read,
// so every item shares the same coefficient. Every draw is scaled by
// sqrt(dt) whatever the coupling mode; the kernels add the draw as-is in
// the add and mult_t modes.
func Gaussian(sigmaKey string) Factory {
	return func(trialEnv formula.Env, rng *rand.Rand) kernel.NoiseFunc {
		sigma := 1.0
		if v, ok := trialEnv[sigmaKey]; ok && len(v) > 0 {
			sigma = v[0]
		}
		return func(count int, dt float64) []float64 {
			out := make([]float64, count)
			for i := range out {
				out[i] = rng.NormFloat64() * sigma * math.Sqrt(dt)
			}
			return out
		}
	}
}

// Zero builds a noise callable that always returns zeros, realizing the
// ballistic LBA convention documented in spec.md §9: running the
// two-boundary kernel with a zero-noise factory gives purely deterministic,
// drift-only accumulation to bound.
func Zero() Factory {
	return func(trialEnv formula.Env, rng *rand.Rand) kernel.NoiseFunc {
		return func(count int, dt float64) []float64 {
			return make([]float64, count)
		}
	}
}
