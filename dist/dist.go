// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dist gives the formula evaluator a single capability to realize
// values against: every expression resolves to either a fixed vector or a
// distribution it can draw i.i.d. samples from, and the evaluator calls
// Realize uniformly without caring which.
package dist

import (
	"math/rand"

	"github.com/y-guang/eam/eamerr"
	"gonum.org/v1/gonum/stat/distuv"
)

// Value is the sum type described in spec.md §9: Deterministic(vector) or
// Distribution(sampler), collapsed behind one Realize method.
type Value interface {
	// Realize returns exactly n values. Deterministic values recycle by
	// length-1 broadcast or length-k tiling; distributions draw n fresh
	// i.i.d. samples and ignore n-recycling rules entirely.
	Realize(op string, n int, rng *rand.Rand) ([]float64, error)
}

// Deterministic is a fixed vector, possibly needing length-1/length-k
// recycling to reach length n (spec.md §4.1, invariant 1 in §8).
type Deterministic []float64

func (d Deterministic) Realize(op string, n int, rng *rand.Rand) ([]float64, error) {
	k := len(d)
	switch {
	case k == n:
		out := make([]float64, n)
		copy(out, d)
		return out, nil
	case k == 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = d[0]
		}
		return out, nil
	case k > 0 && n%k == 0:
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = d[i%k]
		}
		return out, nil
	default:
		return nil, eamerr.New(eamerr.LengthMismatch, op, "")
	}
}

// Scalar wraps a single float64 as a length-1 Deterministic value.
func Scalar(v float64) Deterministic { return Deterministic{v} }

// Sampler draws n i.i.d. samples from some parameterized distribution.
type Sampler interface {
	Sample(n int, rng *rand.Rand) []float64
}

// Distribution wraps a Sampler as a Value; Realize always draws exactly n
// samples regardless of n, never recycles.
type Distribution struct {
	S Sampler
}

func (d Distribution) Realize(op string, n int, rng *rand.Rand) ([]float64, error) {
	if n <= 0 {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "n must be >= 1")
	}
	return d.S.Sample(n, rng), nil
}

// --- concrete samplers, backed by gonum.org/v1/gonum/stat/distuv ---

type uniformSampler struct{ Min, Max float64 }

func (u uniformSampler) Sample(n int, rng *rand.Rand) []float64 {
	d := distuv.Uniform{Min: u.Min, Max: u.Max, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Uniform constructs a Value drawing from Uniform(min, max).
func Uniform(min, max float64) Value { return Distribution{S: uniformSampler{min, max}} }

type normalSampler struct{ Mu, Sigma float64 }

func (s normalSampler) Sample(n int, rng *rand.Rand) []float64 {
	d := distuv.Normal{Mu: s.Mu, Sigma: s.Sigma, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Normal constructs a Value drawing from Normal(mu, sigma).
func Normal(mu, sigma float64) Value { return Distribution{S: normalSampler{mu, sigma}} }

type logNormalSampler struct{ Mu, Sigma float64 }

func (s logNormalSampler) Sample(n int, rng *rand.Rand) []float64 {
	d := distuv.LogNormal{Mu: s.Mu, Sigma: s.Sigma, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// LogNormal constructs a Value drawing from LogNormal(mu, sigma).
func LogNormal(mu, sigma float64) Value { return Distribution{S: logNormalSampler{mu, sigma}} }

type binomialSampler struct {
	Trials float64
	P      float64
}

func (s binomialSampler) Sample(n int, rng *rand.Rand) []float64 {
	d := distuv.Binomial{N: s.Trials, P: s.P, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Binomial constructs a Value drawing from Binomial(trials, p).
func Binomial(trials int, p float64) Value {
	return Distribution{S: binomialSampler{Trials: float64(trials), P: p}}
}

type betaSampler struct{ Alpha, Beta float64 }

func (s betaSampler) Sample(n int, rng *rand.Rand) []float64 {
	d := distuv.Beta{Alpha: s.Alpha, Beta: s.Beta, Src: rng}
	out := make([]float64, n)
	for i := range out {
		out[i] = d.Rand()
	}
	return out
}

// Beta constructs a Value drawing from Beta(alpha, beta); used by some
// condition-level priors over bounded rate parameters.
func Beta(alpha, beta float64) Value { return Distribution{S: betaSampler{alpha, beta}} }
