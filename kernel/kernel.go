// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel implements the three Euler-Maruyama integrator kernels
// that turn per-item parameter vectors into boundary-crossing records:
// single-boundary DDM, two-boundary DDM, and leaky competing accumulators
// with global inhibition (spec.md §4.3).
package kernel

import (
	"github.com/y-guang/eam/eamerr"
)

// Coupling selects how the noise draw couples into the evidence update.
type Coupling string

const (
	CouplingAdd          Coupling = "add"
	CouplingMultEvidence Coupling = "mult_evidence"
	CouplingMultT        Coupling = "mult_t"
)

// NoiseFunc draws a noise vector of the requested length for one step of
// size dt. Factories in package noisefactory build these per trial.
type NoiseFunc func(count int, dt float64) []float64

// Crossing is one boundary-crossing record produced by a kernel.
type Crossing struct {
	ItemIdx int
	RT      float64
	Choice  int8 // +1 upper / -1 lower; 0 when the kernel has no second boundary
}

func applyCoupling(x, v, dt float64, eps float64, coupling Coupling) float64 {
	switch coupling {
	case CouplingMultEvidence, "mult": // "mult" is an accepted alias for mult_evidence (spec.md §9)
		return x + v*dt + x*eps
	case CouplingMultT:
		return x + v*dt + eps // noisefactory already scales eps by sqrt(dt) for this mode
	case CouplingAdd:
		return x + v*dt + eps
	default:
		return x + v*dt + eps
	}
}

func validateLens(op string, lens ...int) error {
	if len(lens) == 0 {
		return eamerr.New(eamerr.InvalidKernelInput, op, "no item vectors given")
	}
	n := lens[0]
	if n <= 0 {
		return eamerr.New(eamerr.InvalidKernelInput, op, "empty item vectors")
	}
	for _, l := range lens {
		if l != n {
			return eamerr.New(eamerr.InvalidKernelInput, op, "mismatched item-vector lengths")
		}
	}
	return nil
}

// SimulateDDM1B runs the single upper-boundary drift-diffusion kernel.
// V, A, Z, NDT are per-item parameter vectors of length nItems; Z defaults
// to 0 when nil. At most maxReached crossings are returned, in the order
// items cross, ties within one dt step broken by smaller item index
// (a documented dt-resolution artifact, spec.md §4.3 and §9).
func SimulateDDM1B(V, A, Z, NDT []float64, maxT, dt float64, maxReached int, coupling Coupling, noise NoiseFunc) ([]Crossing, error) {
	const op = "kernel.SimulateDDM1B"
	nItems := len(V)
	lens := []int{nItems, len(A)}
	if Z != nil {
		lens = append(lens, len(Z))
	}
	if NDT != nil {
		lens = append(lens, len(NDT))
	}
	if err := validateLens(op, lens...); err != nil {
		return nil, err
	}
	if dt <= 0 || maxT <= 0 {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "dt and maxT must be > 0")
	}
	if maxReached < 1 || maxReached > nItems {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "maxReached out of range")
	}
	x := make([]float64, nItems)
	done := make([]bool, nItems)
	z := zeroFill(Z, nItems)
	ndt := zeroFill(NDT, nItems)
	copy(x, z)

	var out []Crossing
	nActive := nItems
	for k := 1; float64(k)*dt <= maxT && len(out) < maxReached; k++ {
		t := float64(k) * dt
		eps := noise(1, dt)
		_ = nActive
		for i := 0; i < nItems; i++ {
			if done[i] {
				continue
			}
			e := 0.0
			if len(eps) == 1 {
				e = eps[0]
			} else if i < len(eps) {
				e = eps[i]
			}
			x[i] = applyCoupling(x[i], V[i], dt, e, coupling)
		}
		// at most one item may cross per step; smallest item_idx wins ties
		for i := 0; i < nItems; i++ {
			if done[i] {
				continue
			}
			if x[i] >= A[i] {
				out = append(out, Crossing{ItemIdx: i, RT: t + ndt[i]})
				done[i] = true
				nActive--
				break
			}
		}
	}
	return out, nil
}

// SimulateDDM2B runs the two-boundary kernel (also realizes RDM, LBA and
// LFM variants via adjusted parameters / a zero-noise factory, spec.md
// §4.2 and the LBA convention in §9).
func SimulateDDM2B(V, AUpper, ALower, Z, NDT []float64, maxT, dt float64, maxReached int, coupling Coupling, noise NoiseFunc) ([]Crossing, error) {
	const op = "kernel.SimulateDDM2B"
	nItems := len(V)
	lens := []int{nItems, len(AUpper), len(ALower)}
	if Z != nil {
		lens = append(lens, len(Z))
	}
	if NDT != nil {
		lens = append(lens, len(NDT))
	}
	if err := validateLens(op, lens...); err != nil {
		return nil, err
	}
	if dt <= 0 || maxT <= 0 {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "dt and maxT must be > 0")
	}
	if maxReached < 1 || maxReached > nItems {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "maxReached out of range")
	}
	x := make([]float64, nItems)
	done := make([]bool, nItems)
	z := zeroFill(Z, nItems)
	ndt := zeroFill(NDT, nItems)
	copy(x, z)

	var out []Crossing
	for k := 1; float64(k)*dt <= maxT && len(out) < maxReached; k++ {
		t := float64(k) * dt
		eps := noise(1, dt)
		for i := 0; i < nItems; i++ {
			if done[i] {
				continue
			}
			e := 0.0
			if len(eps) == 1 {
				e = eps[0]
			} else if i < len(eps) {
				e = eps[i]
			}
			x[i] = applyCoupling(x[i], V[i], dt, e, coupling)
		}
		// at most one item may cross per step; smallest item_idx wins ties
		for i := 0; i < nItems; i++ {
			if done[i] {
				continue
			}
			switch {
			case x[i] >= AUpper[i]:
				out = append(out, Crossing{ItemIdx: i, RT: t + ndt[i], Choice: 1})
				done[i] = true
			case x[i] <= ALower[i]:
				out = append(out, Crossing{ItemIdx: i, RT: t + ndt[i], Choice: -1})
				done[i] = true
			}
			if done[i] {
				break
			}
		}
	}
	return out, nil
}

// SimulateLCAGI runs the leaky-competing-accumulator-with-global-inhibition
// kernel: dx_i = (V_i - beta_i*x_i - k_i*sum_active(x))dt + dW_i.
func SimulateLCAGI(V, Beta, K, A, Z []float64, maxT, dt float64, maxReached int, coupling Coupling, noise NoiseFunc) ([]Crossing, error) {
	const op = "kernel.SimulateLCAGI"
	nItems := len(V)
	lens := []int{nItems, len(Beta), len(K), len(A)}
	if Z != nil {
		lens = append(lens, len(Z))
	}
	if err := validateLens(op, lens...); err != nil {
		return nil, err
	}
	if dt <= 0 || maxT <= 0 {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "dt and maxT must be > 0")
	}
	if maxReached < 1 || maxReached > nItems {
		return nil, eamerr.New(eamerr.InvalidKernelInput, op, "maxReached out of range")
	}
	x := make([]float64, nItems)
	done := make([]bool, nItems)
	z := zeroFill(Z, nItems)
	copy(x, z)

	var out []Crossing
	for k := 1; float64(k)*dt <= maxT && len(out) < maxReached; k++ {
		t := float64(k) * dt
		active := 0
		for i := 0; i < nItems; i++ {
			if !done[i] {
				active++
			}
		}
		eps := noise(active, dt)
		sumActive := 0.0
		for i := 0; i < nItems; i++ {
			if !done[i] {
				sumActive += x[i]
			}
		}
		ei := 0
		for i := 0; i < nItems; i++ {
			if done[i] {
				continue
			}
			e := 0.0
			if ei < len(eps) {
				e = eps[ei]
			}
			ei++
			drift := V[i] - Beta[i]*x[i] - K[i]*sumActive
			switch coupling {
			case CouplingMultEvidence:
				x[i] += drift*dt + x[i]*e
			default:
				x[i] += drift*dt + e
			}
		}
		// at most one item may cross per step; smallest item_idx wins ties
		for i := 0; i < nItems; i++ {
			if done[i] {
				continue
			}
			if x[i] >= A[i] {
				out = append(out, Crossing{ItemIdx: i, RT: t})
				done[i] = true
				break
			}
		}
	}
	return out, nil
}

func zeroFill(v []float64, n int) []float64 {
	if v != nil {
		return v
	}
	return make([]float64, n)
}
