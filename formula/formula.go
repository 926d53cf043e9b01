// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package formula implements the hierarchical formula evaluator: an ordered
// list of name <- expression bindings, resolved one at a time against a
// mutable environment, recycling or drawing as needed (spec.md §4.1).
package formula

import (
	"math/rand"

	"github.com/y-guang/eam/dist"
	"github.com/y-guang/eam/eamerr"
)

// Env is the lookup of name -> resolved vector. A fresh binding may
// shadow an entry already present in a seed Env.
type Env map[string][]float64

// Clone returns a shallow copy so callers can extend it without mutating
// the original (the condition-row env handed to between-trial evaluation,
// for instance, must not be corrupted by trial-local bindings).
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Expr is a node in the small closed AST described in spec.md §9.
type Expr interface {
	Eval(env Env) (dist.Value, error)
}

// Const is a constant literal vector.
type Const []float64

func (c Const) Eval(env Env) (dist.Value, error) { return dist.Deterministic(c), nil }

// Ref looks up a previously resolved name.
type Ref string

func (r Ref) Eval(env Env) (dist.Value, error) {
	v, ok := env[string(r)]
	if !ok {
		return nil, eamerr.New(eamerr.ConfigInvalid, "formula.Ref", "unresolved name "+string(r))
	}
	return dist.Deterministic(v), nil
}

// Op is an elementwise binary/unary vector operation for App.
type Op func(args ...[]float64) ([]float64, error)

// App applies Op to the realized values of its sub-expressions. Arguments
// are realized to the length of the longest argument first (standard
// length-1 recycling among operands), then Op runs elementwise.
type App struct {
	Name string
	Op   Op
	Args []Expr
}

func (a App) Eval(env Env) (dist.Value, error) {
	vecs := make([][]float64, len(a.Args))
	maxLen := 1
	for i, arg := range a.Args {
		v, err := arg.Eval(env)
		if err != nil {
			return nil, err
		}
		// App operands realize against their own natural length: draw
		// distributions need a target n, which for operands is taken
		// to be the eventual binding's n, unknowable here, so operands
		// must already be Deterministic by the time they reach App.
		det, ok := v.(dist.Deterministic)
		if !ok {
			return nil, eamerr.New(eamerr.ConfigInvalid, "formula.App", "operand "+a.Name+" must be deterministic")
		}
		vecs[i] = det
		if len(det) > maxLen {
			maxLen = len(det)
		}
	}
	for i, v := range vecs {
		if len(v) == maxLen {
			continue
		}
		bcast, err := dist.Deterministic(v).Realize("formula.App:"+a.Name, maxLen, nil)
		if err != nil {
			return nil, err
		}
		vecs[i] = bcast
	}
	out, err := a.Op(vecs...)
	if err != nil {
		return nil, eamerr.Wrap(eamerr.ConfigInvalid, "formula.App:"+a.Name, err)
	}
	return dist.Deterministic(out), nil
}

// Draw wraps a distribution constructor so its Eval result flows through
// Realize's distribution branch, drawing n fresh samples.
type Draw struct {
	V dist.Value
}

func (d Draw) Eval(env Env) (dist.Value, error) { return d.V, nil }

// UserFn is the escape hatch for user-supplied vector operations,
// including a custom noise factory input. fn receives the environment as
// resolved so far and the already-evaluated sub-expression arguments.
type UserFn struct {
	Name string
	Fn   func(env Env, args []dist.Value) (dist.Value, error)
	Args []Expr
}

func (u UserFn) Eval(env Env) (dist.Value, error) {
	vals := make([]dist.Value, len(u.Args))
	for i, a := range u.Args {
		v, err := a.Eval(env)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	v, err := u.Fn(env, vals)
	if err != nil {
		return nil, eamerr.Wrap(eamerr.ConfigInvalid, "formula.UserFn:"+u.Name, err)
	}
	return v, nil
}

// Binding is a single name <- expression pair, resolved in order.
type Binding struct {
	Name string
	Expr Expr
}

// EvaluateBindings resolves bindings in order against seedEnv, drawing or
// recycling each expression's result to length n, and returns the merged
// environment (spec.md §4.1). seedEnv is not mutated.
func EvaluateBindings(bindings []Binding, seedEnv Env, n int, rng *rand.Rand) (Env, error) {
	if n < 1 {
		return nil, eamerr.New(eamerr.ConfigInvalid, "formula.EvaluateBindings", "n must be >= 1")
	}
	env := seedEnv.Clone()
	for _, b := range bindings {
		v, err := b.Expr.Eval(env)
		if err != nil {
			return nil, err
		}
		vec, err := v.Realize("formula.EvaluateBindings:"+b.Name, n, rng)
		if err != nil {
			if e, ok := err.(*eamerr.Error); ok && e.Kind == eamerr.LengthMismatch {
				k := 0
				if det, ok2 := v.(dist.Deterministic); ok2 {
					k = len(det)
				}
				return nil, eamerr.LengthMismatchErr("formula.EvaluateBindings", b.Name, k, n)
			}
			return nil, err
		}
		env[b.Name] = vec
	}
	return env, nil
}
