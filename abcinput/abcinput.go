// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package abcinput aligns a per-condition parameter table with its
// matching summary-statistic table into the congruent gonum matrices the
// ABC engine needs (spec.md §4.7, C11 in the component table).
package abcinput

import (
	"github.com/emer/etable/v2/etable"
	"gonum.org/v1/gonum/mat"

	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/internal/tablex"
	"github.com/y-guang/eam/sumstat"
)

// Input is one congruent ABC problem: a row per simulated condition,
// its drawn parameters, its summary statistics, and the observed target
// those statistics are compared against.
type Input struct {
	ParamNames []string
	Params     *mat.Dense // nSamples x len(ParamNames)
	StatNames  []string
	Stats      *mat.Dense // nSamples x len(StatNames)
	Target     []float64  // len(StatNames)
}

// NRows reports the number of simulated samples.
func (in *Input) NRows() int {
	r, _ := in.Params.Dims()
	return r
}

// Build inner-joins conditions (one row per simulated parameter draw)
// with stats (one row of summary statistics per condition) on joinKeys,
// then lays out paramCols and statCols as dense matrices in the join's
// row order. Every conditions row must match exactly one stats row and
// vice versa; otherwise Build fails with ConfigInvalid.
// target supplies the observed value for every entry of statCols.
func Build(conditions *etable.Table, paramCols []string, stats *etable.Table, statCols []string, joinKeys []string, target map[string]float64) (*Input, error) {
	const op = "abcinput.Build"
	joined, err := sumstat.JoinSummaryTables(conditions, joinKeys, stats, joinKeys)
	if err != nil {
		return nil, err
	}
	rows := tablex.Rows(joined)
	if len(rows) == 0 {
		return nil, eamerr.New(eamerr.EmptyResults, op, "joined param/stat table is empty")
	}
	// The join keeps unmatched rows from either side, so any row without a
	// one-to-one partner makes the joined row count differ from an input's.
	if len(rows) != conditions.Rows || len(rows) != stats.Rows {
		return nil, eamerr.New(eamerr.ConfigInvalid, op, "param and stat rows do not match one-to-one on join keys")
	}

	targetVec := make([]float64, len(statCols))
	for i, c := range statCols {
		v, ok := target[c]
		if !ok {
			return nil, eamerr.New(eamerr.ConfigInvalid, op, "no target value for statistic "+c)
		}
		targetVec[i] = v
	}

	paramData := make([]float64, len(rows)*len(paramCols))
	statData := make([]float64, len(rows)*len(statCols))
	for ri, r := range rows {
		for ci, c := range paramCols {
			v, err := floatOf(r, c)
			if err != nil {
				return nil, eamerr.Wrap(eamerr.ConfigInvalid, op, err)
			}
			paramData[ri*len(paramCols)+ci] = v
		}
		for ci, c := range statCols {
			v, err := floatOf(r, c)
			if err != nil {
				return nil, eamerr.Wrap(eamerr.ConfigInvalid, op, err)
			}
			statData[ri*len(statCols)+ci] = v
		}
	}

	return &Input{
		ParamNames: paramCols,
		Params:     mat.NewDense(len(rows), len(paramCols), paramData),
		StatNames:  statCols,
		Stats:      mat.NewDense(len(rows), len(statCols), statData),
		Target:     targetVec,
	}, nil
}

func floatOf(r tablex.Row, col string) (float64, error) {
	v, ok := r[col]
	if !ok {
		return 0, eamerr.New(eamerr.ConfigInvalid, "abcinput.floatOf", "missing column "+col)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	default:
		return 0, eamerr.New(eamerr.ConfigInvalid, "abcinput.floatOf", "column "+col+" is not numeric")
	}
}
