// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package posterior bootstraps an abc.Result's posterior sample and
// summarizes the per-iteration medians produced by abc.ResampleABC
// (spec.md §4.7, C13 in the component table).
package posterior

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"

	"github.com/emer/etable/v2/etable"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/y-guang/eam/abc"
	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/internal/tablex"
)

// Bootstrap resamples n rows from result's posterior sample (adjusted if
// present, unadjusted otherwise). Without replacement, n may not exceed
// the number of posterior draws; with replacement it may, logging a
// warning rather than failing (the source tool's own warn-and-continue
// behavior for this case).
func Bootstrap(result *abc.Result, n int, replace bool, rng *rand.Rand) (*mat.Dense, error) {
	const op = "posterior.Bootstrap"
	posterior := result.PosteriorSamples()
	rows, cols := posterior.Dims()
	if rows == 0 {
		return nil, eamerr.New(eamerr.EmptyResults, op, "result has no posterior draws")
	}
	if n < 1 {
		return nil, eamerr.New(eamerr.ConfigInvalid, op, "n must be >= 1")
	}
	if n > rows {
		if !replace {
			return nil, eamerr.New(eamerr.ResampleSizeExceeded, op, "n exceeds posterior sample size without replacement")
		}
		log.Printf("posterior.Bootstrap: n=%d exceeds posterior sample size %d, resampling with replacement", n, rows)
	}

	idx := sampleIndices(rows, n, replace, rng)
	out := mat.NewDense(n, cols, nil)
	for r, src := range idx {
		for c := 0; c < cols; c++ {
			out.Set(r, c, posterior.At(src, c))
		}
	}
	return out, nil
}

func sampleIndices(rows, n int, replace bool, rng *rand.Rand) []int {
	if replace {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(rows)
		}
		return idx
	}
	perm := rng.Perm(rows)
	return perm[:n]
}

// SummariseMedians implements summarise_resample_medians (spec.md §4.7):
// given the K results produced by abc.ResampleABC, it collapses each
// iteration's posterior sample to one median per parameter (a K x P
// matrix of iteration medians), then summarises each parameter's column
// of iteration-medians with its mean, its median, and the two symmetric
// ciLevel quantile bounds. ciLevel is a coverage fraction in (0, 1),
// e.g. 0.95 for a 95% interval; the bound columns are named with the
// literal percentile they carry (<param>_q2.5, <param>_q97.5 for
// ciLevel=0.95).
func SummariseMedians(results []*abc.Result, ciLevel float64) (*etable.Table, error) {
	const op = "posterior.SummariseMedians"
	if len(results) == 0 {
		return nil, eamerr.New(eamerr.EmptyResults, op, "no resample results")
	}
	if ciLevel <= 0 || ciLevel >= 1 {
		return nil, eamerr.New(eamerr.ConfigInvalid, op, "ci_level must be in (0, 1)")
	}

	paramNames := results[0].ParamNames
	p := len(paramNames)
	k := len(results)
	iterMedians := mat.NewDense(k, p, nil)
	for i, r := range results {
		post := r.PosteriorSamples()
		_, cols := post.Dims()
		if cols != p {
			return nil, eamerr.New(eamerr.ConfigInvalid, op, "inconsistent parameter count across results")
		}
		for j := 0; j < p; j++ {
			iterMedians.Set(i, j, columnMedian(post, j))
		}
	}

	alpha := 1 - ciLevel
	lowerPct := alpha / 2 * 100
	upperPct := (1 - alpha/2) * 100
	// round away float noise (1-0.95 is not exactly 0.05) before naming
	lowerCol := fmt.Sprintf("_q%g", math.Round(lowerPct*1e6)/1e6)
	upperCol := fmt.Sprintf("_q%g", math.Round(upperPct*1e6)/1e6)

	row := tablex.Row{}
	col := make([]float64, k)
	for j, name := range paramNames {
		mat.Col(col, j, iterMedians)
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		row[name+"_mean"] = stat.Mean(col, nil)
		row[name+"_median"] = stat.Quantile(0.5, stat.LinInterp{}, sorted, nil)
		row[name+lowerCol] = stat.Quantile(alpha/2, stat.LinInterp{}, sorted, nil)
		row[name+upperCol] = stat.Quantile(1-alpha/2, stat.LinInterp{}, sorted, nil)
	}
	cols := tablex.ColumnOrder([]tablex.Row{row}, nil)
	return tablex.BuildTable([]tablex.Row{row}, cols), nil
}

func columnMedian(m *mat.Dense, col int) float64 {
	rows, _ := m.Dims()
	v := make([]float64, rows)
	mat.Col(v, col, m)
	sort.Float64s(v)
	return stat.Quantile(0.5, stat.LinInterp{}, v, nil)
}
