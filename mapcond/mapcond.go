// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mapcond is the out-of-core map-by-condition dispatcher: it
// walks a simoutput.Dataset one on-disk chunk at a time, splits each
// chunk's rows by condition_idx, applies a per-condition function, and
// folds the results together without ever materializing the whole
// dataset in memory at once (spec.md §4.5, C9 in the component table).
package mapcond

import (
	"sort"
	"sync"

	"github.com/emer/etable/v2/etable"

	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/internal/tablex"
	"github.com/y-guang/eam/simoutput"
)

// Fn is applied to every condition's rows within a chunk.
type Fn func(conditionIdx int, rows []tablex.Row) (tablex.Row, error)

// Combine folds one chunk's per-condition results into a running
// accumulator. The default, Append, just concatenates.
type Combine func(acc []tablex.Row, chunkResults []tablex.Row) []tablex.Row

// Append is the default Combine: concatenate chunk results in order.
func Append(acc []tablex.Row, chunkResults []tablex.Row) []tablex.Row {
	return append(acc, chunkResults...)
}

// Options configures MapByCondition.
type Options struct {
	// Combine folds chunk results together; nil uses Append.
	Combine Combine
	// Parallel processes chunks concurrently with up to NCores workers.
	Parallel bool
	NCores   int
}

// MapByCondition applies f to every condition's rows, chunk by chunk, and
// folds the results with opts.Combine (or Append).
func MapByCondition(ds *simoutput.Dataset, f Fn, opts Options) ([]tablex.Row, error) {
	const op = "mapcond.MapByCondition"
	combine := opts.Combine
	if combine == nil {
		combine = Append
	}
	chunks := ds.Chunks()
	if len(chunks) == 0 {
		return nil, eamerr.New(eamerr.EmptyResults, op, "dataset has no chunks")
	}

	chunkResults := make([][]tablex.Row, len(chunks))
	process := func(i int) error {
		dt, err := ds.ReadChunk(chunks[i])
		if err != nil {
			return err
		}
		res, err := mapChunk(dt, f)
		if err != nil {
			return err
		}
		chunkResults[i] = res
		return nil
	}

	if !opts.Parallel || opts.NCores <= 1 {
		for i := range chunks {
			if err := process(i); err != nil {
				return nil, err
			}
		}
	} else {
		if err := parallelEach(len(chunks), opts.NCores, process); err != nil {
			return nil, err
		}
	}

	var out []tablex.Row
	for _, res := range chunkResults {
		out = combine(out, res)
	}
	return out, nil
}

func mapChunk(dt *etable.Table, f Fn) ([]tablex.Row, error) {
	groups, idxs := groupByCondition(tablex.Rows(dt))
	out := make([]tablex.Row, 0, len(idxs))
	for _, condIdx := range idxs {
		row, err := f(condIdx, groups[condIdx])
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func parallelEach(n, nCores int, work func(i int) error) error {
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	workers := nCores
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := work(i); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func groupByCondition(rows []tablex.Row) (map[int][]tablex.Row, []int) {
	groups := map[int][]tablex.Row{}
	for _, r := range rows {
		ci := conditionIdxOf(r)
		groups[ci] = append(groups[ci], r)
	}
	idxs := make([]int, 0, len(groups))
	for k := range groups {
		idxs = append(idxs, k)
	}
	sort.Ints(idxs)
	return groups, idxs
}

func conditionIdxOf(r tablex.Row) int {
	switch v := r["condition_idx"].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	default:
		return -1
	}
}
