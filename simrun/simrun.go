// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simrun is the chunked simulation driver: it evaluates the prior
// formula tier once across all conditions, partitions conditions into
// on-disk chunks, and for each chunk walks condition -> trial -> item,
// invoking the routed kernel and writing crossing rows out (spec.md §4.4,
// §6, C7 in the component table).
package simrun

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"github.com/y-guang/eam/backend"
	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/formula"
	"github.com/y-guang/eam/internal/partition"
	"github.com/y-guang/eam/internal/rngstream"
	"github.com/y-guang/eam/internal/tablex"
	"github.com/y-guang/eam/kernel"
	"github.com/y-guang/eam/simconfig"
	"github.com/y-guang/eam/simoutput"
)

var (
	datasetPreferredCols    = []string{"chunk_idx", "condition_idx", "trial_idx", "item_idx", "rt", "choice"}
	conditionPreferredCols  = []string{"chunk_idx", "condition_idx"}
)

// Run simulates cfg (which must already be Validate'd) and writes its
// output tree under outDir, returning a handle over it.
func Run(cfg *simconfig.Config, outDir string) (*simoutput.Output, error) {
	const op = "simrun.Run"
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, eamerr.Wrap(eamerr.IOError, op, err)
	}
	if err := cfg.Save(filepath.Join(outDir, "config.toml")); err != nil {
		return nil, err
	}

	conditionRng := rngstream.New(cfg.RandSeed, 0)
	conditionEnv, err := formula.EvaluateBindings(cfg.PriorFormulas, cfg.PriorParams, cfg.NConditions, conditionRng)
	if err != nil {
		return nil, err
	}

	chunks := chunkConditionIndices(cfg.NConditions, cfg.NConditionsPerChunk)
	datasetDir := filepath.Join(outDir, "dataset")
	condDir := filepath.Join(outDir, "evaluated_conditions")

	runChunk := func(chunkIdx int, conds []int) error {
		rng := rngstream.New(cfg.RandSeed, chunkIdx+1)
		return processChunk(cfg, conditionEnv, chunkIdx, conds, rng, datasetDir, condDir)
	}

	if !cfg.Parallel || cfg.NCores <= 1 {
		for chunkIdx, conds := range chunks {
			if err := runChunk(chunkIdx, conds); err != nil {
				return nil, err
			}
		}
	} else {
		if err := runChunksParallel(chunks, cfg.NCores, runChunk); err != nil {
			return nil, err
		}
	}

	log.Printf("simrun: wrote %d chunks, %d conditions, to %s", len(chunks), cfg.NConditions, outDir)
	return simoutput.Open(outDir)
}

// chunkConditionIndices splits [0, nConditions) into contiguous chunks of
// size at most perChunk.
func chunkConditionIndices(nConditions, perChunk int) [][]int {
	if perChunk < 1 {
		perChunk = nConditions
	}
	var chunks [][]int
	for start := 0; start < nConditions; start += perChunk {
		end := start + perChunk
		if end > nConditions {
			end = nConditions
		}
		idxs := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idxs = append(idxs, i)
		}
		chunks = append(chunks, idxs)
	}
	return chunks
}

// runChunksParallel fans chunk work out over a bounded goroutine pool,
// the same "workers pull indices off a channel" shape the teacher's own
// batch-epoch drivers use in place of a real MPI partition.
func runChunksParallel(chunks [][]int, nCores int, work func(chunkIdx int, conds []int) error) error {
	type job struct {
		idx   int
		conds []int
	}
	jobs := make(chan job, len(chunks))
	for i, c := range chunks {
		jobs <- job{idx: i, conds: c}
	}
	close(jobs)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	workers := nCores
	if workers > len(chunks) {
		workers = len(chunks)
	}
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				if err := work(j.idx, j.conds); err != nil {
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

// processChunk walks condition -> trial -> item for one chunk and writes
// both its dataset and evaluated_conditions partitions.
func processChunk(cfg *simconfig.Config, conditionEnv formula.Env, chunkIdx int, conds []int, rng *rand.Rand, datasetDir, condDir string) error {
	var dataRows []tablex.Row
	var condRows []tablex.Row

	for _, condIdx := range conds {
		condRowEnv := sliceEnvAt(conditionEnv, condIdx)
		condRows = append(condRows, conditionRow(chunkIdx, condIdx, condRowEnv))

		trialEnv, err := formula.EvaluateBindings(cfg.BetweenTrialFormulas, condRowEnv, cfg.NTrialsPerCondition, rng)
		if err != nil {
			return err
		}

		for trialIdx := 0; trialIdx < cfg.NTrialsPerCondition; trialIdx++ {
			trialRowEnv := sliceEnvAt(trialEnv, trialIdx)
			itemEnv, err := formula.EvaluateBindings(cfg.ItemFormulas, trialRowEnv, cfg.NItems, rng)
			if err != nil {
				return err
			}

			noise := cfg.NoiseFactory(itemEnv, rng)
			crossings, err := simulateOne(cfg, itemEnv, noise)
			if err != nil {
				return err
			}
			for _, cr := range crossings {
				dataRows = append(dataRows, tablex.Row{
					"chunk_idx":     int64(chunkIdx),
					"condition_idx": int64(condIdx),
					"trial_idx":     int64(trialIdx),
					"item_idx":      int64(cr.ItemIdx),
					"rt":            cr.RT,
					"choice":        cr.Choice,
				})
			}
		}
	}

	if err := writePartition(datasetDir, chunkIdx, dataRows, datasetPreferredCols); err != nil {
		return err
	}
	return writePartition(condDir, chunkIdx, condRows, conditionPreferredCols)
}

func writePartition(baseDir string, chunkIdx int, rows []tablex.Row, preferred []string) error {
	const op = "simrun.writePartition"
	dir := partition.Path(baseDir, chunkIdx)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return eamerr.Wrap(eamerr.IOError, op, err)
	}
	cols := tablex.ColumnOrder(rows, preferred)
	dt := tablex.BuildTable(rows, cols)
	return tablex.WriteTSV(dt, filepath.Join(dir, partition.DataFile))
}

func conditionRow(chunkIdx, condIdx int, env formula.Env) tablex.Row {
	row := tablex.Row{"chunk_idx": int64(chunkIdx), "condition_idx": int64(condIdx)}
	for k, v := range env {
		if len(v) == 0 {
			continue
		}
		row[k] = v[0]
	}
	return row
}

// sliceEnvAt picks index idx out of every entry of env, broadcasting
// length-1 entries (spec.md §4.1's recycling rule applied to an already
// resolved environment).
func sliceEnvAt(env formula.Env, idx int) formula.Env {
	out := make(formula.Env, len(env))
	for k, v := range env {
		if len(v) == 0 {
			continue
		}
		if idx < len(v) {
			out[k] = []float64{v[idx]}
		} else {
			out[k] = []float64{v[0]}
		}
	}
	return out
}

// simulateOne dispatches one trial's resolved item environment to the
// backend kernel cfg.Validate resolved.
func simulateOne(cfg *simconfig.Config, itemEnv formula.Env, noise kernel.NoiseFunc) ([]kernel.Crossing, error) {
	const op = "simrun.simulateOne"
	coupling := cfg.NormalizedNoiseMechanism()
	switch cfg.Backend() {
	case backend.DDM1B:
		return kernel.SimulateDDM1B(itemEnv["V"], itemEnv["A"], optional(itemEnv, "Z"), optional(itemEnv, "NDT"),
			cfg.MaxT, cfg.Dt, cfg.MaxReached, coupling, noise)
	case backend.DDM2B:
		return kernel.SimulateDDM2B(itemEnv["V"], itemEnv["A_upper"], itemEnv["A_lower"], optional(itemEnv, "Z"), optional(itemEnv, "NDT"),
			cfg.MaxT, cfg.Dt, cfg.MaxReached, coupling, noise)
	case backend.LCAGI:
		return kernel.SimulateLCAGI(itemEnv["V"], itemEnv["Beta"], itemEnv["K"], itemEnv["A"], optional(itemEnv, "Z"),
			cfg.MaxT, cfg.Dt, cfg.MaxReached, coupling, noise)
	default:
		return nil, eamerr.New(eamerr.UnknownModel, op, fmt.Sprintf("unresolved backend %q", cfg.Backend()))
	}
}

func optional(env formula.Env, key string) []float64 {
	if v, ok := env[key]; ok {
		return v
	}
	return nil
}
