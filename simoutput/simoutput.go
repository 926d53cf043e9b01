// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package simoutput is the lazy, on-disk handle a simulation run produces
// and every downstream stage (mapcond, sumstat, abcinput) consumes
// (spec.md §6, C8 in the component table). It never loads more than one
// chunk into memory at a time unless a caller explicitly asks for all of
// it.
package simoutput

import (
	"os"
	"path/filepath"

	"github.com/emer/etable/v2/etable"

	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/internal/partition"
	"github.com/y-guang/eam/internal/tablex"
)

const (
	datasetDirName    = "dataset"
	conditionsDirName = "evaluated_conditions"
	configFileName    = "config.toml"
)

// Output is a handle over a completed (or in-progress) run directory.
type Output struct {
	Dir string
}

// Open validates that dir looks like a run output directory and returns a
// handle over it. It does not read any chunk data.
func Open(dir string) (*Output, error) {
	const op = "simoutput.Open"
	for _, sub := range []string{datasetDirName, conditionsDirName} {
		if fi, err := os.Stat(filepath.Join(dir, sub)); err != nil || !fi.IsDir() {
			return nil, eamerr.New(eamerr.IOError, op, "missing "+sub+" under "+dir)
		}
	}
	return &Output{Dir: dir}, nil
}

// Rehydrate reconstructs an Output handle from a directory produced by an
// earlier run, for processes that resume work against already-simulated
// data (spec.md §6).
func Rehydrate(dir string) (*Output, error) { return Open(dir) }

// ConfigPath is where simrun.Run writes the run's persisted simconfig.Config.
func (o *Output) ConfigPath() string { return filepath.Join(o.Dir, configFileName) }

// OpenDataset returns a lazy handle over the per-trial crossing rows.
func (o *Output) OpenDataset() (*Dataset, error) {
	return openDataset(filepath.Join(o.Dir, datasetDirName))
}

// OpenConditions returns a lazy handle over the per-condition evaluated
// prior-formula rows.
func (o *Output) OpenConditions() (*Dataset, error) {
	return openDataset(filepath.Join(o.Dir, conditionsDirName))
}

// Dataset is a lazy reference to one partitioned, chunk_idx=<k> tree.
// ReadChunk loads a single partition; ReadAll concatenates every
// partition and should only be used once the data is known to be small
// (e.g. after mapcond/sumstat has already reduced it).
type Dataset struct {
	baseDir string
	chunks  []int
}

func openDataset(baseDir string) (*Dataset, error) {
	chunks, err := partition.List(baseDir)
	if err != nil {
		return nil, err
	}
	return &Dataset{baseDir: baseDir, chunks: chunks}, nil
}

// Chunks returns the chunk indices present, sorted ascending.
func (d *Dataset) Chunks() []int { return d.chunks }

// ReadChunk loads the table for a single chunk index.
func (d *Dataset) ReadChunk(idx int) (*etable.Table, error) {
	return tablex.ReadTSV(filepath.Join(partition.Path(d.baseDir, idx), partition.DataFile))
}

// ReadAll loads and concatenates every chunk's rows into one table.
func (d *Dataset) ReadAll() (*etable.Table, error) {
	const op = "simoutput.ReadAll"
	var cols []string
	var rows []tablex.Row
	for _, idx := range d.chunks {
		dt, err := d.ReadChunk(idx)
		if err != nil {
			return nil, err
		}
		chunkRows := tablex.Rows(dt)
		if cols == nil {
			for i, c := range dt.Cols {
				_ = c
				cols = append(cols, dt.ColNames[i])
			}
		}
		rows = append(rows, chunkRows...)
	}
	if rows == nil {
		return nil, eamerr.New(eamerr.EmptyResults, op, "no chunks in "+d.baseDir)
	}
	return tablex.BuildTable(rows, cols), nil
}
