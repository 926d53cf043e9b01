// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package partition names and discovers the chunk_idx=<k> directories
// shared by the evaluated_conditions and dataset trees (spec.md §6).
package partition

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/y-guang/eam/eamerr"
)

// DirName returns the partition directory name for chunk index k.
func DirName(k int) string { return fmt.Sprintf("chunk_idx=%d", k) }

// Path joins base with the partition directory name for chunk index k.
func Path(base string, k int) string { return filepath.Join(base, DirName(k)) }

// DataFile is the fixed filename every partition directory holds.
const DataFile = "data.tsv"

// List returns every chunk index present under base, sorted ascending.
func List(base string) ([]int, error) {
	const op = "partition.List"
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, eamerr.Wrap(eamerr.IOError, op, err)
	}
	var out []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, "chunk_idx=") {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(name, "chunk_idx="))
		if err != nil {
			continue
		}
		out = append(out, idx)
	}
	sort.Ints(out)
	return out, nil
}
