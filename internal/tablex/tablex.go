// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tablex is the thin layer between eam's Go-native row
// representation and github.com/emer/etable/v2's columnar Table, used by
// every component that persists or groups simulation data (spec.md C8,
// C9, C10). It exists so the rest of the repo works with plain
// []map[string]any rows and only touches etable at the read/write/group
// boundary, the same seam the teacher's own Sim structs draw between
// their in-memory state and their *etable.Table logs.
package tablex

import (
	"os"
	"sort"

	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/etensor"

	"github.com/y-guang/eam/eamerr"
)

// Row is one record as built by the driver/evaluator: plain Go values
// keyed by column name. Values are float64, string, or an integer type
// (int, int8 for choice, int64 for the index columns).
type Row map[string]any

// ColumnOrder picks a deterministic column ordering for a set of rows:
// the given preferred prefix, in order, followed by every remaining key
// seen across rows, sorted for determinism.
func ColumnOrder(rows []Row, preferred []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range preferred {
		if !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	var rest []string
	restSeen := map[string]bool{}
	for _, r := range rows {
		for k := range r {
			if seen[k] || restSeen[k] {
				continue
			}
			rest = append(rest, k)
			restSeen[k] = true
		}
	}
	sort.Strings(rest)
	out = append(out, rest...)
	return out
}

// BuildTable converts rows into an *etable.Table with the given column
// order, inferring each column's etensor type from the first row that
// defines it (float64 -> FLOAT64, int8 -> INT64, string -> STRING).
func BuildTable(rows []Row, cols []string) *etable.Table {
	sch := make(etable.Schema, 0, len(cols))
	for _, c := range cols {
		typ := etensor.FLOAT64
		for _, r := range rows {
			v, ok := r[c]
			if !ok {
				continue
			}
			switch v.(type) {
			case string:
				typ = etensor.STRING
			case int, int8, int64:
				typ = etensor.INT64
			}
			break
		}
		sch = append(sch, etable.Column{Name: c, Type: typ})
	}
	dt := &etable.Table{}
	dt.SetFromSchema(sch, len(rows))
	for ri, r := range rows {
		for _, c := range cols {
			v, ok := r[c]
			if !ok {
				continue
			}
			switch val := v.(type) {
			case string:
				dt.SetCellString(c, ri, val)
			case float64:
				dt.SetCellFloat(c, ri, val)
			case int:
				dt.SetCellFloat(c, ri, float64(val))
			case int8:
				dt.SetCellFloat(c, ri, float64(val))
			case int64:
				dt.SetCellFloat(c, ri, float64(val))
			}
		}
	}
	return dt
}

// Rows reads an *etable.Table back out as plain rows, for callers that
// want to continue working with the Go-native representation after a
// round trip through disk. STRING columns come back as string and every
// other column, integer ones included, as float64.
func Rows(dt *etable.Table) []Row {
	n := dt.Rows
	cols := make([]string, len(dt.Cols))
	kinds := make([]etensor.Type, len(dt.Cols))
	for i, col := range dt.Cols {
		cols[i] = dt.ColNames[i]
		kinds[i] = col.DataType()
	}
	rows := make([]Row, n)
	for ri := 0; ri < n; ri++ {
		r := Row{}
		for ci, c := range cols {
			if kinds[ci] == etensor.STRING {
				r[c] = dt.CellString(c, ri)
			} else {
				r[c] = dt.CellFloat(c, ri)
			}
		}
		rows[ri] = r
	}
	return rows
}

// WriteTSV writes dt to path as a tab-delimited file via etable's own
// CSV writer, following the WriteCSVHeaders/WriteCSVRow idiom the
// teacher uses for every epoch/run log (spec.md §6: the on-disk format
// substitutes this for literal Parquet, see DESIGN.md).
func WriteTSV(dt *etable.Table, path string) error {
	const op = "tablex.WriteTSV"
	f, err := os.Create(path)
	if err != nil {
		return eamerr.Wrap(eamerr.IOError, op, err)
	}
	defer f.Close()
	if err := dt.WriteCSVHeaders(f, etable.Tab); err != nil {
		return eamerr.Wrap(eamerr.IOError, op, err)
	}
	for ri := 0; ri < dt.Rows; ri++ {
		if err := dt.WriteCSVRow(f, ri, etable.Tab); err != nil {
			return eamerr.Wrap(eamerr.IOError, op, err)
		}
	}
	return nil
}

// ReadTSV reads a table previously written by WriteTSV.
func ReadTSV(path string) (*etable.Table, error) {
	const op = "tablex.ReadTSV"
	f, err := os.Open(path)
	if err != nil {
		return nil, eamerr.Wrap(eamerr.IOError, op, err)
	}
	defer f.Close()
	dt := &etable.Table{}
	if err := dt.ReadCSV(f, etable.Tab); err != nil {
		return nil, eamerr.Wrap(eamerr.IOError, op, err)
	}
	return dt, nil
}
