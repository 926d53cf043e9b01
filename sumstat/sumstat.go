// Copyright (c) 2019, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sumstat composes reduction pipelines over a simulated dataset:
// an ordered list of atoms, each a (group-by, aggregations, optional
// pivot-wider) triple, built on github.com/emer/etable/v2's split/agg
// packages (spec.md §4.6, C10 in the component table). Atoms compose by
// concatenation and their results join back together on shared group-by
// keys, the "+"-style composition described in spec.md §4.6.
package sumstat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/emer/etable/v2/agg"
	"github.com/emer/etable/v2/etable"
	"github.com/emer/etable/v2/split"

	"github.com/y-guang/eam/eamerr"
	"github.com/y-guang/eam/internal/tablex"
)

// Atom is one reduction step: group dt by GroupBy, aggregate each key of
// Aggregations with its agg.Aggs kind, and optionally pivot the result
// wide on WiderBy (a column that must also appear in GroupBy).
type Atom struct {
	Aggregations map[string]agg.Aggs
	GroupBy      []string
	WiderBy      string
}

// Spec is an ordered sequence of atoms; Apply runs each independently
// and joins the results together.
type Spec []Atom

// ComposeSpecs concatenates specs in order, the "+" operator in spec.md
// §4.6's summary-stat algebra.
func ComposeSpecs(specs ...Spec) Spec {
	var out Spec
	for _, s := range specs {
		out = append(out, s...)
	}
	return out
}

// Apply runs every atom in spec against dt and joins their results on
// shared group-by columns, left to right.
func Apply(spec Spec, dt *etable.Table) (*etable.Table, error) {
	const op = "sumstat.Apply"
	if len(spec) == 0 {
		return nil, eamerr.New(eamerr.ConfigInvalid, op, "empty summary spec")
	}
	out, err := applyAtom(spec[0], dt)
	if err != nil {
		return nil, err
	}
	outKeys := pivotedKeys(spec[0])
	for _, atom := range spec[1:] {
		next, err := applyAtom(atom, dt)
		if err != nil {
			return nil, err
		}
		out, err = JoinSummaryTables(out, outKeys, next, pivotedKeys(atom))
		if err != nil {
			return nil, err
		}
		outKeys = commonKeys(outKeys, pivotedKeys(atom))
	}
	return out, nil
}

// pivotedKeys is the set of group-by columns that survive in an atom's
// output table: every GroupBy column except WiderBy, which is folded
// into column suffixes rather than kept as a row key.
func pivotedKeys(atom Atom) []string {
	if atom.WiderBy == "" {
		return atom.GroupBy
	}
	var out []string
	for _, k := range atom.GroupBy {
		if k != atom.WiderBy {
			out = append(out, k)
		}
	}
	return out
}

func applyAtom(atom Atom, dt *etable.Table) (*etable.Table, error) {
	const op = "sumstat.applyAtom"
	if len(atom.GroupBy) == 0 {
		return nil, eamerr.New(eamerr.ConfigInvalid, op, "atom has no group_by columns")
	}
	ix := etable.NewIdxView(dt)
	spl := split.GroupBy(ix, atom.GroupBy)
	cols := sortedAggKeys(atom.Aggregations)
	for _, col := range cols {
		split.Agg(spl, col, atom.Aggregations[col])
	}
	res := spl.AggsToTable(etable.AddAggName)
	if atom.WiderBy == "" {
		return res, nil
	}
	return pivotWider(res, atom.WiderBy, atom.GroupBy)
}

// pivotWider reshapes res from one row per GroupBy combination into one
// row per GroupBy-minus-WiderBy combination, suffixing every value
// column with its WiderBy value ("<col>_<value>"). This step has no
// direct etable counterpart; it is implemented directly on tablex.Row.
func pivotWider(res *etable.Table, widerBy string, groupBy []string) (*etable.Table, error) {
	const op = "sumstat.pivotWider"
	var idCols []string
	found := false
	for _, c := range groupBy {
		if c == widerBy {
			found = true
			continue
		}
		idCols = append(idCols, c)
	}
	if !found {
		return nil, eamerr.New(eamerr.WiderByMismatch, op, "wider_by column "+widerBy+" not present in group_by")
	}

	rows := tablex.Rows(res)
	if len(rows) == 0 {
		return nil, eamerr.New(eamerr.EmptyResults, op, "no rows to pivot")
	}

	var valueCols []string
	for k := range rows[0] {
		if k == widerBy || contains(idCols, k) {
			continue
		}
		valueCols = append(valueCols, k)
	}
	sort.Strings(valueCols)

	grouped := map[string]tablex.Row{}
	var order []string
	for _, r := range rows {
		kid := idKey(r, idCols)
		base, ok := grouped[kid]
		if !ok {
			base = tablex.Row{}
			for _, ic := range idCols {
				base[ic] = r[ic]
			}
			grouped[kid] = base
			order = append(order, kid)
		}
		suffix := fmt.Sprint(r[widerBy])
		for _, vc := range valueCols {
			base[vc+"_"+suffix] = r[vc]
		}
	}

	outRows := make([]tablex.Row, 0, len(order))
	for _, k := range order {
		outRows = append(outRows, grouped[k])
	}
	cols := tablex.ColumnOrder(outRows, idCols)
	return tablex.BuildTable(outRows, cols), nil
}

// JoinSummaryTables full-outer-joins left and right on their shared
// keys: spec.md's composition invariant (apply(s1+s2,d) == apply(s1,d)
// outer-join apply(s2,d)) always preserves every row from both atoms, so
// a row present on only one side is kept with the other side's columns
// left unset rather than dropped. WiderByMismatch fires only when the
// two atoms share no group_by key at all -- an incompatible-composition
// error at the metadata level, not a per-row alignment failure.
func JoinSummaryTables(left *etable.Table, leftKeys []string, right *etable.Table, rightKeys []string) (*etable.Table, error) {
	const op = "sumstat.JoinSummaryTables"
	common := commonKeys(leftKeys, rightKeys)
	if len(common) == 0 {
		return nil, eamerr.New(eamerr.WiderByMismatch, op, "no shared group_by keys to join on")
	}

	leftRows := tablex.Rows(left)
	rightRows := tablex.Rows(right)

	rightIdx := map[string][]tablex.Row{}
	for _, r := range rightRows {
		k := idKey(r, common)
		rightIdx[k] = append(rightIdx[k], r)
	}
	matchedRight := map[string]bool{}

	var outRows []tablex.Row
	for _, lr := range leftRows {
		k := idKey(lr, common)
		matches := rightIdx[k]
		if len(matches) == 0 {
			outRows = append(outRows, lr)
			continue
		}
		matchedRight[k] = true
		for _, rr := range matches {
			merged := tablex.Row{}
			for kk, vv := range lr {
				merged[kk] = vv
			}
			for kk, vv := range rr {
				merged[kk] = vv
			}
			outRows = append(outRows, merged)
		}
	}
	for _, rr := range rightRows {
		k := idKey(rr, common)
		if matchedRight[k] {
			continue
		}
		outRows = append(outRows, rr)
	}

	cols := tablex.ColumnOrder(outRows, common)
	return tablex.BuildTable(outRows, cols), nil
}

func idKey(r tablex.Row, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(r[c])
	}
	return strings.Join(parts, "\x1f")
}

func commonKeys(a, b []string) []string {
	bset := map[string]bool{}
	for _, k := range b {
		bset[k] = true
	}
	var out []string
	for _, k := range a {
		if bset[k] {
			out = append(out, k)
		}
	}
	return out
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func sortedAggKeys(m map[string]agg.Aggs) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
