// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package attrquery

import (
	"slices"
	"strconv"
	"strings"

	"github.com/gx-org/tensorlower/base/ordered"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Relation is a list of coordinate tuples. Columns names the components of the tuples.
type Relation struct {
	Columns []string
	Rows    [][]int
}

// Result is the output of a select: one row of attribute values per group.
type Result struct {
	GroupBys []string
	Attrs    []string
	groups   *ordered.Map[string, *group]
}

type group struct {
	coords []int
	values []int
}

func tupleKey(xs []int) string {
	ss := make([]string, len(xs))
	for i, x := range xs {
		ss[i] = strconv.Itoa(x)
	}
	return strings.Join(ss, ",")
}

func maxOf[T constraints.Ordered](xs []T) T {
	return slices.Max(xs)
}

func minOf[T constraints.Ordered](xs []T) T {
	return slices.Min(xs)
}

func countDistinct[T comparable](tuples [][]T, key func([]T) string) int {
	seen := make(map[string]bool)
	for _, t := range tuples {
		seen[key(t)] = true
	}
	return len(seen)
}

func (rel *Relation) column(name string) (int, error) {
	i := slices.Index(rel.Columns, name)
	if i < 0 {
		return -1, errors.Errorf("coordinate %s not in relation columns %v", name, rel.Columns)
	}
	return i, nil
}

func (rel *Relation) project(rows [][]int, cols []int) [][]int {
	out := make([][]int, len(rows))
	for r, row := range rows {
		tuple := make([]int, len(cols))
		for i, col := range cols {
			tuple[i] = row[col]
		}
		out[r] = tuple
	}
	return out
}

func (rel *Relation) columns(names []string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		var err error
		if cols[i], err = rel.column(name); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

func (rel *Relation) aggregate(q Query, rows [][]int) (int, error) {
	switch qT := q.(type) {
	case *Literal:
		return qT.Val, nil
	case *DistinctCount:
		cols, err := rel.columns(qT.Coords)
		if err != nil {
			return 0, err
		}
		return countDistinct(rel.project(rows, cols), tupleKey), nil
	case *Max:
		col, err := rel.column(qT.Coord)
		if err != nil {
			return 0, err
		}
		return maxOf(flatten(rel.project(rows, []int{col}))), nil
	case *Min:
		col, err := rel.column(qT.Coord)
		if err != nil {
			return 0, err
		}
		return minOf(flatten(rel.project(rows, []int{col}))), nil
	}
	return 0, errors.Errorf("query %T cannot be used as an aggregate", q)
}

func flatten(tuples [][]int) []int {
	out := make([]int, len(tuples))
	for i, t := range tuples {
		out[i] = t[0]
	}
	return out
}

// Eval computes a select over the rows of a relation.
// Groups appear in the result in the order of their first row.
func Eval(q *Select, rel Relation) (*Result, error) {
	groupCols, err := rel.columns(q.GroupBys)
	if err != nil {
		return nil, err
	}
	rowsPerGroup := ordered.NewMap[string, [][]int]()
	coordsPerGroup := make(map[string][]int)
	for _, row := range rel.Rows {
		if len(row) != len(rel.Columns) {
			return nil, errors.Errorf("row %v has %d coordinates but the relation has %d columns", row, len(row), len(rel.Columns))
		}
		coords := rel.project([][]int{row}, groupCols)[0]
		key := tupleKey(coords)
		rows, _ := rowsPerGroup.Load(key)
		rowsPerGroup.Store(key, append(rows, row))
		coordsPerGroup[key] = coords
	}
	res := &Result{
		GroupBys: append([]string(nil), q.GroupBys...),
		groups:   ordered.NewMap[string, *group](),
	}
	for _, attr := range q.Attrs {
		res.Attrs = append(res.Attrs, attr.Name)
	}
	for key, rows := range rowsPerGroup.All() {
		g := &group{coords: coordsPerGroup[key]}
		for _, attr := range q.Attrs {
			val, err := rel.aggregate(attr.Query, rows)
			if err != nil {
				return nil, err
			}
			g.values = append(g.values, val)
		}
		res.groups.Store(key, g)
	}
	return res, nil
}

// Value returns the value of an attribute for a group of coordinates.
// It returns false if the group has no row.
func (r *Result) Value(attr string, coords ...int) (int, bool) {
	a := slices.Index(r.Attrs, attr)
	if a < 0 {
		return 0, false
	}
	g, ok := r.groups.Load(tupleKey(coords))
	if !ok {
		return 0, false
	}
	return g.values[a], true
}

// NumGroups returns the number of groups with at least one row.
func (r *Result) NumGroups() int {
	return r.groups.Size()
}

// Dense returns the values of an attribute laid out in row-major order over
// the group coordinates, given the size of every group-by dimension.
// Groups without any row have a zero value.
func (r *Result) Dense(attr string, dims []int) ([]int, error) {
	if len(dims) != len(r.GroupBys) {
		return nil, errors.Errorf("got %d dimensions for %d group-by coordinates", len(dims), len(r.GroupBys))
	}
	a := slices.Index(r.Attrs, attr)
	if a < 0 {
		return nil, errors.Errorf("attribute %s not computed by the query", attr)
	}
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	out := make([]int, size)
	for _, g := range r.groups.Values() {
		pos := 0
		for i, c := range g.coords {
			if c < 0 || c >= dims[i] {
				return nil, errors.Errorf("coordinate %d of %s out of range [0,%d)", c, r.GroupBys[i], dims[i])
			}
			pos = pos*dims[i] + c
		}
		out[pos] = g.values[a]
	}
	return out, nil
}
