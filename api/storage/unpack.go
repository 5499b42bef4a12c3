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

package storage

import (
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
)

type child struct {
	pos, coord int
}

type unpacker struct {
	st       *Storage
	modes    []*format.Mode
	ordering []int
	entries  []Entry
}

// Unpack returns the components stored by a tensor in the order of its
// levels. Explicit zeros and duplicates are returned as stored.
func (s *Storage) Unpack(f *format.Format) ([]Entry, error) {
	ms, err := modes(f, s.Dims)
	if err != nil {
		return nil, err
	}
	u := &unpacker{st: s, modes: ms, ordering: f.Ordering()}
	if err := u.visit(0, 0, make([]int, len(ms))); err != nil {
		return nil, err
	}
	return u.entries, nil
}

func (u *unpacker) visit(l, pos int, coords []int) error {
	if l == len(u.modes) {
		val, err := load(u.st.Vals, pos, "values")
		if err != nil {
			return err
		}
		entry := Entry{Coords: make([]int, len(coords)), Val: val}
		for level, dim := range u.ordering {
			entry.Coords[dim] = coords[level]
		}
		u.entries = append(u.entries, entry)
		return nil
	}
	children, err := u.children(u.modes[l], l, pos, coords)
	if err != nil {
		return err
	}
	for _, c := range children {
		coords[l] = c.coord
		if err := u.visit(l+1, c.pos, coords); err != nil {
			return err
		}
	}
	return nil
}

func (u *unpacker) array(m *format.Mode, slot int) []int {
	level := m.Pack().Modes()[0].Level - 1
	if level >= len(u.st.Index) || slot >= len(u.st.Index[level]) {
		return nil
	}
	return u.st.Index[level][slot]
}

func load[T any](array []T, i int, name string) (T, error) {
	if i < 0 || i >= len(array) {
		var zero T
		return zero, fmterr.Errorf("index %d out of range of the %s array of length %d", i, name, len(array))
	}
	return array[i], nil
}

func (u *unpacker) children(m *format.Mode, l, pos int, coords []int) ([]child, error) {
	switch m.Format.Name() {
	case "dense":
		return rangeOf(pos, 0, u.st.Dims[m.Index]), nil
	case "sliced":
		ub, err := load(u.array(m, 0), 0, "upper bound")
		if err != nil {
			return nil, err
		}
		return rangeOf(pos, 0, ub), nil
	case "block":
		size := int(m.Format.Width(m).(*ir.Literal).Int)
		var children []child
		for _, c := range rangeOf(pos, size*coords[l-2], size) {
			if c.coord < u.st.Dims[m.Index] {
				children = append(children, c)
			}
		}
		return children, nil
	case "compressed":
		begin, err := load(u.array(m, 0), pos, "positions")
		if err != nil {
			return nil, err
		}
		end, err := load(u.array(m, 0), pos+1, "positions")
		if err != nil {
			return nil, err
		}
		return u.stored(m, begin, end)
	case "singleton":
		return u.stored(m, pos, pos+1)
	case "fixed":
		width, err := load(u.array(m, 0), 0, "size")
		if err != nil {
			return nil, err
		}
		return u.stored(m, pos*width, (pos+1)*width)
	case "squeezed":
		perm := u.array(m, 0)
		n, err := load(u.array(m, 1), 0, "number of slices")
		if err != nil {
			return nil, err
		}
		children := make([]child, n)
		for s := range n {
			coord, err := load(perm, s, "permutation")
			if err != nil {
				return nil, err
			}
			children[s] = child{pos: pos*n + s, coord: coord}
		}
		return children, nil
	case "offset":
		offset, err := load(u.array(m, 0), coords[l-2], "offset")
		if err != nil {
			return nil, err
		}
		coord := coords[l-1] + offset
		if coord < 0 || coord >= u.st.Dims[m.Index] {
			return nil, nil
		}
		return []child{{pos: pos, coord: coord}}, nil
	}
	return nil, fmterr.Errorf("cannot unpack %s levels", m.Format)
}

// rangeOf returns the children of a segment storing every coordinate
// in [start, start+width).
func rangeOf(pos, start, width int) []child {
	children := make([]child, width)
	for i := range width {
		children[i] = child{pos: pos*width + i, coord: start + i}
	}
	return children
}

// stored returns the coordinates stored in [begin, end).
func (u *unpacker) stored(m *format.Mode, begin, end int) ([]child, error) {
	crd := u.array(m, 1)
	var children []child
	for p := begin; p < end; p++ {
		coord, err := load(crd, crdIndex(p, m), "coordinates")
		if err != nil {
			return nil, err
		}
		children = append(children, child{pos: p, coord: coord})
	}
	return children, nil
}
