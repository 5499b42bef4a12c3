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

// Package storage holds tensors in the index arrays and values array
// described by their format.
package storage

import (
	"slices"

	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
)

// Entry is a component of a tensor and its value.
type Entry struct {
	Coords []int
	Val    float64
}

// Storage of a tensor.
//
// Index[l][s] is the index array of slot s of the level l (starting at 0).
// Arrays shared by the levels of a pack are stored at the first level of
// the pack. Levels without index arrays have no slots.
type Storage struct {
	Dims  []int
	Index [][][]int
	Vals  []float64
}

// New returns an empty storage for a tensor.
func New(dims []int, f *format.Format) *Storage {
	return &Storage{
		Dims:  slices.Clone(dims),
		Index: make([][][]int, f.Order()),
	}
}

// Array returns a pointer to an index array, adding slots if required.
func (s *Storage) Array(level, slot int) *[]int {
	for level >= len(s.Index) {
		s.Index = append(s.Index, nil)
	}
	if slot >= len(s.Index[level]) {
		s.Index[level] = append(s.Index[level], make([][]int, slot+1-len(s.Index[level]))...)
	}
	return &s.Index[level][slot]
}

// Order of the tensor.
func (s *Storage) Order() int {
	return len(s.Dims)
}

// Size returns the number of components of the tensor.
func (s *Storage) Size() int {
	size := 1
	for _, dim := range s.Dims {
		size *= dim
	}
	return size
}

// modes returns the modes of a format for a storage of dimensions dims.
func modes(f *format.Format, dims []int) ([]*format.Mode, error) {
	if f.Order() != len(dims) {
		return nil, fmterr.Errorf("format %s has %d levels but the tensor has %d dimensions", f, f.Order(), len(dims))
	}
	return format.NewModes(ir.NewTensorVar("T", ir.IndexType), "T", f, dims), nil
}

// packLevel returns the level (starting at 0) storing the arrays of a pack.
func packLevel(m *format.Mode) int {
	return m.Pack().Modes()[0].Level - 1
}

// crdIndex returns the index of the coordinate of a mode at a position.
func crdIndex(pos int, m *format.Mode) int {
	return pos*m.Pack().NumModes() + m.PackLocation()
}

// ToDense returns the components of a tensor in row-major order.
// Duplicate components are added.
func (s *Storage) ToDense(f *format.Format) ([]float64, error) {
	entries, err := s.Unpack(f)
	if err != nil {
		return nil, err
	}
	dense := make([]float64, s.Size())
	for _, entry := range entries {
		dense[s.offset(entry.Coords)] += entry.Val
	}
	return dense, nil
}

func (s *Storage) offset(coords []int) int {
	offset := 0
	for i, c := range coords {
		offset = offset*s.Dims[i] + c
	}
	return offset
}
