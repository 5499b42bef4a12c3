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
	"gonum.org/v1/gonum/mat"
)

// FromDense stores the non-zero components of a row-major dense tensor.
func FromDense(f *format.Format, dims []int, dense []float64) (*Storage, error) {
	st := &Storage{Dims: dims}
	if len(dense) != st.Size() {
		return nil, fmterr.Errorf("dense tensor has %d components but its dimensions %v require %d", len(dense), dims, st.Size())
	}
	var entries []Entry
	coords := make([]int, len(dims))
	for i, val := range dense {
		rem := i
		for d := len(dims) - 1; d >= 0; d-- {
			coords[d] = rem % dims[d]
			rem /= dims[d]
		}
		if val != 0 {
			entries = append(entries, Entry{Coords: append([]int(nil), coords...), Val: val})
		}
	}
	return Pack(f, dims, entries)
}

// FromMatrix stores the non-zero components of a matrix.
func FromMatrix(f *format.Format, m mat.Matrix) (*Storage, error) {
	rows, cols := m.Dims()
	var entries []Entry
	for i := range rows {
		for j := range cols {
			if val := m.At(i, j); val != 0 {
				entries = append(entries, Entry{Coords: []int{i, j}, Val: val})
			}
		}
	}
	return Pack(f, []int{rows, cols}, entries)
}

// Matrix returns a tensor of order 2 as a dense matrix.
func (s *Storage) Matrix(f *format.Format) (*mat.Dense, error) {
	if s.Order() != 2 {
		return nil, fmterr.Errorf("cannot convert a tensor of order %d into a matrix", s.Order())
	}
	dense, err := s.ToDense(f)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(s.Dims[0], s.Dims[1], dense), nil
}

// Vector returns a tensor of order 1 as a dense vector.
func (s *Storage) Vector(f *format.Format) (*mat.VecDense, error) {
	if s.Order() != 1 {
		return nil, fmterr.Errorf("cannot convert a tensor of order %d into a vector", s.Order())
	}
	dense, err := s.ToDense(f)
	if err != nil {
		return nil, err
	}
	return mat.NewVecDense(s.Dims[0], dense), nil
}
