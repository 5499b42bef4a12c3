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

package storage_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tensorlower/api/storage"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"gonum.org/v1/gonum/mat"
)

var matrixEntries = []storage.Entry{
	{Coords: []int{2, 2}, Val: 4},
	{Coords: []int{0, 1}, Val: 1},
	{Coords: []int{2, 0}, Val: 3},
	{Coords: []int{0, 3}, Val: 2},
}

var matrixDense = []float64{
	0, 1, 0, 2,
	0, 0, 0, 0,
	3, 0, 4, 0,
}

func TestPack(t *testing.T) {
	tests := []struct {
		format *format.Format
		want   *storage.Storage
	}{
		{
			format: format.CSR(),
			want: &storage.Storage{
				Dims:  []int{3, 4},
				Index: [][][]int{nil, {{0, 2, 2, 4}, {1, 3, 0, 2}}},
				Vals:  []float64{1, 2, 3, 4},
			},
		},
		{
			format: format.COO(2, format.AoS),
			want: &storage.Storage{
				Dims:  []int{3, 4},
				Index: [][][]int{{{0, 4}, {0, 1, 0, 3, 2, 0, 2, 2}}, nil},
				Vals:  []float64{1, 2, 3, 4},
			},
		},
		{
			format: format.COO(2, format.SoA),
			want: &storage.Storage{
				Dims:  []int{3, 4},
				Index: [][][]int{{{0, 4}, {0, 0, 2, 2}}, {nil, {1, 3, 0, 2}}},
				Vals:  []float64{1, 2, 3, 4},
			},
		},
		{
			format: format.CSC(),
			want: &storage.Storage{
				Dims:  []int{3, 4},
				Index: [][][]int{nil, {{0, 1, 2, 3, 4}, {2, 0, 2, 0}}},
				Vals:  []float64{3, 1, 4, 2},
			},
		},
		{
			format: format.ELL(),
			want: &storage.Storage{
				Dims:  []int{3, 4},
				Index: [][][]int{nil, {{2}, {1, 3, 0, 0, 0, 2}}},
				Vals:  []float64{1, 2, 0, 0, 3, 4},
			},
		},
	}
	for i, test := range tests {
		got, err := storage.Pack(test.format, []int{3, 4}, matrixEntries)
		if err != nil {
			t.Errorf("test %d: cannot pack in %s: %v", i, test.format, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected %s storage:\n%s", i, test.format, diff)
		}
		dense, err := got.ToDense(test.format)
		if err != nil {
			t.Errorf("test %d: cannot unpack %s: %v", i, test.format, err)
			continue
		}
		if diff := cmp.Diff(matrixDense, dense); diff != "" {
			t.Errorf("test %d: unexpected dense %s tensor:\n%s", i, test.format, diff)
		}
	}
}

func TestPackDuplicates(t *testing.T) {
	entries := []storage.Entry{
		{Coords: []int{1}, Val: 1},
		{Coords: []int{1}, Val: 2},
		{Coords: []int{3}, Val: 4},
	}
	got, err := storage.Pack(format.SparseVector(), []int{5}, entries)
	if err != nil {
		t.Fatal(err)
	}
	want := &storage.Storage{
		Dims:  []int{5},
		Index: [][][]int{{{0, 2}, {1, 3}}},
		Vals:  []float64{3, 4},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected storage:\n%s", diff)
	}
}

func TestDenseRoundTrip(t *testing.T) {
	dense := []float64{
		1, 0, 0,
		0, 0, 2,

		0, 3, 0,
		0, 0, 0,
	}
	dims := []int{2, 2, 3}
	formats := []*format.Format{
		format.MustNew([]format.ModeFormat{format.Dense, format.Dense, format.Dense}),
		format.MustNew([]format.ModeFormat{format.Compressed, format.Compressed, format.Compressed}),
		format.MustNew([]format.ModeFormat{format.Dense, format.Compressed, format.Dense}),
		format.COO(3, format.SoA),
		format.COO(3, format.AoS),
		format.MustNew([]format.ModeFormat{format.Dense, format.Compressed, format.Compressed}, format.WithOrdering(2, 0, 1)),
	}
	for i, f := range formats {
		st, err := storage.FromDense(f, dims, dense)
		if err != nil {
			t.Errorf("test %d: cannot pack %s: %v", i, f, err)
			continue
		}
		got, err := st.ToDense(f)
		if err != nil {
			t.Errorf("test %d: cannot unpack %s: %v", i, f, err)
			continue
		}
		if diff := cmp.Diff(dense, got); diff != "" {
			t.Errorf("test %d: unexpected %s round trip:\n%s", i, f, diff)
		}
	}
}

func TestUnpack(t *testing.T) {
	tests := []struct {
		format  *format.Format
		storage *storage.Storage
		want    []float64
	}{
		{
			format: format.MustNew([]format.ModeFormat{format.Sliced}),
			storage: &storage.Storage{
				Dims:  []int{5},
				Index: [][][]int{{{3}}},
				Vals:  []float64{0, 7, 8},
			},
			want: []float64{0, 7, 8, 0, 0},
		},
		{
			format: format.MustNew([]format.ModeFormat{format.Squeezed, format.Dense}),
			storage: &storage.Storage{
				Dims:  []int{4, 2},
				Index: [][][]int{{{1, 3}, {2}}, nil},
				Vals:  []float64{1, 2, 3, 4},
			},
			want: []float64{0, 0, 1, 2, 0, 0, 3, 4},
		},
		{
			// Diagonals -1 and 1 of a 3x3 matrix indexed by (row, column, diagonal).
			format: format.MustNew([]format.ModeFormat{format.Dense, format.Dense, format.Offset}, format.WithOrdering(2, 0, 1)),
			storage: &storage.Storage{
				Dims:  []int{3, 3, 2},
				Index: [][][]int{nil, nil, {{-1, 1}}},
				Vals:  []float64{9, 1, 2, 3, 4, 9},
			},
			want: []float64{
				0, 0, 0, 3, 0, 0,
				1, 0, 0, 0, 0, 4,
				0, 0, 2, 0, 0, 0,
			},
		},
	}
	for i, test := range tests {
		got, err := test.storage.ToDense(test.format)
		if err != nil {
			t.Errorf("test %d: cannot unpack %s: %v", i, test.format, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected dense %s tensor:\n%s", i, test.format, diff)
		}
	}
}

func TestMatrix(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{
		0, 5, 0,
		6, 0, 7,
	})
	st, err := storage.FromMatrix(format.DCSR(), m)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{5, 6, 7}, st.Vals); diff != "" {
		t.Errorf("unexpected values:\n%s", diff)
	}
	got, err := st.Matrix(format.DCSR())
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(m, got) {
		t.Errorf("got matrix %v but want %v", mat.Formatted(got), mat.Formatted(m))
	}
	if _, err := st.Vector(format.DCSR()); !fmterr.IsUser(err) {
		t.Errorf("got error %v but want a user error", err)
	}
}

func TestPackErrors(t *testing.T) {
	tests := []struct {
		format  *format.Format
		dims    []int
		entries []storage.Entry
	}{
		{
			format:  format.CSR(),
			dims:    []int{2},
			entries: nil,
		},
		{
			format:  format.CSR(),
			dims:    []int{2, 2},
			entries: []storage.Entry{{Coords: []int{0, 2}, Val: 1}},
		},
		{
			format:  format.CSR(),
			dims:    []int{2, 2},
			entries: []storage.Entry{{Coords: []int{0}, Val: 1}},
		},
		{
			format:  format.MustNew([]format.ModeFormat{format.Dense, format.Singleton}),
			dims:    []int{2, 2},
			entries: []storage.Entry{{Coords: []int{0, 0}, Val: 1}, {Coords: []int{0, 1}, Val: 1}},
		},
		{
			format:  format.MustNew([]format.ModeFormat{format.Sliced}),
			dims:    []int{2},
			entries: nil,
		},
	}
	for i, test := range tests {
		_, err := storage.Pack(test.format, test.dims, test.entries)
		if !fmterr.IsUser(err) {
			t.Errorf("test %d: got error %v but want a user error", i, err)
		}
	}
}
