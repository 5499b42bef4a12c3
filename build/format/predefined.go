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

package format

// Layout of the coordinates of a coordinate list.
type Layout int

const (
	// SoA stores the coordinates of every level in its own array.
	SoA Layout = iota
	// AoS interleaves the coordinates of all levels in a single array.
	AoS
)

// Scalar returns the format of tensors of order 0.
func Scalar() *Format {
	return MustNew(nil)
}

// DenseVector returns the format of dense vectors.
func DenseVector() *Format {
	return MustNew([]ModeFormat{Dense})
}

// SparseVector returns the format of sparse vectors.
func SparseVector() *Format {
	return MustNew([]ModeFormat{Compressed})
}

// DenseMatrix returns the format of row-major dense matrices.
func DenseMatrix() *Format {
	return MustNew([]ModeFormat{Dense, Dense})
}

// CSR returns the compressed sparse row format.
func CSR() *Format {
	return MustNew([]ModeFormat{Dense, Compressed})
}

// CSC returns the compressed sparse column format.
func CSC() *Format {
	return MustNew([]ModeFormat{Dense, Compressed}, WithOrdering(1, 0))
}

// DCSR returns the doubly compressed sparse row format.
func DCSR() *Format {
	return MustNew([]ModeFormat{Compressed, Compressed})
}

// DCSC returns the doubly compressed sparse column format.
func DCSC() *Format {
	return MustNew([]ModeFormat{Compressed, Compressed}, WithOrdering(1, 0))
}

// COO returns the coordinate list format of tensors of a given order.
func COO(order int, layout Layout) *Format {
	if order == 0 {
		return Scalar()
	}
	levels := []ModeFormat{Compressed}
	if order > 1 {
		levels = []ModeFormat{Uncompressed}
		for range order - 2 {
			levels = append(levels, Singleton.Copy(NotUnique))
		}
		levels = append(levels, Singleton)
	}
	if layout == AoS {
		return MustNew(levels, WithPackBoundaries(0, order))
	}
	return MustNew(levels)
}

// ELL returns the ELLPACK format storing the same number of coordinates
// for every row of a matrix.
func ELL() *Format {
	return MustNew([]ModeFormat{Dense, Fixed})
}
