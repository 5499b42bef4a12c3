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

// Package format describes how tensors are stored.
//
// A tensor format is a list of levels, one for each dimension of the tensor,
// in storage order. Each level has a level format (dense, compressed,
// singleton...) generating the code to iterate over, locate, and assemble the
// coordinates of the level.
package format

import (
	"fmt"
	"slices"

	gxfmt "github.com/gx-org/tensorlower/base/fmt"
	"github.com/gx-org/tensorlower/build/fmterr"
)

// Format of a tensor.
type Format struct {
	levels []ModeFormat
	// ordering maps levels to the logical dimensions they store.
	ordering []int
	// packBoundaries delimit the packs of levels: pack i contains the levels
	// [packBoundaries[i], packBoundaries[i+1]).
	packBoundaries []int
}

// Option of a tensor format.
type Option func(*Format)

// WithOrdering sets the logical dimension stored by every level.
func WithOrdering(ordering ...int) Option {
	return func(f *Format) {
		f.ordering = ordering
	}
}

// WithPackBoundaries groups levels into packs sharing their index arrays.
// Boundaries start with 0 and end with the number of levels.
func WithPackBoundaries(boundaries ...int) Option {
	return func(f *Format) {
		f.packBoundaries = boundaries
	}
}

// New returns a tensor format given the format of its levels.
// By default, level i stores dimension i and every level is in its own pack.
func New(levels []ModeFormat, opts ...Option) (*Format, error) {
	f := &Format{levels: levels}
	for _, opt := range opts {
		opt(f)
	}
	if f.ordering == nil {
		f.ordering = make([]int, len(levels))
		for i := range f.ordering {
			f.ordering[i] = i
		}
	}
	if f.packBoundaries == nil {
		f.packBoundaries = make([]int, len(levels)+1)
		for i := range f.packBoundaries {
			f.packBoundaries[i] = i
		}
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// MustNew returns a tensor format and panics if the format is invalid.
func MustNew(levels []ModeFormat, opts ...Option) *Format {
	f, err := New(levels, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Format) validate() error {
	var errs fmterr.Errors
	if len(f.ordering) != len(f.levels) {
		errs.Appendf("format has %d levels but an ordering of %d dimensions", len(f.levels), len(f.ordering))
	} else {
		sorted := slices.Clone(f.ordering)
		slices.Sort(sorted)
		for i, dim := range sorted {
			if dim != i {
				errs.Appendf("ordering %v is not a permutation of the dimensions", f.ordering)
				break
			}
		}
	}
	b := f.packBoundaries
	switch {
	case len(f.levels) > 0 && len(b) < 2:
		errs.Appendf("invalid pack boundaries %v", b)
	case len(b) > 0 && (b[0] != 0 || b[len(b)-1] != len(f.levels)):
		errs.Appendf("pack boundaries %v do not cover the %d levels", b, len(f.levels))
	default:
		for i := 1; i < len(b); i++ {
			if b[i] <= b[i-1] {
				errs.Appendf("pack boundaries %v are not increasing", b)
				break
			}
		}
	}
	for i, level := range f.levels {
		switch level.Name() {
		case "offset", "block":
			if i < 2 {
				errs.Appendf("%s level %d requires two parent levels", level.Name(), i+1)
			}
		}
	}
	return errs.ToError()
}

// packEnds returns the index of the level after the last level of every pack.
func (f *Format) packEnds() []int {
	return f.packBoundaries[1:]
}

// Order returns the number of dimensions of a tensor in the format.
func (f *Format) Order() int {
	return len(f.levels)
}

// Levels returns the format of every level.
func (f *Format) Levels() []ModeFormat {
	return f.levels
}

// Ordering returns the logical dimension stored by every level.
func (f *Format) Ordering() []int {
	return f.ordering
}

// PackBoundaries returns the boundaries of the packs of levels.
func (f *Format) PackBoundaries() []int {
	return f.packBoundaries
}

// IsDense returns true if all the levels of the format are dense.
func (f *Format) IsDense() bool {
	for _, level := range f.levels {
		if level.Name() != "dense" {
			return false
		}
	}
	return true
}

func (f *Format) String() string {
	s := "(" + gxfmt.Join(f.levels, ",") + ")"
	if !slices.IsSorted(f.ordering) {
		s += fmt.Sprintf("%v", f.ordering)
	}
	return s
}
