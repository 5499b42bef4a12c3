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

import (
	"fmt"

	"github.com/gx-org/tensorlower/build/ir"
)

type block struct {
	base
	size int
}

// Block returns a dense level storing the coordinates of a block of a given
// size. The block is selected by the coordinate of the grandparent level.
func Block(size int) ModeFormat {
	return &block{base: base{name: "block", props: defaults["block"]}, size: size}
}

func (f *block) Copy(props ...Property) ModeFormat {
	return &block{base: f.copyBase(props), size: f.size}
}

func (f *block) String() string {
	return fmt.Sprintf("%s(%d)", f.base.String(), f.size)
}

func (*block) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{Dimension(tensor, mode)}
}

func (f *block) Width(m *Mode) ir.Expr {
	return ir.Int(f.size)
}

// CoordIterBounds iterates over the coordinates of a block. The last block
// is clipped to the dimension when the dimension is not a multiple of the
// block size.
func (f *block) CoordIterBounds(coords []ir.Expr, m *Mode) *Function {
	start := ir.Mul(ir.Int(f.size), coords[len(coords)-2])
	end := ir.Add(start, ir.Int(f.size))
	if m.Size == UnknownSize || m.Size%f.size != 0 {
		var dim ir.Expr = m.Dimension()
		if m.Size != UnknownSize {
			dim = ir.Int(m.Size)
		}
		end = ir.Min(end, dim)
	}
	return newFunction(nil, start, end)
}

func (f *block) CoordIterAccess(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return f.Locate(parentPos, coords, m)
}

func (f *block) Locate(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	size := ir.Int(f.size)
	inBlock := ir.Sub(last(coords), ir.Mul(size, coords[len(coords)-3]))
	return newFunction(nil, ir.Add(ir.Mul(parentPos, size), inBlock), ir.Bool(true))
}

func (f *block) Size(szPrev ir.Expr, m *Mode) ir.Expr {
	return ir.Mul(szPrev, ir.Int(f.size))
}

func (f *block) SizeNew(prevSize ir.Expr, m *Mode) ir.Expr {
	return f.Size(prevSize, m)
}

func (f *block) YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return f.Locate(parentPos, coords, m)
}
