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

import "github.com/gx-org/tensorlower/build/ir"

type offset struct {
	base
}

// Offset levels store one coordinate for each parent position, computed by
// adding an offset to the coordinate of the parent. The offset is selected
// by the coordinate of the grandparent. Diagonal formats use offset levels.
// Coordinates outside of the dimension are not present.
var Offset ModeFormat = &offset{base: base{name: "offset", props: defaults["offset"]}}

func (f *offset) Copy(props ...Property) ModeFormat {
	return &offset{base: f.copyBase(props)}
}

func (*offset) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{indices(tensor, level, 0, "offset")}
}

func (*offset) PosIterBounds(parentPos ir.Expr, m *Mode) *Function {
	return newFunction(nil, parentPos, ir.Add(parentPos, ir.Int(1)))
}

func (*offset) PosIterAccess(pos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	n := len(coords)
	coord := ir.Add(coords[n-1], ir.LoadAt(m.Pack().Array(0), coords[n-2]))
	inRange := ir.And(ir.Gte(coord, ir.Int(0)), ir.Lt(coord, m.Dimension()))
	return newFunction(nil, coord, inRange)
}

func (*offset) SizeNew(prevSize ir.Expr, m *Mode) ir.Expr {
	return prevSize
}

func (*offset) YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return newFunction(nil, parentPos)
}
