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
	"github.com/gx-org/tensorlower/build/attrquery"
	"github.com/gx-org/tensorlower/build/ir"
)

type sliced struct {
	base
}

// Sliced levels are dense levels truncated after the largest coordinate
// present in the tensor.
var Sliced ModeFormat = &sliced{base: base{name: "sliced", props: defaults["sliced"]}}

func (f *sliced) Copy(props ...Property) ModeFormat {
	return &sliced{base: f.copyBase(props)}
}

func (*sliced) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{indices(tensor, level, 0, "ub")}
}

func (*sliced) AttrQueries(coords []string) []*attrquery.Select {
	return []*attrquery.Select{attrquery.NewSelect(
		nil,
		&attrquery.Max{Coord: coords[len(coords)-1]},
		"max_coord",
	)}
}

// Width is the upper bound of the coordinates stored in the level.
func (*sliced) Width(m *Mode) ir.Expr {
	return ir.LoadAt(m.Pack().Array(0), ir.Int(0))
}

func (f *sliced) CoordIterBounds(coords []ir.Expr, m *Mode) *Function {
	return newFunction(nil, ir.Int(0), f.Width(m))
}

func (f *sliced) CoordIterAccess(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return f.Locate(parentPos, coords, m)
}

func (f *sliced) Locate(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	width := f.Width(m)
	coord := last(coords)
	return newFunction(nil, ir.Add(ir.Mul(parentPos, width), coord), ir.Lt(coord, width))
}

func (f *sliced) SizeNew(prevSize ir.Expr, m *Mode) ir.Expr {
	return ir.Mul(prevSize, f.Width(m))
}

func (*sliced) InitCoords(prevSize ir.Expr, queries Queries, m *Mode) ir.Stmt {
	ub := m.Pack().Array(0)
	maxCoord := queries["max_coord"].Get("max_coord", nil)
	return ir.NewBlock(
		ir.Alloc(ub, ir.Int(1)),
		ir.StoreAt(ub, ir.Int(0), ir.Add(maxCoord, ir.Int(1))),
	)
}

func (f *sliced) YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return f.Locate(parentPos, coords, m)
}
