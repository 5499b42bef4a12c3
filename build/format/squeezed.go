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

type squeezed struct {
	base
}

// Squeezed levels only store the slices of a dimension which are not empty.
// A permutation array maps the slices stored by the level to coordinates.
var Squeezed ModeFormat = &squeezed{base: base{name: "squeezed", props: defaults["squeezed"]}}

func (f *squeezed) Copy(props ...Property) ModeFormat {
	return &squeezed{base: f.copyBase(props)}
}

func (*squeezed) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{
		indices(tensor, level, 0, "perm"),
		indices(tensor, level, 1, "nzslice"),
		Dimension(tensor, mode),
	}
}

func permArray(m *Mode) ir.Expr {
	return m.Pack().Array(0)
}

// numSlices is the array storing the number of slices of the level.
func numSlices(m *Mode) ir.Expr {
	return m.Pack().Array(1)
}

func sliceDimension(m *Mode) ir.Expr {
	return m.Pack().Array(2)
}

func (*squeezed) AttrQueries(coords []string) []*attrquery.Select {
	return []*attrquery.Select{attrquery.NewSelect(
		coords[len(coords)-1:],
		&attrquery.Literal{Val: 1},
		"nonempty",
	)}
}

func (*squeezed) SizeNew(prevSize ir.Expr, m *Mode) ir.Expr {
	return ir.Mul(prevSize, ir.LoadAt(numSlices(m), ir.Int(0)))
}

func (*squeezed) InitCoords(prevSize ir.Expr, queries Queries, m *Mode) ir.Stmt {
	perm := permArray(m)
	n := numSlices(m)
	i := ir.NewIndexVar("i" + m.Name())
	nonempty := queries["nonempty"].Get("nonempty", []ir.Expr{i})
	return ir.NewBlock(
		ir.Alloc(perm, sliceDimension(m)),
		ir.Alloc(n, ir.Int(1)),
		ir.StoreAt(n, ir.Int(0), ir.Int(0)),
		ir.Loop(i, ir.Int(0), sliceDimension(m),
			ir.If(ir.Eq(nonempty, ir.Int(1)),
				ir.StoreAt(perm, ir.LoadAt(n, ir.Int(0)), i),
				&ir.Store{Array: n, Index: ir.Int(0), Value: ir.Int(1), Accumulate: true},
			),
		),
	)
}

func (*squeezed) InitYieldPos(prevSize ir.Expr, m *Mode) ir.Stmt {
	rperm := m.Var(Rperm)
	local := m.Var(LocalPermSize)
	p := ir.NewIndexVar("p" + m.Name())
	return ir.NewBlock(
		ir.Decl(rperm, nil),
		ir.Alloc(rperm, sliceDimension(m)),
		ir.Decl(local, ir.LoadAt(numSlices(m), ir.Int(0))),
		ir.Loop(p, ir.Int(0), local, ir.StoreAt(rperm, ir.LoadAt(permArray(m), p), p)),
	)
}

func (*squeezed) YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	pos := ir.Add(ir.Mul(parentPos, m.Var(LocalPermSize)), ir.LoadAt(m.Var(Rperm), last(coords)))
	return newFunction(nil, pos)
}

func (*squeezed) FinalizeLevel(m *Mode) ir.Stmt {
	return &ir.Free{Array: m.Var(Rperm)}
}
