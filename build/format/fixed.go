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

type fixed struct {
	base
}

// Fixed levels store the same number of coordinates for every parent position.
// Segments with fewer coordinates are padded with duplicate coordinates.
var Fixed ModeFormat = &fixed{base: base{name: "fixed", props: defaults["fixed"]}}

func (f *fixed) Copy(props ...Property) ModeFormat {
	return &fixed{base: f.copyBase(props)}
}

func (*fixed) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{
		indices(tensor, level, 0, "size"),
		indices(tensor, level, 1, "crd"),
	}
}

// Width is the number of coordinates stored for each parent position.
func (*fixed) Width(m *Mode) ir.Expr {
	return ir.LoadAt(m.Pack().Array(0), ir.Int(0))
}

func (f *fixed) PosIterBounds(parentPos ir.Expr, m *Mode) *Function {
	width := f.Width(m)
	start := ir.Mul(parentPos, width)
	return newFunction(nil, start, ir.Add(start, width))
}

func (*fixed) PosIterAccess(pos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return newFunction(nil, ir.LoadAt(crdArray(m), crdIndex(pos, m)), ir.Bool(true))
}

func (f *fixed) Size(szPrev ir.Expr, m *Mode) ir.Expr {
	return ir.Mul(szPrev, f.Width(m))
}
