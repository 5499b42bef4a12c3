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

// maxLiteralWidth is the largest dimension size inlined as a literal in
// programs.
const maxLiteralWidth = 16

type dense struct {
	base
}

// Dense levels store every coordinate of a dimension.
// Positions are computed from coordinates.
var Dense ModeFormat = &dense{base: base{name: "dense", props: defaults["dense"]}}

func (f *dense) Copy(props ...Property) ModeFormat {
	return &dense{base: f.copyBase(props)}
}

func (f *dense) Width(m *Mode) ir.Expr {
	if m.Size != UnknownSize && m.Size <= maxLiteralWidth {
		return ir.Int(m.Size)
	}
	return m.Dimension()
}

func (f *dense) CoordIterBounds(coords []ir.Expr, m *Mode) *Function {
	return newFunction(nil, ir.Int(0), f.Width(m))
}

func (f *dense) CoordIterAccess(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return f.Locate(parentPos, coords, m)
}

func (f *dense) Locate(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	pos := ir.Add(ir.Mul(parentPos, f.Width(m)), last(coords))
	return newFunction(nil, pos, ir.Bool(true))
}

func (f *dense) Size(szPrev ir.Expr, m *Mode) ir.Expr {
	return ir.Mul(szPrev, f.Width(m))
}

func (f *dense) SizeNew(prevSize ir.Expr, m *Mode) ir.Expr {
	return f.Size(prevSize, m)
}

func (f *dense) YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return f.Locate(parentPos, coords, m)
}
