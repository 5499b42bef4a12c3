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

type singleton struct {
	base
}

// Singleton levels store exactly one coordinate for each parent position.
var Singleton ModeFormat = &singleton{base: base{name: "singleton", props: defaults["singleton"]}}

func (f *singleton) Copy(props ...Property) ModeFormat {
	return &singleton{base: f.copyBase(props)}
}

func (*singleton) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{nil, indices(tensor, level, 1, "crd")}
}

func (*singleton) PosIterBounds(parentPos ir.Expr, m *Mode) *Function {
	return newFunction(nil, parentPos, ir.Add(parentPos, ir.Int(1)))
}

func (*singleton) PosIterAccess(pos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return newFunction(nil, ir.LoadAt(crdArray(m), crdIndex(pos, m)), ir.Bool(true))
}

func (*singleton) AppendCoord(pos, coord ir.Expr, m *Mode) ir.Stmt {
	return appendCoord(pos, coord, m)
}

func (*singleton) AppendInitLevel(szPrev, sz ir.Expr, m *Mode) ir.Stmt {
	return initCoords(sz, m)
}

func (*singleton) Size(szPrev ir.Expr, m *Mode) ir.Expr {
	return szPrev
}
