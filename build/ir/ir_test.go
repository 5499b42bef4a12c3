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

package ir_test

import (
	"strings"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/build/ir"
)

func TestFolding(t *testing.T) {
	x := ir.NewIndexVar("x")
	tests := []struct {
		expr ir.Expr
		want string
	}{
		{expr: ir.Add(ir.Int(2), ir.Int(3)), want: "5"},
		{expr: ir.Add(x, ir.Int(0)), want: "x"},
		{expr: ir.Add(ir.Sub(x, ir.Int(1)), ir.Int(1)), want: "x"},
		{expr: ir.Mul(ir.Int(1), x), want: "x"},
		{expr: ir.Mul(x, ir.Int(0)), want: "0"},
		{expr: ir.Mul(ir.Add(x, ir.Int(1)), ir.Int(2)), want: "(x + 1) * 2"},
		{expr: ir.Sub(x, ir.Sub(x, ir.Int(1))), want: "x - (x - 1)"},
		{expr: ir.Min(x, ir.Int(3), ir.Int(2)), want: "min(min(x, 3), 2)"},
		{expr: ir.Min(ir.Int(3), ir.Int(2)), want: "2"},
		{expr: ir.And(ir.Bool(true), ir.Lt(x, ir.Int(4))), want: "x < 4"},
		{expr: ir.And(), want: "true"},
		{expr: ir.Or(ir.Eq(x, ir.Int(1)), ir.Eq(x, ir.Int(2))), want: "x == 1 || x == 2"},
		{expr: ir.Neg(ir.Add(x, ir.Int(1))), want: "-(x + 1)"},
		{expr: ir.Float(dtype.Float64, 2), want: "2.0"},
		{expr: ir.Sqrt(ir.Float(dtype.Float64, 0.5)), want: "sqrt(0.5)"},
	}
	for i, test := range tests {
		if got := test.expr.String(); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}

func TestPrintFunction(t *testing.T) {
	a := ir.NewTensorVar("a", dtype.Float64)
	b := ir.NewTensorVar("b", dtype.Float64)
	aVals := &ir.GetProperty{Tensor: a, Prop: ir.Values, Name: "a_vals", Typ: dtype.Float64}
	bVals := &ir.GetProperty{Tensor: b, Prop: ir.Values, Name: "b_vals", Typ: dtype.Float64}
	i := ir.NewIndexVar("i")
	loop := ir.Loop(i, ir.Int(0), ir.Int(4),
		ir.If(ir.Gt(ir.LoadAt(bVals, i), ir.Float(dtype.Float64, 0)),
			&ir.Store{Array: aVals, Index: ir.Int(0), Value: ir.LoadAt(bVals, i), Accumulate: true},
		),
	)
	loop.Kind = ir.Static
	fn := &ir.Function{
		Name:    "compute",
		Inputs:  []*ir.Var{b},
		Outputs: []*ir.Var{a},
		Body: ir.NewBlock(
			ir.StoreAt(aVals, ir.Int(0), ir.Float(dtype.Float64, 0)),
			loop,
		),
	}
	want := strings.Join([]string{
		"func compute(b) -> (a) {",
		"  a_vals[0] = 0.0;",
		"  #pragma parallel static",
		"  for (int32 i = 0; i < 4; i++) {",
		"    if (b_vals[i] > 0.0) {",
		"      a_vals[0] += b_vals[i];",
		"    }",
		"  }",
		"}",
		"",
	}, "\n")
	if got := fn.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintCase(t *testing.T) {
	k := ir.NewIndexVar("k")
	kB := ir.NewIndexVar("kB")
	kC := ir.NewIndexVar("kC")
	x := ir.NewVar("x", dtype.Float64)
	set := func(v float64) ir.Stmt { return ir.Set(x, ir.Float(dtype.Float64, v)) }
	tests := []struct {
		stmt *ir.Case
		want string
	}{
		{
			stmt: &ir.Case{Clauses: []ir.Clause{
				{Cond: ir.And(ir.Eq(kB, k), ir.Eq(kC, k)), Body: set(1)},
				{Cond: ir.Eq(kB, k), Body: set(2)},
				{Cond: ir.Eq(kC, k), Body: set(3)},
			}},
			want: "if (kB == k && kC == k) {\n  x = 1.0;\n}\n" +
				"else if (kB == k) {\n  x = 2.0;\n}\n" +
				"else if (kC == k) {\n  x = 3.0;\n}\n",
		},
		{
			stmt: &ir.Case{AlwaysMatch: true, Clauses: []ir.Clause{
				{Cond: ir.Eq(kC, k), Body: set(1)},
				{Cond: ir.Bool(true), Body: set(2)},
			}},
			want: "if (kC == k) {\n  x = 1.0;\n}\n" +
				"else {\n  x = 2.0;\n}\n",
		},
	}
	for i, test := range tests {
		if got := test.stmt.String(); got != test.want {
			t.Errorf("test %d: got:\n%s\nwant:\n%s", i, got, test.want)
		}
	}
}

func TestEqual(t *testing.T) {
	build := func(name string) ir.Stmt {
		v := ir.NewIndexVar(name)
		return ir.NewBlock(
			ir.Decl(v, ir.Int(0)),
			&ir.While{Cond: ir.Lt(v, ir.Int(3)), Body: ir.NewBlock(ir.Set(v, ir.Add(v, ir.Int(1))))},
		)
	}
	if !ir.Equal(build("p"), build("p")) {
		t.Errorf("structurally identical statements are not equal")
	}
	if ir.Equal(build("p"), build("q")) {
		t.Errorf("statements using different variables are equal")
	}
}

func TestInspect(t *testing.T) {
	i := ir.NewIndexVar("i")
	body := ir.NewBlock(
		ir.Loop(i, ir.Int(0), ir.Int(3), ir.NewBlock(ir.Loop(ir.NewIndexVar("j"), ir.Int(0), i))),
	)
	loops := 0
	ir.Inspect(body, func(n ir.Node) bool {
		if _, ok := n.(*ir.For); ok {
			loops++
		}
		return true
	})
	if loops != 2 {
		t.Errorf("got %d loops but want 2", loops)
	}
}
