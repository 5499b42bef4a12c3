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

package interp_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/api/storage"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/gx-org/tensorlower/build/lower"
	"github.com/gx-org/tensorlower/build/notation"
	"github.com/gx-org/tensorlower/interp"
)

func newVector(t *testing.T, f *format.Format, dense ...float64) *storage.Storage {
	st, err := storage.FromDense(f, []int{len(dense)}, dense)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func newMatrix(t *testing.T, f *format.Format, rows, cols int, dense ...float64) *storage.Storage {
	st, err := storage.FromDense(f, []int{rows, cols}, dense)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func TestStatements(t *testing.T) {
	in := ir.NewTensorVar("in", dtype.Float64)
	out := ir.NewTensorVar("out", dtype.Float64)
	i := ir.NewIndexVar("i")
	n := ir.NewIndexVar("n")
	arr := ir.NewArrayVar("arr", ir.IndexType)
	inVals, outVals := format.Values(in), format.Values(out)
	tests := []struct {
		body []ir.Stmt
		want []float64
	}{
		{
			body: []ir.Stmt{
				ir.Alloc(outVals, ir.Int(2)),
				ir.Loop(i, ir.Int(0), ir.Int(4),
					&ir.Store{Array: outVals, Index: ir.Rem(i, ir.Int(2)), Value: ir.LoadAt(inVals, i), Accumulate: true},
				),
			},
			want: []float64{4, 6},
		},
		{
			body: []ir.Stmt{
				ir.Alloc(outVals, ir.Int(1)),
				ir.Decl(arr, nil),
				ir.Alloc(arr, ir.Int(2)),
				ir.StoreAt(arr, ir.Int(1), ir.Int(5)),
				ir.Realloc(arr, ir.Int(4)),
				ir.StoreAt(outVals, ir.Int(0), ir.Add(ir.LoadAt(arr, ir.Int(1)), ir.LoadAt(arr, ir.Int(3)))),
				&ir.Free{Array: arr},
			},
			want: []float64{5},
		},
		{
			body: []ir.Stmt{
				ir.Alloc(outVals, ir.Int(1)),
				ir.Decl(n, ir.Int(0)),
				&ir.While{Cond: ir.Lt(n, ir.Int(5)), Body: ir.NewBlock(ir.AddTo(n, ir.Int(1)))},
				&ir.Case{
					Clauses: []ir.Clause{
						{Cond: ir.Eq(n, ir.Int(4)), Body: ir.StoreAt(outVals, ir.Int(0), ir.Float(dtype.Float64, 1))},
						{Cond: ir.Bool(false), Body: ir.StoreAt(outVals, ir.Int(0), ir.Float(dtype.Float64, 2))},
					},
					AlwaysMatch: true,
				},
			},
			want: []float64{2},
		},
		{
			body: []ir.Stmt{
				ir.Alloc(outVals, ir.Int(2)),
				ir.Loop(i, ir.Int(0), ir.Int(2),
					ir.IfElse(ir.And(ir.Gt(i, ir.Int(0)), ir.Not(ir.Eq(ir.Div(ir.Int(4), i), ir.Int(0)))),
						ir.StoreAt(outVals, i, ir.Sqrt(ir.LoadAt(inVals, ir.Int(3)))),
						ir.StoreAt(outVals, i, ir.Neg(ir.LoadAt(inVals, i))),
					),
				),
			},
			want: []float64{-1, 2},
		},
	}
	for testi, test := range tests {
		fn := &ir.Function{
			Name:    "f",
			Inputs:  []*ir.Var{in},
			Outputs: []*ir.Var{out},
			Body:    ir.NewBlock(test.body...),
		}
		result := storage.New([]int{len(test.want)}, format.DenseVector())
		args := interp.Args{
			"in":  newVector(t, format.DenseVector(), 1, 2, 3, 4),
			"out": result,
		}
		if err := interp.Run(fn, args); err != nil {
			t.Errorf("test %d: cannot run:\n%s\nerror: %+v", testi, fn, err)
			continue
		}
		if diff := cmp.Diff(test.want, result.Vals); diff != "" {
			t.Errorf("test %d: unexpected values (-want +got):\n%s", testi, diff)
		}
	}
}

func TestRunErrors(t *testing.T) {
	in := ir.NewTensorVar("in", dtype.Float64)
	out := ir.NewTensorVar("out", dtype.Float64)
	outVals := format.Values(out)
	i := ir.NewIndexVar("i")
	tests := []struct {
		body []ir.Stmt
		args interp.Args
		err  string
		user bool
	}{
		{
			body: []ir.Stmt{ir.Alloc(outVals, ir.Int(1)), ir.StoreAt(outVals, ir.Int(0), ir.LoadAt(format.Values(in), ir.Int(7)))},
			err:  "index 7 out of bounds of in_vals of length 4",
		},
		{
			body: []ir.Stmt{ir.Decl(i, ir.Add(i, ir.Int(1)))},
			err:  "undefined: i",
		},
		{
			body: []ir.Stmt{ir.Decl(i, ir.Int(0)), ir.Decl(i, ir.Div(ir.Int(1), i))},
			err:  "integer division by zero",
		},
		{
			body: []ir.Stmt{ir.Alloc(outVals, ir.Int(-1))},
			err:  "negative size",
		},
		{
			body: nil,
			args: interp.Args{"out": storage.New([]int{1}, format.DenseVector())},
			err:  "f: no storage bound for tensor in",
			user: true,
		},
		{
			body: nil,
			args: interp.Args{"in": (*storage.Storage)(nil), "out": storage.New([]int{1}, format.DenseVector())},
			err:  "f: no storage bound for tensor in",
			user: true,
		},
		{
			body: nil,
			args: interp.Args{"in": []float64{1}, "out": storage.New([]int{1}, format.DenseVector())},
			err:  "f: tensor in requires a storage but got []float64",
			user: true,
		},
	}
	for testi, test := range tests {
		fn := &ir.Function{
			Name:    "f",
			Inputs:  []*ir.Var{in},
			Outputs: []*ir.Var{out},
			Body:    ir.NewBlock(test.body...),
		}
		args := test.args
		if args == nil {
			args = interp.Args{
				"in":  newVector(t, format.DenseVector(), 1, 2, 3, 4),
				"out": storage.New([]int{1}, format.DenseVector()),
			}
		}
		err := interp.Run(fn, args)
		if err == nil {
			t.Errorf("test %d: expected an error", testi)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("test %d: error %q does not contain %q", testi, err.Error(), test.err)
		}
		if fmterr.IsUser(err) != test.user {
			t.Errorf("test %d: got user error %v but want %v", testi, fmterr.IsUser(err), test.user)
		}
	}
}

func TestLoweredPrograms(t *testing.T) {
	i, j := notation.NewIndexVar("i"), notation.NewIndexVar("j")
	matrix := func(name string, f *format.Format) *notation.TensorVar {
		return notation.NewTensor(name, []int{3, 3}, f)
	}
	vector := func(name string, f *format.Format) *notation.TensorVar {
		return notation.NewTensor(name, []int{3}, f)
	}
	b := []float64{
		1, 0, 2,
		0, 0, 0,
		0, 3, 0,
	}
	c := []float64{
		0, 4, 5,
		0, 0, 0,
		6, 0, 0,
	}
	tests := []struct {
		stmt     notation.Stmt
		operands func(t *testing.T) interp.Args
		result   *format.Format
		dims     []int
		want     []float64
	}{
		{
			stmt: notation.Assign(
				matrix("A", format.CSR()).At(i, j),
				notation.Add(matrix("B", format.CSR()).At(i, j), matrix("C", format.CSR()).At(i, j)),
			),
			operands: func(t *testing.T) interp.Args {
				return interp.Args{
					"B": newMatrix(t, format.CSR(), 3, 3, b...),
					"C": newMatrix(t, format.CSR(), 3, 3, c...),
				}
			},
			result: format.CSR(),
			dims:   []int{3, 3},
			want: []float64{
				1, 4, 7,
				0, 0, 0,
				6, 3, 0,
			},
		},
		{
			stmt: notation.Assign(
				vector("y", format.DenseVector()).At(i),
				notation.Mul(matrix("B", format.CSR()).At(i, j), vector("x", format.DenseVector()).At(j)),
			),
			operands: func(t *testing.T) interp.Args {
				return interp.Args{
					"B": newMatrix(t, format.CSR(), 3, 3, b...),
					"x": newVector(t, format.DenseVector(), 1, 2, 3),
				}
			},
			result: format.DenseVector(),
			dims:   []int{3},
			want:   []float64{7, 0, 6},
		},
		{
			stmt: notation.Assign(
				notation.NewScalar("s").At(),
				notation.Sum(i, notation.Mul(vector("u", format.DenseVector()).At(i), vector("v", format.DenseVector()).At(i))),
			),
			operands: func(t *testing.T) interp.Args {
				return interp.Args{
					"u": newVector(t, format.DenseVector(), 1, 2, 3),
					"v": newVector(t, format.DenseVector(), 4, 5, 6),
				}
			},
			result: format.Scalar(),
			dims:   []int{},
			want:   []float64{32},
		},
	}
	for testi, test := range tests {
		prog, err := lower.Lower(test.stmt, lower.WithAllocSize(2))
		if err != nil {
			t.Errorf("test %d: cannot lower %s: %+v", testi, test.stmt, err)
			continue
		}
		args := test.operands(t)
		result := storage.New(test.dims, test.result)
		args[prog.Result.Name] = result
		if err := interp.Run(prog.Func, args); err != nil {
			t.Errorf("test %d: cannot run:\n%s\nerror: %+v", testi, prog, err)
			continue
		}
		got, err := result.ToDense(test.result)
		if err != nil {
			t.Errorf("test %d: cannot unpack the result: %v", testi, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected result of:\n%s\ndiff (-want +got):\n%s", testi, prog, diff)
		}
	}
}

func TestAssembleThenCompute(t *testing.T) {
	i, j := notation.NewIndexVar("i"), notation.NewIndexVar("j")
	a := notation.NewTensor("A", []int{2, 3}, format.CSR())
	b := notation.NewTensor("B", []int{2, 3}, format.CSR())
	c := notation.NewTensor("C", []int{2, 3}, format.CSR())
	stmt := notation.Assign(a.At(i, j), notation.Mul(b.At(i, j), c.At(i, j)))
	assemble, err := lower.Lower(stmt, lower.WithAssemble(), lower.WithAllocSize(4))
	if err != nil {
		t.Fatal(err)
	}
	compute, err := lower.Lower(stmt, lower.WithCompute())
	if err != nil {
		t.Fatal(err)
	}
	args := interp.Args{
		"A": storage.New([]int{2, 3}, format.CSR()),
		"B": newMatrix(t, format.CSR(), 2, 3, 1, 2, 0, 0, 3, 4),
		"C": newMatrix(t, format.CSR(), 2, 3, 5, 0, 6, 0, 7, 8),
	}
	for _, prog := range []*lower.Program{assemble, compute} {
		if err := interp.Run(prog.Func, args); err != nil {
			t.Fatalf("cannot run:\n%s\nerror: %+v", prog, err)
		}
	}
	result := args["A"].(*storage.Storage)
	if diff := cmp.Diff([]int{0, 1, 3}, result.Index[1][0]); diff != "" {
		t.Errorf("unexpected positions (-want +got):\n%s", diff)
	}
	got, err := result.ToDense(format.CSR())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{5, 0, 0, 0, 21, 32}, got); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestParallelLoops(t *testing.T) {
	i, j := notation.NewIndexVar("i"), notation.NewIndexVar("j")
	x := notation.NewTensor("x", []int{3}, format.DenseVector())
	y := notation.NewTensor("y", []int{3}, format.DenseVector())
	dense := []float64{
		1, 0, 2,
		0, 0, 0,
		0, 3, 0,
	}
	tests := []struct {
		matrix *format.Format
		pragma string
	}{
		{matrix: format.DenseMatrix(), pragma: "#pragma parallel static"},
		{matrix: format.CSR(), pragma: "#pragma parallel dynamic"},
	}
	for testi, test := range tests {
		a := notation.NewTensor("A", []int{3, 3}, test.matrix)
		stmt := notation.Assign(y.At(i), notation.Sum(j, notation.Mul(a.At(i, j), x.At(j))))
		prog, err := lower.Lower(stmt, lower.WithParallelize())
		if err != nil {
			t.Errorf("test %d: cannot lower %s: %+v", testi, stmt, err)
			continue
		}
		if !strings.Contains(prog.String(), test.pragma) {
			t.Errorf("test %d: %q not found in:\n%s", testi, test.pragma, prog)
		}
		result := storage.New([]int{3}, format.DenseVector())
		args := interp.Args{
			"A": newMatrix(t, test.matrix, 3, 3, dense...),
			"x": newVector(t, format.DenseVector(), 1, 2, 3),
			"y": result,
		}
		if err := interp.Run(prog.Func, args); err != nil {
			t.Errorf("test %d: cannot run:\n%s\nerror: %+v", testi, prog, err)
			continue
		}
		if diff := cmp.Diff([]float64{7, 0, 6}, result.Vals); diff != "" {
			t.Errorf("test %d: unexpected values (-want +got):\n%s", testi, diff)
		}
	}
}
