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

package notation_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/notation"
)

func vectors(names ...string) []*notation.TensorVar {
	ts := make([]*notation.TensorVar, len(names))
	for i, name := range names {
		ts[i] = notation.NewTensor(name, []int{4}, format.SparseVector())
	}
	return ts
}

func TestString(t *testing.T) {
	i, j, k := notation.NewIndexVar("i"), notation.NewIndexVar("j"), notation.NewIndexVar("k")
	a := notation.NewTensor("A", []int{3, 4}, format.CSR())
	b := notation.NewTensor("B", []int{3, 4}, format.CSR())
	c := notation.NewTensor("C", []int{3, 4}, format.DenseMatrix())
	d := notation.NewScalar("d")
	tests := []struct {
		node notation.Node
		want string
	}{
		{
			node: notation.Add(b.At(i, j), notation.Mul(c.At(i, j), d.At())),
			want: "B(i,j) + C(i,j) * d",
		},
		{
			node: notation.Mul(notation.Add(b.At(i, j), c.At(i, j)), d.At()),
			want: "(B(i,j) + C(i,j)) * d",
		},
		{
			node: notation.Sub(d.At(), notation.Sub(d.At(), notation.Lit(2))),
			want: "d - (d - 2)",
		},
		{
			node: &notation.Neg{X: notation.Add(d.At(), notation.Lit(0.5))},
			want: "-(d + 0.5)",
		},
		{
			node: notation.Max(b.At(i, j), notation.Lit(0)),
			want: "max(B(i,j), 0)",
		},
		{
			node: notation.Sum(k, notation.Mul(b.At(i, k), c.At(k, j))),
			want: "sum(k, B(i,k) * C(k,j))",
		},
		{
			node: notation.Foralls([]*notation.IndexVar{i, j}, notation.Assign(a.At(i, j), b.At(i, j))),
			want: "forall(i, forall(j, A(i,j) = B(i,j)))",
		},
		{
			node: &notation.Assignment{LHS: a.At(i, j), RHS: c.At(i, j), Accumulate: true},
			want: "A(i,j) += C(i,j)",
		},
		{
			node: &notation.CallIntrinsic{Name: "pow", Args: []notation.Expr{c.At(i, j), notation.Lit(2)}},
			want: "pow(C(i,j), 2)",
		},
	}
	for i, test := range tests {
		if got := test.node.String(); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}

func TestEqual(t *testing.T) {
	i, j := notation.NewIndexVar("i"), notation.NewIndexVar("j")
	ts := vectors("b", "c")
	b, c := ts[0], ts[1]
	tests := []struct {
		x, y notation.Node
		want bool
	}{
		{x: notation.Add(b.At(i), c.At(i)), y: notation.Add(b.At(i), c.At(i)), want: true},
		{x: notation.Add(b.At(i), c.At(i)), y: notation.Add(c.At(i), b.At(i))},
		{x: notation.Add(b.At(i), c.At(i)), y: notation.Sub(b.At(i), c.At(i))},
		{x: b.At(i), y: b.At(j)},
		{x: b.At(i), y: b.At(notation.NewIndexVar("i"))},
		{x: notation.Lit(1), y: notation.Lit(1), want: true},
		{x: notation.Sum(i, b.At(i)), y: notation.Sum(i, b.At(i)), want: true},
	}
	for i, test := range tests {
		if got := notation.Equal(test.x, test.y); got != test.want {
			t.Errorf("test %d: Equal(%s, %s) = %v but want %v", i, test.x, test.y, got, test.want)
		}
	}
}

func TestReplace(t *testing.T) {
	i := notation.NewIndexVar("i")
	ts := vectors("b", "c", "d")
	b, c, d := ts[0], ts[1], ts[2]
	tmp := notation.NewScalar("t")
	x := notation.Add(notation.Mul(b.At(i), c.At(i)), d.At(i))
	got := notation.Replace(x, notation.Substitution{
		From: notation.Mul(b.At(i), c.At(i)),
		To:   tmp.At(),
	})
	if want := "t + d(i)"; got.String() != want {
		t.Errorf("got %s but want %s", got, want)
	}
	if x.String() != "b(i) * c(i) + d(i)" {
		t.Errorf("Replace modified its input: %s", x)
	}
	unchanged := notation.Replace(x, notation.Substitution{From: c.At(notation.NewIndexVar("j")), To: tmp.At()})
	if unchanged != notation.Expr(x) {
		t.Errorf("Replace without any match returned a new node: %s", unchanged)
	}
}

func TestIndexVars(t *testing.T) {
	i, j, k := notation.NewIndexVar("i"), notation.NewIndexVar("j"), notation.NewIndexVar("k")
	a := notation.NewTensor("A", []int{3, 4}, format.DenseMatrix())
	b := notation.NewTensor("B", []int{3, 5}, format.CSR())
	c := notation.NewTensor("C", []int{5, 4}, format.CSR())
	assign := notation.Assign(a.At(i, j), notation.Sum(k, notation.Mul(b.At(i, k), c.At(k, j))))
	tests := []struct {
		node notation.Node
		want []string
	}{
		{node: assign, want: []string{"i", "j", "k"}},
		{node: assign.RHS, want: []string{"k", "i", "j"}},
		{node: notation.Foralls([]*notation.IndexVar{k, i, j}, assign), want: []string{"k", "i", "j"}},
	}
	for i, test := range tests {
		var got []string
		for _, v := range notation.IndexVars(test.node) {
			got = append(got, v.Name)
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected index variables:\n%s", i, diff)
		}
	}
	accs := notation.Accesses(assign)
	if len(accs) != 3 || accs[0].Tensor != a || accs[2].Tensor != c {
		t.Errorf("unexpected accesses: %v", accs)
	}
}

func TestValidate(t *testing.T) {
	i, j, k := notation.NewIndexVar("i"), notation.NewIndexVar("j"), notation.NewIndexVar("k")
	a := notation.NewTensor("A", []int{3, 4}, format.CSR())
	b := notation.NewTensor("B", []int{3, 4}, format.CSR())
	c := notation.NewTensor("C", []int{4, 3}, format.CSR())
	v := notation.NewTensor("v", []int{3}, format.DenseVector())
	tests := []struct {
		stmt notation.Stmt
		errs []string
	}{
		{
			stmt: notation.Assign(a.At(i, j), b.At(i, j)),
		},
		{
			stmt: notation.Foralls([]*notation.IndexVar{i, j}, notation.Assign(a.At(i, j), b.At(i, j))),
		},
		{
			stmt: notation.Assign(v.At(i), notation.Sum(j, b.At(i, j))),
		},
		{
			stmt: notation.Foralls([]*notation.IndexVar{i}, notation.Assign(a.At(i, j), b.At(i, j))),
			errs: []string{"index variable j is not bound by a forall"},
		},
		{
			stmt: notation.Foralls([]*notation.IndexVar{i, j, k}, notation.Assign(a.At(i, j), b.At(i, j))),
			errs: []string{"forall over k does not index any tensor"},
		},
		{
			stmt: notation.Assign(a.At(i, j), v.At(i)),
			errs: []string{fmterr.MsgDistribution},
		},
		{
			stmt: notation.Assign(a.At(i, j), c.At(i, j)),
			errs: []string{fmterr.MsgDimensionMismatch, fmterr.MsgDimensionMismatch},
		},
		{
			stmt: notation.Assign(a.At(i, j), b.At(i)),
			errs: []string{"tensor B of order 2 is indexed by 1 index variables", fmterr.MsgDistribution},
		},
		{
			stmt: notation.Assign(a.At(i, j), notation.Add(a.At(i, j), b.At(i, j))),
			errs: []string{"result tensor A cannot also be an operand"},
		},
		{
			stmt: notation.Assign(a.At(i, j), notation.Sum(j, b.At(i, j))),
			errs: []string{"reduction variable j is also a free variable"},
		},
		{
			stmt: notation.Assign(a.At(i, i), b.At(i, i)),
			errs: []string{"index variable i indexes more than one dimension", "index variable i indexes more than one dimension"},
		},
		{
			stmt: &notation.Where{
				Consumer: notation.Assign(a.At(i, j), b.At(i, j)),
				Producer: notation.Assign(a.At(i, j), b.At(i, j)),
			},
			errs: []string{"statements cannot be lowered"},
		},
		{
			errs: []string{fmterr.MsgCompileWithoutExpr},
		},
	}
	for i, test := range tests {
		err := notation.Validate(test.stmt)
		if len(test.errs) == 0 {
			if err != nil {
				t.Errorf("test %d: unexpected error: %v", i, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("test %d: expected an error", i)
			continue
		}
		if !fmterr.IsUser(err) {
			t.Errorf("test %d: error %v is not a user error", i, err)
		}
		for _, want := range test.errs {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("test %d: error %q does not contain %q", i, err.Error(), want)
			}
		}
	}
}
