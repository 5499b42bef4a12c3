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

package format_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
)

var levelFormats = []format.ModeFormat{
	format.Dense,
	format.Compressed,
	format.Singleton,
	format.Sliced,
	format.Squeezed,
	format.Offset,
	format.Block(4),
	format.Fixed,
}

func TestCopyProperties(t *testing.T) {
	for i, level := range levelFormats {
		want := level.Properties()
		want.Ordered = false
		want.Unique = false
		want.Full = true
		got := level.Copy(format.NotOrdered, format.NotUnique, format.Full)
		if got.Name() != level.Name() {
			t.Errorf("test %d: copy of %s is named %s", i, level.Name(), got.Name())
		}
		if diff := cmp.Diff(want, got.Properties()); diff != "" {
			t.Errorf("test %d: unexpected properties for %s:\n%s", i, level.Name(), diff)
		}
		if level.Properties() == got.Properties() {
			t.Errorf("test %d: copy of %s changed the original format", i, level.Name())
		}
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		level    format.ModeFormat
		iterable bool
		locate   bool
		append   bool
		yield    bool
	}{
		{level: format.Dense, iterable: true, locate: true},
		{level: format.Compressed, iterable: true, append: true, yield: true},
		{level: format.Uncompressed, iterable: true, append: true, yield: true},
		{level: format.Singleton, iterable: true, append: true},
		{level: format.Sliced, iterable: true, locate: true, yield: true},
		{level: format.Squeezed, yield: true},
		{level: format.Offset, iterable: true},
		{level: format.Block(2), iterable: true, locate: true},
		{level: format.Fixed, iterable: true},
	}
	for i, test := range tests {
		props := test.level.Properties()
		if got := props.CoordValIter || props.CoordPosIter; got != test.iterable {
			t.Errorf("test %d: %s: got iterable=%v but want %v", i, test.level, got, test.iterable)
		}
		if props.Locate != test.locate {
			t.Errorf("test %d: %s: got locate=%v but want %v", i, test.level, props.Locate, test.locate)
		}
		if props.Append != test.append {
			t.Errorf("test %d: %s: got append=%v but want %v", i, test.level, props.Append, test.append)
		}
		if props.Yield != test.yield {
			t.Errorf("test %d: %s: got yield=%v but want %v", i, test.level, props.Yield, test.yield)
		}
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format *format.Format
		want   string
	}{
		{format: format.CSR(), want: "(dense,compressed)"},
		{format: format.CSC(), want: "(dense,compressed)[1 0]"},
		{format: format.COO(2, format.SoA), want: "(compressed{not unique},singleton)"},
		{format: format.COO(3, format.AoS), want: "(compressed{not unique},singleton{not unique},singleton)"},
		{format: format.ELL(), want: "(dense,fixed)"},
		{format: format.Scalar(), want: "()"},
		{
			format: format.MustNew([]format.ModeFormat{format.Dense, format.Dense, format.Block(2)}),
			want:   "(dense,dense,block(2))",
		},
	}
	for i, test := range tests {
		if got := test.format.String(); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		levels []format.ModeFormat
		opts   []format.Option
		err    string
	}{
		{
			levels: []format.ModeFormat{format.Dense, format.Compressed},
			opts:   []format.Option{format.WithOrdering(0, 0)},
			err:    "not a permutation",
		},
		{
			levels: []format.ModeFormat{format.Dense, format.Compressed},
			opts:   []format.Option{format.WithOrdering(0)},
			err:    "ordering of 1 dimensions",
		},
		{
			levels: []format.ModeFormat{format.Dense, format.Compressed},
			opts:   []format.Option{format.WithPackBoundaries(0, 1)},
			err:    "do not cover",
		},
		{
			levels: []format.ModeFormat{format.Dense, format.Compressed, format.Singleton},
			opts:   []format.Option{format.WithPackBoundaries(0, 2, 2, 3)},
			err:    "not increasing",
		},
		{
			levels: []format.ModeFormat{format.Dense, format.Offset},
			err:    "requires two parent levels",
		},
	}
	for i, test := range tests {
		_, err := format.New(test.levels, test.opts...)
		if err == nil {
			t.Errorf("test %d: expected an error containing %q", i, test.err)
			continue
		}
		if !strings.Contains(err.Error(), test.err) {
			t.Errorf("test %d: got error %q but want an error containing %q", i, err.Error(), test.err)
		}
	}
}

func results(fn *format.Function) []string {
	var ss []string
	for _, r := range fn.Results {
		ss = append(ss, r.String())
	}
	return ss
}

func TestIterationFragments(t *testing.T) {
	b := ir.NewTensorVar("B", dtype.Float64)
	csr := format.NewModes(b, "B", format.CSR(), []int{4, 5})
	unknown := format.NewModes(b, "B", format.CSR(), nil)
	wide := format.NewModes(b, "B", format.DenseMatrix(), []int{20, 3})
	aos := format.NewModes(b, "B", format.COO(3, format.AoS), nil)
	soa := format.NewModes(b, "B", format.COO(3, format.SoA), nil)
	ell := format.NewModes(b, "B", format.ELL(), nil)
	dia := format.NewModes(b, "B", format.MustNew([]format.ModeFormat{format.Dense, format.Dense, format.Offset}), nil)
	blockFormat := format.MustNew([]format.ModeFormat{format.Dense, format.Dense, format.Block(2)})
	blocked := format.NewModes(b, "B", blockFormat, nil)
	evenBlocks := format.NewModes(b, "B", blockFormat, []int{3, 1, 6})
	raggedBlocks := format.NewModes(b, "B", blockFormat, []int{3, 1, 5})

	i, j, k := ir.NewIndexVar("i"), ir.NewIndexVar("j"), ir.NewIndexVar("k")
	p := ir.NewIndexVar("p")
	tests := []struct {
		fn   *format.Function
		want []string
	}{
		{
			fn:   csr[0].Format.CoordIterBounds(nil, csr[0]),
			want: []string{"0", "4"},
		},
		{
			fn:   unknown[0].Format.CoordIterBounds(nil, unknown[0]),
			want: []string{"0", "B1_dimension"},
		},
		{
			fn:   wide[0].Format.Locate(p, []ir.Expr{i}, wide[0]),
			want: []string{"p * B1_dimension + i", "true"},
		},
		{
			fn:   csr[0].Format.Locate(ir.Int(0), []ir.Expr{i}, csr[0]),
			want: []string{"i", "true"},
		},
		{
			fn:   csr[1].Format.PosIterBounds(p, csr[1]),
			want: []string{"B2_pos[p]", "B2_pos[p + 1]"},
		},
		{
			fn:   csr[1].Format.PosIterAccess(p, []ir.Expr{i}, csr[1]),
			want: []string{"B2_crd[p]", "true"},
		},
		{
			fn:   aos[0].Format.PosIterAccess(p, nil, aos[0]),
			want: []string{"B1_crd[p * 3]", "true"},
		},
		{
			fn:   aos[2].Format.PosIterAccess(p, []ir.Expr{i, j}, aos[2]),
			want: []string{"B1_crd[p * 3 + 2]", "true"},
		},
		{
			fn:   aos[1].Format.PosIterBounds(p, aos[1]),
			want: []string{"p", "p + 1"},
		},
		{
			fn:   soa[2].Format.PosIterAccess(p, []ir.Expr{i, j}, soa[2]),
			want: []string{"B3_crd[p]", "true"},
		},
		{
			fn:   ell[1].Format.PosIterBounds(p, ell[1]),
			want: []string{"p * B2_size[0]", "p * B2_size[0] + B2_size[0]"},
		},
		{
			fn:   dia[2].Format.PosIterAccess(p, []ir.Expr{k, i}, dia[2]),
			want: []string{"i + B3_offset[k]", "i + B3_offset[k] >= 0 && i + B3_offset[k] < B3_dimension"},
		},
		{
			fn:   blocked[2].Format.CoordIterBounds([]ir.Expr{k, i}, blocked[2]),
			want: []string{"2 * k", "min(2 * k + 2, B3_dimension)"},
		},
		{
			fn:   evenBlocks[2].Format.CoordIterBounds([]ir.Expr{k, i}, evenBlocks[2]),
			want: []string{"2 * k", "2 * k + 2"},
		},
		{
			fn:   raggedBlocks[2].Format.CoordIterBounds([]ir.Expr{k, i}, raggedBlocks[2]),
			want: []string{"2 * k", "min(2 * k + 2, 5)"},
		},
		{
			fn:   blocked[2].Format.Locate(p, []ir.Expr{k, i, j}, blocked[2]),
			want: []string{"p * 2 + (j - 2 * k)", "true"},
		},
	}
	for i, test := range tests {
		if diff := cmp.Diff(test.want, results(test.fn)); diff != "" {
			t.Errorf("test %d: unexpected results:\n%s", i, diff)
		}
	}
}

func TestAssemblyFragments(t *testing.T) {
	a := ir.NewTensorVar("A", dtype.Float64)
	csr := format.NewModes(a, "A", format.CSR(), []int{4, 5})
	dcsr := format.NewModes(a, "A", format.DCSR(), nil)
	aos := format.NewModes(a, "A", format.COO(2, format.AoS), nil)
	i, j := ir.NewIndexVar("i"), ir.NewIndexVar("j")
	p, pBegin, pEnd := ir.NewIndexVar("p"), ir.NewIndexVar("pBegin"), ir.NewIndexVar("pEnd")
	sz := ir.NewIndexVar("init_alloc_size")
	tests := []struct {
		stmt ir.Stmt
		want []string
	}{
		{
			stmt: aos[0].Format.AppendCoord(p, i, aos[0]),
			want: []string{"A1_crd[p * 2] = i;"},
		},
		{
			stmt: aos[1].Format.AppendCoord(p, j, aos[1]),
			want: []string{
				"if (A2_crd_size <= p) {",
				"  A2_crd_size = max(2 * A2_crd_size, p + 1);",
				"  A1_crd = realloc(A1_crd, A2_crd_size * 2);",
				"}",
				"A1_crd[p * 2 + 1] = j;",
			},
		},
		{
			stmt: csr[1].Format.AppendEdges(i, pBegin, pEnd, csr[1]),
			want: []string{"A2_pos[i + 1] = pEnd - pBegin;"},
		},
		{
			stmt: dcsr[1].Format.AppendEdges(p, pBegin, pEnd, dcsr[1]),
			want: []string{"A2_pos[p + 1] = pEnd;"},
		},
		{
			stmt: dcsr[1].Format.AppendInitEdges(pBegin, pEnd, dcsr[1]),
			want: []string{
				"if (A2_pos_size <= pEnd) {",
				"  A2_pos_size = max(2 * A2_pos_size, pEnd + 1);",
				"  A2_pos = realloc(A2_pos, A2_pos_size);",
				"}",
			},
		},
		{
			stmt: csr[1].Format.AppendInitLevel(ir.Int(4), sz, csr[1]),
			want: []string{
				"A2_pos = malloc(5);",
				"A2_pos[0] = 0;",
				"for (int32 pA2 = 1; pA2 < 5; pA2++) {",
				"  A2_pos[pA2] = 0;",
				"}",
				"int32 A2_crd_size = init_alloc_size;",
				"A2_crd = malloc(A2_crd_size);",
			},
		},
		{
			stmt: dcsr[0].Format.AppendInitLevel(ir.Int(1), sz, dcsr[0]),
			want: []string{
				"A1_pos = malloc(2);",
				"A1_pos[0] = 0;",
				"int32 A1_crd_size = init_alloc_size;",
				"A1_crd = malloc(A1_crd_size);",
			},
		},
		{
			stmt: dcsr[1].Format.AppendInitLevel(ir.Int(0), sz, dcsr[1]),
			want: []string{
				"int32 A2_pos_size = init_alloc_size;",
				"A2_pos = malloc(A2_pos_size);",
				"A2_pos[0] = 0;",
				"int32 A2_crd_size = init_alloc_size;",
				"A2_crd = malloc(A2_crd_size);",
			},
		},
		{
			stmt: aos[0].Format.AppendInitLevel(ir.Int(1), sz, aos[0]),
			want: []string{
				"A1_pos = malloc(2);",
				"A1_pos[0] = 0;",
			},
		},
		{
			stmt: csr[1].Format.AppendFinalizeLevel(ir.Int(4), sz, csr[1]),
			want: []string{
				"int32 csA2 = 0;",
				"for (int32 pA2 = 1; pA2 < 5; pA2++) {",
				"  csA2 += A2_pos[pA2];",
				"  A2_pos[pA2] = csA2;",
				"}",
			},
		},
		{
			stmt: csr[1].Format.InitYieldPos(ir.Int(4), csr[1]),
			want: []string{
				"int32* A2_ptr;",
				"A2_ptr = malloc(4);",
				"for (int32 pA2 = 0; pA2 < 4; pA2++) {",
				"  A2_ptr[pA2] = A2_pos[pA2];",
				"}",
			},
		},
		{
			stmt: csr[1].Format.YieldPos(i, []ir.Expr{i, j}, csr[1]).Body,
			want: []string{
				"int32 pA2 = A2_ptr[i];",
				"A2_ptr[i] = pA2 + 1;",
			},
		},
		{
			stmt: csr[1].Format.InsertCoord(i, p, []ir.Expr{i, j}, csr[1]),
			want: []string{"A2_crd[p] = j;"},
		},
		{
			stmt: csr[1].Format.FinalizeLevel(csr[1]),
			want: []string{"free(A2_ptr);"},
		},
	}
	for i, test := range tests {
		got := strings.Split(strings.TrimSuffix(test.stmt.String(), "\n"), "\n")
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected code:\n%s", i, diff)
		}
	}
}

func TestQueries(t *testing.T) {
	a := ir.NewTensorVar("A", dtype.Float64)
	i, _ := ir.NewIndexVar("i"), ir.NewIndexVar("j")
	tests := []struct {
		format *format.Format
		query  string
		init   func(m *format.Mode, qs format.Queries) ir.Stmt
		want   []string
	}{
		{
			format: format.CSR(),
			query:  "select i -> distinct_count(j) as nnz",
			init: func(m *format.Mode, qs format.Queries) ir.Stmt {
				return m.Format.SeqInsertEdge(i, []ir.Expr{i}, qs, m)
			},
			want: []string{"A2_pos[i + 1] = A2_pos[i] + A2_nnz[i];"},
		},
		{
			format: format.MustNew([]format.ModeFormat{format.Dense, format.Sliced}),
			query:  "select  -> max(j) as max_coord",
			init: func(m *format.Mode, qs format.Queries) ir.Stmt {
				return m.Format.InitCoords(ir.Int(4), qs, m)
			},
			want: []string{
				"A2_ub = malloc(1);",
				"A2_ub[0] = A2_max_coord[0] + 1;",
			},
		},
		{
			format: format.MustNew([]format.ModeFormat{format.Dense, format.Squeezed}),
			query:  "select j -> 1 as nonempty",
			init: func(m *format.Mode, qs format.Queries) ir.Stmt {
				return m.Format.InitCoords(ir.Int(4), qs, m)
			},
			want: []string{
				"A2_perm = malloc(A2_dimension);",
				"A2_nzslice = malloc(1);",
				"A2_nzslice[0] = 0;",
				"for (int32 iA2 = 0; iA2 < A2_dimension; iA2++) {",
				"  if (A2_nonempty[iA2] == 1) {",
				"    A2_perm[A2_nzslice[0]] = iA2;",
				"    A2_nzslice[0] += 1;",
				"  }",
				"}",
			},
		},
	}
	for n, test := range tests {
		modes := format.NewModes(a, "A", test.format, []int{4, 5})
		m := modes[1]
		selects := m.Format.AttrQueries([]string{"i", "j"})
		if len(selects) != 1 {
			t.Errorf("test %d: got %d queries but want 1", n, len(selects))
			continue
		}
		if got := selects[0].String(); got != test.query {
			t.Errorf("test %d: got query %q but want %q", n, got, test.query)
		}
		var groupBy []int
		for _, name := range selects[0].GroupBys {
			groupBy = append(groupBy, map[string]int{"i": 0, "j": 1}[name])
		}
		qs := format.Queries{}
		qs.Add(format.NewQueryResult(selects[0], m, groupBy))
		got := strings.Split(strings.TrimSuffix(test.init(m, qs).String(), "\n"), "\n")
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected code:\n%s", n, diff)
		}
	}
}

func TestSqueezedYieldPos(t *testing.T) {
	a := ir.NewTensorVar("A", dtype.Float64)
	modes := format.NewModes(a, "A", format.MustNew([]format.ModeFormat{format.Dense, format.Squeezed}), nil)
	m := modes[1]
	fn := m.Format.YieldPos(ir.NewIndexVar("pA1"), []ir.Expr{ir.NewIndexVar("i"), ir.NewIndexVar("j")}, m)
	want := []string{"pA1 * A2_nzslice_local + A2_rperm[j]"}
	if diff := cmp.Diff(want, results(fn)); diff != "" {
		t.Errorf("unexpected position:\n%s", diff)
	}
	if got, want := m.Format.FinalizeLevel(m).String(), "free(A2_rperm);\n"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
