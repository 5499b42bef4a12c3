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

type compressed struct {
	base
}

var (
	// Compressed levels store the coordinates of each segment in a
	// coordinates array delimited by a positions array.
	Compressed ModeFormat = &compressed{base: base{name: "compressed", props: defaults["compressed"]}}

	// Uncompressed levels are compressed levels storing duplicate coordinates.
	// They are used for the first level of coordinate lists.
	Uncompressed ModeFormat = Compressed.Copy(NotUnique)
)

func (f *compressed) Copy(props ...Property) ModeFormat {
	return &compressed{base: f.copyBase(props)}
}

func (*compressed) Arrays(tensor *ir.Var, mode, level int) []ir.Expr {
	return []ir.Expr{
		indices(tensor, level, 0, "pos"),
		indices(tensor, level, 1, "crd"),
	}
}

func posArray(m *Mode) ir.Expr {
	return m.Pack().Array(0)
}

func crdArray(m *Mode) ir.Expr {
	return m.Pack().Array(1)
}

// crdIndex returns the index of the coordinate of a mode at a given position
// in the coordinates array shared by its pack.
func crdIndex(pos ir.Expr, m *Mode) ir.Expr {
	return ir.Add(ir.Mul(pos, ir.Int(m.Pack().NumModes())), ir.Int(m.PackLocation()))
}

// appendCoord stores a coordinate. The last mode of a pack grows the
// coordinates array shared by the pack.
func appendCoord(pos, coord ir.Expr, m *Mode) ir.Stmt {
	store := ir.StoreAt(crdArray(m), crdIndex(pos, m), coord)
	if !m.LastInPack() {
		return store
	}
	return ir.NewBlock(
		growIfFull(crdArray(m), m.Var(CoordCapacity), pos, m.Pack().NumModes()),
		store,
	)
}

// initCoords allocates the coordinates array of a pack.
func initCoords(sz ir.Expr, m *Mode) ir.Stmt {
	if !m.LastInPack() {
		return nil
	}
	capacity := m.Var(CoordCapacity)
	return ir.NewBlock(
		ir.Decl(capacity, sz),
		ir.Alloc(crdArray(m), ir.Mul(capacity, ir.Int(m.Pack().NumModes()))),
	)
}

func parentAppends(m *Mode) bool {
	parent := m.ParentFormat()
	return parent == nil || parent.Properties().Append
}

func (*compressed) AttrQueries(coords []string) []*attrquery.Select {
	n := len(coords)
	return []*attrquery.Select{attrquery.NewSelect(
		coords[:n-1],
		&attrquery.DistinctCount{Coords: []string{coords[n-1]}},
		"nnz",
	)}
}

func (*compressed) PosIterBounds(parentPos ir.Expr, m *Mode) *Function {
	pos := posArray(m)
	return newFunction(nil,
		ir.LoadAt(pos, parentPos),
		ir.LoadAt(pos, ir.Add(parentPos, ir.Int(1))),
	)
}

func (*compressed) PosIterAccess(pos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	return newFunction(nil, ir.LoadAt(crdArray(m), crdIndex(pos, m)), ir.Bool(true))
}

func (*compressed) AppendCoord(pos, coord ir.Expr, m *Mode) ir.Stmt {
	return appendCoord(pos, coord, m)
}

func (*compressed) AppendEdges(parentPos, posBegin, posEnd ir.Expr, m *Mode) ir.Stmt {
	edges := posEnd
	if !parentAppends(m) {
		edges = ir.Sub(posEnd, posBegin)
	}
	return ir.StoreAt(posArray(m), ir.Add(parentPos, ir.Int(1)), edges)
}

func (*compressed) AppendInitEdges(parentPosBegin, parentPosEnd ir.Expr, m *Mode) ir.Stmt {
	if isZero(parentPosBegin) {
		return nil
	}
	pos := posArray(m)
	grow := growIfFull(pos, m.Var(PosCapacity), parentPosEnd, 1)
	if parentAppends(m) {
		return grow
	}
	p := ir.NewIndexVar("p" + m.Name())
	return ir.NewBlock(
		grow,
		ir.Loop(p, ir.Add(parentPosBegin, ir.Int(1)), ir.Add(parentPosEnd, ir.Int(1)),
			ir.StoreAt(pos, p, ir.Int(0)),
		),
	)
}

func isZero(x ir.Expr) bool {
	lit, ok := x.(*ir.Literal)
	return ok && lit.IsInt(0)
}

func (*compressed) AppendInitLevel(szPrev, sz ir.Expr, m *Mode) ir.Stmt {
	pos := posArray(m)
	body := ir.NewBlock()
	var capacity ir.Expr = ir.Add(szPrev, ir.Int(1))
	if isZero(szPrev) {
		v := m.Var(PosCapacity)
		body.Append(ir.Decl(v, sz))
		capacity = v
	}
	body.Append(
		ir.Alloc(pos, capacity),
		ir.StoreAt(pos, ir.Int(0), ir.Int(0)),
	)
	if !parentAppends(m) && !isZero(szPrev) {
		p := ir.NewIndexVar("p" + m.Name())
		body.Append(ir.Loop(p, ir.Int(1), capacity, ir.StoreAt(pos, p, ir.Int(0))))
	}
	body.Append(initCoords(sz, m))
	return body
}

func (*compressed) AppendFinalizeLevel(szPrev, sz ir.Expr, m *Mode) ir.Stmt {
	if lit, ok := szPrev.(*ir.Literal); ok && lit.IsInt(1) {
		return nil
	}
	if parentAppends(m) {
		return nil
	}
	pos := posArray(m)
	cs := ir.NewIndexVar("cs" + m.Name())
	p := ir.NewIndexVar("p" + m.Name())
	return ir.NewBlock(
		ir.Decl(cs, ir.Int(0)),
		ir.Loop(p, ir.Int(1), ir.Add(szPrev, ir.Int(1)),
			ir.AddTo(cs, ir.LoadAt(pos, p)),
			ir.StoreAt(pos, p, cs),
		),
	)
}

func (*compressed) Size(szPrev ir.Expr, m *Mode) ir.Expr {
	return ir.LoadAt(posArray(m), szPrev)
}

func (f *compressed) SizeNew(prevSize ir.Expr, m *Mode) ir.Expr {
	return f.Size(prevSize, m)
}

func (*compressed) SeqInitEdges(prevSize ir.Expr, queries Queries, m *Mode) ir.Stmt {
	pos := posArray(m)
	return ir.NewBlock(
		ir.Alloc(pos, ir.Add(prevSize, ir.Int(1))),
		ir.StoreAt(pos, ir.Int(0), ir.Int(0)),
	)
}

func (*compressed) SeqInsertEdge(parentPos ir.Expr, coords []ir.Expr, queries Queries, m *Mode) ir.Stmt {
	pos := posArray(m)
	nnz := queries["nnz"].Get("nnz", coords)
	return ir.StoreAt(pos, ir.Add(parentPos, ir.Int(1)), ir.Add(ir.LoadAt(pos, parentPos), nnz))
}

func (*compressed) InitCoords(prevSize ir.Expr, queries Queries, m *Mode) ir.Stmt {
	size := ir.LoadAt(posArray(m), prevSize)
	return ir.Alloc(crdArray(m), ir.Mul(size, ir.Int(m.Pack().NumModes())))
}

func (*compressed) InitYieldPos(prevSize ir.Expr, m *Mode) ir.Stmt {
	ptr := m.Var(Ptr)
	p := ir.NewIndexVar("p" + m.Name())
	return ir.NewBlock(
		ir.Decl(ptr, nil),
		ir.Alloc(ptr, prevSize),
		ir.Loop(p, ir.Int(0), prevSize, ir.StoreAt(ptr, p, ir.LoadAt(posArray(m), p))),
	)
}

func (*compressed) YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function {
	ptr := m.Var(Ptr)
	p := ir.NewIndexVar("p" + m.Name())
	body := ir.NewBlock(
		ir.Decl(p, ir.LoadAt(ptr, parentPos)),
		ir.StoreAt(ptr, parentPos, ir.Add(p, ir.Int(1))),
	)
	return newFunction(body, p)
}

func (*compressed) InsertCoord(parentPos, pos ir.Expr, coords []ir.Expr, m *Mode) ir.Stmt {
	return ir.StoreAt(crdArray(m), crdIndex(pos, m), last(coords))
}

func (*compressed) FinalizeLevel(m *Mode) ir.Stmt {
	return &ir.Free{Array: m.Var(Ptr)}
}
