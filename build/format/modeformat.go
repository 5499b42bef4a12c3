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
	"strings"

	"github.com/gx-org/tensorlower/build/attrquery"
	"github.com/gx-org/tensorlower/build/ir"
)

// Property of a level format that can be changed when copying it.
type Property int

const (
	// Full levels store every coordinate of their dimension.
	Full Property = iota
	// NotFull levels may omit coordinates.
	NotFull
	// Ordered levels store coordinates in increasing order.
	Ordered
	// NotOrdered levels store coordinates in any order.
	NotOrdered
	// Unique levels store every coordinate at most once per segment.
	Unique
	// NotUnique levels may store duplicate coordinates.
	NotUnique
)

// Properties of a level format.
type Properties struct {
	Full       bool
	Ordered    bool
	Unique     bool
	Branchless bool
	Compact    bool

	// Capabilities: which groups of operations the format implements.
	CoordValIter    bool
	CoordPosIter    bool
	Locate          bool
	Insert          bool
	Append          bool
	SeqInsertEdge   bool
	UnseqInsertEdge bool
	InitYieldPos    bool
	// Yield levels are assembled from attribute queries before positions
	// are yielded for their coordinates.
	Yield           bool
}

func (p Properties) with(props []Property) Properties {
	for _, prop := range props {
		switch prop {
		case Full:
			p.Full = true
		case NotFull:
			p.Full = false
		case Ordered:
			p.Ordered = true
		case NotOrdered:
			p.Ordered = false
		case Unique:
			p.Unique = true
		case NotUnique:
			p.Unique = false
		}
	}
	return p
}

// Function is a fragment of code computing a list of results.
// Body may be nil.
type Function struct {
	Body    ir.Stmt
	Results []ir.Expr
}

func newFunction(body ir.Stmt, results ...ir.Expr) *Function {
	return &Function{Body: body, Results: results}
}

// Result returns the ith result of the function.
func (f *Function) Result(i int) ir.Expr {
	return f.Results[i]
}

// ModeFormat is the storage format of one level of a tensor.
//
// Operations a format does not implement return nil. Properties reports
// which groups of operations are implemented and code generators only call
// the operations of the groups a format supports.
type ModeFormat interface {
	// Name of the format.
	Name() string
	// String returns the name of the format and its non-default properties.
	String() string
	// Properties of the format.
	Properties() Properties
	// Copy returns a new format with some properties changed.
	Copy(props ...Property) ModeFormat
	// Arrays returns the index arrays storing a level of a tensor.
	// mode is the logical dimension stored by the level and level its
	// physical level, starting at 1. Slots of arrays a format shares
	// with the other members of its pack are nil.
	Arrays(tensor *ir.Var, mode, level int) []ir.Expr
	// AttrQueries returns the queries the format needs to assemble a level
	// sequentially. coords names the coordinates of the levels up to and
	// including this level.
	AttrQueries(coords []string) []*attrquery.Select

	// Coordinate value iteration.
	// CoordIterBounds returns the range of coordinates of a level.
	// coords are the coordinates of the parent levels.
	CoordIterBounds(coords []ir.Expr, m *Mode) *Function
	// CoordIterAccess returns the position of a coordinate and whether it is present.
	CoordIterAccess(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function

	// Position iteration.
	// PosIterBounds returns the range of positions of a segment.
	PosIterBounds(parentPos ir.Expr, m *Mode) *Function
	// PosIterAccess returns the coordinate at a position and whether it is present.
	// coords are the coordinates of the parent levels.
	PosIterAccess(pos ir.Expr, coords []ir.Expr, m *Mode) *Function

	// Locate returns the position of a coordinate and whether it is present.
	Locate(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function
	// Width returns the number of positions of a segment of a level
	// with a fixed number of positions per parent position.
	Width(m *Mode) ir.Expr

	// Append assembly.
	AppendCoord(pos, coord ir.Expr, m *Mode) ir.Stmt
	AppendEdges(parentPos, posBegin, posEnd ir.Expr, m *Mode) ir.Stmt
	AppendInitEdges(parentPosBegin, parentPosEnd ir.Expr, m *Mode) ir.Stmt
	// AppendInitLevel allocates the arrays of a level. szPrev is the size of
	// the parent level, or zero if it is unknown, and sz is the capacity of
	// arrays whose size is unknown.
	AppendInitLevel(szPrev, sz ir.Expr, m *Mode) ir.Stmt
	AppendFinalizeLevel(szPrev, sz ir.Expr, m *Mode) ir.Stmt
	// Size returns the number of positions of a level given the size of
	// its parent level.
	Size(szPrev ir.Expr, m *Mode) ir.Expr

	// Sequential assembly driven by attribute queries.
	SizeNew(prevSize ir.Expr, m *Mode) ir.Expr
	SeqInitEdges(prevSize ir.Expr, queries Queries, m *Mode) ir.Stmt
	SeqInsertEdge(parentPos ir.Expr, coords []ir.Expr, queries Queries, m *Mode) ir.Stmt
	InitCoords(prevSize ir.Expr, queries Queries, m *Mode) ir.Stmt
	InitYieldPos(prevSize ir.Expr, m *Mode) ir.Stmt
	YieldPos(parentPos ir.Expr, coords []ir.Expr, m *Mode) *Function
	InsertCoord(parentPos, pos ir.Expr, coords []ir.Expr, m *Mode) ir.Stmt
	FinalizeLevel(m *Mode) ir.Stmt
}

// base implements every operation as not supported.
type base struct {
	name  string
	props Properties
}

func (b *base) Name() string { return b.name }

func (b *base) Properties() Properties { return b.props }

func (b *base) String() string {
	var diffs []string
	def := defaults[b.name]
	if b.props.Full != def.Full {
		diffs = append(diffs, notIf(b.props.Full)+"full")
	}
	if b.props.Ordered != def.Ordered {
		diffs = append(diffs, notIf(b.props.Ordered)+"ordered")
	}
	if b.props.Unique != def.Unique {
		diffs = append(diffs, notIf(b.props.Unique)+"unique")
	}
	if len(diffs) == 0 {
		return b.name
	}
	return b.name + "{" + strings.Join(diffs, ",") + "}"
}

func notIf(b bool) string {
	if b {
		return ""
	}
	return "not "
}

func (b *base) copyBase(props []Property) base {
	return base{name: b.name, props: b.props.with(props)}
}

func (*base) Arrays(*ir.Var, int, int) []ir.Expr { return nil }

func (*base) AttrQueries([]string) []*attrquery.Select { return nil }

func (*base) CoordIterBounds([]ir.Expr, *Mode) *Function { return nil }

func (*base) CoordIterAccess(ir.Expr, []ir.Expr, *Mode) *Function { return nil }

func (*base) PosIterBounds(ir.Expr, *Mode) *Function { return nil }

func (*base) PosIterAccess(ir.Expr, []ir.Expr, *Mode) *Function { return nil }

func (*base) Locate(ir.Expr, []ir.Expr, *Mode) *Function { return nil }

func (*base) Width(*Mode) ir.Expr { return nil }

func (*base) AppendCoord(ir.Expr, ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) AppendEdges(ir.Expr, ir.Expr, ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) AppendInitEdges(ir.Expr, ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) AppendInitLevel(ir.Expr, ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) AppendFinalizeLevel(ir.Expr, ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) Size(ir.Expr, *Mode) ir.Expr { return nil }

func (*base) SizeNew(ir.Expr, *Mode) ir.Expr { return nil }

func (*base) SeqInitEdges(ir.Expr, Queries, *Mode) ir.Stmt { return nil }

func (*base) SeqInsertEdge(ir.Expr, []ir.Expr, Queries, *Mode) ir.Stmt { return nil }

func (*base) InitCoords(ir.Expr, Queries, *Mode) ir.Stmt { return nil }

func (*base) InitYieldPos(ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) YieldPos(ir.Expr, []ir.Expr, *Mode) *Function { return nil }

func (*base) InsertCoord(ir.Expr, ir.Expr, []ir.Expr, *Mode) ir.Stmt { return nil }

func (*base) FinalizeLevel(*Mode) ir.Stmt { return nil }

// defaults are the properties of the predefined level formats.
var defaults = map[string]Properties{
	"dense": {
		Full: true, Ordered: true, Unique: true, Compact: true,
		CoordValIter: true, Locate: true, Insert: true,
	},
	"compressed": {
		Ordered: true, Unique: true, Compact: true,
		CoordPosIter: true, Append: true,
		SeqInsertEdge: true, UnseqInsertEdge: true, InitYieldPos: true,
		Yield: true,
	},
	"singleton": {
		Ordered: true, Unique: true, Branchless: true, Compact: true,
		CoordPosIter: true, Append: true,
	},
	"sliced": {
		Ordered: true, Unique: true, Compact: true,
		CoordValIter: true, Locate: true, Yield: true,
	},
	"squeezed": {
		Full: true, Ordered: true, Unique: true, Compact: true,
		InitYieldPos: true, Yield: true,
	},
	"offset": {
		Full: true, Ordered: true, Unique: true, Compact: true,
		CoordPosIter: true,
	},
	"block": {
		Full: true, Ordered: true, Unique: true, Compact: true,
		CoordValIter: true, Locate: true,
	},
	"fixed": {
		Ordered: true, Compact: true,
		CoordPosIter: true,
	},
}

// growIfFull returns a statement growing an array when a position reaches its
// capacity. The new capacity is at least twice the old one and holds the position.
// An array shared by several levels of a pack holds stride elements per position.
func growIfFull(array ir.Expr, capacity *ir.Var, pos ir.Expr, stride int) ir.Stmt {
	newCapacity := ir.Max(ir.Mul(ir.Int(2), capacity), ir.Add(pos, ir.Int(1)))
	return ir.If(ir.Lte(capacity, pos),
		ir.Set(capacity, newCapacity),
		ir.Realloc(array, ir.Mul(capacity, ir.Int(stride))),
	)
}

func last(xs []ir.Expr) ir.Expr {
	return xs[len(xs)-1]
}
