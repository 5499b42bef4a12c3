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

package lower

import (
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/gx-org/tensorlower/build/notation"
)

// iterator iterates over the coordinates of a level of a tensor path.
// The root iterator of a path stands for the single position before
// the first level.
type iterator struct {
	path   *path
	level  int
	mode   *format.Mode
	parent *iterator

	pos   *ir.Var
	end   *ir.Var
	coord *ir.Var
}

func newRootIterator(p *path) *iterator {
	return &iterator{path: p, level: -1}
}

func newIterator(p *path, level int, parent *iterator) *iterator {
	m := p.modes[level]
	return &iterator{
		path:   p,
		level:  level,
		mode:   m,
		parent: parent,
		pos:    ir.NewIndexVar("p" + m.Name()),
		end:    ir.NewIndexVar("p" + m.Name() + "_end"),
		coord:  ir.NewIndexVar(p.vars[level].Name + p.prefix),
	}
}

func (it *iterator) isRoot() bool {
	return it.mode == nil
}

func (it *iterator) props() format.Properties {
	if it.isRoot() {
		return format.Properties{Full: true, Ordered: true, Unique: true, Branchless: true}
	}
	return it.mode.Format.Properties()
}

// isDense returns true if the iterator visits every coordinate of its dimension.
func (it *iterator) isDense() bool {
	p := it.props()
	return p.Full && p.Locate
}

// isRandomAccess returns true if positions are computed from coordinates.
func (it *iterator) isRandomAccess() bool {
	return !it.isRoot() && it.props().Locate
}

// isSequential returns true if coordinates are read from positions.
func (it *iterator) isSequential() bool {
	p := it.props()
	return !it.isRoot() && p.CoordPosIter && !p.Locate
}

func (it *iterator) hasDuplicates() bool {
	return !it.props().Unique
}

// isFixedRange returns true if every segment of the level has the same size.
func (it *iterator) isFixedRange() bool {
	return it.isDense() || it.props().Branchless
}

// rangeSize returns the size of the segments of a fixed range level.
func (it *iterator) rangeSize() ir.Expr {
	if it.props().Branchless {
		return ir.Int(1)
	}
	return it.mode.Format.Width(it.mode)
}

// variable returns the variable a loop over the level iterates over.
func (it *iterator) variable() *ir.Var {
	if it.isRandomAccess() {
		return it.coord
	}
	return it.pos
}

// posExpr returns the position of the iterator.
func (it *iterator) posExpr() ir.Expr {
	if it.isRoot() {
		return ir.Int(0)
	}
	return it.pos
}

// endExpr returns the end of the segment of positions of the current coordinate.
func (it *iterator) endExpr() ir.Expr {
	switch {
	case it.isRoot():
		return ir.Int(1)
	case it.isRandomAccess():
		return ir.Add(it.pos, ir.Int(1))
	}
	return it.end
}

// parentCoords returns the coordinates of the levels above the iterator.
func (it *iterator) parentCoords(coords map[*notation.IndexVar]ir.Expr) []ir.Expr {
	cs := make([]ir.Expr, max(it.level, 0))
	for l := range cs {
		cs[l] = coords[it.path.vars[l]]
	}
	return cs
}

// bounds returns the range of the loop iterating over the level.
func (it *iterator) bounds(coords map[*notation.IndexVar]ir.Expr) (begin, end ir.Expr) {
	f := it.mode.Format
	if it.isRandomAccess() {
		fn := f.CoordIterBounds(it.parentCoords(coords), it.mode)
		return fn.Result(0), fn.Result(1)
	}
	fn := f.PosIterBounds(it.parent.posExpr(), it.mode)
	begin, end = fn.Result(0), fn.Result(1)
	if it.parent.hasDuplicates() {
		end = f.PosIterBounds(ir.Sub(it.parent.endExpr(), ir.Int(1)), it.mode).Result(1)
	}
	return begin, end
}

// access returns the code reading the coordinate at a position and whether
// the coordinate is present.
func (it *iterator) access(pos ir.Expr, coords map[*notation.IndexVar]ir.Expr) (crd, found ir.Expr) {
	fn := it.mode.Format.PosIterAccess(pos, it.parentCoords(coords), it.mode)
	return fn.Result(0), fn.Result(1)
}

// locate returns the position of a coordinate and whether it is present.
func (it *iterator) locate(idx ir.Expr, coords map[*notation.IndexVar]ir.Expr) (pos, found ir.Expr) {
	fn := it.mode.Format.Locate(it.parent.posExpr(), append(it.parentCoords(coords), idx), it.mode)
	return fn.Result(0), fn.Result(1)
}

func (it *iterator) String() string {
	if it.isRoot() {
		return it.path.prefix + "0"
	}
	return it.mode.Name()
}

// iterators of the levels of every path of an assignment.
type iterators struct {
	roots  map[*path]*iterator
	levels map[*path][]*iterator
}

func newIterators(paths []*path) *iterators {
	its := &iterators{
		roots:  make(map[*path]*iterator),
		levels: make(map[*path][]*iterator),
	}
	for _, p := range paths {
		parent := newRootIterator(p)
		its.roots[p] = parent
		for level := range p.modes {
			it := newIterator(p, level, parent)
			its.levels[p] = append(its.levels[p], it)
			parent = it
		}
	}
	return its
}

// at returns the iterator of the level of a path indexed by v or nil.
func (its *iterators) at(p *path, v *notation.IndexVar) *iterator {
	level := p.level(v)
	if level < 0 {
		return nil
	}
	return its.levels[p][level]
}

// last returns the iterator of the last level of a path, or its root
// iterator for paths without levels.
func (its *iterators) last(p *path) *iterator {
	levels := its.levels[p]
	if len(levels) == 0 {
		return its.roots[p]
	}
	return levels[len(levels)-1]
}
