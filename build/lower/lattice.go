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
	"slices"
	"sort"

	gxfmt "github.com/gx-org/tensorlower/base/fmt"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/notation"
)

// point of a merge lattice: the expression to compute when the iterators
// of the point have a coordinate equal to the coordinate being visited.
type point struct {
	iters []*iterator
	expr  notation.Expr
}

func (p *point) String() string {
	return "[" + gxfmt.Join(p.iters, ",") + "]: " + p.expr.String()
}

// lattice is a merge lattice: the points of an expression ordered from
// the point with the most iterators to the point with the least.
type lattice struct {
	points []*point
}

// buildLattice returns the merge lattice of an expression. iter returns the
// iterator of an access for the variable being lowered or nil.
func buildLattice(x notation.Expr, iter func(*notation.Access) *iterator) (*lattice, error) {
	l := latticeOf(x, iter)
	sort.SliceStable(l.points, func(i, j int) bool {
		return len(l.points[i].iters) > len(l.points[j].iters)
	})
	if len(l.points) > 1 {
		for _, p := range l.points {
			if len(p.iters) == 0 {
				return nil, fmterr.Errorf("%s cannot be lowered: %s is computed where none of its tensors is defined", x, p.expr)
			}
		}
	}
	return l, nil
}

func single(x notation.Expr, iters ...*iterator) *lattice {
	return &lattice{points: []*point{{iters: iters, expr: x}}}
}

func latticeOf(x notation.Expr, iter func(*notation.Access) *iterator) *lattice {
	switch xT := x.(type) {
	case *notation.Access:
		if it := iter(xT); it != nil {
			return single(x, it)
		}
		return single(x)
	case *notation.Literal:
		return single(x)
	case *notation.Neg:
		return latticeOf(xT.X, iter).apply(func(y notation.Expr) notation.Expr {
			if y == xT.X {
				return xT
			}
			return &notation.Neg{X: y}
		})
	case *notation.Sqrt:
		return latticeOf(xT.X, iter).apply(func(y notation.Expr) notation.Expr {
			if y == xT.X {
				return xT
			}
			return &notation.Sqrt{X: y}
		})
	case *notation.Cast:
		return latticeOf(xT.X, iter).apply(func(y notation.Expr) notation.Expr {
			if y == xT.X {
				return xT
			}
			return &notation.Cast{Typ: xT.Typ, X: y}
		})
	case *notation.Map:
		return latticeOf(xT.X, iter).apply(func(y notation.Expr) notation.Expr {
			if y == xT.X {
				return xT
			}
			return &notation.Map{Func: xT.Func, X: y}
		})
	case *notation.Reduction:
		return latticeOf(xT.X, iter).apply(func(y notation.Expr) notation.Expr {
			if y == xT.X {
				return xT
			}
			return &notation.Reduction{Op: xT.Op, Var: xT.Var, X: y}
		})
	case *notation.Binary:
		return binaryLattice(xT, latticeOf(xT.X, iter), latticeOf(xT.Y, iter))
	case *notation.CallIntrinsic:
		l := single(&notation.CallIntrinsic{Name: xT.Name})
		for _, arg := range xT.Args {
			l = conjunction(l, latticeOf(arg, iter), func(call, arg notation.Expr) notation.Expr {
				c := call.(*notation.CallIntrinsic)
				return &notation.CallIntrinsic{Name: c.Name, Args: append(slices.Clone(c.Args), arg)}
			})
		}
		return l
	}
	fmterr.Fail("cannot build the merge lattice of %T", x)
	return nil
}

func binaryLattice(b *notation.Binary, x, y *lattice) *lattice {
	op := func(ex, ey notation.Expr) notation.Expr {
		if ex == b.X && ey == b.Y {
			return b
		}
		return &notation.Binary{Op: b.Op, X: ex, Y: ey}
	}
	identity := func(e notation.Expr) notation.Expr { return e }
	switch b.Op {
	case notation.OpMul, notation.OpDiv:
		return conjunction(x, y, op)
	case notation.OpAdd:
		return disjunction(x, y, op, identity, identity)
	case notation.OpSub:
		return disjunction(x, y, op, identity, func(e notation.Expr) notation.Expr {
			return &notation.Neg{X: e}
		})
	}
	zero := notation.Lit(0)
	return disjunction(x, y, op,
		func(e notation.Expr) notation.Expr { return op(e, zero) },
		func(e notation.Expr) notation.Expr { return op(zero, e) },
	)
}

// apply rewrites the expressions of the points of a lattice.
func (l *lattice) apply(f func(notation.Expr) notation.Expr) *lattice {
	r := &lattice{points: make([]*point, len(l.points))}
	for i, p := range l.points {
		r.points[i] = &point{iters: p.iters, expr: f(p.expr)}
	}
	return r
}

// conjunction returns the lattice of an expression defined where both
// operands are defined.
func conjunction(x, y *lattice, op func(notation.Expr, notation.Expr) notation.Expr) *lattice {
	var points []*point
	for _, px := range x.points {
		for _, py := range y.points {
			points = append(points, &point{
				iters: union(px.iters, py.iters),
				expr:  op(px.expr, py.expr),
			})
		}
	}
	return normalize(points)
}

// disjunction returns the lattice of an expression defined where either
// operand is defined. fx and fy compute the expression when only x or y
// is defined.
func disjunction(x, y *lattice, op func(notation.Expr, notation.Expr) notation.Expr, fx, fy func(notation.Expr) notation.Expr) *lattice {
	points := conjunction(x, y, op).points
	for _, px := range x.points {
		points = append(points, &point{iters: px.iters, expr: fx(px.expr)})
	}
	for _, py := range y.points {
		points = append(points, &point{iters: py.iters, expr: fy(py.expr)})
	}
	return normalize(points)
}

// normalize removes the points with the same iterators as a previous point
// and the points without a dense iterator of the first point: the
// coordinates of dense iterators are always present.
func normalize(points []*point) *lattice {
	var dense []*iterator
	if len(points) > 0 {
		for _, it := range points[0].iters {
			if it.isDense() {
				dense = append(dense, it)
			}
		}
	}
	l := &lattice{}
	for _, p := range points {
		if !subset(dense, p.iters) {
			continue
		}
		if slices.ContainsFunc(l.points, func(q *point) bool { return sameIterators(p.iters, q.iters) }) {
			continue
		}
		l.points = append(l.points, p)
	}
	return l
}

func union(xs, ys []*iterator) []*iterator {
	r := slices.Clone(xs)
	for _, y := range ys {
		if !slices.Contains(r, y) {
			r = append(r, y)
		}
	}
	return r
}

func subset(xs, ys []*iterator) bool {
	for _, x := range xs {
		if !slices.Contains(ys, x) {
			return false
		}
	}
	return true
}

func sameIterators(xs, ys []*iterator) bool {
	return len(xs) == len(ys) && subset(xs, ys)
}

func intersects(xs, ys []*iterator) bool {
	return slices.ContainsFunc(xs, func(x *iterator) bool { return slices.Contains(ys, x) })
}

// sub returns the points of the lattice whose iterators are all in p.
func (l *lattice) sub(p *point) *lattice {
	s := &lattice{}
	for _, q := range l.points {
		if subset(q.iters, p.iters) {
			s.points = append(s.points, q)
		}
	}
	return s
}

// rangeIterators returns the iterators of a point a loop iterates over.
// Random access iterators are located instead when every point of the
// sub-lattice of p with the iterator also has one of the remaining iterators.
func (l *lattice) rangeIterators(p *point) []*iterator {
	sub := l.sub(p)
	iters := slices.Clone(p.iters)
	for i := len(iters) - 1; i >= 0; i-- {
		it := iters[i]
		if !it.isRandomAccess() {
			continue
		}
		rest := slices.Delete(slices.Clone(iters), i, i+1)
		if len(rest) == 0 {
			continue
		}
		located := true
		for _, q := range sub.points {
			if !slices.Contains(q.iters, it) || !intersects(q.iters, rest) {
				located = false
				break
			}
		}
		if located {
			iters = rest
		}
	}
	return iters
}

// allRangeIterators returns the range iterators of all the points.
func (l *lattice) allRangeIterators() []*iterator {
	var iters []*iterator
	for _, p := range l.points {
		iters = union(iters, l.rangeIterators(p))
	}
	return iters
}

// iterators returns the iterators of all the points.
func (l *lattice) iterators() []*iterator {
	var iters []*iterator
	for _, p := range l.points {
		iters = union(iters, p.iters)
	}
	return iters
}

// needsMerge returns true if the loop over the lattice has to co-iterate
// over more than one iterator.
func (l *lattice) needsMerge() bool {
	return len(l.points) > 1 || len(l.rangeIterators(l.points[0])) > 1
}

// isFull returns true if one of the points always matches: either a point
// only has a dense iterator or every iterator has its own point.
func (l *lattice) isFull() bool {
	alone := make(map[*iterator]bool)
	for _, p := range l.points {
		if len(p.iters) != 1 {
			continue
		}
		if p.iters[0].isDense() {
			return true
		}
		alone[p.iters[0]] = true
	}
	for _, it := range l.iterators() {
		if !alone[it] {
			return false
		}
	}
	return true
}

func (l *lattice) String() string {
	return "{" + gxfmt.Join(l.points, "; ") + "}"
}
