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

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/gx-org/tensorlower/build/notation"
)

// subExpr returns the smallest sub-expression of x with all the accesses
// indexed by one of vars, or nil if no access uses vars.
func subExpr(x notation.Expr, vars []*notation.IndexVar) notation.Expr {
	unary := func(y notation.Expr) notation.Expr {
		if subExpr(y, vars) != nil {
			return x
		}
		return nil
	}
	switch xT := x.(type) {
	case *notation.Access:
		for _, v := range xT.Vars {
			if slices.Contains(vars, v) {
				return x
			}
		}
		return nil
	case *notation.Literal:
		return nil
	case *notation.Neg:
		return unary(xT.X)
	case *notation.Sqrt:
		return unary(xT.X)
	case *notation.Cast:
		return unary(xT.X)
	case *notation.Map:
		return unary(xT.X)
	case *notation.Reduction:
		return unary(xT.X)
	case *notation.Binary:
		sx, sy := subExpr(xT.X, vars), subExpr(xT.Y, vars)
		switch {
		case sx != nil && sy != nil:
			return x
		case sx != nil:
			return sx
		}
		return sy
	case *notation.CallIntrinsic:
		for _, arg := range xT.Args {
			if subExpr(arg, vars) != nil {
				return x
			}
		}
		return nil
	}
	fmterr.Fail("cannot find sub-expressions of %T", x)
	return nil
}

func uses(x notation.Expr, v *notation.IndexVar) bool {
	return subExpr(x, []*notation.IndexVar{v}) != nil
}

// reducible returns true if summing x over v computes the same value as
// summing its smallest sub-expression using v.
func reducible(x notation.Expr, v *notation.IndexVar) bool {
	sub := subExpr(x, []*notation.IndexVar{v})
	if sub == nil {
		return false
	}
	if sub == x {
		return true
	}
	switch xT := x.(type) {
	case *notation.Neg:
		return reducible(xT.X, v)
	case *notation.Cast:
		return reducible(xT.X, v)
	case *notation.Binary:
		switch xT.Op {
		case notation.OpMul:
			return (!uses(xT.X, v) || reducible(xT.X, v)) && (!uses(xT.Y, v) || reducible(xT.Y, v))
		case notation.OpDiv:
			return !uses(xT.Y, v) && reducible(xT.X, v)
		}
	}
	return false
}

// stripReductions checks that explicit reductions can be scoped to the
// smallest sub-expression using their variable and removes them.
func stripReductions(x notation.Expr) (notation.Expr, error) {
	var errs fmterr.Errors
	notation.Inspect(x, func(n notation.Node) bool {
		red, ok := n.(*notation.Reduction)
		if !ok {
			return true
		}
		if !reducible(red.X, red.Var) {
			errs.Appendf("%s cannot be lowered: the reduction over %s is not scoped to the smallest sub-expression using %s", red, red.Var, red.Var)
		}
		return true
	})
	if !errs.Empty() {
		return nil, errs.ToError()
	}
	var strip func(notation.Expr) (notation.Expr, bool)
	strip = func(x notation.Expr) (notation.Expr, bool) {
		red, ok := x.(*notation.Reduction)
		if !ok {
			return nil, false
		}
		return notation.Rewrite(red.X, strip), true
	}
	return notation.Rewrite(x, strip), nil
}

// availableExprs returns the largest sub-expressions of x that can be
// computed once the variables in visited have a coordinate.
func availableExprs(x notation.Expr, visited []*notation.IndexVar) []notation.Expr {
	var exprs []notation.Expr
	collect := func(x notation.Expr) {
		if hasIndexedAccess(x) {
			exprs = append(exprs, x)
		}
	}
	var visit func(notation.Expr) bool
	visit = func(x notation.Expr) bool {
		switch xT := x.(type) {
		case *notation.Access:
			for _, v := range xT.Vars {
				if !slices.Contains(visited, v) {
					return false
				}
			}
			return true
		case *notation.Literal:
			return true
		case *notation.Neg:
			return visit(xT.X)
		case *notation.Sqrt:
			return visit(xT.X)
		case *notation.Cast:
			return visit(xT.X)
		case *notation.Map:
			return visit(xT.X)
		case *notation.Binary:
			ax, ay := visit(xT.X), visit(xT.Y)
			if ax && ay {
				return true
			}
			if ax {
				collect(xT.X)
			}
			if ay {
				collect(xT.Y)
			}
			return false
		case *notation.CallIntrinsic:
			available := make([]bool, len(xT.Args))
			all := true
			for i, arg := range xT.Args {
				available[i] = visit(arg)
				all = all && available[i]
			}
			if all {
				return true
			}
			for i, arg := range xT.Args {
				if available[i] {
					collect(arg)
				}
			}
		}
		return false
	}
	if visit(x) {
		collect(x)
	}
	return exprs
}

func hasIndexedAccess(x notation.Expr) bool {
	found := false
	notation.Inspect(x, func(n notation.Node) bool {
		if acc, ok := n.(*notation.Access); ok && len(acc.Vars) > 0 {
			found = true
		}
		return !found
	})
	return found
}

// lowerScalar returns the expression computing x at the current positions
// of the iterators.
func (ctx *context) lowerScalar(x notation.Expr) ir.Expr {
	switch xT := x.(type) {
	case *notation.Access:
		if tmp, ok := ctx.temps[xT.Tensor]; ok {
			return tmp
		}
		p, ok := ctx.paths[xT]
		fmterr.Assert(ok, "access %s has no path", xT)
		return ir.LoadAt(format.Values(p.tensor), ctx.position(p))
	case *notation.Literal:
		return ir.Float(dtype.Float64, xT.Val)
	case *notation.Neg:
		return ir.Neg(ctx.lowerScalar(xT.X))
	case *notation.Sqrt:
		return ir.Sqrt(ctx.lowerScalar(xT.X))
	case *notation.Reduction:
		return ctx.lowerScalar(xT.X)
	case *notation.Cast:
		return &ir.Cast{Typ: xT.Typ, X: ctx.lowerScalar(xT.X)}
	case *notation.Map:
		arg := ctx.lowerScalar(xT.X)
		return &ir.Call{Func: xT.Func, Args: []ir.Expr{arg}, Typ: arg.Type()}
	case *notation.CallIntrinsic:
		args := make([]ir.Expr, len(xT.Args))
		for i, arg := range xT.Args {
			args[i] = ctx.lowerScalar(arg)
		}
		typ := dtype.Float64
		if len(args) > 0 {
			typ = args[0].Type()
		}
		return &ir.Call{Func: xT.Name, Args: args, Typ: typ}
	case *notation.Binary:
		ex, ey := ctx.lowerScalar(xT.X), ctx.lowerScalar(xT.Y)
		switch xT.Op {
		case notation.OpAdd:
			return ir.Add(ex, ey)
		case notation.OpSub:
			return ir.Sub(ex, ey)
		case notation.OpMul:
			return ir.Mul(ex, ey)
		case notation.OpDiv:
			return ir.Div(ex, ey)
		case notation.OpMin:
			return ir.Min(ex, ey)
		case notation.OpMax:
			return ir.Max(ex, ey)
		}
	}
	fmterr.Fail("cannot lower %T to a scalar expression", x)
	return nil
}

// position returns the position of the last level of a path.
// When the positions are inlined, the position is computed from the
// coordinates of the variables with the locate functions of the levels.
func (ctx *context) position(p *path) ir.Expr {
	if !ctx.inline {
		return ctx.its.last(p).posExpr()
	}
	var pos ir.Expr = ir.Int(0)
	for _, it := range ctx.its.levels[p] {
		coords := append(it.parentCoords(ctx.coords), ctx.coords[p.vars[it.level]])
		pos = it.mode.Format.Locate(pos, coords, it.mode).Result(0)
	}
	return pos
}
