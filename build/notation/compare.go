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

package notation

import "slices"

// Equal returns true if two nodes are structurally equal.
// Tensors and index variables are compared by identity.
func Equal(x, y Node) bool {
	switch xT := x.(type) {
	case *Access:
		yT, ok := y.(*Access)
		return ok && xT.Tensor == yT.Tensor && slices.Equal(xT.Vars, yT.Vars)
	case *Literal:
		yT, ok := y.(*Literal)
		return ok && xT.Val == yT.Val
	case *Neg:
		yT, ok := y.(*Neg)
		return ok && Equal(xT.X, yT.X)
	case *Sqrt:
		yT, ok := y.(*Sqrt)
		return ok && Equal(xT.X, yT.X)
	case *Binary:
		yT, ok := y.(*Binary)
		return ok && xT.Op == yT.Op && Equal(xT.X, yT.X) && Equal(xT.Y, yT.Y)
	case *Reduction:
		yT, ok := y.(*Reduction)
		return ok && xT.Op == yT.Op && xT.Var == yT.Var && Equal(xT.X, yT.X)
	case *Cast:
		yT, ok := y.(*Cast)
		return ok && xT.Typ == yT.Typ && Equal(xT.X, yT.X)
	case *Map:
		yT, ok := y.(*Map)
		return ok && xT.Func == yT.Func && Equal(xT.X, yT.X)
	case *CallIntrinsic:
		yT, ok := y.(*CallIntrinsic)
		return ok && xT.Name == yT.Name && equalExprs(xT.Args, yT.Args)
	case *Assignment:
		yT, ok := y.(*Assignment)
		return ok && xT.Accumulate == yT.Accumulate && Equal(xT.LHS, yT.LHS) && Equal(xT.RHS, yT.RHS)
	case *Forall:
		yT, ok := y.(*Forall)
		return ok && xT.Var == yT.Var && Equal(xT.Body, yT.Body)
	case *Where:
		yT, ok := y.(*Where)
		return ok && Equal(xT.Consumer, yT.Consumer) && Equal(xT.Producer, yT.Producer)
	case *Sequence:
		yT, ok := y.(*Sequence)
		return ok && Equal(xT.Definition, yT.Definition) && Equal(xT.Mutation, yT.Mutation)
	case *Multi:
		yT, ok := y.(*Multi)
		if !ok || len(xT.Stmts) != len(yT.Stmts) {
			return false
		}
		for i, stmt := range xT.Stmts {
			if !Equal(stmt, yT.Stmts[i]) {
				return false
			}
		}
		return true
	case *Yield:
		yT, ok := y.(*Yield)
		return ok && slices.Equal(xT.Vars, yT.Vars) && Equal(xT.Expr, yT.Expr)
	case nil:
		return y == nil
	}
	return false
}

func equalExprs(xs, ys []Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if !Equal(x, ys[i]) {
			return false
		}
	}
	return true
}
