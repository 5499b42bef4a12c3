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

package ir

// Equal returns true if two nodes are structurally equal.
// Variables are equal if they have the same name, type and kind.
func Equal(x, y Node) bool {
	if x == nil || y == nil {
		return isNil(x) && isNil(y)
	}
	switch xT := x.(type) {
	case *Var:
		yT, ok := y.(*Var)
		return ok && *xT == *yT
	case *Literal:
		yT, ok := y.(*Literal)
		return ok && *xT == *yT
	case *Binary:
		yT, ok := y.(*Binary)
		return ok && xT.Op == yT.Op && Equal(xT.X, yT.X) && Equal(xT.Y, yT.Y)
	case *Unary:
		yT, ok := y.(*Unary)
		return ok && xT.Op == yT.Op && Equal(xT.X, yT.X)
	case *Call:
		yT, ok := y.(*Call)
		return ok && xT.Func == yT.Func && xT.Typ == yT.Typ && equalExprs(xT.Args, yT.Args)
	case *Cast:
		yT, ok := y.(*Cast)
		return ok && xT.Typ == yT.Typ && Equal(xT.X, yT.X)
	case *Load:
		yT, ok := y.(*Load)
		return ok && Equal(xT.Array, yT.Array) && Equal(xT.Index, yT.Index)
	case *GetProperty:
		yT, ok := y.(*GetProperty)
		return ok && Equal(xT.Tensor, yT.Tensor) && xT.Prop == yT.Prop && xT.Mode == yT.Mode &&
			xT.Index == yT.Index && xT.Name == yT.Name && xT.Typ == yT.Typ
	case *Block:
		yT, ok := y.(*Block)
		if !ok || len(xT.Stmts) != len(yT.Stmts) {
			return false
		}
		for i := range xT.Stmts {
			if !Equal(xT.Stmts[i], yT.Stmts[i]) {
				return false
			}
		}
		return true
	case *VarDecl:
		yT, ok := y.(*VarDecl)
		return ok && Equal(xT.Var, yT.Var) && Equal(xT.Init, yT.Init)
	case *Assign:
		yT, ok := y.(*Assign)
		return ok && xT.Accumulate == yT.Accumulate && Equal(xT.Var, yT.Var) && Equal(xT.Value, yT.Value)
	case *Store:
		yT, ok := y.(*Store)
		return ok && xT.Accumulate == yT.Accumulate && Equal(xT.Array, yT.Array) &&
			Equal(xT.Index, yT.Index) && Equal(xT.Value, yT.Value)
	case *IfThenElse:
		yT, ok := y.(*IfThenElse)
		return ok && Equal(xT.Cond, yT.Cond) && Equal(xT.Then, yT.Then) && Equal(xT.Else, yT.Else)
	case *Case:
		yT, ok := y.(*Case)
		if !ok || xT.AlwaysMatch != yT.AlwaysMatch || len(xT.Clauses) != len(yT.Clauses) {
			return false
		}
		for i, clause := range xT.Clauses {
			if !Equal(clause.Cond, yT.Clauses[i].Cond) || !Equal(clause.Body, yT.Clauses[i].Body) {
				return false
			}
		}
		return true
	case *For:
		yT, ok := y.(*For)
		return ok && xT.Kind == yT.Kind && Equal(xT.Var, yT.Var) && Equal(xT.Start, yT.Start) &&
			Equal(xT.End, yT.End) && Equal(xT.Step, yT.Step) && Equal(xT.Body, yT.Body)
	case *While:
		yT, ok := y.(*While)
		return ok && Equal(xT.Cond, yT.Cond) && Equal(xT.Body, yT.Body)
	case *Allocate:
		yT, ok := y.(*Allocate)
		return ok && xT.Realloc == yT.Realloc && Equal(xT.Array, yT.Array) && Equal(xT.Size, yT.Size)
	case *Free:
		yT, ok := y.(*Free)
		return ok && Equal(xT.Array, yT.Array)
	case *Comment:
		yT, ok := y.(*Comment)
		return ok && xT.Text == yT.Text
	case *BlankLine:
		_, ok := y.(*BlankLine)
		return ok
	case *Function:
		yT, ok := y.(*Function)
		return ok && xT.Name == yT.Name && equalVars(xT.Inputs, yT.Inputs) &&
			equalVars(xT.Outputs, yT.Outputs) && Equal(xT.Body, yT.Body)
	}
	return false
}

func isNil(x Node) bool {
	if x == nil {
		return true
	}
	switch xT := x.(type) {
	case *Block:
		return xT == nil
	case *Var:
		return xT == nil
	}
	return false
}

func equalExprs(xs, ys []Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}

func equalVars(xs, ys []*Var) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if *xs[i] != *ys[i] {
			return false
		}
	}
	return true
}
