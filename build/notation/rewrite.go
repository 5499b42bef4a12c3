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

// Inspect traverses a node in depth-first order. If f returns false,
// the children of the node are not inspected.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch nodeT := node.(type) {
	case *Neg:
		Inspect(nodeT.X, f)
	case *Sqrt:
		Inspect(nodeT.X, f)
	case *Binary:
		Inspect(nodeT.X, f)
		Inspect(nodeT.Y, f)
	case *Reduction:
		Inspect(nodeT.X, f)
	case *Cast:
		Inspect(nodeT.X, f)
	case *Map:
		Inspect(nodeT.X, f)
	case *CallIntrinsic:
		for _, arg := range nodeT.Args {
			Inspect(arg, f)
		}
	case *Assignment:
		Inspect(nodeT.LHS, f)
		Inspect(nodeT.RHS, f)
	case *Forall:
		Inspect(nodeT.Body, f)
	case *Where:
		Inspect(nodeT.Consumer, f)
		Inspect(nodeT.Producer, f)
	case *Sequence:
		Inspect(nodeT.Definition, f)
		Inspect(nodeT.Mutation, f)
	case *Multi:
		for _, stmt := range nodeT.Stmts {
			Inspect(stmt, f)
		}
	case *Yield:
		Inspect(nodeT.Expr, f)
	}
}

// Rewrite returns an expression where sub-expressions are replaced by f.
// f is called on a node before its children. If f returns true, its result
// replaces the node and the children are not visited.
// Nodes without any rewritten children are returned unchanged, keeping
// their identity.
func Rewrite(x Expr, f func(Expr) (Expr, bool)) Expr {
	if x == nil {
		return nil
	}
	if y, ok := f(x); ok {
		return y
	}
	switch xT := x.(type) {
	case *Neg:
		if sub := Rewrite(xT.X, f); sub != xT.X {
			return &Neg{X: sub}
		}
	case *Sqrt:
		if sub := Rewrite(xT.X, f); sub != xT.X {
			return &Sqrt{X: sub}
		}
	case *Binary:
		left, right := Rewrite(xT.X, f), Rewrite(xT.Y, f)
		if left != xT.X || right != xT.Y {
			return &Binary{Op: xT.Op, X: left, Y: right}
		}
	case *Reduction:
		if sub := Rewrite(xT.X, f); sub != xT.X {
			return &Reduction{Op: xT.Op, Var: xT.Var, X: sub}
		}
	case *Cast:
		if sub := Rewrite(xT.X, f); sub != xT.X {
			return &Cast{Typ: xT.Typ, X: sub}
		}
	case *Map:
		if sub := Rewrite(xT.X, f); sub != xT.X {
			return &Map{Func: xT.Func, X: sub}
		}
	case *CallIntrinsic:
		args := make([]Expr, len(xT.Args))
		changed := false
		for i, arg := range xT.Args {
			args[i] = Rewrite(arg, f)
			changed = changed || args[i] != arg
		}
		if changed {
			return &CallIntrinsic{Name: xT.Name, Args: args}
		}
	}
	return x
}

// Substitution replaces an expression by another.
type Substitution struct {
	From, To Expr
}

// Replace returns an expression where every sub-expression structurally
// equal to the From field of a substitution is replaced by its To field.
// Substitutions are tried in order.
func Replace(x Expr, subs ...Substitution) Expr {
	return Rewrite(x, func(x Expr) (Expr, bool) {
		for _, sub := range subs {
			if x == sub.From || Equal(x, sub.From) {
				return sub.To, true
			}
		}
		return nil, false
	})
}

// IndexVars returns the index variables of a node in order of first appearance.
func IndexVars(node Node) []*IndexVar {
	var vars []*IndexVar
	seen := make(map[*IndexVar]bool)
	add := func(v *IndexVar) {
		if !seen[v] {
			seen[v] = true
			vars = append(vars, v)
		}
	}
	Inspect(node, func(n Node) bool {
		switch nT := n.(type) {
		case *Access:
			for _, v := range nT.Vars {
				add(v)
			}
		case *Reduction:
			add(nT.Var)
		case *Forall:
			add(nT.Var)
		}
		return true
	})
	return vars
}

// Accesses returns the tensor accesses of a node in depth-first order.
func Accesses(node Node) []*Access {
	var accs []*Access
	Inspect(node, func(n Node) bool {
		if acc, ok := n.(*Access); ok {
			accs = append(accs, acc)
		}
		return true
	})
	return accs
}
