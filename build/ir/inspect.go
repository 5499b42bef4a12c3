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

// Inspect traverses a node in depth-first order.
// It calls f on every node. If f returns false, the children of the node are skipped.
func Inspect(node Node, f func(Node) bool) {
	if isNil(node) || !f(node) {
		return
	}
	var children []Node
	switch n := node.(type) {
	case *Binary:
		children = []Node{n.X, n.Y}
	case *Unary:
		children = []Node{n.X}
	case *Call:
		for _, arg := range n.Args {
			children = append(children, arg)
		}
	case *Cast:
		children = []Node{n.X}
	case *Load:
		children = []Node{n.Array, n.Index}
	case *GetProperty:
		children = []Node{n.Tensor}
	case *Block:
		for _, stmt := range n.Stmts {
			children = append(children, stmt)
		}
	case *VarDecl:
		children = []Node{n.Var, n.Init}
	case *Assign:
		children = []Node{n.Var, n.Value}
	case *Store:
		children = []Node{n.Array, n.Index, n.Value}
	case *IfThenElse:
		children = []Node{n.Cond, n.Then, n.Else}
	case *Case:
		for _, clause := range n.Clauses {
			children = append(children, clause.Cond, clause.Body)
		}
	case *For:
		children = []Node{n.Var, n.Start, n.End, n.Step, n.Body}
	case *While:
		children = []Node{n.Cond, n.Body}
	case *Allocate:
		children = []Node{n.Array, n.Size}
	case *Free:
		children = []Node{n.Array}
	case *Function:
		for _, v := range n.Inputs {
			children = append(children, v)
		}
		for _, v := range n.Outputs {
			children = append(children, v)
		}
		children = append(children, n.Body)
	}
	for _, child := range children {
		Inspect(child, f)
	}
}
