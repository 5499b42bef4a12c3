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

// Lit returns a literal.
func Lit(x float64) *Literal {
	return &Literal{Val: x}
}

// Add returns x + y.
func Add(x, y Expr) *Binary {
	return &Binary{Op: OpAdd, X: x, Y: y}
}

// Sub returns x - y.
func Sub(x, y Expr) *Binary {
	return &Binary{Op: OpSub, X: x, Y: y}
}

// Mul returns x * y.
func Mul(x, y Expr) *Binary {
	return &Binary{Op: OpMul, X: x, Y: y}
}

// Div returns x / y.
func Div(x, y Expr) *Binary {
	return &Binary{Op: OpDiv, X: x, Y: y}
}

// Min returns min(x, y).
func Min(x, y Expr) *Binary {
	return &Binary{Op: OpMin, X: x, Y: y}
}

// Max returns max(x, y).
func Max(x, y Expr) *Binary {
	return &Binary{Op: OpMax, X: x, Y: y}
}

// Sum reduces an expression over an index variable.
func Sum(v *IndexVar, x Expr) *Reduction {
	return &Reduction{Op: SumReduction, Var: v, X: x}
}

// Assign returns an assignment of an expression to a result access.
func Assign(lhs *Access, rhs Expr) *Assignment {
	return &Assignment{LHS: lhs, RHS: rhs}
}

// Foralls nests a statement in foralls over a list of index variables,
// the first variable being the outermost.
func Foralls(vars []*IndexVar, body Stmt) Stmt {
	for i := len(vars) - 1; i >= 0; i-- {
		body = &Forall{Var: vars[i], Body: body}
	}
	return body
}
