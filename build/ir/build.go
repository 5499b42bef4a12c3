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

import "github.com/gx-org/backend/dtype"

// Int returns an index literal.
func Int(x int) *Literal {
	return &Literal{Typ: IndexType, Int: int64(x)}
}

// Float returns a floating-point literal of a given type.
func Float(typ dtype.DataType, x float64) *Literal {
	return &Literal{Typ: typ, Float: x}
}

// Bool returns a boolean literal.
func Bool(x bool) *Literal {
	return &Literal{Typ: dtype.Bool, Bool: x}
}

// Zero returns the zero literal of a type.
func Zero(typ dtype.DataType) *Literal {
	switch {
	case isFloat(typ):
		return Float(typ, 0)
	case typ == dtype.Bool:
		return Bool(false)
	default:
		return &Literal{Typ: typ}
	}
}

// NewVar returns a scalar variable.
func NewVar(name string, typ dtype.DataType) *Var {
	return &Var{Name: name, Typ: typ, Kind: ScalarVar}
}

// NewIndexVar returns a scalar variable of the index type.
func NewIndexVar(name string) *Var {
	return NewVar(name, IndexType)
}

// NewArrayVar returns a variable holding an array of elements of a given type.
func NewArrayVar(name string, typ dtype.DataType) *Var {
	return &Var{Name: name, Typ: typ, Kind: ArrayVar}
}

// NewTensorVar returns a variable holding a tensor storage.
func NewTensorVar(name string, typ dtype.DataType) *Var {
	return &Var{Name: name, Typ: typ, Kind: TensorVar}
}

func intLit(x Expr) (int64, bool) {
	lit, ok := x.(*Literal)
	if !ok || isFloat(lit.Typ) || lit.Typ == dtype.Bool {
		return 0, false
	}
	return lit.Int, true
}

func isInt(x Expr, v int64) bool {
	got, ok := intLit(x)
	return ok && got == v
}

func foldInts(op BinaryOp, x, y Expr) (Expr, bool) {
	xv, xok := intLit(x)
	yv, yok := intLit(y)
	if !xok || !yok {
		return nil, false
	}
	var r int64
	switch op {
	case OpAdd:
		r = xv + yv
	case OpSub:
		r = xv - yv
	case OpMul:
		r = xv * yv
	case OpDiv:
		if yv == 0 {
			return nil, false
		}
		r = xv / yv
	case OpMin:
		r = min(xv, yv)
	case OpMax:
		r = max(xv, yv)
	default:
		return nil, false
	}
	return &Literal{Typ: x.Type(), Int: r}, true
}

// Add returns x+y, folding integer constants.
func Add(x, y Expr) Expr {
	if r, ok := foldInts(OpAdd, x, y); ok {
		return r
	}
	if isInt(x, 0) {
		return y
	}
	if isInt(y, 0) {
		return x
	}
	// (a - c) + c
	if sub, ok := x.(*Binary); ok && sub.Op == OpSub {
		if yv, ok := intLit(y); ok && isInt(sub.Y, yv) {
			return sub.X
		}
	}
	return &Binary{Op: OpAdd, X: x, Y: y}
}

// Sub returns x-y, folding integer constants.
func Sub(x, y Expr) Expr {
	if r, ok := foldInts(OpSub, x, y); ok {
		return r
	}
	if isInt(y, 0) {
		return x
	}
	return &Binary{Op: OpSub, X: x, Y: y}
}

// Mul returns x*y, folding integer constants.
func Mul(x, y Expr) Expr {
	if r, ok := foldInts(OpMul, x, y); ok {
		return r
	}
	if isInt(x, 1) {
		return y
	}
	if isInt(y, 1) {
		return x
	}
	if isInt(x, 0) || isInt(y, 0) {
		return Int(0)
	}
	return &Binary{Op: OpMul, X: x, Y: y}
}

// Div returns x/y.
func Div(x, y Expr) Expr {
	if r, ok := foldInts(OpDiv, x, y); ok {
		return r
	}
	if isInt(y, 1) {
		return x
	}
	return &Binary{Op: OpDiv, X: x, Y: y}
}

// Rem returns x%y.
func Rem(x, y Expr) Expr {
	return &Binary{Op: OpRem, X: x, Y: y}
}

func reduce(op BinaryOp, xs []Expr) Expr {
	r := xs[0]
	for _, x := range xs[1:] {
		if folded, ok := foldInts(op, r, x); ok {
			r = folded
			continue
		}
		r = &Binary{Op: op, X: r, Y: x}
	}
	return r
}

// Min returns the minimum of a non-empty list of expressions.
func Min(xs ...Expr) Expr {
	return reduce(OpMin, xs)
}

// Max returns the maximum of a non-empty list of expressions.
func Max(xs ...Expr) Expr {
	return reduce(OpMax, xs)
}

// Eq returns x==y.
func Eq(x, y Expr) Expr { return &Binary{Op: OpEq, X: x, Y: y} }

// Neq returns x!=y.
func Neq(x, y Expr) Expr { return &Binary{Op: OpNeq, X: x, Y: y} }

// Lt returns x<y.
func Lt(x, y Expr) Expr { return &Binary{Op: OpLt, X: x, Y: y} }

// Lte returns x<=y.
func Lte(x, y Expr) Expr { return &Binary{Op: OpLte, X: x, Y: y} }

// Gt returns x>y.
func Gt(x, y Expr) Expr { return &Binary{Op: OpGt, X: x, Y: y} }

// Gte returns x>=y.
func Gte(x, y Expr) Expr { return &Binary{Op: OpGte, X: x, Y: y} }

func isBool(x Expr, v bool) bool {
	lit, ok := x.(*Literal)
	return ok && lit.Typ == dtype.Bool && lit.Bool == v
}

// And returns the conjunction of expressions.
// True literals are dropped and an empty conjunction is true.
func And(xs ...Expr) Expr {
	var r Expr
	for _, x := range xs {
		if x == nil || isBool(x, true) {
			continue
		}
		if r == nil {
			r = x
			continue
		}
		r = &Binary{Op: OpAnd, X: r, Y: x}
	}
	if r == nil {
		return Bool(true)
	}
	return r
}

// Or returns the disjunction of expressions.
// False literals are dropped and an empty disjunction is false.
func Or(xs ...Expr) Expr {
	var r Expr
	for _, x := range xs {
		if x == nil || isBool(x, false) {
			continue
		}
		if r == nil {
			r = x
			continue
		}
		r = &Binary{Op: OpOr, X: r, Y: x}
	}
	if r == nil {
		return Bool(false)
	}
	return r
}

// Neg returns -x.
func Neg(x Expr) Expr {
	if v, ok := intLit(x); ok {
		return &Literal{Typ: x.Type(), Int: -v}
	}
	return &Unary{Op: OpNeg, X: x}
}

// Not returns !x.
func Not(x Expr) Expr {
	if lit, ok := x.(*Literal); ok && lit.Typ == dtype.Bool {
		return Bool(!lit.Bool)
	}
	return &Unary{Op: OpNot, X: x}
}

// Sqrt returns the square root of x.
func Sqrt(x Expr) Expr {
	return &Call{Func: "sqrt", Args: []Expr{x}, Typ: x.Type()}
}

// LoadAt returns the element at index of an array.
func LoadAt(array, index Expr) *Load {
	return &Load{Array: array, Index: index}
}

// IsTrue returns true if x is the true literal.
func IsTrue(x Expr) bool {
	return isBool(x, true)
}

// ----------------------------------------------------------------------------
// Statements.

// NewBlock returns a block of statements. Nil statements are dropped and
// statements of nested blocks are inlined.
func NewBlock(stmts ...Stmt) *Block {
	b := &Block{}
	for _, stmt := range stmts {
		b.append(stmt)
	}
	return b
}

func (b *Block) append(stmt Stmt) {
	switch s := stmt.(type) {
	case nil:
	case *Block:
		if s == nil {
			return
		}
		for _, sub := range s.Stmts {
			b.append(sub)
		}
	default:
		b.Stmts = append(b.Stmts, stmt)
	}
}

// Append statements at the end of the block.
func (b *Block) Append(stmts ...Stmt) {
	for _, stmt := range stmts {
		b.append(stmt)
	}
}

// Empty returns true if the block has no statement.
func (b *Block) Empty() bool {
	return b == nil || len(b.Stmts) == 0
}

// Decl declares a variable initialized with a value.
func Decl(v *Var, init Expr) *VarDecl {
	return &VarDecl{Var: v, Init: init}
}

// Set assigns a value to a variable.
func Set(v *Var, x Expr) *Assign {
	return &Assign{Var: v, Value: x}
}

// AddTo adds a value to a variable.
func AddTo(v *Var, x Expr) *Assign {
	return &Assign{Var: v, Value: x, Accumulate: true}
}

// StoreAt stores a value in an array.
func StoreAt(array, index, x Expr) *Store {
	return &Store{Array: array, Index: index, Value: x}
}

// If returns a conditional statement without else branch.
// The statement is dropped if the condition is the false literal and the
// condition is dropped if it is the true literal.
func If(cond Expr, then ...Stmt) Stmt {
	if isBool(cond, false) {
		return nil
	}
	if isBool(cond, true) {
		return NewBlock(then...)
	}
	return &IfThenElse{Cond: cond, Then: NewBlock(then...)}
}

// IfElse returns a conditional statement with an else branch.
func IfElse(cond Expr, then, els Stmt) *IfThenElse {
	return &IfThenElse{Cond: cond, Then: then, Else: els}
}

// Loop returns a serial for loop incrementing v by one.
func Loop(v *Var, start, end Expr, body ...Stmt) *For {
	return &For{Var: v, Start: start, End: end, Step: Int(1), Body: NewBlock(body...)}
}

// Alloc allocates an array.
func Alloc(array, size Expr) *Allocate {
	return &Allocate{Array: array, Size: size}
}

// Realloc resizes an array, keeping its content.
func Realloc(array, size Expr) *Allocate {
	return &Allocate{Array: array, Size: size, Realloc: true}
}
