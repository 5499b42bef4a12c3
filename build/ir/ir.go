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

// Package ir is the abstract-machine program emitted by the lowering engine.
//
// A program is a set of functions made of imperative statements: variable
// declarations, loops, conditionals, loads and stores into arrays, and
// allocations. Arrays are either components of a tensor storage (index arrays
// of a level or the values array) or temporary arrays declared by the program.
//
// Nodes are immutable once built. Two nodes are the same node if they are the
// same pointer. Equal compares nodes structurally.
package ir

import "github.com/gx-org/backend/dtype"

// IndexType is the data type of positions, coordinates and sizes.
const IndexType = dtype.Int32

// ----------------------------------------------------------------------------
// Types of node in the tree.
type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()

		// String returns the node as it appears in printed programs.
		String() string
	}

	// Expr is an expression computing a value.
	Expr interface {
		Node
		// Type of the value computed by the expression.
		// For arrays, this is the type of the array elements.
		Type() dtype.DataType
		expr()
	}

	// Stmt is a statement.
	Stmt interface {
		Node
		stmt()
	}
)

// ----------------------------------------------------------------------------
// Expressions.

// VarKind is the kind of value a variable holds.
type VarKind int

const (
	// ScalarVar holds a scalar.
	ScalarVar VarKind = iota
	// ArrayVar holds an array.
	ArrayVar
	// TensorVar holds a tensor storage.
	TensorVar
)

// BinaryOp is the operator of a binary expression.
type BinaryOp int

// Binary operators.
const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpMin
	OpMax
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

// IsComparison returns true if the operator returns a boolean.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEq
}

// UnaryOp is the operator of a unary expression.
type UnaryOp int

// Unary operators.
const (
	OpNeg UnaryOp = iota
	OpNot
)

// Property is a component of a tensor storage.
type Property int

const (
	// Values is the array of values of a tensor.
	Values Property = iota
	// Indices is an index array of a level.
	Indices
	// Dimension is the size of a logical dimension.
	Dimension
	// Order is the number of dimensions of a tensor.
	Order
)

type (
	// Var is a variable.
	Var struct {
		Name string
		Typ  dtype.DataType
		Kind VarKind
	}

	// Literal is a constant scalar.
	// Only the field matching the type is used.
	Literal struct {
		Typ   dtype.DataType
		Int   int64
		Float float64
		Bool  bool
	}

	// Binary applies a binary operator to two expressions.
	Binary struct {
		Op   BinaryOp
		X, Y Expr
	}

	// Unary applies a unary operator to an expression.
	Unary struct {
		Op UnaryOp
		X  Expr
	}

	// Call calls an intrinsic function (for example sqrt).
	Call struct {
		Func string
		Args []Expr
		Typ  dtype.DataType
	}

	// Cast converts a value into another type.
	Cast struct {
		Typ dtype.DataType
		X   Expr
	}

	// Load reads an element of an array.
	Load struct {
		Array Expr
		Index Expr
	}

	// GetProperty refers to a component of a tensor storage.
	GetProperty struct {
		Tensor *Var
		Prop   Property
		// Mode is the level of an Indices property (starting at 0)
		// or the logical dimension of a Dimension property.
		Mode int
		// Index is the index of an array in a level.
		Index int
		// Name of the property in printed programs.
		Name string
		Typ  dtype.DataType
	}
)

var (
	_ Expr = (*Var)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*Unary)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Cast)(nil)
	_ Expr = (*Load)(nil)
	_ Expr = (*GetProperty)(nil)
)

func (*Var) node()         {}
func (*Literal) node()     {}
func (*Binary) node()      {}
func (*Unary) node()       {}
func (*Call) node()        {}
func (*Cast) node()        {}
func (*Load) node()        {}
func (*GetProperty) node() {}

func (*Var) expr()         {}
func (*Literal) expr()     {}
func (*Binary) expr()      {}
func (*Unary) expr()       {}
func (*Call) expr()        {}
func (*Cast) expr()        {}
func (*Load) expr()        {}
func (*GetProperty) expr() {}

// Type of the variable.
func (v *Var) Type() dtype.DataType { return v.Typ }

// Type of the literal.
func (l *Literal) Type() dtype.DataType { return l.Typ }

// Type of the result.
func (b *Binary) Type() dtype.DataType {
	if b.Op.IsComparison() {
		return dtype.Bool
	}
	xt, yt := b.X.Type(), b.Y.Type()
	if isFloat(yt) && !isFloat(xt) {
		return yt
	}
	return xt
}

// Type of the result.
func (u *Unary) Type() dtype.DataType {
	if u.Op == OpNot {
		return dtype.Bool
	}
	return u.X.Type()
}

// Type returned by the function.
func (c *Call) Type() dtype.DataType { return c.Typ }

// Type of the converted value.
func (c *Cast) Type() dtype.DataType { return c.Typ }

// Type of the array elements.
func (l *Load) Type() dtype.DataType { return l.Array.Type() }

// Type of the property or of its elements.
func (p *GetProperty) Type() dtype.DataType { return p.Typ }

// IsArray returns true if the property is an array.
func (p *GetProperty) IsArray() bool {
	return p.Prop == Values || p.Prop == Indices
}

// IsInt returns true if the literal is an integer equal to x.
func (l *Literal) IsInt(x int64) bool {
	return !isFloat(l.Typ) && l.Typ != dtype.Bool && l.Int == x
}

// ----------------------------------------------------------------------------
// Statements.

// LoopKind annotates how the iterations of a loop can be scheduled.
type LoopKind int

const (
	// Serial loops execute their iterations in order.
	Serial LoopKind = iota
	// Static loops can be run in parallel with a static schedule.
	Static
	// Dynamic loops can be run in parallel with a dynamic schedule.
	Dynamic
)

type (
	// Block is a list of statements with its own variable scope.
	Block struct {
		Stmts []Stmt
	}

	// VarDecl declares a variable in the current scope.
	VarDecl struct {
		Var  *Var
		Init Expr
	}

	// Assign a value to a variable.
	// If Accumulate is true, the value is added to the variable.
	Assign struct {
		Var        *Var
		Value      Expr
		Accumulate bool
	}

	// Store a value in an array.
	// If Accumulate is true, the value is added to the array element.
	Store struct {
		Array      Expr
		Index      Expr
		Value      Expr
		Accumulate bool
	}

	// IfThenElse executes Then if Cond is true, Else otherwise.
	// Else may be nil.
	IfThenElse struct {
		Cond Expr
		Then Stmt
		Else Stmt
	}

	// Clause of a case statement.
	Clause struct {
		Cond Expr
		Body Stmt
	}

	// Case executes the body of the first clause with a true condition.
	// If AlwaysMatch is true, the last clause is known to match when
	// none of the previous clauses match and its condition is not checked.
	Case struct {
		Clauses     []Clause
		AlwaysMatch bool
	}

	// For executes its body for Var in [Start, End) by increments of Step.
	For struct {
		Var   *Var
		Start Expr
		End   Expr
		Step  Expr
		Body  Stmt
		Kind  LoopKind
	}

	// While executes its body while Cond is true.
	While struct {
		Cond Expr
		Body Stmt
	}

	// Allocate an array of a given number of elements.
	// If Realloc is true, the array keeps its content up to the new size.
	Allocate struct {
		Array   Expr
		Size    Expr
		Realloc bool
	}

	// Free releases an array.
	Free struct {
		Array Expr
	}

	// Comment in the program.
	Comment struct {
		Text string
	}

	// BlankLine separates statements in printed programs.
	BlankLine struct{}
)

var (
	_ Stmt = (*Block)(nil)
	_ Stmt = (*VarDecl)(nil)
	_ Stmt = (*Assign)(nil)
	_ Stmt = (*Store)(nil)
	_ Stmt = (*IfThenElse)(nil)
	_ Stmt = (*Case)(nil)
	_ Stmt = (*For)(nil)
	_ Stmt = (*While)(nil)
	_ Stmt = (*Allocate)(nil)
	_ Stmt = (*Free)(nil)
	_ Stmt = (*Comment)(nil)
	_ Stmt = (*BlankLine)(nil)
)

func (*Block) node()      {}
func (*VarDecl) node()    {}
func (*Assign) node()     {}
func (*Store) node()      {}
func (*IfThenElse) node() {}
func (*Case) node()       {}
func (*For) node()        {}
func (*While) node()      {}
func (*Allocate) node()   {}
func (*Free) node()       {}
func (*Comment) node()    {}
func (*BlankLine) node()  {}

func (*Block) stmt()      {}
func (*VarDecl) stmt()    {}
func (*Assign) stmt()     {}
func (*Store) stmt()      {}
func (*IfThenElse) stmt() {}
func (*Case) stmt()       {}
func (*For) stmt()        {}
func (*While) stmt()      {}
func (*Allocate) stmt()   {}
func (*Free) stmt()       {}
func (*Comment) stmt()    {}
func (*BlankLine) stmt()  {}

// Function is a named program taking tensors and arrays as inputs
// and producing tensors.
type Function struct {
	Name    string
	Inputs  []*Var
	Outputs []*Var
	Body    *Block
}

func (*Function) node() {}

func isFloat(t dtype.DataType) bool {
	return t == dtype.Float32 || t == dtype.Float64
}
