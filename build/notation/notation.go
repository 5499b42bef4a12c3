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

// Package notation defines tensor index notation: statements assigning
// index expressions over tensor accesses to a result tensor.
//
// Expressions and statements are trees of pointers. Two nodes are the same
// node if their pointers are equal. Equal compares nodes structurally.
package notation

import (
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/build/format"
)

type (
	// Node in the index notation tree.
	Node interface {
		node()
		String() string
	}

	// Expr is an index expression.
	Expr interface {
		Node
		expr()
	}

	// Stmt is an index statement.
	Stmt interface {
		Node
		stmt()
	}
)

// IndexVar is an index variable ranging over a dimension of the tensors it indexes.
// Index variables are compared by identity: two variables with the same name
// are different variables.
type IndexVar struct {
	Name string
}

// NewIndexVar returns a new index variable.
func NewIndexVar(name string) *IndexVar {
	return &IndexVar{Name: name}
}

// NewIndexVars returns a list of new index variables.
func NewIndexVars(names ...string) []*IndexVar {
	vars := make([]*IndexVar, len(names))
	for i, name := range names {
		vars[i] = NewIndexVar(name)
	}
	return vars
}

func (v *IndexVar) String() string {
	return v.Name
}

// UnknownDim is the size of a dimension not known at compile time.
const UnknownDim = -1

// TensorVar is a tensor declared with a storage format.
type TensorVar struct {
	Name   string
	Dims   []int
	Format *format.Format
	DType  dtype.DataType
}

// NewTensor returns a float64 tensor.
func NewTensor(name string, dims []int, f *format.Format) *TensorVar {
	return &TensorVar{Name: name, Dims: dims, Format: f, DType: dtype.Float64}
}

// NewScalar returns a tensor of order 0.
func NewScalar(name string) *TensorVar {
	return &TensorVar{Name: name, Format: format.Scalar(), DType: dtype.Float64}
}

// Order returns the number of dimensions of the tensor.
func (t *TensorVar) Order() int {
	return len(t.Dims)
}

// At returns an access of the tensor with a list of index variables.
func (t *TensorVar) At(vars ...*IndexVar) *Access {
	return &Access{Tensor: t, Vars: vars}
}

func (t *TensorVar) String() string {
	return t.Name
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	// OpAdd adds two expressions.
	OpAdd BinaryOp = iota
	// OpSub subtracts two expressions.
	OpSub
	// OpMul multiplies two expressions.
	OpMul
	// OpDiv divides two expressions.
	OpDiv
	// OpMin is the minimum of two expressions.
	OpMin
	// OpMax is the maximum of two expressions.
	OpMax
)

// ReductionOp combines the values of a reduction.
type ReductionOp int

const (
	// SumReduction sums the values.
	SumReduction ReductionOp = iota
	// ProdReduction multiplies the values.
	ProdReduction
)

type (
	// Access reads a tensor component.
	Access struct {
		Tensor *TensorVar
		Vars   []*IndexVar
	}

	// Literal is a constant.
	Literal struct {
		Val float64
	}

	// Neg negates an expression.
	Neg struct {
		X Expr
	}

	// Sqrt is the square root of an expression.
	Sqrt struct {
		X Expr
	}

	// Binary applies a binary operator.
	Binary struct {
		Op   BinaryOp
		X, Y Expr
	}

	// Reduction reduces an expression over an index variable.
	Reduction struct {
		Op  ReductionOp
		Var *IndexVar
		X   Expr
	}

	// Cast converts an expression to a data type.
	Cast struct {
		Typ dtype.DataType
		X   Expr
	}

	// Map applies a named function to every component of an expression.
	Map struct {
		Func string
		X    Expr
	}

	// CallIntrinsic calls a named intrinsic function.
	// Intrinsics are zero when any of their argument is zero.
	CallIntrinsic struct {
		Name string
		Args []Expr
	}
)

var (
	_ Expr = (*Access)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*Neg)(nil)
	_ Expr = (*Sqrt)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*Reduction)(nil)
	_ Expr = (*Cast)(nil)
	_ Expr = (*Map)(nil)
	_ Expr = (*CallIntrinsic)(nil)
)

func (*Access) node()        {}
func (*Literal) node()       {}
func (*Neg) node()           {}
func (*Sqrt) node()          {}
func (*Binary) node()        {}
func (*Reduction) node()     {}
func (*Cast) node()          {}
func (*Map) node()           {}
func (*CallIntrinsic) node() {}

func (*Access) expr()        {}
func (*Literal) expr()       {}
func (*Neg) expr()           {}
func (*Sqrt) expr()          {}
func (*Binary) expr()        {}
func (*Reduction) expr()     {}
func (*Cast) expr()          {}
func (*Map) expr()           {}
func (*CallIntrinsic) expr() {}

type (
	// Assignment assigns an expression to the components of a result tensor.
	// If Accumulate is true, the expression is added to the result.
	Assignment struct {
		LHS        *Access
		RHS        Expr
		Accumulate bool
	}

	// Forall executes its body for every value of an index variable.
	Forall struct {
		Var  *IndexVar
		Body Stmt
	}

	// Where computes Producer into a temporary before Consumer reads it.
	Where struct {
		Consumer Stmt
		Producer Stmt
	}

	// Sequence executes Definition and then Mutation.
	Sequence struct {
		Definition Stmt
		Mutation   Stmt
	}

	// Multi computes several results in one statement.
	Multi struct {
		Stmts []Stmt
	}

	// Yield produces an expression for a list of index variables.
	Yield struct {
		Vars []*IndexVar
		Expr Expr
	}
)

var (
	_ Stmt = (*Assignment)(nil)
	_ Stmt = (*Forall)(nil)
	_ Stmt = (*Where)(nil)
	_ Stmt = (*Sequence)(nil)
	_ Stmt = (*Multi)(nil)
	_ Stmt = (*Yield)(nil)
)

func (*Assignment) node() {}
func (*Forall) node()     {}
func (*Where) node()      {}
func (*Sequence) node()   {}
func (*Multi) node()      {}
func (*Yield) node()      {}

func (*Assignment) stmt() {}
func (*Forall) stmt()     {}
func (*Where) stmt()      {}
func (*Sequence) stmt()   {}
func (*Multi) stmt()      {}
func (*Yield) stmt()      {}
