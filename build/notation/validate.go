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

import (
	"slices"

	"github.com/gx-org/tensorlower/build/fmterr"
)

type validator struct {
	errs    fmterr.Errors
	dims    map[*IndexVar]int
	foralls []*IndexVar
}

// Validate checks that a statement can be lowered.
// It returns all the user errors found in the statement.
func Validate(stmt Stmt) error {
	v := &validator{dims: make(map[*IndexVar]int)}
	v.stmt(stmt)
	return v.errs.ToError()
}

func (v *validator) stmt(stmt Stmt) {
	switch stmtT := stmt.(type) {
	case *Forall:
		if slices.Contains(v.foralls, stmtT.Var) {
			v.errs.Appendf("index variable %s is bound by more than one forall", stmtT.Var)
		}
		v.foralls = append(v.foralls, stmtT.Var)
		v.stmt(stmtT.Body)
	case *Assignment:
		v.assignment(stmtT)
	case nil:
		v.errs.Appendf(fmterr.MsgCompileWithoutExpr)
	default:
		v.errs.Appendf("%T statements cannot be lowered: %s", stmt, stmt)
	}
}

func (v *validator) assignment(assign *Assignment) {
	var errs fmterr.Errors
	defer func() {
		v.errs.Append(errs.Transform(fmterr.PrefixWith(assign.String())).ToError())
	}()
	if assign.LHS == nil || assign.RHS == nil {
		errs.Appendf(fmterr.MsgCompileWithoutExpr)
		return
	}
	v.access(&errs, assign.LHS)
	for _, acc := range Accesses(assign.RHS) {
		v.access(&errs, acc)
		if acc.Tensor == assign.LHS.Tensor {
			errs.Appendf("result tensor %s cannot also be an operand", acc.Tensor.Name)
		}
	}
	rhsVars := IndexVars(assign.RHS)
	for _, fv := range assign.LHS.Vars {
		if !slices.Contains(rhsVars, fv) {
			errs.Appendf("%s (%s does not appear on the right hand side)", fmterr.MsgDistribution, fv)
		}
	}
	Inspect(assign.RHS, func(n Node) bool {
		red, ok := n.(*Reduction)
		if !ok {
			return true
		}
		if slices.Contains(assign.LHS.Vars, red.Var) {
			errs.Appendf("reduction variable %s is also a free variable", red.Var)
		}
		if red.Op != SumReduction {
			errs.Appendf("%s reductions cannot be lowered", red.Op)
		}
		return true
	})
	if len(v.foralls) == 0 {
		return
	}
	all := IndexVars(assign)
	for _, iv := range all {
		if !slices.Contains(v.foralls, iv) {
			errs.Appendf("index variable %s is not bound by a forall", iv)
		}
	}
	for _, iv := range v.foralls {
		if !slices.Contains(all, iv) {
			errs.Appendf("forall over %s does not index any tensor", iv)
		}
	}
}

func (v *validator) access(errs *fmterr.Errors, acc *Access) {
	tensor := acc.Tensor
	if len(acc.Vars) != tensor.Order() {
		errs.Appendf("%s: tensor %s of order %d is indexed by %d index variables", acc, tensor.Name, tensor.Order(), len(acc.Vars))
		return
	}
	if tensor.Format == nil {
		errs.Appendf("%s: tensor %s has no format", acc, tensor.Name)
	} else if tensor.Format.Order() != tensor.Order() {
		errs.Appendf("%s: tensor %s of order %d has a format of %d levels", acc, tensor.Name, tensor.Order(), tensor.Format.Order())
	}
	for i, iv := range acc.Vars {
		if slices.Index(acc.Vars, iv) != i {
			errs.Appendf("%s: index variable %s indexes more than one dimension", acc, iv)
			continue
		}
		dim := tensor.Dims[i]
		if dim == UnknownDim {
			continue
		}
		prev, ok := v.dims[iv]
		if !ok {
			v.dims[iv] = dim
			continue
		}
		if prev != dim {
			errs.Appendf("%s %s: %s has size %d but %s ranges over %d", fmterr.MsgDimensionMismatch, acc, tensor.Name, dim, iv, prev)
		}
	}
}
