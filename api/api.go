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

// Package api compiles index notation statements into kernels and runs
// the kernels on tensor storages.
package api

import (
	"maps"
	"slices"

	"github.com/gx-org/tensorlower/api/storage"
	"github.com/gx-org/tensorlower/build/attrquery"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/lower"
	"github.com/gx-org/tensorlower/build/notation"
	"github.com/gx-org/tensorlower/interp"
	"github.com/pkg/errors"
)

// patternAllocSize is the initial capacity of the arrays of the pattern
// of a result computed to answer attribute queries.
const patternAllocSize = 1 << 10

// Kernel is a compiled statement.
type Kernel struct {
	// Assemble assembles the index arrays of the result and allocates its values.
	Assemble *lower.Program
	// Compute computes the values of an assembled result.
	Compute  *lower.Program

	// pattern assembles the coordinates of the result queried by the
	// attribute queries of Assemble. It is nil if there is no query.
	pattern *lower.Program
	lhs     *notation.Access
}

// Compile lowers a statement into the programs of a kernel.
func Compile(stmt notation.Stmt, opts ...lower.Option) (k *Kernel, err error) {
	defer fmterr.Recover(&err)
	if stmt == nil {
		return nil, fmterr.Errorf(fmterr.MsgCompileWithoutExpr)
	}
	k = &Kernel{}
	if k.Assemble, err = lower.Lower(stmt, append(slices.Clone(opts), lower.WithAssemble())...); err != nil {
		return nil, err
	}
	if k.Compute, err = lower.Lower(stmt, append(slices.Clone(opts), lower.WithCompute())...); err != nil {
		return nil, err
	}
	if len(k.Assemble.Queries) == 0 {
		return k, nil
	}
	var pattern notation.Stmt
	pattern, k.lhs = patternOf(stmt)
	if k.pattern, err = lower.Lower(pattern, lower.WithAssemble(), lower.WithAllocSize(patternAllocSize)); err != nil {
		return nil, err
	}
	return k, nil
}

// patternOf returns a statement assembling the coordinates of the result
// of a statement. Levels of the result are dense or compressed.
func patternOf(stmt notation.Stmt) (notation.Stmt, *notation.Access) {
	var foralls []*notation.IndexVar
	for {
		forall, ok := stmt.(*notation.Forall)
		if !ok {
			break
		}
		foralls = append(foralls, forall.Var)
		stmt = forall.Body
	}
	assign := stmt.(*notation.Assignment)
	result := assign.LHS.Tensor
	levels := make([]format.ModeFormat, result.Format.Order())
	for l, level := range result.Format.Levels() {
		levels[l] = format.Compressed
		if level.Name() == "dense" {
			levels[l] = format.Dense
		}
	}
	pattern := &notation.TensorVar{
		Name:   result.Name,
		Dims:   result.Dims,
		Format: format.MustNew(levels, format.WithOrdering(result.Format.Ordering()...)),
		DType:  result.DType,
	}
	return notation.Foralls(foralls, &notation.Assignment{
		LHS:        pattern.At(assign.LHS.Vars...),
		RHS:        assign.RHS,
		Accumulate: assign.Accumulate,
	}), assign.LHS
}

// answerQueries assembles the pattern of the result and evaluates the
// attribute queries of the kernel on its coordinates.
func (k *Kernel) answerQueries(args interp.Args, dims []int) error {
	if k.pattern == nil {
		return nil
	}
	pattern := storage.New(dims, k.pattern.Result.Format)
	patternArgs := maps.Clone(args)
	patternArgs[k.pattern.Result.Name] = pattern
	if err := interp.Run(k.pattern.Func, patternArgs); err != nil {
		return errors.Wrap(err, "cannot assemble the pattern of the result")
	}
	entries, err := pattern.Unpack(k.pattern.Result.Format)
	if err != nil {
		return err
	}
	rel := attrquery.Relation{Rows: make([][]int, len(entries))}
	for _, v := range k.lhs.Vars {
		rel.Columns = append(rel.Columns, v.Name)
	}
	for i, entry := range entries {
		rel.Rows[i] = entry.Coords
	}
	for _, q := range k.Assemble.Queries {
		res, err := attrquery.Eval(q.Query, rel)
		if err != nil {
			return err
		}
		groupDims := make([]int, len(q.GroupBy))
		for i, d := range q.GroupBy {
			groupDims[i] = dims[d]
		}
		for attr, array := range q.Arrays {
			vals, err := res.Dense(attr, groupDims)
			if err != nil {
				return err
			}
			args[array.Name] = vals
		}
	}
	return nil
}

// Result returns the tensor written by the kernel.
func (k *Kernel) Result() *notation.TensorVar {
	return k.Assemble.Result
}

// RunAssemble assembles the index arrays of a result.
func (k *Kernel) RunAssemble(result *storage.Storage, operands map[string]*storage.Storage) error {
	if k == nil || k.Assemble == nil {
		return fmterr.Errorf(fmterr.MsgAssembleWithoutCompile)
	}
	args, err := k.args(result, operands)
	if err != nil {
		return err
	}
	return interp.Run(k.Assemble.Func, args)
}

// RunCompute computes the values of a result assembled by RunAssemble.
func (k *Kernel) RunCompute(result *storage.Storage, operands map[string]*storage.Storage) error {
	if k == nil || k.Compute == nil {
		return fmterr.Errorf(fmterr.MsgComputeWithoutCompile)
	}
	args, err := k.args(result, operands)
	if err != nil {
		return err
	}
	return interp.Run(k.Compute.Func, args)
}

// Run assembles and computes a result.
func (k *Kernel) Run(result *storage.Storage, operands map[string]*storage.Storage) error {
	if err := k.RunAssemble(result, operands); err != nil {
		return err
	}
	return k.RunCompute(result, operands)
}

func (k *Kernel) args(result *storage.Storage, operands map[string]*storage.Storage) (interp.Args, error) {
	if result == nil {
		return nil, fmterr.Errorf("no storage for the result %s", k.Result().Name)
	}
	args := make(interp.Args)
	for name, st := range operands {
		args[name] = st
	}
	args[k.Result().Name] = result
	if err := k.answerQueries(args, result.Dims); err != nil {
		return nil, err
	}
	return args, nil
}

// Evaluate compiles a statement and runs it on a set of operands.
// It returns the storage of the result.
func Evaluate(stmt notation.Stmt, operands map[string]*storage.Storage, opts ...lower.Option) (*storage.Storage, error) {
	k, err := Compile(stmt, opts...)
	if err != nil {
		return nil, err
	}
	t := k.Result()
	for _, dim := range t.Dims {
		if dim < 0 {
			return nil, fmterr.Errorf("cannot evaluate %s: dimensions %v of %s are unknown", stmt, t.Dims, t.Name)
		}
	}
	result := storage.New(t.Dims, t.Format)
	if err := k.Run(result, operands); err != nil {
		return nil, err
	}
	return result, nil
}
