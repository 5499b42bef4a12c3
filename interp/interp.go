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

// Package interp runs programs lowered from tensor index notation.
//
// Tensors are bound to storages (see [github.com/gx-org/tensorlower/api/storage])
// and the result tensors of a function are written in place into the
// storages bound to its outputs.
package interp

import (
	"github.com/gx-org/tensorlower/api/storage"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/pkg/errors"
)

// Args binds the inputs and outputs of a function by name.
// Tensors are bound to *storage.Storage and arrays to []int.
type Args map[string]any

// Run executes a function.
func Run(fn *ir.Function, args Args) error {
	fr := newFunctionFrame(fn)
	for _, v := range append(append([]*ir.Var{}, fn.Inputs...), fn.Outputs...) {
		if err := fr.bind(v, args[v.Name]); err != nil {
			return err
		}
	}
	if err := fr.exec(fn.Body); err != nil {
		return errors.WithMessagef(err, "%s", fn.Name)
	}
	return nil
}

func (fr *frame) bind(v *ir.Var, arg any) error {
	switch v.Kind {
	case ir.TensorVar:
		st, ok := arg.(*storage.Storage)
		if arg == nil || ok && st == nil {
			return fmterr.Errorf("%s: no storage bound for tensor %s", fr.function.Name, v.Name)
		}
		if !ok {
			return fmterr.Errorf("%s: tensor %s requires a storage but got %T", fr.function.Name, v.Name, arg)
		}
		fr.define(v.Name, st)
	case ir.ArrayVar:
		data, ok := arg.([]int)
		if !ok {
			return fmterr.Errorf("%s: array %s requires []int but got %T", fr.function.Name, v.Name, arg)
		}
		fr.define(v.Name, &array[int]{name: v.Name, data: func() *[]int { return &data }})
	default:
		val, err := cast(v.Typ, arg)
		if err != nil {
			return fmterr.Errorf("%s: cannot bind %s: %v", fr.function.Name, v.Name, err)
		}
		fr.define(v.Name, val)
	}
	return nil
}
