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

package interp

import (
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/api/storage"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// value is an int64, a float64, a bool, an array or a tensor storage.
type value any

// number is the type of the elements of arrays.
type number interface {
	~int | ~float64
}

// arrayValue is an array of numbers.
type arrayValue interface {
	load(i int64) (value, error)
	store(i int64, x value, accumulate bool) error
	resize(n int64, keep bool)
}

// array of numbers. data returns the slice storing the array every time the
// array is accessed such that arrays of storages can be replaced by
// allocations.
type array[T number] struct {
	name string
	data func() *[]T
}

var (
	_ arrayValue = (*array[int])(nil)
	_ arrayValue = (*array[float64])(nil)
)

func newLocalArray(v *ir.Var) arrayValue {
	if isFloat(v.Typ) {
		var data []float64
		return &array[float64]{name: v.Name, data: func() *[]float64 { return &data }}
	}
	var data []int
	return &array[int]{name: v.Name, data: func() *[]int { return &data }}
}

func indexArray(name string, st *storage.Storage, level, slot int) arrayValue {
	return &array[int]{name: name, data: func() *[]int { return st.Array(level, slot) }}
}

func valuesArray(name string, st *storage.Storage) arrayValue {
	return &array[float64]{name: name, data: func() *[]float64 { return &st.Vals }}
}

func (a *array[T]) check(i int64) ([]T, error) {
	data := *a.data()
	if i < 0 || i >= int64(len(data)) {
		return nil, errors.Errorf("index %d out of bounds of %s of length %d", i, a.name, len(data))
	}
	return data, nil
}

func (a *array[T]) load(i int64) (value, error) {
	data, err := a.check(i)
	if err != nil {
		return nil, err
	}
	switch x := any(data[i]).(type) {
	case float64:
		return x, nil
	default:
		return int64(data[i]), nil
	}
}

func (a *array[T]) store(i int64, x value, accumulate bool) error {
	data, err := a.check(i)
	if err != nil {
		return err
	}
	el, err := convert[T](x)
	if err != nil {
		return errors.WithMessagef(err, "cannot store into %s", a.name)
	}
	if accumulate {
		el += data[i]
	}
	data[i] = el
	return nil
}

func (a *array[T]) resize(n int64, keep bool) {
	data := a.data()
	resized := make([]T, n)
	if keep {
		copy(resized, *data)
	}
	*data = resized
}

// convert a scalar into an array element.
func convert[T number](x value) (T, error) {
	switch xT := x.(type) {
	case int64:
		return T(xT), nil
	case float64:
		return T(xT), nil
	}
	return 0, errors.Errorf("%v (%T) is not a number", x, x)
}

func isFloat(typ dtype.DataType) bool {
	return typ == dtype.Float32 || typ == dtype.Float64
}

// zero returns the zero value of a variable.
func zero(v *ir.Var) value {
	switch {
	case v.Kind == ir.ArrayVar:
		return newLocalArray(v)
	case v.Typ == dtype.Bool:
		return false
	case isFloat(v.Typ):
		return 0.0
	}
	return int64(0)
}

// cast converts a scalar into a given type.
func cast(typ dtype.DataType, x value) (value, error) {
	switch {
	case typ == dtype.Bool:
		b, ok := x.(bool)
		if !ok {
			return nil, errors.Errorf("cannot convert %v (%T) into a boolean", x, x)
		}
		return b, nil
	case isFloat(typ):
		return convert[float64](x)
	}
	i, err := convert[int](x)
	return int64(i), err
}

func arith[T constraints.Integer | constraints.Float](op ir.BinaryOp, x, y T) (T, error) {
	switch op {
	case ir.OpAdd:
		return x + y, nil
	case ir.OpSub:
		return x - y, nil
	case ir.OpMul:
		return x * y, nil
	case ir.OpDiv:
		return x / y, nil
	case ir.OpMin:
		return min(x, y), nil
	case ir.OpMax:
		return max(x, y), nil
	}
	return 0, errors.Errorf("operator %d not supported on %T", op, x)
}

func compare[T constraints.Ordered](op ir.BinaryOp, x, y T) (bool, error) {
	switch op {
	case ir.OpEq:
		return x == y, nil
	case ir.OpNeq:
		return x != y, nil
	case ir.OpLt:
		return x < y, nil
	case ir.OpLte:
		return x <= y, nil
	case ir.OpGt:
		return x > y, nil
	case ir.OpGte:
		return x >= y, nil
	}
	return false, errors.Errorf("comparison %d not supported on %T", op, x)
}
