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
	"math"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/api/storage"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/pkg/errors"
)

func (fr *frame) eval(x ir.Expr) (value, error) {
	switch xT := x.(type) {
	case *ir.Var:
		return fr.find(xT)
	case *ir.Literal:
		return evalLiteral(xT), nil
	case *ir.Binary:
		return fr.evalBinary(xT)
	case *ir.Unary:
		return fr.evalUnary(xT)
	case *ir.Call:
		return fr.evalCall(xT)
	case *ir.Cast:
		val, err := fr.eval(xT.X)
		if err != nil {
			return nil, err
		}
		return cast(xT.Typ, val)
	case *ir.Load:
		array, err := fr.evalArray(xT.Array)
		if err != nil {
			return nil, err
		}
		index, err := fr.evalInt(xT.Index)
		if err != nil {
			return nil, err
		}
		return array.load(index)
	case *ir.GetProperty:
		return fr.evalProperty(xT)
	}
	return nil, errors.Errorf("expression %s (%T) not supported", x, x)
}

func evalLiteral(lit *ir.Literal) value {
	switch {
	case isFloat(lit.Typ):
		return lit.Float
	case lit.Typ == dtype.Bool:
		return lit.Bool
	}
	return lit.Int
}

func (fr *frame) evalInt(x ir.Expr) (int64, error) {
	val, err := fr.eval(x)
	if err != nil {
		return 0, err
	}
	i, ok := val.(int64)
	if !ok {
		return 0, errors.Errorf("%s = %v (%T) is not an integer", x, val, val)
	}
	return i, nil
}

func (fr *frame) evalBool(x ir.Expr) (bool, error) {
	val, err := fr.eval(x)
	if err != nil {
		return false, err
	}
	b, ok := val.(bool)
	if !ok {
		return false, errors.Errorf("%s = %v (%T) is not a boolean", x, val, val)
	}
	return b, nil
}

func (fr *frame) evalArray(x ir.Expr) (arrayValue, error) {
	val, err := fr.eval(x)
	if err != nil {
		return nil, err
	}
	array, ok := val.(arrayValue)
	if !ok {
		return nil, errors.Errorf("%s (%T) is not an array", x, val)
	}
	return array, nil
}

func (fr *frame) evalStorage(v *ir.Var) (*storage.Storage, error) {
	val, err := fr.find(v)
	if err != nil {
		return nil, err
	}
	st, ok := val.(*storage.Storage)
	if !ok {
		return nil, errors.Errorf("%s (%T) is not a tensor", v.Name, val)
	}
	return st, nil
}

func (fr *frame) evalProperty(prop *ir.GetProperty) (value, error) {
	st, err := fr.evalStorage(prop.Tensor)
	if err != nil {
		return nil, err
	}
	switch prop.Prop {
	case ir.Values:
		return valuesArray(prop.Name, st), nil
	case ir.Indices:
		return indexArray(prop.Name, st, prop.Mode, prop.Index), nil
	case ir.Dimension:
		if prop.Mode >= len(st.Dims) {
			return nil, errors.Errorf("%s: tensor %s has %d dimensions", prop.Name, prop.Tensor.Name, len(st.Dims))
		}
		return int64(st.Dims[prop.Mode]), nil
	case ir.Order:
		return int64(st.Order()), nil
	}
	return nil, errors.Errorf("property %s not supported", prop.Name)
}

func (fr *frame) evalLogical(expr *ir.Binary) (value, error) {
	x, err := fr.evalBool(expr.X)
	if err != nil {
		return nil, err
	}
	if expr.Op == ir.OpAnd && !x {
		return false, nil
	}
	if expr.Op == ir.OpOr && x {
		return true, nil
	}
	return fr.evalBool(expr.Y)
}

func (fr *frame) evalBinary(expr *ir.Binary) (value, error) {
	if expr.Op == ir.OpAnd || expr.Op == ir.OpOr {
		return fr.evalLogical(expr)
	}
	x, err := fr.eval(expr.X)
	if err != nil {
		return nil, err
	}
	y, err := fr.eval(expr.Y)
	if err != nil {
		return nil, err
	}
	switch xT := x.(type) {
	case bool:
		yT, ok := y.(bool)
		if !ok || (expr.Op != ir.OpEq && expr.Op != ir.OpNeq) {
			break
		}
		return (xT == yT) == (expr.Op == ir.OpEq), nil
	case int64:
		if yT, ok := y.(int64); ok {
			return binaryInt(expr, xT, yT)
		}
	}
	xf, errX := convert[float64](x)
	yf, errY := convert[float64](y)
	if errX != nil || errY != nil {
		return nil, errors.Errorf("%s: operator not supported on %T and %T", expr, x, y)
	}
	if expr.Op.IsComparison() {
		return compare(expr.Op, xf, yf)
	}
	return arith(expr.Op, xf, yf)
}

func binaryInt(expr *ir.Binary, x, y int64) (value, error) {
	if expr.Op.IsComparison() {
		return compare(expr.Op, x, y)
	}
	switch expr.Op {
	case ir.OpDiv, ir.OpRem:
		if y == 0 {
			return nil, errors.Errorf("%s: integer division by zero", expr)
		}
		if expr.Op == ir.OpRem {
			return x % y, nil
		}
	}
	return arith(expr.Op, x, y)
}

func (fr *frame) evalUnary(expr *ir.Unary) (value, error) {
	x, err := fr.eval(expr.X)
	if err != nil {
		return nil, err
	}
	switch xT := x.(type) {
	case bool:
		if expr.Op == ir.OpNot {
			return !xT, nil
		}
	case int64:
		if expr.Op == ir.OpNeg {
			return -xT, nil
		}
	case float64:
		if expr.Op == ir.OpNeg {
			return -xT, nil
		}
	}
	return nil, errors.Errorf("%s: operator not supported on %T", expr, x)
}

var intrinsics = map[string]func(...float64) float64{
	"sqrt": func(xs ...float64) float64 { return math.Sqrt(xs[0]) },
	"abs":  func(xs ...float64) float64 { return math.Abs(xs[0]) },
	"exp":  func(xs ...float64) float64 { return math.Exp(xs[0]) },
	"log":  func(xs ...float64) float64 { return math.Log(xs[0]) },
	"sin":  func(xs ...float64) float64 { return math.Sin(xs[0]) },
	"cos":  func(xs ...float64) float64 { return math.Cos(xs[0]) },
	"tanh": func(xs ...float64) float64 { return math.Tanh(xs[0]) },
	"pow":  func(xs ...float64) float64 { return math.Pow(xs[0], xs[1]) },
}

var intrinsicArity = map[string]int{"pow": 2}

func (fr *frame) evalCall(call *ir.Call) (value, error) {
	fn, ok := intrinsics[call.Func]
	if !ok {
		return nil, errors.Errorf("unknown intrinsic %s", call.Func)
	}
	arity, ok := intrinsicArity[call.Func]
	if !ok {
		arity = 1
	}
	if len(call.Args) != arity {
		return nil, errors.Errorf("%s: %s requires %d arguments", call, call.Func, arity)
	}
	args := make([]float64, len(call.Args))
	for i, arg := range call.Args {
		val, err := fr.eval(arg)
		if err != nil {
			return nil, err
		}
		if args[i], err = convert[float64](val); err != nil {
			return nil, err
		}
	}
	return cast(call.Typ, fn(args...))
}
