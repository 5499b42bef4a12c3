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
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/pkg/errors"
)

type frame struct {
	function *ir.Function

	parent *frame
	vars   map[string]value
}

func newFunctionFrame(fn *ir.Function) *frame {
	return &frame{
		function: fn,
		vars:     make(map[string]value),
	}
}

func (fr *frame) newBlockFrame() *frame {
	return &frame{
		function: fr.function,
		parent:   fr,
		vars:     make(map[string]value),
	}
}

// root returns the frame of the function.
func (fr *frame) root() *frame {
	if fr.parent == nil {
		return fr
	}
	return fr.parent.root()
}

func (fr *frame) define(name string, val value) {
	fr.vars[name] = val
}

func (fr *frame) assign(v *ir.Var, val value) error {
	if _, has := fr.vars[v.Name]; has {
		fr.define(v.Name, val)
		return nil
	}
	if fr.parent == nil {
		return errors.Errorf("cannot assign %s: not defined in any frame", v.Name)
	}
	return fr.parent.assign(v, val)
}

func (fr *frame) lookup(v *ir.Var) (value, bool) {
	if val, has := fr.vars[v.Name]; has {
		return val, true
	}
	if fr.parent == nil {
		return nil, false
	}
	return fr.parent.lookup(v)
}

func (fr *frame) find(v *ir.Var) (value, error) {
	val, ok := fr.lookup(v)
	if !ok {
		return nil, errors.Errorf("undefined: %s", v.Name)
	}
	return val, nil
}
