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

package lower

import (
	"slices"

	gxfmt "github.com/gx-org/tensorlower/base/fmt"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/gx-org/tensorlower/build/notation"
)

// path is the list of index variables of a tensor access in the order
// of the levels of the tensor storage.
type path struct {
	access *notation.Access
	vars   []*notation.IndexVar
	tensor *ir.Var
	prefix string
	modes  []*format.Mode
}

func newPath(acc *notation.Access, tensor *ir.Var, prefix string) *path {
	f := acc.Tensor.Format
	vars := make([]*notation.IndexVar, f.Order())
	for level, dim := range f.Ordering() {
		vars[level] = acc.Vars[dim]
	}
	return &path{
		access: acc,
		vars:   vars,
		tensor: tensor,
		prefix: prefix,
		modes:  format.NewModes(tensor, prefix, f, acc.Tensor.Dims),
	}
}

// level returns the level of the storage indexed by v or -1.
func (p *path) level(v *notation.IndexVar) int {
	return slices.Index(p.vars, v)
}

func (p *path) String() string {
	return p.access.Tensor.Name + "(" + gxfmt.Join(p.vars, ",") + ")"
}

// schedule is the order in which the index variables of an assignment are
// iterated over. Every variable has at most one child: loops are nested
// following the order.
type schedule struct {
	order  []*notation.IndexVar
	free   []*notation.IndexVar
	result *path
	paths  []*path
}

func newSchedule(assign *notation.Assignment, foralls []*notation.IndexVar, result *path, operands []*path) (*schedule, error) {
	s := &schedule{
		free:   assign.LHS.Vars,
		result: result,
		paths:  operands,
	}
	all := append([]*path{result}, operands...)
	if len(foralls) > 0 {
		s.order = foralls
		for _, p := range all {
			if !s.follows(p) {
				return nil, fmterr.Errorf("%s (%s is not stored in the order of the foralls %s)", fmterr.MsgTransposition, p, gxfmt.Join(foralls, ","))
			}
		}
		return s, nil
	}
	order, ok := topologicalOrder(s.priority(assign), all)
	if !ok {
		return nil, fmterr.Errorf("%s (the storage orders of the tensors form a cycle)", fmterr.MsgTransposition)
	}
	s.order = order
	return s, nil
}

// priority returns the index variables in the order they are scheduled
// when the storage orders do not constrain them: free variables first.
func (s *schedule) priority(assign *notation.Assignment) []*notation.IndexVar {
	vars := slices.Clone(s.free)
	for _, v := range notation.IndexVars(assign.RHS) {
		if !slices.Contains(vars, v) {
			vars = append(vars, v)
		}
	}
	return vars
}

// topologicalOrder sorts variables such that every path is iterated in
// the order of its levels. It returns false if there is a cycle.
func topologicalOrder(vars []*notation.IndexVar, paths []*path) ([]*notation.IndexVar, bool) {
	preds := make(map[*notation.IndexVar][]*notation.IndexVar)
	for _, p := range paths {
		for i := 1; i < len(p.vars); i++ {
			preds[p.vars[i]] = append(preds[p.vars[i]], p.vars[i-1])
		}
	}
	var order []*notation.IndexVar
	done := make(map[*notation.IndexVar]bool)
	ready := func(v *notation.IndexVar) bool {
		for _, pred := range preds[v] {
			if !done[pred] {
				return false
			}
		}
		return true
	}
	for len(order) < len(vars) {
		next := slices.IndexFunc(vars, func(v *notation.IndexVar) bool {
			return !done[v] && ready(v)
		})
		if next < 0 {
			return nil, false
		}
		done[vars[next]] = true
		order = append(order, vars[next])
	}
	return order, true
}

func (s *schedule) position(v *notation.IndexVar) int {
	return slices.Index(s.order, v)
}

// follows returns true if the levels of a path are iterated in order.
func (s *schedule) follows(p *path) bool {
	prev := -1
	for _, v := range p.vars {
		pos := s.position(v)
		if pos < prev {
			return false
		}
		prev = pos
	}
	return true
}

func (s *schedule) roots() []*notation.IndexVar {
	if len(s.order) == 0 {
		return nil
	}
	return s.order[:1]
}

func (s *schedule) children(v *notation.IndexVar) []*notation.IndexVar {
	pos := s.position(v)
	if pos+1 >= len(s.order) {
		return nil
	}
	return s.order[pos+1 : pos+2]
}

// ancestors returns v and the variables iterated before v.
func (s *schedule) ancestors(v *notation.IndexVar) []*notation.IndexVar {
	return s.order[:s.position(v)+1]
}

// descendants returns v and the variables iterated after v.
func (s *schedule) descendants(v *notation.IndexVar) []*notation.IndexVar {
	return s.order[s.position(v):]
}

func (s *schedule) isFree(v *notation.IndexVar) bool {
	return slices.Contains(s.free, v)
}

// lastFree returns the last free variable of the order or nil.
func (s *schedule) lastFree() *notation.IndexVar {
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.isFree(s.order[i]) {
			return s.order[i]
		}
	}
	return nil
}

// hasFreeDescendant returns true if a free variable is iterated after v.
func (s *schedule) hasFreeDescendant(v *notation.IndexVar) bool {
	return slices.ContainsFunc(s.descendants(v)[1:], s.isFree)
}

// hasReductionAncestor returns true if v or a variable iterated before v
// is a reduction variable.
func (s *schedule) hasReductionAncestor(v *notation.IndexVar) bool {
	return slices.ContainsFunc(s.ancestors(v), func(a *notation.IndexVar) bool {
		return !s.isFree(a)
	})
}

// pathsWith returns the operand paths indexed by v.
func (s *schedule) pathsWith(v *notation.IndexVar) []*path {
	var ps []*path
	for _, p := range s.paths {
		if p.level(v) >= 0 {
			ps = append(ps, p)
		}
	}
	return ps
}

func (s *schedule) String() string {
	return gxfmt.Join(s.order, ",")
}
