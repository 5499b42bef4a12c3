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

package format

import (
	"strconv"

	"github.com/gx-org/tensorlower/base/ordered"
	"github.com/gx-org/tensorlower/build/ir"
)

// UnknownSize is the size of a mode whose dimension is only known at runtime.
const UnknownSize = -1

// VarRole is the role of a variable synthesized by a level format for a mode.
type VarRole int

const (
	// PosCapacity is the capacity of a positions array.
	PosCapacity VarRole = iota
	// CoordCapacity is the capacity of a coordinates array.
	CoordCapacity
	// Ptr is the array of next positions to insert into.
	Ptr
	// Rperm is the inverse permutation of a squeezed level.
	Rperm
	// LocalPermSize is the number of non-empty slices of a squeezed level.
	LocalPermSize
)

var roles = map[VarRole]struct {
	suffix string
	kind   ir.VarKind
}{
	PosCapacity:   {"_pos_size", ir.ScalarVar},
	CoordCapacity: {"_crd_size", ir.ScalarVar},
	Ptr:           {"_ptr", ir.ArrayVar},
	Rperm:         {"_rperm", ir.ArrayVar},
	LocalPermSize: {"_nzslice_local", ir.ScalarVar},
}

// Mode is a level of a tensor in a kernel.
type Mode struct {
	// Tensor is the variable of the tensor storing the mode.
	Tensor *ir.Var
	// Level of the mode in the tensor storage, starting at 1.
	Level int
	// Index is the logical dimension stored by the level.
	Index int
	// Format of the level.
	Format ModeFormat
	// Size of the dimension or UnknownSize.
	Size int

	name    string
	parent  *Mode
	pack    *ModePack
	packLoc int
	vars    *ordered.Map[VarRole, *ir.Var]
}

// NewModes returns the modes of a tensor stored in a given format.
// Variables synthesized for the modes are prefixed by prefix.
func NewModes(tensor *ir.Var, prefix string, f *Format, dims []int) []*Mode {
	modes := make([]*Mode, len(f.levels))
	var parent *Mode
	for i, level := range f.levels {
		size := UnknownSize
		if dims != nil {
			size = dims[f.ordering[i]]
		}
		m := &Mode{
			Tensor: tensor,
			Level:  i + 1,
			Index:  f.ordering[i],
			Format: level,
			Size:   size,
			name:   prefix + strconv.Itoa(i+1),
			parent: parent,
			vars:   ordered.NewMap[VarRole, *ir.Var](),
		}
		modes[i] = m
		parent = m
	}
	start := 0
	for _, end := range f.packEnds() {
		pack := &ModePack{modes: modes[start:end]}
		for loc, m := range pack.modes {
			m.pack = pack
			m.packLoc = loc
			for slot, array := range m.Format.Arrays(tensor, m.Index, m.Level) {
				if slot >= len(pack.arrays) {
					pack.arrays = append(pack.arrays, make([]ir.Expr, slot+1-len(pack.arrays))...)
				}
				if pack.arrays[slot] == nil {
					pack.arrays[slot] = array
				}
			}
		}
		start = end
	}
	return modes
}

// Name of the mode, used as a prefix for the variables of the mode.
func (m *Mode) Name() string {
	return m.name
}

// Var returns the variable of the mode with a given role.
// The same variable is returned for the same role.
func (m *Mode) Var(role VarRole) *ir.Var {
	return m.vars.LoadOrStore(role, func() *ir.Var {
		r := roles[role]
		return &ir.Var{Name: m.name + r.suffix, Typ: ir.IndexType, Kind: r.kind}
	})
}

// Parent returns the mode of the previous level or nil for the first level.
func (m *Mode) Parent() *Mode {
	return m.parent
}

// ParentFormat returns the format of the previous level
// or nil for the first level.
func (m *Mode) ParentFormat() ModeFormat {
	if m.parent == nil {
		return nil
	}
	return m.parent.Format
}

// Pack returns the pack the mode belongs to.
func (m *Mode) Pack() *ModePack {
	return m.pack
}

// PackLocation returns the location of the mode in its pack.
func (m *Mode) PackLocation() int {
	return m.packLoc
}

// LastInPack returns true if the mode is the last mode of its pack.
func (m *Mode) LastInPack() bool {
	return m.packLoc == m.pack.NumModes()-1
}

// Dimension returns the size of the logical dimension stored by the mode.
func (m *Mode) Dimension() ir.Expr {
	return Dimension(m.Tensor, m.Index)
}

func (m *Mode) String() string {
	return m.name + ":" + m.Format.Name()
}

// Dimension returns the size of a logical dimension of a tensor.
func Dimension(tensor *ir.Var, index int) *ir.GetProperty {
	return &ir.GetProperty{
		Tensor: tensor,
		Prop:   ir.Dimension,
		Mode:   index,
		Name:   tensor.Name + strconv.Itoa(index+1) + "_dimension",
		Typ:    ir.IndexType,
	}
}

// Values returns the array of values of a tensor.
func Values(tensor *ir.Var) *ir.GetProperty {
	return &ir.GetProperty{
		Tensor: tensor,
		Prop:   ir.Values,
		Name:   tensor.Name + "_vals",
		Typ:    tensor.Typ,
	}
}

// indices returns an index array of a level.
func indices(tensor *ir.Var, level, slot int, suffix string) *ir.GetProperty {
	return &ir.GetProperty{
		Tensor: tensor,
		Prop:   ir.Indices,
		Mode:   level - 1,
		Index:  slot,
		Name:   tensor.Name + strconv.Itoa(level) + "_" + suffix,
		Typ:    ir.IndexType,
	}
}

// ModePack is a group of consecutive modes sharing their index arrays.
// Coordinates of the modes of a pack are interleaved.
type ModePack struct {
	modes  []*Mode
	arrays []ir.Expr
}

// NumModes returns the number of modes in the pack.
func (p *ModePack) NumModes() int {
	return len(p.modes)
}

// Modes returns the modes of the pack.
func (p *ModePack) Modes() []*Mode {
	return p.modes
}

// Array returns the ith index array of the pack.
func (p *ModePack) Array(i int) ir.Expr {
	if i >= len(p.arrays) {
		return nil
	}
	return p.arrays[i]
}
