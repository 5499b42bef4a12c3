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

// Package attrquery defines attribute queries: small aggregate queries a
// storage format issues to learn statistics about the coordinates of a
// tensor before assembling its index arrays.
//
// A query has the form
//
//	select i,j -> distinct_count(k) as nnz
//
// that is, for each distinct (i,j) group of coordinates, the number of
// distinct k coordinates.
package attrquery

import (
	"strconv"
	"strings"
)

type (
	// Query is a node of an attribute query.
	Query interface {
		node()
		String() string
	}

	// Attr is an aggregate computed by a select and the name of its output column.
	Attr struct {
		Query Query
		Name  string
	}

	// Select groups coordinates by a list of coordinate names and computes
	// aggregates for every group.
	Select struct {
		GroupBys []string
		Attrs    []Attr
	}

	// Literal is a constant value for every group present in the coordinates.
	Literal struct {
		Val int
	}

	// DistinctCount counts the distinct tuples of coordinates in a group.
	DistinctCount struct {
		Coords []string
	}

	// Max is the maximum value of a coordinate in a group.
	Max struct {
		Coord string
	}

	// Min is the minimum value of a coordinate in a group.
	Min struct {
		Coord string
	}
)

var (
	_ Query = (*Select)(nil)
	_ Query = (*Literal)(nil)
	_ Query = (*DistinctCount)(nil)
	_ Query = (*Max)(nil)
	_ Query = (*Min)(nil)
)

func (*Select) node()        {}
func (*Literal) node()       {}
func (*DistinctCount) node() {}
func (*Max) node()           {}
func (*Min) node()           {}

// NewSelect returns a select query computing a single attribute.
func NewSelect(groupBys []string, query Query, name string) *Select {
	return &Select{
		GroupBys: append([]string(nil), groupBys...),
		Attrs:    []Attr{{Query: query, Name: name}},
	}
}

// Attr returns the attribute of a given name or nil if the select does not compute it.
func (s *Select) Attr(name string) *Attr {
	for i := range s.Attrs {
		if s.Attrs[i].Name == name {
			return &s.Attrs[i]
		}
	}
	return nil
}

func (s *Select) String() string {
	var b strings.Builder
	b.WriteString("select ")
	b.WriteString(strings.Join(s.GroupBys, ","))
	b.WriteString(" -> ")
	for i, attr := range s.Attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(attr.Query.String())
		b.WriteString(" as ")
		b.WriteString(attr.Name)
	}
	return b.String()
}

func (l *Literal) String() string {
	return strconv.Itoa(l.Val)
}

func (d *DistinctCount) String() string {
	return "distinct_count(" + strings.Join(d.Coords, ",") + ")"
}

func (m *Max) String() string {
	return "max(" + m.Coord + ")"
}

func (m *Min) String() string {
	return "min(" + m.Coord + ")"
}
