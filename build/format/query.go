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
	"github.com/gx-org/tensorlower/build/attrquery"
	"github.com/gx-org/tensorlower/build/ir"
)

// QueryResult binds the results of an attribute query to the arrays
// holding them when a kernel runs.
//
// Results are stored in row-major order over the dimensions of the
// coordinates the query groups by.
type QueryResult struct {
	Query *attrquery.Select
	// Tensor is the tensor whose coordinates are queried.
	Tensor *ir.Var
	// GroupBy are the logical dimensions of the tensor the query groups by.
	GroupBy []int
	// Arrays holding the results, one for each attribute of the query.
	Arrays map[string]*ir.Var
}

// Queries maps attribute names to the results of the queries computing them.
type Queries map[string]*QueryResult

// NewQueryResult returns the result of a query. Arrays are named after
// the mode and the attributes of the query.
func NewQueryResult(q *attrquery.Select, m *Mode, groupBy []int) *QueryResult {
	r := &QueryResult{
		Query:   q,
		Tensor:  m.Tensor,
		GroupBy: groupBy,
		Arrays:  make(map[string]*ir.Var),
	}
	for _, attr := range q.Attrs {
		r.Arrays[attr.Name] = ir.NewArrayVar(m.Name()+"_"+attr.Name, ir.IndexType)
	}
	return r
}

// Get returns the value of an attribute for the given group-by coordinates.
func (r *QueryResult) Get(attr string, coords []ir.Expr) ir.Expr {
	var index ir.Expr = ir.Int(0)
	for i, coord := range coords {
		if i > 0 {
			index = ir.Mul(index, Dimension(r.Tensor, r.GroupBy[i]))
		}
		index = ir.Add(index, coord)
	}
	return ir.LoadAt(r.Arrays[attr], index)
}

// Add the results of queries to a set of queries.
func (qs Queries) Add(rs ...*QueryResult) {
	for _, r := range rs {
		for _, attr := range r.Query.Attrs {
			qs[attr.Name] = r
		}
	}
}
