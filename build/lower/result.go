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
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/gx-org/tensorlower/build/notation"
)

// strategy is how a level of the result is assembled.
type strategy int

const (
	// locateLevel levels compute the position of a coordinate.
	locateLevel strategy = iota
	// appendLevel levels append coordinates in order.
	appendLevel
	// yieldLevel levels are allocated from attribute queries. Positions
	// are then yielded for the coordinates inserted in any order.
	yieldLevel
)

func (s strategy) String() string {
	switch s {
	case locateLevel:
		return "locate"
	case appendLevel:
		return "append"
	}
	return "yield"
}

// resultLevel is a level of the result tensor.
type resultLevel struct {
	v        *notation.IndexVar
	it       *iterator
	strategy strategy
	// start is the position of the level before the segment of the
	// current coordinate of the parent level is appended.
	start *ir.Var
}

func (lvl *resultLevel) String() string {
	return lvl.it.String() + ":" + lvl.strategy.String()
}

// resultLevels returns how the levels of the result are assembled.
func (ctx *context) resultLevels() ([]*resultLevel, error) {
	var errs fmterr.Errors
	modes := ctx.result.modes
	var levels []*resultLevel
	allLocate := true
	numYield := 0
	for l, m := range modes {
		v := ctx.result.vars[l]
		lvl := &resultLevel{v: v, it: ctx.its.at(ctx.result, v)}
		props := m.Format.Properties()
		last := l == len(modes)-1
		switch {
		case props.Full && props.Locate:
			lvl.strategy = locateLevel
		case props.Append && !(ctx.opts.sequential && last && allLocate && props.Yield):
			lvl.strategy = appendLevel
		case props.Yield:
			lvl.strategy = yieldLevel
			numYield++
		default:
			errs.Appendf("result level %s: %s levels cannot be assembled", m.Name(), m.Format.Name())
			continue
		}
		if lvl.strategy != locateLevel {
			allLocate = false
		}
		if lvl.strategy == appendLevel && props.Branchless && (l == 0 || modes[l-1].Format.Properties().Unique) {
			errs.Appendf("result level %s cannot be assembled: a %s level stores one coordinate per position of its parent but the parent level is unique", m.Name(), m.Format.Name())
		}
		if (lvl.strategy == appendLevel || lvl.strategy == yieldLevel && props.Append) && ctx.sched.hasReductionAncestor(v) {
			errs.Appendf("result level %s cannot be assembled: a reduction variable is iterated before %s", m.Name(), v)
		}
		levels = append(levels, lvl)
	}
	if !errs.Empty() {
		return nil, errs.ToError()
	}
	appended := false
	for l, lvl := range levels {
		if numYield > 0 && lvl.strategy == appendLevel {
			errs.Appendf("result level %s cannot be appended to in a result with a %s level", lvl.it, yieldStrategyFormat(levels))
		}
		if lvl.strategy == appendLevel {
			if l > 0 && appended && levels[l-1].strategy != appendLevel {
				errs.Appendf("result level %s cannot be appended to below the dense level %s of an appended level", lvl.it, levels[l-1].it)
			}
			if l > 0 {
				lvl.start = ir.NewIndexVar(lvl.it.pos.Name + "_begin")
			}
			appended = true
		}
	}
	if numYield > 1 {
		errs.Appendf("a result cannot have more than one %s level", yieldStrategyFormat(levels))
	}
	if !errs.Empty() {
		return nil, errs.ToError()
	}
	return levels, nil
}

func yieldStrategyFormat(levels []*resultLevel) string {
	for _, lvl := range levels {
		if lvl.strategy == yieldLevel {
			return lvl.it.mode.Format.Name()
		}
	}
	return ""
}

// levelAt returns the level of the result indexed by v or nil.
func (ctx *context) levelAt(v *notation.IndexVar) *resultLevel {
	for _, lvl := range ctx.levels {
		if lvl.v == v {
			return lvl
		}
	}
	return nil
}

// nextLevel returns the level below a level of the result or nil.
func (ctx *context) nextLevel(lvl *resultLevel) *resultLevel {
	if next := lvl.it.level + 1; next < len(ctx.levels) {
		return ctx.levels[next]
	}
	return nil
}

func (ctx *context) parentLevel(lvl *resultLevel) *resultLevel {
	if lvl.it.level == 0 {
		return nil
	}
	return ctx.levels[lvl.it.level-1]
}

func (ctx *context) hasAppend() bool {
	for _, lvl := range ctx.levels {
		if lvl.strategy == appendLevel {
			return true
		}
	}
	return false
}

// prevSize returns the number of segments of a level of the result
// when known before the result is assembled, or 0.
func (ctx *context) prevSize(lvl *resultLevel) ir.Expr {
	var size ir.Expr = ir.Int(1)
	for _, prev := range ctx.levels[:lvl.it.level] {
		if prev.strategy != locateLevel {
			return ir.Int(0)
		}
		size = ir.Mul(size, prev.it.rangeSize())
	}
	return size
}

// staticSize returns the number of values of a result without appended levels.
func (ctx *context) staticSize() ir.Expr {
	var size ir.Expr = ir.Int(1)
	for _, lvl := range ctx.levels {
		switch lvl.strategy {
		case locateLevel:
			size = ir.Mul(size, lvl.it.rangeSize())
		case yieldLevel:
			size = lvl.it.mode.Format.SizeNew(size, lvl.it.mode)
		}
	}
	return size
}

// assembledSize returns the number of values of a result once assembled.
func (ctx *context) assembledSize() ir.Expr {
	var size ir.Expr = ir.Int(1)
	for _, lvl := range ctx.levels {
		switch lvl.strategy {
		case locateLevel:
			size = ir.Mul(size, lvl.it.rangeSize())
		case appendLevel:
			size = lvl.it.pos
		case yieldLevel:
			size = lvl.it.mode.Format.SizeNew(size, lvl.it.mode)
		}
	}
	return size
}

// buildQueries creates the results of the attribute queries of the levels
// assembled from queries.
func (ctx *context) buildQueries() {
	ctx.queries = make(format.Queries)
	for _, lvl := range ctx.levels {
		if lvl.strategy != yieldLevel {
			continue
		}
		names := make([]string, lvl.it.level+1)
		for l := range names {
			names[l] = ctx.result.vars[l].Name
		}
		m := lvl.it.mode
		for _, q := range m.Format.AttrQueries(names) {
			groupBy := make([]int, len(q.GroupBys))
			for i, name := range q.GroupBys {
				for l, v := range ctx.result.vars {
					if v.Name == name {
						groupBy[i] = ctx.result.modes[l].Index
					}
				}
			}
			r := format.NewQueryResult(q, m, groupBy)
			ctx.queries.Add(r)
			ctx.queryResults = append(ctx.queryResults, r)
		}
	}
}

// useAllocSize declares the initial capacity of growing arrays the first
// time it is used.
func (ctx *context) useAllocSize(init *ir.Block) *ir.Var {
	if ctx.allocSize == nil {
		ctx.allocSize = ir.NewIndexVar("init_alloc_size")
		init.Append(ir.Decl(ctx.allocSize, ir.Int(ctx.opts.allocSize)))
	}
	return ctx.allocSize
}

// initLevels emits the code allocating the index arrays of the result.
func (ctx *context) initLevels(init *ir.Block) {
	for _, lvl := range ctx.levels {
		m := lvl.it.mode
		f := m.Format
		switch lvl.strategy {
		case appendLevel:
			init.Append(f.AppendInitLevel(ctx.prevSize(lvl), ctx.useAllocSize(init), m))
		case yieldLevel:
			prev := ctx.prevSize(lvl)
			init.Append(f.SeqInitEdges(prev, ctx.queries, m))
			if f.Properties().SeqInsertEdge {
				init.Append(ctx.insertEdges(lvl))
			}
			init.Append(f.InitCoords(prev, ctx.queries, m))
		}
	}
}

// insertEdges emits the loops over the coordinates of the levels above a
// level assembled from queries, inserting the edges of every segment.
func (ctx *context) insertEdges(lvl *resultLevel) ir.Stmt {
	var coords []ir.Expr
	var vars []*ir.Var
	var pos ir.Expr = ir.Int(0)
	for _, prev := range ctx.levels[:lvl.it.level] {
		v := ir.NewIndexVar(prev.v.Name)
		vars = append(vars, v)
		coords = append(coords, v)
		pos = prev.it.mode.Format.Locate(pos, coords, prev.it.mode).Result(0)
	}
	m := lvl.it.mode
	stmt := m.Format.SeqInsertEdge(pos, coords, ctx.queries, m)
	for l := len(vars) - 1; l >= 0; l-- {
		prev := ctx.levels[l]
		bounds := prev.it.mode.Format.CoordIterBounds(coords[:l], prev.it.mode)
		stmt = ir.Loop(vars[l], bounds.Result(0), bounds.Result(1), stmt)
	}
	return stmt
}

// initYieldPos emits the code preparing the levels assembled from queries
// to yield positions.
func (ctx *context) initYieldPos(init *ir.Block) {
	for _, lvl := range ctx.levels {
		if lvl.strategy != yieldLevel {
			continue
		}
		m := lvl.it.mode
		init.Append(m.Format.InitYieldPos(ctx.prevSize(lvl), m))
	}
}

// finalizeLevels emits the code releasing or shrinking the arrays of the result.
func (ctx *context) finalizeLevels(fin *ir.Block) {
	for _, lvl := range ctx.levels {
		m := lvl.it.mode
		switch lvl.strategy {
		case appendLevel:
			if !ctx.opts.assemble {
				continue
			}
			fin.Append(m.Format.AppendFinalizeLevel(ctx.prevSize(lvl), ctx.allocSize, m))
		case yieldLevel:
			fin.Append(m.Format.FinalizeLevel(m))
		}
	}
}
