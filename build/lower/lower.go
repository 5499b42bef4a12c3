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

// Package lower lowers index notation statements into imperative programs
// iterating over the levels of sparse tensors.
//
// The loops over an index variable co-iterate over the levels of the
// tensors indexed by the variable. The cases of the loop body are derived
// from the merge lattice of the expression: a lattice point lists the
// iterators whose coordinates must match for an expression to be computed.
package lower

import (
	"slices"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorlower/base/uname"
	"github.com/gx-org/tensorlower/build/fmterr"
	"github.com/gx-org/tensorlower/build/format"
	"github.com/gx-org/tensorlower/build/ir"
	"github.com/gx-org/tensorlower/build/notation"
)

// Program is a lowered statement.
type Program struct {
	// Func is the function assembling or computing the result.
	// Its inputs are the operands followed by the arrays of the results
	// of the attribute queries. Its output is the result.
	Func *ir.Function
	// Result is the tensor written by the program.
	Result *notation.TensorVar
	// Operands are the tensors read by the program, in order of first access.
	Operands []*notation.TensorVar
	// Queries are the attribute queries on the coordinates of the result
	// the program needs before it runs.
	Queries []*format.QueryResult
}

func (p *Program) String() string {
	return p.Func.String()
}

// varCase is the position of a variable relative to the last free variable.
type varCase int

const (
	aboveLastFree varCase = iota
	lastFree
	belowLastFree
)

// target is where a computed value is written: an element of the values
// of the result or a temporary scalar.
type target struct {
	array ir.Expr
	pos   ir.Expr
	temp  *ir.Var
}

type context struct {
	opts   options
	assign *notation.Assignment
	rhs    notation.Expr
	sched  *schedule
	its    *iterators
	names  *uname.Unique

	result   *path
	paths    map[*notation.Access]*path
	operands []*notation.TensorVar
	levels   []*resultLevel

	queries      format.Queries
	queryResults []*format.QueryResult

	// temps maps temporaries of the expression to their variables.
	temps map[*notation.TensorVar]*ir.Var
	// coords maps index variables to their current coordinate.
	coords map[*notation.IndexVar]ir.Expr
	// inline computes positions from coordinates instead of iterators.
	inline bool

	allocSize *ir.Var
	valsCap   *ir.Var
	// Values grow when the result level of incVar is appended to.
	// valsInc values are needed for every position of that level.
	incVar  *notation.IndexVar
	valsInc ir.Expr
}

// Lower lowers a statement into a program. The statement is an
// assignment, optionally nested in foralls fixing the order of the loops.
func Lower(stmt notation.Stmt, opts ...Option) (prog *Program, err error) {
	defer fmterr.Recover(&err)
	if err := notation.Validate(stmt); err != nil {
		return nil, err
	}
	var foralls []*notation.IndexVar
	for {
		forall, ok := stmt.(*notation.Forall)
		if !ok {
			break
		}
		foralls = append(foralls, forall.Var)
		stmt = forall.Body
	}
	assign, ok := stmt.(*notation.Assignment)
	fmterr.Assert(ok, "%T statement has not been validated", stmt)
	ctx, err := newContext(newOptions(opts), assign, foralls)
	if err != nil {
		return nil, err
	}
	return ctx.lower()
}

func newContext(opts options, assign *notation.Assignment, foralls []*notation.IndexVar) (*context, error) {
	rhs, err := stripReductions(assign.RHS)
	if err != nil {
		return nil, fmterr.PrefixWith(assign.String())(err)
	}
	ctx := &context{
		opts:   opts,
		assign: assign,
		rhs:    rhs,
		names:  uname.New(),
		paths:  make(map[*notation.Access]*path),
		temps:  make(map[*notation.TensorVar]*ir.Var),
		coords: make(map[*notation.IndexVar]ir.Expr),
	}
	tensors := make(map[string]*notation.TensorVar)
	tensorVar := func(t *notation.TensorVar) (*ir.Var, error) {
		if prev, ok := tensors[t.Name]; ok && prev != t {
			return nil, fmterr.Errorf("%s: tensor name %s is used by more than one tensor", assign, t.Name)
		}
		tensors[t.Name] = t
		return ir.NewTensorVar(t.Name, t.DType), nil
	}
	vars := make(map[*notation.TensorVar]*ir.Var)
	resultVar, err := tensorVar(assign.LHS.Tensor)
	if err != nil {
		return nil, err
	}
	ctx.result = newPath(assign.LHS, resultVar, ctx.names.Name(assign.LHS.Tensor.Name))
	var operands []*path
	for _, acc := range notation.Accesses(rhs) {
		tv, ok := vars[acc.Tensor]
		if !ok {
			if tv, err = tensorVar(acc.Tensor); err != nil {
				return nil, err
			}
			vars[acc.Tensor] = tv
			ctx.operands = append(ctx.operands, acc.Tensor)
		}
		p := newPath(acc, tv, ctx.names.Name(acc.Tensor.Name))
		ctx.paths[acc] = p
		operands = append(operands, p)
	}
	if ctx.sched, err = newSchedule(assign, foralls, ctx.result, operands); err != nil {
		return nil, fmterr.PrefixWith(assign.String())(err)
	}
	opts.tracef("schedule: %s", ctx.sched)
	ctx.its = newIterators(append([]*path{ctx.result}, operands...))
	for _, p := range operands {
		for _, it := range ctx.its.levels[p] {
			props := it.props()
			if !props.CoordPosIter && !props.Locate {
				return nil, fmterr.Errorf("%s: operand level %s cannot be iterated over: %s levels can only be assembled", assign, it, it.mode.Format.Name())
			}
		}
	}
	if ctx.levels, err = ctx.resultLevels(); err != nil {
		return nil, fmterr.PrefixWith(assign.String())(err)
	}
	opts.tracef("result levels: %v", ctx.levels)
	ctx.buildQueries()
	return ctx, nil
}

func (ctx *context) lower() (*Program, error) {
	init, body, fin := ir.NewBlock(), ir.NewBlock(), ir.NewBlock()
	if ctx.isDenseScalar() {
		ctx.lowerDenseScalar(init, body)
	} else if err := ctx.lowerLoops(init, body, fin); err != nil {
		return nil, err
	}
	code := ir.NewBlock(init)
	if !init.Empty() && !body.Empty() {
		code.Append(&ir.BlankLine{})
	}
	code.Append(body)
	if !fin.Empty() {
		code.Append(&ir.BlankLine{}, fin)
	}
	prog := &Program{
		Result:   ctx.assign.LHS.Tensor,
		Operands: ctx.operands,
		Queries:  ctx.queryResults,
		Func: &ir.Function{
			Name:    ctx.opts.funcName,
			Outputs: []*ir.Var{ctx.result.tensor},
			Body:    code,
		},
	}
	for _, t := range ctx.operands {
		prog.Func.Inputs = append(prog.Func.Inputs, ctx.tensorVar(t))
	}
	for _, q := range ctx.queryResults {
		for _, attr := range q.Query.Attrs {
			prog.Func.Inputs = append(prog.Func.Inputs, q.Arrays[attr.Name])
		}
	}
	return prog, nil
}

func (ctx *context) tensorVar(t *notation.TensorVar) *ir.Var {
	for _, p := range ctx.paths {
		if p.access.Tensor == t {
			return p.tensor
		}
	}
	fmterr.Fail("tensor %s has no variable", t.Name)
	return nil
}

// isDenseScalar returns true if the result is a scalar and all the levels
// of the operands are dense.
func (ctx *context) isDenseScalar() bool {
	if len(ctx.result.modes) > 0 {
		return false
	}
	for _, p := range ctx.sched.paths {
		for _, it := range ctx.its.levels[p] {
			if !it.isDense() {
				return false
			}
		}
	}
	return true
}

// lowerDenseScalar emits nested loops over the dense operands
// accumulating into a scalar.
func (ctx *context) lowerDenseScalar(init, body *ir.Block) {
	vals := format.Values(ctx.result.tensor)
	if ctx.opts.assemble {
		init.Append(ir.Alloc(vals, ir.Int(1)))
	}
	if !ctx.opts.compute {
		return
	}
	ctx.inline = true
	if len(ctx.sched.order) == 0 {
		body.Append(&ir.Store{Array: vals, Index: ir.Int(0), Value: ctx.lowerScalar(ctx.rhs), Accumulate: ctx.assign.Accumulate})
		return
	}
	vars := make([]*ir.Var, len(ctx.sched.order))
	for i, v := range ctx.sched.order {
		vars[i] = ir.NewIndexVar(v.Name)
		ctx.coords[v] = vars[i]
	}
	var stmt ir.Stmt = &ir.Store{Array: vals, Index: ir.Int(0), Value: ctx.lowerScalar(ctx.rhs), Accumulate: true}
	for i := len(vars) - 1; i >= 0; i-- {
		v := ctx.sched.order[i]
		it := ctx.its.at(ctx.sched.pathsWith(v)[0], v)
		begin, end := it.bounds(ctx.coords)
		stmt = ir.Loop(vars[i], begin, end, stmt)
	}
	if !ctx.assign.Accumulate {
		body.Append(ir.StoreAt(vals, ir.Int(0), ir.Zero(dtype.Float64)))
	}
	body.Append(stmt)
}

// lowerLoops emits the loops co-iterating over the operands.
func (ctx *context) lowerLoops(init, body, fin *ir.Block) error {
	vals := format.Values(ctx.result.tensor)
	if ctx.opts.assemble {
		ctx.initLevels(init)
	}
	ctx.initYieldPos(init)
	for _, lvl := range ctx.levels {
		if lvl.strategy == appendLevel {
			body.Append(ir.Decl(lvl.it.pos, ir.Int(0)))
		}
	}
	if ctx.opts.compute {
		ctx.initValues(init, body)
	}
	if ctx.opts.compute || ctx.opts.assemble && slices.ContainsFunc(ctx.levels, func(lvl *resultLevel) bool {
		return lvl.strategy != locateLevel
	}) {
		t := target{array: vals, pos: ctx.its.last(ctx.result).posExpr()}
		for _, root := range ctx.sched.roots() {
			loops, err := ctx.lowerVar(t, ctx.rhs, root)
			if err != nil {
				return fmterr.PrefixWith(ctx.assign.String())(err)
			}
			body.Append(loops)
		}
	}
	if ctx.opts.assemble && !ctx.opts.compute {
		size := ctx.assembledSize()
		body.Append(ir.Alloc(vals, size))
		if ctx.needsZero(ctx.result.vars) {
			body.Append(ctx.zeroValues(ir.Int(0), size))
		}
	}
	ctx.finalizeLevels(fin)
	return nil
}

// initValues allocates and zeroes the values of the result.
func (ctx *context) initValues(init, body *ir.Block) {
	vals := format.Values(ctx.result.tensor)
	if ctx.hasAppend() {
		ctx.valsInc = ir.Int(1)
		for _, lvl := range ctx.levels {
			if lvl.strategy == appendLevel {
				ctx.incVar, ctx.valsInc = lvl.v, ir.Int(1)
				continue
			}
			ctx.valsInc = ir.Mul(ctx.valsInc, lvl.it.rangeSize())
		}
		if !ctx.opts.assemble {
			return
		}
		ctx.valsCap = ir.NewIndexVar(ctx.result.tensor.Name + "_vals_capacity")
		init.Append(
			ir.Decl(ctx.valsCap, ctx.useAllocSize(init)),
			ir.Alloc(vals, ctx.valsCap),
		)
		if ctx.zeroOnGrowth() {
			init.Append(ctx.zeroValues(ir.Int(0), ctx.valsCap))
		}
		return
	}
	size := ctx.staticSize()
	if ctx.opts.assemble {
		init.Append(ir.Alloc(vals, size))
	}
	if ctx.assign.Accumulate && !ctx.opts.assemble {
		return
	}
	if lit, ok := size.(*ir.Literal); ok && lit.IsInt(1) {
		body.Append(ir.StoreAt(vals, ir.Int(0), ir.Zero(dtype.Float64)))
	} else if ctx.needsZero(ctx.result.vars) {
		body.Append(ctx.zeroValues(ir.Int(0), size))
	}
}

// zeroOnGrowth returns true if the values added when the values grow
// need to be zeroed.
func (ctx *context) zeroOnGrowth() bool {
	if lit, ok := ctx.valsInc.(*ir.Literal); ok && lit.IsInt(1) {
		return false
	}
	return ctx.needsZero(ctx.sched.descendants(ctx.incVar))
}

// needsZero returns true if some values of the result may not be written
// by the loops over the given variables: the values are accumulated into
// or the variables iterate over sparse levels.
func (ctx *context) needsZero(vars []*notation.IndexVar) bool {
	for _, v := range vars {
		if !ctx.sched.isFree(v) {
			continue
		}
		if ctx.sched.hasReductionAncestor(v) {
			return true
		}
		for _, p := range ctx.sched.pathsWith(v) {
			if !ctx.its.at(p, v).isDense() {
				return true
			}
		}
	}
	return false
}

func (ctx *context) zeroValues(begin, end ir.Expr) ir.Stmt {
	vals := format.Values(ctx.result.tensor)
	p := ir.NewIndexVar("p" + ctx.result.tensor.Name)
	return ir.Loop(p, begin, end, ir.StoreAt(vals, p, ir.Zero(dtype.Float64)))
}

func (ctx *context) varCase(v *notation.IndexVar) varCase {
	switch {
	case v == ctx.sched.lastFree():
		return lastFree
	case ctx.sched.hasFreeDescendant(v):
		return aboveLastFree
	}
	return belowLastFree
}

// iteratorOf returns the iterator of an access at v or nil.
func (ctx *context) iteratorOf(v *notation.IndexVar) func(*notation.Access) *iterator {
	return func(acc *notation.Access) *iterator {
		p, ok := ctx.paths[acc]
		if !ok {
			return nil
		}
		return ctx.its.at(p, v)
	}
}

// lowerVar emits the loops over the coordinates of v computing x into t.
func (ctx *context) lowerVar(t target, x notation.Expr, v *notation.IndexVar) (*ir.Block, error) {
	lat, err := buildLattice(x, ctx.iteratorOf(v))
	if err != nil {
		return nil, err
	}
	ctx.opts.tracef("lattice at %s: %s", v, lat)
	if len(lat.points[0].iters) == 0 {
		return nil, fmterr.Errorf("%s does not iterate over %s: broadcasting an expression over a dimension is not supported", x, v)
	}
	code := ir.NewBlock()
	whileLoop := lat.needsMerge() || lat.rangeIterators(lat.points[0])[0].hasDuplicates()
	if whileLoop {
		for _, it := range lat.allRangeIterators() {
			begin, _ := it.bounds(ctx.coords)
			code.Append(ir.Decl(it.variable(), begin))
		}
	}
	lvl := ctx.levelAt(v)
	for _, lp := range lat.points {
		rng := lat.rangeIterators(lp)
		body, err := ctx.lowerPoint(t, lat, lp, rng, v, lvl, whileLoop)
		if err != nil {
			return nil, err
		}
		if whileLoop {
			conds := make([]ir.Expr, len(rng))
			for i, it := range rng {
				_, end := it.bounds(ctx.coords)
				conds[i] = ir.Lt(it.variable(), end)
			}
			code.Append(&ir.While{Cond: ir.And(conds...), Body: body})
			continue
		}
		it := rng[0]
		begin, end := it.bounds(ctx.coords)
		code.Append(&ir.For{
			Var:   it.variable(),
			Start: begin,
			End:   end,
			Step:  ir.Int(1),
			Body:  body,
			Kind:  ctx.loopKind(v, it),
		})
	}
	if ctx.opts.assemble && lvl != nil && lvl.strategy == appendLevel {
		m := lvl.it.mode
		parentPos := lvl.it.parent.posExpr()
		if parent := ctx.parentLevel(lvl); parent != nil && parent.strategy == appendLevel {
			code.Append(m.Format.AppendInitEdges(parentPos, ir.Add(parentPos, ir.Int(1)), m))
		}
		var begin ir.Expr = ir.Int(0)
		if lvl.start != nil {
			begin = lvl.start
		}
		code.Append(m.Format.AppendEdges(parentPos, begin, lvl.it.pos, m))
	}
	return code, nil
}

// lowerPoint emits the body of the loop over the coordinates of the
// range iterators of a lattice point.
func (ctx *context) lowerPoint(t target, lat *lattice, lp *point, rng []*iterator, v *notation.IndexVar, lvl *resultLevel, whileLoop bool) (*ir.Block, error) {
	body := ir.NewBlock()
	found := make(map[*iterator]ir.Expr)
	for _, it := range lp.iters {
		if !it.isSequential() {
			continue
		}
		crd, ok := it.access(it.pos, ctx.coords)
		body.Append(ir.Decl(it.coord, crd))
		if !ir.IsTrue(ok) {
			found[it] = ok
		}
	}
	var idx ir.Expr = rng[0].coord
	if len(rng) > 1 {
		coords := make([]ir.Expr, len(rng))
		for i, it := range rng {
			coords[i] = it.coord
		}
		merged := ir.NewIndexVar(v.Name)
		body.Append(ir.Decl(merged, ir.Min(coords...)))
		idx = merged
	}
	ctx.coords[v] = idx
	for _, it := range lp.iters {
		if !it.isRandomAccess() {
			continue
		}
		pos, ok := it.locate(idx, ctx.coords)
		body.Append(ir.Decl(it.pos, pos))
		if !ir.IsTrue(ok) {
			f := ir.NewVar(it.pos.Name+"_found", dtype.Bool)
			body.Append(ir.Decl(f, ok))
			found[it] = f
		}
	}
	if lvl != nil && lvl.strategy == locateLevel {
		pos, _ := lvl.it.locate(idx, ctx.coords)
		body.Append(ir.Decl(lvl.it.pos, pos))
	}
	if whileLoop {
		body.Append(ctx.segmentEnds(rng, idx)...)
	}
	if lvl != nil {
		if next := ctx.nextLevel(lvl); next != nil && next.start != nil {
			body.Append(ir.Decl(next.start, next.it.pos))
		}
	}
	if v == ctx.incVar && ctx.opts.assemble && ctx.opts.compute {
		body.Append(ctx.growValues(lvl))
	}
	sub := lat.sub(lp)
	var clauses []ir.Clause
	guarded := false
	for _, lq := range sub.points {
		caseBody, err := ctx.lowerCase(t, lq, v, idx, lvl)
		if err != nil {
			return nil, err
		}
		var conds []ir.Expr
		for _, it := range lat.rangeIterators(lq) {
			if ir.Expr(it.coord) != idx {
				conds = append(conds, ir.Eq(it.coord, idx))
			}
		}
		for _, it := range lq.iters {
			if f, ok := found[it]; ok {
				conds = append(conds, f)
				guarded = true
			}
		}
		clauses = append(clauses, ir.Clause{Cond: ir.And(conds...), Body: caseBody})
	}
	body.Append(createIfStatements(clauses, sub, guarded))
	if whileLoop {
		for _, it := range rng {
			var advance ir.Stmt = ir.Set(it.pos, it.end)
			if it.isRandomAccess() {
				advance = ir.AddTo(it.coord, ir.Int(1))
			}
			if ir.Expr(it.coord) == idx {
				body.Append(advance)
				continue
			}
			body.Append(ir.If(ir.Eq(it.coord, idx), advance))
		}
	}
	return body, nil
}

// segmentEnds declares the end of the segment of positions with the
// current coordinate of the sequential range iterators.
func (ctx *context) segmentEnds(rng []*iterator, idx ir.Expr) []ir.Stmt {
	var stmts []ir.Stmt
	for _, it := range rng {
		if !it.isSequential() {
			continue
		}
		stmts = append(stmts, ir.Decl(it.end, ir.Add(it.pos, ir.Int(1))))
		if !it.hasDuplicates() {
			continue
		}
		_, segEnd := it.bounds(ctx.coords)
		next, _ := it.access(it.end, ctx.coords)
		skip := &ir.While{
			Cond: ir.And(ir.Lt(it.end, segEnd), ir.Eq(next, it.coord)),
			Body: ir.NewBlock(ir.AddTo(it.end, ir.Int(1))),
		}
		if ir.Expr(it.coord) == idx {
			stmts = append(stmts, skip)
			continue
		}
		stmts = append(stmts, ir.If(ir.Eq(it.coord, idx), skip))
	}
	return stmts
}

// createIfStatements returns the statement executing the first case whose
// condition holds.
func createIfStatements(clauses []ir.Clause, sub *lattice, guarded bool) ir.Stmt {
	if !sub.needsMerge() {
		return ir.If(clauses[0].Cond, clauses[0].Body)
	}
	var cases []ir.Clause
	var always *ir.Clause
	for i, c := range clauses {
		if ir.IsTrue(c.Cond) && always == nil {
			always = &clauses[i]
			continue
		}
		cases = append(cases, c)
	}
	if always != nil {
		return &ir.Case{Clauses: append(cases, *always), AlwaysMatch: true}
	}
	return &ir.Case{Clauses: cases, AlwaysMatch: !guarded && sub.isFull()}
}

// lowerCase emits the code of the case of a lattice point.
func (ctx *context) lowerCase(t target, lq *point, v *notation.IndexVar, idx ir.Expr, lvl *resultLevel) (*ir.Block, error) {
	body := ir.NewBlock()
	vc := ctx.varCase(v)
	expr := lq.expr
	if lvl != nil && lvl.strategy == yieldLevel {
		m := lvl.it.mode
		parentPos := lvl.it.parent.posExpr()
		coords := append(lvl.it.parentCoords(ctx.coords), idx)
		fn := m.Format.YieldPos(parentPos, coords, m)
		body.Append(fn.Body)
		if pos, ok := fn.Result(0).(*ir.Var); !ok || pos.Name != lvl.it.pos.Name {
			body.Append(ir.Decl(lvl.it.pos, fn.Result(0)))
		}
		if ctx.opts.assemble {
			body.Append(m.Format.InsertCoord(parentPos, lvl.it.pos, coords, m))
		}
	}
	if ctx.opts.compute && vc == aboveLastFree {
		expr = ctx.hoist(v, expr, body)
	}
	reduces := vc == lastFree || vc == belowLastFree
	for _, child := range ctx.sched.children(v) {
		childExpr, childTarget := expr, t
		if reduces {
			if !ctx.opts.compute {
				continue
			}
			if childExpr = subExpr(expr, ctx.sched.descendants(child)); childExpr == nil {
				continue
			}
			tmp := notation.NewScalar("t" + child.Name)
			tv := ir.NewVar(tmp.Name, dtype.Float64)
			ctx.temps[tmp] = tv
			childTarget = target{temp: tv}
			body.Append(ir.Decl(tv, ir.Zero(dtype.Float64)))
			expr = notation.Replace(expr, notation.Substitution{From: childExpr, To: tmp.At()})
		}
		loops, err := ctx.lowerVar(childTarget, childExpr, child)
		if err != nil {
			return nil, err
		}
		body.Append(loops)
	}
	if ctx.opts.compute && reduces {
		body.Append(ctx.compute(t, v, expr))
	}
	if lvl != nil && lvl.strategy == appendLevel {
		body.Append(ctx.incrementPos(lvl, idx, vc))
	}
	return body, nil
}

// hoist declares temporaries for the sub-expressions of x computable
// at v and returns x reading the temporaries.
func (ctx *context) hoist(v *notation.IndexVar, x notation.Expr, body *ir.Block) notation.Expr {
	for _, avail := range availableExprs(x, ctx.sched.ancestors(v)) {
		tmp := notation.NewScalar(ctx.names.Name("t" + v.Name))
		tv := ir.NewVar(tmp.Name, dtype.Float64)
		ctx.temps[tmp] = tv
		body.Append(ir.Decl(tv, ctx.lowerScalar(avail)))
		x = notation.Replace(x, notation.Substitution{From: avail, To: tmp.At()})
	}
	return x
}

// compute emits the store of the value of an expression into a target.
func (ctx *context) compute(t target, v *notation.IndexVar, x notation.Expr) ir.Stmt {
	val := ctx.lowerScalar(x)
	if t.temp != nil {
		return &ir.Assign{Var: t.temp, Value: val, Accumulate: ctx.sched.hasReductionAncestor(v)}
	}
	return &ir.Store{
		Array:      t.array,
		Index:      t.pos,
		Value:      val,
		Accumulate: ctx.sched.hasReductionAncestor(v) || ctx.assign.Accumulate,
	}
}

// incrementPos emits the code appending a coordinate to a level of the result.
func (ctx *context) incrementPos(lvl *resultLevel, idx ir.Expr, vc varCase) ir.Stmt {
	m := lvl.it.mode
	inc := ir.NewBlock()
	if ctx.opts.assemble {
		inc.Append(m.Format.AppendCoord(lvl.it.pos, idx, m))
	}
	inc.Append(ir.AddTo(lvl.it.pos, ir.Int(1)))
	if vc != aboveLastFree {
		return inc
	}
	next := ctx.nextLevel(lvl)
	if !ctx.opts.assemble && next.strategy != locateLevel {
		return nil
	}
	loop := lvl.it.hasDuplicates() && next.it.isFixedRange() && next.strategy != locateLevel
	if !loop && next.start == nil {
		return inc
	}
	inserted := ir.NewIndexVar(next.it.pos.Name + "_inserted")
	var count ir.Expr = next.it.rangeSize()
	if next.start != nil {
		count = ir.Sub(next.it.pos, next.start)
	}
	var stmt ir.Stmt = inc
	if loop {
		stmt = &ir.For{
			Var:   ir.NewIndexVar("d" + m.Name()),
			Start: ir.Int(0),
			End:   inserted,
			Step:  next.it.rangeSize(),
			Body:  inc,
		}
	}
	if next.start != nil {
		stmt = ir.If(ir.Gt(inserted, ir.Int(0)), stmt)
	}
	return ir.NewBlock(ir.Decl(inserted, count), stmt)
}

// growValues emits the code doubling the capacity of the values of the
// result when a position is appended beyond it.
func (ctx *context) growValues(lvl *resultLevel) ir.Stmt {
	vals := format.Values(ctx.result.tensor)
	end := ir.Mul(ir.Add(lvl.it.pos, ir.Int(1)), ctx.valsInc)
	capacity := ir.NewIndexVar(ctx.valsCap.Name + "_new")
	grow := ir.NewBlock(
		ir.Decl(capacity, ir.Max(ir.Mul(ir.Int(2), ctx.valsCap), end)),
		ir.Realloc(vals, capacity),
	)
	if ctx.zeroOnGrowth() {
		grow.Append(ctx.zeroValues(ctx.valsCap, capacity))
	}
	grow.Append(ir.Set(ctx.valsCap, capacity))
	return ir.If(ir.Lte(ctx.valsCap, end), grow)
}

// loopKind returns how the iterations of the loop over v can be scheduled.
// Only the outermost loop over a free variable writing into a dense
// result is parallelized.
func (ctx *context) loopKind(v *notation.IndexVar, it *iterator) ir.LoopKind {
	if !ctx.opts.parallel || ctx.sched.position(v) != 0 || !ctx.sched.isFree(v) {
		return ir.Serial
	}
	for _, lvl := range ctx.levels {
		if lvl.strategy != locateLevel {
			return ir.Serial
		}
	}
	for _, p := range ctx.sched.paths {
		for _, below := range ctx.its.levels[p] {
			if below.level > 0 && !below.isDense() {
				return ir.Dynamic
			}
		}
	}
	return ir.Static
}
