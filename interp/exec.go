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
	"runtime"

	"github.com/gx-org/tensorlower/build/ir"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func (fr *frame) exec(stmt ir.Stmt) error {
	switch sT := stmt.(type) {
	case *ir.Block:
		return fr.execBlock(sT)
	case *ir.VarDecl:
		return fr.execDecl(sT)
	case *ir.Assign:
		return fr.execAssign(sT)
	case *ir.Store:
		return fr.execStore(sT)
	case *ir.IfThenElse:
		cond, err := fr.evalBool(sT.Cond)
		if err != nil {
			return err
		}
		if cond {
			return fr.exec(sT.Then)
		}
		if sT.Else != nil {
			return fr.exec(sT.Else)
		}
		return nil
	case *ir.Case:
		return fr.execCase(sT)
	case *ir.For:
		return fr.execFor(sT)
	case *ir.While:
		return fr.execWhile(sT)
	case *ir.Allocate:
		return fr.execAllocate(sT)
	case *ir.Free, *ir.Comment, *ir.BlankLine:
		return nil
	}
	return errors.Errorf("statement %T not supported", stmt)
}

func (fr *frame) execBlock(block *ir.Block) error {
	blockFrame := fr.newBlockFrame()
	for _, stmt := range block.Stmts {
		if err := blockFrame.exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (fr *frame) execDecl(decl *ir.VarDecl) error {
	if decl.Init == nil {
		fr.define(decl.Var.Name, zero(decl.Var))
		return nil
	}
	val, err := fr.eval(decl.Init)
	if err != nil {
		return err
	}
	if decl.Var.Kind == ir.ScalarVar {
		if val, err = cast(decl.Var.Typ, val); err != nil {
			return errors.WithMessagef(err, "cannot declare %s", decl.Var.Name)
		}
	}
	fr.define(decl.Var.Name, val)
	return nil
}

func (fr *frame) execAssign(asg *ir.Assign) error {
	val, err := fr.eval(asg.Value)
	if err != nil {
		return err
	}
	if asg.Accumulate {
		current, err := fr.find(asg.Var)
		if err != nil {
			return err
		}
		if val, err = add(current, val); err != nil {
			return errors.WithMessagef(err, "cannot add to %s", asg.Var.Name)
		}
	}
	if val, err = cast(asg.Var.Typ, val); err != nil {
		return errors.WithMessagef(err, "cannot assign %s", asg.Var.Name)
	}
	return fr.assign(asg.Var, val)
}

func add(x, y value) (value, error) {
	xi, xInt := x.(int64)
	yi, yInt := y.(int64)
	if xInt && yInt {
		return xi + yi, nil
	}
	xf, err := convert[float64](x)
	if err != nil {
		return nil, err
	}
	yf, err := convert[float64](y)
	if err != nil {
		return nil, err
	}
	return xf + yf, nil
}

func (fr *frame) execStore(store *ir.Store) error {
	array, err := fr.evalArray(store.Array)
	if err != nil {
		return err
	}
	index, err := fr.evalInt(store.Index)
	if err != nil {
		return err
	}
	val, err := fr.eval(store.Value)
	if err != nil {
		return err
	}
	return array.store(index, val, store.Accumulate)
}

func (fr *frame) execCase(c *ir.Case) error {
	for i, clause := range c.Clauses {
		if c.AlwaysMatch && i == len(c.Clauses)-1 {
			return fr.exec(clause.Body)
		}
		cond, err := fr.evalBool(clause.Cond)
		if err != nil {
			return err
		}
		if cond {
			return fr.exec(clause.Body)
		}
	}
	return nil
}

func (fr *frame) execFor(loop *ir.For) error {
	if loop.Kind != ir.Serial {
		return fr.execParallelFor(loop)
	}
	loopFrame := fr.newBlockFrame()
	start, err := fr.evalInt(loop.Start)
	if err != nil {
		return err
	}
	step, err := fr.evalInt(loop.Step)
	if err != nil {
		return err
	}
	loopFrame.define(loop.Var.Name, start)
	for {
		end, err := loopFrame.evalInt(loop.End)
		if err != nil {
			return err
		}
		i, err := loopFrame.evalInt(loop.Var)
		if err != nil {
			return err
		}
		if i >= end {
			return nil
		}
		if err := loopFrame.exec(loop.Body); err != nil {
			return err
		}
		loopFrame.define(loop.Var.Name, i+step)
	}
}

// execParallelFor runs the iterations of a parallel loop concurrently.
// Iterations of a static loop are split in contiguous chunks, one per
// worker. Iterations of a dynamic loop are scheduled one at a time.
// The bounds of a parallel loop are evaluated once.
func (fr *frame) execParallelFor(loop *ir.For) error {
	start, err := fr.evalInt(loop.Start)
	if err != nil {
		return err
	}
	end, err := fr.evalInt(loop.End)
	if err != nil {
		return err
	}
	step, err := fr.evalInt(loop.Step)
	if err != nil {
		return err
	}
	if step <= 0 {
		return errors.Errorf("loop over %s has a non-positive step %d", loop.Var.Name, step)
	}
	iteration := func(i int64) error {
		iterFrame := fr.newBlockFrame()
		iterFrame.define(loop.Var.Name, i)
		return iterFrame.exec(loop.Body)
	}
	workers := int64(runtime.GOMAXPROCS(0))
	var g errgroup.Group
	g.SetLimit(int(workers))
	if loop.Kind == ir.Dynamic {
		for i := start; i < end; i += step {
			g.Go(func() error { return iteration(i) })
		}
		return g.Wait()
	}
	numIters := (end - start + step - 1) / step
	chunk := (numIters + workers - 1) / workers
	for first := int64(0); first < numIters; first += chunk {
		last := min(first+chunk, numIters)
		g.Go(func() error {
			for n := first; n < last; n++ {
				if err := iteration(start + n*step); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (fr *frame) execWhile(loop *ir.While) error {
	for {
		cond, err := fr.evalBool(loop.Cond)
		if err != nil {
			return err
		}
		if !cond {
			return nil
		}
		if err := fr.exec(loop.Body); err != nil {
			return err
		}
	}
}

func (fr *frame) execAllocate(alloc *ir.Allocate) error {
	if v, ok := alloc.Array.(*ir.Var); ok {
		if _, defined := fr.lookup(v); !defined {
			fr.root().define(v.Name, newLocalArray(v))
		}
	}
	array, err := fr.evalArray(alloc.Array)
	if err != nil {
		return err
	}
	size, err := fr.evalInt(alloc.Size)
	if err != nil {
		return err
	}
	if size < 0 {
		return errors.Errorf("%s: negative size %d", alloc, size)
	}
	array.resize(size, alloc.Realloc)
	return nil
}
