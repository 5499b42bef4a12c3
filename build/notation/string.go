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

package notation

import (
	"strconv"
	"strings"

	gxfmt "github.com/gx-org/tensorlower/base/fmt"
	"github.com/gx-org/tensorlower/build/ir"
)

var binaryOps = map[BinaryOp]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMin: "min",
	OpMax: "max",
}

func (op BinaryOp) String() string {
	return binaryOps[op]
}

func (op ReductionOp) String() string {
	if op == ProdReduction {
		return "prod"
	}
	return "sum"
}

func precedence(x Expr) int {
	bin, ok := x.(*Binary)
	if !ok {
		return 3
	}
	switch bin.Op {
	case OpAdd, OpSub:
		return 1
	case OpMul, OpDiv:
		return 2
	}
	return 3
}

func operand(x Expr, prec int) string {
	if precedence(x) < prec {
		return "(" + x.String() + ")"
	}
	return x.String()
}

func varNames(vars []*IndexVar) string {
	return gxfmt.Join(vars, ",")
}

func (a *Access) String() string {
	if len(a.Vars) == 0 {
		return a.Tensor.Name
	}
	return a.Tensor.Name + "(" + varNames(a.Vars) + ")"
}

func (l *Literal) String() string {
	return strconv.FormatFloat(l.Val, 'g', -1, 64)
}

func (n *Neg) String() string {
	return "-" + operand(n.X, 3)
}

func (s *Sqrt) String() string {
	return "sqrt(" + s.X.String() + ")"
}

func (b *Binary) String() string {
	if b.Op == OpMin || b.Op == OpMax {
		return b.Op.String() + "(" + b.X.String() + ", " + b.Y.String() + ")"
	}
	prec := precedence(b)
	// Right operands of non-commutative operators need parentheses
	// for operators of the same precedence.
	rprec := prec
	if b.Op == OpSub || b.Op == OpDiv {
		rprec++
	}
	return operand(b.X, prec) + " " + b.Op.String() + " " + operand(b.Y, rprec)
}

func (r *Reduction) String() string {
	return r.Op.String() + "(" + r.Var.Name + ", " + r.X.String() + ")"
}

func (c *Cast) String() string {
	return ir.TypeName(c.Typ) + "(" + c.X.String() + ")"
}

func (m *Map) String() string {
	return m.Func + "(" + m.X.String() + ")"
}

func (c *CallIntrinsic) String() string {
	return c.Name + "(" + gxfmt.Join(c.Args, ", ") + ")"
}

func (a *Assignment) String() string {
	op := " = "
	if a.Accumulate {
		op = " += "
	}
	return a.LHS.String() + op + a.RHS.String()
}

func (f *Forall) String() string {
	return "forall(" + f.Var.Name + ", " + f.Body.String() + ")"
}

func (w *Where) String() string {
	return "where(" + w.Consumer.String() + ", " + w.Producer.String() + ")"
}

func (s *Sequence) String() string {
	return "sequence(" + s.Definition.String() + ", " + s.Mutation.String() + ")"
}

func (m *Multi) String() string {
	return "multi(" + gxfmt.Join(m.Stmts, ", ") + ")"
}

func (y *Yield) String() string {
	return "yield({" + varNames(y.Vars) + "}, " + y.Expr.String() + ")"
}

// Indent returns a statement printed over several lines, one forall per line.
func Indent(stmt Stmt) string {
	var b strings.Builder
	depth := 0
	for {
		forall, ok := stmt.(*Forall)
		if !ok {
			break
		}
		b.WriteString(strings.Repeat(gxfmt.Tab, depth))
		b.WriteString("forall " + forall.Var.Name + "\n")
		depth++
		stmt = forall.Body
	}
	b.WriteString(strings.Repeat(gxfmt.Tab, depth))
	b.WriteString(stmt.String())
	return b.String()
}
