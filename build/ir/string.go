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

package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/tensorlower/base/fmt"
)

// TypeName returns the name of a data type in printed programs.
func TypeName(typ dtype.DataType) string {
	switch typ {
	case dtype.Bool:
		return "bool"
	case dtype.Int32:
		return "int32"
	case dtype.Int64:
		return "int64"
	case dtype.Uint32:
		return "uint32"
	case dtype.Uint64:
		return "uint64"
	case dtype.Float32:
		return "float32"
	case dtype.Float64:
		return "float64"
	}
	return "invalid"
}

var binaryOps = map[BinaryOp]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpRem: "%",
	OpEq:  "==",
	OpNeq: "!=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
	OpAnd: "&&",
	OpOr:  "||",
}

func (op BinaryOp) String() string {
	switch op {
	case OpMin:
		return "min"
	case OpMax:
		return "max"
	}
	return binaryOps[op]
}

func (op BinaryOp) precedence() int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte:
		return 3
	case OpAdd, OpSub:
		return 4
	case OpMul, OpDiv, OpRem:
		return 5
	}
	// min and max are printed as calls.
	return 7
}

func precedence(x Expr) int {
	switch xT := x.(type) {
	case *Binary:
		return xT.Op.precedence()
	case *Unary:
		return 6
	}
	return 7
}

// operand prints x, with parenthesis if it binds less than its parent.
func operand(x Expr, parent int, right bool) string {
	prec := precedence(x)
	if prec < parent || (right && prec == parent) {
		return "(" + x.String() + ")"
	}
	return x.String()
}

func (v *Var) String() string { return v.Name }

func (l *Literal) String() string {
	switch {
	case l.Typ == dtype.Bool:
		return strconv.FormatBool(l.Bool)
	case isFloat(l.Typ):
		s := strconv.FormatFloat(l.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatInt(l.Int, 10)
}

func (b *Binary) String() string {
	if b.Op == OpMin || b.Op == OpMax {
		return fmt.Sprintf("%s(%s, %s)", b.Op, b.X, b.Y)
	}
	prec := b.Op.precedence()
	return operand(b.X, prec, false) + " " + b.Op.String() + " " + operand(b.Y, prec, true)
}

func (u *Unary) String() string {
	op := "-"
	if u.Op == OpNot {
		op = "!"
	}
	return op + operand(u.X, 6, false)
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = arg.String()
	}
	return c.Func + "(" + strings.Join(args, ", ") + ")"
}

func (c *Cast) String() string {
	return fmt.Sprintf("(%s)(%s)", TypeName(c.Typ), c.X)
}

func (l *Load) String() string {
	return fmt.Sprintf("%s[%s]", operand(l.Array, 7, false), l.Index)
}

func (p *GetProperty) String() string { return p.Name }

// ----------------------------------------------------------------------------
// Statements.

func (k LoopKind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	}
	return "serial"
}

func bodyString(s Stmt) string {
	if s == nil {
		return ""
	}
	str := s.String()
	if str != "" && !strings.HasSuffix(str, "\n") {
		str += "\n"
	}
	return gxfmt.Indent(1, str)
}

func braces(head string, body Stmt) string {
	return head + " {\n" + bodyString(body) + "}\n"
}

func (b *Block) String() string {
	var s strings.Builder
	for _, stmt := range b.Stmts {
		s.WriteString(stmt.String())
	}
	return s.String()
}

func (d *VarDecl) String() string {
	kind := TypeName(d.Var.Typ)
	if d.Var.Kind != ScalarVar {
		kind += "*"
	}
	if d.Init == nil {
		return fmt.Sprintf("%s %s;\n", kind, d.Var.Name)
	}
	return fmt.Sprintf("%s %s = %s;\n", kind, d.Var.Name, d.Init)
}

func assignOp(accumulate bool) string {
	if accumulate {
		return "+="
	}
	return "="
}

func (a *Assign) String() string {
	return fmt.Sprintf("%s %s %s;\n", a.Var.Name, assignOp(a.Accumulate), a.Value)
}

func (st *Store) String() string {
	return fmt.Sprintf("%s[%s] %s %s;\n", operand(st.Array, 7, false), st.Index, assignOp(st.Accumulate), st.Value)
}

func (c *IfThenElse) String() string {
	s := braces(fmt.Sprintf("if (%s)", c.Cond), c.Then)
	if c.Else != nil {
		s += braces("else", c.Else)
	}
	return s
}

func (c *Case) String() string {
	var s strings.Builder
	for i, clause := range c.Clauses {
		last := i == len(c.Clauses)-1
		switch {
		case i > 0 && last && c.AlwaysMatch:
			s.WriteString(braces("else", clause.Body))
		case i == 0:
			s.WriteString(braces(fmt.Sprintf("if (%s)", clause.Cond), clause.Body))
		default:
			s.WriteString(braces(fmt.Sprintf("else if (%s)", clause.Cond), clause.Body))
		}
	}
	return s.String()
}

func (f *For) String() string {
	inc := fmt.Sprintf("%s += %s", f.Var.Name, f.Step)
	if isInt(f.Step, 1) {
		inc = f.Var.Name + "++"
	}
	head := fmt.Sprintf("for (%s %s = %s; %s < %s; %s)", TypeName(f.Var.Typ), f.Var.Name, f.Start, f.Var.Name, f.End, inc)
	if f.Kind != Serial {
		head = fmt.Sprintf("#pragma parallel %s\n%s", f.Kind, head)
	}
	return braces(head, f.Body)
}

func (w *While) String() string {
	return braces(fmt.Sprintf("while (%s)", w.Cond), w.Body)
}

func (a *Allocate) String() string {
	if a.Realloc {
		return fmt.Sprintf("%s = realloc(%s, %s);\n", a.Array, a.Array, a.Size)
	}
	return fmt.Sprintf("%s = malloc(%s);\n", a.Array, a.Size)
}

func (f *Free) String() string {
	return fmt.Sprintf("free(%s);\n", f.Array)
}

func (c *Comment) String() string {
	return "// " + c.Text + "\n"
}

func (*BlankLine) String() string {
	return "\n"
}

func varList(vars []*Var) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	return strings.Join(names, ", ")
}

func (f *Function) String() string {
	head := fmt.Sprintf("func %s(%s) -> (%s)", f.Name, varList(f.Inputs), varList(f.Outputs))
	return braces(head, f.Body)
}
