package compiler

import (
	"fmt"
	"io"

	"github.com/cmml/cmmc/pkg/lang/ast"
	"github.com/cmml/cmmc/pkg/lang/types"
	"github.com/cmml/cmmc/pkg/mips"
)

// codegen emits MIPS/SPIM text assembly for a bound, typed tree. Every
// expression evaluates onto the runtime stack and leaves exactly one
// word; statements pop what they consume. Boolean expressions have two
// lowerings: genValue materialises 0/1, genJump branches straight to
// caller-supplied labels, which is what conditions use.
type codegen struct {
	prog *mips.Writer

	// Monotonic label generator; also used for string literal labels.
	lbl int

	// String literals already emitted, by value.
	strs map[string]string

	// Enclosing function, for the epilogue label.
	fnName string
}

// generate lowers prog and writes the assembly text to out.
func generate(prog *ast.Program, out io.Writer) error {
	c := &codegen{
		prog: mips.NewWriter(),
		strs: make(map[string]string),
	}
	for _, d := range prog.Decls {
		if v, ok := d.(*ast.VarDecl); ok {
			sym := v.Name.Sym.(*types.Var)
			c.prog.Global("_"+sym.Name(), sym.Size)
		}
	}
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FnDecl); ok {
			c.fnDecl(fn)
		}
	}
	return c.prog.Flush(out)
}

// newLabel returns a fresh label from the monotonic generator.
func (c *codegen) newLabel() string {
	l := fmt.Sprintf("_L%d", c.lbl)
	c.lbl++
	return l
}

// internString returns the data label for a string value, emitting the
// .asciiz entry the first time the value is seen.
func (c *codegen) internString(val string) string {
	if l, ok := c.strs[val]; ok {
		return l
	}
	l := c.newLabel()
	c.strs[val] = l
	c.prog.Asciiz(l, val)
	return l
}

// fnLabel returns the code label a call to fn jumps to.
func fnLabel(name string) string {
	if name == "main" {
		return "main"
	}
	return "_" + name
}

func exitLabel(name string) string { return "_" + name + "_Exit" }

func (c *codegen) push(reg string) {
	c.prog.Inst(mips.SW, reg, mips.Off(0, mips.SP))
	c.prog.Inst(mips.SUB, mips.SP, mips.SP, mips.Imm(wordSize))
}

func (c *codegen) pop(reg string) {
	c.prog.Inst(mips.LW, reg, mips.Off(wordSize, mips.SP))
	c.prog.Inst(mips.ADD, mips.SP, mips.SP, mips.Imm(wordSize))
}

// drop discards the word on top of the stack.
func (c *codegen) drop() {
	c.prog.Inst(mips.ADD, mips.SP, mips.SP, mips.Imm(wordSize))
}

// ----------------------------------------------------------------------------
// Functions

func (c *codegen) fnDecl(d *ast.FnDecl) {
	fn := d.Name.Sym.(*types.Fn)
	c.fnName = fn.Name()

	isMain := fn.Name() == "main"
	if isMain {
		c.prog.Directive(".globl main")
		c.prog.Label("main")
		c.prog.Label("__start")
	} else {
		c.prog.Label(fnLabel(fn.Name()))
	}

	// Prologue: save the return address and the caller's frame pointer,
	// then point FP at the first argument and reserve the locals.
	c.prog.Comment("function entry")
	c.push(mips.RA)
	c.push(mips.FP)
	c.prog.Inst(mips.ADDU, mips.FP, mips.SP, mips.Imm(fn.FormalsSize+2*wordSize))
	if fn.LocalsSize > 0 {
		c.prog.Inst(mips.SUB, mips.SP, mips.SP, mips.Imm(fn.LocalsSize))
	}

	for _, s := range d.Body.Stmts {
		c.stmt(s)
	}

	// Epilogue; returns jump here. main leaves through the exit syscall
	// instead of its caller.
	c.prog.Label(exitLabel(fn.Name()))
	c.prog.Comment("function exit")
	if isMain {
		c.prog.Inst(mips.LI, mips.V0, mips.Imm(mips.SysExit))
		c.prog.Inst(mips.SYSC)
		return
	}
	c.prog.Inst(mips.LW, mips.RA, mips.Off(-fn.FormalsSize, mips.FP))
	c.prog.Inst(mips.MOVE, mips.T0, mips.FP)
	c.prog.Inst(mips.LW, mips.FP, mips.Off(-fn.FormalsSize-wordSize, mips.FP))
	c.prog.Inst(mips.MOVE, mips.SP, mips.T0)
	c.prog.Inst(mips.JR, mips.RA)
}

// ----------------------------------------------------------------------------
// Statements

func (c *codegen) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		c.genValue(s.X)
		c.drop()
	case *ast.IncStmt:
		c.incDec(s.X, mips.ADD)
	case *ast.DecStmt:
		c.incDec(s.X, mips.SUB)
	case *ast.ReadStmt:
		c.genRead(s)
	case *ast.WriteStmt:
		c.genWrite(s)
	case *ast.IfStmt:
		c.genIf(s)
	case *ast.WhileStmt:
		c.genWhile(s)
	case *ast.CallStmt:
		c.genValue(s.Call)
		c.drop()
	case *ast.ReturnStmt:
		if s.X != nil {
			c.genValue(s.X)
			c.pop(mips.V0)
		}
		c.prog.Inst(mips.B, exitLabel(c.fnName))
	}
}

func (c *codegen) incDec(lv ast.Expr, op string) {
	c.genAddr(lv)
	c.pop(mips.T0)
	c.prog.Inst(mips.LW, mips.T1, mips.Off(0, mips.T0))
	c.prog.Inst(op, mips.T1, mips.T1, mips.Imm(1))
	c.prog.Inst(mips.SW, mips.T1, mips.Off(0, mips.T0))
}

func (c *codegen) genRead(s *ast.ReadStmt) {
	c.prog.Inst(mips.LI, mips.V0, mips.Imm(mips.SysReadInt))
	c.prog.Inst(mips.SYSC)
	if types.Is(s.X.Type(), types.Bool) {
		// Any non-zero input reads as true.
		c.prog.Inst(mips.SNE, mips.V0, mips.V0, mips.Imm(0))
	}
	c.genAddr(s.X)
	c.pop(mips.T0)
	c.prog.Inst(mips.SW, mips.V0, mips.Off(0, mips.T0))
}

func (c *codegen) genWrite(s *ast.WriteStmt) {
	c.genValue(s.X)
	c.pop(mips.A0)
	if types.Is(s.X.Type(), types.String) {
		c.prog.Inst(mips.LI, mips.V0, mips.Imm(mips.SysPrintString))
	} else {
		c.prog.Inst(mips.LI, mips.V0, mips.Imm(mips.SysPrintInt))
	}
	c.prog.Inst(mips.SYSC)
}

func (c *codegen) genIf(s *ast.IfStmt) {
	thenL := c.newLabel()
	endL := c.newLabel()
	if s.Else == nil {
		c.genJump(s.Cond, thenL, endL)
		c.prog.Label(thenL)
		c.stmts(s.Then)
		c.prog.Label(endL)
		return
	}
	elseL := c.newLabel()
	c.genJump(s.Cond, thenL, elseL)
	c.prog.Label(thenL)
	c.stmts(s.Then)
	c.prog.Inst(mips.B, endL)
	c.prog.Label(elseL)
	c.stmts(s.Else)
	c.prog.Label(endL)
}

func (c *codegen) genWhile(s *ast.WhileStmt) {
	loopL := c.newLabel()
	bodyL := c.newLabel()
	endL := c.newLabel()
	c.prog.Label(loopL)
	c.genJump(s.Cond, bodyL, endL)
	c.prog.Label(bodyL)
	c.stmts(s.Body)
	c.prog.Inst(mips.B, loopL)
	c.prog.Label(endL)
}

func (c *codegen) stmts(b *ast.Block) {
	for _, s := range b.Stmts {
		c.stmt(s)
	}
}

// ----------------------------------------------------------------------------
// Expressions, value mode

// genValue evaluates e and leaves its one-word value on the stack.
func (c *codegen) genValue(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		c.prog.Inst(mips.LI, mips.T0, mips.Imm(int(e.Val)))
		c.push(mips.T0)
	case *ast.StrLit:
		c.prog.Inst(mips.LA, mips.T0, c.internString(e.Val))
		c.push(mips.T0)
	case *ast.BoolLit:
		v := 0
		if e.Val {
			v = 1
		}
		c.prog.Inst(mips.LI, mips.T0, mips.Imm(v))
		c.push(mips.T0)
	case *ast.Ident:
		v := e.Sym.(*types.Var)
		if v.Global {
			c.prog.Inst(mips.LW, mips.T0, "_"+v.Name())
		} else {
			c.prog.Inst(mips.LW, mips.T0, mips.Off(v.Offset, mips.FP))
		}
		c.push(mips.T0)
	case *ast.DotAccess:
		c.genAddr(e)
		c.pop(mips.T0)
		c.prog.Inst(mips.LW, mips.T0, mips.Off(0, mips.T0))
		c.push(mips.T0)
	case *ast.AssignExpr:
		c.genAssign(e)
	case *ast.CallExpr:
		c.genCall(e)
	case *ast.UnaryExpr:
		c.genUnary(e)
	case *ast.BinaryExpr:
		c.genBinary(e)
	}
}

// genAssign stores rhs through the lhs address and leaves the assigned
// value on the stack, so assignments chain.
func (c *codegen) genAssign(e *ast.AssignExpr) {
	c.genValue(e.Rhs)
	c.genAddr(e.Lhs)
	c.pop(mips.T0)
	c.prog.Inst(mips.LW, mips.T1, mips.Off(wordSize, mips.SP))
	c.prog.Inst(mips.SW, mips.T1, mips.Off(0, mips.T0))
}

// genCall pushes the arguments left to right, jumps, and pushes the
// returned value; the callee's epilogue already popped the arguments.
func (c *codegen) genCall(e *ast.CallExpr) {
	for _, arg := range e.Args {
		c.genValue(arg)
	}
	c.prog.Inst(mips.JAL, fnLabel(e.Fun.Name))
	c.push(mips.V0)
}

func (c *codegen) genUnary(e *ast.UnaryExpr) {
	c.genValue(e.X)
	c.pop(mips.T0)
	if e.Op == ast.Neg {
		c.prog.Inst(mips.LI, mips.T1, mips.Imm(0))
		c.prog.Inst(mips.SUB, mips.T0, mips.T1, mips.T0)
	} else {
		c.prog.Inst(mips.XOR, mips.T0, mips.T0, mips.Imm(1))
	}
	c.push(mips.T0)
}

var arithOp = map[ast.BinOp]string{
	ast.Plus:   mips.ADD,
	ast.Minus:  mips.SUB,
	ast.Times:  mips.MULO,
	ast.Divide: mips.DIV,
}

var setOp = map[ast.BinOp]string{
	ast.Eq: mips.SEQ,
	ast.Ne: mips.SNE,
	ast.Lt: mips.SLT,
	ast.Gt: mips.SGT,
	ast.Le: mips.SLE,
	ast.Ge: mips.SGE,
}

var branchOp = map[ast.BinOp]string{
	ast.Eq: mips.BEQ,
	ast.Ne: mips.BNE,
	ast.Lt: mips.BLT,
	ast.Gt: mips.BGT,
	ast.Le: mips.BLE,
	ast.Ge: mips.BGE,
}

func (c *codegen) genBinary(e *ast.BinaryExpr) {
	switch {
	case e.Op == ast.And:
		// Evaluate the left side and keep it as the result when it
		// already decides the answer; only then evaluate the right.
		endL := c.newLabel()
		c.genValue(e.X)
		c.prog.Inst(mips.LW, mips.T0, mips.Off(wordSize, mips.SP))
		c.prog.Inst(mips.BEQ, mips.T0, mips.Imm(0), endL)
		c.drop()
		c.genValue(e.Y)
		c.prog.Label(endL)
	case e.Op == ast.Or:
		endL := c.newLabel()
		c.genValue(e.X)
		c.prog.Inst(mips.LW, mips.T0, mips.Off(wordSize, mips.SP))
		c.prog.Inst(mips.BNE, mips.T0, mips.Imm(0), endL)
		c.drop()
		c.genValue(e.Y)
		c.prog.Label(endL)
	default:
		c.genValue(e.X)
		c.genValue(e.Y)
		c.pop(mips.T1)
		c.pop(mips.T0)
		if op, ok := arithOp[e.Op]; ok {
			c.prog.Inst(op, mips.T0, mips.T0, mips.T1)
		} else {
			c.prog.Inst(setOp[e.Op], mips.T0, mips.T0, mips.T1)
		}
		c.push(mips.T0)
	}
}

// ----------------------------------------------------------------------------
// Expressions, jump mode

// genJump evaluates a boolean expression by branching: control reaches
// tLabel when the expression is true and fLabel when it is false, without
// materialising a 0/1 value. Conditions are lowered this way.
func (c *codegen) genJump(e ast.Expr, tLabel, fLabel string) {
	switch e := e.(type) {
	case *ast.BoolLit:
		if e.Val {
			c.prog.Inst(mips.B, tLabel)
		} else {
			c.prog.Inst(mips.B, fLabel)
		}
	case *ast.UnaryExpr:
		if e.Op == ast.Not {
			c.genJump(e.X, fLabel, tLabel)
			return
		}
		c.jumpOnValue(e, tLabel, fLabel)
	case *ast.BinaryExpr:
		switch {
		case e.Op == ast.And:
			next := c.newLabel()
			c.genJump(e.X, next, fLabel)
			c.prog.Label(next)
			c.genJump(e.Y, tLabel, fLabel)
		case e.Op == ast.Or:
			next := c.newLabel()
			c.genJump(e.X, tLabel, next)
			c.prog.Label(next)
			c.genJump(e.Y, tLabel, fLabel)
		case e.Op.IsEquality() || e.Op.IsRelational():
			c.genValue(e.X)
			c.genValue(e.Y)
			c.pop(mips.T1)
			c.pop(mips.T0)
			c.prog.Inst(branchOp[e.Op], mips.T0, mips.T1, tLabel)
			c.prog.Inst(mips.B, fLabel)
		default:
			c.jumpOnValue(e, tLabel, fLabel)
		}
	default:
		c.jumpOnValue(e, tLabel, fLabel)
	}
}

// jumpOnValue materialises the expression and branches on the result;
// the fallback for expressions with no direct branch form.
func (c *codegen) jumpOnValue(e ast.Expr, tLabel, fLabel string) {
	c.genValue(e)
	c.pop(mips.T0)
	c.prog.Inst(mips.BEQ, mips.T0, mips.Imm(0), fLabel)
	c.prog.Inst(mips.B, tLabel)
}

// ----------------------------------------------------------------------------
// L-value addressing

// genAddr pushes the address an l-value designates. For dot accesses the
// field offset is known statically, so the chain collapses to its root
// variable plus one displacement.
func (c *codegen) genAddr(e ast.Expr) {
	root, disp := flattenLvalue(e)
	if root.Global {
		c.prog.Inst(mips.LA, mips.T0, "_"+root.Name())
		if disp != 0 {
			c.prog.Inst(mips.ADD, mips.T0, mips.T0, mips.Imm(disp))
		}
	} else {
		c.prog.Inst(mips.LA, mips.T0, mips.Off(root.Offset+disp, mips.FP))
	}
	c.push(mips.T0)
}

// flattenLvalue resolves an Id or dot-access chain to its root variable
// and the accumulated field displacement in bytes.
func flattenLvalue(e ast.Expr) (*types.Var, int) {
	disp := 0
	for {
		switch x := e.(type) {
		case *ast.Ident:
			return x.Sym.(*types.Var), disp
		case *ast.DotAccess:
			disp += x.Sel.Sym.(*types.Var).Offset
			e = x.X
		default:
			panic(fmt.Sprintf("not an lvalue: %T", e))
		}
	}
}
